package cli

import (
	"fmt"
	"strings"
	"time"

	"github.com/existflow/taskdeck/internal/logger"
	"github.com/existflow/taskdeck/internal/model"
	"github.com/spf13/cobra"
)

var taskAddCmd = &cobra.Command{
	Use:   "add [title]",
	Short: "Add a new task",
	Long: `Add a new task to a category.

Examples:
  taskdeck task add "Buy groceries" --category home
  taskdeck task add "Quarterly report" -c work -p high --due 2026-07-01
  taskdeck task add "Call back" --due tomorrow -d "about the invoice"`,
	Args: cobra.MinimumNArgs(1),
	RunE: runTaskAdd,
}

var (
	addCategory    string
	addPriority    string
	addStatus      string
	addDue         string
	addDescription string
)

func init() {
	taskAddCmd.Flags().StringVarP(&addCategory, "category", "c", "", "Category name or id (defaults to the current context)")
	taskAddCmd.Flags().StringVarP(&addPriority, "priority", "p", "medium", "Priority (high, medium, low)")
	taskAddCmd.Flags().StringVarP(&addStatus, "status", "s", "todo", "Status (todo, doing, done)")
	taskAddCmd.Flags().StringVar(&addDue, "due", "tomorrow", "Due date (e.g., 'today', '+3d', '2026-01-15')")
	taskAddCmd.Flags().StringVarP(&addDescription, "description", "d", "", "Longer description")
}

func runTaskAdd(cmd *cobra.Command, args []string) error {
	a, err := openApp(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	// Use context if no category specified
	ref := addCategory
	if ref == "" {
		ref = GetCurrentContext()
	}
	if ref == "" {
		return fmt.Errorf("no category given: use --category or 'taskdeck context set <category>'")
	}
	category, err := resolveCategory(a, ref)
	if err != nil {
		return err
	}

	priority, err := model.ParsePriority(addPriority)
	if err != nil {
		return err
	}
	status, err := model.ParseStatus(addStatus)
	if err != nil {
		return err
	}
	now := a.Now()
	due, err := model.ParseDueDate(addDue, now, time.Local)
	if err != nil {
		return err
	}

	fields := model.TaskFields{
		Title:       strings.Join(args, " "),
		Description: addDescription,
		DueDate:     due,
		Priority:    priority,
		Status:      status,
		CategoryID:  category.ID,
	}
	if err := model.ValidateNewTask(fields, now); err != nil {
		return err
	}

	task, err := a.Tasks.Add(cmd.Context(), fields)
	if err != nil {
		return fmt.Errorf("failed to create task: %w", err)
	}
	logger.Info("Task added", logger.F("id", task.ID), logger.F("category", category.ID))

	fmt.Fprintf(cmd.OutOrStdout(), "✓ Added to [%s]: %q (%s, due %s) id %s\n",
		category.Name, task.Title, strings.ToLower(string(task.Priority)),
		task.DueDate.In(time.Local).Format("Jan 2"), shortID(task.ID))
	return nil
}
