package cli

import (
	"fmt"
	"time"

	"github.com/existflow/taskdeck/internal/logger"
	"github.com/existflow/taskdeck/internal/model"
	"github.com/spf13/cobra"
)

var taskCmd = &cobra.Command{
	Use:     "task",
	Aliases: []string{"t"},
	Short:   "Manage tasks",
	Long:    `Create, list, edit and complete tasks.`,
}

var taskShowCmd = &cobra.Command{
	Use:   "show [task-id]",
	Short: "Show every field of a task",
	Args:  cobra.ExactArgs(1),
	RunE:  runTaskShow,
}

var taskEditCmd = &cobra.Command{
	Use:   "edit [task-id]",
	Short: "Change fields of a task",
	Long: `Change one or more fields of a task. Fields without a flag keep their value.

Examples:
  taskdeck task edit abc123 --title "Renamed"
  taskdeck task edit abc123 -p high --due +2d`,
	Args: cobra.ExactArgs(1),
	RunE: runTaskEdit,
}

var (
	editTitle       string
	editDescription string
	editDue         string
	editPriority    string
	editStatus      string
	editCategory    string
)

func init() {
	taskEditCmd.Flags().StringVarP(&editTitle, "title", "t", "", "New title")
	taskEditCmd.Flags().StringVarP(&editDescription, "description", "d", "", "New description")
	taskEditCmd.Flags().StringVar(&editDue, "due", "", "New due date")
	taskEditCmd.Flags().StringVarP(&editPriority, "priority", "p", "", "New priority")
	taskEditCmd.Flags().StringVarP(&editStatus, "status", "s", "", "New status")
	taskEditCmd.Flags().StringVarP(&editCategory, "category", "c", "", "Move to category")

	taskCmd.AddCommand(taskAddCmd)
	taskCmd.AddCommand(taskListCmd)
	taskCmd.AddCommand(taskShowCmd)
	taskCmd.AddCommand(taskEditCmd)
	taskCmd.AddCommand(taskDoneCmd)
	taskCmd.AddCommand(taskStartCmd)
	taskCmd.AddCommand(taskDeleteCmd)
}

func runTaskShow(cmd *cobra.Command, args []string) error {
	a, err := openApp(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	task, err := resolveTask(a, args[0])
	if err != nil {
		return err
	}

	category := "Uncategorized"
	if c, ok := a.Categories.Get(task.CategoryID); ok {
		category = c.Name
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "%s\n", task.Title)
	if task.Description != "" {
		fmt.Fprintf(out, "\n  %s\n\n", task.Description)
	}
	fmt.Fprintf(out, "  ID:        %s\n", task.ID)
	fmt.Fprintf(out, "  Category:  %s\n", category)
	fmt.Fprintf(out, "  Status:    %s\n", task.Status.Label())
	fmt.Fprintf(out, "  Priority:  %s\n", task.Priority)
	due := task.DueDate.In(time.Local).Format("Mon Jan 2 2006 15:04")
	if task.IsOverdue(a.Now()) {
		due += " (overdue)"
	}
	fmt.Fprintf(out, "  Due:       %s\n", due)
	fmt.Fprintf(out, "  Created:   %s\n", task.CreatedAt.In(time.Local).Format(time.RFC1123))
	fmt.Fprintf(out, "  Updated:   %s\n", task.UpdatedAt.In(time.Local).Format(time.RFC1123))
	return nil
}

func runTaskEdit(cmd *cobra.Command, args []string) error {
	a, err := openApp(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	task, err := resolveTask(a, args[0])
	if err != nil {
		return err
	}

	now := a.Now()
	var patch model.TaskPatch
	flags := cmd.Flags()
	if flags.Changed("title") {
		patch.Title = &editTitle
	}
	if flags.Changed("description") {
		patch.Description = &editDescription
	}
	if flags.Changed("due") {
		due, err := model.ParseDueDate(editDue, now, time.Local)
		if err != nil {
			return err
		}
		patch.DueDate = &due
	}
	if flags.Changed("priority") {
		p, err := model.ParsePriority(editPriority)
		if err != nil {
			return err
		}
		patch.Priority = &p
	}
	if flags.Changed("status") {
		s, err := model.ParseStatus(editStatus)
		if err != nil {
			return err
		}
		patch.Status = &s
	}
	if flags.Changed("category") {
		c, err := resolveCategory(a, editCategory)
		if err != nil {
			return err
		}
		patch.CategoryID = &c.ID
	}

	if patch.IsEmpty() {
		return fmt.Errorf("nothing to change: pass at least one field flag")
	}
	if err := model.ValidateTaskPatch(patch, now); err != nil {
		return err
	}

	updated, err := a.Tasks.Update(cmd.Context(), task.ID, patch)
	if err != nil {
		return fmt.Errorf("failed to update task: %w", err)
	}
	logger.Info("Task edited", logger.F("id", updated.ID))

	fmt.Fprintf(cmd.OutOrStdout(), "✓ Updated: %q\n", updated.Title)
	return nil
}
