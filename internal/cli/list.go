package cli

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/existflow/taskdeck/internal/model"
	"github.com/existflow/taskdeck/internal/views"
	"github.com/spf13/cobra"
)

var taskListCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"ls"},
	Short:   "List tasks",
	Long: `List tasks grouped by category.

Completed tasks are hidden unless --done or --status is given.

Examples:
  taskdeck task list
  taskdeck task list --category work
  taskdeck task list --overdue
  taskdeck task list --search invoice --done`,
	RunE: runTaskList,
}

var (
	listCategory    string
	listStatus      string
	listPriority    string
	listSearch      string
	listOverdue     bool
	listIncludeDone bool
)

func init() {
	taskListCmd.Flags().StringVarP(&listCategory, "category", "c", "", "Filter by category")
	taskListCmd.Flags().StringVarP(&listStatus, "status", "s", "", "Filter by status (todo, doing, done)")
	taskListCmd.Flags().StringVarP(&listPriority, "priority", "p", "", "Filter by priority")
	taskListCmd.Flags().StringVarP(&listSearch, "search", "q", "", "Search title and description")
	taskListCmd.Flags().BoolVar(&listOverdue, "overdue", false, "Only overdue tasks")
	taskListCmd.Flags().BoolVar(&listIncludeDone, "done", false, "Include completed tasks")
}

func runTaskList(cmd *cobra.Command, args []string) error {
	a, err := openApp(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	filter := views.Filter{Term: listSearch}
	if listCategory != "" {
		category, err := resolveCategory(a, listCategory)
		if err != nil {
			return err
		}
		filter.CategoryID = category.ID
	}
	if listStatus != "" {
		if filter.Status, err = model.ParseStatus(listStatus); err != nil {
			return err
		}
	}
	if listPriority != "" {
		if filter.Priority, err = model.ParsePriority(listPriority); err != nil {
			return err
		}
	}
	now := a.Now()
	if listOverdue {
		filter.OverdueAt = now
	}

	tasks := filter.Apply(a.Tasks.Snapshot())
	if !listIncludeDone && listStatus == "" {
		var open []model.Task
		for _, t := range tasks {
			if !t.IsCompleted() {
				open = append(open, t)
			}
		}
		tasks = open
	}

	out := cmd.OutOrStdout()
	if len(tasks) == 0 {
		fmt.Fprintln(out, "No tasks found. Add one with: taskdeck task add \"Your task\" -c <category>")
		return nil
	}

	printTasksByCategory(out, categoryNames(a), tasks, now)
	return nil
}

func printTasksByCategory(out io.Writer, names map[string]string, tasks []model.Task, now time.Time) {
	// Group tasks by category, keeping first-seen order
	var order []string
	byCategory := make(map[string][]model.Task)
	for _, t := range views.SortForDisplay(tasks) {
		if _, ok := byCategory[t.CategoryID]; !ok {
			order = append(order, t.CategoryID)
		}
		byCategory[t.CategoryID] = append(byCategory[t.CategoryID], t)
	}

	for _, id := range order {
		name, ok := names[id]
		if !ok {
			name = "Uncategorized"
		}
		printTasks(out, name, byCategory[id], now)
	}
}

func printTasks(out io.Writer, categoryName string, tasks []model.Task, now time.Time) {
	pending := 0
	for _, t := range tasks {
		if !t.IsCompleted() {
			pending++
		}
	}

	fmt.Fprintf(out, "\n📁 %s (%d pending)\n", categoryName, pending)
	fmt.Fprintln(out, strings.Repeat("─", 72))

	for _, t := range tasks {
		printTask(out, t, now)
	}
	fmt.Fprintln(out)
}

func printTask(out io.Writer, t model.Task, now time.Time) {
	// Status icon
	icon := "[ ]"
	switch t.Status {
	case model.StatusInProgress:
		icon = "[~]"
	case model.StatusCompleted:
		icon = "[x]"
	}

	// Priority indicator
	priority := "  low"
	switch t.Priority {
	case model.PriorityHigh:
		priority = "▲ high"
	case model.PriorityMedium:
		priority = "  medium"
	}

	// Due date
	due := t.DueDate.In(time.Local).Format("Jan 2")
	if t.IsOverdue(now) {
		due = "! " + due
	}

	fmt.Fprintf(out, "  %s  %-8s  %-40s  %-10s  %s\n", icon, shortID(t.ID), truncate(t.Title, 40), due, priority)
}
