package cli

import (
	"fmt"

	"github.com/existflow/taskdeck/internal/model"
	"github.com/spf13/cobra"
)

var taskDoneCmd = &cobra.Command{
	Use:   "done [task-id]",
	Short: "Mark a task as done",
	Long: `Mark a task as completed.

Examples:
  taskdeck task done abc123
  taskdeck task done abc123 --undo`,
	Args: cobra.ExactArgs(1),
	RunE: runTaskDone,
}

var taskStartCmd = &cobra.Command{
	Use:   "start [task-id]",
	Short: "Mark a task as in progress",
	Args:  cobra.ExactArgs(1),
	RunE:  runTaskStart,
}

var doneUndo bool

func init() {
	taskDoneCmd.Flags().BoolVar(&doneUndo, "undo", false, "Mark task as not started")
}

func runTaskDone(cmd *cobra.Command, args []string) error {
	status := model.StatusCompleted
	if doneUndo {
		status = model.StatusNotStarted
	}
	return setTaskStatus(cmd, args[0], status)
}

func runTaskStart(cmd *cobra.Command, args []string) error {
	return setTaskStatus(cmd, args[0], model.StatusInProgress)
}

func setTaskStatus(cmd *cobra.Command, ref string, status model.Status) error {
	a, err := openApp(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	task, err := resolveTask(a, ref)
	if err != nil {
		return err
	}

	if _, err := a.Tasks.SetStatus(cmd.Context(), task.ID, status); err != nil {
		return fmt.Errorf("failed to update task: %w", err)
	}

	out := cmd.OutOrStdout()
	switch status {
	case model.StatusCompleted:
		fmt.Fprintf(out, "✓ Completed: %q\n", task.Title)
	case model.StatusInProgress:
		fmt.Fprintf(out, "▶ Started: %q\n", task.Title)
	default:
		fmt.Fprintf(out, "○ Reopened: %q\n", task.Title)
	}
	return nil
}
