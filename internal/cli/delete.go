package cli

import (
	"fmt"

	"github.com/existflow/taskdeck/internal/logger"
	"github.com/spf13/cobra"
)

var taskDeleteCmd = &cobra.Command{
	Use:     "delete [task-id]",
	Aliases: []string{"rm"},
	Short:   "Delete a task",
	Long: `Delete a task by its ID or a unique ID prefix.

Examples:
  taskdeck task delete abc123
  taskdeck task rm abc123 --yes`,
	Args: cobra.ExactArgs(1),
	RunE: runTaskDelete,
}

var deleteYes bool

func init() {
	taskDeleteCmd.Flags().BoolVarP(&deleteYes, "yes", "y", false, "Do not ask for confirmation")
}

func runTaskDelete(cmd *cobra.Command, args []string) error {
	a, err := openApp(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	task, err := resolveTask(a, args[0])
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if cfg.ConfirmDelete && !deleteYes {
		fmt.Fprintf(out, "About to delete: %q (ID: %s)\n", task.Title, task.ID)
		if !confirm(cmd.InOrStdin(), out, "Are you sure?") {
			fmt.Fprintln(out, "Cancelled.")
			return nil
		}
	}

	if err := a.Tasks.Delete(cmd.Context(), task.ID); err != nil {
		return fmt.Errorf("failed to delete task: %w", err)
	}
	logger.Info("Task deleted", logger.F("id", task.ID))

	fmt.Fprintf(out, "🗑️  Deleted: %q\n", task.Title)
	return nil
}
