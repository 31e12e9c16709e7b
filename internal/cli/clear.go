package cli

import (
	"fmt"

	"github.com/existflow/taskdeck/internal/logger"
	"github.com/spf13/cobra"
)

var clearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Remove completed tasks, or everything",
	Long: `Remove completed tasks from the store.

With --all, every task and category is removed.`,
	RunE: runClear,
}

var (
	clearAll   bool
	clearForce bool
)

func init() {
	clearCmd.Flags().BoolVar(&clearAll, "all", false, "Remove all tasks and categories")
	clearCmd.Flags().BoolVar(&clearForce, "force", false, "Do not ask for confirmation")
}

func runClear(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()
	if !clearForce {
		question := "Remove all completed tasks?"
		if clearAll {
			question = "Remove ALL tasks and categories?"
		}
		if !confirm(cmd.InOrStdin(), out, question) {
			fmt.Fprintln(out, "Aborted.")
			return nil
		}
	}

	a, err := openApp(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	ctx := cmd.Context()
	removedTasks := 0
	for _, t := range a.Tasks.Snapshot() {
		if !clearAll && !t.IsCompleted() {
			continue
		}
		if err := a.Tasks.Delete(ctx, t.ID); err != nil {
			return fmt.Errorf("failed to delete task: %w", err)
		}
		removedTasks++
	}

	removedCategories := 0
	if clearAll {
		for _, c := range a.Categories.Snapshot() {
			if err := a.Categories.Delete(ctx, c.ID); err != nil {
				return fmt.Errorf("failed to delete category: %w", err)
			}
			removedCategories++
		}
		_ = ClearContext()
	}

	logger.Info("Cleared data", logger.F("tasks", removedTasks), logger.F("categories", removedCategories))
	fmt.Fprintf(out, "🧹 Removed %d tasks and %d categories\n", removedTasks, removedCategories)
	return nil
}
