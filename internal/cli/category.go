package cli

import (
	"fmt"
	"strings"

	"github.com/existflow/taskdeck/internal/logger"
	"github.com/existflow/taskdeck/internal/model"
	"github.com/existflow/taskdeck/internal/views"
	"github.com/spf13/cobra"
)

var categoryCmd = &cobra.Command{
	Use:     "category",
	Aliases: []string{"cat"},
	Short:   "Manage categories",
	Long:    `Create, list, rename and delete the categories tasks are grouped by.`,
}

var categoryAddCmd = &cobra.Command{
	Use:   "add [name]",
	Short: "Create a new category",
	Long: `Create a new category. Names are unique, ignoring case.

Examples:
  taskdeck category add "Work"
  taskdeck category add "Personal" --color "#FF6B6B"`,
	Args: cobra.ExactArgs(1),
	RunE: runCategoryAdd,
}

var categoryListCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"ls"},
	Short:   "List all categories",
	RunE:    runCategoryList,
}

var categoryRenameCmd = &cobra.Command{
	Use:   "rename [category] [new-name]",
	Short: "Rename a category",
	Args:  cobra.ExactArgs(2),
	RunE:  runCategoryRename,
}

var categoryDeleteCmd = &cobra.Command{
	Use:     "delete [category]",
	Aliases: []string{"rm"},
	Short:   "Delete a category",
	Long:    `Delete a category. Its tasks are kept and show up as uncategorized.`,
	Args:    cobra.ExactArgs(1),
	RunE:    runCategoryDelete,
}

var (
	categoryColor     string
	renameColor       string
	categoryDeleteYes bool
)

func init() {
	categoryAddCmd.Flags().StringVar(&categoryColor, "color", model.DefaultCategoryColor, "Category color (hex)")
	categoryRenameCmd.Flags().StringVar(&renameColor, "color", "", "Also change the color (hex)")
	categoryDeleteCmd.Flags().BoolVarP(&categoryDeleteYes, "yes", "y", false, "Do not ask for confirmation")

	categoryCmd.AddCommand(categoryAddCmd)
	categoryCmd.AddCommand(categoryListCmd)
	categoryCmd.AddCommand(categoryRenameCmd)
	categoryCmd.AddCommand(categoryDeleteCmd)
}

func runCategoryAdd(cmd *cobra.Command, args []string) error {
	a, err := openApp(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	name := strings.TrimSpace(args[0])
	if err := model.ValidateCategoryName(name); err != nil {
		return err
	}

	category, err := a.Categories.Add(cmd.Context(), model.CategoryFields{Name: name, Color: categoryColor})
	if err != nil {
		return fmt.Errorf("failed to create category: %w", err)
	}
	logger.Info("Category added", logger.F("id", category.ID))

	fmt.Fprintf(cmd.OutOrStdout(), "✓ Created category: %s (id: %s)\n", category.Name, shortID(category.ID))
	return nil
}

func runCategoryList(cmd *cobra.Command, args []string) error {
	a, err := openApp(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	out := cmd.OutOrStdout()
	stats := views.CategoryBreakdown(a.Categories.Snapshot(), a.Tasks.Snapshot())
	if len(stats) == 0 {
		fmt.Fprintln(out, "No categories found. Create one with: taskdeck category add \"Work\"")
		return nil
	}

	fmt.Fprintln(out)
	fmt.Fprintf(out, "  %-10s  %-20s  %-8s  %s\n", "ID", "Name", "Color", "Done")
	fmt.Fprintln(out, strings.Repeat("─", 52))

	totalPending := 0
	for _, s := range stats {
		totalPending += s.TaskCount - s.CompletedCount
		fmt.Fprintf(out, "  %-10s  %-20s  %-8s  %d/%d\n", shortID(s.ID), truncate(s.Name, 20), s.Color, s.CompletedCount, s.TaskCount)
	}

	fmt.Fprintln(out, strings.Repeat("─", 52))
	fmt.Fprintf(out, "  %d categories, %d pending tasks\n\n", len(stats), totalPending)
	return nil
}

func runCategoryRename(cmd *cobra.Command, args []string) error {
	a, err := openApp(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	category, err := resolveCategory(a, args[0])
	if err != nil {
		return err
	}

	name := strings.TrimSpace(args[1])
	if err := model.ValidateCategoryName(name); err != nil {
		return err
	}
	patch := model.CategoryPatch{Name: &name}
	if cmd.Flags().Changed("color") {
		patch.Color = &renameColor
	}

	updated, err := a.Categories.Update(cmd.Context(), category.ID, patch)
	if err != nil {
		return fmt.Errorf("failed to rename category: %w", err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "✓ Renamed %s to %s\n", category.Name, updated.Name)
	return nil
}

func runCategoryDelete(cmd *cobra.Command, args []string) error {
	a, err := openApp(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	category, err := resolveCategory(a, args[0])
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	tasks := views.Filter{CategoryID: category.ID}.Apply(a.Tasks.Snapshot())
	if cfg.ConfirmDelete && !categoryDeleteYes {
		fmt.Fprintf(out, "About to delete category %s (%d tasks will become uncategorized)\n", category.Name, len(tasks))
		if !confirm(cmd.InOrStdin(), out, "Are you sure?") {
			fmt.Fprintln(out, "Cancelled.")
			return nil
		}
	}

	if err := a.Categories.Delete(cmd.Context(), category.ID); err != nil {
		return fmt.Errorf("failed to delete category: %w", err)
	}
	if GetCurrentContext() == category.ID {
		_ = ClearContext()
	}
	logger.Info("Category deleted", logger.F("id", category.ID), logger.F("orphaned", len(tasks)))

	fmt.Fprintf(out, "🗑️  Deleted category: %s\n", category.Name)
	return nil
}
