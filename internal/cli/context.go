package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/existflow/taskdeck/internal/config"
	"github.com/spf13/cobra"
)

var contextCmd = &cobra.Command{
	Use:   "context",
	Short: "Manage the default category",
	Long: `Set or view the current category context.

When a context is set, new tasks go to that category unless --category is given.

Examples:
  taskdeck context              # Show current context
  taskdeck context set work     # Set context to the 'work' category
  taskdeck context clear        # Clear context`,
	RunE: runContextShow,
}

var contextSetCmd = &cobra.Command{
	Use:   "set [category]",
	Short: "Set the current category context",
	Args:  cobra.ExactArgs(1),
	RunE:  runContextSet,
}

var contextClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Clear the current context",
	RunE:  runContextClear,
}

func init() {
	contextCmd.AddCommand(contextSetCmd)
	contextCmd.AddCommand(contextClearCmd)
}

// Context file path
func contextFilePath() (string, error) {
	dir, err := config.Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "context"), nil
}

// GetCurrentContext returns the current category ID (empty means none)
func GetCurrentContext() string {
	path, err := contextFilePath()
	if err != nil {
		return ""
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return ""
	}
	return strings.TrimSpace(string(data))
}

// SetContext saves the current context
func SetContext(categoryID string) error {
	path, err := contextFilePath()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	return os.WriteFile(path, []byte(categoryID), 0644)
}

// ClearContext removes the context file
func ClearContext() error {
	path, err := contextFilePath()
	if err != nil {
		return err
	}
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

func runContextShow(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()
	current := GetCurrentContext()
	if current == "" {
		fmt.Fprintln(out, "📥 No context set: use 'taskdeck context set <category>'")
		return nil
	}

	a, err := openApp(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	category, ok := a.Categories.Get(current)
	if !ok {
		fmt.Fprintf(out, "⚠️  Context set to '%s' but category not found\n", current)
		return nil
	}

	fmt.Fprintf(out, "📁 Current context: %s\n", category.Name)
	return nil
}

func runContextSet(cmd *cobra.Command, args []string) error {
	a, err := openApp(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	category, err := resolveCategory(a, args[0])
	if err != nil {
		return err
	}

	if err := SetContext(category.ID); err != nil {
		return fmt.Errorf("failed to set context: %w", err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "📁 Switched to: %s\n", category.Name)
	return nil
}

func runContextClear(cmd *cobra.Command, args []string) error {
	if err := ClearContext(); err != nil {
		return fmt.Errorf("failed to clear context: %w", err)
	}
	fmt.Fprintln(cmd.OutOrStdout(), "📥 Context cleared")
	return nil
}
