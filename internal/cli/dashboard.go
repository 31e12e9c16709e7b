package cli

import (
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/existflow/taskdeck/internal/logger"
	"github.com/existflow/taskdeck/internal/tui"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

var dashboardCmd = &cobra.Command{
	Use:     "dashboard",
	Aliases: []string{"ui"},
	Short:   "Launch the interactive dashboard",
	RunE:    runDashboard,
}

func runDashboard(cmd *cobra.Command, args []string) error {
	if !term.IsTerminal(int(os.Stdout.Fd())) {
		return fmt.Errorf("the dashboard needs a terminal; try 'taskdeck stats' or 'taskdeck task list'")
	}

	a, err := openApp(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	logger.Info("Launching TUI")
	m := tui.NewModel(a)
	defer m.Close()

	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(cmd.Context()))
	if _, err := p.Run(); err != nil {
		logger.Error("TUI error", logger.F("error", err))
		return fmt.Errorf("failed to run TUI: %w", err)
	}

	logger.Info("TUI exited normally")
	return nil
}
