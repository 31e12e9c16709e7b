package cli

import (
	"fmt"

	"github.com/existflow/taskdeck/internal/app"
	"github.com/existflow/taskdeck/internal/config"
	"github.com/existflow/taskdeck/internal/logger"
	"github.com/spf13/cobra"
)

var (
	logLevel    string
	logFile     string
	logConsole  bool
	storageFlag string
	dataFlag    string

	// cfg is loaded before every command runs
	cfg *config.Config
)

var rootCmd = &cobra.Command{
	Use:   "taskdeck",
	Short: "Taskdeck - tasks, categories and a live dashboard",
	Long: `Taskdeck keeps your tasks and categories in a local or shared store
and shows live statistics about them.

Run 'taskdeck' without arguments to launch the interactive dashboard.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// Load config from file (or defaults if not exists)
		loaded, err := config.Load()
		if err != nil {
			logger.Warn("Failed to load config, using defaults", logger.F("error", err))
			loaded = config.DefaultConfig()
		}
		cfg = loaded

		// Override with CLI flags if provided
		configChanged := false
		if cmd.Flags().Changed("log-level") {
			cfg.LogLevel = logLevel
			configChanged = true
		}
		if cmd.Flags().Changed("log-file") {
			cfg.LogFile = logFile
			configChanged = true
		}
		if cmd.Flags().Changed("log-console") {
			cfg.LogConsole = logConsole
			configChanged = true
		}
		if cmd.Flags().Changed("storage") {
			cfg.Storage = storageFlag
			configChanged = true
		}
		if cmd.Flags().Changed("data") {
			cfg.DataPath = dataFlag
			configChanged = true
		}

		if err := cfg.Validate(); err != nil {
			return err
		}

		// Save config if changed via CLI flags
		if configChanged {
			if err := cfg.Save(); err != nil {
				logger.Warn("Failed to save config", logger.F("error", err))
			}
		}

		logConfig := logger.Config{
			Level:      logger.ParseLevel(cfg.LogLevel),
			FilePath:   cfg.LogFile,
			MaxSize:    10 * 1024 * 1024, // 10MB
			MaxAge:     7,
			MaxBackups: 5,
			Console:    cfg.LogConsole,
		}

		if err := logger.Init(logConfig); err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}

		logger.Info("Taskdeck started", logger.F("command", cmd.CommandPath()))
		return nil
	},
	RunE: runDashboard,
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		logger.Info("Taskdeck exiting", logger.F("command", cmd.CommandPath()))
		logger.Close()
	},
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

// openApp opens the stores described by the loaded config
func openApp(cmd *cobra.Command) (*app.App, error) {
	a, err := app.Open(cmd.Context(), cfg)
	if err != nil {
		logger.Error("Failed to open storage", logger.F("error", err))
		return nil, fmt.Errorf("failed to open storage: %w", err)
	}
	return a, nil
}

func init() {
	// Add logging flags
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level (DEBUG, INFO, WARN, ERROR)")
	rootCmd.PersistentFlags().StringVar(&logFile, "log-file", "", "Path to log file")
	rootCmd.PersistentFlags().BoolVar(&logConsole, "log-console", false, "Enable console logging")

	// Storage flags
	rootCmd.PersistentFlags().StringVar(&storageFlag, "storage", "", "Storage backend (sqlite, postgres, redis, memory)")
	rootCmd.PersistentFlags().StringVar(&dataFlag, "data", "", "Path to the SQLite data file")

	// Add subcommands
	rootCmd.AddCommand(taskCmd)
	rootCmd.AddCommand(categoryCmd)
	rootCmd.AddCommand(contextCmd)
	rootCmd.AddCommand(statsCmd)
	rootCmd.AddCommand(dashboardCmd)
	rootCmd.AddCommand(syncCmd)
	rootCmd.AddCommand(clearCmd)
}
