package cli

import (
	"fmt"

	"github.com/existflow/taskdeck/internal/app"
	"github.com/existflow/taskdeck/internal/config"
	"github.com/existflow/taskdeck/internal/kv"
	"github.com/existflow/taskdeck/internal/sync"
	"github.com/spf13/cobra"
)

var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Sync tasks with another storage backend",
	Long: `Reconcile your tasks and categories with a second backend, for example
a shared Postgres database or Redis instance.

The remote uses the database_url, redis_addr and redis_prefix settings from the
config file. By default both sides are merged: the most recently updated copy
of each task wins.

Examples:
  taskdeck sync --remote postgres          # Merge with Postgres
  taskdeck sync --remote redis --pull      # Replace local data with Redis
  taskdeck sync --remote sqlite --remote-data backup.db --push`,
	RunE: runSync,
}

var syncStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show what each side holds",
	RunE:  runSyncStatus,
}

var (
	syncRemote     string
	syncRemoteData string
	syncPull       bool
	syncPush       bool
)

func init() {
	syncCmd.AddCommand(syncStatusCmd)

	syncCmd.PersistentFlags().StringVar(&syncRemote, "remote", config.StoragePostgres, "Remote backend (postgres, redis, sqlite)")
	syncCmd.PersistentFlags().StringVar(&syncRemoteData, "remote-data", "", "SQLite file when --remote is sqlite")
	syncCmd.Flags().BoolVar(&syncPull, "pull", false, "Force sync from remote (replaces local)")
	syncCmd.Flags().BoolVar(&syncPush, "push", false, "Force sync from local (replaces remote)")
}

// openSyncPair opens the local and remote backends without any store on top
func openSyncPair(cmd *cobra.Command) (local, remote kv.Store, err error) {
	remoteCfg := *cfg
	remoteCfg.Storage = syncRemote
	remoteCfg.DataPath = syncRemoteData
	if remoteCfg.Storage == cfg.Storage && remoteCfg.DataPath == cfg.DataPath {
		return nil, nil, fmt.Errorf("remote must differ from the local %s backend", cfg.Storage)
	}

	local, err = app.OpenStorage(cmd.Context(), cfg, app.PassphraseFromEnvOrPrompt)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open local storage: %w", err)
	}
	remote, err = app.OpenStorage(cmd.Context(), &remoteCfg, app.PassphraseFromEnvOrPrompt)
	if err != nil {
		_ = local.Close()
		return nil, nil, fmt.Errorf("failed to open remote storage: %w", err)
	}
	return local, remote, nil
}

func runSync(cmd *cobra.Command, args []string) error {
	if syncPull && syncPush {
		return fmt.Errorf("cannot use both --pull and --push")
	}

	local, remote, err := openSyncPair(cmd)
	if err != nil {
		return err
	}
	defer local.Close()
	defer remote.Close()

	out := cmd.OutOrStdout()
	mode := sync.ModeMerge
	if syncPull {
		mode = sync.ModeRemoteToLocal
		fmt.Fprintln(out, "⚠️  Forcing sync from remote (replacing local data)...")
	} else if syncPush {
		mode = sync.ModeLocalToRemote
		fmt.Fprintln(out, "⚠️  Forcing sync from local (replacing remote data)...")
	} else {
		fmt.Fprintln(out, "🔄 Synchronizing...")
	}

	result, err := sync.Sync(cmd.Context(), local, remote, mode)
	if err != nil {
		return fmt.Errorf("sync failed: %w", err)
	}

	fmt.Fprintf(out, "✓ Sync complete! Pushed: %d, Pulled: %d\n", result.Pushed, result.Pulled)
	return nil
}

func runSyncStatus(cmd *cobra.Command, args []string) error {
	local, remote, err := openSyncPair(cmd)
	if err != nil {
		return err
	}
	defer local.Close()
	defer remote.Close()

	localTasks, localCats, err := sync.Count(cmd.Context(), local)
	if err != nil {
		return fmt.Errorf("local: %w", err)
	}
	remoteTasks, remoteCats, err := sync.Count(cmd.Context(), remote)
	if err != nil {
		return fmt.Errorf("remote: %w", err)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Local:   %-9s %d tasks, %d categories\n", cfg.Storage, localTasks, localCats)
	fmt.Fprintf(out, "Remote:  %-9s %d tasks, %d categories\n", syncRemote, remoteTasks, remoteCats)
	return nil
}
