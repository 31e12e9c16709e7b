package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/existflow/taskdeck/internal/app"
	"github.com/existflow/taskdeck/internal/config"
	"github.com/existflow/taskdeck/internal/logger"
	"github.com/existflow/taskdeck/internal/store"
	"github.com/existflow/taskdeck/internal/sync"
	"github.com/existflow/taskdeck/server"
	gfshutdown "github.com/gelmium/graceful-shutdown"
	"github.com/spf13/pflag"
)

const shutdownTimeout = 30 * time.Second

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "taskdeck-server: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	addr := pflag.String("addr", getEnv("TASKDECK_ADDR", ":8080"), "Listen address")
	mirrorTo := pflag.String("mirror", os.Getenv("TASKDECK_MIRROR"), "Copy every change to this backend (postgres, redis, sqlite)")
	mirrorData := pflag.String("mirror-data", "", "SQLite file when --mirror is sqlite")
	debounce := pflag.Duration("mirror-debounce", sync.DefaultDebounce, "Wait this long after the last change before mirroring")
	pflag.Parse()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if err := logger.Init(logger.Config{
		Level:      logger.ParseLevel(cfg.LogLevel),
		FilePath:   cfg.LogFile,
		MaxSize:    10 * 1024 * 1024,
		MaxAge:     7,
		MaxBackups: 5,
		Console:    true,
	}); err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	defer logger.Close()

	ctx := context.Background()
	a, err := app.Open(ctx, cfg)
	if err != nil {
		return err
	}

	var mirror *sync.Mirror
	if *mirrorTo != "" {
		remoteCfg := *cfg
		remoteCfg.Storage = *mirrorTo
		remoteCfg.DataPath = *mirrorData
		remote, err := app.OpenStorage(ctx, &remoteCfg, app.PassphraseFromEnvOrPrompt)
		if err != nil {
			_ = a.Close()
			return fmt.Errorf("failed to open mirror: %w", err)
		}
		defer remote.Close()

		mirror = sync.NewMirror(remote, *debounce)
		sync.Watch(mirror, store.TasksKey, a.Tasks.All())
		sync.Watch(mirror, store.CategoriesKey, a.Categories.All())
		logger.Info("Mirroring changes", logger.F("backend", *mirrorTo))
	}

	srv := server.New(a, logger.Default())
	go func() {
		if err := srv.Start(*addr); err != nil {
			logger.Error("HTTP server failed", logger.F("error", err))
			_ = a.Close()
			logger.Close()
			os.Exit(1)
		}
	}()

	operations := map[string]gfshutdown.Operation{
		"http": srv.Shutdown,
	}
	wait := gfshutdown.GracefulShutdown(ctx, shutdownTimeout, operations)
	exitCode := <-wait

	// Stores close only after the HTTP server has drained
	if mirror != nil {
		stopCtx, cancel := context.WithTimeout(ctx, shutdownTimeout)
		if err := mirror.Stop(stopCtx); err != nil {
			logger.Error("Final mirror flush failed", logger.F("error", err))
		}
		cancel()
	}
	if err := a.Close(); err != nil {
		return err
	}
	logger.Info("Server exited", logger.F("code", exitCode))
	if exitCode != 0 {
		return fmt.Errorf("shutdown finished with code %d", exitCode)
	}
	return nil
}

// getEnv returns environment variable value or default.
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
