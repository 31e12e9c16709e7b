// Package app opens the configured storage backend and the stores built on it.
package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/existflow/taskdeck/internal/config"
	"github.com/existflow/taskdeck/internal/db"
	"github.com/existflow/taskdeck/internal/kv"
	"github.com/existflow/taskdeck/internal/logger"
	"github.com/existflow/taskdeck/internal/store"
	"github.com/existflow/taskdeck/internal/stream"
	"github.com/existflow/taskdeck/internal/views"
)

// App bundles the task and category stores over one backend
type App struct {
	Tasks      *store.TaskStore
	Categories *store.CategoryStore

	backend kv.Store
	clock   func() time.Time
	log     *logger.Logger
}

// Option configures Open
type Option func(*settings)

type settings struct {
	passphrase func() (string, error)
	backend    kv.Store
	storeOpts  []store.Option
	clock      func() time.Time
	log        *logger.Logger
}

// WithPassphrase sets how the encryption passphrase is obtained
func WithPassphrase(fn func() (string, error)) Option {
	return func(s *settings) { s.passphrase = fn }
}

// WithBackend skips backend selection and uses kv directly
func WithBackend(backend kv.Store) Option {
	return func(s *settings) { s.backend = backend }
}

// WithClock sets the time source for stores and views
func WithClock(clock func() time.Time) Option {
	return func(s *settings) {
		s.clock = clock
		s.storeOpts = append(s.storeOpts, store.WithClock(clock))
	}
}

// WithLogger sets the logger used by the app and its stores
func WithLogger(l *logger.Logger) Option {
	return func(s *settings) {
		s.log = l
		s.storeOpts = append(s.storeOpts, store.WithLogger(l))
	}
}

// Open connects to the backend described by cfg and loads both stores
func Open(ctx context.Context, cfg *config.Config, opts ...Option) (*App, error) {
	s := settings{
		passphrase: PassphraseFromEnvOrPrompt,
		clock:      time.Now,
		log:        logger.Default(),
	}
	for _, opt := range opts {
		opt(&s)
	}

	var backend kv.Store
	var err error
	if s.backend == nil {
		backend, err = OpenStorage(ctx, cfg, s.passphrase)
	} else {
		backend = s.backend
		if cfg.Encrypt {
			backend, err = Seal(ctx, s.backend, s.passphrase)
		}
	}
	if err != nil {
		return nil, err
	}

	s.log.Info("Storage opened", logger.F("backend", cfg.Storage), logger.F("encrypted", cfg.Encrypt))

	return &App{
		Tasks:      store.NewTaskStore(ctx, backend, s.storeOpts...),
		Categories: store.NewCategoryStore(ctx, backend, s.storeOpts...),
		backend:    backend,
		clock:      s.clock,
		log:        s.log,
	}, nil
}

// OpenBackend opens the raw key/value backend named by cfg.Storage
func OpenBackend(ctx context.Context, cfg *config.Config) (kv.Store, error) {
	switch cfg.Storage {
	case config.StorageSQLite:
		return db.Open(cfg.DataPath)
	case config.StoragePostgres:
		return db.OpenPostgres(cfg.DatabaseURL)
	case config.StorageRedis:
		return db.OpenRedis(ctx, cfg.RedisAddr, cfg.RedisPrefix)
	case config.StorageMemory:
		return kv.NewMemory(), nil
	default:
		return nil, fmt.Errorf("unknown storage %q", cfg.Storage)
	}
}

// Seal wraps backend with encryption and checks the passphrase against any
// data already stored, so a wrong passphrase cannot be mistaken for an empty
// store and then overwrite it.
func Seal(ctx context.Context, backend kv.Store, passphrase func() (string, error)) (kv.Store, error) {
	pass, err := passphrase()
	if err != nil {
		return nil, fmt.Errorf("failed to read passphrase: %w", err)
	}
	sealed, err := kv.NewSealed(ctx, backend, pass)
	if err != nil {
		return nil, err
	}
	for _, key := range []string{store.TasksKey, store.CategoriesKey} {
		if _, err := sealed.Get(ctx, key); err != nil && !errors.Is(err, kv.ErrNotFound) {
			return nil, fmt.Errorf("failed to unlock %s: %w", key, err)
		}
	}
	return sealed, nil
}

// OpenStorage opens the backend named by cfg, sealed when cfg.Encrypt is set.
// It is used by tools that work on the raw collections, such as sync.
func OpenStorage(ctx context.Context, cfg *config.Config, passphrase func() (string, error)) (kv.Store, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	backend, err := OpenBackend(ctx, cfg)
	if err != nil {
		return nil, err
	}
	if !cfg.Encrypt {
		return backend, nil
	}
	sealed, err := Seal(ctx, backend, passphrase)
	if err != nil {
		_ = backend.Close()
		return nil, err
	}
	return sealed, nil
}

// Dashboard streams the combined dashboard view, recomputed on every change
func (a *App) Dashboard() stream.Stream[views.Dashboard] {
	return views.DashboardStream(a.Categories.All(), a.Tasks.All(), a.clock, time.Local)
}

// DashboardSnapshot computes the dashboard from the current state
func (a *App) DashboardSnapshot() views.Dashboard {
	return views.BuildDashboard(a.Categories.Snapshot(), a.Tasks.Snapshot(), a.clock(), time.Local)
}

// Now returns the app clock's current time
func (a *App) Now() time.Time {
	return a.clock()
}

// Close disposes both stores, then closes the backend
func (a *App) Close() error {
	a.Tasks.Close()
	a.Categories.Close()
	if err := a.backend.Close(); err != nil {
		a.log.Error("Failed to close storage", logger.F("error", err))
		return err
	}
	a.log.Info("Storage closed")
	return nil
}
