// Package commands holds the rental-normalizer command line.
package commands

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"rental-normalizer/config"
	"rental-normalizer/normalize"
	"rental-normalizer/storage"
	"rental-normalizer/utils"
)

// App carries what every subcommand shares. Store and Logger may be set
// up front; otherwise they are built from Config before a command runs.
type App struct {
	Config *config.Config
	Logger *slog.Logger
	Store  storage.ListingStore

	normalizer *normalize.Normalizer
	ownsStore  bool
}

func NewApp(cfg *config.Config) *App {
	return &App{Config: cfg}
}

func (a *App) setup(ctx context.Context) error {
	if err := a.Config.Validate(); err != nil {
		return err
	}
	if a.Logger == nil {
		a.Logger = utils.NewLogger(a.Config.LogLevel, a.Config.LogFormat)
		if !a.Config.EnvFileLoaded {
			a.Logger.Debug("No .env file found, using environment variables")
		}
	}
	a.normalizer = normalize.New(a.Logger)

	if a.Store != nil {
		return nil
	}
	store, err := openStore(ctx, a.Config)
	if err != nil {
		return err
	}
	a.Store = store
	a.ownsStore = true
	a.Logger.Debug("store opened", "driver", a.Config.StoreDriver)
	return nil
}

// Close releases a store the app opened itself.
func (a *App) Close() error {
	if !a.ownsStore || a.Store == nil {
		return nil
	}
	err := a.Store.Close()
	a.Store = nil
	return err
}

func openStore(ctx context.Context, cfg *config.Config) (storage.ListingStore, error) {
	switch cfg.StoreDriver {
	case config.DriverMemory:
		return storage.NewMemoryStore(), nil
	case config.DriverSQLite:
		if cfg.SQLitePath != ":memory:" {
			if err := os.MkdirAll(filepath.Dir(cfg.SQLitePath), 0o755); err != nil {
				return nil, fmt.Errorf("sqlite: create directory: %w", err)
			}
		}
		return storage.NewSQLiteStore(cfg.SQLitePath)
	case config.DriverPostgres:
		store, err := storage.NewPostgresStore(ctx, cfg.DSN())
		if err != nil {
			return nil, fmt.Errorf("%w (is the database running? docker compose up -d)", err)
		}
		return store, nil
	}
	return nil, fmt.Errorf("unknown store driver %q", cfg.StoreDriver)
}
