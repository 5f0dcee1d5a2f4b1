// Package cli implements the budgetbox command line client. Every command
// works against the local record store first; the sync server is optional
// and its absence degrades the session to offline instead of failing.
package cli

import (
	"context"
	"errors"
	"log/slog"
	"os"

	"budgetbox/internal/client"
	"budgetbox/internal/config"
	"budgetbox/internal/core"
	"budgetbox/internal/log"
	"budgetbox/internal/services"
	"budgetbox/internal/storage"

	"github.com/lmittmann/tint"
)

// App wires the client-side pieces together for one command invocation.
type App struct {
	cfg    *config.Config
	logger *log.Logger
	repo   *storage.Repository
	api    *client.Client
	coord  *services.SyncCoordinator

	online  bool
	session *core.Identity
}

func newApp(ctx context.Context) (*App, error) {
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	logger := log.New(log.Config{
		Component: log.ComponentCLI,
		Handler: tint.NewHandler(os.Stderr, &tint.Options{
			Level: slog.LevelWarn,
		}),
	})
	log.SetDefault(logger)

	repo, err := storage.NewRepository(cfg.SQLiteDBPath)
	if err != nil {
		return nil, err
	}

	api := client.New(cfg.ServerURL, cfg.HTTPTimeout)
	coord := services.NewSyncCoordinator(repo, api, services.CoordinatorConfig{
		DebounceWindow: cfg.DebounceWindow,
	})

	app := &App{
		cfg:    cfg,
		logger: logger,
		repo:   repo,
		api:    api,
		coord:  coord,
	}

	if id, err := repo.GetSession(ctx); err == nil {
		app.session = &id
		coord.SetSession(&id)
	} else if !errors.Is(err, storage.ErrNotFound) {
		repo.Close()
		return nil, err
	}

	app.online = !cfg.Offline && api.Ping(ctx)
	coord.SetOnline(ctx, app.online)

	return app, nil
}

// Close flushes any scheduled push and releases the database. One-shot
// commands rely on this so a debounced push is not lost on exit.
func (a *App) Close() {
	a.coord.Close()
	a.repo.Close()
}

func (a *App) requireSession() error {
	if a.session == nil {
		return errors.New("not logged in, run 'budgetbox login' first")
	}
	return nil
}
