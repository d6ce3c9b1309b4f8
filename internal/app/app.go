// Package app wires the journaling core together: it selects a document
// store backend, derives the per-user cipher, builds the repositories and
// exposes the edit-session and deletion helpers the UI layer drives.
package app

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/ArnarValur/therpy-journal-sub000/internal/auth"
	"github.com/ArnarValur/therpy-journal-sub000/internal/autosave"
	"github.com/ArnarValur/therpy-journal-sub000/internal/config"
	"github.com/ArnarValur/therpy-journal-sub000/internal/confirm"
	"github.com/ArnarValur/therpy-journal-sub000/internal/cryptox"
	"github.com/ArnarValur/therpy-journal-sub000/internal/entries"
	"github.com/ArnarValur/therpy-journal-sub000/internal/filex"
	"github.com/ArnarValur/therpy-journal-sub000/internal/insights"
	"github.com/ArnarValur/therpy-journal-sub000/internal/logging"
	"github.com/ArnarValur/therpy-journal-sub000/internal/models"
	"github.com/ArnarValur/therpy-journal-sub000/internal/store"
	"github.com/ArnarValur/therpy-journal-sub000/internal/store/memory"
	"github.com/ArnarValur/therpy-journal-sub000/internal/store/postgres"
	"github.com/ArnarValur/therpy-journal-sub000/internal/store/sqlite"
)

// App owns every long-lived component of the journaling core.
type App struct {
	config    *config.Config
	logger    logging.Logger
	store     store.Store
	crypto    *cryptox.Service
	confirmer *confirm.Confirmer

	Journal   *entries.JournalRepository
	LifeStory *entries.LifeStoryRepository
}

// NewApp builds the application around the given config and identity
// provider. The caller owns the provider's session lifecycle.
func NewApp(ctx context.Context, cfg *config.Config, provider auth.Provider) (*App, error) {

	slogger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	logger := logging.NewSlogLogger(slogger)

	st, err := openStore(ctx, cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("store init error: %w", err)
	}

	crypto := cryptox.NewService(provider, cfg.EncryptionSalt)

	return &App{
		config:    cfg,
		logger:    logger,
		store:     st,
		crypto:    crypto,
		confirmer: confirm.New(),
		Journal:   entries.NewJournalRepository(st, crypto, provider, logger),
		LifeStory: entries.NewLifeStoryRepository(st, crypto, provider, logger),
	}, nil
}

func openStore(ctx context.Context, cfg *config.Config, logger logging.Logger) (store.Store, error) {
	switch cfg.StoreDriver {
	case "memory":
		return memory.New(), nil
	case "sqlite":
		if err := filex.EnsureDir(filex.DatabaseDir(cfg.DatabaseDSN)); err != nil {
			return nil, err
		}
		return sqlite.Open(ctx, cfg.DatabaseDSN, cfg.StorePollInterval, logger)
	case "postgres":
		return postgres.Open(ctx, cfg.DatabaseDSN, cfg.StorePollInterval, logger)
	default:
		return nil, fmt.Errorf("unknown store driver %q", cfg.StoreDriver)
	}
}

// Confirmer exposes the confirmation channel for the presenting surface.
func (app *App) Confirmer() *confirm.Confirmer {
	return app.confirmer
}

// Logger exposes the application logger for surfaces built on top.
func (app *App) Logger() logging.Logger {
	return app.logger
}

// NewJournalAutosave builds an autosave engine bound to the journal
// repository. An empty entity id creates a new entry on the first save;
// later saves patch the same entry with the full form snapshot.
func (app *App) NewJournalAutosave() *autosave.Engine[models.JournalEntry] {
	save := func(ctx context.Context, id string, data models.JournalEntry, isDraft bool) (string, error) {
		data.IsDraft = isDraft
		if id == "" {
			return app.Journal.Create(ctx, data)
		}
		if err := app.Journal.Update(ctx, id, entries.FullJournalPatch(data)); err != nil {
			return "", err
		}
		return id, nil
	}
	return autosave.New(save, autosave.Options[models.JournalEntry]{
		Debounce: app.config.AutosaveDebounce,
		IsEmpty:  func(e models.JournalEntry) bool { return e.IsEmpty() },
	}, app.logger)
}

// NewLifeStoryAutosave builds an autosave engine bound to the life-story
// repository.
func (app *App) NewLifeStoryAutosave() *autosave.Engine[models.LifeStoryEntry] {
	save := func(ctx context.Context, id string, data models.LifeStoryEntry, isDraft bool) (string, error) {
		data.IsDraft = isDraft
		if id == "" {
			return app.LifeStory.Create(ctx, data)
		}
		if err := app.LifeStory.Update(ctx, id, entries.FullLifeStoryPatch(data)); err != nil {
			return "", err
		}
		return id, nil
	}
	return autosave.New(save, autosave.Options[models.LifeStoryEntry]{
		Debounce: app.config.AutosaveDebounce,
		IsEmpty:  func(e models.LifeStoryEntry) bool { return e.IsEmpty() },
	}, app.logger)
}

// NewDashboard starts a live dashboard over the journal collection. The
// returned tracker must be closed when no longer needed.
func (app *App) NewDashboard(ctx context.Context) (*insights.Tracker, error) {
	col, err := app.Journal.Watch(ctx)
	if err != nil {
		return nil, err
	}
	return insights.NewTracker(col, app.logger), nil
}

// DeleteJournalEntry asks for confirmation and, when granted, removes the
// entry. It returns false with a nil error when the user declines.
func (app *App) DeleteJournalEntry(ctx context.Context, id string) (bool, error) {
	ok, err := app.confirmer.Ask(ctx, "Delete this journal entry? This cannot be undone.")
	if err != nil || !ok {
		return false, err
	}
	if err := app.Journal.Delete(ctx, id); err != nil {
		return false, err
	}
	return true, nil
}

// DeleteLifeStoryEntry asks for confirmation and, when granted, removes
// the entry. It returns false with a nil error when the user declines.
func (app *App) DeleteLifeStoryEntry(ctx context.Context, id string) (bool, error) {
	ok, err := app.confirmer.Ask(ctx, "Delete this life-story entry? This cannot be undone.")
	if err != nil || !ok {
		return false, err
	}
	if err := app.LifeStory.Delete(ctx, id); err != nil {
		return false, err
	}
	return true, nil
}

// Close releases the backing store.
func (app *App) Close() error {
	return app.store.Close()
}
