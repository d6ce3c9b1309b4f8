// Package autosave drives draft persistence for a form being edited. An
// engine watches one entity at a time, debounces edits into background
// draft saves and serializes them against explicit user saves.
package autosave

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"sync"
	"time"

	"github.com/ArnarValur/therpy-journal-sub000/internal/common"
	"github.com/ArnarValur/therpy-journal-sub000/internal/logging"
)

// SaveFunc persists one snapshot of the form. An empty id means "create";
// the returned id identifies the entity from then on.
type SaveFunc[T any] func(ctx context.Context, id string, data T, isDraft bool) (string, error)

const (
	defaultDebounce    = 2 * time.Second
	defaultSaveTimeout = 30 * time.Second
)

// Options tune one engine instance. Zero values fall back to defaults;
// IsEmpty and Equal default to reflect-based checks.
type Options[T any] struct {
	// Debounce is the quiet period after the last edit before a draft
	// save fires.
	Debounce time.Duration
	// SaveTimeout bounds each background save.
	SaveTimeout time.Duration
	// IsEmpty reports whether the snapshot holds nothing worth saving.
	IsEmpty func(T) bool
	// Equal reports whether two snapshots are the same form state.
	Equal func(a, b T) bool
}

// Engine tracks the edit state of a single form. All methods are safe for
// concurrent use.
type Engine[T any] struct {
	save SaveFunc[T]
	opts Options[T]
	log  logging.Logger

	mu             sync.Mutex
	entityID       string
	current        T
	original       T
	hasOriginal    bool
	timer          *time.Timer
	isManualSaving bool
	isAutosaving   bool
	lastAutosaveAt time.Time
	lastErr        error
	closed         bool

	wg sync.WaitGroup
}

// New builds an engine around save. The engine owns no entity until the
// first Start or successful save.
func New[T any](save SaveFunc[T], opts Options[T], log logging.Logger) *Engine[T] {
	if opts.Debounce <= 0 {
		opts.Debounce = defaultDebounce
	}
	if opts.SaveTimeout <= 0 {
		opts.SaveTimeout = defaultSaveTimeout
	}
	if opts.IsEmpty == nil {
		opts.IsEmpty = func(v T) bool {
			var zero T
			return reflect.DeepEqual(v, zero)
		}
	}
	if opts.Equal == nil {
		opts.Equal = func(a, b T) bool { return reflect.DeepEqual(a, b) }
	}
	return &Engine[T]{save: save, opts: opts, log: log}
}

// Start points the engine at an existing entity and its last persisted
// state. Pass an empty id for a brand-new form.
func (e *Engine[T]) Start(id string, persisted T) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.stopTimerLocked()
	e.entityID = id
	e.current = persisted
	e.original = persisted
	e.hasOriginal = true
	e.lastErr = nil
}

// UpdateFormData records the latest form snapshot and re-arms the debounce
// timer. Each call pushes the pending draft save further out, so only the
// trailing edge of an edit burst persists.
func (e *Engine[T]) UpdateFormData(data T) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return
	}
	e.current = data
	e.stopTimerLocked()
	e.timer = time.AfterFunc(e.opts.Debounce, e.autosaveTick)
}

func (e *Engine[T]) autosaveTick() {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return
	}
	if e.isManualSaving || e.isAutosaving {
		// a save is writing right now; try again after another quiet
		// period so edits made during a slow save still reach a draft
		e.timer = time.AfterFunc(e.opts.Debounce, e.autosaveTick)
		e.mu.Unlock()
		return
	}
	data := e.current
	if e.opts.IsEmpty(data) || (e.hasOriginal && e.opts.Equal(data, e.original)) {
		e.mu.Unlock()
		return
	}
	e.isAutosaving = true
	id := e.entityID
	e.wg.Add(1)
	e.mu.Unlock()

	go func() {
		defer e.wg.Done()
		e.runSave(id, data, true)
	}()
}

// SaveData performs an explicit user save of the given snapshot, marking
// the entity as no longer a draft. A save already in flight from the user
// is rejected; a pending autosave is cancelled first.
func (e *Engine[T]) SaveData(ctx context.Context, data T) (string, error) {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return "", errors.New("autosave engine is closed")
	}
	if e.isManualSaving {
		e.mu.Unlock()
		return "", common.ErrSaveInFlight
	}
	e.stopTimerLocked()
	e.isManualSaving = true
	e.current = data
	e.mu.Unlock()

	// with the manual flag set no new draft save can start; wait out any
	// that is already writing so the two cannot race on the entity id
	e.wg.Wait()

	e.mu.Lock()
	id := e.entityID
	e.mu.Unlock()

	newID, err := e.save(ctx, id, data, false)

	e.mu.Lock()
	defer e.mu.Unlock()
	e.isManualSaving = false
	if err != nil {
		e.lastErr = err
		return "", fmt.Errorf("saving entry: %w", err)
	}
	e.entityID = newID
	e.original = data
	e.hasOriginal = true
	e.lastErr = nil
	return newID, nil
}

// SaveAsDraft persists the current snapshot as a draft immediately, e.g.
// on navigation away. It is a no-op when the form is empty or unchanged.
func (e *Engine[T]) SaveAsDraft(ctx context.Context) error {
	e.mu.Lock()
	if e.closed || e.isManualSaving || e.isAutosaving {
		e.mu.Unlock()
		return nil
	}
	data := e.current
	if e.opts.IsEmpty(data) || (e.hasOriginal && e.opts.Equal(data, e.original)) {
		e.mu.Unlock()
		return nil
	}
	e.stopTimerLocked()
	e.isAutosaving = true
	id := e.entityID
	e.wg.Add(1)
	e.mu.Unlock()
	defer e.wg.Done()

	newID, err := e.save(ctx, id, data, true)
	e.finishAutosave(newID, data, err)
	if err != nil {
		return fmt.Errorf("saving draft: %w", err)
	}
	return nil
}

func (e *Engine[T]) runSave(id string, data T, isDraft bool) {
	ctx, cancel := context.WithTimeout(context.Background(), e.opts.SaveTimeout)
	defer cancel()

	newID, err := e.save(ctx, id, data, isDraft)
	e.finishAutosave(newID, data, err)
	if err != nil {
		e.log.Warn(ctx, "autosave failed", "entity_id", id, "error", err)
	} else {
		e.log.Debug(ctx, "autosaved draft", "entity_id", newID)
	}
}

func (e *Engine[T]) finishAutosave(newID string, data T, err error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.isAutosaving = false
	if err != nil {
		e.lastErr = err
		return
	}
	e.entityID = newID
	// the saved snapshot becomes the new baseline so an unchanged form
	// does not re-save on the next tick
	e.original = data
	e.hasOriginal = true
	e.lastAutosaveAt = time.Now()
	e.lastErr = nil
}

// FinishSaving cancels any pending debounce without persisting. Call it
// when the form closes after an explicit save or discard.
func (e *Engine[T]) FinishSaving() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.stopTimerLocked()
}

// Close cancels pending work and waits for any in-flight background save.
func (e *Engine[T]) Close() {
	e.mu.Lock()
	e.closed = true
	e.stopTimerLocked()
	e.mu.Unlock()
	e.wg.Wait()
}

func (e *Engine[T]) stopTimerLocked() {
	if e.timer != nil {
		e.timer.Stop()
		e.timer = nil
	}
}

// EntityID returns the id of the entity being edited ("" before the first
// save of a new form).
func (e *Engine[T]) EntityID() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.entityID
}

// IsSaving reports whether any save, manual or background, is in flight.
func (e *Engine[T]) IsSaving() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.isManualSaving || e.isAutosaving
}

// LastAutosaveAt returns the wall time of the last successful draft save.
func (e *Engine[T]) LastAutosaveAt() time.Time {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.lastAutosaveAt
}

// LastError returns the most recent save failure, cleared by the next
// successful save.
func (e *Engine[T]) LastError() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.lastErr
}
