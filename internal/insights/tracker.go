package insights

import (
	"context"
	"sync"
	"time"

	"github.com/ArnarValur/therpy-journal-sub000/internal/entries"
	"github.com/ArnarValur/therpy-journal-sub000/internal/logging"
	"github.com/ArnarValur/therpy-journal-sub000/internal/models"
)

// Tracker keeps a dashboard in step with a live journal collection. Each
// snapshot from the collection triggers a full recompute; a panic during a
// recompute zeroes the aggregate and flips Failed instead of taking the
// consumer down.
type Tracker struct {
	col   *entries.Collection[models.JournalEntry]
	log   logging.Logger
	nowFn func() time.Time

	mu        sync.RWMutex
	dashboard Dashboard
	failed    bool

	done chan struct{}
}

// NewTracker starts tracking the given collection. Close the tracker (or
// cancel the collection) to stop it.
func NewTracker(col *entries.Collection[models.JournalEntry], log logging.Logger) *Tracker {
	t := &Tracker{
		col:   col,
		log:   log,
		nowFn: time.Now,
		done:  make(chan struct{}),
	}
	if col.Primed() {
		t.recompute(col.Snapshot())
	}
	go t.run()
	return t
}

func (t *Tracker) run() {
	defer close(t.done)
	for items := range t.col.Updates() {
		t.recompute(items)
	}
}

func (t *Tracker) recompute(journal []models.JournalEntry) {
	defer func() {
		if r := recover(); r != nil {
			t.log.Error(context.Background(), "dashboard recompute panicked", "panic", r)
			t.mu.Lock()
			t.dashboard = Dashboard{
				AverageSentiments: map[string]float64{},
				TagCounts:         map[string]int{},
			}
			t.failed = true
			t.mu.Unlock()
		}
	}()

	d := BuildDashboard(journal, t.nowFn())

	t.mu.Lock()
	t.dashboard = d
	t.failed = false
	t.mu.Unlock()
}

// Dashboard returns the latest aggregate.
func (t *Tracker) Dashboard() Dashboard {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.dashboard
}

// Failed reports whether the last recompute panicked. It resets on the
// next successful recompute.
func (t *Tracker) Failed() bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.failed
}

// Close cancels the underlying collection and waits for the update loop.
func (t *Tracker) Close() {
	t.col.Cancel()
	<-t.done
}
