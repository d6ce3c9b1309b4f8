package entries

import (
	"sync"

	"github.com/ArnarValur/therpy-journal-sub000/internal/store"
)

// Collection is a live, decrypted mirror of one user's documents of a
// single kind. Snapshot returns the last good decrypted listing, Updates
// streams new snapshots as they arrive, Err reports the sticky error state
// (non-nil only while no good snapshot exists or the last refresh failed
// systemically). Cancel releases the underlying store subscription.
type Collection[T any] struct {
	mu      sync.RWMutex
	items   []T
	primed  bool
	err     error
	updates chan []T
	sub     *store.Subscription
}

func newCollection[T any](sub *store.Subscription, decode func([]store.Document) ([]T, error)) *Collection[T] {
	c := &Collection[T]{
		updates: make(chan []T, 1),
		sub:     sub,
	}
	go c.run(decode)
	return c
}

func (c *Collection[T]) run(decode func([]store.Document) ([]T, error)) {
	defer close(c.updates)

	for docs := range c.sub.C {
		items, err := decode(docs)
		if err != nil {
			// keep the previous snapshot; surface the error state
			c.mu.Lock()
			c.err = err
			c.mu.Unlock()
			continue
		}

		c.mu.Lock()
		c.items = items
		c.primed = true
		c.err = nil
		c.mu.Unlock()

		c.push(items)
	}
}

// push delivers with latest-wins semantics so slow consumers never block
// the decode loop.
func (c *Collection[T]) push(items []T) {
	for {
		select {
		case c.updates <- items:
			return
		default:
		}
		select {
		case <-c.updates:
		default:
		}
	}
}

// Snapshot returns the last good decrypted listing (nil before the first
// emission).
func (c *Collection[T]) Snapshot() []T {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.items
}

// Primed reports whether at least one good snapshot has been received;
// it distinguishes "no entries" from "nothing loaded yet".
func (c *Collection[T]) Primed() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.primed
}

// Err returns the sticky error state, cleared by the next good snapshot.
func (c *Collection[T]) Err() error {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.err
}

// Updates streams decrypted snapshots. The channel closes after Cancel.
func (c *Collection[T]) Updates() <-chan []T {
	return c.updates
}

// Cancel releases the store subscription. Safe to call more than once.
func (c *Collection[T]) Cancel() {
	c.sub.Cancel()
}

func (c *Collection[T]) setInitial(items []T, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.primed {
		return
	}
	if err != nil {
		c.err = err
		return
	}
	c.items = items
	c.primed = true
}
