package store

import (
	"context"
	"hash/fnv"
	"strconv"
	"sync"
	"time"

	"github.com/ArnarValur/therpy-journal-sub000/internal/logging"
)

// Subscription is a cancellable live view over a document listing. C emits
// full ordered snapshots; it is closed after Cancel or when the watch
// context ends. Every Watch call must be paired with a Cancel on the
// owning context's teardown.
type Subscription struct {
	C      <-chan []Document
	cancel context.CancelFunc
	once   sync.Once
}

// NewSubscription wraps an update channel and its cancel function. Intended
// for Store implementations.
func NewSubscription(c <-chan []Document, cancel context.CancelFunc) *Subscription {
	return &Subscription{C: c, cancel: cancel}
}

// Cancel stops the subscription. Safe to call more than once.
func (s *Subscription) Cancel() {
	s.once.Do(s.cancel)
}

// RunPoll drives a poll-based watch loop for SQL-backed stores: it invokes
// fetch on every tick and emits a snapshot whenever the result set changed
// since the last emission. The first successful fetch is always emitted.
// Fetch errors are logged and the previous snapshot stays in effect; the
// loop never clears a view because of a transient failure.
//
// RunPoll closes out when ctx ends. It is meant to run on its own
// goroutine.
func RunPoll(ctx context.Context, interval time.Duration, fetch func(context.Context) ([]Document, error), out chan<- []Document, log logging.Logger) {
	defer close(out)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	var last uint64
	emitted := false

	poll := func() {
		docs, err := fetch(ctx)
		if err != nil {
			if ctx.Err() == nil {
				log.Warn(ctx, "watch poll failed, keeping previous snapshot", "error", err)
			}
			return
		}
		fp := fingerprint(docs)
		if emitted && fp == last {
			return
		}
		select {
		case out <- docs:
			last = fp
			emitted = true
		case <-ctx.Done():
		}
	}

	poll()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			poll()
		}
	}
}

func fingerprint(docs []Document) uint64 {
	h := fnv.New64a()
	for _, d := range docs {
		h.Write([]byte(d.ID))
		h.Write([]byte(strconv.FormatInt(d.UpdatedAt.UnixNano(), 10)))
	}
	h.Write([]byte(strconv.Itoa(len(docs))))
	return h.Sum64()
}
