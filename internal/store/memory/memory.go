// Package memory provides an in-process store.Store used by unit tests and
// as the simplest stand-in for the hosted document database. Watches are
// push-based: every mutation publishes a fresh snapshot to the matching
// subscribers.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/ArnarValur/therpy-journal-sub000/internal/common"
	"github.com/ArnarValur/therpy-journal-sub000/internal/store"
)

type subscriber struct {
	userID string
	kind   string
	ch     chan []store.Document
}

// Store keeps documents in a per-(user, kind) map guarded by one mutex.
type Store struct {
	mu     sync.Mutex
	docs   map[string]map[string]store.Document // scope key -> id -> doc
	subs   map[*subscriber]struct{}
	closed bool
}

// New returns an empty in-memory store.
func New() *Store {
	return &Store{
		docs: make(map[string]map[string]store.Document),
		subs: make(map[*subscriber]struct{}),
	}
}

func scopeKey(userID, kind string) string {
	return userID + "/" + kind
}

func (s *Store) Create(ctx context.Context, doc *store.Document) (string, error) {
	if doc.UserID == "" || doc.Kind == "" {
		return "", fmt.Errorf("%w: document must carry user id and kind", common.ErrStoreOperation)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return "", fmt.Errorf("%w: store closed", common.ErrStoreOperation)
	}

	id := doc.ID
	if id == "" {
		id = uuid.NewString()
	}

	key := scopeKey(doc.UserID, doc.Kind)
	if s.docs[key] == nil {
		s.docs[key] = make(map[string]store.Document)
	}

	stored := *doc
	stored.ID = id
	stored.Payload = append([]byte(nil), doc.Payload...)
	s.docs[key][id] = stored

	s.notifyLocked(doc.UserID, doc.Kind)
	return id, nil
}

func (s *Store) Get(ctx context.Context, userID, kind, id string) (*store.Document, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, ok := s.docs[scopeKey(userID, kind)][id]
	if !ok {
		return nil, common.ErrNotFound
	}
	out := doc
	out.Payload = append([]byte(nil), doc.Payload...)
	return &out, nil
}

func (s *Store) Apply(ctx context.Context, userID, kind, id string, patch []byte, updatedAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := scopeKey(userID, kind)
	doc, ok := s.docs[key][id]
	if !ok {
		return common.ErrNotFound
	}

	merged, err := store.MergePatch(doc.Payload, patch)
	if err != nil {
		return err
	}

	doc.Payload = merged
	doc.UpdatedAt = updatedAt
	s.docs[key][id] = doc

	s.notifyLocked(userID, kind)
	return nil
}

func (s *Store) Delete(ctx context.Context, userID, kind, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := scopeKey(userID, kind)
	if _, ok := s.docs[key][id]; !ok {
		return common.ErrNotFound
	}
	delete(s.docs[key], id)

	s.notifyLocked(userID, kind)
	return nil
}

func (s *Store) List(ctx context.Context, userID, kind string) ([]store.Document, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked(userID, kind), nil
}

func (s *Store) Watch(ctx context.Context, userID, kind string) (*store.Subscription, error) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil, fmt.Errorf("%w: store closed", common.ErrStoreOperation)
	}

	sub := &subscriber{userID: userID, kind: kind, ch: make(chan []store.Document, 1)}
	s.subs[sub] = struct{}{}
	sub.push(s.snapshotLocked(userID, kind))
	s.mu.Unlock()

	ctx, cancel := context.WithCancel(ctx)
	go func() {
		<-ctx.Done()
		s.mu.Lock()
		if _, ok := s.subs[sub]; ok {
			delete(s.subs, sub)
			close(sub.ch)
		}
		s.mu.Unlock()
	}()

	return store.NewSubscription(sub.ch, cancel), nil
}

func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	for sub := range s.subs {
		delete(s.subs, sub)
		close(sub.ch)
	}
	return nil
}

// push delivers a snapshot with latest-wins semantics so a slow consumer
// never blocks mutations.
func (sub *subscriber) push(snap []store.Document) {
	for {
		select {
		case sub.ch <- snap:
			return
		default:
		}
		select {
		case <-sub.ch:
		default:
		}
	}
}

func (s *Store) notifyLocked(userID, kind string) {
	var snap []store.Document
	for sub := range s.subs {
		if sub.userID != userID || sub.kind != kind {
			continue
		}
		if snap == nil {
			snap = s.snapshotLocked(userID, kind)
		}
		sub.push(snap)
	}
}

func (s *Store) snapshotLocked(userID, kind string) []store.Document {
	byID := s.docs[scopeKey(userID, kind)]
	out := make([]store.Document, 0, len(byID))
	for _, doc := range byID {
		d := doc
		d.Payload = append([]byte(nil), doc.Payload...)
		out = append(out, d)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID > out[j].ID
	})
	return out
}
