package sqlite

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ArnarValur/therpy-journal-sub000/internal/common"
	"github.com/ArnarValur/therpy-journal-sub000/internal/logging"
	"github.com/ArnarValur/therpy-journal-sub000/internal/store"
)

const (
	testUser = "u-1"
	testKind = "journal"
)

var dbSeq atomic.Int64

func setupStore(t *testing.T) *Store {
	t.Helper()
	dsn := fmt.Sprintf("file:sqlitestore%d?mode=memory&cache=shared", dbSeq.Add(1))
	log := logging.NewSlogLogger(slog.New(slog.NewTextHandler(io.Discard, nil)))

	s, err := Open(context.Background(), dsn, 10*time.Millisecond, log)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func newDoc(createdAt time.Time, payload string) *store.Document {
	return &store.Document{
		UserID:    testUser,
		Kind:      testKind,
		CreatedAt: createdAt,
		UpdatedAt: createdAt,
		Payload:   []byte(payload),
	}
}

func TestStore_CreateGetRoundTrip(t *testing.T) {
	s := setupStore(t)
	ctx := context.Background()
	created := time.Date(2026, 3, 1, 9, 30, 0, 123456789, time.UTC)

	id, err := s.Create(ctx, newDoc(created, `{"title":"enc","isDraft":true}`))
	require.NoError(t, err)
	require.NotEmpty(t, id)

	got, err := s.Get(ctx, testUser, testKind, id)
	require.NoError(t, err)
	assert.JSONEq(t, `{"title":"enc","isDraft":true}`, string(got.Payload))
	assert.True(t, got.CreatedAt.Equal(created), "created_at must survive with nanosecond precision")
}

func TestStore_GetNotFound(t *testing.T) {
	s := setupStore(t)

	_, err := s.Get(context.Background(), testUser, testKind, "missing")
	assert.True(t, errors.Is(err, common.ErrNotFound))
}

func TestStore_UserScoping(t *testing.T) {
	s := setupStore(t)
	ctx := context.Background()

	id, err := s.Create(ctx, newDoc(time.Now(), `{}`))
	require.NoError(t, err)

	_, err = s.Get(ctx, "u-2", testKind, id)
	assert.True(t, errors.Is(err, common.ErrNotFound))

	docs, err := s.List(ctx, "u-2", testKind)
	require.NoError(t, err)
	assert.Empty(t, docs)
}

func TestStore_ListOrdering(t *testing.T) {
	s := setupStore(t)
	ctx := context.Background()
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	var ids []string
	for i := 0; i < 3; i++ {
		id, err := s.Create(ctx, newDoc(base.Add(time.Duration(i)*time.Minute), `{}`))
		require.NoError(t, err)
		ids = append(ids, id)
	}

	docs, err := s.List(ctx, testUser, testKind)
	require.NoError(t, err)
	require.Len(t, docs, 3)
	assert.Equal(t, ids[2], docs[0].ID, "newest authored first")
	assert.Equal(t, ids[1], docs[1].ID)
	assert.Equal(t, ids[0], docs[2].ID)
}

func TestStore_ApplyMergesPatch(t *testing.T) {
	s := setupStore(t)
	ctx := context.Background()
	created := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	id, err := s.Create(ctx, newDoc(created, `{"title":"old","content":"keep","isDraft":true}`))
	require.NoError(t, err)

	updated := created.Add(time.Minute)
	err = s.Apply(ctx, testUser, testKind, id, []byte(`{"title":"new","isDraft":false}`), updated)
	require.NoError(t, err)

	got, err := s.Get(ctx, testUser, testKind, id)
	require.NoError(t, err)
	assert.JSONEq(t, `{"title":"new","content":"keep","isDraft":false}`, string(got.Payload))
	assert.True(t, got.UpdatedAt.Equal(updated))
	assert.True(t, got.CreatedAt.Equal(created))
}

func TestStore_ApplyNotFound(t *testing.T) {
	s := setupStore(t)

	err := s.Apply(context.Background(), testUser, testKind, "missing", []byte(`{}`), time.Now())
	assert.True(t, errors.Is(err, common.ErrNotFound))
}

func TestStore_Delete(t *testing.T) {
	s := setupStore(t)
	ctx := context.Background()

	id, err := s.Create(ctx, newDoc(time.Now(), `{}`))
	require.NoError(t, err)

	require.NoError(t, s.Delete(ctx, testUser, testKind, id))

	_, err = s.Get(ctx, testUser, testKind, id)
	assert.True(t, errors.Is(err, common.ErrNotFound))

	err = s.Delete(ctx, testUser, testKind, id)
	assert.True(t, errors.Is(err, common.ErrNotFound))
}

func TestStore_WatchSeesMutations(t *testing.T) {
	s := setupStore(t)
	ctx := context.Background()

	sub, err := s.Watch(ctx, testUser, testKind)
	require.NoError(t, err)
	defer sub.Cancel()

	snap := waitSnapshot(t, sub)
	assert.Empty(t, snap)

	id, err := s.Create(ctx, newDoc(time.Now(), `{"title":"x"}`))
	require.NoError(t, err)

	snap = waitSnapshot(t, sub)
	require.Len(t, snap, 1)
	assert.Equal(t, id, snap[0].ID)
}

func waitSnapshot(t *testing.T, sub *store.Subscription) []store.Document {
	t.Helper()
	select {
	case snap, ok := <-sub.C:
		require.True(t, ok, "subscription closed unexpectedly")
		return snap
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for snapshot")
		return nil
	}
}
