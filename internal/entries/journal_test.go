package entries

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ArnarValur/therpy-journal-sub000/internal/auth"
	"github.com/ArnarValur/therpy-journal-sub000/internal/common"
	"github.com/ArnarValur/therpy-journal-sub000/internal/cryptox"
	"github.com/ArnarValur/therpy-journal-sub000/internal/logging"
	"github.com/ArnarValur/therpy-journal-sub000/internal/models"
	"github.com/ArnarValur/therpy-journal-sub000/internal/store/memory"
)

const testSalt = "test-application-salt"

func testLogger() logging.Logger {
	return logging.NewSlogLogger(slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func newJournalFixture(t *testing.T, userID string) (*JournalRepository, *memory.Store) {
	t.Helper()
	st := memory.New()
	t.Cleanup(func() { _ = st.Close() })
	provider := auth.NewStaticProvider(&auth.User{ID: userID, Email: userID + "@example.com"})
	crypto := cryptox.NewService(provider, testSalt)
	return NewJournalRepository(st, crypto, provider, testLogger()), st
}

func sampleJournalEntry() models.JournalEntry {
	return models.JournalEntry{
		Title:   "Tuesday session",
		Content: "Talked about boundaries at work.",
		Tags:    []string{"work", "boundaries"},
		Sentiments: map[string]int{
			"calm":    7,
			"anxious": 3,
		},
		IsDraft: false,
	}
}

func waitItems[T any](t *testing.T, col *Collection[T], want int) []T {
	t.Helper()
	deadline := time.After(2 * time.Second)
	for {
		select {
		case items, ok := <-col.Updates():
			if !ok {
				t.Fatal("updates channel closed before the expected snapshot")
			}
			if len(items) == want {
				return items
			}
		case <-deadline:
			t.Fatalf("timed out waiting for a snapshot of %d items", want)
		}
	}
}

func TestJournalRepositoryCreateGetRoundTrip(t *testing.T) {
	ctx := context.Background()
	repo, _ := newJournalFixture(t, "user-1")

	id, err := repo.Create(ctx, sampleJournalEntry())
	require.NoError(t, err)
	require.NotEmpty(t, id)

	got, err := repo.Get(ctx, id)
	require.NoError(t, err)

	assert.Equal(t, id, got.ID)
	assert.Equal(t, "user-1", got.UserID)
	assert.Equal(t, "Tuesday session", got.Title)
	assert.Equal(t, "Talked about boundaries at work.", got.Content)
	assert.Equal(t, []string{"work", "boundaries"}, got.Tags)
	assert.Equal(t, map[string]int{"calm": 7, "anxious": 3}, got.Sentiments)
	assert.False(t, got.IsDraft)
	assert.False(t, got.CreatedAt.IsZero())
	assert.True(t, got.CreatedAt.Equal(got.UpdatedAt))
}

func TestJournalRepositoryCiphertextAtRest(t *testing.T) {
	ctx := context.Background()
	repo, st := newJournalFixture(t, "user-1")

	entry := sampleJournalEntry()
	id, err := repo.Create(ctx, entry)
	require.NoError(t, err)

	doc, err := st.Get(ctx, "user-1", KindJournal, id)
	require.NoError(t, err)

	var wire journalDoc
	require.NoError(t, json.Unmarshal(doc.Payload, &wire))

	assert.NotEqual(t, entry.Title, wire.Title)
	assert.NotEqual(t, entry.Content, wire.Content)
	require.Len(t, wire.Tags, 2)
	assert.NotContains(t, wire.Tags, "work")
	require.NotNil(t, wire.Sentiments)
	assert.NotContains(t, wire.Sentiments.Data, "calm")
	// the draft flag stays readable without the key
	assert.False(t, wire.IsDraft)
}

func TestJournalRepositoryPartialUpdate(t *testing.T) {
	ctx := context.Background()
	repo, _ := newJournalFixture(t, "user-1")

	base := time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)
	repo.nowFn = func() time.Time { return base }

	id, err := repo.Create(ctx, sampleJournalEntry())
	require.NoError(t, err)

	repo.nowFn = func() time.Time { return base.Add(time.Hour) }
	title := "Tuesday session, revisited"
	require.NoError(t, repo.Update(ctx, id, JournalPatch{Title: &title}))

	got, err := repo.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "Tuesday session, revisited", got.Title)
	assert.Equal(t, "Talked about boundaries at work.", got.Content)
	assert.Equal(t, []string{"work", "boundaries"}, got.Tags)
	assert.True(t, got.CreatedAt.Equal(base))
	assert.True(t, got.UpdatedAt.Equal(base.Add(time.Hour)))
}

func TestJournalRepositoryEmptyPatchRefreshesUpdatedAt(t *testing.T) {
	ctx := context.Background()
	repo, _ := newJournalFixture(t, "user-1")

	base := time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)
	repo.nowFn = func() time.Time { return base }

	id, err := repo.Create(ctx, sampleJournalEntry())
	require.NoError(t, err)

	repo.nowFn = func() time.Time { return base.Add(time.Minute) }
	require.NoError(t, repo.Update(ctx, id, JournalPatch{}))

	got, err := repo.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "Tuesday session", got.Title)
	assert.True(t, got.UpdatedAt.Equal(base.Add(time.Minute)))
}

func TestJournalRepositoryDelete(t *testing.T) {
	ctx := context.Background()
	repo, _ := newJournalFixture(t, "user-1")

	id, err := repo.Create(ctx, sampleJournalEntry())
	require.NoError(t, err)

	require.NoError(t, repo.Delete(ctx, id))

	_, err = repo.Get(ctx, id)
	assert.ErrorIs(t, err, common.ErrNotFound)

	assert.ErrorIs(t, repo.Delete(ctx, id), common.ErrNotFound)
}

func TestJournalRepositoryUnauthenticated(t *testing.T) {
	ctx := context.Background()
	st := memory.New()
	t.Cleanup(func() { _ = st.Close() })
	provider := auth.NewStaticProvider(nil)
	repo := NewJournalRepository(st, cryptox.NewService(provider, testSalt), provider, testLogger())

	_, err := repo.Create(ctx, sampleJournalEntry())
	assert.ErrorIs(t, err, common.ErrUnauthenticated)

	_, err = repo.List(ctx)
	assert.ErrorIs(t, err, common.ErrUnauthenticated)

	_, err = repo.Watch(ctx)
	assert.ErrorIs(t, err, common.ErrUnauthenticated)
}

func TestJournalRepositoryListDegradesCorruptField(t *testing.T) {
	ctx := context.Background()
	repo, st := newJournalFixture(t, "user-1")

	healthy, err := repo.Create(ctx, sampleJournalEntry())
	require.NoError(t, err)

	corrupt, err := repo.Create(ctx, models.JournalEntry{Title: "to be damaged", Content: "body"})
	require.NoError(t, err)

	// overwrite the title ciphertext with garbage, as a sync bug would
	patch, err := json.Marshal(map[string]any{"title": "bm90LWEtcmVhbC1jaXBoZXJ0ZXh0"})
	require.NoError(t, err)
	require.NoError(t, st.Apply(ctx, "user-1", KindJournal, corrupt, patch, time.Now()))

	items, err := repo.List(ctx)
	require.NoError(t, err)
	require.Len(t, items, 2)

	byID := map[string]models.JournalEntry{}
	for _, e := range items {
		byID[e.ID] = e
	}
	assert.Equal(t, "Tuesday session", byID[healthy].Title)
	assert.Empty(t, byID[corrupt].Title)
	assert.Equal(t, "body", byID[corrupt].Content)

	// the strict single-entry read still fails loudly
	_, err = repo.Get(ctx, corrupt)
	assert.ErrorIs(t, err, common.ErrDecryptionFailed)
}

func TestJournalRepositoryCrossUserIsolation(t *testing.T) {
	ctx := context.Background()
	st := memory.New()
	t.Cleanup(func() { _ = st.Close() })

	alice := auth.NewStaticProvider(&auth.User{ID: "alice"})
	bob := auth.NewStaticProvider(&auth.User{ID: "bob"})
	aliceRepo := NewJournalRepository(st, cryptox.NewService(alice, testSalt), alice, testLogger())
	bobRepo := NewJournalRepository(st, cryptox.NewService(bob, testSalt), bob, testLogger())

	id, err := aliceRepo.Create(ctx, sampleJournalEntry())
	require.NoError(t, err)

	_, err = bobRepo.Get(ctx, id)
	assert.ErrorIs(t, err, common.ErrNotFound)

	items, err := bobRepo.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, items)
}

func TestJournalRepositoryWatch(t *testing.T) {
	ctx := context.Background()
	repo, _ := newJournalFixture(t, "user-1")

	first, err := repo.Create(ctx, sampleJournalEntry())
	require.NoError(t, err)

	col, err := repo.Watch(ctx)
	require.NoError(t, err)
	defer col.Cancel()

	require.True(t, col.Primed())
	require.NoError(t, col.Err())
	require.Len(t, col.Snapshot(), 1)
	assert.Equal(t, first, col.Snapshot()[0].ID)

	second := sampleJournalEntry()
	second.Title = "Second entry"
	_, err = repo.Create(ctx, second)
	require.NoError(t, err)

	items := waitItems(t, col, 2)
	assert.Equal(t, "Second entry", items[0].Title)

	require.NoError(t, repo.Delete(ctx, first))
	items = waitItems(t, col, 1)
	assert.Equal(t, "Second entry", items[0].Title)
}
