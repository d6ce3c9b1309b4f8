package entries

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ArnarValur/therpy-journal-sub000/internal/auth"
	"github.com/ArnarValur/therpy-journal-sub000/internal/common"
	"github.com/ArnarValur/therpy-journal-sub000/internal/cryptox"
	"github.com/ArnarValur/therpy-journal-sub000/internal/logging"
	"github.com/ArnarValur/therpy-journal-sub000/internal/models"
	"github.com/ArnarValur/therpy-journal-sub000/internal/store"
)

// JournalRepository persists journal entries for the signed-in user.
type JournalRepository struct {
	store store.Store
	codec codec
	auth  auth.Provider
	log   logging.Logger
	nowFn func() time.Time
}

// NewJournalRepository wires a repository over the given store, cipher and
// identity provider.
func NewJournalRepository(st store.Store, crypto *cryptox.Service, provider auth.Provider, log logging.Logger) *JournalRepository {
	return &JournalRepository{
		store: st,
		codec: codec{crypto: crypto, log: log},
		auth:  provider,
		log:   log,
		nowFn: time.Now,
	}
}

// Create encrypts every sensitive field of e, stamps the system fields and
// writes a new document. It returns the generated id.
func (r *JournalRepository) Create(ctx context.Context, e models.JournalEntry) (string, error) {
	user, err := r.auth.Current(ctx)
	if err != nil {
		return "", err
	}

	payload, err := r.codec.encodeJournal(ctx, e)
	if err != nil {
		return "", err
	}

	now := r.nowFn()
	id, err := r.store.Create(ctx, &store.Document{
		UserID:    user.ID,
		Kind:      KindJournal,
		CreatedAt: now,
		UpdatedAt: now,
		Payload:   payload,
	})
	if err != nil {
		r.log.Error(ctx, "journal create failed", "error", err)
		return "", err
	}

	r.log.Debug(ctx, "journal entry created", "entry_id", id, "draft", e.IsDraft)
	return id, nil
}

// Get reads and decrypts a single entry. Missing documents yield
// common.ErrNotFound; a field that cannot be decrypted fails the whole
// read with common.ErrDecryptionFailed.
func (r *JournalRepository) Get(ctx context.Context, id string) (*models.JournalEntry, error) {
	user, err := r.auth.Current(ctx)
	if err != nil {
		return nil, err
	}

	doc, err := r.store.Get(ctx, user.ID, KindJournal, id)
	if err != nil {
		return nil, err
	}

	e, err := r.codec.decodeJournal(ctx, doc, false)
	if err != nil {
		return nil, err
	}
	return &e, nil
}

// Update re-encrypts and writes only the fields present in p. The
// updatedAt stamp is always refreshed, even for an empty patch.
func (r *JournalRepository) Update(ctx context.Context, id string, p JournalPatch) error {
	user, err := r.auth.Current(ctx)
	if err != nil {
		return err
	}

	patch, err := r.codec.journalPatch(ctx, p)
	if err != nil {
		return err
	}

	if err := r.store.Apply(ctx, user.ID, KindJournal, id, patch, r.nowFn()); err != nil {
		r.log.Error(ctx, "journal update failed", "entry_id", id, "error", err)
		return err
	}
	return nil
}

// Delete hard-removes the entry. Irreversible; callers are expected to
// have confirmed the action with the user.
func (r *JournalRepository) Delete(ctx context.Context, id string) error {
	user, err := r.auth.Current(ctx)
	if err != nil {
		return err
	}

	if err := r.store.Delete(ctx, user.ID, KindJournal, id); err != nil {
		r.log.Error(ctx, "journal delete failed", "entry_id", id, "error", err)
		return err
	}

	r.log.Info(ctx, "journal entry deleted", "entry_id", id)
	return nil
}

// List returns the user's entries newest-authored first, decrypted
// leniently: a failing field degrades instead of failing the listing.
func (r *JournalRepository) List(ctx context.Context) ([]models.JournalEntry, error) {
	user, err := r.auth.Current(ctx)
	if err != nil {
		return nil, err
	}

	docs, err := r.store.List(ctx, user.ID, KindJournal)
	if err != nil {
		return nil, err
	}
	return r.decodeAll(ctx, docs)
}

// Watch returns a live decrypted collection of the user's entries. Cancel
// it on the owning context's teardown.
func (r *JournalRepository) Watch(ctx context.Context) (*Collection[models.JournalEntry], error) {
	user, err := r.auth.Current(ctx)
	if err != nil {
		return nil, err
	}

	sub, err := r.store.Watch(ctx, user.ID, KindJournal)
	if err != nil {
		return nil, err
	}

	col := newCollection(sub, func(docs []store.Document) ([]models.JournalEntry, error) {
		return r.decodeAll(ctx, docs)
	})

	// prime from a one-shot listing so a store that is down at subscribe
	// time yields an explicit error state instead of looking empty
	if items, listErr := r.List(ctx); listErr != nil {
		col.setInitial(nil, fmt.Errorf("initial listing failed: %w", listErr))
	} else {
		col.setInitial(items, nil)
	}

	return col, nil
}

func (r *JournalRepository) decodeAll(ctx context.Context, docs []store.Document) ([]models.JournalEntry, error) {
	result := make([]models.JournalEntry, 0, len(docs))
	for i := range docs {
		e, err := r.codec.decodeJournal(ctx, &docs[i], true)
		if err != nil {
			if errors.Is(err, common.ErrUnauthenticated) {
				return nil, err
			}
			// a single malformed document must not crash the listing
			r.log.Warn(ctx, "skipping undecodable journal document", "entry_id", docs[i].ID, "error", err)
			continue
		}
		result = append(result, e)
	}
	return result, nil
}
