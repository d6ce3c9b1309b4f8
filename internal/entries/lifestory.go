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

// LifeStoryRepository persists life-story entries for the signed-in user.
// Semantics mirror JournalRepository; only the wire shape differs.
type LifeStoryRepository struct {
	store store.Store
	codec codec
	auth  auth.Provider
	log   logging.Logger
	nowFn func() time.Time
}

func NewLifeStoryRepository(st store.Store, crypto *cryptox.Service, provider auth.Provider, log logging.Logger) *LifeStoryRepository {
	return &LifeStoryRepository{
		store: st,
		codec: codec{crypto: crypto, log: log},
		auth:  provider,
		log:   log,
		nowFn: time.Now,
	}
}

func (r *LifeStoryRepository) Create(ctx context.Context, e models.LifeStoryEntry) (string, error) {
	user, err := r.auth.Current(ctx)
	if err != nil {
		return "", err
	}

	payload, err := r.codec.encodeLifeStory(ctx, e)
	if err != nil {
		return "", err
	}

	now := r.nowFn()
	id, err := r.store.Create(ctx, &store.Document{
		UserID:    user.ID,
		Kind:      KindLifeStory,
		CreatedAt: now,
		UpdatedAt: now,
		Payload:   payload,
	})
	if err != nil {
		r.log.Error(ctx, "life-story create failed", "error", err)
		return "", err
	}

	r.log.Debug(ctx, "life-story entry created", "entry_id", id, "draft", e.IsDraft)
	return id, nil
}

func (r *LifeStoryRepository) Get(ctx context.Context, id string) (*models.LifeStoryEntry, error) {
	user, err := r.auth.Current(ctx)
	if err != nil {
		return nil, err
	}

	doc, err := r.store.Get(ctx, user.ID, KindLifeStory, id)
	if err != nil {
		return nil, err
	}

	e, err := r.codec.decodeLifeStory(ctx, doc, false)
	if err != nil {
		return nil, err
	}
	return &e, nil
}

func (r *LifeStoryRepository) Update(ctx context.Context, id string, p LifeStoryPatch) error {
	user, err := r.auth.Current(ctx)
	if err != nil {
		return err
	}

	patch, err := r.codec.lifeStoryPatch(ctx, p)
	if err != nil {
		return err
	}

	if err := r.store.Apply(ctx, user.ID, KindLifeStory, id, patch, r.nowFn()); err != nil {
		r.log.Error(ctx, "life-story update failed", "entry_id", id, "error", err)
		return err
	}
	return nil
}

func (r *LifeStoryRepository) Delete(ctx context.Context, id string) error {
	user, err := r.auth.Current(ctx)
	if err != nil {
		return err
	}

	if err := r.store.Delete(ctx, user.ID, KindLifeStory, id); err != nil {
		r.log.Error(ctx, "life-story delete failed", "entry_id", id, "error", err)
		return err
	}

	r.log.Info(ctx, "life-story entry deleted", "entry_id", id)
	return nil
}

func (r *LifeStoryRepository) List(ctx context.Context) ([]models.LifeStoryEntry, error) {
	user, err := r.auth.Current(ctx)
	if err != nil {
		return nil, err
	}

	docs, err := r.store.List(ctx, user.ID, KindLifeStory)
	if err != nil {
		return nil, err
	}
	return r.decodeAll(ctx, docs)
}

func (r *LifeStoryRepository) Watch(ctx context.Context) (*Collection[models.LifeStoryEntry], error) {
	user, err := r.auth.Current(ctx)
	if err != nil {
		return nil, err
	}

	sub, err := r.store.Watch(ctx, user.ID, KindLifeStory)
	if err != nil {
		return nil, err
	}

	col := newCollection(sub, func(docs []store.Document) ([]models.LifeStoryEntry, error) {
		return r.decodeAll(ctx, docs)
	})

	if items, listErr := r.List(ctx); listErr != nil {
		col.setInitial(nil, fmt.Errorf("initial listing failed: %w", listErr))
	} else {
		col.setInitial(items, nil)
	}

	return col, nil
}

func (r *LifeStoryRepository) decodeAll(ctx context.Context, docs []store.Document) ([]models.LifeStoryEntry, error) {
	result := make([]models.LifeStoryEntry, 0, len(docs))
	for i := range docs {
		e, err := r.codec.decodeLifeStory(ctx, &docs[i], true)
		if err != nil {
			if errors.Is(err, common.ErrUnauthenticated) {
				return nil, err
			}
			r.log.Warn(ctx, "skipping undecodable life-story document", "entry_id", docs[i].ID, "error", err)
			continue
		}
		result = append(result, e)
	}
	return result, nil
}
