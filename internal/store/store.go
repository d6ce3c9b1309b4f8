// Package store defines the document-store surface the journaling core
// depends on: per-user document collections keyed by (userID, kind, id)
// with CRUD and a live, subscribable listing. Implementations live in the
// postgres, sqlite and memory subpackages.
//
// Every operation is parameterized by the owning user's id, so cross-user
// listing is structurally impossible at this layer.
package store

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/ArnarValur/therpy-journal-sub000/internal/common"
)

// Document is one stored record. Payload holds the JSON object of entity
// fields (sensitive leaves already encrypted by the caller); the system
// fields are kept alongside it.
type Document struct {
	ID        string
	UserID    string
	Kind      string
	CreatedAt time.Time
	UpdatedAt time.Time
	Payload   []byte
}

// Store is the CRUD+subscribe surface of the external document database.
//
// Get returns common.ErrNotFound for missing documents; all other failures
// are wrapped as common.ErrStoreOperation. List orders newest-authored
// first (CreatedAt descending, id descending as the tie-break).
type Store interface {
	// Create persists a new document and returns its generated id.
	// doc.CreatedAt/UpdatedAt must already be stamped by the caller.
	Create(ctx context.Context, doc *Document) (string, error)

	// Get reads one document scoped to the given user.
	Get(ctx context.Context, userID, kind, id string) (*Document, error)

	// Apply merges a JSON object patch into the document payload, replacing
	// the present top-level fields, and refreshes UpdatedAt.
	Apply(ctx context.Context, userID, kind, id string, patch []byte, updatedAt time.Time) error

	// Delete hard-removes the document. Irreversible.
	Delete(ctx context.Context, userID, kind, id string) error

	// List returns the user's documents of the given kind, newest first.
	List(ctx context.Context, userID, kind string) ([]Document, error)

	// Watch returns a live subscription over List's result set. The first
	// snapshot is emitted promptly; later snapshots follow as the matching
	// document set changes. Cancel the subscription when the owning
	// context tears down.
	Watch(ctx context.Context, userID, kind string) (*Subscription, error)

	// Close releases the underlying connections.
	Close() error
}

// MergePatch applies an RFC 7386-style shallow merge of patch into payload:
// top-level fields present in patch replace the same field in payload,
// explicit nulls remove it. Both inputs must be JSON objects.
func MergePatch(payload, patch []byte) ([]byte, error) {
	base := map[string]json.RawMessage{}
	if len(payload) > 0 {
		if err := json.Unmarshal(payload, &base); err != nil {
			return nil, fmt.Errorf("%w: bad payload: %w", common.ErrStoreOperation, err)
		}
	}

	overlay := map[string]json.RawMessage{}
	if err := json.Unmarshal(patch, &overlay); err != nil {
		return nil, fmt.Errorf("%w: bad patch: %w", common.ErrStoreOperation, err)
	}

	for k, v := range overlay {
		if string(v) == "null" {
			delete(base, k)
			continue
		}
		base[k] = v
	}

	return json.Marshal(base)
}
