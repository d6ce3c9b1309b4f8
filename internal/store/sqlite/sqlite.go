// Package sqlite implements store.Store over a local SQLite database.
// It backs the offline/local mode and most of the test suite. Watches are
// poll-based: a background loop re-runs the listing query and emits a
// snapshot whenever the result set changed.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/pressly/goose/v3"
	_ "modernc.org/sqlite"

	"github.com/ArnarValur/therpy-journal-sub000/internal/common"
	"github.com/ArnarValur/therpy-journal-sub000/internal/dbx"
	"github.com/ArnarValur/therpy-journal-sub000/internal/logging"
	"github.com/ArnarValur/therpy-journal-sub000/internal/store"
	"github.com/ArnarValur/therpy-journal-sub000/internal/store/sqlite/migrations"
)

// Store is the SQLite-backed document store.
type Store struct {
	db           *sql.DB
	log          logging.Logger
	pollInterval time.Duration
}

// RunMigrations applies the embedded goose migrations to db.
func RunMigrations(ctx context.Context, db *sql.DB) error {
	goose.SetBaseFS(migrations.Migrations)

	if err := goose.SetDialect("sqlite3"); err != nil {
		return fmt.Errorf("failed to set goose dialect: %w", err)
	}

	return goose.UpContext(ctx, db, ".")
}

// Open opens (or creates) the database at dsn, applies migrations and
// returns the store. pollInterval controls how often watches re-query.
func Open(ctx context.Context, dsn string, pollInterval time.Duration, log logging.Logger) (*Store, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("db open error: %w", err)
	}
	db.SetMaxOpenConns(1)

	if err := RunMigrations(ctx, db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("migration error: %w", err)
	}

	return &Store{db: db, log: log, pollInterval: pollInterval}, nil
}

func (s *Store) Create(ctx context.Context, doc *store.Document) (string, error) {
	if doc.UserID == "" || doc.Kind == "" {
		return "", fmt.Errorf("%w: document must carry user id and kind", common.ErrStoreOperation)
	}

	id := doc.ID
	if id == "" {
		id = uuid.NewString()
	}

	query := `INSERT INTO documents (id, user_id, kind, payload, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)`
	_, err := s.db.ExecContext(ctx, query,
		id, doc.UserID, doc.Kind, string(doc.Payload), doc.CreatedAt.UnixNano(), doc.UpdatedAt.UnixNano())
	if err != nil {
		return "", fmt.Errorf("%w: insert: %w", common.ErrStoreOperation, err)
	}
	return id, nil
}

func (s *Store) Get(ctx context.Context, userID, kind, id string) (*store.Document, error) {
	query := `SELECT payload, created_at, updated_at FROM documents
		WHERE user_id = ? AND kind = ? AND id = ?`
	row := s.db.QueryRowContext(ctx, query, userID, kind, id)

	var payload string
	var createdAt, updatedAt int64
	if err := row.Scan(&payload, &createdAt, &updatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("%w: select: %w", common.ErrStoreOperation, err)
	}

	return &store.Document{
		ID:        id,
		UserID:    userID,
		Kind:      kind,
		CreatedAt: time.Unix(0, createdAt),
		UpdatedAt: time.Unix(0, updatedAt),
		Payload:   []byte(payload),
	}, nil
}

func (s *Store) Apply(ctx context.Context, userID, kind, id string, patch []byte, updatedAt time.Time) error {
	return dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		row := tx.QueryRowContext(ctx,
			`SELECT payload FROM documents WHERE user_id = ? AND kind = ? AND id = ?`,
			userID, kind, id)

		var payload string
		if err := row.Scan(&payload); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return common.ErrNotFound
			}
			return fmt.Errorf("%w: select: %w", common.ErrStoreOperation, err)
		}

		merged, err := store.MergePatch([]byte(payload), patch)
		if err != nil {
			return err
		}

		_, err = tx.ExecContext(ctx,
			`UPDATE documents SET payload = ?, updated_at = ? WHERE user_id = ? AND kind = ? AND id = ?`,
			string(merged), updatedAt.UnixNano(), userID, kind, id)
		if err != nil {
			return fmt.Errorf("%w: update: %w", common.ErrStoreOperation, err)
		}
		return nil
	})
}

func (s *Store) Delete(ctx context.Context, userID, kind, id string) error {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM documents WHERE user_id = ? AND kind = ? AND id = ?`,
		userID, kind, id)
	if err != nil {
		return fmt.Errorf("%w: delete: %w", common.ErrStoreOperation, err)
	}
	ra, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%w: rows affected: %w", common.ErrStoreOperation, err)
	}
	if ra == 0 {
		return common.ErrNotFound
	}
	return nil
}

func (s *Store) List(ctx context.Context, userID, kind string) ([]store.Document, error) {
	query := `SELECT id, payload, created_at, updated_at FROM documents
		WHERE user_id = ? AND kind = ?
		ORDER BY created_at DESC, id DESC`
	rows, err := s.db.QueryContext(ctx, query, userID, kind)
	if err != nil {
		return nil, fmt.Errorf("%w: select: %w", common.ErrStoreOperation, err)
	}
	defer rows.Close()

	var result []store.Document
	for rows.Next() {
		var payload string
		var createdAt, updatedAt int64
		doc := store.Document{UserID: userID, Kind: kind}
		if err := rows.Scan(&doc.ID, &payload, &createdAt, &updatedAt); err != nil {
			return nil, fmt.Errorf("%w: scan: %w", common.ErrStoreOperation, err)
		}
		doc.Payload = []byte(payload)
		doc.CreatedAt = time.Unix(0, createdAt)
		doc.UpdatedAt = time.Unix(0, updatedAt)
		result = append(result, doc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: rows: %w", common.ErrStoreOperation, err)
	}
	return result, nil
}

func (s *Store) Watch(ctx context.Context, userID, kind string) (*store.Subscription, error) {
	ctx, cancel := context.WithCancel(ctx)
	out := make(chan []store.Document, 1)

	fetch := func(ctx context.Context) ([]store.Document, error) {
		return s.List(ctx, userID, kind)
	}
	go store.RunPoll(ctx, s.pollInterval, fetch, out, s.log)

	return store.NewSubscription(out, cancel), nil
}

func (s *Store) Close() error {
	return s.db.Close()
}
