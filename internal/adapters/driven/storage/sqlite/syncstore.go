package sqlite

import (
	"context"
	"database/sql"
	"time"

	"github.com/cockroachdb/errors"

	"github.com/youngmin9/vitalsync/internal/core/domain"
	"github.com/youngmin9/vitalsync/internal/core/ports/driven"
)

// syncStateStore implements driven.SyncStateStore.
type syncStateStore struct {
	store *Store
}

var _ driven.SyncStateStore = (*syncStateStore)(nil)

const upsertAnchor = `
	INSERT INTO sync_anchors (key, anchor, synced_at)
	VALUES (?, ?, ?)
	ON CONFLICT(key) DO UPDATE SET
		anchor = excluded.anchor,
		synced_at = excluded.synced_at
`

// ReadAnchor returns the anchor stored under key.
func (s *syncStateStore) ReadAnchor(ctx context.Context, key string) (string, error) {
	var anchor string
	err := s.store.db.QueryRowContext(ctx, "SELECT anchor FROM sync_anchors WHERE key = ?", key).Scan(&anchor)
	if errors.Is(err, sql.ErrNoRows) {
		return "", domain.ErrNotFound
	}
	if err != nil {
		return "", errors.Wrapf(err, "reading anchor %s", key)
	}
	return anchor, nil
}

// ReadLastSync returns when the anchor under key was last written.
func (s *syncStateStore) ReadLastSync(ctx context.Context, key string) (time.Time, error) {
	var syncedAt sql.NullTime
	err := s.store.db.QueryRowContext(ctx, "SELECT synced_at FROM sync_anchors WHERE key = ?", key).Scan(&syncedAt)
	if errors.Is(err, sql.ErrNoRows) || (err == nil && !syncedAt.Valid) {
		return time.Time{}, domain.ErrNotFound
	}
	if err != nil {
		return time.Time{}, errors.Wrapf(err, "reading last sync %s", key)
	}
	return syncedAt.Time, nil
}

// WriteAnchor stores or replaces the anchor under key.
func (s *syncStateStore) WriteAnchor(ctx context.Context, key, anchor string, syncedAt time.Time) error {
	if _, err := s.store.db.ExecContext(ctx, upsertAnchor, key, anchor, syncedAt.UTC()); err != nil {
		return errors.Wrapf(err, "saving anchor %s", key)
	}
	return nil
}

// WriteAnchors stores a batch of cursor updates in one transaction.
func (s *syncStateStore) WriteAnchors(ctx context.Context, updates []domain.CursorUpdate) error {
	if len(updates) == 0 {
		return nil
	}

	tx, err := s.store.db.BeginTx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, "beginning transaction")
	}
	defer tx.Rollback() //nolint:errcheck // no-op after commit

	stmt, err := tx.PrepareContext(ctx, upsertAnchor)
	if err != nil {
		return errors.Wrap(err, "preparing anchor upsert")
	}
	defer stmt.Close()

	for _, u := range updates {
		if _, err := stmt.ExecContext(ctx, u.Key, u.Anchor, u.SyncedAt.UTC()); err != nil {
			return errors.Wrapf(err, "saving anchor %s", u.Key)
		}
	}
	if err := tx.Commit(); err != nil {
		return errors.Wrap(err, "committing anchors")
	}
	return nil
}

// ReadHistoricalFlag reports whether a full historical pass completed.
func (s *syncStateStore) ReadHistoricalFlag(ctx context.Context, resource domain.Resource) (bool, error) {
	var n int
	err := s.store.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM historical_flags WHERE resource = ?", string(resource),
	).Scan(&n)
	if err != nil {
		return false, errors.Wrapf(err, "reading historical flag %s", resource)
	}
	return n > 0, nil
}

// WriteHistoricalFlag records that a full historical pass completed.
func (s *syncStateStore) WriteHistoricalFlag(ctx context.Context, resource domain.Resource) error {
	_, err := s.store.db.ExecContext(ctx,
		"INSERT OR IGNORE INTO historical_flags (resource, completed_at) VALUES (?, ?)",
		string(resource), time.Now().UTC())
	if err != nil {
		return errors.Wrapf(err, "saving historical flag %s", resource)
	}
	return nil
}

// Clean erases all anchors and flags.
func (s *syncStateStore) Clean(ctx context.Context) error {
	tx, err := s.store.db.BeginTx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, "beginning transaction")
	}
	defer tx.Rollback() //nolint:errcheck // no-op after commit

	for _, table := range []string{"sync_anchors", "historical_flags"} {
		if _, err := tx.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			return errors.Wrapf(err, "clearing %s", table)
		}
	}
	return errors.Wrap(tx.Commit(), "committing clean")
}
