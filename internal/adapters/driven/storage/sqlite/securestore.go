package sqlite

import (
	"context"
	"database/sql"
	"time"

	"github.com/cockroachdb/errors"

	"github.com/youngmin9/vitalsync/internal/core/domain"
	"github.com/youngmin9/vitalsync/internal/core/ports/driven"
)

// secureStore implements driven.SecureStore.
type secureStore struct {
	store *Store
}

var _ driven.SecureStore = (*secureStore)(nil)

// Get decrypts the blob stored under key.
func (s *secureStore) Get(ctx context.Context, key string) ([]byte, error) {
	var nonce, ciphertext []byte
	err := s.store.db.QueryRowContext(ctx,
		"SELECT nonce, ciphertext FROM secure_blobs WHERE key = ?", key,
	).Scan(&nonce, &ciphertext)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, errors.Wrapf(err, "reading secure blob %s", key)
	}

	plaintext, err := open(s.store.aead, key, nonce, ciphertext)
	if err != nil {
		return nil, errors.Wrapf(domain.ErrStorageCorrupted, "decrypting %s: %v", key, err)
	}
	return plaintext, nil
}

// Set encrypts and stores value under key.
func (s *secureStore) Set(ctx context.Context, key string, value []byte) error {
	nonce, ciphertext, err := seal(s.store.aead, key, value)
	if err != nil {
		return err
	}
	_, err = s.store.db.ExecContext(ctx, `
		INSERT INTO secure_blobs (key, nonce, ciphertext, updated_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET
			nonce = excluded.nonce,
			ciphertext = excluded.ciphertext,
			updated_at = excluded.updated_at
	`, key, nonce, ciphertext, time.Now().UTC())
	if err != nil {
		return errors.Wrapf(err, "saving secure blob %s", key)
	}
	return nil
}

// Clean removes the blob under key.
func (s *secureStore) Clean(ctx context.Context, key string) error {
	if _, err := s.store.db.ExecContext(ctx, "DELETE FROM secure_blobs WHERE key = ?", key); err != nil {
		return errors.Wrapf(err, "deleting secure blob %s", key)
	}
	return nil
}
