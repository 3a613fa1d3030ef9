package driven

import "context"

// SecureStore persists opaque blobs keyed by string. Contents survive
// process restarts.
type SecureStore interface {
	// Get returns the blob stored under key.
	// Returns domain.ErrNotFound if absent and domain.ErrStorageCorrupted
	// if the stored bytes cannot be decoded.
	Get(ctx context.Context, key string) ([]byte, error)

	// Set stores or replaces the blob under key.
	Set(ctx context.Context, key string, value []byte) error

	// Clean removes the blob under key. Removing a missing key is not an error.
	Clean(ctx context.Context, key string) error
}
