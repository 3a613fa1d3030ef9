package memory

import (
	"context"
	"slices"
	"sync"

	"github.com/youngmin9/vitalsync/internal/core/domain"
	"github.com/youngmin9/vitalsync/internal/core/ports/driven"
)

// Ensure SecureStore implements the interface.
var _ driven.SecureStore = (*SecureStore)(nil)

// SecureStore is an in-memory implementation of driven.SecureStore.
// Contents do not survive the process; use it for tests and dry runs.
type SecureStore struct {
	mu    sync.RWMutex
	blobs map[string][]byte
}

// NewSecureStore creates a new in-memory secure store.
func NewSecureStore() *SecureStore {
	return &SecureStore{
		blobs: make(map[string][]byte),
	}
}

// Get returns the blob stored under key.
func (s *SecureStore) Get(_ context.Context, key string) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.blobs[key]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return slices.Clone(v), nil
}

// Set stores or replaces the blob under key.
func (s *SecureStore) Set(_ context.Context, key string, value []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.blobs[key] = slices.Clone(value)
	return nil
}

// Clean removes the blob under key.
func (s *SecureStore) Clean(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.blobs, key)
	return nil
}

// Keys returns the stored keys, sorted.
func (s *SecureStore) Keys() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	keys := make([]string, 0, len(s.blobs))
	for k := range s.blobs {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}
