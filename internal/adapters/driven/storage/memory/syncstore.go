package memory

import (
	"context"
	"sync"
	"time"

	"github.com/youngmin9/vitalsync/internal/core/domain"
	"github.com/youngmin9/vitalsync/internal/core/ports/driven"
)

// Ensure SyncStateStore implements the interface.
var _ driven.SyncStateStore = (*SyncStateStore)(nil)

type anchorEntry struct {
	anchor   string
	syncedAt time.Time
}

// SyncStateStore is an in-memory implementation of driven.SyncStateStore.
type SyncStateStore struct {
	mu      sync.RWMutex
	anchors map[string]anchorEntry
	flags   map[domain.Resource]bool
}

// NewSyncStateStore creates a new in-memory sync state store.
func NewSyncStateStore() *SyncStateStore {
	return &SyncStateStore{
		anchors: make(map[string]anchorEntry),
		flags:   make(map[domain.Resource]bool),
	}
}

// ReadAnchor returns the anchor stored under key.
func (s *SyncStateStore) ReadAnchor(_ context.Context, key string) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.anchors[key]
	if !ok {
		return "", domain.ErrNotFound
	}
	return e.anchor, nil
}

// ReadLastSync returns when the anchor under key was last written.
func (s *SyncStateStore) ReadLastSync(_ context.Context, key string) (time.Time, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.anchors[key]
	if !ok {
		return time.Time{}, domain.ErrNotFound
	}
	return e.syncedAt, nil
}

// WriteAnchor stores or replaces the anchor under key.
func (s *SyncStateStore) WriteAnchor(_ context.Context, key, anchor string, syncedAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.anchors[key] = anchorEntry{anchor: anchor, syncedAt: syncedAt}
	return nil
}

// WriteAnchors stores a batch of cursor updates.
func (s *SyncStateStore) WriteAnchors(_ context.Context, updates []domain.CursorUpdate) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range updates {
		s.anchors[u.Key] = anchorEntry{anchor: u.Anchor, syncedAt: u.SyncedAt}
	}
	return nil
}

// ReadHistoricalFlag reports whether a full historical pass completed.
func (s *SyncStateStore) ReadHistoricalFlag(_ context.Context, resource domain.Resource) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.flags[resource], nil
}

// WriteHistoricalFlag records that a full historical pass completed.
func (s *SyncStateStore) WriteHistoricalFlag(_ context.Context, resource domain.Resource) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.flags[resource] = true
	return nil
}

// Clean erases all anchors and flags.
func (s *SyncStateStore) Clean(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.anchors = make(map[string]anchorEntry)
	s.flags = make(map[domain.Resource]bool)
	return nil
}
