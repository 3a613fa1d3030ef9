package driven

import (
	"context"
	"time"

	"github.com/youngmin9/vitalsync/internal/core/domain"
)

// AnchorReader is the read-only view of sync progress handed to the
// health store so it only reads records past the stored anchor.
type AnchorReader interface {
	// ReadAnchor returns the anchor stored under key.
	// Returns domain.ErrNotFound if none was written yet.
	ReadAnchor(ctx context.Context, key string) (string, error)

	// ReadLastSync returns when the anchor under key was last written.
	// Returns domain.ErrNotFound if none was written yet.
	ReadLastSync(ctx context.Context, key string) (time.Time, error)
}

// SyncStateStore persists per-resource sync progress: resumption anchors
// per data type and a flag recording the first completed historical pass.
// No ordering is guaranteed across keys.
type SyncStateStore interface {
	AnchorReader

	// WriteAnchor stores or replaces the anchor under key.
	WriteAnchor(ctx context.Context, key, anchor string, syncedAt time.Time) error

	// WriteAnchors stores a batch of cursor updates.
	WriteAnchors(ctx context.Context, updates []domain.CursorUpdate) error

	// ReadHistoricalFlag reports whether a full historical pass completed.
	ReadHistoricalFlag(ctx context.Context, resource domain.Resource) (bool, error)

	// WriteHistoricalFlag records that a full historical pass completed.
	WriteHistoricalFlag(ctx context.Context, resource domain.Resource) error

	// Clean erases all anchors and flags.
	Clean(ctx context.Context) error
}
