package driving

import (
	"context"

	"github.com/youngmin9/vitalsync/internal/core/domain"
)

// SyncOrchestrator runs the read, transform and push pipeline.
type SyncOrchestrator interface {
	// Sync synchronises one resource and emits its status events.
	Sync(ctx context.Context, resource domain.Resource) error

	// SyncResources synchronises resources one by one in the given order,
	// then emits SyncingCompleted.
	SyncResources(ctx context.Context, resources []domain.Resource) error

	// Status subscribes to status events. Call the returned function to
	// unsubscribe.
	Status() (<-chan domain.SyncStatus, func())
}
