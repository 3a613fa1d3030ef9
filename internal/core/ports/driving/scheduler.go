package driving

import (
	"context"

	"github.com/youngmin9/vitalsync/internal/core/domain"
)

// Scheduler runs recurring background syncs.
type Scheduler interface {
	// Start begins running scheduled tasks.
	// Blocks until context is cancelled or Stop is called.
	Start(ctx context.Context) error

	// Stop gracefully stops all running tasks.
	Stop() error

	// Task returns a snapshot of the periodic sync task.
	Task() domain.ScheduledTask
}
