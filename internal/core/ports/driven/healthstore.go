package driven

import (
	"context"
	"time"

	"github.com/youngmin9/vitalsync/internal/core/domain"
)

// HealthStore is the platform health database binding.
type HealthStore interface {
	// IsAvailable reports whether the platform store exists on this device.
	IsAvailable() bool

	// RequestAuthorization asks the user for read and write access.
	// Fails with *domain.AuthorizationError.
	RequestAuthorization(ctx context.Context, read []domain.Resource, write []domain.WritableResource) error

	// HasRequestedPermission reports whether access to resource was asked for.
	HasRequestedPermission(ctx context.Context, resource domain.Resource) bool

	// PermittedResources returns the resources access was requested for.
	PermittedResources(ctx context.Context) ([]domain.Resource, error)

	// Read returns records for resource inside [start, end] past the anchors
	// held in state, and the cursor updates to persist once handled.
	Read(ctx context.Context, resource domain.Resource, start, end time.Time, state AnchorReader) (domain.ReadResult, error)

	// Observe watches one data type. The returned channel is closed after
	// the watch has been torn down, which happens once ctx is done or the
	// watch fails.
	Observe(ctx context.Context, dataType domain.DataType) (<-chan domain.ChangeEvent, error)

	// EnableBackgroundDelivery asks the platform to wake the process on changes.
	EnableBackgroundDelivery(ctx context.Context, dataType domain.DataType, frequency domain.Frequency) error

	// Write stores a single value covering [start, end].
	Write(ctx context.Context, input domain.WriteInput, start, end time.Time) error
}

// BatchObserver is implemented by health stores that can register one
// watch for several data types at once.
type BatchObserver interface {
	ObserveBatch(ctx context.Context, dataTypes []domain.DataType) (<-chan domain.ChangeEvent, error)
}
