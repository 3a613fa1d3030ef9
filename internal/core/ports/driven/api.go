package driven

import (
	"context"
	"time"

	"github.com/youngmin9/vitalsync/internal/core/domain"
)

// APIClient is the remote ingestion API.
// Failures are *domain.HTTPError or wrap domain.ErrNetwork.
type APIClient interface {
	// Post pushes a non-empty payload for the user's resource.
	Post(ctx context.Context, userID string, resource domain.Resource, data domain.ProcessedData, stage domain.Stage, provider string, tz *time.Location) error

	// CreateConnectedSource links provider to the user.
	CreateConnectedSource(ctx context.Context, userID, provider string) error

	// ListConnectedSources returns the providers linked to the user.
	ListConnectedSources(ctx context.Context, userID string) ([]string, error)
}
