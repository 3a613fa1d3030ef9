package driving

import (
	"context"
	"time"

	"github.com/youngmin9/vitalsync/internal/core/domain"
)

// TokenFetcher obtains a fresh sign-in token from the host's backend.
// An empty token with a nil error means "no token available".
type TokenFetcher func(ctx context.Context, userID string) (string, error)

// Client is the host-facing SDK surface.
type Client interface {
	// Configure activates a session. Switching auth mode requires CleanUp.
	Configure(ctx context.Context, mode domain.AuthMode, cfg domain.Configuration) error

	// Restore reactivates the session persisted by an earlier Configure.
	// Returns false if nothing usable was persisted.
	Restore(ctx context.Context) (bool, error)

	// SignIn configures JWT mode from a host-issued sign-in token.
	SignIn(ctx context.Context, signInToken string, cfg domain.Configuration) (domain.SignInResult, error)

	// SetUserID sets the API-key mode user. Panics before Configure or in JWT mode.
	SetUserID(ctx context.Context, userID string) error

	// ActiveMode returns the auth mode of the live session, if configured.
	ActiveMode() (domain.AuthMode, bool)

	// LastSynced returns when a resource was last synced, if ever.
	LastSynced(ctx context.Context, resource domain.Resource) (time.Time, bool, error)

	// UserID returns the authoritative user for the active mode.
	UserID(ctx context.Context) (string, error)

	// RequestPermissions asks for access and reinstalls background delivery.
	RequestPermissions(ctx context.Context, read []domain.Resource, write []domain.WritableResource) domain.PermissionOutcome

	// SyncAll synchronises every permitted resource.
	SyncAll(ctx context.Context) error

	// Sync synchronises the given resources sequentially.
	Sync(ctx context.Context, resources ...domain.Resource) error

	// Status subscribes to status events.
	Status() (<-chan domain.SyncStatus, func())

	// ObserveReauthentication starts the reauthentication monitor, or
	// stops it when fetcher is nil.
	ObserveReauthentication(fetcher TokenFetcher)

	// Write stores a value in the platform store.
	Write(ctx context.Context, input domain.WriteInput, start, end time.Time) error

	// CleanUp signs out and erases every persisted entry.
	CleanUp(ctx context.Context) error

	// Close stops background work.
	Close()
}
