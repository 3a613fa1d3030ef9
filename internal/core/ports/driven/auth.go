package driven

import (
	"context"

	"github.com/youngmin9/vitalsync/internal/core/domain"
)

// AuthStrategy supplies the credential an outbound request must carry.
//
// Implementations:
//   - StaticKey: credential never expires
//   - RotatingToken: per-user access token, refreshed from a refresh token
type AuthStrategy interface {
	// Credential returns a valid credential, refreshing if needed.
	Credential(ctx context.Context) (domain.Credential, error)

	// Kind returns the auth mode this strategy serves.
	Kind() domain.AuthModeKind
}

// SessionAuth is the rotating-token strategy for one signed-in user.
type SessionAuth interface {
	AuthStrategy

	// CurrentUserID returns the signed-in user, or "" before first sign-in.
	CurrentUserID(ctx context.Context) (string, error)

	// NeedsReauthentication reports that there is no session or the
	// refresh token was rejected.
	NeedsReauthentication(ctx context.Context) bool

	// Refresh exchanges the refresh token for a new access token.
	// Fails with domain.ErrAuth if the refresh token was rejected.
	Refresh(ctx context.Context) error

	// SignIn exchanges a host-issued sign-in token for a session.
	SignIn(ctx context.Context, signInToken string) (domain.SignInResult, error)

	// SignOut discards the session.
	SignOut(ctx context.Context) error

	// ReauthenticationRequests subscribes to "reauthentication needed"
	// signals. Call the returned function to unsubscribe.
	ReauthenticationRequests() (<-chan struct{}, func())
}

// ExchangeResult is a session issued for a sign-in token.
type ExchangeResult struct {
	UserID string
	Tokens domain.TokenPair
}

// TokenExchanger trades a sign-in token for an access/refresh pair.
type TokenExchanger interface {
	Exchange(ctx context.Context, env domain.Environment, signInToken string) (ExchangeResult, error)
}
