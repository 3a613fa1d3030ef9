package services

import (
	"context"

	"github.com/youngmin9/vitalsync/internal/core/domain"
	"github.com/youngmin9/vitalsync/internal/core/ports/driven"
)

// Session is an active configuration: the auth mode it was created for,
// the normalised SDK configuration, and the transport bound to them.
type Session struct {
	Mode   domain.AuthMode
	Config domain.Configuration
	Auth   driven.AuthStrategy
	API    driven.APIClient

	// ResolveUser returns the authoritative user for Mode.
	ResolveUser func(ctx context.Context) (string, error)
}
