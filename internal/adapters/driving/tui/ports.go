// Package tui provides an interactive terminal dashboard for vitalsync.
// It implements a driving adapter following hexagonal architecture principles.
package tui

import (
	"github.com/youngmin9/vitalsync/internal/core/domain"
	"github.com/youngmin9/vitalsync/internal/core/ports/driving"
)

// Ports aggregates what the TUI needs from the core.
type Ports struct {
	// Client is the SDK surface used for syncing and status events.
	Client driving.Client

	// Resources are the rows shown on the dashboard. Empty means every
	// supported resource.
	Resources []domain.Resource
}

// Validate ensures all required ports are set.
func (p *Ports) Validate() error {
	if p == nil || p.Client == nil {
		return ErrMissingClient
	}
	return nil
}

// resources returns the dashboard rows.
func (p *Ports) resources() []domain.Resource {
	if len(p.Resources) == 0 {
		return domain.AllResources()
	}
	return p.Resources
}
