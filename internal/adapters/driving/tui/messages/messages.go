// Package messages defines Bubbletea message types for the TUI.
package messages

import (
	"time"

	"github.com/youngmin9/vitalsync/internal/core/domain"
)

// StatusReceived carries one event from the status stream.
type StatusReceived struct {
	Status domain.SyncStatus
}

// StreamClosed is sent when the status stream ended.
type StreamClosed struct{}

// SyncRequested asks the app to sync the given resources. An empty list
// means every permitted resource.
type SyncRequested struct {
	Resources []domain.Resource
}

// SyncFinished is sent when a sync request returned.
type SyncFinished struct {
	Err error
}

// LastSyncLoaded carries the last sync time of a resource.
type LastSyncLoaded struct {
	Resource domain.Resource
	At       time.Time
	Found    bool
}

// ErrorOccurred carries an error to display.
type ErrorOccurred struct {
	Err error
}
