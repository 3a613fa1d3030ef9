// Package domain defines the core entities for vitalsync.
//
// This package is part of the hexagonal architecture's innermost layer.
// It has NO external dependencies and defines the fundamental types:
//
//   - Configuration: immutable SDK settings (backfill, push mode, logging)
//   - AuthMode: API-key or JWT credential strategy, bound to an Environment
//   - Resource: a health-data category synced as a unit
//   - Stage: daily or historical(start, end) sync label
//   - SyncStatus: events on the status stream
//   - BackgroundDelivery: a change notification that must be acknowledged
//
// # Architectural Position
//
// Domain is at the centre of the hexagon. It may only import
// the Go standard library. All other packages depend on domain,
// never the reverse.
//
// # Import Rules
//
//   - Can Import: Standard library only
//   - Cannot Import: Any internal/ package, any external dependency
package domain
