// Package driven defines the interfaces that core calls OUT to infrastructure.
//
// These are the "driven" or "secondary" ports in hexagonal architecture.
// Core services depend on these interfaces, and infrastructure adapters
// implement them.
//
// # Required Interfaces
//
//   - SecureStore: opaque blob persistence for configuration and sessions
//   - SyncStateStore: per-resource anchors and historical flags
//   - HealthStore: the platform health database
//   - APIClient: the remote ingestion API
//   - AuthStrategy: credential for outbound requests
//
// # Optional Interfaces
//
//   - BatchObserver: one watch for several data types. Without it the
//     observer registers one watch per data type.
//   - SessionAuth: only present in JWT mode.
//
// # Import Rules
//
//   - Can Import: domain package only
//   - Cannot Import: Any adapter package
package driven
