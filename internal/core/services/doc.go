// Package services implements the driving port interfaces.
// Services contain the core sync and authentication logic and orchestrate
// calls to driven ports (adapters).
//
// The Client is the entry point: it owns the configured Session, the
// SyncOrchestrator, the background DeliveryLoop and the
// ReauthenticationMonitor.
package services
