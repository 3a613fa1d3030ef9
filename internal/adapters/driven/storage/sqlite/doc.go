// Package sqlite provides a SQLite-based implementation of the persistence
// ports.
//
// This adapter uses modernc.org/sqlite, a pure Go SQLite implementation that requires
// no CGO, enabling easy cross-compilation. It implements two store interfaces
// through a single database connection:
//
//   - SecureStore: secret blobs, encrypted at rest with XChaCha20-Poly1305
//   - SyncStateStore: per-data-type anchors and historical-sync flags
//
// # Schema
//
// The database schema is managed through versioned migrations stored in the
// migrations/ directory. Each migration is a pair of .up.sql and .down.sql files.
//
// # Encryption
//
// The blob key is derived from a passphrase with Argon2id. The salt is
// generated on first open and kept in the store_meta table; opening with a
// different passphrase makes every blob read as corrupted.
//
// # Thread Safety
//
// All operations are thread-safe. The store uses database-level locking provided
// by SQLite in WAL mode.
package sqlite
