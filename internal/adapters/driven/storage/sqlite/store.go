package sqlite

import (
	"context"
	"crypto/cipher"
	"database/sql"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/cockroachdb/errors"
	_ "modernc.org/sqlite" // SQLite driver

	"github.com/youngmin9/vitalsync/internal/adapters/driven/storage/sqlite/migrations"
	"github.com/youngmin9/vitalsync/internal/core/ports/driven"
)

// dbFile is the database file name inside the data directory.
const dbFile = "vitalsync.db"

// Store is a unified SQLite-based storage that provides access to
// the persistence ports through wrapper types.
type Store struct {
	db   *sql.DB
	path string
	aead cipher.AEAD
}

// NewStore opens (or creates) the store in dataDir. Secure-store blobs are
// encrypted with a key derived from passphrase.
// If dataDir is empty, defaults to ~/.vitalsync/data.
func NewStore(dataDir string, passphrase []byte) (*Store, error) {
	if len(passphrase) == 0 {
		return nil, errors.New("sqlite: passphrase is required")
	}
	if dataDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, errors.Wrap(err, "getting home directory")
		}
		dataDir = filepath.Join(home, ".vitalsync", "data")
	}

	// Ensure directory exists
	if err := os.MkdirAll(dataDir, 0700); err != nil {
		return nil, errors.Wrap(err, "creating data directory")
	}

	dbPath := filepath.Join(dataDir, dbFile)

	// Open database with WAL mode for better concurrency
	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, errors.Wrap(err, "opening database")
	}

	s := &Store{
		db:   db,
		path: dbPath,
	}

	if err := s.migrate(migrations.FS); err != nil {
		db.Close()
		return nil, errors.Wrap(err, "running migrations")
	}

	salt, err := s.kdfSalt(context.Background())
	if err != nil {
		db.Close()
		return nil, err
	}
	if s.aead, err = newAEAD(passphrase, salt); err != nil {
		db.Close()
		return nil, err
	}

	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Path returns the database file path.
func (s *Store) Path() string {
	return s.path
}

// SecureStore returns a SecureStore interface backed by this store.
func (s *Store) SecureStore() driven.SecureStore {
	return &secureStore{store: s}
}

// SyncStateStore returns a SyncStateStore interface backed by this store.
func (s *Store) SyncStateStore() driven.SyncStateStore {
	return &syncStateStore{store: s}
}

// migrate runs all pending migrations.
func (s *Store) migrate(fsys fs.FS) error {
	// Ensure schema_migrations table exists
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version INTEGER PRIMARY KEY,
			applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)
	`)
	if err != nil {
		return errors.Wrap(err, "creating schema_migrations table")
	}

	// Get current version
	var currentVersion int
	row := s.db.QueryRow("SELECT COALESCE(MAX(version), 0) FROM schema_migrations")
	if err := row.Scan(&currentVersion); err != nil {
		return errors.Wrap(err, "getting current version")
	}

	entries, err := fs.ReadDir(fsys, ".")
	if err != nil {
		return errors.Wrap(err, "reading migrations directory")
	}

	var upFiles []string
	for _, entry := range entries {
		if name := entry.Name(); strings.HasSuffix(name, ".up.sql") {
			upFiles = append(upFiles, name)
		}
	}
	sort.Strings(upFiles)

	for _, name := range upFiles {
		// Extract version number (e.g., "001_initial.up.sql" -> 1)
		var version int
		if _, err := fmt.Sscanf(name, "%d_", &version); err != nil {
			continue
		}
		if version <= currentVersion {
			continue
		}

		content, err := fs.ReadFile(fsys, name)
		if err != nil {
			return errors.Wrapf(err, "reading migration %s", name)
		}
		if err := s.apply(version, string(content)); err != nil {
			return errors.Wrapf(err, "executing migration %s", name)
		}
	}

	return nil
}

func (s *Store) apply(version int, script string) error {
	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback() //nolint:errcheck // no-op after commit

	if _, err := tx.Exec(script); err != nil {
		return err
	}
	if _, err := tx.Exec("INSERT INTO schema_migrations (version) VALUES (?)", version); err != nil {
		return err
	}
	return tx.Commit()
}

// kdfSalt returns the key-derivation salt, creating it on first open.
func (s *Store) kdfSalt(ctx context.Context) ([]byte, error) {
	var salt []byte
	err := s.db.QueryRowContext(ctx, "SELECT value FROM store_meta WHERE key = 'kdf_salt'").Scan(&salt)
	if err == nil {
		return salt, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, errors.Wrap(err, "reading kdf salt")
	}

	if salt, err = newSalt(); err != nil {
		return nil, err
	}
	if _, err := s.db.ExecContext(ctx,
		"INSERT OR IGNORE INTO store_meta (key, value) VALUES ('kdf_salt', ?)", salt); err != nil {
		return nil, errors.Wrap(err, "storing kdf salt")
	}
	// Re-read in case another process won the insert.
	if err := s.db.QueryRowContext(ctx, "SELECT value FROM store_meta WHERE key = 'kdf_salt'").Scan(&salt); err != nil {
		return nil, errors.Wrap(err, "reading kdf salt")
	}
	return salt, nil
}
