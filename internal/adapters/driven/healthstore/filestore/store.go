package filestore

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/cockroachdb/errors"

	"github.com/youngmin9/vitalsync/internal/core/domain"
	"github.com/youngmin9/vitalsync/internal/core/ports/driven"
	"github.com/youngmin9/vitalsync/internal/logger"
)

const (
	profileFile     = "profile.json"
	permissionsFile = "permissions.json"
	denyFile        = "deny"
	recordExt       = ".jsonl"
)

// Ensure Store implements the HealthStore and BatchObserver interfaces.
var (
	_ driven.HealthStore   = (*Store)(nil)
	_ driven.BatchObserver = (*Store)(nil)
)

// Store is a HealthStore over a directory of JSON-lines files.
type Store struct {
	dir    string
	now    func() time.Time
	source string

	// mu serialises file writes.
	mu sync.Mutex

	deliveryMu sync.Mutex
	delivery   map[domain.DataType]domain.Frequency
}

// Option configures a Store.
type Option func(*Store)

// WithClock sets the time source used for cursor timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// WithSource sets the source name stamped on written samples.
func WithSource(name string) Option {
	return func(s *Store) { s.source = name }
}

// New creates a store over dir. The directory is not created; a missing
// directory makes the store unavailable.
func New(dir string, opts ...Option) *Store {
	s := &Store{
		dir:      dir,
		now:      time.Now,
		source:   "vitalsync",
		delivery: make(map[domain.DataType]domain.Frequency),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Dir returns the backing directory.
func (s *Store) Dir() string {
	return s.dir
}

// IsAvailable reports whether the backing directory exists.
func (s *Store) IsAvailable() bool {
	info, err := os.Stat(s.dir)
	return err == nil && info.IsDir()
}

type permissions struct {
	Read  []domain.Resource         `json:"read"`
	Write []domain.WritableResource `json:"write"`
}

// RequestAuthorization records the requested access. A deny file in the
// directory makes the request fail with its contents as the reason.
func (s *Store) RequestAuthorization(_ context.Context, read []domain.Resource, write []domain.WritableResource) error {
	if !s.IsAvailable() {
		return domain.ErrPlatformUnavailable
	}
	if raw, err := os.ReadFile(filepath.Join(s.dir, denyFile)); err == nil {
		reason := strings.TrimSpace(string(raw))
		if reason == "" {
			reason = "access denied"
		}
		return &domain.AuthorizationError{Reason: reason}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	perms, err := s.readPermissions()
	if err != nil {
		return err
	}
	for _, r := range read {
		if !r.IsValid() {
			return errors.Wrapf(domain.ErrInvalidInput, "unknown resource %q", r)
		}
		if !slices.Contains(perms.Read, r) {
			perms.Read = append(perms.Read, r)
		}
	}
	for _, w := range write {
		if !slices.Contains(perms.Write, w) {
			perms.Write = append(perms.Write, w)
		}
	}
	domain.SortResources(perms.Read)
	slices.Sort(perms.Write)

	raw, err := json.MarshalIndent(perms, "", "  ")
	if err != nil {
		return errors.Wrap(err, "encode permissions")
	}
	if err := writeFileAtomic(filepath.Join(s.dir, permissionsFile), raw); err != nil {
		return errors.Wrap(err, "write permissions")
	}
	logger.Debug("filestore: granted read %v write %v", read, write)
	return nil
}

// HasRequestedPermission reports whether access to resource was asked for.
func (s *Store) HasRequestedPermission(_ context.Context, resource domain.Resource) bool {
	perms, err := s.readPermissions()
	if err != nil {
		logger.Warn("filestore: %v", err)
		return false
	}
	return slices.Contains(perms.Read, resource)
}

// PermittedResources returns the resources access was requested for.
func (s *Store) PermittedResources(context.Context) ([]domain.Resource, error) {
	perms, err := s.readPermissions()
	if err != nil {
		return nil, err
	}
	return perms.Read, nil
}

func (s *Store) canWrite(w domain.WritableResource) (bool, error) {
	perms, err := s.readPermissions()
	if err != nil {
		return false, err
	}
	return slices.Contains(perms.Write, w), nil
}

func (s *Store) readPermissions() (permissions, error) {
	var perms permissions
	raw, err := os.ReadFile(filepath.Join(s.dir, permissionsFile))
	if errors.Is(err, os.ErrNotExist) {
		return perms, nil
	}
	if err != nil {
		return perms, errors.Wrap(err, "read permissions")
	}
	if err := json.Unmarshal(raw, &perms); err != nil {
		return perms, errors.Wrapf(domain.ErrStorageCorrupted, "permissions file: %v", err)
	}
	return perms, nil
}

// EnableBackgroundDelivery records the wake-up frequency for a data type.
// File watches deliver regardless; the setting is kept for inspection.
func (s *Store) EnableBackgroundDelivery(_ context.Context, dt domain.DataType, frequency domain.Frequency) error {
	if !s.IsAvailable() {
		return domain.ErrPlatformUnavailable
	}
	s.deliveryMu.Lock()
	defer s.deliveryMu.Unlock()
	s.delivery[dt] = frequency
	return nil
}

// DeliveryFrequency returns the frequency enabled for dt, if any.
func (s *Store) DeliveryFrequency(dt domain.DataType) (domain.Frequency, bool) {
	s.deliveryMu.Lock()
	defer s.deliveryMu.Unlock()
	f, ok := s.delivery[dt]
	return f, ok
}

// fileFor returns the file backing a data type.
func fileFor(dt domain.DataType) string {
	switch dt {
	case domain.DataTypeBiologicalSex, domain.DataTypeDateOfBirth, domain.DataTypeHeight:
		return profileFile
	default:
		return string(dt) + recordExt
	}
}

func writeFileAtomic(path string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), ".tmp-*")
	if err != nil {
		return err
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return err
	}
	return os.Rename(tmp.Name(), path)
}
