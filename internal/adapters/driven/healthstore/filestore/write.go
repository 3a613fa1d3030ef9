package filestore

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/google/uuid"

	"github.com/youngmin9/vitalsync/internal/core/domain"
)

// Write appends a sample for a writable resource covering [start, end].
func (s *Store) Write(_ context.Context, input domain.WriteInput, start, end time.Time) error {
	if !s.IsAvailable() {
		return domain.ErrPlatformUnavailable
	}
	if _, err := domain.ParseWritableResource(string(input.Resource)); err != nil {
		return err
	}
	allowed, err := s.canWrite(input.Resource)
	if err != nil {
		return err
	}
	if !allowed {
		return &domain.AuthorizationError{Reason: "write access to " + string(input.Resource) + " was not requested"}
	}

	sample := domain.QuantitySample{
		ID:        uuid.NewString(),
		Value:     input.Value,
		Unit:      input.Unit,
		StartDate: start,
		EndDate:   end,
		Source:    s.source,
	}
	return s.Append(input.Resource.DataType(), sample)
}

// Append adds one record to the file backing dt. Records are encoded as a
// single line so concurrent readers never see a partial record.
func (s *Store) Append(dt domain.DataType, record any) error {
	if fileFor(dt) == profileFile {
		return errors.Wrapf(domain.ErrInvalidInput, "%s is a profile characteristic, use SetProfile", dt)
	}
	raw, err := json.Marshal(record)
	if err != nil {
		return errors.Wrap(err, "encode record")
	}
	raw = append(raw, '\n')

	s.mu.Lock()
	defer s.mu.Unlock()

	path := filepath.Join(s.dir, fileFor(dt))
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o600)
	if err != nil {
		return errors.Wrapf(err, "open %s", filepath.Base(path))
	}
	if _, err := f.Write(raw); err != nil {
		f.Close()
		return errors.Wrapf(err, "append %s", filepath.Base(path))
	}
	return errors.Wrapf(f.Close(), "close %s", filepath.Base(path))
}

// SetProfile replaces the profile characteristics.
func (s *Store) SetProfile(profile domain.Profile) error {
	raw, err := json.MarshalIndent(profile, "", "  ")
	if err != nil {
		return errors.Wrap(err, "encode profile")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return errors.Wrap(writeFileAtomic(filepath.Join(s.dir, profileFile), raw), "write profile")
}
