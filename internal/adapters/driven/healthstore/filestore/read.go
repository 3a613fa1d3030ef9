package filestore

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/cockroachdb/errors"

	"github.com/youngmin9/vitalsync/internal/core/domain"
	"github.com/youngmin9/vitalsync/internal/core/ports/driven"
	"github.com/youngmin9/vitalsync/internal/logger"
)

// Read returns the records of resource that lie inside [start, end] and
// were appended after the stored anchors.
func (s *Store) Read(
	ctx context.Context,
	resource domain.Resource,
	start, end time.Time,
	state driven.AnchorReader,
) (domain.ReadResult, error) {
	if !s.IsAvailable() {
		return domain.ReadResult{}, domain.ErrPlatformUnavailable
	}
	if !resource.IsValid() {
		return domain.ReadResult{}, errors.Wrapf(domain.ErrInvalidInput, "unknown resource %q", resource)
	}

	switch resource {
	case domain.ResourceProfile:
		return s.readProfile()
	case domain.ResourceWorkout:
		return s.readWorkouts(ctx, start, end, state)
	case domain.ResourceSleep:
		return s.readSleeps(ctx, start, end, state)
	default:
		return s.readQuantities(ctx, resource, start, end, state)
	}
}

func (s *Store) readProfile() (domain.ReadResult, error) {
	raw, err := os.ReadFile(filepath.Join(s.dir, profileFile))
	if errors.Is(err, os.ErrNotExist) {
		return domain.ReadResult{}, nil
	}
	if err != nil {
		return domain.ReadResult{}, errors.Wrap(err, "read profile")
	}

	var profile domain.Profile
	if err := json.Unmarshal(raw, &profile); err != nil {
		return domain.ReadResult{}, errors.Wrap(err, "decode profile")
	}
	if profile == (domain.Profile{}) {
		return domain.ReadResult{}, nil
	}
	return domain.ReadResult{Data: &domain.ProcessedData{Profile: &profile}}, nil
}

func (s *Store) readQuantities(
	ctx context.Context,
	resource domain.Resource,
	start, end time.Time,
	state driven.AnchorReader,
) (domain.ReadResult, error) {
	data := domain.ProcessedData{Samples: make(map[domain.DataType][]domain.QuantitySample)}
	var cursors []domain.CursorUpdate

	for _, dt := range resource.DataTypes() {
		key := domain.AnchorKey(resource, dt)
		offset, err := s.anchor(ctx, state, key)
		if err != nil {
			return domain.ReadResult{}, err
		}

		lines, err := readLines[domain.QuantitySample](filepath.Join(s.dir, fileFor(dt)))
		if err != nil {
			return domain.ReadResult{}, errors.Wrapf(err, "read %s", dt)
		}
		for _, sample := range sinceOffset(lines, offset) {
			if inWindow(sample.StartDate, start, end) {
				data.Samples[dt] = append(data.Samples[dt], sample)
			}
		}
		cursors = append(cursors, s.cursor(key, len(lines)))
	}

	return result(data, cursors), nil
}

func (s *Store) readWorkouts(
	ctx context.Context,
	start, end time.Time,
	state driven.AnchorReader,
) (domain.ReadResult, error) {
	key := domain.AnchorKey(domain.ResourceWorkout, domain.DataTypeWorkout)
	offset, err := s.anchor(ctx, state, key)
	if err != nil {
		return domain.ReadResult{}, err
	}

	lines, err := readLines[domain.Workout](filepath.Join(s.dir, fileFor(domain.DataTypeWorkout)))
	if err != nil {
		return domain.ReadResult{}, errors.Wrap(err, "read workouts")
	}
	heartRate, err := s.samples(domain.DataTypeHeartRate)
	if err != nil {
		return domain.ReadResult{}, err
	}
	respiratory, err := s.samples(domain.DataTypeRespiratoryRate)
	if err != nil {
		return domain.ReadResult{}, err
	}

	var data domain.ProcessedData
	for _, w := range sinceOffset(lines, offset) {
		if !inWindow(w.StartDate, start, end) {
			continue
		}
		w.HeartRate = within(heartRate, w.StartDate, w.EndDate)
		w.RespiratoryRate = within(respiratory, w.StartDate, w.EndDate)
		data.Workouts = append(data.Workouts, w)
	}

	return result(data, []domain.CursorUpdate{s.cursor(key, len(lines))}), nil
}

func (s *Store) readSleeps(
	ctx context.Context,
	start, end time.Time,
	state driven.AnchorReader,
) (domain.ReadResult, error) {
	key := domain.AnchorKey(domain.ResourceSleep, domain.DataTypeSleepAnalysis)
	offset, err := s.anchor(ctx, state, key)
	if err != nil {
		return domain.ReadResult{}, err
	}

	lines, err := readLines[domain.Sleep](filepath.Join(s.dir, fileFor(domain.DataTypeSleepAnalysis)))
	if err != nil {
		return domain.ReadResult{}, errors.Wrap(err, "read sleeps")
	}

	series := make(map[domain.DataType][]domain.QuantitySample)
	for _, dt := range []domain.DataType{
		domain.DataTypeHeartRate,
		domain.DataTypeHeartRateVariability,
		domain.DataTypeOxygenSaturation,
		domain.DataTypeRespiratoryRate,
	} {
		if series[dt], err = s.samples(dt); err != nil {
			return domain.ReadResult{}, err
		}
	}

	var data domain.ProcessedData
	for _, sl := range sinceOffset(lines, offset) {
		if !inWindow(sl.StartDate, start, end) {
			continue
		}
		sl.HeartRate = within(series[domain.DataTypeHeartRate], sl.StartDate, sl.EndDate)
		sl.HeartRateVariability = within(series[domain.DataTypeHeartRateVariability], sl.StartDate, sl.EndDate)
		sl.OxygenSaturation = within(series[domain.DataTypeOxygenSaturation], sl.StartDate, sl.EndDate)
		sl.RespiratoryRate = within(series[domain.DataTypeRespiratoryRate], sl.StartDate, sl.EndDate)
		data.Sleeps = append(data.Sleeps, sl)
	}

	return result(data, []domain.CursorUpdate{s.cursor(key, len(lines))}), nil
}

// anchor returns the number of lines already consumed for key.
func (s *Store) anchor(ctx context.Context, state driven.AnchorReader, key string) (int, error) {
	raw, err := state.ReadAnchor(ctx, key)
	if errors.Is(err, domain.ErrNotFound) {
		return 0, nil
	}
	if err != nil {
		return 0, errors.Wrapf(err, "read anchor %s", key)
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		logger.Warn("filestore: ignoring malformed anchor %s=%q", key, raw)
		return 0, nil
	}
	return n, nil
}

func (s *Store) cursor(key string, consumed int) domain.CursorUpdate {
	return domain.CursorUpdate{Key: key, Anchor: strconv.Itoa(consumed), SyncedAt: s.now()}
}

func (s *Store) samples(dt domain.DataType) ([]domain.QuantitySample, error) {
	lines, err := readLines[domain.QuantitySample](filepath.Join(s.dir, fileFor(dt)))
	if err != nil {
		return nil, errors.Wrapf(err, "read %s", dt)
	}
	out := make([]domain.QuantitySample, 0, len(lines))
	for _, l := range lines {
		if l.ok {
			out = append(out, l.value)
		}
	}
	return out, nil
}

func result(data domain.ProcessedData, cursors []domain.CursorUpdate) domain.ReadResult {
	if data.IsEmpty() {
		return domain.ReadResult{Cursors: cursors}
	}
	return domain.ReadResult{Data: &data, Cursors: cursors}
}

// line is one decoded record; ok is false for lines that failed to decode.
type line[T any] struct {
	value T
	ok    bool
}

// readLines decodes every non-blank line of a JSON-lines file. Malformed
// lines are kept as !ok so anchors still count them.
func readLines[T any](path string) ([]line[T], error) {
	f, err := os.Open(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var out []line[T]
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	for scanner.Scan() {
		raw := bytes.TrimSpace(scanner.Bytes())
		if len(raw) == 0 {
			continue
		}
		var v T
		if err := json.Unmarshal(raw, &v); err != nil {
			logger.Warn("filestore: skipping malformed line %d in %s: %v", len(out)+1, filepath.Base(path), err)
			out = append(out, line[T]{})
			continue
		}
		out = append(out, line[T]{value: v, ok: true})
	}
	return out, scanner.Err()
}

// sinceOffset returns the decoded records after the first offset lines.
func sinceOffset[T any](lines []line[T], offset int) []T {
	if offset > len(lines) {
		// The file shrank; start over.
		offset = 0
	}
	var out []T
	for _, l := range lines[offset:] {
		if l.ok {
			out = append(out, l.value)
		}
	}
	return out
}

func inWindow(t, start, end time.Time) bool {
	return !t.Before(start) && !t.After(end)
}

func within(samples []domain.QuantitySample, start, end time.Time) []domain.QuantitySample {
	var out []domain.QuantitySample
	for _, s := range samples {
		if !s.StartDate.Before(start) && !s.StartDate.After(end) {
			out = append(out, s)
		}
	}
	return out
}
