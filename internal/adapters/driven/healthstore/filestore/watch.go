package filestore

import (
	"context"
	"path/filepath"

	"github.com/cockroachdb/errors"
	"github.com/fsnotify/fsnotify"

	"github.com/youngmin9/vitalsync/internal/core/domain"
	"github.com/youngmin9/vitalsync/internal/logger"
)

// Observe watches the file backing one data type.
func (s *Store) Observe(ctx context.Context, dt domain.DataType) (<-chan domain.ChangeEvent, error) {
	return s.ObserveBatch(ctx, []domain.DataType{dt})
}

// ObserveBatch registers one directory watch for several data types. The
// channel is closed after the watcher has been closed, once ctx is done.
func (s *Store) ObserveBatch(ctx context.Context, dataTypes []domain.DataType) (<-chan domain.ChangeEvent, error) {
	if !s.IsAvailable() {
		return nil, domain.ErrPlatformUnavailable
	}

	byFile := make(map[string][]domain.DataType)
	for _, dt := range dataTypes {
		name := fileFor(dt)
		byFile[name] = append(byFile[name], dt)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, errors.Wrap(err, "create file watcher")
	}
	if err := watcher.Add(s.dir); err != nil {
		watcher.Close()
		return nil, errors.Wrapf(err, "watch %s", s.dir)
	}

	out := make(chan domain.ChangeEvent)
	go func() {
		defer close(out)
		defer func() {
			if err := watcher.Close(); err != nil {
				logger.Warn("filestore: close watcher: %v", err)
			}
		}()
		s.forwardEvents(ctx, watcher, byFile, out)
	}()
	return out, nil
}

func (s *Store) forwardEvents(
	ctx context.Context,
	watcher *fsnotify.Watcher,
	byFile map[string][]domain.DataType,
	out chan<- domain.ChangeEvent,
) {
	for {
		select {
		case <-ctx.Done():
			return

		case event, ok := <-watcher.Events:
			if !ok {
				return
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
				continue
			}
			changed := map[string]bool{filepath.Base(event.Name): true}
			// Coalesce a burst of writes into one notification per file.
			drainEvents(watcher, changed)

			for name := range changed {
				for _, dt := range byFile[name] {
					ev := domain.ChangeEvent{DataType: dt, Ack: ackFor(dt)}
					select {
					case out <- ev:
					case <-ctx.Done():
						return
					}
				}
			}

		case err, ok := <-watcher.Errors:
			if !ok {
				return
			}
			logger.Warn("filestore: watch error: %v", err)
		}
	}
}

func drainEvents(watcher *fsnotify.Watcher, changed map[string]bool) {
	for {
		select {
		case event, ok := <-watcher.Events:
			if !ok {
				return
			}
			changed[filepath.Base(event.Name)] = true
		default:
			return
		}
	}
}

func ackFor(dt domain.DataType) func() {
	return func() { logger.Debug("filestore: change to %s acknowledged", dt) }
}
