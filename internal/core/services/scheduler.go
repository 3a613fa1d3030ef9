package services

import (
	"context"
	"sync"
	"time"

	"github.com/cockroachdb/errors"

	"github.com/youngmin9/vitalsync/internal/core/domain"
	"github.com/youngmin9/vitalsync/internal/core/ports/driving"
	"github.com/youngmin9/vitalsync/internal/logger"
)

var _ driving.Scheduler = (*Scheduler)(nil)

// FullSyncer synchronises every permitted resource.
type FullSyncer interface {
	SyncAll(ctx context.Context) error
}

// Scheduler runs SyncAll on a fixed interval.
type Scheduler struct {
	config domain.SchedulerConfig
	syncer FullSyncer
	now    func() time.Time
	tick   time.Duration

	mu      sync.Mutex
	task    domain.ScheduledTask
	last    *domain.TaskResult
	running bool
	busy    bool
	stopCh  chan struct{}
	wg      sync.WaitGroup
}

// NewScheduler creates a scheduler with configuration.
func NewScheduler(config domain.SchedulerConfig, syncer FullSyncer) *Scheduler {
	return &Scheduler{
		config: config,
		syncer: syncer,
		now:    time.Now,
		tick:   time.Minute,
	}
}

// Start begins the scheduler loop. This method blocks until Stop is called
// or ctx is cancelled.
func (s *Scheduler) Start(ctx context.Context) error {
	if err := s.config.Validate(); err != nil {
		return err
	}

	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return nil
	}
	s.running = true
	s.stopCh = make(chan struct{})
	stopCh := s.stopCh
	s.task = domain.ScheduledTask{
		ID:       domain.TaskIDPeriodicSync,
		Name:     "Periodic Sync",
		Interval: s.config.Interval,
		Enabled:  s.config.Enabled,
		NextRun:  s.now().Add(s.config.Interval),
	}
	s.mu.Unlock()

	return s.run(ctx, stopCh)
}

// Stop gracefully shuts down the scheduler and waits for a running sync.
func (s *Scheduler) Stop() error {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return nil
	}
	s.running = false
	close(s.stopCh)
	s.mu.Unlock()

	s.wg.Wait()
	return nil
}

// Task returns a snapshot of the periodic sync task.
func (s *Scheduler) Task() domain.ScheduledTask {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.task
}

// LastResult returns the outcome of the most recent run, if any.
func (s *Scheduler) LastResult() (domain.TaskResult, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.last == nil {
		return domain.TaskResult{}, false
	}
	return *s.last, true
}

func (s *Scheduler) run(ctx context.Context, stopCh <-chan struct{}) error {
	tick := s.tick
	if s.config.Interval < tick {
		tick = s.config.Interval
	}
	ticker := time.NewTicker(tick)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.wg.Wait()
			return ctx.Err()
		case <-stopCh:
			return nil
		case <-ticker.C:
			s.runIfDue(ctx)
		}
	}
}

// runIfDue runs the sync unless one is still in flight.
func (s *Scheduler) runIfDue(ctx context.Context) {
	s.mu.Lock()
	if s.busy || !s.task.Due(s.now()) {
		s.mu.Unlock()
		return
	}
	s.busy = true
	s.mu.Unlock()

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.runTask(ctx)
	}()
}

func (s *Scheduler) runTask(ctx context.Context) {
	result := domain.TaskResult{TaskID: domain.TaskIDPeriodicSync, StartedAt: s.now()}
	logger.Debug("scheduler: starting %s", result.TaskID)

	err := s.syncer.SyncAll(ctx)

	result.EndedAt = s.now()
	s.mu.Lock()
	defer s.mu.Unlock()
	if err != nil {
		result.Error = errors.Wrap(err, "periodic sync").Error()
		s.task.LastError = result.Error
		logger.Warn("scheduler: %s", result.Error)
	} else {
		result.Success = true
		s.task.LastError = ""
		s.task.LastSuccess = result.EndedAt
	}
	s.task.LastRun = result.StartedAt
	s.task.NextRun = result.EndedAt.Add(s.task.Interval)
	s.last = &result
	s.busy = false
}
