package domain

import (
	"fmt"
	"time"
)

// ScheduledTask is a recurring background task and its last outcome.
type ScheduledTask struct {
	ID          string
	Name        string
	Interval    time.Duration
	LastRun     time.Time
	NextRun     time.Time
	LastError   string
	LastSuccess time.Time
	Enabled     bool
}

// Due reports whether the task should run at now.
func (t ScheduledTask) Due(now time.Time) bool {
	return t.Enabled && !now.Before(t.NextRun)
}

// TaskResult is the outcome of one task execution.
type TaskResult struct {
	TaskID    string
	StartedAt time.Time
	EndedAt   time.Time
	Success   bool
	Error     string
}

// MinSyncInterval is the shortest allowed periodic sync interval.
const MinSyncInterval = time.Minute

// TaskIDPeriodicSync identifies the periodic SyncAll task.
const TaskIDPeriodicSync = "periodic-sync"

// SchedulerConfig holds scheduler configuration.
type SchedulerConfig struct {
	// Enabled is the master switch for the scheduler.
	Enabled bool

	// Interval is how often every permitted resource is synced.
	Interval time.Duration
}

// DefaultSchedulerConfig returns the scheduler defaults: off, hourly.
func DefaultSchedulerConfig() SchedulerConfig {
	return SchedulerConfig{Interval: time.Hour}
}

// Validate checks the interval when the scheduler is enabled.
func (c SchedulerConfig) Validate() error {
	if c.Enabled && c.Interval < MinSyncInterval {
		return fmt.Errorf("%w: sync interval %s is shorter than %s", ErrInvalidInput, c.Interval, MinSyncInterval)
	}
	return nil
}
