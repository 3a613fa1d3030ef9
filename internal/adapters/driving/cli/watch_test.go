package cli

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/youngmin9/vitalsync/internal/core/domain"
	"github.com/youngmin9/vitalsync/internal/core/ports/driving"
)

func TestWatchCmd_PrintsUntilCancelled(t *testing.T) {
	fake := newFakeClient()
	fake.pending = []domain.SyncStatus{
		domain.Syncing{Res: domain.ResourceActivity},
		domain.NothingToSync{Res: domain.ResourceActivity},
	}
	withClient(t, fake)

	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()

	out, err := runCommandContext(t, ctx, "watch")

	require.NoError(t, err)
	assert.Contains(t, out, "Watching for changes.")
	assert.Contains(t, out, "syncing activity")
	assert.Contains(t, out, "nothing to sync for activity")
	assert.Zero(t, fake.subscriberCount())
	assert.Empty(t, fake.fetchers)
}

func TestWatchCmd_TokenCommandInstallsAndStopsMonitor(t *testing.T) {
	fake := newFakeClient()
	withClient(t, fake)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := runCommandContext(t, ctx, "watch", "--token-command", "echo token")

	require.NoError(t, err)
	require.Len(t, fake.fetchers, 2)
	assert.NotNil(t, fake.fetchers[0])
	assert.Nil(t, fake.fetchers[1])
}

func TestCommandTokenFetcher(t *testing.T) {
	fetch := commandTokenFetcher(`printf '  token-for-%s\n' "$VITALSYNC_USER_ID"`)

	token, err := fetch(context.Background(), "user-42")

	require.NoError(t, err)
	assert.Equal(t, "token-for-user-42", token)
}

func TestCommandTokenFetcher_Failure(t *testing.T) {
	fetch := commandTokenFetcher("exit 3")

	token, err := fetch(context.Background(), "user-42")

	require.Error(t, err)
	assert.Empty(t, token)
}

type fakeScheduler struct {
	mu      sync.Mutex
	config  domain.SchedulerConfig
	started bool
	stopped bool
}

func (s *fakeScheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	s.started = true
	s.mu.Unlock()
	<-ctx.Done()
	return ctx.Err()
}

func (s *fakeScheduler) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stopped = true
	return nil
}

func (s *fakeScheduler) Task() domain.ScheduledTask {
	return domain.ScheduledTask{ID: domain.TaskIDPeriodicSync, Interval: s.config.Interval}
}

func withSchedulerFactory(t *testing.T, sched *fakeScheduler) {
	t.Helper()
	prev := newScheduler
	newScheduler = func(cfg domain.SchedulerConfig) driving.Scheduler {
		sched.config = cfg
		return sched
	}
	t.Cleanup(func() { newScheduler = prev })
}

func TestWatchCmd_IntervalStartsScheduler(t *testing.T) {
	withClient(t, newFakeClient())
	sched := &fakeScheduler{}
	withSchedulerFactory(t, sched)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	out, err := runCommandContext(t, ctx, "watch", "--interval", "30m")

	require.NoError(t, err)
	assert.Contains(t, out, "Syncing every 30m0s.")
	assert.Equal(t, domain.SchedulerConfig{Enabled: true, Interval: 30 * time.Minute}, sched.config)
	sched.mu.Lock()
	defer sched.mu.Unlock()
	assert.True(t, sched.stopped)
}

func TestWatchCmd_IntervalTooShort(t *testing.T) {
	withClient(t, newFakeClient())
	withSchedulerFactory(t, &fakeScheduler{})

	_, err := runCommandContext(t, context.Background(), "watch", "--interval", "10s")

	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}
