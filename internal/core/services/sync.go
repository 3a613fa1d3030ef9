package services

import (
	"context"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/hashicorp/go-multierror"

	"github.com/youngmin9/vitalsync/internal/broadcast"
	"github.com/youngmin9/vitalsync/internal/core/domain"
	"github.com/youngmin9/vitalsync/internal/core/ports/driven"
	"github.com/youngmin9/vitalsync/internal/core/ports/driving"
	"github.com/youngmin9/vitalsync/internal/logger"
	"github.com/youngmin9/vitalsync/internal/promise"
)

// Ensure SyncOrchestrator implements the interface.
var _ driving.SyncOrchestrator = (*SyncOrchestrator)(nil)

// SyncOrchestrator runs read, transform and push for one resource at a time
// and reports progress on a status stream.
//
// No lock is held across a sync. Two concurrent syncs of the same resource
// may both read the old anchor; the later cursor write wins.
type SyncOrchestrator struct {
	session   *promise.Promise[*Session]
	health    driven.HealthStore
	syncStore driven.SyncStateStore
	sources   *ConnectedSources
	statuses  *broadcast.Broadcaster[domain.SyncStatus]

	now      func() time.Time
	location func() *time.Location
}

// NewSyncOrchestrator creates a new sync orchestrator. Syncs wait on session
// until a configuration is supplied.
func NewSyncOrchestrator(
	session *promise.Promise[*Session],
	health driven.HealthStore,
	syncStore driven.SyncStateStore,
	sources *ConnectedSources,
	statuses *broadcast.Broadcaster[domain.SyncStatus],
) *SyncOrchestrator {
	return &SyncOrchestrator{
		session:   session,
		health:    health,
		syncStore: syncStore,
		sources:   sources,
		statuses:  statuses,
		now:       time.Now,
		location:  func() *time.Location { return time.Local },
	}
}

// WithClock overrides the time source and local time zone.
func (o *SyncOrchestrator) WithClock(now func() time.Time, loc *time.Location) *SyncOrchestrator {
	o.now = now
	o.location = func() *time.Location { return loc }
	return o
}

// Status subscribes to status events.
func (o *SyncOrchestrator) Status() (<-chan domain.SyncStatus, func()) {
	ch := o.statuses.AddListener()
	return ch, func() { o.statuses.RemoveListener(ch) }
}

// Sync synchronises one resource. Failures are reported both as a
// FailedSyncing event and as the returned error; no sync state is
// committed on failure.
//
//nolint:gocyclo // Orchestration function with necessary sequential steps
func (o *SyncOrchestrator) Sync(ctx context.Context, resource domain.Resource) error {
	// 1. Announce
	o.statuses.Broadcast(domain.Syncing{Res: resource})

	// 2. Wait until configured
	sess, err := o.session.Get(ctx)
	if err != nil {
		return o.fail(resource, errors.Wrap(err, "await configuration"))
	}

	// 3. Window and stage
	end := o.now()
	start := end.AddDate(0, 0, -sess.Config.EffectiveBackfillDays())
	stage, err := o.stageFor(ctx, resource, start, end)
	if err != nil {
		return o.fail(resource, err)
	}
	logger.Debug("sync %s: stage %s", resource, stage)

	// 4. Read past the stored anchors
	result, err := o.health.Read(ctx, resource, start, end, o.syncStore)
	if err != nil {
		return o.fail(resource, errors.Wrapf(err, "read %s", resource))
	}

	// 5. Never push an empty payload
	if result.Data == nil || result.Data.ShouldSkipPost() {
		if !stage.IsDaily() {
			if err := o.syncStore.WriteAnchors(ctx, result.Cursors); err != nil {
				return o.fail(resource, errors.Wrap(err, "write anchors"))
			}
		}
		o.statuses.Broadcast(domain.NothingToSync{Res: resource})
		return nil
	}

	// 6. Transform and push
	loc := o.location()
	data := Transform(*result.Data, loc)
	if sess.Config.EffectivePushMode() == domain.PushModeAutomatic {
		if err := o.push(ctx, sess, resource, data, stage, loc); err != nil {
			return o.fail(resource, err)
		}
	} else {
		logger.Debug("sync %s: manual push mode, skipping upload", resource)
	}

	// 7. Commit. Cursors go first so a failed write never leaves the
	// resource marked historical with its window still unread.
	if err := o.syncStore.WriteAnchors(ctx, result.Cursors); err != nil {
		return o.fail(resource, errors.Wrap(err, "write anchors"))
	}
	if err := o.syncStore.WriteHistoricalFlag(ctx, resource); err != nil {
		return o.fail(resource, errors.Wrap(err, "write historical flag"))
	}

	logger.Info("synced %s: %d records (%s)", resource, data.Count(), stage.Kind())
	o.statuses.Broadcast(domain.SuccessSyncing{Res: resource, Data: data})
	return nil
}

// SyncResources synchronises resources sequentially in the order given and
// then emits SyncingCompleted. Per-resource failures do not stop the run;
// they are returned together.
func (o *SyncOrchestrator) SyncResources(ctx context.Context, resources []domain.Resource) error {
	var result *multierror.Error
	for _, r := range resources {
		if ctx.Err() != nil {
			result = multierror.Append(result, ctx.Err())
			break
		}
		if err := o.Sync(ctx, r); err != nil {
			result = multierror.Append(result, errors.Wrapf(err, "sync %s", r))
		}
	}
	o.statuses.Broadcast(domain.SyncingCompleted{})
	return result.ErrorOrNil()
}

// LastSynced returns when resource was last synced. A resource backed by
// several data types reports the freshest one.
func (o *SyncOrchestrator) LastSynced(ctx context.Context, resource domain.Resource) (time.Time, bool, error) {
	var times []time.Time
	for _, dt := range resource.DataTypes() {
		t, err := o.syncStore.ReadLastSync(ctx, domain.AnchorKey(resource, dt))
		if errors.Is(err, domain.ErrNotFound) {
			continue
		}
		if err != nil {
			return time.Time{}, false, errors.Wrapf(err, "read last sync of %s", dt)
		}
		times = append(times, t)
	}
	t, ok := domain.MostRecentSync(times...)
	return t, ok, nil
}

// stageFor is daily for non-historical resources and for resources that
// already completed a historical pass.
func (o *SyncOrchestrator) stageFor(ctx context.Context, resource domain.Resource, start, end time.Time) (domain.Stage, error) {
	if !resource.IsHistorical() {
		return domain.DailyStage(), nil
	}
	done, err := o.syncStore.ReadHistoricalFlag(ctx, resource)
	if err != nil {
		return domain.Stage{}, errors.Wrap(err, "read historical flag")
	}
	if done {
		return domain.DailyStage(), nil
	}
	return domain.HistoricalStage(start, end), nil
}

func (o *SyncOrchestrator) push(
	ctx context.Context,
	sess *Session,
	resource domain.Resource,
	data domain.ProcessedData,
	stage domain.Stage,
	loc *time.Location,
) error {
	userID, err := sess.ResolveUser(ctx)
	if err != nil {
		return errors.Wrap(err, "resolve user")
	}
	if userID == "" {
		return errors.WithHint(errors.Wrap(domain.ErrNotConfigured, "no user"), "set a user id or sign in first")
	}
	if err := o.sources.Ensure(ctx, sess.API, userID, domain.ProviderHealthKit); err != nil {
		return err
	}
	if err := sess.API.Post(ctx, userID, resource, data, stage, domain.ProviderHealthKit, loc); err != nil {
		return errors.Wrapf(err, "push %s", resource)
	}
	return nil
}

func (o *SyncOrchestrator) fail(resource domain.Resource, err error) error {
	logger.Error("sync %s failed: %+v", resource, err)
	o.statuses.Broadcast(domain.FailedSyncing{Res: resource, Reason: err.Error()})
	return err
}
