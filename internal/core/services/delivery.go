package services

import (
	"context"
	"sync"

	"github.com/youngmin9/vitalsync/internal/core/domain"
	"github.com/youngmin9/vitalsync/internal/core/ports/driven"
	"github.com/youngmin9/vitalsync/internal/core/ports/driving"
	"github.com/youngmin9/vitalsync/internal/logger"
)

// DeliveryLoop consumes background deliveries and syncs the affected
// resource. At most one loop runs at a time; Start replaces a running one.
type DeliveryLoop struct {
	health   driven.HealthStore
	observer *ChangeObserver
	syncer   driving.SyncOrchestrator

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

// NewDeliveryLoop creates a stopped loop.
func NewDeliveryLoop(health driven.HealthStore, observer *ChangeObserver, syncer driving.SyncOrchestrator) *DeliveryLoop {
	return &DeliveryLoop{health: health, observer: observer, syncer: syncer}
}

// Start cancels any running loop, waits for it to finish, and starts a new
// one watching resources. The loop lives until Stop or until parent is done.
func (l *DeliveryLoop) Start(parent context.Context, resources []domain.Resource) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.stopLocked()

	ctx, cancel := context.WithCancel(parent)
	done := make(chan struct{})
	l.cancel = cancel
	l.done = done

	plan := domain.NewObservationPlan(resources)
	go func() {
		defer close(done)
		l.run(ctx, plan)
	}()
}

// Stop cancels the running loop and waits until its watches are torn down.
func (l *DeliveryLoop) Stop() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.stopLocked()
}

// Running reports whether a loop is active.
func (l *DeliveryLoop) Running() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.done == nil {
		return false
	}
	select {
	case <-l.done:
		return false
	default:
		return true
	}
}

func (l *DeliveryLoop) stopLocked() {
	if l.cancel == nil {
		return
	}
	l.cancel()
	<-l.done
	l.cancel = nil
	l.done = nil
}

func (l *DeliveryLoop) run(ctx context.Context, plan domain.ObservationPlan) {
	logger.Section("Background delivery")

	for _, dt := range plan.DataTypes() {
		if err := l.health.EnableBackgroundDelivery(ctx, dt, domain.DeliveryFrequency(dt)); err != nil {
			logger.Warn("background delivery: enable %s failed: %v", dt, err)
		}
	}

	for delivery := range l.observer.Observe(ctx, plan) {
		if ctx.Err() != nil {
			// Left unacknowledged; the platform redelivers it.
			continue
		}
		l.handle(ctx, delivery)
	}
	logger.Debug("background delivery: stopped")
}

// handle syncs the delivery's resource and acknowledges it on every exit
// path except cancellation.
func (l *DeliveryLoop) handle(ctx context.Context, delivery domain.BackgroundDelivery) {
	defer func() {
		if ctx.Err() == nil {
			delivery.Acknowledge()
		}
	}()

	if err := l.syncer.Sync(ctx, delivery.Resource); err != nil {
		logger.Warn("background delivery: sync %s failed: %v", delivery.Resource, err)
	}
}
