package services

import (
	"context"
	"sync"

	"github.com/youngmin9/vitalsync/internal/core/domain"
	"github.com/youngmin9/vitalsync/internal/core/ports/driven"
	"github.com/youngmin9/vitalsync/internal/logger"
)

// ChangeObserver merges platform change notifications for a set of
// resources into one stream of background deliveries.
type ChangeObserver struct {
	health driven.HealthStore
}

// NewChangeObserver creates an observer over health.
func NewChangeObserver(health driven.HealthStore) *ChangeObserver {
	return &ChangeObserver{health: health}
}

// Observe registers the watches for plan and returns the merged stream.
// A watch that fails to register or later stops is logged; the other
// watches keep running. If the batch watch cannot be registered each data
// type is watched on its own. Once ctx is done no further deliveries are
// sent, and the stream is closed only after every watch has been torn down.
func (o *ChangeObserver) Observe(ctx context.Context, plan domain.ObservationPlan) <-chan domain.BackgroundDelivery {
	owners := plan.Owners()
	dataTypes := plan.DataTypes()

	var sources []<-chan domain.ChangeEvent
	batched := false
	if batch, ok := o.health.(driven.BatchObserver); ok && len(dataTypes) > 0 {
		ch, err := batch.ObserveBatch(ctx, dataTypes)
		if err != nil {
			logger.Warn("observer: batch watch for %d data types failed, watching each type: %v", len(dataTypes), err)
		} else {
			sources = append(sources, ch)
			batched = true
		}
	}
	if !batched {
		for _, dt := range dataTypes {
			ch, err := o.health.Observe(ctx, dt)
			if err != nil {
				logger.Error("observer: watch for %s failed: %v", dt, err)
				continue
			}
			sources = append(sources, ch)
		}
	}

	out := make(chan domain.BackgroundDelivery)
	var wg sync.WaitGroup
	for _, src := range sources {
		wg.Add(1)
		go func(src <-chan domain.ChangeEvent) {
			defer wg.Done()
			o.forward(ctx, src, owners, out)
		}(src)
	}
	go func() {
		wg.Wait()
		close(out)
	}()

	logger.Debug("observer: %d watches for %d resources", len(sources), len(plan))
	return out
}

func (o *ChangeObserver) forward(
	ctx context.Context,
	src <-chan domain.ChangeEvent,
	owners map[domain.DataType]domain.Resource,
	out chan<- domain.BackgroundDelivery,
) {
	// Wait for the source to close so teardown completes before out closes.
	defer func() {
		for range src {
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-src:
			if !ok {
				if ctx.Err() == nil {
					logger.Warn("observer: watch stopped")
				}
				return
			}
			resource, known := owners[ev.DataType]
			if !known {
				if ev.Ack != nil {
					ev.Ack()
				}
				continue
			}
			if ctx.Err() != nil {
				return
			}
			select {
			case out <- domain.NewBackgroundDelivery(resource, ev.Ack):
			case <-ctx.Done():
				return
			}
		}
	}
}
