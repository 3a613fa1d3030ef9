package filestore

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/youngmin9/vitalsync/internal/core/domain"
)

func TestStore_Observe(t *testing.T) {
	s := newTestStore(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	events, err := s.Observe(ctx, domain.DataTypeStepCount)
	require.NoError(t, err)

	require.NoError(t, s.Append(domain.DataTypeHeartRate, sample(70, fixedNow)))
	require.NoError(t, s.Append(domain.DataTypeStepCount, sample(1200, fixedNow)))

	select {
	case ev := <-events:
		assert.Equal(t, domain.DataTypeStepCount, ev.DataType)
		require.NotNil(t, ev.Ack)
		ev.Ack()
	case <-time.After(2 * time.Second):
		t.Fatal("timeout waiting for change event")
	}
}

func TestStore_ObserveBatch_ProfileTypesShareFile(t *testing.T) {
	s := newTestStore(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	events, err := s.ObserveBatch(ctx, []domain.DataType{domain.DataTypeHeight, domain.DataTypeBodyMass})
	require.NoError(t, err)

	require.NoError(t, s.SetProfile(domain.Profile{HeightCm: 181}))

	select {
	case ev := <-events:
		assert.Equal(t, domain.DataTypeHeight, ev.DataType)
	case <-time.After(2 * time.Second):
		t.Fatal("timeout waiting for change event")
	}
}

func TestStore_Observe_ClosesOnCancel(t *testing.T) {
	s := newTestStore(t)
	ctx, cancel := context.WithCancel(context.Background())

	events, err := s.Observe(ctx, domain.DataTypeStepCount)
	require.NoError(t, err)
	cancel()

	deadline := time.After(2 * time.Second)
	for {
		select {
		case _, ok := <-events:
			if !ok {
				return
			}
		case <-deadline:
			t.Fatal("channel not closed after cancel")
		}
	}
}

func TestStore_Observe_Unavailable(t *testing.T) {
	s := New(t.TempDir() + "/missing")

	_, err := s.Observe(context.Background(), domain.DataTypeStepCount)
	assert.ErrorIs(t, err, domain.ErrPlatformUnavailable)
}
