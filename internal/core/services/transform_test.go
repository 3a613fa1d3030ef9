package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/youngmin9/vitalsync/internal/core/domain"
)

func TestAverageHourly(t *testing.T) {
	base := time.Date(2024, 3, 2, 22, 0, 0, 0, time.UTC)
	samples := []domain.QuantitySample{
		{Value: 60, Unit: "bpm", StartDate: base.Add(50 * time.Minute)},
		{Value: 50, Unit: "bpm", StartDate: base.Add(5 * time.Minute)},
		{Value: 70, Unit: "bpm", StartDate: base.Add(65 * time.Minute)},
		{Value: 80, Unit: "bpm", StartDate: base.Add(70 * time.Minute)},
	}

	got := AverageHourly(samples, time.UTC)

	require.Len(t, got, 2)
	assert.Equal(t, base, got[0].StartDate)
	assert.Equal(t, base.Add(time.Hour), got[0].EndDate)
	assert.InDelta(t, 55.0, got[0].Value, 1e-9)
	assert.Equal(t, "bpm", got[0].Unit)

	assert.Equal(t, base.Add(time.Hour), got[1].StartDate)
	assert.InDelta(t, 75.0, got[1].Value, 1e-9)
}

func TestAverageHourly_AlignsToLocalWallClock(t *testing.T) {
	// +05:30 offset: 10:15 UTC is 15:45 local, bucket starts 15:00 local.
	loc := time.FixedZone("IST", 5*3600+1800)
	sample := domain.QuantitySample{Value: 97, StartDate: time.Date(2024, 1, 1, 10, 15, 0, 0, time.UTC)}

	got := AverageHourly([]domain.QuantitySample{sample}, loc)

	require.Len(t, got, 1)
	assert.Equal(t, time.Date(2024, 1, 1, 15, 0, 0, 0, loc), got[0].StartDate)
	assert.True(t, got[0].StartDate.Equal(time.Date(2024, 1, 1, 9, 30, 0, 0, time.UTC)))
}

func TestAverageHourly_Empty(t *testing.T) {
	assert.Nil(t, AverageHourly(nil, time.UTC))
}

func TestTransform_AveragesWorkoutAndSleepMetrics(t *testing.T) {
	start := time.Date(2024, 3, 2, 6, 0, 0, 0, time.UTC)
	hr := []domain.QuantitySample{
		{Value: 120, StartDate: start.Add(time.Minute)},
		{Value: 140, StartDate: start.Add(2 * time.Minute)},
	}
	in := domain.ProcessedData{
		Workouts: []domain.Workout{{ID: "w1", Sport: "running", StartDate: start, EndDate: start.Add(30 * time.Minute), HeartRate: hr}},
		Sleeps: []domain.Sleep{{
			ID:               "s1",
			OxygenSaturation: []domain.QuantitySample{{Value: 0.97, StartDate: start}, {Value: 0.95, StartDate: start.Add(time.Minute)}},
		}},
		Samples: map[domain.DataType][]domain.QuantitySample{domain.DataTypeStepCount: {{Value: 100, StartDate: start}}},
	}

	out := Transform(in, time.UTC)

	require.Len(t, out.Workouts, 1)
	require.Len(t, out.Workouts[0].HeartRate, 1)
	assert.InDelta(t, 130.0, out.Workouts[0].HeartRate[0].Value, 1e-9)
	assert.Equal(t, "running", out.Workouts[0].Sport)

	require.Len(t, out.Sleeps[0].OxygenSaturation, 1)
	assert.InDelta(t, 0.96, out.Sleeps[0].OxygenSaturation[0].Value, 1e-9)

	assert.Equal(t, in.Samples, out.Samples, "plain samples pass through")

	// Input untouched.
	assert.Len(t, in.Workouts[0].HeartRate, 2)
	out.Samples[domain.DataTypeStepCount][0].Value = 1
	assert.Equal(t, 100.0, in.Samples[domain.DataTypeStepCount][0].Value)
}

func TestTransform_CopiesProfile(t *testing.T) {
	in := domain.ProcessedData{Profile: &domain.Profile{HeightCm: 180}}

	out := Transform(in, nil)

	require.NotNil(t, out.Profile)
	out.Profile.HeightCm = 1
	assert.Equal(t, 180.0, in.Profile.HeightCm)
}
