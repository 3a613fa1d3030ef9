package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestProcessedData_Empty(t *testing.T) {
	var d ProcessedData
	assert.True(t, d.IsEmpty())
	assert.True(t, d.ShouldSkipPost())

	d.Samples = map[DataType][]QuantitySample{DataTypeStepCount: {}}
	assert.True(t, d.IsEmpty(), "empty sample slices do not count")

	d.Profile = &Profile{HeightCm: 180}
	assert.False(t, d.IsEmpty())
	assert.False(t, d.ShouldSkipPost())
	assert.Equal(t, 1, d.Count())

	d.SkipPost = true
	assert.True(t, d.ShouldSkipPost())
}

func TestProcessedData_Count(t *testing.T) {
	d := ProcessedData{
		Samples:  map[DataType][]QuantitySample{DataTypeStepCount: {{}, {}}, DataTypeVO2Max: {{}}},
		Workouts: []Workout{{ID: "w1"}},
		Sleeps:   []Sleep{{ID: "s1"}, {ID: "s2"}},
	}
	assert.Equal(t, 6, d.Count())
}

func TestAnchorKey(t *testing.T) {
	assert.Equal(t, "sleep/heart_rate", AnchorKey(ResourceSleep, DataTypeHeartRate))
}

func TestMostRecentSync(t *testing.T) {
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	_, ok := MostRecentSync()
	assert.False(t, ok)

	_, ok = MostRecentSync(time.Time{}, time.Time{})
	assert.False(t, ok)

	got, ok := MostRecentSync(base, base.Add(48*time.Hour), time.Time{}, base.Add(time.Hour))
	assert.True(t, ok)
	assert.Equal(t, base.Add(48*time.Hour), got)
}
