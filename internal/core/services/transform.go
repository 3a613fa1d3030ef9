package services

import (
	"maps"
	"slices"
	"time"

	"github.com/youngmin9/vitalsync/internal/core/domain"
)

// Transform shapes a read payload for the remote API. Continuous metrics
// recorded during workouts and sleeps are averaged into hourly buckets
// aligned to the wall clock in loc. The input is not modified.
func Transform(data domain.ProcessedData, loc *time.Location) domain.ProcessedData {
	if loc == nil {
		loc = time.UTC
	}

	out := domain.ProcessedData{
		SkipPost: data.SkipPost,
	}
	if data.Profile != nil {
		p := *data.Profile
		out.Profile = &p
	}
	if data.Samples != nil {
		out.Samples = make(map[domain.DataType][]domain.QuantitySample, len(data.Samples))
		for dt, samples := range data.Samples {
			out.Samples[dt] = slices.Clone(samples)
		}
	}

	for _, w := range data.Workouts {
		w.HeartRate = AverageHourly(w.HeartRate, loc)
		w.RespiratoryRate = AverageHourly(w.RespiratoryRate, loc)
		out.Workouts = append(out.Workouts, w)
	}
	for _, s := range data.Sleeps {
		s.HeartRate = AverageHourly(s.HeartRate, loc)
		s.HeartRateVariability = AverageHourly(s.HeartRateVariability, loc)
		s.OxygenSaturation = AverageHourly(s.OxygenSaturation, loc)
		s.RespiratoryRate = AverageHourly(s.RespiratoryRate, loc)
		out.Sleeps = append(out.Sleeps, s)
	}
	return out
}

// AverageHourly groups samples by the calendar hour they start in and
// returns one averaged sample per hour, in chronological order.
func AverageHourly(samples []domain.QuantitySample, loc *time.Location) []domain.QuantitySample {
	if len(samples) == 0 {
		return nil
	}

	type bucket struct {
		sum   float64
		count int
		first domain.QuantitySample
	}
	buckets := make(map[time.Time]*bucket)
	for _, s := range samples {
		t := s.StartDate.In(loc)
		hour := time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), 0, 0, 0, loc)
		b, ok := buckets[hour]
		if !ok {
			b = &bucket{first: s}
			buckets[hour] = b
		}
		b.sum += s.Value
		b.count++
	}

	hours := slices.SortedFunc(maps.Keys(buckets), func(a, b time.Time) int { return a.Compare(b) })
	out := make([]domain.QuantitySample, 0, len(hours))
	for _, hour := range hours {
		b := buckets[hour]
		out = append(out, domain.QuantitySample{
			Value:     b.sum / float64(b.count),
			Unit:      b.first.Unit,
			StartDate: hour,
			EndDate:   hour.Add(time.Hour),
			Source:    b.first.Source,
		})
	}
	return out
}
