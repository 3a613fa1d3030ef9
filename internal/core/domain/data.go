package domain

import "time"

// QuantitySample is a single numeric health record.
type QuantitySample struct {
	ID        string    `json:"id,omitempty"`
	Value     float64   `json:"value"`
	Unit      string    `json:"unit,omitempty"`
	StartDate time.Time `json:"start_date"`
	EndDate   time.Time `json:"end_date"`
	Source    string    `json:"source,omitempty"`
}

// Profile is a point-in-time snapshot of user characteristics.
type Profile struct {
	BiologicalSex string     `json:"biological_sex,omitempty"`
	DateOfBirth   *time.Time `json:"date_of_birth,omitempty"`
	HeightCm      float64    `json:"height_cm,omitempty"`
}

// Workout is a workout session with the continuous metrics recorded during it.
type Workout struct {
	ID              string           `json:"id"`
	Sport           string           `json:"sport"`
	StartDate       time.Time        `json:"start_date"`
	EndDate         time.Time        `json:"end_date"`
	Calories        float64          `json:"calories,omitempty"`
	DistanceMeters  float64          `json:"distance_meters,omitempty"`
	HeartRate       []QuantitySample `json:"heart_rate,omitempty"`
	RespiratoryRate []QuantitySample `json:"respiratory_rate,omitempty"`
}

// Sleep is a sleep session with the continuous metrics recorded during it.
type Sleep struct {
	ID                   string           `json:"id"`
	StartDate            time.Time        `json:"start_date"`
	EndDate              time.Time        `json:"end_date"`
	HeartRate            []QuantitySample `json:"heart_rate,omitempty"`
	HeartRateVariability []QuantitySample `json:"heart_rate_variability,omitempty"`
	OxygenSaturation     []QuantitySample `json:"oxygen_saturation,omitempty"`
	RespiratoryRate      []QuantitySample `json:"respiratory_rate,omitempty"`
}

// ProcessedData is the payload read for one resource.
type ProcessedData struct {
	Profile  *Profile                      `json:"profile,omitempty"`
	Samples  map[DataType][]QuantitySample `json:"samples,omitempty"`
	Workouts []Workout                     `json:"workouts,omitempty"`
	Sleeps   []Sleep                       `json:"sleeps,omitempty"`

	// SkipPost is set by the reader when the payload must not be pushed
	// even though it is not strictly empty.
	SkipPost bool `json:"-"`
}

// Count returns the number of top-level records.
func (d ProcessedData) Count() int {
	n := len(d.Workouts) + len(d.Sleeps)
	if d.Profile != nil {
		n++
	}
	for _, samples := range d.Samples {
		n += len(samples)
	}
	return n
}

// IsEmpty reports whether there is nothing in the payload.
func (d ProcessedData) IsEmpty() bool {
	return d.Count() == 0
}

// ShouldSkipPost reports whether the payload must not be pushed.
func (d ProcessedData) ShouldSkipPost() bool {
	return d.SkipPost || d.IsEmpty()
}

// CursorUpdate is a resumption anchor for one underlying data type.
type CursorUpdate struct {
	Key      string
	Anchor   string
	SyncedAt time.Time
}

// AnchorKey returns the sync-state key for a data type of a resource.
func AnchorKey(r Resource, dt DataType) string {
	return string(r) + "/" + string(dt)
}

// ReadResult is what the health store returns for one resource read.
// Data is nil when nothing was found.
type ReadResult struct {
	Data    *ProcessedData
	Cursors []CursorUpdate
}

// MostRecentSync returns the latest of the given per-data-type sync times.
// A resource backed by several data types reports its freshest one, which
// can hide a stale sub-type.
func MostRecentSync(times ...time.Time) (time.Time, bool) {
	var latest time.Time
	found := false
	for _, t := range times {
		if t.IsZero() {
			continue
		}
		if !found || t.After(latest) {
			latest = t
			found = true
		}
	}
	return latest, found
}

// WriteInput is a single value written back to the platform store.
type WriteInput struct {
	Resource WritableResource
	Value    float64
	Unit     string
}
