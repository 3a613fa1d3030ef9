package domain

import (
	"fmt"
	"time"
)

// StageKind discriminates Stage values.
type StageKind string

// Stage kinds.
const (
	// StageKindDaily marks an incremental sync.
	StageKindDaily StageKind = "daily"

	// StageKindHistorical marks a bulk backfill over a fixed window.
	StageKindHistorical StageKind = "historical"
)

// Stage is the sync mode label attached to every push so the backend can
// distinguish bulk backfill from incremental updates. The zero value is
// a daily stage.
type Stage struct {
	kind  StageKind
	start time.Time
	end   time.Time
}

// DailyStage returns the incremental stage.
func DailyStage() Stage {
	return Stage{kind: StageKindDaily}
}

// HistoricalStage returns a backfill stage covering [start, end].
func HistoricalStage(start, end time.Time) Stage {
	return Stage{kind: StageKindHistorical, start: start, end: end}
}

// Kind returns the stage kind.
func (s Stage) Kind() StageKind {
	if s.kind == "" {
		return StageKindDaily
	}
	return s.kind
}

// IsDaily reports whether this is the incremental stage.
func (s Stage) IsDaily() bool {
	return s.Kind() == StageKindDaily
}

// Window returns the backfill window. ok is false for daily stages.
func (s Stage) Window() (start, end time.Time, ok bool) {
	if s.IsDaily() {
		return time.Time{}, time.Time{}, false
	}
	return s.start, s.end, true
}

// String returns a human-readable label.
func (s Stage) String() string {
	if s.IsDaily() {
		return string(StageKindDaily)
	}
	return fmt.Sprintf("%s(%s, %s)", StageKindHistorical,
		s.start.Format(time.RFC3339), s.end.Format(time.RFC3339))
}
