package domain

import (
	"fmt"
	"strings"
)

const (
	// MaxBackfillDays caps the historical window.
	MaxBackfillDays = 90

	// DefaultBackfillDays is used when a configuration leaves it unset.
	DefaultBackfillDays = 30
)

// PushMode controls whether synced data is pushed to the remote API.
type PushMode string

// Push modes.
const (
	// PushModeAutomatic pushes every non-empty read to the remote API.
	PushModeAutomatic PushMode = "automatic"

	// PushModeManual skips the network call; local bookkeeping still advances.
	PushModeManual PushMode = "manual"
)

// IsValid returns true if the push mode is recognised.
func (m PushMode) IsValid() bool {
	return m == PushModeAutomatic || m == PushModeManual
}

// ParsePushMode parses a push mode name.
func ParsePushMode(s string) (PushMode, error) {
	m := PushMode(strings.ToLower(strings.TrimSpace(s)))
	if !m.IsValid() {
		return "", fmt.Errorf("%w: unknown push mode %q", ErrInvalidInput, s)
	}
	return m, nil
}

// Configuration is the immutable SDK configuration supplied by the host.
type Configuration struct {
	BackgroundDeliveryEnabled bool     `json:"background_delivery_enabled"`
	BackfillDays              int      `json:"backfill_days"`
	LogsEnabled               bool     `json:"logs_enabled"`
	PushMode                  PushMode `json:"push_mode"`
}

// DefaultConfiguration returns the configuration used when the host does
// not override anything.
func DefaultConfiguration() Configuration {
	return Configuration{
		BackfillDays: DefaultBackfillDays,
		LogsEnabled:  true,
		PushMode:     PushModeAutomatic,
	}
}

// EffectiveBackfillDays returns the backfill window clamped to [1, MaxBackfillDays].
func (c Configuration) EffectiveBackfillDays() int {
	switch {
	case c.BackfillDays <= 0:
		return DefaultBackfillDays
	case c.BackfillDays > MaxBackfillDays:
		return MaxBackfillDays
	default:
		return c.BackfillDays
	}
}

// EffectivePushMode returns the push mode, defaulting to automatic.
func (c Configuration) EffectivePushMode() PushMode {
	if !c.PushMode.IsValid() {
		return PushModeAutomatic
	}
	return c.PushMode
}

// Normalised returns a copy with defaults and caps applied.
func (c Configuration) Normalised() Configuration {
	c.BackfillDays = c.EffectiveBackfillDays()
	c.PushMode = c.EffectivePushMode()
	return c
}
