package domain

import "fmt"

// Host setting keys, as stored in the host settings file.
const (
	SettingDataDir            = "storage.data_dir"
	SettingHealthDir          = "health.dir"
	SettingEnvironment        = "api.environment"
	SettingPushMode           = "sync.push_mode"
	SettingBackfillDays       = "sync.backfill_days"
	SettingBackgroundDelivery = "sync.background_delivery"
	SettingLogsEnabled        = "logs.enabled"
)

// SettingKeys lists every host setting key in display order.
func SettingKeys() []string {
	return []string{
		SettingDataDir,
		SettingHealthDir,
		SettingEnvironment,
		SettingPushMode,
		SettingBackfillDays,
		SettingBackgroundDelivery,
		SettingLogsEnabled,
	}
}

// HostSettings are the command-line host's own settings. They are kept
// apart from the SDK Configuration, which lives in the secure store once
// the SDK is configured.
type HostSettings struct {
	// DataDir holds the encrypted state database. Empty means the default
	// location under the user's home directory.
	DataDir string

	// HealthDir is the directory the file-backed health store reads.
	HealthDir string

	// Environment is used by configure and signin when no flag is given.
	Environment Environment

	PushMode           PushMode
	BackfillDays       int
	BackgroundDelivery bool
	LogsEnabled        bool
}

// DefaultHostSettings returns the settings used for keys never written.
func DefaultHostSettings() HostSettings {
	return HostSettings{
		Environment:  Environment{Stage: StageSandbox, Region: RegionUS},
		PushMode:     PushModeAutomatic,
		BackfillDays: DefaultBackfillDays,
		LogsEnabled:  true,
	}
}

// Configuration returns the SDK configuration these settings describe.
func (s HostSettings) Configuration() Configuration {
	return Configuration{
		BackgroundDeliveryEnabled: s.BackgroundDelivery,
		BackfillDays:              s.BackfillDays,
		LogsEnabled:               s.LogsEnabled,
		PushMode:                  s.PushMode,
	}.Normalised()
}

// Validate checks the settings for values the SDK would reject.
func (s HostSettings) Validate() error {
	if !s.Environment.IsValid() {
		return fmt.Errorf("%w: unknown environment %s", ErrInvalidInput, s.Environment)
	}
	if !s.PushMode.IsValid() {
		return fmt.Errorf("%w: unknown push mode %q", ErrInvalidInput, s.PushMode)
	}
	if s.BackfillDays < 1 || s.BackfillDays > MaxBackfillDays {
		return fmt.Errorf("%w: backfill days must be between 1 and %d", ErrInvalidInput, MaxBackfillDays)
	}
	return nil
}
