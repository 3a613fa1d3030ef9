package driving

import "github.com/youngmin9/vitalsync/internal/core/domain"

// SettingsService manages the host settings.
type SettingsService interface {
	// Get returns the current settings with defaults for unset keys.
	Get() (domain.HostSettings, error)

	// Set parses and stores a single setting by key.
	Set(key, value string) error

	// Reset removes a stored setting so its default applies again.
	Reset(key string) error

	// Lookup returns the displayed value of one setting and whether it
	// was explicitly stored.
	Lookup(key string) (value string, stored bool, err error)

	// GetDefaults returns default settings.
	GetDefaults() domain.HostSettings

	// Path returns where the settings are stored.
	Path() string
}
