package services

import (
	"strconv"
	"strings"

	"github.com/cockroachdb/errors"

	"github.com/youngmin9/vitalsync/internal/core/domain"
	"github.com/youngmin9/vitalsync/internal/core/ports/driven"
	"github.com/youngmin9/vitalsync/internal/core/ports/driving"
)

// Ensure SettingsService implements the interface.
var _ driving.SettingsService = (*SettingsService)(nil)

// SettingsService manages the host settings on top of a ConfigStore.
type SettingsService struct {
	configStore driven.ConfigStore
}

// NewSettingsService creates a new settings service.
func NewSettingsService(configStore driven.ConfigStore) *SettingsService {
	return &SettingsService{configStore: configStore}
}

// Get retrieves the current settings. Stored values that no longer parse
// fall back to their defaults.
func (s *SettingsService) Get() (domain.HostSettings, error) {
	settings := domain.DefaultHostSettings()

	settings.DataDir = s.configStore.GetString(domain.SettingDataDir)
	settings.HealthDir = s.configStore.GetString(domain.SettingHealthDir)

	if raw := s.configStore.GetString(domain.SettingEnvironment); raw != "" {
		if env, err := domain.ParseEnvironmentName(raw); err == nil {
			settings.Environment = env
		}
	}
	if raw := s.configStore.GetString(domain.SettingPushMode); raw != "" {
		if mode, err := domain.ParsePushMode(raw); err == nil {
			settings.PushMode = mode
		}
	}
	if days := s.configStore.GetInt(domain.SettingBackfillDays); days > 0 {
		settings.BackfillDays = min(days, domain.MaxBackfillDays)
	}
	if _, ok := s.configStore.Get(domain.SettingBackgroundDelivery); ok {
		settings.BackgroundDelivery = s.configStore.GetBool(domain.SettingBackgroundDelivery)
	}
	if _, ok := s.configStore.Get(domain.SettingLogsEnabled); ok {
		settings.LogsEnabled = s.configStore.GetBool(domain.SettingLogsEnabled)
	}

	return settings, nil
}

// Set parses value for key and stores it.
func (s *SettingsService) Set(key, value string) error {
	value = strings.TrimSpace(value)

	var stored any
	switch key {
	case domain.SettingDataDir, domain.SettingHealthDir:
		stored = value

	case domain.SettingEnvironment:
		env, err := domain.ParseEnvironmentName(value)
		if err != nil {
			return err
		}
		stored = env.String()

	case domain.SettingPushMode:
		mode, err := domain.ParsePushMode(value)
		if err != nil {
			return err
		}
		stored = string(mode)

	case domain.SettingBackfillDays:
		days, err := strconv.Atoi(value)
		if err != nil || days < 1 || days > domain.MaxBackfillDays {
			return errors.Wrapf(domain.ErrInvalidInput,
				"%s must be a number between 1 and %d", key, domain.MaxBackfillDays)
		}
		stored = days

	case domain.SettingBackgroundDelivery, domain.SettingLogsEnabled:
		b, err := strconv.ParseBool(value)
		if err != nil {
			return errors.Wrapf(domain.ErrInvalidInput, "%s must be true or false", key)
		}
		stored = b

	default:
		return errors.WithHint(
			errors.Wrapf(domain.ErrInvalidInput, "unknown setting %q", key),
			"known settings: "+strings.Join(domain.SettingKeys(), ", "),
		)
	}

	if err := s.configStore.Set(key, stored); err != nil {
		return errors.Wrapf(err, "save %s", key)
	}
	return nil
}

// Reset removes a stored setting.
func (s *SettingsService) Reset(key string) error {
	if !isSettingKey(key) {
		return errors.Wrapf(domain.ErrInvalidInput, "unknown setting %q", key)
	}
	return errors.Wrapf(s.configStore.Unset(key), "reset %s", key)
}

// Lookup returns the effective value of key as displayed to the user.
func (s *SettingsService) Lookup(key string) (string, bool, error) {
	if !isSettingKey(key) {
		return "", false, errors.Wrapf(domain.ErrInvalidInput, "unknown setting %q", key)
	}
	settings, err := s.Get()
	if err != nil {
		return "", false, err
	}
	_, stored := s.configStore.Get(key)

	switch key {
	case domain.SettingDataDir:
		return settings.DataDir, stored, nil
	case domain.SettingHealthDir:
		return settings.HealthDir, stored, nil
	case domain.SettingEnvironment:
		return settings.Environment.String(), stored, nil
	case domain.SettingPushMode:
		return string(settings.PushMode), stored, nil
	case domain.SettingBackfillDays:
		return strconv.Itoa(settings.BackfillDays), stored, nil
	case domain.SettingBackgroundDelivery:
		return strconv.FormatBool(settings.BackgroundDelivery), stored, nil
	default:
		return strconv.FormatBool(settings.LogsEnabled), stored, nil
	}
}

// GetDefaults returns default settings.
func (s *SettingsService) GetDefaults() domain.HostSettings {
	return domain.DefaultHostSettings()
}

// Path returns the settings file path.
func (s *SettingsService) Path() string {
	return s.configStore.Path()
}

func isSettingKey(key string) bool {
	for _, k := range domain.SettingKeys() {
		if k == key {
			return true
		}
	}
	return false
}
