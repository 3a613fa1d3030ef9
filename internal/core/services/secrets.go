package services

import (
	"context"
	"encoding/json"

	"github.com/cockroachdb/errors"

	"github.com/youngmin9/vitalsync/internal/core/domain"
	"github.com/youngmin9/vitalsync/internal/core/ports/driven"
	"github.com/youngmin9/vitalsync/internal/logger"
)

// Secure-store keys owned by the client.
const (
	keyCoreSecrets = "core_secrets"
	keyUserID      = "user_id"

	coreAPIVersion = "v2"
)

// coreSecrets is what Restore needs to rebuild a session after restart.
type coreSecrets struct {
	Configuration domain.Configuration `json:"configuration"`
	APIVersion    string               `json:"api_version"`
	Strategy      persistedStrategy    `json:"strategy"`
}

type persistedStrategy struct {
	Mode        domain.AuthModeKind `json:"mode"`
	APIKey      string              `json:"api_key,omitempty"`
	Environment domain.Environment  `json:"environment"`
}

func strategyFromMode(mode domain.AuthMode) persistedStrategy {
	s := persistedStrategy{Mode: mode.Kind(), Environment: mode.Env()}
	if m, ok := mode.(domain.APIKeyMode); ok {
		s.APIKey = m.Key
	}
	return s
}

func (s persistedStrategy) authMode() (domain.AuthMode, error) {
	switch s.Mode {
	case domain.AuthModeAPIKey:
		return domain.APIKeyMode{Key: s.APIKey, Environment: s.Environment}, nil
	case domain.AuthModeJWT:
		return domain.JWTMode{Environment: s.Environment}, nil
	default:
		return nil, errors.Wrapf(domain.ErrStorageCorrupted, "unknown auth mode %q", s.Mode)
	}
}

// readSecret decodes the JSON blob under key. Absent and corrupted blobs
// both report found=false; corruption is logged and never fatal.
func readSecret[T any](ctx context.Context, store driven.SecureStore, key string) (T, bool, error) {
	var v T
	raw, err := store.Get(ctx, key)
	switch {
	case errors.Is(err, domain.ErrNotFound):
		return v, false, nil
	case errors.Is(err, domain.ErrStorageCorrupted):
		logger.Warn("secure store: %s is corrupted, treating as absent: %v", key, err)
		return v, false, nil
	case err != nil:
		return v, false, errors.Wrapf(err, "read %s", key)
	}

	if err := json.Unmarshal(raw, &v); err != nil {
		logger.Warn("secure store: %s cannot be decoded, treating as absent: %v", key, err)
		var zero T
		return zero, false, nil
	}
	return v, true, nil
}

// writeSecret stores v as JSON under key.
func writeSecret(ctx context.Context, store driven.SecureStore, key string, v any) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return errors.Wrapf(err, "encode %s", key)
	}
	if err := store.Set(ctx, key, raw); err != nil {
		return errors.Wrapf(err, "write %s", key)
	}
	return nil
}
