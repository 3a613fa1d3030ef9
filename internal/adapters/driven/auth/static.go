package auth

import (
	"context"

	"github.com/cockroachdb/errors"

	"github.com/youngmin9/vitalsync/internal/core/domain"
	"github.com/youngmin9/vitalsync/internal/core/ports/driven"
)

// APIKeyHeader carries the static API key.
const APIKeyHeader = "X-Vital-API-Key"

// Ensure StaticKey implements the AuthStrategy interface.
var _ driven.AuthStrategy = (*StaticKey)(nil)

// StaticKey provides a fixed API key. Keys don't expire and don't require
// refresh.
type StaticKey struct {
	key string
}

// NewStaticKey creates a strategy for key.
func NewStaticKey(key string) *StaticKey {
	return &StaticKey{key: key}
}

// Credential returns the API key header.
func (s *StaticKey) Credential(context.Context) (domain.Credential, error) {
	if s.key == "" {
		return domain.Credential{}, errors.Wrap(domain.ErrAuth, "api key is empty")
	}
	return domain.Credential{Header: APIKeyHeader, Value: s.key}, nil
}

// Kind returns AuthModeAPIKey.
func (*StaticKey) Kind() domain.AuthModeKind {
	return domain.AuthModeAPIKey
}
