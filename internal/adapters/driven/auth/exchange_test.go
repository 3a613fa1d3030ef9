package auth

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/youngmin9/vitalsync/internal/core/domain"
)

var sandboxEU = domain.Environment{Stage: domain.StageSandbox, Region: domain.RegionEU}

func TestHTTPExchanger_Exchange(t *testing.T) {
	srv := newTokenServer(t)
	now := time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC)
	ex := NewHTTPExchanger(WithExchangeBaseURL(srv.URL + "/"))
	ex.now = func() time.Time { return now }

	result, err := ex.Exchange(context.Background(), sandboxEU, signInTokenFor(t, testUser))
	require.NoError(t, err)

	assert.Equal(t, testUser, result.UserID)
	assert.Equal(t, "access-1", result.Tokens.AccessToken)
	assert.Equal(t, "refresh-1", result.Tokens.RefreshToken)
	assert.Equal(t, "Bearer", result.Tokens.TokenType)
	assert.Equal(t, now.Add(time.Hour), result.Tokens.Expiry)
	assert.Equal(t, 1, srv.signInCount())
}

func TestHTTPExchanger_Exchange_Rejected(t *testing.T) {
	srv := newTokenServer(t)
	srv.set(func(s *tokenServer) { s.signInStatus = http.StatusUnauthorized })
	ex := NewHTTPExchanger(WithExchangeBaseURL(srv.URL))

	_, err := ex.Exchange(context.Background(), sandboxEU, signInTokenFor(t, testUser))
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrAuth)

	var httpErr *domain.HTTPError
	require.True(t, errors.As(err, &httpErr))
	assert.Equal(t, http.StatusUnauthorized, httpErr.StatusCode)
}

func TestHTTPExchanger_Exchange_ServerError(t *testing.T) {
	srv := newTokenServer(t)
	srv.set(func(s *tokenServer) { s.signInStatus = http.StatusBadGateway })
	ex := NewHTTPExchanger(WithExchangeBaseURL(srv.URL))

	_, err := ex.Exchange(context.Background(), sandboxEU, signInTokenFor(t, testUser))
	assert.ErrorIs(t, err, domain.ErrNetwork)
	assert.NotErrorIs(t, err, domain.ErrAuth)
}
