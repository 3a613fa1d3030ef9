package auth

import (
	"context"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/youngmin9/vitalsync/internal/adapters/driven/storage/memory"
	"github.com/youngmin9/vitalsync/internal/core/domain"
)

func newTestRotatingToken(t *testing.T, srv *tokenServer, store *memory.SecureStore) *RotatingToken {
	t.Helper()
	return NewRotatingToken(store, NewHTTPExchanger(WithExchangeBaseURL(srv.URL)), WithBaseURL(srv.URL))
}

func TestRotatingToken_SignIn(t *testing.T) {
	srv := newTokenServer(t)
	store := memory.NewSecureStore()
	r := newTestRotatingToken(t, srv, store)
	ctx := context.Background()

	assert.True(t, r.NeedsReauthentication(ctx))
	_, err := r.Credential(ctx)
	assert.ErrorIs(t, err, domain.ErrReauthenticationRequired)

	result, err := r.SignIn(ctx, signInTokenFor(t, testUser))
	require.NoError(t, err)
	assert.Equal(t, domain.SignInResult{UserID: testUser, Environment: sandboxEU}, result)

	userID, err := r.CurrentUserID(ctx)
	require.NoError(t, err)
	assert.Equal(t, testUser, userID)
	assert.False(t, r.NeedsReauthentication(ctx))

	cred, err := r.Credential(ctx)
	require.NoError(t, err)
	assert.Equal(t, domain.Credential{Header: "Authorization", Value: "Bearer access-1"}, cred)

	_, err = store.Get(ctx, "jwt_auth")
	assert.NoError(t, err, "session persisted")
}

func TestRotatingToken_SignIn_SameUserIsNoop(t *testing.T) {
	srv := newTokenServer(t)
	r := newTestRotatingToken(t, srv, memory.NewSecureStore())
	ctx := context.Background()

	_, err := r.SignIn(ctx, signInTokenFor(t, testUser))
	require.NoError(t, err)
	_, err = r.SignIn(ctx, signInTokenFor(t, testUser))
	require.NoError(t, err)

	assert.Equal(t, 1, srv.signInCount())
}

func TestRotatingToken_SignIn_OtherUser(t *testing.T) {
	srv := newTokenServer(t)
	r := newTestRotatingToken(t, srv, memory.NewSecureStore())
	ctx := context.Background()

	_, err := r.SignIn(ctx, signInTokenFor(t, testUser))
	require.NoError(t, err)

	_, err = r.SignIn(ctx, signInTokenFor(t, otherUser))
	assert.ErrorIs(t, err, domain.ErrUserMismatch)
	assert.Equal(t, 1, srv.signInCount())
}

func TestRotatingToken_Credential_RefreshesNearExpiry(t *testing.T) {
	srv := newTokenServer(t)
	srv.set(func(s *tokenServer) { s.signInExpires = 30 })
	r := newTestRotatingToken(t, srv, memory.NewSecureStore())
	ctx := context.Background()

	_, err := r.SignIn(ctx, signInTokenFor(t, testUser))
	require.NoError(t, err)

	cred, err := r.Credential(ctx)
	require.NoError(t, err)
	assert.Equal(t, "Bearer access-2", cred.Value)
	assert.Equal(t, []string{"refresh-1"}, srv.refreshTokens())

	// The refreshed token is good for an hour.
	cred, err = r.Credential(ctx)
	require.NoError(t, err)
	assert.Equal(t, "Bearer access-2", cred.Value)
	assert.Len(t, srv.refreshTokens(), 1)
}

func TestRotatingToken_Credential_ConcurrentCallersShareRefresh(t *testing.T) {
	srv := newTokenServer(t)
	srv.set(func(s *tokenServer) { s.signInExpires = 10 })
	r := newTestRotatingToken(t, srv, memory.NewSecureStore())
	ctx := context.Background()

	_, err := r.SignIn(ctx, signInTokenFor(t, testUser))
	require.NoError(t, err)

	var wg sync.WaitGroup
	for range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			cred, err := r.Credential(ctx)
			assert.NoError(t, err)
			assert.Equal(t, "Bearer access-2", cred.Value)
		}()
	}
	wg.Wait()

	assert.Len(t, srv.refreshTokens(), 1)
}

func TestRotatingToken_Refresh_RejectedExhaustsSession(t *testing.T) {
	srv := newTokenServer(t)
	r := newTestRotatingToken(t, srv, memory.NewSecureStore())
	ctx := context.Background()

	_, err := r.SignIn(ctx, signInTokenFor(t, testUser))
	require.NoError(t, err)

	requests, unsubscribe := r.ReauthenticationRequests()
	defer unsubscribe()

	srv.set(func(s *tokenServer) { s.refreshStatus = http.StatusUnauthorized })
	err = r.Refresh(ctx)
	assert.ErrorIs(t, err, domain.ErrAuth)

	select {
	case <-requests:
	case <-time.After(time.Second):
		t.Fatal("no reauthentication signal")
	}
	assert.True(t, r.NeedsReauthentication(ctx))
	_, err = r.Credential(ctx)
	assert.ErrorIs(t, err, domain.ErrReauthenticationRequired)

	// The user is kept so the host can fetch a token for them.
	userID, err := r.CurrentUserID(ctx)
	require.NoError(t, err)
	assert.Equal(t, testUser, userID)

	// Signing in again for the same user repairs the session.
	_, err = r.SignIn(ctx, signInTokenFor(t, testUser))
	require.NoError(t, err)
	assert.Equal(t, 2, srv.signInCount())
	assert.False(t, r.NeedsReauthentication(ctx))
}

func TestRotatingToken_Credential_ExhaustedSessionSignalsAgain(t *testing.T) {
	srv := newTokenServer(t)
	r := newTestRotatingToken(t, srv, memory.NewSecureStore())
	ctx := context.Background()

	_, err := r.SignIn(ctx, signInTokenFor(t, testUser))
	require.NoError(t, err)

	requests, unsubscribe := r.ReauthenticationRequests()
	defer unsubscribe()

	srv.set(func(s *tokenServer) { s.refreshStatus = http.StatusUnauthorized })
	require.ErrorIs(t, r.Refresh(ctx), domain.ErrAuth)
	<-requests

	// A listener that missed the exhaustion still hears about it on the
	// next protected call.
	_, err = r.Credential(ctx)
	assert.ErrorIs(t, err, domain.ErrReauthenticationRequired)
	select {
	case <-requests:
	case <-time.After(time.Second):
		t.Fatal("no reauthentication signal from Credential")
	}

	assert.ErrorIs(t, r.Refresh(ctx), domain.ErrReauthenticationRequired)
	select {
	case <-requests:
	case <-time.After(time.Second):
		t.Fatal("no reauthentication signal from Refresh")
	}
}

func TestRotatingToken_Credential_SignedOutSignals(t *testing.T) {
	srv := newTokenServer(t)
	r := newTestRotatingToken(t, srv, memory.NewSecureStore())

	requests, unsubscribe := r.ReauthenticationRequests()
	defer unsubscribe()

	_, err := r.Credential(context.Background())
	assert.ErrorIs(t, err, domain.ErrReauthenticationRequired)
	select {
	case <-requests:
	case <-time.After(time.Second):
		t.Fatal("no reauthentication signal")
	}
}

func TestRotatingToken_Refresh_ServerErrorKeepsSession(t *testing.T) {
	srv := newTokenServer(t)
	r := newTestRotatingToken(t, srv, memory.NewSecureStore())
	ctx := context.Background()

	_, err := r.SignIn(ctx, signInTokenFor(t, testUser))
	require.NoError(t, err)

	srv.set(func(s *tokenServer) { s.refreshStatus = http.StatusServiceUnavailable })
	err = r.Refresh(ctx)
	assert.ErrorIs(t, err, domain.ErrNetwork)
	assert.NotErrorIs(t, err, domain.ErrAuth)
	assert.False(t, r.NeedsReauthentication(ctx))
}

func TestRotatingToken_RestoresAcrossRestart(t *testing.T) {
	srv := newTokenServer(t)
	store := memory.NewSecureStore()
	ctx := context.Background()

	_, err := newTestRotatingToken(t, srv, store).SignIn(ctx, signInTokenFor(t, testUser))
	require.NoError(t, err)

	restarted := newTestRotatingToken(t, srv, store)
	userID, err := restarted.CurrentUserID(ctx)
	require.NoError(t, err)
	assert.Equal(t, testUser, userID)

	require.NoError(t, restarted.SignOut(ctx))
	assert.True(t, restarted.NeedsReauthentication(ctx))
	_, err = store.Get(ctx, "jwt_auth")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestRotatingToken_CorruptedSessionIsSignedOut(t *testing.T) {
	srv := newTokenServer(t)
	store := memory.NewSecureStore()
	ctx := context.Background()
	require.NoError(t, store.Set(ctx, "jwt_auth", []byte("{")))

	r := newTestRotatingToken(t, srv, store)

	assert.True(t, r.NeedsReauthentication(ctx))
	userID, err := r.CurrentUserID(ctx)
	require.NoError(t, err)
	assert.Empty(t, userID)
}
