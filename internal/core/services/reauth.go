package services

import (
	"context"
	"sync"

	"github.com/youngmin9/vitalsync/internal/core/ports/driving"
	"github.com/youngmin9/vitalsync/internal/logger"
)

// reauthTarget is the session state the monitor inspects and repairs.
type reauthTarget interface {
	// apiKeyUser returns the API-key mode user, or "" when the active
	// session is not in API-key mode.
	apiKeyUser(ctx context.Context) string

	// sessionUser returns the JWT session user, or "".
	sessionUser(ctx context.Context) string

	// needsReauthentication is true only in JWT mode.
	needsReauthentication(ctx context.Context) bool

	// signInWithToken signs in and re-derives the auth strategy.
	signInWithToken(ctx context.Context, token string) error

	// reauthenticationRequests subscribes to staleness signals.
	reauthenticationRequests() (<-chan struct{}, func())
}

// ReauthenticationMonitor asks the host for a fresh sign-in token whenever
// the rotating session goes stale. Every attempt is fail-soft.
type ReauthenticationMonitor struct {
	target reauthTarget

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

func newReauthenticationMonitor(target reauthTarget) *ReauthenticationMonitor {
	return &ReauthenticationMonitor{target: target}
}

// Start replaces any running monitor with one using fetch.
func (m *ReauthenticationMonitor) Start(parent context.Context, fetch driving.TokenFetcher) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.stopLocked()

	ctx, cancel := context.WithCancel(parent)
	done := make(chan struct{})
	m.cancel = cancel
	m.done = done

	// Subscribe before the first checks so no signal is missed.
	requests, unsubscribe := m.target.reauthenticationRequests()
	go func() {
		defer close(done)
		defer unsubscribe()
		m.run(ctx, fetch, requests)
	}()
}

// Stop cancels the monitor and waits for it to exit.
func (m *ReauthenticationMonitor) Stop() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.stopLocked()
}

// Running reports whether a monitor is active.
func (m *ReauthenticationMonitor) Running() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.cancel != nil
}

func (m *ReauthenticationMonitor) stopLocked() {
	if m.cancel == nil {
		return
	}
	m.cancel()
	<-m.done
	m.cancel = nil
	m.done = nil
}

func (m *ReauthenticationMonitor) run(ctx context.Context, fetch driving.TokenFetcher, requests <-chan struct{}) {
	// (a) One-time migration of an API-key session to a user session.
	if userID := m.target.apiKeyUser(ctx); userID != "" {
		logger.Info("reauth: attempting migration of API-key user %s", userID)
		m.attempt(ctx, fetch, userID)
	}

	// (b) Repair a stale session found at start.
	if m.target.needsReauthentication(ctx) {
		m.attempt(ctx, fetch, m.target.sessionUser(ctx))
	}

	// (c) Repair on demand.
	for {
		select {
		case <-ctx.Done():
			return
		case _, ok := <-requests:
			if !ok {
				return
			}
			if !m.target.needsReauthentication(ctx) {
				continue
			}
			m.attempt(ctx, fetch, m.target.sessionUser(ctx))
		}
	}
}

func (m *ReauthenticationMonitor) attempt(ctx context.Context, fetch driving.TokenFetcher, userID string) {
	token, err := fetch(ctx, userID)
	if err != nil {
		logger.Warn("reauth: token fetch failed: %v", err)
		return
	}
	if token == "" {
		logger.Info("reauth: host returned no token")
		return
	}
	if err := m.target.signInWithToken(ctx, token); err != nil {
		logger.Warn("reauth: sign-in failed: %v", err)
		return
	}
	logger.Info("reauth: signed in")
}

