package api

import (
	"context"
	"net/http"
	"strconv"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

const (
	// DefaultRate is the proactive request rate per second.
	DefaultRate = 5.0

	// DefaultBurst is the token bucket size.
	DefaultBurst = 5

	// HeaderRetryAfter is the retry-after header (seconds).
	HeaderRetryAfter = "Retry-After"
)

// RateLimiter paces outbound requests.
type RateLimiter struct {
	bucket *rate.Limiter

	mu         sync.Mutex
	blockUntil time.Time
}

// NewRateLimiter creates a limiter allowing r requests per second.
func NewRateLimiter(r float64, burst int) *RateLimiter {
	return &RateLimiter{bucket: rate.NewLimiter(rate.Limit(r), burst)}
}

// Wait blocks until a request may be sent.
func (l *RateLimiter) Wait(ctx context.Context) error {
	l.mu.Lock()
	until := l.blockUntil
	l.mu.Unlock()

	if wait := time.Until(until); wait > 0 {
		timer := time.NewTimer(wait)
		defer timer.Stop()
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-timer.C:
		}
	}
	return l.bucket.Wait(ctx)
}

// Observe records a Retry-After hint from a 429 response.
func (l *RateLimiter) Observe(resp *http.Response) {
	if resp == nil || resp.StatusCode != http.StatusTooManyRequests {
		return
	}
	seconds, err := strconv.Atoi(resp.Header.Get(HeaderRetryAfter))
	if err != nil || seconds <= 0 {
		return
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	until := time.Now().Add(time.Duration(seconds) * time.Second)
	if until.After(l.blockUntil) {
		l.blockUntil = until
	}
}

// BlockedUntil returns the time before which no request is sent.
func (l *RateLimiter) BlockedUntil() time.Time {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.blockUntil
}
