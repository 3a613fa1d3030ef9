// Package promise provides a single-slot value that callers can wait on.
package promise

import (
	"context"
	"sync"
)

// Promise holds a value that is set at most once until Reset. Any number of
// callers may wait for it; waiting has no timeout other than the caller's
// context.
type Promise[T any] struct {
	mu    sync.Mutex
	value T
	set   bool
	ready chan struct{}
}

// New returns an unset promise.
func New[T any]() *Promise[T] {
	return &Promise[T]{ready: make(chan struct{})}
}

// Set stores v and wakes all waiters. Returns false if a value is already
// set, in which case v is discarded.
func (p *Promise[T]) Set(v T) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.set {
		return false
	}
	p.value = v
	p.set = true
	close(p.ready)
	return true
}

// Get returns the value, waiting until one is set or ctx is done.
func (p *Promise[T]) Get(ctx context.Context) (T, error) {
	for {
		p.mu.Lock()
		if p.set {
			v := p.value
			p.mu.Unlock()
			return v, nil
		}
		ready := p.ready
		p.mu.Unlock()

		select {
		case <-ready:
			// A Reset may have raced in; loop and re-check.
		case <-ctx.Done():
			var zero T
			return zero, ctx.Err()
		}
	}
}

// Peek returns the value without waiting.
func (p *Promise[T]) Peek() (T, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.value, p.set
}

// Reset clears the value. Callers waiting keep waiting for the next Set.
func (p *Promise[T]) Reset() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.set {
		return
	}
	var zero T
	p.value = zero
	p.set = false
	p.ready = make(chan struct{})
}
