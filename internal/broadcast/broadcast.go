// Package broadcast implements the publish-subscribe model used for status
// and signal streams.
//
// AddListener returns a new receive-only channel; RemoveListener unsubscribes
// that channel and closes it; Broadcast sends a value to every subscriber;
// Close unsubscribes and closes all channels.
package broadcast

import (
	"slices"
	"sync"
)

// Buffer size that makes it less likely Broadcast blocks. Consumers are still
// responsible for reading their channel.
const subscriberChannelBufferLength = 64

// Broadcaster fans values out to subscribers.
type Broadcaster[V any] struct {
	// lock is held for reading while sending and for writing while closing
	// channels, so a channel is never closed under a pending send.
	lock        sync.RWMutex
	subscribers []*subscriber[V]
}

type subscriber[V any] struct {
	sendCh    chan V
	receiveCh <-chan V
	done      chan struct{}
	stopOnce  sync.Once
}

func (s *subscriber[V]) stop() {
	s.stopOnce.Do(func() { close(s.done) })
}

// New creates a Broadcaster for the given value type.
func New[V any]() *Broadcaster[V] {
	return &Broadcaster[V]{}
}

// AddListener adds a subscriber and returns a channel for it to receive values.
func (b *Broadcaster[V]) AddListener() <-chan V {
	ch := make(chan V, subscriberChannelBufferLength)
	s := &subscriber[V]{sendCh: ch, receiveCh: ch, done: make(chan struct{})}
	b.lock.Lock()
	defer b.lock.Unlock()
	b.subscribers = append(b.subscribers, s)
	return s.receiveCh
}

// RemoveListener removes a subscriber. The parameter is the channel returned
// by AddListener. A Broadcast blocked on this subscriber is released.
func (b *Broadcaster[V]) RemoveListener(ch <-chan V) {
	b.lock.RLock()
	var target *subscriber[V]
	for _, s := range b.subscribers {
		if s.receiveCh == ch {
			target = s
			break
		}
	}
	b.lock.RUnlock()
	if target == nil {
		return
	}
	target.stop()

	b.lock.Lock()
	defer b.lock.Unlock()
	idx := slices.Index(b.subscribers, target)
	if idx < 0 {
		return
	}
	b.subscribers = slices.Delete(b.subscribers, idx, idx+1)
	close(target.sendCh)
}

// HasListeners returns true if there are any current subscribers.
func (b *Broadcaster[V]) HasListeners() bool {
	b.lock.RLock()
	defer b.lock.RUnlock()
	return len(b.subscribers) > 0
}

// Broadcast sends value to all current subscribers, waiting for buffer space.
func (b *Broadcaster[V]) Broadcast(value V) {
	b.lock.RLock()
	defer b.lock.RUnlock()
	for _, s := range b.subscribers {
		select {
		case s.sendCh <- value:
		case <-s.done:
		}
	}
}

// TryBroadcast sends value to every subscriber that has buffer space and
// drops it for the others.
func (b *Broadcaster[V]) TryBroadcast(value V) {
	b.lock.RLock()
	defer b.lock.RUnlock()
	for _, s := range b.subscribers {
		select {
		case s.sendCh <- value:
		default:
		}
	}
}

// Close closes all current subscriber channels.
func (b *Broadcaster[V]) Close() {
	b.lock.RLock()
	for _, s := range b.subscribers {
		s.stop()
	}
	b.lock.RUnlock()

	b.lock.Lock()
	defer b.lock.Unlock()
	for _, s := range b.subscribers {
		close(s.sendCh)
	}
	b.subscribers = nil
}
