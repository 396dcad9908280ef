// Package fanout delivers values to a set of buffered subscriber channels
// without ever blocking the publisher.
//
// A subscriber whose buffer is full when a value is published is dropped: its
// channel is closed and Lagged reports true. Owners that need history and
// live values to line up serialize Publish and Subscribe under their own lock.
package fanout

import (
	"sync"
	"sync/atomic"
)

// DefaultBuffer is the channel capacity used when a Hub is built with a
// non-positive buffer size.
const DefaultBuffer = 256

// Subscription is a single consumer registered on a Hub.
type Subscription[T any] struct {
	hub    *Hub[T]
	ch     chan T
	lagged atomic.Bool
}

// C returns the channel values are delivered on. It is closed when the
// subscription is cancelled or dropped for lagging.
func (s *Subscription[T]) C() <-chan T {
	return s.ch
}

// Lagged reports whether the hub dropped this subscriber because it fell
// behind.
func (s *Subscription[T]) Lagged() bool {
	return s.lagged.Load()
}

// Cancel removes the subscription. It is safe to call more than once.
func (s *Subscription[T]) Cancel() {
	s.hub.remove(s)
}

// Hub fans values out to subscribers.
type Hub[T any] struct {
	mu     sync.Mutex
	subs   map[*Subscription[T]]struct{}
	buffer int
	onDrop func()
}

// NewHub creates a hub whose subscriber channels hold buffer values.
// onDrop, when non-nil, runs each time a lagging subscriber is dropped.
func NewHub[T any](buffer int, onDrop func()) *Hub[T] {
	if buffer <= 0 {
		buffer = DefaultBuffer
	}
	return &Hub[T]{
		subs:   make(map[*Subscription[T]]struct{}),
		buffer: buffer,
		onDrop: onDrop,
	}
}

// Subscribe registers a new subscriber.
func (h *Hub[T]) Subscribe() *Subscription[T] {
	s := &Subscription[T]{hub: h, ch: make(chan T, h.buffer)}
	h.mu.Lock()
	h.subs[s] = struct{}{}
	h.mu.Unlock()
	return s
}

// Publish offers v to every subscriber and drops the ones that cannot take
// it immediately.
func (h *Hub[T]) Publish(v T) {
	h.mu.Lock()
	var dropped []*Subscription[T]
	for s := range h.subs {
		select {
		case s.ch <- v:
		default:
			dropped = append(dropped, s)
		}
	}
	for _, s := range dropped {
		s.lagged.Store(true)
		delete(h.subs, s)
		close(s.ch)
	}
	h.mu.Unlock()

	if h.onDrop != nil {
		for range dropped {
			h.onDrop()
		}
	}
}

// Len returns the number of live subscribers.
func (h *Hub[T]) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs)
}

// Close cancels every subscription.
func (h *Hub[T]) Close() {
	h.mu.Lock()
	for s := range h.subs {
		delete(h.subs, s)
		close(s.ch)
	}
	h.mu.Unlock()
}

func (h *Hub[T]) remove(s *Subscription[T]) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.subs[s]; !ok {
		return
	}
	delete(h.subs, s)
	close(s.ch)
}
