// Package stream implements push based value streams: a Subject that holds the
// latest value and replays it to new subscribers, plus operators to derive
// projections from one or more streams.
package stream

import "sync"

// Stream delivers the current value immediately on Subscribe and every
// subsequent value until the subscription is cancelled.
type Stream[T any] interface {
	Subscribe(fn func(T)) *Subscription
}

// Subscription cancels a registration made with Subscribe.
type Subscription struct {
	once   sync.Once
	cancel func()
}

// NewSubscription wraps a cancel func. The func runs at most once.
func NewSubscription(cancel func()) *Subscription {
	return &Subscription{cancel: cancel}
}

// Unsubscribe stops further deliveries. Safe to call more than once.
func (s *Subscription) Unsubscribe() {
	if s == nil {
		return
	}
	s.once.Do(func() {
		if s.cancel != nil {
			s.cancel()
		}
	})
}

type listener[T any] struct {
	id     uint64
	fn     func(T)
	active bool
}

// Subject is a Stream whose value is set with Publish. Listeners must not
// Publish to or Subscribe to the same subject from inside a callback.
type Subject[T any] struct {
	deliver   sync.Mutex // held across a replay or a publish, taken before mu
	mu        sync.Mutex
	value     T
	listeners []*listener[T]
	nextID    uint64
	closed    bool
}

// NewSubject returns a Subject seeded with initial.
func NewSubject[T any](initial T) *Subject[T] {
	return &Subject[T]{value: initial}
}

// Value returns the latest published value.
func (s *Subject[T]) Value() T {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.value
}

// Subscribe registers fn and calls it with the current value before returning.
// On a closed subject fn is never called and the subscription is inert.
func (s *Subject[T]) Subscribe(fn func(T)) *Subscription {
	// The replay and publishes cannot interleave, so a new listener never
	// sees an older value after a newer one
	s.deliver.Lock()
	defer s.deliver.Unlock()

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return NewSubscription(nil)
	}
	s.nextID++
	l := &listener[T]{id: s.nextID, fn: fn, active: true}
	s.listeners = append(s.listeners, l)
	current := s.value
	s.mu.Unlock()

	fn(current)

	return NewSubscription(func() { s.remove(l.id) })
}

// Publish stores v and calls every active listener with it, in subscription
// order, on the calling goroutine.
func (s *Subject[T]) Publish(v T) {
	s.deliver.Lock()
	defer s.deliver.Unlock()

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.value = v
	targets := make([]*listener[T], len(s.listeners))
	copy(targets, s.listeners)
	s.mu.Unlock()

	for _, l := range targets {
		if s.isActive(l) {
			l.fn(v)
		}
	}
}

// Len returns the number of active subscriptions.
func (s *Subject[T]) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.listeners)
}

// Close drops every listener. Later Publish and Subscribe calls are ignored.
func (s *Subject[T]) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, l := range s.listeners {
		l.active = false
	}
	s.listeners = nil
	s.closed = true
}

func (s *Subject[T]) isActive(l *listener[T]) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return l.active
}

func (s *Subject[T]) remove(id uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, l := range s.listeners {
		if l.id == id {
			l.active = false
			s.listeners = append(s.listeners[:i], s.listeners[i+1:]...)
			return
		}
	}
}
