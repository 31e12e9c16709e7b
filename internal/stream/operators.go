package stream

import (
	"context"
	"sync"
)

// Func adapts a subscribe function to the Stream interface.
type Func[T any] func(fn func(T)) *Subscription

// Subscribe implements Stream.
func (f Func[T]) Subscribe(fn func(T)) *Subscription {
	return f(fn)
}

// Map derives a stream by applying project to every value of src.
// project runs once per emission per subscriber; nothing is cached.
func Map[A, B any](src Stream[A], project func(A) B) Stream[B] {
	return Func[B](func(fn func(B)) *Subscription {
		return src.Subscribe(func(a A) {
			fn(project(a))
		})
	})
}

// CombineLatest joins two streams. Once both have produced a value, every
// change on either side recomputes project over the latest pair.
func CombineLatest[A, B, C any](a Stream[A], b Stream[B], project func(A, B) C) Stream[C] {
	return Func[C](func(fn func(C)) *Subscription {
		var (
			mu        sync.Mutex // guards the latest pair and cancelled
			emitMu    sync.Mutex // serializes calls to fn; never held with mu
			lastA     A
			lastB     B
			haveA     bool
			haveB     bool
			cancelled bool
		)

		// emit reads the latest pair under mu and calls fn without it, so fn
		// may unsubscribe
		emit := func() {
			emitMu.Lock()
			defer emitMu.Unlock()

			mu.Lock()
			if !haveA || !haveB || cancelled {
				mu.Unlock()
				return
			}
			va, vb := lastA, lastB
			mu.Unlock()

			fn(project(va, vb))
		}

		subA := a.Subscribe(func(v A) {
			mu.Lock()
			lastA, haveA = v, true
			mu.Unlock()
			emit()
		})
		subB := b.Subscribe(func(v B) {
			mu.Lock()
			lastB, haveB = v, true
			mu.Unlock()
			emit()
		})

		return NewSubscription(func() {
			mu.Lock()
			cancelled = true
			mu.Unlock()
			subA.Unsubscribe()
			subB.Unsubscribe()
		})
	})
}

// Channel forwards values of src into a buffered channel until ctx is done,
// then unsubscribes and closes the channel. When the buffer is full the
// oldest pending value is dropped so a slow reader always sees the latest.
func Channel[T any](ctx context.Context, src Stream[T], size int) <-chan T {
	if size < 1 {
		size = 1
	}
	out := make(chan T, size)

	var mu sync.Mutex
	done := false

	sub := src.Subscribe(func(v T) {
		mu.Lock()
		defer mu.Unlock()
		if done {
			return
		}
		for {
			select {
			case out <- v:
				return
			default:
			}
			select {
			case <-out:
			default:
			}
		}
	})

	go func() {
		<-ctx.Done()
		sub.Unsubscribe()
		mu.Lock()
		done = true
		close(out)
		mu.Unlock()
	}()

	return out
}
