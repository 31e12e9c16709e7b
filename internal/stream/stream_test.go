package stream

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSubjectReplaysCurrentValue(t *testing.T) {
	s := NewSubject(1)
	var got []int
	sub := s.Subscribe(func(v int) { got = append(got, v) })
	defer sub.Unsubscribe()

	assert.Equal(t, []int{1}, got)

	s.Publish(2)
	s.Publish(3)
	assert.Equal(t, []int{1, 2, 3}, got)
	assert.Equal(t, 3, s.Value())
}

func TestSubjectNotifiesInSubscriptionOrder(t *testing.T) {
	s := NewSubject("")
	var order []string
	s.Subscribe(func(v string) { order = append(order, "a:"+v) })
	s.Subscribe(func(v string) { order = append(order, "b:"+v) })
	s.Subscribe(func(v string) { order = append(order, "c:"+v) })
	order = nil

	s.Publish("x")
	assert.Equal(t, []string{"a:x", "b:x", "c:x"}, order)
}

func TestUnsubscribeStopsDelivery(t *testing.T) {
	s := NewSubject(0)
	count := 0
	sub := s.Subscribe(func(int) { count++ })
	require.Equal(t, 1, count)

	sub.Unsubscribe()
	sub.Unsubscribe()
	s.Publish(1)

	assert.Equal(t, 1, count)
	assert.Equal(t, 0, s.Len())
}

func TestUnsubscribeDuringPublish(t *testing.T) {
	s := NewSubject(0)
	var second *Subscription
	var secondCalls int

	s.Subscribe(func(v int) {
		if v == 1 {
			second.Unsubscribe()
		}
	})
	second = s.Subscribe(func(int) { secondCalls++ })
	require.Equal(t, 1, secondCalls)

	s.Publish(1)
	assert.Equal(t, 1, secondCalls, "listener removed mid-publish must not be called")
}

func TestSubscribeReplayNeverFollowsNewerValue(t *testing.T) {
	s := NewSubject(0)
	const rounds = 200

	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 1; i <= rounds; i++ {
			s.Publish(i)
		}
	}()

	var mu sync.Mutex
	seen := make([][]int, rounds)
	for i := 0; i < rounds; i++ {
		i := i
		sub := s.Subscribe(func(v int) {
			mu.Lock()
			seen[i] = append(seen[i], v)
			mu.Unlock()
		})
		defer sub.Unsubscribe()
	}
	<-done

	mu.Lock()
	defer mu.Unlock()
	for i, values := range seen {
		for j := 1; j < len(values); j++ {
			assert.LessOrEqual(t, values[j-1], values[j], "subscriber %d saw %v", i, values)
		}
	}
}

func TestClosedSubject(t *testing.T) {
	s := NewSubject(5)
	calls := 0
	s.Subscribe(func(int) { calls++ })
	s.Close()

	s.Publish(6)
	late := s.Subscribe(func(int) { calls++ })
	late.Unsubscribe()

	assert.Equal(t, 1, calls)
	assert.Equal(t, 0, s.Len())
}

func TestMapRecomputesPerEmission(t *testing.T) {
	s := NewSubject([]int{1, 2})
	evaluations := 0
	sum := Map[[]int, int](s, func(xs []int) int {
		evaluations++
		total := 0
		for _, x := range xs {
			total += x
		}
		return total
	})

	var got []int
	sub := sum.Subscribe(func(v int) { got = append(got, v) })
	defer sub.Unsubscribe()

	s.Publish([]int{4, 5, 6})
	assert.Equal(t, []int{3, 15}, got)
	assert.Equal(t, 2, evaluations)
}

func TestCombineLatest(t *testing.T) {
	names := NewSubject("tasks")
	counts := NewSubject(0)
	joined := CombineLatest[string, int, string](names, counts, func(n string, c int) string {
		return n + ":" + string(rune('0'+c))
	})

	var got []string
	sub := joined.Subscribe(func(v string) { got = append(got, v) })

	counts.Publish(2)
	names.Publish("done")
	assert.Equal(t, []string{"tasks:0", "tasks:2", "done:2"}, got)

	sub.Unsubscribe()
	counts.Publish(3)
	assert.Len(t, got, 3)
	assert.Equal(t, 0, names.Len())
	assert.Equal(t, 0, counts.Len())
}

func TestCombineLatestUnsubscribeInsideCallback(t *testing.T) {
	a := NewSubject(1)
	b := NewSubject("x")
	combined := CombineLatest[int, string, int](a, b, func(n int, _ string) int { return n })

	var got []int
	var sub *Subscription
	sub = combined.Subscribe(func(v int) {
		got = append(got, v)
		if v == 2 {
			sub.Unsubscribe()
		}
	})

	done := make(chan struct{})
	go func() {
		defer close(done)
		a.Publish(2)
		a.Publish(3)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("publish blocked after unsubscribing from inside the callback")
	}

	assert.Equal(t, []int{1, 2}, got)
	assert.Equal(t, 0, a.Len())
	assert.Equal(t, 0, b.Len())
}

func TestChannelKeepsLatest(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	s := NewSubject(0)
	ch := Channel[int](ctx, s, 1)

	s.Publish(1)
	s.Publish(2)

	select {
	case v := <-ch:
		assert.Equal(t, 2, v)
	case <-time.After(time.Second):
		t.Fatal("no value received")
	}

	cancel()
	require.Eventually(t, func() bool {
		_, open := <-ch
		return !open
	}, time.Second, 10*time.Millisecond)
	assert.Equal(t, 0, s.Len())
}
