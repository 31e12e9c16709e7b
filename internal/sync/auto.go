package sync

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/existflow/taskdeck/internal/kv"
	"github.com/existflow/taskdeck/internal/logger"
	"github.com/existflow/taskdeck/internal/stream"
)

// DefaultDebounce is how long a Mirror waits after the last change before writing
const DefaultDebounce = 2 * time.Second

// Mirror copies collection snapshots to a remote backend, debounced, as the
// watched streams change. The remote is write-only from the mirror's side.
type Mirror struct {
	remote       kv.Store
	debounceTime time.Duration
	log          *logger.Logger

	flushMu sync.Mutex // one batch on the wire at a time, in swap order
	mu      sync.Mutex
	pending map[string][]byte
	timer   *time.Timer
	subs    []*stream.Subscription
	stopped bool
	onFlush func(error) // Called after every write attempt, mostly for tests
}

// NewMirror creates a mirror writing to remote
func NewMirror(remote kv.Store, debounce time.Duration) *Mirror {
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	return &Mirror{
		remote:       remote,
		debounceTime: debounce,
		log:          logger.WithFields(logger.F("component", "mirror")),
		pending:      make(map[string][]byte),
	}
}

// SetOnFlush sets a callback run after each flush
func (m *Mirror) SetOnFlush(callback func(error)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.onFlush = callback
}

// Watch mirrors src under key. The current value is scheduled immediately.
func Watch[T any](m *Mirror, key string, src stream.Stream[[]T]) {
	sub := src.Subscribe(func(items []T) {
		data, err := json.Marshal(items)
		if err != nil {
			m.log.Error("Failed to encode snapshot", logger.F("key", key), logger.F("error", err))
			return
		}
		m.trigger(key, data)
	})

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.stopped {
		sub.Unsubscribe()
		return
	}
	m.subs = append(m.subs, sub)
}

// trigger marks key as changed and (re)starts the debounce timer
func (m *Mirror) trigger(key string, data []byte) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.stopped {
		return
	}

	m.pending[key] = data
	if m.timer == nil {
		m.timer = time.AfterFunc(m.debounceTime, func() {
			_ = m.Flush(context.Background())
		})
	} else {
		m.timer.Reset(m.debounceTime)
	}
}

// Flush writes every pending snapshot now
func (m *Mirror) Flush(ctx context.Context) error {
	m.flushMu.Lock()
	defer m.flushMu.Unlock()

	m.mu.Lock()
	batch := m.pending
	m.pending = make(map[string][]byte)
	callback := m.onFlush
	m.mu.Unlock()

	if len(batch) == 0 {
		return nil
	}

	var firstErr error
	for key, data := range batch {
		if err := m.remote.Put(ctx, key, data); err != nil {
			m.log.Error("Mirror write failed", logger.F("key", key), logger.F("error", err))
			if firstErr == nil {
				firstErr = err
			}
			m.requeue(key, data)
			continue
		}
		m.log.Debug("Mirrored collection", logger.F("key", key), logger.F("bytes", len(data)))
	}

	if callback != nil {
		callback(firstErr)
	}
	return firstErr
}

// requeue keeps a failed snapshot unless a newer one arrived meanwhile
func (m *Mirror) requeue(key string, data []byte) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, newer := m.pending[key]; !newer {
		m.pending[key] = data
	}
}

// IsPending returns true if a write is scheduled
func (m *Mirror) IsPending() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.pending) > 0
}

// Stop unsubscribes from every stream and writes what is still pending
func (m *Mirror) Stop(ctx context.Context) error {
	m.mu.Lock()
	m.stopped = true
	subs := m.subs
	m.subs = nil
	if m.timer != nil {
		m.timer.Stop()
	}
	m.mu.Unlock()

	for _, sub := range subs {
		sub.Unsubscribe()
	}
	return m.Flush(ctx)
}
