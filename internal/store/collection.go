// Package store holds the task and category collections in memory, persists
// the whole collection to a kv.Store after every mutation and republishes it
// to subscribers.
package store

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/existflow/taskdeck/internal/kv"
	"github.com/existflow/taskdeck/internal/logger"
	"github.com/existflow/taskdeck/internal/stream"
	"github.com/google/uuid"
)

// Storage keys of the two persisted collections
const (
	TasksKey      = "tasks"
	CategoriesKey = "categories"
)

// Lookup is the result of a by-ID projection
type Lookup[T any] struct {
	Value T
	Found bool
}

// Option customises a store
type Option func(*options)

type options struct {
	clock func() time.Time
	newID func() string
	log   *logger.Logger
}

// WithClock sets the time source used for timestamps and overdue checks
func WithClock(clock func() time.Time) Option {
	return func(o *options) { o.clock = clock }
}

// WithIDGenerator replaces the default UUID generator
func WithIDGenerator(newID func() string) Option {
	return func(o *options) { o.newID = newID }
}

// WithLogger sets the logger, defaults to the global one
func WithLogger(l *logger.Logger) Option {
	return func(o *options) { o.log = l }
}

func buildOptions(opts []Option) options {
	o := options{
		clock: time.Now,
		newID: uuid.NewString,
		log:   logger.Default(),
	}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// maxIDAttempts bounds the retry loop when a generated ID is already taken
const maxIDAttempts = 16

// collection is the persistence and publication core shared by both stores
type collection[T any] struct {
	kv    kv.Store
	key   string
	kind  string
	idOf  func(T) string
	log   *logger.Logger
	newID func() string

	mu     sync.Mutex // guards items and closed
	pubMu  sync.Mutex // keeps publication order equal to commit order
	items  []T
	closed bool

	subject *stream.Subject[[]T]
}

func newCollection[T any](ctx context.Context, store kv.Store, key, kind string, idOf func(T) string, o options) *collection[T] {
	c := &collection[T]{
		kv:    store,
		key:   key,
		kind:  kind,
		idOf:  idOf,
		newID: o.newID,
		log:   o.log.WithFields(logger.F("store", key)),
	}
	c.items = c.load(ctx)
	c.subject = stream.NewSubject(clone(c.items))
	return c
}

// load reads the persisted collection. Any failure yields an empty one.
func (c *collection[T]) load(ctx context.Context) []T {
	data, err := c.kv.Get(ctx, c.key)
	if errors.Is(err, kv.ErrNotFound) {
		c.log.Debug("No stored collection, starting empty")
		return []T{}
	}
	if err != nil {
		c.log.Warn("Failed to load collection, starting empty",
			logger.F("error", PersistenceError{Op: "load", Key: c.key, Err: err}))
		return []T{}
	}

	var items []T
	if err := json.Unmarshal(data, &items); err != nil {
		c.log.Warn("Stored collection is unreadable, starting empty", logger.F("error", err))
		return []T{}
	}
	if items == nil {
		items = []T{}
	}

	c.log.Debug("Loaded collection", logger.F("count", len(items)))
	return items
}

func (c *collection[T]) save(ctx context.Context, items []T) error {
	data, err := json.Marshal(items)
	if err != nil {
		return PersistenceError{Op: "save", Key: c.key, Err: err}
	}
	if err := c.kv.Put(ctx, c.key, data); err != nil {
		c.log.Error("Failed to persist collection", logger.F("error", err))
		return PersistenceError{Op: "save", Key: c.key, Err: err}
	}
	return nil
}

// commit applies mutate to a copy of the collection, persists the result and
// publishes it. If mutate or the write fails nothing changes.
func (c *collection[T]) commit(ctx context.Context, mutate func(items []T) ([]T, error)) error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return ErrClosed
	}

	next, err := mutate(clone(c.items))
	if err != nil {
		c.mu.Unlock()
		return err
	}
	if next == nil {
		next = []T{}
	}
	if err := c.save(ctx, next); err != nil {
		c.mu.Unlock()
		return err
	}
	c.items = next
	published := clone(next)

	// Take pubMu before releasing mu so concurrent commits publish in order,
	// while listeners can still read the collection.
	c.pubMu.Lock()
	c.mu.Unlock()
	defer c.pubMu.Unlock()

	c.subject.Publish(published)
	return nil
}

// uniqueID draws IDs until one is not used in items
func (c *collection[T]) uniqueID(items []T) (string, error) {
	for i := 0; i < maxIDAttempts; i++ {
		id := c.newID()
		if id == "" {
			continue
		}
		if _, idx := c.find(items, id); idx < 0 {
			return id, nil
		}
	}
	return "", errors.New("could not generate a unique " + c.kind + " id")
}

func (c *collection[T]) find(items []T, id string) (T, int) {
	for i, item := range items {
		if c.idOf(item) == id {
			return item, i
		}
	}
	var zero T
	return zero, -1
}

func (c *collection[T]) snapshot() []T {
	c.mu.Lock()
	defer c.mu.Unlock()
	return clone(c.items)
}

func (c *collection[T]) get(id string) (T, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	item, idx := c.find(c.items, id)
	return item, idx >= 0
}

func (c *collection[T]) remove(ctx context.Context, id string) error {
	removed := false
	err := c.commit(ctx, func(items []T) ([]T, error) {
		kept := items[:0]
		for _, item := range items {
			if c.idOf(item) == id {
				removed = true
				continue
			}
			kept = append(kept, item)
		}
		return kept, nil
	})
	if err == nil {
		c.log.Debug("Deleted "+c.kind, logger.F("id", id), logger.F("removed", removed))
	}
	return err
}

func (c *collection[T]) all() stream.Stream[[]T] {
	return c.subject
}

func (c *collection[T]) byID(id string) stream.Stream[Lookup[T]] {
	return stream.Map(c.all(), func(items []T) Lookup[T] {
		item, idx := c.find(items, id)
		return Lookup[T]{Value: item, Found: idx >= 0}
	})
}

// close stops mutations and drops every subscriber. Each successful
// mutation is already persisted, so there is nothing left to flush.
func (c *collection[T]) close() {
	c.mu.Lock()
	c.closed = true
	c.mu.Unlock()

	c.subject.Close()
}

func clone[T any](items []T) []T {
	out := make([]T, len(items))
	copy(out, items)
	return out
}

// stamp normalises a timestamp so it survives a JSON round trip unchanged
func stamp(t time.Time) time.Time {
	if t.IsZero() {
		return time.Time{}
	}
	return t.UTC().Round(0)
}
