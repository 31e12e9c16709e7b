package store

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/existflow/taskdeck/internal/kv"
	"github.com/existflow/taskdeck/internal/logger"
	"github.com/existflow/taskdeck/internal/model"
	"github.com/existflow/taskdeck/internal/views"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeClock returns a controllable time source
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2026, 4, 1, 9, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// flakyKV fails writes on demand
type flakyKV struct {
	*kv.Memory
	failPut bool
	failGet bool
}

func (f *flakyKV) Get(ctx context.Context, key string) ([]byte, error) {
	if f.failGet {
		return nil, errors.New("disk unreadable")
	}
	return f.Memory.Get(ctx, key)
}

func (f *flakyKV) Put(ctx context.Context, key string, value []byte) error {
	if f.failPut {
		return errors.New("quota exceeded")
	}
	return f.Memory.Put(ctx, key, value)
}

func testOptions(clock *fakeClock) []Option {
	return []Option{WithClock(clock.Now), WithLogger(logger.Nop())}
}

func newTaskStore(t *testing.T, backend kv.Store, clock *fakeClock) *TaskStore {
	t.Helper()
	s := NewTaskStore(context.Background(), backend, testOptions(clock)...)
	t.Cleanup(s.Close)
	return s
}

func sampleFields(title string) model.TaskFields {
	return model.TaskFields{
		Title:       title,
		Description: "details for " + title,
		DueDate:     time.Date(2026, 4, 10, 18, 0, 0, 0, time.UTC),
		Priority:    model.PriorityMedium,
		Status:      model.StatusNotStarted,
		CategoryID:  "work",
	}
}

func TestAddAssignsDistinctIDs(t *testing.T) {
	ctx := context.Background()
	s := newTaskStore(t, kv.NewMemory(), newFakeClock())

	seen := map[string]bool{}
	for i := 0; i < 25; i++ {
		created, err := s.Add(ctx, sampleFields(fmt.Sprintf("task %d", i)))
		require.NoError(t, err)
		require.NotEmpty(t, created.ID)
		require.False(t, seen[created.ID], "duplicate id %s", created.ID)
		seen[created.ID] = true
	}

	assert.Len(t, s.Snapshot(), 25)
}

func TestAddRetriesCollidingIDs(t *testing.T) {
	ctx := context.Background()
	ids := []string{"a", "a", "a", "b"}
	next := 0
	s := NewTaskStore(ctx, kv.NewMemory(),
		WithLogger(logger.Nop()),
		WithIDGenerator(func() string {
			id := ids[next]
			next++
			return id
		}))

	first, err := s.Add(ctx, sampleFields("one"))
	require.NoError(t, err)
	second, err := s.Add(ctx, sampleFields("two"))
	require.NoError(t, err)

	assert.Equal(t, "a", first.ID)
	assert.Equal(t, "b", second.ID)
}

func TestAddThenByID(t *testing.T) {
	ctx := context.Background()
	clock := newFakeClock()
	s := newTaskStore(t, kv.NewMemory(), clock)

	fields := sampleFields("Write report")
	created, err := s.Add(ctx, fields)
	require.NoError(t, err)

	var got Lookup[model.Task]
	sub := s.ByID(created.ID).Subscribe(func(l Lookup[model.Task]) { got = l })
	defer sub.Unsubscribe()

	require.True(t, got.Found)
	assert.Equal(t, fields.Title, got.Value.Title)
	assert.Equal(t, fields.Description, got.Value.Description)
	assert.True(t, fields.DueDate.Equal(got.Value.DueDate))
	assert.Equal(t, fields.Priority, got.Value.Priority)
	assert.Equal(t, fields.Status, got.Value.Status)
	assert.Equal(t, fields.CategoryID, got.Value.CategoryID)
	assert.Equal(t, clock.Now(), got.Value.CreatedAt)
	assert.Equal(t, got.Value.CreatedAt, got.Value.UpdatedAt)
}

func TestUpdateStatusOnlyChangesStatusAndUpdatedAt(t *testing.T) {
	ctx := context.Background()
	clock := newFakeClock()
	s := newTaskStore(t, kv.NewMemory(), clock)

	before, err := s.Add(ctx, sampleFields("Ship it"))
	require.NoError(t, err)

	clock.Advance(time.Minute)
	after, err := s.SetStatus(ctx, before.ID, model.StatusCompleted)
	require.NoError(t, err)

	assert.Equal(t, model.StatusCompleted, after.Status)
	assert.True(t, after.UpdatedAt.After(before.UpdatedAt))

	after.Status = before.Status
	after.UpdatedAt = before.UpdatedAt
	assert.Equal(t, before, after, "no other field may change")

	stored, ok := s.Get(before.ID)
	require.True(t, ok)
	assert.Equal(t, model.StatusCompleted, stored.Status)
}

func TestUpdatedAtNeverMovesBackwards(t *testing.T) {
	ctx := context.Background()
	clock := newFakeClock()
	s := newTaskStore(t, kv.NewMemory(), clock)

	created, err := s.Add(ctx, sampleFields("clock skew"))
	require.NoError(t, err)

	clock.Advance(-time.Hour)
	title := "renamed"
	updated, err := s.Update(ctx, created.ID, model.TaskPatch{Title: &title})
	require.NoError(t, err)

	assert.Equal(t, "renamed", updated.Title)
	assert.False(t, updated.UpdatedAt.Before(created.UpdatedAt))
}

func TestUpdateMissingTaskLeavesCollectionUnchanged(t *testing.T) {
	ctx := context.Background()
	backend := kv.NewMemory()
	s := newTaskStore(t, backend, newFakeClock())

	_, err := s.Add(ctx, sampleFields("keep me"))
	require.NoError(t, err)
	persisted, err := backend.Get(ctx, TasksKey)
	require.NoError(t, err)

	emissions := 0
	sub := s.All().Subscribe(func([]model.Task) { emissions++ })
	defer sub.Unsubscribe()

	done := model.StatusCompleted
	_, err = s.Update(ctx, "missing", model.TaskPatch{Status: &done})

	var nf NotFoundError
	require.ErrorAs(t, err, &nf)
	assert.Equal(t, "task", nf.Kind)
	assert.Equal(t, "missing", nf.ID)
	assert.True(t, IsNotFound(err))

	after, err := backend.Get(ctx, TasksKey)
	require.NoError(t, err)
	assert.Equal(t, persisted, after, "persisted bytes must not change")
	assert.Equal(t, 1, emissions, "only the initial replay is expected")
}

func TestDelete(t *testing.T) {
	ctx := context.Background()
	s := newTaskStore(t, kv.NewMemory(), newFakeClock())

	a, err := s.Add(ctx, sampleFields("a"))
	require.NoError(t, err)
	_, err = s.Add(ctx, sampleFields("b"))
	require.NoError(t, err)

	require.NoError(t, s.Delete(ctx, a.ID))
	assert.Len(t, s.Snapshot(), 1)

	var got Lookup[model.Task]
	s.ByID(a.ID).Subscribe(func(l Lookup[model.Task]) { got = l }).Unsubscribe()
	assert.False(t, got.Found)

	require.NoError(t, s.Delete(ctx, "absent"))
	assert.Len(t, s.Snapshot(), 1, "deleting an unknown id is a no-op")
}

func TestAllEmitsOnEveryMutation(t *testing.T) {
	ctx := context.Background()
	s := newTaskStore(t, kv.NewMemory(), newFakeClock())

	var lengths []int
	sub := s.All().Subscribe(func(ts []model.Task) { lengths = append(lengths, len(ts)) })

	created, err := s.Add(ctx, sampleFields("a"))
	require.NoError(t, err)
	_, err = s.SetStatus(ctx, created.ID, model.StatusInProgress)
	require.NoError(t, err)
	require.NoError(t, s.Delete(ctx, created.ID))

	sub.Unsubscribe()
	_, err = s.Add(ctx, sampleFields("b"))
	require.NoError(t, err)

	assert.Equal(t, []int{0, 1, 1, 0}, lengths)
}

func TestListenersMayReadTheStore(t *testing.T) {
	ctx := context.Background()
	s := newTaskStore(t, kv.NewMemory(), newFakeClock())

	var seen []int
	sub := s.All().Subscribe(func([]model.Task) { seen = append(seen, len(s.Snapshot())) })
	defer sub.Unsubscribe()

	_, err := s.Add(ctx, sampleFields("a"))
	require.NoError(t, err)
	assert.Equal(t, []int{0, 1}, seen)
}

func TestStatisticsStream(t *testing.T) {
	ctx := context.Background()
	clock := newFakeClock()
	s := newTaskStore(t, kv.NewMemory(), clock)

	var latest views.Stats
	sub := s.Statistics().Subscribe(func(st views.Stats) { latest = st })
	defer sub.Unsubscribe()
	assert.Equal(t, views.Stats{}, latest)

	past := clock.Now().Add(-time.Hour)
	for i, st := range []model.Status{model.StatusCompleted, model.StatusCompleted, model.StatusNotStarted, model.StatusInProgress} {
		f := sampleFields(fmt.Sprintf("t%d", i))
		f.Status = st
		f.DueDate = past
		_, err := s.Add(ctx, f)
		require.NoError(t, err)
	}

	assert.Equal(t, views.Stats{CompletedPct: 50, PendingPct: 50, OverdueCount: 2}, latest)
}

func TestPersistRoundTrip(t *testing.T) {
	ctx := context.Background()
	backend := kv.NewMemory()
	clock := newFakeClock()

	first := NewTaskStore(ctx, backend, testOptions(clock)...)
	f := sampleFields("persist me")
	f.DueDate = time.Date(2026, 4, 12, 8, 30, 15, 123456789, time.FixedZone("CEST", 2*3600))
	_, err := first.Add(ctx, f)
	require.NoError(t, err)
	clock.Advance(time.Second)
	_, err = first.Add(ctx, sampleFields("second"))
	require.NoError(t, err)
	want := first.Snapshot()
	first.Close()

	second := newTaskStore(t, backend, clock)
	assert.Equal(t, want, second.Snapshot())
	assert.True(t, f.DueDate.Equal(second.Snapshot()[0].DueDate))
}

func TestLoadFailureStartsEmpty(t *testing.T) {
	ctx := context.Background()

	corrupt := kv.NewMemory()
	require.NoError(t, corrupt.Put(ctx, TasksKey, []byte("{not json")))
	assert.Empty(t, newTaskStore(t, corrupt, newFakeClock()).Snapshot())

	unreadable := &flakyKV{Memory: kv.NewMemory(), failGet: true}
	assert.Empty(t, newTaskStore(t, unreadable, newFakeClock()).Snapshot())

	null := kv.NewMemory()
	require.NoError(t, null.Put(ctx, TasksKey, []byte("null")))
	s := newTaskStore(t, null, newFakeClock())
	assert.NotNil(t, s.Snapshot())
	assert.Empty(t, s.Snapshot())
}

func TestWriteFailureSurfacesAndKeepsState(t *testing.T) {
	ctx := context.Background()
	backend := &flakyKV{Memory: kv.NewMemory()}
	s := newTaskStore(t, backend, newFakeClock())

	kept, err := s.Add(ctx, sampleFields("kept"))
	require.NoError(t, err)

	emissions := 0
	sub := s.All().Subscribe(func([]model.Task) { emissions++ })
	defer sub.Unsubscribe()

	backend.failPut = true
	_, err = s.Add(ctx, sampleFields("lost"))

	var pe PersistenceError
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, "save", pe.Op)
	assert.Equal(t, TasksKey, pe.Key)
	assert.EqualError(t, errors.Unwrap(err), "quota exceeded")

	_, err = s.SetStatus(ctx, kept.ID, model.StatusCompleted)
	assert.True(t, IsPersistence(err))
	require.True(t, IsPersistence(s.Delete(ctx, kept.ID)))

	assert.Len(t, s.Snapshot(), 1)
	got, _ := s.Get(kept.ID)
	assert.Equal(t, model.StatusNotStarted, got.Status)
	assert.Equal(t, 1, emissions, "failed writes must not publish")
}

func TestClosedStoreRejectsMutations(t *testing.T) {
	ctx := context.Background()
	s := NewTaskStore(ctx, kv.NewMemory(), WithLogger(logger.Nop()))

	calls := 0
	s.All().Subscribe(func([]model.Task) { calls++ })
	s.Close()

	_, err := s.Add(ctx, sampleFields("late"))
	assert.ErrorIs(t, err, ErrClosed)
	assert.Equal(t, 1, calls)
}

func TestConcurrentMutationsPublishInCommitOrder(t *testing.T) {
	ctx := context.Background()
	s := newTaskStore(t, kv.NewMemory(), newFakeClock())

	var mu sync.Mutex
	var lengths []int
	sub := s.All().Subscribe(func(ts []model.Task) {
		mu.Lock()
		lengths = append(lengths, len(ts))
		mu.Unlock()
	})
	defer sub.Unsubscribe()

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := s.Add(ctx, sampleFields(fmt.Sprintf("t%d", i)))
			assert.NoError(t, err)
		}(i)
	}
	wg.Wait()

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, lengths, 21)
	for i, n := range lengths {
		assert.Equal(t, i, n, "emissions must arrive in commit order")
	}
}
