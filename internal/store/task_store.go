package store

import (
	"context"
	"time"

	"github.com/existflow/taskdeck/internal/kv"
	"github.com/existflow/taskdeck/internal/logger"
	"github.com/existflow/taskdeck/internal/model"
	"github.com/existflow/taskdeck/internal/stream"
	"github.com/existflow/taskdeck/internal/views"
)

// TaskStore owns the task collection
type TaskStore struct {
	c     *collection[model.Task]
	clock func() time.Time
}

// NewTaskStore loads the task collection from backend. A missing or
// unreadable collection starts empty instead of failing.
func NewTaskStore(ctx context.Context, backend kv.Store, opts ...Option) *TaskStore {
	o := buildOptions(opts)
	return &TaskStore{
		c: newCollection(ctx, backend, TasksKey, "task",
			func(t model.Task) string { return t.ID }, o),
		clock: o.clock,
	}
}

func (s *TaskStore) now() time.Time {
	return stamp(s.clock())
}

// All streams the full task list, current value first
func (s *TaskStore) All() stream.Stream[[]model.Task] {
	return s.c.all()
}

// ByID streams the task with the given ID, recomputed from All
func (s *TaskStore) ByID(id string) stream.Stream[Lookup[model.Task]] {
	return s.c.byID(id)
}

// Statistics streams completion percentages and the overdue count,
// recomputed in full on every change
func (s *TaskStore) Statistics() stream.Stream[views.Stats] {
	return stream.Map(s.All(), func(tasks []model.Task) views.Stats {
		return views.Statistics(tasks, s.clock())
	})
}

// Snapshot returns a copy of the current tasks
func (s *TaskStore) Snapshot() []model.Task {
	return s.c.snapshot()
}

// Get returns the task with the given ID
func (s *TaskStore) Get(id string) (model.Task, bool) {
	return s.c.get(id)
}

// Add appends a new task with a generated ID and fresh timestamps
func (s *TaskStore) Add(ctx context.Context, f model.TaskFields) (model.Task, error) {
	var created model.Task
	err := s.c.commit(ctx, func(tasks []model.Task) ([]model.Task, error) {
		id, err := s.c.uniqueID(tasks)
		if err != nil {
			return nil, err
		}
		now := s.now()
		created = model.Task{
			ID:          id,
			Title:       f.Title,
			Description: f.Description,
			DueDate:     stamp(f.DueDate),
			Priority:    f.Priority,
			Status:      f.Status,
			CategoryID:  f.CategoryID,
			CreatedAt:   now,
			UpdatedAt:   now,
		}
		return append(tasks, created), nil
	})
	if err != nil {
		return model.Task{}, err
	}

	s.c.log.Debug("Added task", logger.F("id", created.ID), logger.F("title", created.Title))
	return created, nil
}

// Update merges patch onto the task and bumps UpdatedAt. UpdatedAt never
// moves backwards, even if the clock does.
func (s *TaskStore) Update(ctx context.Context, id string, patch model.TaskPatch) (model.Task, error) {
	var updated model.Task
	err := s.c.commit(ctx, func(tasks []model.Task) ([]model.Task, error) {
		current, idx := s.c.find(tasks, id)
		if idx < 0 {
			return nil, NotFoundError{Kind: "task", ID: id}
		}

		updated = patch.Apply(current)
		updated.DueDate = stamp(updated.DueDate)
		updated.UpdatedAt = s.now()
		if updated.UpdatedAt.Before(current.UpdatedAt) {
			updated.UpdatedAt = current.UpdatedAt
		}
		tasks[idx] = updated
		return tasks, nil
	})
	if err != nil {
		return model.Task{}, err
	}

	s.c.log.Debug("Updated task", logger.F("id", id))
	return updated, nil
}

// SetStatus is a shorthand for an Update that only changes the status
func (s *TaskStore) SetStatus(ctx context.Context, id string, status model.Status) (model.Task, error) {
	return s.Update(ctx, id, model.TaskPatch{Status: &status})
}

// Delete removes the task. Deleting an unknown ID is not an error.
func (s *TaskStore) Delete(ctx context.Context, id string) error {
	return s.c.remove(ctx, id)
}

// Close rejects further mutations and unsubscribes every listener
func (s *TaskStore) Close() {
	s.c.close()
}
