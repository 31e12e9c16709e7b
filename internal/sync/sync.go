// Package sync reconciles the task and category collections held by two
// storage backends, and mirrors live store changes to a second backend.
package sync

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/existflow/taskdeck/internal/kv"
	"github.com/existflow/taskdeck/internal/logger"
	"github.com/existflow/taskdeck/internal/model"
	"github.com/existflow/taskdeck/internal/store"
)

// Result holds sync statistics
type Result struct {
	Pushed int
	Pulled int
}

// Mode defines how the sync should be performed
type Mode int

const (
	ModeMerge         Mode = iota // Default: newest task wins, union of both sides
	ModeRemoteToLocal             // Replace local with remote
	ModeLocalToRemote             // Replace remote with local
)

func (m Mode) String() string {
	switch m {
	case ModeRemoteToLocal:
		return "pull"
	case ModeLocalToRemote:
		return "push"
	default:
		return "merge"
	}
}

// Sync reconciles local and remote according to mode. Neither side may be
// open in a running store while this runs.
func Sync(ctx context.Context, local, remote kv.Store, mode Mode) (*Result, error) {
	logger.Info("Starting sync", logger.F("mode", mode.String()))

	switch mode {
	case ModeRemoteToLocal:
		n, err := replace(ctx, remote, local)
		if err != nil {
			return nil, fmt.Errorf("pull failed: %w", err)
		}
		return &Result{Pulled: n}, nil

	case ModeLocalToRemote:
		n, err := replace(ctx, local, remote)
		if err != nil {
			return nil, fmt.Errorf("push failed: %w", err)
		}
		return &Result{Pushed: n}, nil

	default:
		return merge(ctx, local, remote)
	}
}

// replace overwrites both collections in dst with those in src
func replace(ctx context.Context, src, dst kv.Store) (int, error) {
	tasks, err := readCollection[model.Task](ctx, src, store.TasksKey)
	if err != nil {
		return 0, err
	}
	categories, err := readCollection[model.Category](ctx, src, store.CategoriesKey)
	if err != nil {
		return 0, err
	}

	if err := writeCollection(ctx, dst, store.CategoriesKey, categories); err != nil {
		return 0, err
	}
	if err := writeCollection(ctx, dst, store.TasksKey, tasks); err != nil {
		return 0, err
	}
	return len(tasks) + len(categories), nil
}

func merge(ctx context.Context, local, remote kv.Store) (*Result, error) {
	result := &Result{}

	localCats, err := readCollection[model.Category](ctx, local, store.CategoriesKey)
	if err != nil {
		return nil, fmt.Errorf("local: %w", err)
	}
	remoteCats, err := readCollection[model.Category](ctx, remote, store.CategoriesKey)
	if err != nil {
		return nil, fmt.Errorf("remote: %w", err)
	}
	cats, pushed, pulled := MergeCategories(localCats, remoteCats)
	if err := writeBoth(ctx, local, remote, store.CategoriesKey, cats, pushed, pulled); err != nil {
		return nil, err
	}
	result.Pushed += pushed
	result.Pulled += pulled

	localTasks, err := readCollection[model.Task](ctx, local, store.TasksKey)
	if err != nil {
		return nil, fmt.Errorf("local: %w", err)
	}
	remoteTasks, err := readCollection[model.Task](ctx, remote, store.TasksKey)
	if err != nil {
		return nil, fmt.Errorf("remote: %w", err)
	}
	tasks, pushed, pulled := MergeTasks(localTasks, remoteTasks)
	if err := writeBoth(ctx, local, remote, store.TasksKey, tasks, pushed, pulled); err != nil {
		return nil, err
	}
	result.Pushed += pushed
	result.Pulled += pulled

	logger.Info("Sync complete", logger.F("pushed", result.Pushed), logger.F("pulled", result.Pulled))
	return result, nil
}

func writeBoth[T any](ctx context.Context, local, remote kv.Store, key string, items []T, pushed, pulled int) error {
	if pushed > 0 {
		if err := writeCollection(ctx, remote, key, items); err != nil {
			return fmt.Errorf("push failed: %w", err)
		}
	}
	if pulled > 0 {
		if err := writeCollection(ctx, local, key, items); err != nil {
			return fmt.Errorf("pull failed: %w", err)
		}
	}
	return nil
}

// MergeTasks unions both sides by ID. When both hold a task the one with the
// later UpdatedAt wins; ties keep the local copy. pushed counts tasks the
// remote side lacks or holds older, pulled the reverse.
func MergeTasks(local, remote []model.Task) (merged []model.Task, pushed, pulled int) {
	remoteByID := make(map[string]model.Task, len(remote))
	for _, t := range remote {
		remoteByID[t.ID] = t
	}

	seen := make(map[string]bool, len(local))
	for _, l := range local {
		seen[l.ID] = true
		r, ok := remoteByID[l.ID]
		switch {
		case !ok:
			pushed++
			merged = append(merged, l)
		case r.UpdatedAt.After(l.UpdatedAt):
			pulled++
			merged = append(merged, r)
		case !sameTask(l, r):
			pushed++
			merged = append(merged, l)
		default:
			merged = append(merged, l)
		}
	}
	for _, r := range remote {
		if !seen[r.ID] {
			pulled++
			merged = append(merged, r)
		}
	}
	if merged == nil {
		merged = []model.Task{}
	}
	return merged, pushed, pulled
}

// MergeCategories unions both sides by ID. Categories carry no timestamp, so
// local edits win. A remote category whose name is already used by a
// different local category is skipped to keep names unique.
func MergeCategories(local, remote []model.Category) (merged []model.Category, pushed, pulled int) {
	remoteByID := make(map[string]model.Category, len(remote))
	for _, c := range remote {
		remoteByID[c.ID] = c
	}

	seen := make(map[string]bool, len(local))
	for _, l := range local {
		seen[l.ID] = true
		if r, ok := remoteByID[l.ID]; !ok || r != l {
			pushed++
		}
		merged = append(merged, l)
	}
	for _, r := range remote {
		if seen[r.ID] {
			continue
		}
		if nameUsed(merged, r.Name) {
			logger.Warn("Skipping remote category with clashing name",
				logger.F("id", r.ID), logger.F("name", r.Name))
			continue
		}
		pulled++
		merged = append(merged, r)
	}
	if merged == nil {
		merged = []model.Category{}
	}
	return merged, pushed, pulled
}

func sameTask(a, b model.Task) bool {
	return a.ID == b.ID && a.Title == b.Title && a.Description == b.Description &&
		a.DueDate.Equal(b.DueDate) && a.Priority == b.Priority && a.Status == b.Status &&
		a.CategoryID == b.CategoryID && a.CreatedAt.Equal(b.CreatedAt) && a.UpdatedAt.Equal(b.UpdatedAt)
}

func nameUsed(categories []model.Category, name string) bool {
	for _, c := range categories {
		if model.SameName(c.Name, name) {
			return true
		}
	}
	return false
}

// readCollection returns an empty collection for a missing key. Unreadable
// data is an error so a sync never overwrites what it could not parse.
func readCollection[T any](ctx context.Context, s kv.Store, key string) ([]T, error) {
	data, err := s.Get(ctx, key)
	if errors.Is(err, kv.ErrNotFound) {
		return []T{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", key, err)
	}

	var items []T
	if err := json.Unmarshal(data, &items); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", key, err)
	}
	if items == nil {
		items = []T{}
	}
	return items, nil
}

func writeCollection[T any](ctx context.Context, s kv.Store, key string, items []T) error {
	data, err := json.Marshal(items)
	if err != nil {
		return err
	}
	if err := s.Put(ctx, key, data); err != nil {
		return fmt.Errorf("failed to write %s: %w", key, err)
	}
	return nil
}

// Count reports how many tasks and categories s holds
func Count(ctx context.Context, s kv.Store) (tasks, categories int, err error) {
	ts, err := readCollection[model.Task](ctx, s, store.TasksKey)
	if err != nil {
		return 0, 0, err
	}
	cs, err := readCollection[model.Category](ctx, s, store.CategoriesKey)
	if err != nil {
		return 0, 0, err
	}
	return len(ts), len(cs), nil
}
