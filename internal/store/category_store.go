package store

import (
	"context"

	"github.com/existflow/taskdeck/internal/kv"
	"github.com/existflow/taskdeck/internal/logger"
	"github.com/existflow/taskdeck/internal/model"
	"github.com/existflow/taskdeck/internal/stream"
)

// CategoryStore owns the category collection. Names are unique,
// compared case-insensitively.
type CategoryStore struct {
	c *collection[model.Category]
}

// NewCategoryStore loads the category collection from backend
func NewCategoryStore(ctx context.Context, backend kv.Store, opts ...Option) *CategoryStore {
	o := buildOptions(opts)
	return &CategoryStore{
		c: newCollection(ctx, backend, CategoriesKey, "category",
			func(c model.Category) string { return c.ID }, o),
	}
}

// All streams the full category list, current value first
func (s *CategoryStore) All() stream.Stream[[]model.Category] {
	return s.c.all()
}

// ByID streams the category with the given ID
func (s *CategoryStore) ByID(id string) stream.Stream[Lookup[model.Category]] {
	return s.c.byID(id)
}

// Snapshot returns a copy of the current categories
func (s *CategoryStore) Snapshot() []model.Category {
	return s.c.snapshot()
}

// Get returns the category with the given ID
func (s *CategoryStore) Get(id string) (model.Category, bool) {
	return s.c.get(id)
}

// FindByName returns the category whose name matches, ignoring case
func (s *CategoryStore) FindByName(name string) (model.Category, bool) {
	for _, c := range s.Snapshot() {
		if model.SameName(c.Name, name) {
			return c, true
		}
	}
	return model.Category{}, false
}

// Add creates a category. A name clash fails with DuplicateNameError before
// anything is generated or stored.
func (s *CategoryStore) Add(ctx context.Context, f model.CategoryFields) (model.Category, error) {
	var created model.Category
	err := s.c.commit(ctx, func(categories []model.Category) ([]model.Category, error) {
		if nameTaken(categories, f.Name, "") {
			return nil, DuplicateNameError{Name: f.Name}
		}
		id, err := s.c.uniqueID(categories)
		if err != nil {
			return nil, err
		}
		created = model.Category{ID: id, Name: f.Name, Color: f.Color}
		return append(categories, created), nil
	})
	if err != nil {
		return model.Category{}, err
	}

	s.c.log.Debug("Added category", logger.F("id", created.ID), logger.F("name", created.Name))
	return created, nil
}

// Update merges patch onto the category. Renaming onto another category's
// name fails with DuplicateNameError.
func (s *CategoryStore) Update(ctx context.Context, id string, patch model.CategoryPatch) (model.Category, error) {
	var updated model.Category
	err := s.c.commit(ctx, func(categories []model.Category) ([]model.Category, error) {
		current, idx := s.c.find(categories, id)
		if idx < 0 {
			return nil, NotFoundError{Kind: "category", ID: id}
		}
		if patch.Name != nil && nameTaken(categories, *patch.Name, id) {
			return nil, DuplicateNameError{Name: *patch.Name}
		}

		updated = patch.Apply(current)
		categories[idx] = updated
		return categories, nil
	})
	if err != nil {
		return model.Category{}, err
	}

	s.c.log.Debug("Updated category", logger.F("id", id))
	return updated, nil
}

// Delete removes the category. Tasks referencing it are left untouched.
func (s *CategoryStore) Delete(ctx context.Context, id string) error {
	return s.c.remove(ctx, id)
}

// Close rejects further mutations and unsubscribes every listener
func (s *CategoryStore) Close() {
	s.c.close()
}

func nameTaken(categories []model.Category, name, exceptID string) bool {
	for _, c := range categories {
		if c.ID != exceptID && model.SameName(c.Name, name) {
			return true
		}
	}
	return false
}
