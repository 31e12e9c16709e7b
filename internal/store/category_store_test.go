package store

import (
	"context"
	"testing"

	"github.com/existflow/taskdeck/internal/kv"
	"github.com/existflow/taskdeck/internal/logger"
	"github.com/existflow/taskdeck/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newCategoryStore(t *testing.T, backend kv.Store) *CategoryStore {
	t.Helper()
	s := NewCategoryStore(context.Background(), backend, WithLogger(logger.Nop()))
	t.Cleanup(s.Close)
	return s
}

func TestCategoryAddRejectsDuplicateNames(t *testing.T) {
	ctx := context.Background()
	backend := kv.NewMemory()
	s := newCategoryStore(t, backend)

	work, err := s.Add(ctx, model.CategoryFields{Name: "Work", Color: "#ff0000"})
	require.NoError(t, err)
	require.NotEmpty(t, work.ID)

	before, err := backend.Get(ctx, CategoriesKey)
	require.NoError(t, err)

	_, err = s.Add(ctx, model.CategoryFields{Name: "work"})
	var dup DuplicateNameError
	require.ErrorAs(t, err, &dup)
	assert.Equal(t, "work", dup.Name)
	assert.True(t, IsDuplicateName(err))

	after, err := backend.Get(ctx, CategoriesKey)
	require.NoError(t, err)
	assert.Equal(t, before, after)
	assert.Len(t, s.Snapshot(), 1)
}

func TestCategoryDuplicateCheckRunsBeforeIDGeneration(t *testing.T) {
	ctx := context.Background()
	generated := 0
	s := NewCategoryStore(ctx, kv.NewMemory(),
		WithLogger(logger.Nop()),
		WithIDGenerator(func() string {
			generated++
			return "id-" + string(rune('a'+generated))
		}))
	defer s.Close()

	_, err := s.Add(ctx, model.CategoryFields{Name: "Home"})
	require.NoError(t, err)
	_, err = s.Add(ctx, model.CategoryFields{Name: "HOME"})
	require.Error(t, err)

	assert.Equal(t, 1, generated)
}

func TestCategoryRename(t *testing.T) {
	ctx := context.Background()
	s := newCategoryStore(t, kv.NewMemory())

	work, err := s.Add(ctx, model.CategoryFields{Name: "Work", Color: "#111111"})
	require.NoError(t, err)
	home, err := s.Add(ctx, model.CategoryFields{Name: "Home", Color: "#222222"})
	require.NoError(t, err)

	// Changing only the case of its own name is allowed
	name := "WORK"
	renamed, err := s.Update(ctx, work.ID, model.CategoryPatch{Name: &name})
	require.NoError(t, err)
	assert.Equal(t, "WORK", renamed.Name)
	assert.Equal(t, "#111111", renamed.Color)

	clash := "work"
	_, err = s.Update(ctx, home.ID, model.CategoryPatch{Name: &clash})
	assert.True(t, IsDuplicateName(err))

	got, ok := s.Get(home.ID)
	require.True(t, ok)
	assert.Equal(t, "Home", got.Name)

	color := "#333333"
	recolored, err := s.Update(ctx, home.ID, model.CategoryPatch{Color: &color})
	require.NoError(t, err)
	assert.Equal(t, "Home", recolored.Name)
	assert.Equal(t, "#333333", recolored.Color)
}

func TestCategoryUpdateMissing(t *testing.T) {
	s := newCategoryStore(t, kv.NewMemory())
	name := "x"
	_, err := s.Update(context.Background(), "nope", model.CategoryPatch{Name: &name})

	var nf NotFoundError
	require.ErrorAs(t, err, &nf)
	assert.Equal(t, "category", nf.Kind)
}

func TestCategoryDeleteDoesNotCascade(t *testing.T) {
	ctx := context.Background()
	backend := kv.NewMemory()
	categories := newCategoryStore(t, backend)
	tasks := newTaskStore(t, backend, newFakeClock())

	work, err := categories.Add(ctx, model.CategoryFields{Name: "Work"})
	require.NoError(t, err)
	f := sampleFields("orphan soon")
	f.CategoryID = work.ID
	task, err := tasks.Add(ctx, f)
	require.NoError(t, err)

	require.NoError(t, categories.Delete(ctx, work.ID))
	_, ok := categories.Get(work.ID)
	assert.False(t, ok)

	stillThere, ok := tasks.Get(task.ID)
	require.True(t, ok)
	assert.Equal(t, work.ID, stillThere.CategoryID)

	require.NoError(t, categories.Delete(ctx, work.ID))
}

func TestCategoryFindByName(t *testing.T) {
	ctx := context.Background()
	s := newCategoryStore(t, kv.NewMemory())
	created, err := s.Add(ctx, model.CategoryFields{Name: "Errands"})
	require.NoError(t, err)

	got, ok := s.FindByName("errands")
	require.True(t, ok)
	assert.Equal(t, created, got)

	_, ok = s.FindByName("missing")
	assert.False(t, ok)
}

func TestCategoryPersistRoundTrip(t *testing.T) {
	ctx := context.Background()
	backend := kv.NewMemory()

	first := NewCategoryStore(ctx, backend, WithLogger(logger.Nop()))
	_, err := first.Add(ctx, model.CategoryFields{Name: "Work", Color: "#4ECDC4"})
	require.NoError(t, err)
	_, err = first.Add(ctx, model.CategoryFields{Name: "Home"})
	require.NoError(t, err)
	want := first.Snapshot()
	first.Close()

	second := newCategoryStore(t, backend)
	assert.Equal(t, want, second.Snapshot())
}
