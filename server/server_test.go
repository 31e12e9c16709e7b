package server

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/existflow/taskdeck/internal/app"
	"github.com/existflow/taskdeck/internal/config"
	"github.com/existflow/taskdeck/internal/kv"
	"github.com/existflow/taskdeck/internal/logger"
	"github.com/existflow/taskdeck/internal/model"
	"github.com/existflow/taskdeck/internal/views"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testNow = time.Date(2026, 3, 10, 9, 0, 0, 0, time.Local)

// flakyKV fails every write while broken is set
type flakyKV struct {
	*kv.Memory
	broken bool
}

func (f *flakyKV) Put(ctx context.Context, key string, value []byte) error {
	if f.broken {
		return errors.New("disk full")
	}
	return f.Memory.Put(ctx, key, value)
}

func newTestServer(t *testing.T, backend kv.Store) (*Server, *app.App) {
	t.Helper()
	t.Setenv("TASKDECK_HOME", t.TempDir())
	if backend == nil {
		backend = kv.NewMemory()
	}
	cfg := config.DefaultConfig()
	cfg.Storage = config.StorageMemory
	cfg.Encrypt = false

	a, err := app.Open(context.Background(), cfg,
		app.WithBackend(backend),
		app.WithClock(func() time.Time { return testNow }),
		app.WithLogger(logger.Nop()))
	require.NoError(t, err)
	t.Cleanup(func() { _ = a.Close() })
	return New(a, logger.Nop()), a
}

func do(t *testing.T, s *Server, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	s.Router().ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

func createCategory(t *testing.T, s *Server, name string) model.Category {
	t.Helper()
	rec := do(t, s, http.MethodPost, "/api/v1/categories", `{"name":"`+name+`"}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	return decode[model.Category](t, rec)
}

func createTask(t *testing.T, s *Server, body string) model.Task {
	t.Helper()
	rec := do(t, s, http.MethodPost, "/api/v1/tasks", body)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	return decode[model.Task](t, rec)
}

func TestHealth(t *testing.T) {
	s, _ := newTestServer(t, nil)
	rec := do(t, s, http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

func TestCategoryEndpoints(t *testing.T) {
	s, _ := newTestServer(t, nil)

	work := createCategory(t, s, "Work")
	assert.Equal(t, model.DefaultCategoryColor, work.Color)
	assert.NotEmpty(t, work.ID)

	rec := do(t, s, http.MethodPost, "/api/v1/categories", `{"name":"WORK"}`)
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = do(t, s, http.MethodPost, "/api/v1/categories", `{"name":"  "}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "name", decode[errorResponse](t, rec).Field)

	rec = do(t, s, http.MethodPatch, "/api/v1/categories/"+work.ID, `{"name":"Office","color":"#000000"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Office", decode[model.Category](t, rec).Name)

	rec = do(t, s, http.MethodPatch, "/api/v1/categories/"+work.ID, `{}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, s, http.MethodPatch, "/api/v1/categories/missing", `{"name":"X"}`)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = do(t, s, http.MethodGet, "/api/v1/categories/missing", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, decode[errorResponse](t, rec).Error, "category not found")

	rec = do(t, s, http.MethodGet, "/api/v1/categories", "")
	require.Equal(t, http.StatusOK, rec.Code)
	list := decode[categoryListResponse](t, rec)
	require.Equal(t, 1, list.Total)
	assert.Equal(t, "Office", list.Categories[0].Name)

	rec = do(t, s, http.MethodDelete, "/api/v1/categories/"+work.ID, "")
	assert.Equal(t, http.StatusNoContent, rec.Code)
	rec = do(t, s, http.MethodGet, "/api/v1/categories/"+work.ID, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestTaskEndpoints(t *testing.T) {
	s, a := newTestServer(t, nil)
	work := createCategory(t, s, "Work")

	task := createTask(t, s, `{"title":"Write report","dueDate":"tomorrow","priority":"high","categoryId":"`+work.ID+`"}`)
	assert.Equal(t, model.PriorityHigh, task.Priority)
	assert.Equal(t, model.StatusNotStarted, task.Status)
	assert.Equal(t, work.ID, task.CategoryID)
	assert.True(t, task.CreatedAt.Equal(testNow))

	rec := do(t, s, http.MethodGet, "/api/v1/tasks/"+task.ID, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Write report", decode[model.Task](t, rec).Title)

	rec = do(t, s, http.MethodPatch, "/api/v1/tasks/"+task.ID, `{"status":"done","title":"Final report"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	updated := decode[model.Task](t, rec)
	assert.Equal(t, model.StatusCompleted, updated.Status)
	assert.Equal(t, "Final report", updated.Title)

	got, ok := a.Tasks.Get(task.ID)
	require.True(t, ok)
	assert.Equal(t, model.StatusCompleted, got.Status)

	rec = do(t, s, http.MethodPatch, "/api/v1/tasks/"+task.ID, `{}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, s, http.MethodPatch, "/api/v1/tasks/missing", `{"title":"x"}`)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = do(t, s, http.MethodDelete, "/api/v1/tasks/"+task.ID, "")
	assert.Equal(t, http.StatusNoContent, rec.Code)
	rec = do(t, s, http.MethodDelete, "/api/v1/tasks/"+task.ID, "")
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Empty(t, a.Tasks.Snapshot())
}

func TestCreateTaskValidation(t *testing.T) {
	s, _ := newTestServer(t, nil)
	work := createCategory(t, s, "Work")
	cat := `"categoryId":"` + work.ID + `"`

	tests := []struct {
		name  string
		body  string
		field string
	}{
		{"missing title", `{"dueDate":"tomorrow",` + cat + `}`, "title"},
		{"long title", `{"title":"` + strings.Repeat("x", 101) + `","dueDate":"tomorrow",` + cat + `}`, "title"},
		{"missing due date", `{"title":"x",` + cat + `}`, "dueDate"},
		{"past due date", `{"title":"x","dueDate":"2001-01-01",` + cat + `}`, "dueDate"},
		{"unparseable due date", `{"title":"x","dueDate":"soon",` + cat + `}`, "dueDate"},
		{"unknown category", `{"title":"x","dueDate":"tomorrow","categoryId":"nope"}`, "categoryId"},
		{"bad priority", `{"title":"x","dueDate":"tomorrow","priority":"urgent",` + cat + `}`, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(t, s, http.MethodPost, "/api/v1/tasks", tt.body)
			require.Equal(t, http.StatusBadRequest, rec.Code, rec.Body.String())
			if tt.field != "" {
				assert.Equal(t, tt.field, decode[errorResponse](t, rec).Field)
			}
		})
	}

	rec := do(t, s, http.MethodPost, "/api/v1/tasks", `{not json`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestListTasksFilters(t *testing.T) {
	s, _ := newTestServer(t, nil)
	work := createCategory(t, s, "Work")
	home := createCategory(t, s, "Home")
	createTask(t, s, `{"title":"Low chore","dueDate":"+2d","priority":"low","categoryId":"`+home.ID+`"}`)
	createTask(t, s, `{"title":"Urgent fix","dueDate":"+1d","priority":"high","status":"doing","categoryId":"`+work.ID+`"}`)

	list := func(query string) taskListResponse {
		rec := do(t, s, http.MethodGet, "/api/v1/tasks"+query, "")
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		return decode[taskListResponse](t, rec)
	}

	assert.Equal(t, 2, list("").Total)
	assert.Equal(t, "Urgent fix", list("?sort=display").Tasks[0].Title)
	assert.Equal(t, 1, list("?category="+home.ID).Total)
	assert.Equal(t, 1, list("?status=doing").Total)
	assert.Equal(t, 1, list("?priority=HIGH").Total)
	assert.Equal(t, 1, list("?q=chore").Total)
	assert.Equal(t, 0, list("?overdue=true").Total)

	empty := list("?q=nothing")
	assert.NotNil(t, empty.Tasks)

	rec := do(t, s, http.MethodGet, "/api/v1/tasks?status=blocked", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	rec = do(t, s, http.MethodGet, "/api/v1/tasks?overdue=maybe", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestStatsAndDashboard(t *testing.T) {
	s, _ := newTestServer(t, nil)
	work := createCategory(t, s, "Work")
	done := createTask(t, s, `{"title":"A","dueDate":"+1d","categoryId":"`+work.ID+`"}`)
	createTask(t, s, `{"title":"B","dueDate":"+1d","categoryId":"`+work.ID+`"}`)
	do(t, s, http.MethodPatch, "/api/v1/tasks/"+done.ID, `{"status":"completed"}`)

	rec := do(t, s, http.MethodGet, "/api/v1/stats", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, views.Stats{CompletedPct: 50, PendingPct: 50}, decode[views.Stats](t, rec))

	rec = do(t, s, http.MethodGet, "/api/v1/dashboard", "")
	require.Equal(t, http.StatusOK, rec.Code)
	d := decode[views.Dashboard](t, rec)
	assert.Equal(t, 1, d.Statuses.Completed)
	assert.Equal(t, 1, d.Statuses.NotStarted)
	require.Len(t, d.Categories, 1)
	assert.Equal(t, 2, d.Categories[0].TaskCount)
	assert.Len(t, d.Timeline, views.TimelineDays)
}

func TestPersistenceFailureIs500(t *testing.T) {
	backend := &flakyKV{Memory: kv.NewMemory()}
	s, a := newTestServer(t, backend)
	work := createCategory(t, s, "Work")

	backend.broken = true
	rec := do(t, s, http.MethodPost, "/api/v1/tasks", `{"title":"x","dueDate":"tomorrow","categoryId":"`+work.ID+`"}`)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "failed to save changes", decode[errorResponse](t, rec).Error)
	assert.Empty(t, a.Tasks.Snapshot())
}

func TestStatsStream(t *testing.T) {
	s, a := newTestServer(t, nil)
	work := createCategory(t, s, "Work")
	task := createTask(t, s, `{"title":"A","dueDate":"+1d","categoryId":"`+work.ID+`"}`)

	ts := httptest.NewServer(s.Router())
	defer ts.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, ts.URL+"/api/v1/stats/stream", nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))

	reader := bufio.NewReader(resp.Body)
	next := func() views.Stats {
		for {
			line, err := reader.ReadString('\n')
			require.NoError(t, err)
			if data, ok := strings.CutPrefix(line, "data: "); ok {
				var st views.Stats
				require.NoError(t, json.Unmarshal([]byte(data), &st))
				return st
			}
		}
	}

	assert.Equal(t, 100, next().PendingPct)

	_, err = a.Tasks.SetStatus(context.Background(), task.ID, model.StatusCompleted)
	require.NoError(t, err)
	assert.Equal(t, 100, next().CompletedPct)
}
