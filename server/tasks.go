package server

import (
	"net/http"
	"strconv"
	"time"

	"github.com/existflow/taskdeck/internal/model"
	"github.com/existflow/taskdeck/internal/views"
	"github.com/labstack/echo/v4"
)

// createTaskRequest accepts the same due date forms as the CLI
type createTaskRequest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	DueDate     string `json:"dueDate"`
	Priority    string `json:"priority"`
	Status      string `json:"status"`
	CategoryID  string `json:"categoryId"`
}

type updateTaskRequest struct {
	Title       *string `json:"title"`
	Description *string `json:"description"`
	DueDate     *string `json:"dueDate"`
	Priority    *string `json:"priority"`
	Status      *string `json:"status"`
	CategoryID  *string `json:"categoryId"`
}

type taskListResponse struct {
	Tasks []model.Task `json:"tasks"`
	Total int          `json:"total"`
}

func (s *Server) handleListTasks(c echo.Context) error {
	filter := views.Filter{
		CategoryID: c.QueryParam("category"),
		Term:       c.QueryParam("q"),
	}
	if v := c.QueryParam("status"); v != "" {
		st, err := model.ParseStatus(v)
		if err != nil {
			return s.respondError(c, err)
		}
		filter.Status = st
	}
	if v := c.QueryParam("priority"); v != "" {
		p, err := model.ParsePriority(v)
		if err != nil {
			return s.respondError(c, err)
		}
		filter.Priority = p
	}
	if v := c.QueryParam("overdue"); v != "" {
		overdue, err := strconv.ParseBool(v)
		if err != nil {
			return s.respondError(c, echo.NewHTTPError(http.StatusBadRequest, "overdue must be true or false"))
		}
		if overdue {
			filter.OverdueAt = s.app.Now()
		}
	}

	tasks := filter.Apply(s.app.Tasks.Snapshot())
	if c.QueryParam("sort") == "display" {
		tasks = views.SortForDisplay(tasks)
	}
	if tasks == nil {
		tasks = []model.Task{}
	}
	return c.JSON(http.StatusOK, taskListResponse{Tasks: tasks, Total: len(tasks)})
}

func (s *Server) handleGetTask(c echo.Context) error {
	id := c.Param("id")
	t, ok := s.app.Tasks.Get(id)
	if !ok {
		return s.respondError(c, notFound("task", id))
	}
	return c.JSON(http.StatusOK, t)
}

func (s *Server) handleCreateTask(c echo.Context) error {
	var req createTaskRequest
	if err := c.Bind(&req); err != nil {
		return s.respondError(c, err)
	}

	now := s.app.Now()
	fields := model.TaskFields{
		Title:       req.Title,
		Description: req.Description,
		Priority:    model.PriorityMedium,
		Status:      model.StatusNotStarted,
		CategoryID:  req.CategoryID,
	}
	if req.DueDate != "" {
		due, err := model.ParseDueDate(req.DueDate, now, time.Local)
		if err != nil {
			return s.respondError(c, err)
		}
		fields.DueDate = due
	}
	if req.Priority != "" {
		p, err := model.ParsePriority(req.Priority)
		if err != nil {
			return s.respondError(c, err)
		}
		fields.Priority = p
	}
	if req.Status != "" {
		st, err := model.ParseStatus(req.Status)
		if err != nil {
			return s.respondError(c, err)
		}
		fields.Status = st
	}

	if err := model.ValidateNewTask(fields, now); err != nil {
		return s.respondError(c, err)
	}
	if err := s.checkCategory(fields.CategoryID); err != nil {
		return s.respondError(c, err)
	}

	t, err := s.app.Tasks.Add(c.Request().Context(), fields)
	if err != nil {
		return s.respondError(c, err)
	}
	return c.JSON(http.StatusCreated, t)
}

func (s *Server) handleUpdateTask(c echo.Context) error {
	id := c.Param("id")
	var req updateTaskRequest
	if err := c.Bind(&req); err != nil {
		return s.respondError(c, err)
	}

	now := s.app.Now()
	patch := model.TaskPatch{
		Title:       req.Title,
		Description: req.Description,
		CategoryID:  req.CategoryID,
	}
	if req.DueDate != nil {
		due, err := model.ParseDueDate(*req.DueDate, now, time.Local)
		if err != nil {
			return s.respondError(c, err)
		}
		patch.DueDate = &due
	}
	if req.Priority != nil {
		p, err := model.ParsePriority(*req.Priority)
		if err != nil {
			return s.respondError(c, err)
		}
		patch.Priority = &p
	}
	if req.Status != nil {
		st, err := model.ParseStatus(*req.Status)
		if err != nil {
			return s.respondError(c, err)
		}
		patch.Status = &st
	}

	if patch.IsEmpty() {
		return s.respondError(c, echo.NewHTTPError(http.StatusBadRequest, "nothing to change"))
	}
	if err := model.ValidateTaskPatch(patch, now); err != nil {
		return s.respondError(c, err)
	}
	if patch.CategoryID != nil {
		if err := s.checkCategory(*patch.CategoryID); err != nil {
			return s.respondError(c, err)
		}
	}

	t, err := s.app.Tasks.Update(c.Request().Context(), id, patch)
	if err != nil {
		return s.respondError(c, err)
	}
	return c.JSON(http.StatusOK, t)
}

// handleDeleteTask succeeds for unknown ids too
func (s *Server) handleDeleteTask(c echo.Context) error {
	if err := s.app.Tasks.Delete(c.Request().Context(), c.Param("id")); err != nil {
		return s.respondError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

func (s *Server) checkCategory(id string) error {
	if _, ok := s.app.Categories.Get(id); !ok {
		return model.ValidationError{Field: "categoryId", Message: "does not match any category"}
	}
	return nil
}
