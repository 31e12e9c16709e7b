package server

import (
	"net/http"

	"github.com/existflow/taskdeck/internal/model"
	"github.com/existflow/taskdeck/internal/views"
	"github.com/labstack/echo/v4"
)

type categoryListResponse struct {
	Categories []views.CategoryStat `json:"categories"`
	Total      int                  `json:"total"`
}

// handleListCategories returns every category with its task counts
func (s *Server) handleListCategories(c echo.Context) error {
	stats := views.CategoryBreakdown(s.app.Categories.Snapshot(), s.app.Tasks.Snapshot())
	return c.JSON(http.StatusOK, categoryListResponse{Categories: stats, Total: len(stats)})
}

func (s *Server) handleGetCategory(c echo.Context) error {
	id := c.Param("id")
	cat, ok := s.app.Categories.Get(id)
	if !ok {
		return s.respondError(c, notFound("category", id))
	}
	return c.JSON(http.StatusOK, cat)
}

func (s *Server) handleCreateCategory(c echo.Context) error {
	var req model.CategoryFields
	if err := c.Bind(&req); err != nil {
		return s.respondError(c, err)
	}
	if err := model.ValidateCategoryName(req.Name); err != nil {
		return s.respondError(c, err)
	}
	if req.Color == "" {
		req.Color = model.DefaultCategoryColor
	}

	cat, err := s.app.Categories.Add(c.Request().Context(), req)
	if err != nil {
		return s.respondError(c, err)
	}
	return c.JSON(http.StatusCreated, cat)
}

func (s *Server) handleUpdateCategory(c echo.Context) error {
	var patch model.CategoryPatch
	if err := c.Bind(&patch); err != nil {
		return s.respondError(c, err)
	}
	if patch.Name == nil && patch.Color == nil {
		return s.respondError(c, echo.NewHTTPError(http.StatusBadRequest, "nothing to change"))
	}
	if patch.Name != nil {
		if err := model.ValidateCategoryName(*patch.Name); err != nil {
			return s.respondError(c, err)
		}
	}

	cat, err := s.app.Categories.Update(c.Request().Context(), c.Param("id"), patch)
	if err != nil {
		return s.respondError(c, err)
	}
	return c.JSON(http.StatusOK, cat)
}

// handleDeleteCategory leaves the category's tasks in place
func (s *Server) handleDeleteCategory(c echo.Context) error {
	if err := s.app.Categories.Delete(c.Request().Context(), c.Param("id")); err != nil {
		return s.respondError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}
