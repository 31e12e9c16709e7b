package server

import (
	"errors"
	"net/http"

	"github.com/existflow/taskdeck/internal/logger"
	"github.com/existflow/taskdeck/internal/model"
	"github.com/existflow/taskdeck/internal/store"
	"github.com/labstack/echo/v4"
)

type errorResponse struct {
	Error string `json:"error"`
	Field string `json:"field,omitempty"`
}

// statusFor maps domain errors onto HTTP status codes
func statusFor(err error) int {
	var he *echo.HTTPError
	switch {
	case errors.As(err, &he):
		return he.Code
	case store.IsNotFound(err):
		return http.StatusNotFound
	case store.IsDuplicateName(err):
		return http.StatusConflict
	case model.IsValidation(err):
		return http.StatusBadRequest
	case errors.Is(err, store.ErrClosed):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// respondError writes err as {"error": ...} with the matching status
func (s *Server) respondError(c echo.Context, err error) error {
	code := statusFor(err)
	resp := errorResponse{Error: err.Error()}

	var ve model.ValidationError
	if errors.As(err, &ve) {
		resp.Field = ve.Field
	}
	var he *echo.HTTPError
	if errors.As(err, &he) {
		if msg, ok := he.Message.(string); ok {
			resp.Error = msg
		}
	}

	if code >= http.StatusInternalServerError {
		s.log.Error("Request failed",
			logger.F("uri", c.Request().RequestURI),
			logger.F("error", err))
		if store.IsPersistence(err) {
			resp.Error = "failed to save changes"
		}
	}
	return c.JSON(code, resp)
}

func notFound(kind, id string) error {
	return store.NotFoundError{Kind: kind, ID: id}
}
