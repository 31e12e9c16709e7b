package server

import (
	"time"

	"github.com/existflow/taskdeck/internal/logger"
	"github.com/labstack/echo/v4"
)

// requestLogger logs every request and its response
func (s *Server) requestLogger(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		start := time.Now()
		req := c.Request()

		s.log.Debug("HTTP Request",
			logger.F("method", req.Method),
			logger.F("uri", req.RequestURI),
			logger.F("remote", req.RemoteAddr))

		err := next(c)
		if err != nil {
			// Let echo write the error so the logged status is the real one
			c.Error(err)
		}

		res := c.Response()
		s.log.Info("HTTP Response",
			logger.F("method", req.Method),
			logger.F("uri", req.RequestURI),
			logger.F("status", res.Status),
			logger.F("size", res.Size),
			logger.F("duration", time.Since(start).String()))

		return nil
	}
}
