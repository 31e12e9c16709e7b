package server

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/existflow/taskdeck/internal/logger"
	"github.com/existflow/taskdeck/internal/stream"
	"github.com/existflow/taskdeck/internal/views"
	"github.com/labstack/echo/v4"
)

// keepAliveInterval spaces SSE comments so idle proxies keep the stream open
const keepAliveInterval = 30 * time.Second

func (s *Server) handleStats(c echo.Context) error {
	return c.JSON(http.StatusOK, views.Statistics(s.app.Tasks.Snapshot(), s.app.Now()))
}

func (s *Server) handleDashboard(c echo.Context) error {
	return c.JSON(http.StatusOK, s.app.DashboardSnapshot())
}

// handleStatsStream pushes the statistics as server-sent events, starting
// with the current value and then after every task change
func (s *Server) handleStatsStream(c echo.Context) error {
	ctx := c.Request().Context()
	updates := stream.Channel(ctx, s.app.Tasks.Statistics(), 1)

	res := c.Response()
	res.Header().Set(echo.HeaderContentType, "text/event-stream")
	res.Header().Set("Cache-Control", "no-cache")
	res.Header().Set("Connection", "keep-alive")
	res.WriteHeader(http.StatusOK)
	res.Flush()

	ticker := time.NewTicker(keepAliveInterval)
	defer ticker.Stop()

	s.log.Debug("Stats stream opened", logger.F("remote", c.RealIP()))
	for {
		select {
		case stats, ok := <-updates:
			if !ok {
				s.log.Debug("Stats stream closed", logger.F("remote", c.RealIP()))
				return nil
			}
			data, err := json.Marshal(stats)
			if err != nil {
				return err
			}
			if _, err := fmt.Fprintf(res, "event: stats\ndata: %s\n\n", data); err != nil {
				return nil
			}
			res.Flush()
		case <-ticker.C:
			if _, err := fmt.Fprint(res, ": keep-alive\n\n"); err != nil {
				return nil
			}
			res.Flush()
		}
	}
}
