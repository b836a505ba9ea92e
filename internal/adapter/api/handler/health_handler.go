package handler

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"lostfound/internal/usecase"
)

type FeedStatusProvider interface {
	Status() usecase.FeedStatus
}

type HealthHandler struct {
	feed FeedStatusProvider
}

func NewHealthHandler(feed FeedStatusProvider) *HealthHandler {
	return &HealthHandler{
		feed: feed,
	}
}

// CheckHealth reports liveness. A failing subscription degrades the status
// but the process keeps serving the last known data.
func (h *HealthHandler) CheckHealth(c echo.Context) error {
	feed := h.feed.Status()

	status := "ok"
	switch {
	case feed.Err() != nil:
		status = "degraded"
	case !feed.Synced:
		status = "starting"
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"status": status,
		"time":   time.Now().Format(time.RFC3339),
		"feed":   feed,
	})
}
