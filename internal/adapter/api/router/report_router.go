package router

import (
	"github.com/labstack/echo/v4"

	"lostfound/internal/adapter/api/handler"
	"lostfound/internal/adapter/api/middleware"
	"lostfound/internal/infrastructure/ratelimit"
)

// SetupReportRouter exposes the public intake form. No sign-in is needed to
// file a lost report, so writes are throttled per client IP.
func SetupReportRouter(e *echo.Echo, limiter *ratelimit.RateLimiter) {
	reportHandler := handler.GetReportHandler()

	reports := e.Group("/v1/reports")
	if limiter != nil {
		reports.Use(middleware.RateLimit(limiter))
	}

	reports.POST("", reportHandler.CreateLostReport)
	reports.POST("/photo", reportHandler.UploadPhoto)
}
