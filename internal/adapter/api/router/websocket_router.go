package router

import (
	"github.com/labstack/echo/v4"

	"lostfound/internal/adapter/api/handler"
	"lostfound/internal/adapter/api/middleware"
)

// SetupWebSocketRouter mounts the live dashboard stream. Browsers cannot set
// headers on a websocket handshake, so the ID token rides in ?token=.
func SetupWebSocketRouter(e *echo.Echo, authMiddleware *middleware.AuthMiddleware, adminMiddleware *middleware.AdminMiddleware) {
	wsHandler := handler.GetWebSocketHandler()
	e.GET("/ws", wsHandler.HandleWebSocket, authMiddleware.AuthenticateQuery, adminMiddleware.AdminOnly)
}
