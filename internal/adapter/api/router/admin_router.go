package router

import (
	"github.com/labstack/echo/v4"

	"lostfound/internal/adapter/api/handler"
	"lostfound/internal/adapter/api/middleware"
)

func SetupAdminRouter(e *echo.Echo, authMiddleware *middleware.AuthMiddleware, adminMiddleware *middleware.AdminMiddleware) {
	adminHandler := handler.GetAdminHandler()

	// Admin routes - require authentication and admin role
	admin := e.Group("/v1/admin")
	admin.Use(authMiddleware.Authenticate)
	admin.Use(adminMiddleware.AdminOnly)

	admin.GET("/me", adminHandler.Me)
	admin.GET("/dashboard", adminHandler.GetDashboard)
	admin.GET("/reports", adminHandler.ListReports)
	admin.GET("/reports/history", adminHandler.ListHistory)

	admin.POST("/reports/returned", adminHandler.CreateReturnedReport)
	admin.POST("/reports/lost/:id/confirm", adminHandler.ConfirmFound)
	admin.POST("/reports/:collection/:id/archive", adminHandler.ArchiveReport)
	admin.DELETE("/reports/:collection/:id", adminHandler.DeleteReport)
	admin.POST("/reports/reconcile", adminHandler.Reconcile)
}
