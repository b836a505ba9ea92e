package handler

import (
	ws "lostfound/internal/infrastructure/websocket"
	"lostfound/internal/usecase"
)

var (
	reportHandler    *ReportHandler
	adminHandler     *AdminHandler
	healthHandler    *HealthHandler
	websocketHandler *WebSocketHandler
)

func Setup(
	reportUseCase *usecase.ReportUseCase,
	lifecycleUseCase *usecase.LifecycleUseCase,
	dashboardUseCase *usecase.DashboardUseCase,
	feed FeedStatusProvider,
	wsManager *ws.Manager,
) {
	reportHandler = NewReportHandler(reportUseCase)
	adminHandler = NewAdminHandler(lifecycleUseCase, dashboardUseCase, reportUseCase)
	healthHandler = NewHealthHandler(feed)
	websocketHandler = NewWebSocketHandler(wsManager)
}

func GetReportHandler() *ReportHandler {
	return reportHandler
}

func GetAdminHandler() *AdminHandler {
	return adminHandler
}

func GetHealthHandler() *HealthHandler {
	return healthHandler
}

func GetWebSocketHandler() *WebSocketHandler {
	return websocketHandler
}
