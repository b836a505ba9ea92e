package handler

import (
	"github.com/labstack/echo/v4"

	"lostfound/internal/domain/entity"
	"lostfound/internal/usecase"
	"lostfound/pkg/errors"
	"lostfound/pkg/response"
	"lostfound/pkg/utils"
)

type AdminHandler struct {
	lifecycleUseCase *usecase.LifecycleUseCase
	dashboardUseCase *usecase.DashboardUseCase
	reportUseCase    *usecase.ReportUseCase
}

func NewAdminHandler(
	lifecycleUseCase *usecase.LifecycleUseCase,
	dashboardUseCase *usecase.DashboardUseCase,
	reportUseCase *usecase.ReportUseCase,
) *AdminHandler {
	return &AdminHandler{
		lifecycleUseCase: lifecycleUseCase,
		dashboardUseCase: dashboardUseCase,
		reportUseCase:    reportUseCase,
	}
}

// Me returns the signed-in admin's user document.
func (h *AdminHandler) Me(c echo.Context) error {
	user, ok := c.Get("user").(*entity.User)
	if !ok {
		return response.Error(c, errors.Unauthorized("Authentication required", nil))
	}
	return response.Success(c, user)
}

func (h *AdminHandler) GetDashboard(c echo.Context) error {
	return response.Success(c, h.dashboardUseCase.Stats())
}

func (h *AdminHandler) ListReports(c echo.Context) error {
	return response.Success(c, h.dashboardUseCase.ReportRows())
}

func (h *AdminHandler) ListHistory(c echo.Context) error {
	pagination := utils.GetPaginationParams(c)

	items, total := h.dashboardUseCase.History(pagination.Offset, pagination.PageSize)

	return response.Paginated(c, items, int64(total), pagination.Page, pagination.PageSize)
}

func (h *AdminHandler) CreateReturnedReport(c echo.Context) error {
	var req createReportRequest
	if err := c.Bind(&req); err != nil {
		return response.Error(c, errors.BadRequest("Invalid request body", err))
	}

	if err := c.Validate(&req); err != nil {
		return response.Error(c, err)
	}

	report, err := h.reportUseCase.CreateReturnedReport(c.Request().Context(), req.input(), c.Get("uid").(string))
	if err != nil {
		return response.Error(c, err)
	}

	return response.Created(c, report)
}

func (h *AdminHandler) ConfirmFound(c echo.Context) error {
	reportID := c.Param("id")
	if reportID == "" {
		return response.Error(c, errors.BadRequest("Report ID is required", nil))
	}

	report, err := h.lifecycleUseCase.ConfirmFound(c.Request().Context(), reportID, c.Get("uid").(string))
	if err != nil {
		return response.Error(c, err)
	}

	return response.Success(c, report)
}

func (h *AdminHandler) ArchiveReport(c echo.Context) error {
	collection, ok := entity.ParseCollection(c.Param("collection"))
	if !ok {
		return response.Error(c, errors.BadRequest("Unknown collection", nil))
	}

	report, err := h.lifecycleUseCase.ArchiveToHistory(c.Request().Context(), collection, c.Param("id"))
	if err != nil {
		return response.Error(c, err)
	}

	return response.Success(c, report)
}

func (h *AdminHandler) DeleteReport(c echo.Context) error {
	collection, ok := entity.ParseCollection(c.Param("collection"))
	if !ok {
		return response.Error(c, errors.BadRequest("Unknown collection", nil))
	}

	id := c.Param("id")
	if err := h.lifecycleUseCase.DeleteReport(c.Request().Context(), collection, id); err != nil {
		return response.Error(c, err)
	}

	return response.Success(c, map[string]string{
		"message":    "Report deleted",
		"id":         id,
		"collection": string(collection),
	})
}

func (h *AdminHandler) Reconcile(c echo.Context) error {
	result, err := h.lifecycleUseCase.Reconcile(c.Request().Context())
	if err != nil {
		return response.Error(c, err)
	}

	return response.Success(c, result)
}
