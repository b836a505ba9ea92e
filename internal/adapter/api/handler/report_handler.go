package handler

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"lostfound/internal/usecase"
	"lostfound/pkg/errors"
	"lostfound/pkg/response"
)

const maxPhotoSize = 5 << 20

type ReportHandler struct {
	reportUseCase *usecase.ReportUseCase
}

func NewReportHandler(reportUseCase *usecase.ReportUseCase) *ReportHandler {
	return &ReportHandler{
		reportUseCase: reportUseCase,
	}
}

type createReportRequest struct {
	NamaBarang string     `json:"namaBarang" validate:"required,max=100"`
	Kategori   string     `json:"kategori" validate:"max=50"`
	Foto       string     `json:"foto" validate:"omitempty,url"`
	Deskripsi  string     `json:"deskripsi" validate:"max=1000"`
	Lokasi     string     `json:"lokasi" validate:"max=200"`
	Tanggal    *time.Time `json:"tanggal"`
}

func (r createReportRequest) input() usecase.CreateReportInput {
	return usecase.CreateReportInput{
		NamaBarang: r.NamaBarang,
		Kategori:   r.Kategori,
		Foto:       r.Foto,
		Deskripsi:  r.Deskripsi,
		Lokasi:     r.Lokasi,
		Tanggal:    r.Tanggal,
	}
}

func (h *ReportHandler) CreateLostReport(c echo.Context) error {
	var req createReportRequest
	if err := c.Bind(&req); err != nil {
		return response.Error(c, errors.BadRequest("Invalid request body", err))
	}

	if err := c.Validate(&req); err != nil {
		return response.Error(c, err)
	}

	report, err := h.reportUseCase.CreateLostReport(c.Request().Context(), req.input())
	if err != nil {
		return response.Error(c, err)
	}

	return response.Created(c, report)
}

func (h *ReportHandler) UploadPhoto(c echo.Context) error {
	c.Request().Body = http.MaxBytesReader(c.Response(), c.Request().Body, maxPhotoSize+1024)

	file, err := c.FormFile("foto")
	if err != nil {
		return response.Error(c, errors.BadRequest("foto is required", err))
	}
	if file.Size > maxPhotoSize {
		return response.Error(c, errors.BadRequest("foto must be at most 5 MB", nil))
	}

	src, err := file.Open()
	if err != nil {
		return response.Error(c, errors.BadRequest("Failed to read uploaded file", err))
	}
	defer src.Close()

	url, err := h.reportUseCase.UploadPhoto(c.Request().Context(), src, file.Header.Get("Content-Type"))
	if err != nil {
		return response.Error(c, err)
	}

	return response.Created(c, map[string]string{"url": url})
}
