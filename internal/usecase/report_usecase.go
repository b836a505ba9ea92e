package usecase

import (
	"context"
	"io"
	"net/http"
	"strings"
	"time"

	"lostfound/internal/domain/entity"
	"lostfound/internal/domain/repository"
	"lostfound/pkg/errors"
	"lostfound/pkg/logger"
)

var allowedPhotoTypes = map[string]bool{
	"image/jpeg": true,
	"image/jpg":  true,
	"image/png":  true,
	"image/gif":  true,
	"image/webp": true,
}

type CreateReportInput struct {
	NamaBarang string
	Kategori   string
	Foto       string
	Deskripsi  string
	Lokasi     string
	Tanggal    *time.Time
}

// ReportUseCase is the intake side: reporters file lost items, admins record
// items handed in directly as returned.
type ReportUseCase struct {
	store  repository.ReportRepository
	photos PhotoStore
	log    logger.Logger
}

func NewReportUseCase(store repository.ReportRepository, photos PhotoStore, log logger.Logger) *ReportUseCase {
	if log == nil {
		log = logger.New("report_intake")
	}
	return &ReportUseCase{
		store:  store,
		photos: photos,
		log:    log,
	}
}

func (uc *ReportUseCase) CreateLostReport(ctx context.Context, input CreateReportInput) (*entity.Report, error) {
	report := input.toReport()
	report.CreatedAt = entity.ServerTime()
	if report.Tanggal == nil {
		report.Tanggal = entity.ServerTime()
	}

	id, err := uc.store.Create(ctx, entity.CollectionLost, report)
	if err != nil {
		uc.log.Error("Saving lost report failed", "error", err)
		return nil, errors.MutationFailed("save lost report", err)
	}

	report.ID = id
	report.Type = entity.ReportTypeLost
	uc.log.Info("Lost report saved", "id", id, "kategori", report.Kategori)
	return withoutPendingTimes(report), nil
}

// CreateReturnedReport records an item that was handed to an admin without a
// prior lost report.
func (uc *ReportUseCase) CreateReturnedReport(ctx context.Context, input CreateReportInput, adminUID string) (*entity.Report, error) {
	report := input.toReport().AsReturned(adminUID)

	id, err := uc.store.Create(ctx, entity.CollectionReturned, report)
	if err != nil {
		uc.log.Error("Saving returned report failed", "admin", adminUID, "error", err)
		return nil, errors.MutationFailed("save returned report", err)
	}

	report.ID = id
	report.Type = entity.ReportTypeReturned
	uc.log.Info("Returned report saved", "id", id, "admin", adminUID)
	return withoutPendingTimes(report), nil
}

func (uc *ReportUseCase) UploadPhoto(ctx context.Context, file io.Reader, contentType string) (string, error) {
	if uc.photos == nil {
		return "", errors.New("SERVICE_UNAVAILABLE", "photo uploads are not configured", http.StatusServiceUnavailable, nil)
	}

	contentType = strings.ToLower(strings.TrimSpace(contentType))
	if !allowedPhotoTypes[contentType] {
		return "", errors.BadRequest("photo must be a JPEG, PNG, GIF or WebP image", nil)
	}

	url, err := uc.photos.UploadPhoto(ctx, file, contentType)
	if err != nil {
		uc.log.Error("Photo upload failed", "error", err)
		return "", errors.Internal("failed to upload photo", err)
	}
	return url, nil
}

func (in CreateReportInput) toReport() *entity.Report {
	r := &entity.Report{
		NamaBarang: strings.TrimSpace(in.NamaBarang),
		Kategori:   strings.TrimSpace(in.Kategori),
		Foto:       strings.TrimSpace(in.Foto),
		Deskripsi:  strings.TrimSpace(in.Deskripsi),
		Lokasi:     strings.TrimSpace(in.Lokasi),
	}
	if in.Tanggal != nil && !in.Tanggal.IsZero() {
		t := *in.Tanggal
		r.Tanggal = &t
	}
	return r
}

// withoutPendingTimes drops timestamps the store has not resolved yet, so
// callers never see the zero time.
func withoutPendingTimes(r *entity.Report) *entity.Report {
	for _, field := range []**time.Time{&r.Tanggal, &r.CreatedAt, &r.ReturnedAt, &r.TakenAt} {
		if entity.IsServerTime(*field) {
			*field = nil
		}
	}
	return r
}
