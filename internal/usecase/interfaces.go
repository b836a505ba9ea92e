package usecase

import (
	"context"
	"io"

	"lostfound/internal/domain/entity"
)

type MetricsRecorder interface {
	ObserveTransition(action string, err error)
	SetCollectionSize(collection string, n int)
	IncSubscriptionError(collection string)
	IncReconciled(collection string)
}

type PhotoStore interface {
	UploadPhoto(ctx context.Context, file io.Reader, contentType string) (string, error)
	DeletePhoto(ctx context.Context, url string) error
	OwnsURL(url string) bool
}

// ReportSource answers lookups against the live record sets.
type ReportSource interface {
	Find(collection entity.Collection, id string) (*entity.Report, bool)
	Sets() entity.ReportSets
}

type noopMetrics struct{}

func (noopMetrics) ObserveTransition(string, error) {}
func (noopMetrics) SetCollectionSize(string, int) {}
func (noopMetrics) IncSubscriptionError(string) {}
func (noopMetrics) IncReconciled(string) {}
