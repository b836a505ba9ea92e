package repository

import (
	"context"
	"fmt"
	"time"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"lostfound/internal/domain/entity"
	"lostfound/internal/domain/repository"
	"lostfound/pkg/errors"
	"lostfound/pkg/logger"
)

type firestoreReportRepository struct {
	client *firestore.Client
	logger logger.Logger
}

// FirestoreReportRepository is the production record store. It also
// implements repository.ReportMover through Firestore transactions.
type FirestoreReportRepository interface {
	repository.ReportRepository
	repository.ReportMover
}

func NewFirestoreReportRepository(client *firestore.Client) FirestoreReportRepository {
	return &firestoreReportRepository{
		client: client,
		logger: logger.New("report_repository"),
	}
}

func (r *firestoreReportRepository) Create(ctx context.Context, collection entity.Collection, report *entity.Report) (string, error) {
	ref, _, err := r.client.Collection(string(collection)).Add(ctx, toDocument(report))
	if err != nil {
		return "", fmt.Errorf("add to %s: %w", collection, err)
	}
	return ref.ID, nil
}

func (r *firestoreReportRepository) Put(ctx context.Context, collection entity.Collection, id string, report *entity.Report) error {
	_, err := r.client.Collection(string(collection)).Doc(id).Set(ctx, toDocument(report))
	if err != nil {
		return fmt.Errorf("write %s/%s: %w", collection, id, err)
	}
	return nil
}

// Delete without preconditions: Firestore reports success for absent documents.
func (r *firestoreReportRepository) Delete(ctx context.Context, collection entity.Collection, id string) error {
	_, err := r.client.Collection(string(collection)).Doc(id).Delete(ctx)
	if err != nil {
		return fmt.Errorf("delete %s/%s: %w", collection, id, err)
	}
	return nil
}

func (r *firestoreReportRepository) Move(ctx context.Context, from entity.Collection, fromID string, to entity.Collection, toID string, report *entity.Report) (string, error) {
	srcRef := r.client.Collection(string(from)).Doc(fromID)

	// the id is chosen outside the transaction so retries reuse it
	var dstRef *firestore.DocumentRef
	if toID == "" {
		dstRef = r.client.Collection(string(to)).NewDoc()
	} else {
		dstRef = r.client.Collection(string(to)).Doc(toID)
	}

	doc := toDocument(report)
	err := r.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		if _, err := tx.Get(srcRef); err != nil {
			if status.Code(err) == codes.NotFound {
				return errors.NotFound("Report", err)
			}
			return err
		}
		if err := tx.Set(dstRef, doc); err != nil {
			return err
		}
		return tx.Delete(srcRef)
	})
	if err != nil {
		if errors.Is(err, errors.CodeNotFound) {
			return "", err
		}
		return "", fmt.Errorf("move %s/%s to %s: %w", from, fromID, to, err)
	}

	return dstRef.ID, nil
}

func (r *firestoreReportRepository) Subscribe(ctx context.Context, collection entity.Collection) (repository.Subscription, error) {
	if !collection.Valid() {
		return nil, errors.BadRequest(fmt.Sprintf("unknown collection %q", collection), nil)
	}

	sub := startSubscription(ctx, func(ctx context.Context, emit func(entity.Snapshot)) error {
		it := r.client.Collection(string(collection)).Snapshots(ctx)
		defer it.Stop()

		for {
			qs, err := it.Next()
			if err != nil {
				if err == iterator.Done || status.Code(err) == codes.Canceled || ctx.Err() != nil {
					return nil
				}
				return err
			}

			reports, err := r.decode(collection, qs.Documents)
			if err != nil {
				return err
			}

			readAt := qs.ReadTime
			if readAt.IsZero() {
				readAt = time.Now()
			}

			r.logger.Debug("Received snapshot", "collection", collection, "count", len(reports))
			emit(entity.Snapshot{Collection: collection, Reports: reports, ReadAt: readAt})
		}
	})

	return sub, nil
}

func (r *firestoreReportRepository) decode(collection entity.Collection, docs *firestore.DocumentIterator) ([]*entity.Report, error) {
	defer docs.Stop()

	reports := make([]*entity.Report, 0)
	for {
		doc, err := docs.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, err
		}

		var report entity.Report
		if err := doc.DataTo(&report); err != nil {
			// one malformed document must not hide the rest of the collection
			r.logger.Warn("Skipping malformed report", "collection", collection, "id", doc.Ref.ID, "error", err)
			continue
		}
		report.ID = doc.Ref.ID
		reports = append(reports, &report)
	}

	return reports, nil
}

// toDocument converts a report to the field map written to Firestore. Pending
// server timestamps become firestore.ServerTimestamp; nil and empty fields are
// left out so that Set replaces the whole document.
func toDocument(r *entity.Report) map[string]interface{} {
	doc := make(map[string]interface{})

	putString(doc, "namaBarang", r.NamaBarang)
	putString(doc, "kategori", r.Kategori)
	putString(doc, "foto", r.Foto)
	putString(doc, "deskripsi", r.Deskripsi)
	putString(doc, "lokasi", r.Lokasi)
	putString(doc, "confirmedBy", r.ConfirmedBy)
	putString(doc, "status", r.Status)
	putString(doc, "sourceId", r.SourceID)
	putString(doc, "type", string(r.Type))

	putTime(doc, "tanggal", r.Tanggal)
	putTime(doc, "createdAt", r.CreatedAt)
	putTime(doc, "returnedAt", r.ReturnedAt)
	putTime(doc, "takenAt", r.TakenAt)

	return doc
}

func putString(doc map[string]interface{}, key, value string) {
	if value != "" {
		doc[key] = value
	}
}

func putTime(doc map[string]interface{}, key string, t *time.Time) {
	if t == nil {
		return
	}
	if entity.IsServerTime(t) {
		doc[key] = firestore.ServerTimestamp
		return
	}
	doc[key] = *t
}
