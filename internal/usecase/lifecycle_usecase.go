package usecase

import (
	"context"
	"fmt"

	"lostfound/internal/domain/entity"
	"lostfound/internal/domain/repository"
	"lostfound/pkg/errors"
	"lostfound/pkg/logger"
)

const (
	ActionConfirm   = "confirm found report"
	ActionArchive   = "archive report"
	ActionDelete    = "delete report"
	ActionReconcile = "reconcile reports"
)

type LifecycleOptions struct {
	// UseTransactions runs moves as one store transaction when the store
	// supports it.
	UseTransactions bool
	// PreserveArchiveIDs keys history records by the source id instead of a
	// store-assigned one.
	PreserveArchiveIDs bool
	Logger             logger.Logger
	Metrics            MetricsRecorder
}

// LifecycleUseCase applies admin transitions between the record sets. Records
// are looked up in the live sets and written back through the store; there is
// no locking across sessions, so concurrent admins race on the store's terms.
type LifecycleUseCase struct {
	store   repository.ReportRepository
	mover   repository.ReportMover
	reports ReportSource
	photos  PhotoStore
	opts    LifecycleOptions
	log     logger.Logger
	metrics MetricsRecorder
}

func NewLifecycleUseCase(store repository.ReportRepository, reports ReportSource, photos PhotoStore, opts LifecycleOptions) *LifecycleUseCase {
	uc := &LifecycleUseCase{
		store:   store,
		reports: reports,
		photos:  photos,
		opts:    opts,
		log:     opts.Logger,
		metrics: opts.Metrics,
	}
	if uc.log == nil {
		uc.log = logger.New("lifecycle")
	}
	if uc.metrics == nil {
		uc.metrics = noopMetrics{}
	}
	if opts.UseTransactions {
		if m, ok := store.(repository.ReportMover); ok {
			uc.mover = m
		}
	}
	return uc
}

// ConfirmFound moves a lost report into the returned set under the same id,
// stamped with the confirming admin and the store's time.
func (uc *LifecycleUseCase) ConfirmFound(ctx context.Context, reportID, adminUID string) (*entity.Report, error) {
	report, ok := uc.reports.Find(entity.CollectionLost, reportID)
	if !ok {
		return nil, errors.NotFound("Report", nil)
	}

	returned := report.AsReturned(adminUID)
	id, err := uc.move(ctx, entity.CollectionLost, report.ID, entity.CollectionReturned, report.ID, returned)
	uc.metrics.ObserveTransition("confirm", err)
	if err != nil {
		uc.log.Error("Confirm found failed", "id", reportID, "admin", adminUID, "error", err)
		return nil, errors.TransitionFailed(ActionConfirm, err)
	}

	returned.ID = id
	returned.Type = entity.ReportTypeReturned
	uc.log.Info("Report confirmed found", "id", id, "admin", adminUID)
	return withoutPendingTimes(returned), nil
}

// ArchiveToHistory moves a lost or returned report into history.
func (uc *LifecycleUseCase) ArchiveToHistory(ctx context.Context, source entity.Collection, reportID string) (*entity.Report, error) {
	if source != entity.CollectionLost && source != entity.CollectionReturned {
		return nil, errors.BadRequest(fmt.Sprintf("cannot archive from %q", source), nil)
	}

	report, ok := uc.reports.Find(source, reportID)
	if !ok {
		return nil, errors.NotFound("Report", nil)
	}

	history := report.AsHistory(source)
	destID := ""
	if uc.opts.PreserveArchiveIDs {
		destID = report.ID
	}

	id, err := uc.move(ctx, source, report.ID, entity.CollectionHistory, destID, history)
	uc.metrics.ObserveTransition("archive", err)
	if err != nil {
		uc.log.Error("Archive failed", "id", reportID, "source", string(source), "error", err)
		return nil, errors.TransitionFailed(ActionArchive, err)
	}

	history.ID = id
	uc.log.Info("Report archived", "id", id, "source", string(source), "source_id", report.ID)
	return withoutPendingTimes(history), nil
}

// DeleteReport removes a lost or returned report. Deleting an id that no
// longer exists succeeds.
func (uc *LifecycleUseCase) DeleteReport(ctx context.Context, collection entity.Collection, id string) error {
	if collection != entity.CollectionLost && collection != entity.CollectionReturned {
		return errors.BadRequest(fmt.Sprintf("cannot delete from %q", collection), nil)
	}

	existing, _ := uc.reports.Find(collection, id)

	err := uc.store.Delete(ctx, collection, id)
	uc.metrics.ObserveTransition("delete", err)
	if err != nil {
		uc.log.Error("Delete failed", "id", id, "collection", string(collection), "error", err)
		return errors.MutationFailed(ActionDelete, err)
	}

	uc.log.Info("Report deleted", "id", id, "collection", string(collection))
	if existing != nil {
		uc.cleanupPhoto(ctx, collection, existing)
	}
	return nil
}

// Reconcile repairs interrupted moves by keeping the destination copy: a
// record in both lost and returned loses its lost copy, and a record already
// in history loses whatever copy is left in lost or returned.
func (uc *LifecycleUseCase) Reconcile(ctx context.Context) (*entity.ReconcileResult, error) {
	sets := uc.reports.Sets()
	result := &entity.ReconcileResult{
		Removed: []entity.ReconciledRecord{},
		Failed:  []entity.ReconciledRecord{},
	}

	type target struct {
		collection entity.Collection
		id         string
		keptIn     entity.Collection
		keptID     string
	}
	var targets []target
	seen := make(map[string]bool)
	add := func(t target) {
		key := string(t.collection) + "/" + t.id
		if seen[key] {
			return
		}
		seen[key] = true
		targets = append(targets, t)
	}

	returnedIDs := idSet(sets.Returned)
	for _, r := range sets.Lost {
		if returnedIDs[r.ID] {
			add(target{entity.CollectionLost, r.ID, entity.CollectionReturned, r.ID})
		}
	}

	lostIDs := idSet(sets.Lost)
	for _, h := range sets.History {
		for _, sourceID := range []string{h.SourceID, h.ID} {
			if sourceID == "" {
				continue
			}
			if lostIDs[sourceID] {
				add(target{entity.CollectionLost, sourceID, entity.CollectionHistory, h.ID})
			}
			if returnedIDs[sourceID] {
				add(target{entity.CollectionReturned, sourceID, entity.CollectionHistory, h.ID})
			}
		}
	}

	for _, t := range targets {
		rec := entity.ReconciledRecord{
			Collection: t.collection,
			ID:         t.id,
			KeptIn:     t.keptIn,
			KeptID:     t.keptID,
		}
		if err := uc.store.Delete(ctx, t.collection, t.id); err != nil {
			rec.Error = err.Error()
			result.Failed = append(result.Failed, rec)
			uc.log.Warn("Reconcile delete failed", "collection", string(t.collection), "id", t.id, "error", err)
			continue
		}
		result.Removed = append(result.Removed, rec)
		uc.metrics.IncReconciled(string(t.collection))
		uc.log.Info("Removed duplicate record", "collection", string(t.collection), "id", t.id, "kept_in", string(t.keptIn), "kept_id", t.keptID)
	}

	var err error
	if len(result.Failed) > 0 {
		err = errors.MutationFailed(ActionReconcile, fmt.Errorf("%d of %d deletions failed", len(result.Failed), len(targets)))
	}
	uc.metrics.ObserveTransition("reconcile", err)
	return result, err
}

// move writes report to the destination and removes the source, as one
// transaction when a mover is configured. An empty toID lets the store assign
// one.
func (uc *LifecycleUseCase) move(ctx context.Context, from entity.Collection, fromID string, to entity.Collection, toID string, report *entity.Report) (string, error) {
	if uc.mover != nil {
		return uc.mover.Move(ctx, from, fromID, to, toID, report)
	}

	var err error
	if toID == "" {
		toID, err = uc.store.Create(ctx, to, report)
	} else {
		err = uc.store.Put(ctx, to, toID, report)
	}
	if err != nil {
		return "", err
	}

	if err := uc.store.Delete(ctx, from, fromID); err != nil {
		uc.log.Warn("Source delete failed after write, record is in both sets until reconciled",
			"from", string(from), "id", fromID, "to", string(to), "dest_id", toID)
		return "", err
	}
	return toID, nil
}

func (uc *LifecycleUseCase) cleanupPhoto(ctx context.Context, collection entity.Collection, deleted *entity.Report) {
	if uc.photos == nil || deleted.Foto == "" || !uc.photos.OwnsURL(deleted.Foto) {
		return
	}

	sets := uc.reports.Sets()
	for _, c := range entity.ReportCollections {
		for _, r := range sets.Of(c) {
			if c == collection && r.ID == deleted.ID {
				continue
			}
			if r.Foto == deleted.Foto {
				return
			}
		}
	}

	if err := uc.photos.DeletePhoto(ctx, deleted.Foto); err != nil {
		uc.log.Warn("Photo cleanup failed", "id", deleted.ID, "url", deleted.Foto, "error", err)
		return
	}
	uc.log.Debug("Photo removed", "id", deleted.ID, "url", deleted.Foto)
}

func idSet(reports []*entity.Report) map[string]bool {
	out := make(map[string]bool, len(reports))
	for _, r := range reports {
		out[r.ID] = true
	}
	return out
}
