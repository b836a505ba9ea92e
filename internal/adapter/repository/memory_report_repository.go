package repository

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"lostfound/internal/domain/entity"
	"lostfound/internal/domain/repository"
	"lostfound/pkg/errors"
)

// MemoryReportRepository is an in-process record store with the same contract
// as the Firestore one: full snapshots pushed to every subscriber after each
// mutation, server timestamps taken from its clock, and transactional moves.
type MemoryReportRepository struct {
	mu           sync.Mutex
	clock        func() time.Time
	docs         map[entity.Collection]map[string]*entity.Report
	listeners    map[entity.Collection]map[int]*memoryListener
	nextListener int
}

type memoryListener struct {
	emit func(entity.Snapshot)
	fail chan error
}

var _ repository.ReportRepository = (*MemoryReportRepository)(nil)
var _ repository.ReportMover = (*MemoryReportRepository)(nil)

func NewMemoryReportRepository(clock func() time.Time) *MemoryReportRepository {
	if clock == nil {
		clock = time.Now
	}
	docs := make(map[entity.Collection]map[string]*entity.Report)
	listeners := make(map[entity.Collection]map[int]*memoryListener)
	for _, c := range entity.ReportCollections {
		docs[c] = make(map[string]*entity.Report)
		listeners[c] = make(map[int]*memoryListener)
	}
	return &MemoryReportRepository{
		clock:     clock,
		docs:      docs,
		listeners: listeners,
	}
}

func (r *MemoryReportRepository) Create(ctx context.Context, collection entity.Collection, report *entity.Report) (string, error) {
	if err := r.check(ctx, collection); err != nil {
		return "", err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	id := uuid.New().String()
	r.write(collection, id, report)
	r.publish(collection)
	return id, nil
}

func (r *MemoryReportRepository) Put(ctx context.Context, collection entity.Collection, id string, report *entity.Report) error {
	if err := r.check(ctx, collection); err != nil {
		return err
	}
	if id == "" {
		return errors.BadRequest("document id is required", nil)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	r.write(collection, id, report)
	r.publish(collection)
	return nil
}

func (r *MemoryReportRepository) Delete(ctx context.Context, collection entity.Collection, id string) error {
	if err := r.check(ctx, collection); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.docs[collection][id]; !ok {
		return nil
	}
	delete(r.docs[collection], id)
	r.publish(collection)
	return nil
}

func (r *MemoryReportRepository) Move(ctx context.Context, from entity.Collection, fromID string, to entity.Collection, toID string, report *entity.Report) (string, error) {
	if err := r.check(ctx, from); err != nil {
		return "", err
	}
	if err := r.check(ctx, to); err != nil {
		return "", err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.docs[from][fromID]; !ok {
		return "", errors.NotFound("Report", nil)
	}
	if toID == "" {
		toID = uuid.New().String()
	}

	r.write(to, toID, report)
	delete(r.docs[from], fromID)
	r.publish(to)
	r.publish(from)
	return toID, nil
}

func (r *MemoryReportRepository) Subscribe(ctx context.Context, collection entity.Collection) (repository.Subscription, error) {
	if err := r.check(ctx, collection); err != nil {
		return nil, err
	}

	sub := startSubscription(ctx, func(ctx context.Context, emit func(entity.Snapshot)) error {
		l := &memoryListener{emit: emit, fail: make(chan error, 1)}

		r.mu.Lock()
		id := r.nextListener
		r.nextListener++
		r.listeners[collection][id] = l
		emit(r.snapshot(collection))
		r.mu.Unlock()

		defer func() {
			r.mu.Lock()
			delete(r.listeners[collection], id)
			r.mu.Unlock()
		}()

		select {
		case <-ctx.Done():
			return nil
		case err := <-l.fail:
			return err
		}
	})

	return sub, nil
}

// Interrupt ends every active subscription on collection with err, the way a
// dropped connection ends a Firestore listener.
func (r *MemoryReportRepository) Interrupt(collection entity.Collection, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for id, l := range r.listeners[collection] {
		select {
		case l.fail <- err:
		default:
		}
		delete(r.listeners[collection], id)
	}
}

// Get returns a copy of one stored document.
func (r *MemoryReportRepository) Get(collection entity.Collection, id string) (*entity.Report, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	doc, ok := r.docs[collection][id]
	if !ok {
		return nil, false
	}
	c := doc.Clone()
	c.ID = id
	return c, true
}

// List returns copies of the documents in collection ordered by id.
func (r *MemoryReportRepository) List(collection entity.Collection) []*entity.Report {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.snapshot(collection).Reports
}

func (r *MemoryReportRepository) check(ctx context.Context, collection entity.Collection) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if !collection.Valid() {
		return errors.BadRequest(fmt.Sprintf("unknown collection %q", collection), nil)
	}
	return nil
}

// write stores a copy with pending server timestamps resolved. Caller holds mu.
func (r *MemoryReportRepository) write(collection entity.Collection, id string, report *entity.Report) {
	doc := report.Clone()
	doc.ID = ""
	now := r.clock()
	for _, field := range []**time.Time{&doc.Tanggal, &doc.CreatedAt, &doc.ReturnedAt, &doc.TakenAt} {
		if entity.IsServerTime(*field) {
			t := now
			*field = &t
		}
	}
	r.docs[collection][id] = doc
}

// Caller holds mu.
func (r *MemoryReportRepository) snapshot(collection entity.Collection) entity.Snapshot {
	ids := make([]string, 0, len(r.docs[collection]))
	for id := range r.docs[collection] {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	reports := make([]*entity.Report, 0, len(ids))
	for _, id := range ids {
		c := r.docs[collection][id].Clone()
		c.ID = id
		reports = append(reports, c)
	}

	return entity.Snapshot{Collection: collection, Reports: reports, ReadAt: r.clock()}
}

// Caller holds mu.
func (r *MemoryReportRepository) publish(collection entity.Collection) {
	if len(r.listeners[collection]) == 0 {
		return
	}
	for _, l := range r.listeners[collection] {
		l.emit(r.snapshot(collection))
	}
}
