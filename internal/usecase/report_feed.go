package usecase

import (
	"context"
	stderrors "errors"
	"sync"
	"time"

	"lostfound/internal/domain/entity"
	"lostfound/internal/domain/repository"
	"lostfound/pkg/errors"
	"lostfound/pkg/logger"
)

var errSubscriptionClosed = stderrors.New("subscription closed by store")

const defaultResubscribeBackoff = 5 * time.Second

type FeedOptions struct {
	ResubscribeBackoff time.Duration
	Logger             logger.Logger
	Metrics            MetricsRecorder
}

// CollectionStatus describes one live set as the feed currently holds it.
type CollectionStatus struct {
	Collection   entity.Collection `json:"collection"`
	Synced       bool              `json:"synced"`
	Records      int               `json:"records"`
	LastSnapshot *time.Time        `json:"lastSnapshot,omitempty"`
	Error        string            `json:"error,omitempty"`
	err          error
}

type FeedStatus struct {
	Synced      bool               `json:"synced"`
	Collections []CollectionStatus `json:"collections"`
}

// Err returns the first subscription failure, if any.
func (s FeedStatus) Err() error {
	for _, c := range s.Collections {
		if c.err != nil {
			return c.err
		}
	}
	return nil
}

// ReportFeed keeps the three record sets in memory, each replaced wholesale by
// the latest snapshot the store pushes. A failed subscription leaves its set at
// the last known value and is retried after a backoff.
type ReportFeed struct {
	store   repository.ReportRepository
	backoff time.Duration
	log     logger.Logger
	metrics MetricsRecorder

	mu       sync.RWMutex
	sets     map[entity.Collection][]*entity.Report
	status   map[entity.Collection]*CollectionStatus
	syncedCh chan struct{}

	// notifyMu serialises listener calls so they observe replacements in order.
	notifyMu  sync.Mutex
	listeners []func(entity.ReportSets)
	reconnect func(ctx context.Context, c entity.Collection)

	lifecycleMu sync.Mutex
	cancel      context.CancelFunc
	wg          sync.WaitGroup
}

func NewReportFeed(store repository.ReportRepository, opts FeedOptions) *ReportFeed {
	if opts.ResubscribeBackoff <= 0 {
		opts.ResubscribeBackoff = defaultResubscribeBackoff
	}
	if opts.Logger == nil {
		opts.Logger = logger.New("report_feed")
	}
	if opts.Metrics == nil {
		opts.Metrics = noopMetrics{}
	}

	f := &ReportFeed{
		store:    store,
		backoff:  opts.ResubscribeBackoff,
		log:      opts.Logger,
		metrics:  opts.Metrics,
		sets:     make(map[entity.Collection][]*entity.Report),
		status:   make(map[entity.Collection]*CollectionStatus),
		syncedCh: make(chan struct{}),
	}
	for _, c := range entity.ReportCollections {
		f.status[c] = &CollectionStatus{Collection: c}
	}
	return f
}

// OnChange registers fn to run with a copy of all sets after every
// replacement. Register before Start.
func (f *ReportFeed) OnChange(fn func(entity.ReportSets)) {
	f.notifyMu.Lock()
	defer f.notifyMu.Unlock()
	f.listeners = append(f.listeners, fn)
}

// OnReconnect registers fn to run after a resubscribed collection delivered
// its first snapshot.
func (f *ReportFeed) OnReconnect(fn func(ctx context.Context, c entity.Collection)) {
	f.notifyMu.Lock()
	defer f.notifyMu.Unlock()
	f.reconnect = fn
}

func (f *ReportFeed) Start(ctx context.Context) error {
	f.lifecycleMu.Lock()
	defer f.lifecycleMu.Unlock()

	if f.cancel != nil {
		return errors.BadRequest("report feed already started", nil)
	}

	ctx, cancel := context.WithCancel(ctx)
	f.cancel = cancel

	for _, c := range entity.ReportCollections {
		f.wg.Add(1)
		go f.watch(ctx, c)
	}

	f.log.Info("Report feed started", "backoff", f.backoff.String())
	return nil
}

// Stop cancels every subscription and returns once no listener can run
// anymore. Calling it more than once is safe.
func (f *ReportFeed) Stop() {
	f.lifecycleMu.Lock()
	cancel := f.cancel
	f.lifecycleMu.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	f.wg.Wait()
}

// WaitSynced blocks until every collection delivered its first snapshot.
func (f *ReportFeed) WaitSynced(ctx context.Context) error {
	select {
	case <-f.syncedCh:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (f *ReportFeed) Sets() entity.ReportSets {
	f.mu.RLock()
	defer f.mu.RUnlock()

	return entity.ReportSets{
		Lost:     cloneReports(f.sets[entity.CollectionLost]),
		Returned: cloneReports(f.sets[entity.CollectionReturned]),
		History:  cloneReports(f.sets[entity.CollectionHistory]),
	}
}

func (f *ReportFeed) Find(collection entity.Collection, id string) (*entity.Report, bool) {
	f.mu.RLock()
	defer f.mu.RUnlock()

	for _, r := range f.sets[collection] {
		if r.ID == id {
			return r.Clone(), true
		}
	}
	return nil, false
}

func (f *ReportFeed) Status() FeedStatus {
	f.mu.RLock()
	defer f.mu.RUnlock()

	out := FeedStatus{Synced: true}
	for _, c := range entity.ReportCollections {
		s := *f.status[c]
		if !s.Synced {
			out.Synced = false
		}
		out.Collections = append(out.Collections, s)
	}
	return out
}

func (f *ReportFeed) watch(ctx context.Context, c entity.Collection) {
	defer f.wg.Done()

	resubscribed := false
	for {
		err := f.follow(ctx, c, resubscribed)
		if ctx.Err() != nil {
			return
		}

		f.fail(c, err)
		resubscribed = true

		timer := time.NewTimer(f.backoff)
		select {
		case <-ctx.Done():
			timer.Stop()
			return
		case <-timer.C:
		}
		f.log.Info("Resubscribing", "collection", string(c))
	}
}

// follow consumes one subscription until it fails or ctx ends.
func (f *ReportFeed) follow(ctx context.Context, c entity.Collection, resubscribed bool) error {
	sub, err := f.store.Subscribe(ctx, c)
	if err != nil {
		return err
	}
	defer sub.Stop()

	snapshots, errs := sub.Snapshots(), sub.Errors()
	for {
		select {
		case <-ctx.Done():
			return nil

		case snap, ok := <-snapshots:
			if !ok {
				snapshots = nil
				if errs == nil {
					return errSubscriptionClosed
				}
				continue
			}
			f.replace(c, snap)
			if resubscribed {
				resubscribed = false
				f.reconnected(ctx, c)
			}

		case err, ok := <-errs:
			if !ok {
				errs = nil
				if snapshots == nil {
					return errSubscriptionClosed
				}
				continue
			}
			return err
		}
	}
}

func (f *ReportFeed) replace(c entity.Collection, snap entity.Snapshot) {
	reports := make([]*entity.Report, 0, len(snap.Reports))
	for _, r := range snap.Reports {
		r = r.Clone()
		if t := c.ReportType(); t != "" {
			r.Type = t
		}
		reports = append(reports, r)
	}

	readAt := snap.ReadAt
	f.mu.Lock()
	f.sets[c] = reports
	st := f.status[c]
	st.Synced = true
	st.Records = len(reports)
	st.LastSnapshot = &readAt
	st.Error = ""
	st.err = nil
	f.markSyncedLocked()
	f.mu.Unlock()

	f.metrics.SetCollectionSize(string(c), len(reports))
	f.log.Debug("Snapshot applied", "collection", string(c), "records", len(reports))

	f.notify()
}

// Caller holds mu.
func (f *ReportFeed) markSyncedLocked() {
	select {
	case <-f.syncedCh:
		return
	default:
	}
	for _, s := range f.status {
		if !s.Synced {
			return
		}
	}
	close(f.syncedCh)
}

func (f *ReportFeed) fail(c entity.Collection, cause error) {
	err := errors.SubscriptionFailed(string(c), cause)

	f.mu.Lock()
	st := f.status[c]
	st.Error = err.Message
	st.err = err
	f.mu.Unlock()

	f.metrics.IncSubscriptionError(string(c))
	f.log.Error("Subscription failed, keeping last known set", "collection", string(c), "error", cause)
}

func (f *ReportFeed) notify() {
	f.notifyMu.Lock()
	defer f.notifyMu.Unlock()

	if len(f.listeners) == 0 {
		return
	}
	sets := f.Sets()
	for _, fn := range f.listeners {
		fn(sets)
	}
}

func (f *ReportFeed) reconnected(ctx context.Context, c entity.Collection) {
	f.notifyMu.Lock()
	fn := f.reconnect
	f.notifyMu.Unlock()

	f.log.Info("Subscription restored", "collection", string(c))
	if fn != nil {
		fn(ctx, c)
	}
}

func cloneReports(in []*entity.Report) []*entity.Report {
	out := make([]*entity.Report, 0, len(in))
	for _, r := range in {
		out = append(out, r.Clone())
	}
	return out
}
