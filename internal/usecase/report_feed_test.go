package usecase

import (
	"context"
	stderrors "errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	memstore "lostfound/internal/adapter/repository"
	"lostfound/internal/domain/entity"
	"lostfound/pkg/errors"
)

var testNow = time.Date(2025, 3, 14, 9, 30, 0, 0, time.UTC)

type fakeMetrics struct {
	mu                 sync.Mutex
	transitions        map[string]int
	failures           map[string]int
	sizes              map[string]int
	subscriptionErrors map[string]int
	reconciled         map[string]int
}

func newFakeMetrics() *fakeMetrics {
	return &fakeMetrics{
		transitions:        map[string]int{},
		failures:           map[string]int{},
		sizes:              map[string]int{},
		subscriptionErrors: map[string]int{},
		reconciled:         map[string]int{},
	}
}

func (m *fakeMetrics) ObserveTransition(action string, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err != nil {
		m.failures[action]++
		return
	}
	m.transitions[action]++
}

func (m *fakeMetrics) SetCollectionSize(c string, n int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sizes[c] = n
}

func (m *fakeMetrics) IncSubscriptionError(c string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.subscriptionErrors[c]++
}

func (m *fakeMetrics) IncReconciled(c string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.reconciled[c]++
}

func (m *fakeMetrics) subscriptionErrorCount(c entity.Collection) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.subscriptionErrors[string(c)]
}

func newMemoryStore() *memstore.MemoryReportRepository {
	return memstore.NewMemoryReportRepository(func() time.Time { return testNow })
}

func startFeed(t *testing.T, store *memstore.MemoryReportRepository, opts FeedOptions) *ReportFeed {
	t.Helper()
	feed := NewReportFeed(store, opts)
	require.NoError(t, feed.Start(context.Background()))
	t.Cleanup(feed.Stop)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	require.NoError(t, feed.WaitSynced(ctx))
	return feed
}

func eventually(t *testing.T, cond func() bool, msg string) {
	t.Helper()
	require.Eventually(t, cond, 2*time.Second, 5*time.Millisecond, msg)
}

func TestReportFeedLoadsAllCollections(t *testing.T) {
	store := newMemoryStore()
	ctx := context.Background()
	require.NoError(t, store.Put(ctx, entity.CollectionLost, "l1", &entity.Report{NamaBarang: "Dompet"}))
	require.NoError(t, store.Put(ctx, entity.CollectionReturned, "r1", &entity.Report{NamaBarang: "Kunci"}))
	require.NoError(t, store.Put(ctx, entity.CollectionHistory, "h1", &entity.Report{NamaBarang: "Tas", Type: entity.ReportTypeLost}))

	feed := startFeed(t, store, FeedOptions{})

	sets := feed.Sets()
	require.Len(t, sets.Lost, 1)
	require.Len(t, sets.Returned, 1)
	require.Len(t, sets.History, 1)
	assert.Equal(t, entity.ReportTypeLost, sets.Lost[0].Type)
	assert.Equal(t, entity.ReportTypeReturned, sets.Returned[0].Type)
	assert.Equal(t, entity.ReportTypeLost, sets.History[0].Type, "history keeps its persisted type")

	status := feed.Status()
	assert.True(t, status.Synced)
	assert.NoError(t, status.Err())
}

func TestReportFeedReplacesSetOnEverySnapshot(t *testing.T) {
	store := newMemoryStore()
	ctx := context.Background()
	feed := startFeed(t, store, FeedOptions{})

	require.NoError(t, store.Put(ctx, entity.CollectionLost, "a", &entity.Report{}))
	require.NoError(t, store.Put(ctx, entity.CollectionLost, "b", &entity.Report{}))
	eventually(t, func() bool { return len(feed.Sets().Lost) == 2 }, "both records visible")

	require.NoError(t, store.Delete(ctx, entity.CollectionLost, "a"))
	eventually(t, func() bool { return len(feed.Sets().Lost) == 1 }, "deleted record gone")

	got, ok := feed.Find(entity.CollectionLost, "b")
	require.True(t, ok)
	assert.Equal(t, "b", got.ID)
	_, ok = feed.Find(entity.CollectionLost, "a")
	assert.False(t, ok)
}

func TestReportFeedSetsAreCopies(t *testing.T) {
	store := newMemoryStore()
	require.NoError(t, store.Put(context.Background(), entity.CollectionLost, "a", &entity.Report{NamaBarang: "Dompet"}))
	feed := startFeed(t, store, FeedOptions{})

	sets := feed.Sets()
	sets.Lost[0].NamaBarang = "changed"

	got, _ := feed.Find(entity.CollectionLost, "a")
	assert.Equal(t, "Dompet", got.NamaBarang)
}

func TestReportFeedNotifiesListeners(t *testing.T) {
	store := newMemoryStore()
	feed := NewReportFeed(store, FeedOptions{})

	var mu sync.Mutex
	var last entity.ReportSets
	feed.OnChange(func(s entity.ReportSets) {
		mu.Lock()
		last = s
		mu.Unlock()
	})

	require.NoError(t, feed.Start(context.Background()))
	defer feed.Stop()

	require.NoError(t, store.Put(context.Background(), entity.CollectionReturned, "r", &entity.Report{}))
	eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(last.Returned) == 1
	}, "listener saw the returned record")
}

func TestReportFeedKeepsStaleSetAndResubscribes(t *testing.T) {
	store := newMemoryStore()
	ctx := context.Background()
	require.NoError(t, store.Put(ctx, entity.CollectionLost, "a", &entity.Report{}))

	metrics := newFakeMetrics()
	feed := NewReportFeed(store, FeedOptions{ResubscribeBackoff: 100 * time.Millisecond, Metrics: metrics})
	reconnected := make(chan entity.Collection, 1)
	feed.OnReconnect(func(_ context.Context, c entity.Collection) { reconnected <- c })
	require.NoError(t, feed.Start(ctx))
	defer feed.Stop()

	waitCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	require.NoError(t, feed.WaitSynced(waitCtx))

	store.Interrupt(entity.CollectionLost, stderrors.New("stream reset"))

	eventually(t, func() bool { return metrics.subscriptionErrorCount(entity.CollectionLost) == 1 }, "failure counted")
	assert.Len(t, feed.Sets().Lost, 1, "last known set is kept")

	select {
	case c := <-reconnected:
		assert.Equal(t, entity.CollectionLost, c)
	case <-time.After(2 * time.Second):
		t.Fatal("expected reconnect hook")
	}
	assert.NoError(t, feed.Status().Err())

	require.NoError(t, store.Put(ctx, entity.CollectionLost, "b", &entity.Report{}))
	eventually(t, func() bool { return len(feed.Sets().Lost) == 2 }, "updates flow again after resubscribe")
}

func TestReportFeedStatusReportsFailure(t *testing.T) {
	store := newMemoryStore()
	feed := startFeed(t, store, FeedOptions{ResubscribeBackoff: time.Hour})

	store.Interrupt(entity.CollectionHistory, stderrors.New("permission denied"))

	eventually(t, func() bool { return feed.Status().Err() != nil }, "status carries the failure")
	err := feed.Status().Err()
	assert.True(t, errors.Is(err, errors.CodeSubscriptionFailed))
	assert.Contains(t, err.Error(), "history_items")
	assert.Contains(t, err.Error(), "permission denied")
}

func TestReportFeedStopIsFinal(t *testing.T) {
	store := newMemoryStore()
	feed := NewReportFeed(store, FeedOptions{})

	var mu sync.Mutex
	calls := 0
	feed.OnChange(func(entity.ReportSets) {
		mu.Lock()
		calls++
		mu.Unlock()
	})

	require.NoError(t, feed.Start(context.Background()))
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	require.NoError(t, feed.WaitSynced(ctx))

	feed.Stop()
	feed.Stop()

	mu.Lock()
	before := calls
	mu.Unlock()

	require.NoError(t, store.Put(context.Background(), entity.CollectionLost, "late", &entity.Report{}))
	time.Sleep(50 * time.Millisecond)

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, before, calls)
}

func TestReportFeedStartTwice(t *testing.T) {
	feed := startFeed(t, newMemoryStore(), FeedOptions{})
	assert.Error(t, feed.Start(context.Background()))
}

func TestReportFeedWaitSyncedHonoursContext(t *testing.T) {
	feed := NewReportFeed(newMemoryStore(), FeedOptions{})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, feed.WaitSynced(ctx), context.Canceled)
}
