package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"cloud.google.com/go/firestore"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lostfound/internal/domain/entity"
	apperrors "lostfound/pkg/errors"
)

var fixedNow = time.Date(2025, 6, 1, 8, 0, 0, 0, time.UTC)

func newTestStore() *MemoryReportRepository {
	return NewMemoryReportRepository(func() time.Time { return fixedNow })
}

func nextSnapshot(t *testing.T, ch <-chan entity.Snapshot) entity.Snapshot {
	t.Helper()
	select {
	case snap, ok := <-ch:
		require.True(t, ok, "snapshot channel closed")
		return snap
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for snapshot")
	}
	return entity.Snapshot{}
}

func TestMemoryStoreCreateResolvesServerTimestamps(t *testing.T) {
	store := newTestStore()
	ctx := context.Background()

	id, err := store.Create(ctx, entity.CollectionLost, &entity.Report{NamaBarang: "Dompet", CreatedAt: entity.ServerTime()})
	require.NoError(t, err)
	require.NotEmpty(t, id)

	got, ok := store.Get(entity.CollectionLost, id)
	require.True(t, ok)
	assert.Equal(t, id, got.ID)
	assert.Equal(t, fixedNow, *got.CreatedAt)
	assert.Nil(t, got.ReturnedAt)
}

func TestMemoryStoreDeleteAbsentIsNoop(t *testing.T) {
	store := newTestStore()
	assert.NoError(t, store.Delete(context.Background(), entity.CollectionLost, "missing"))
}

func TestMemoryStoreRejectsUnknownCollection(t *testing.T) {
	store := newTestStore()
	_, err := store.Create(context.Background(), entity.Collection("users"), &entity.Report{})
	assert.True(t, apperrors.Is(err, apperrors.CodeBadRequest))
}

func TestMemoryStoreMove(t *testing.T) {
	store := newTestStore()
	ctx := context.Background()
	require.NoError(t, store.Put(ctx, entity.CollectionLost, "r1", &entity.Report{NamaBarang: "Kunci"}))

	id, err := store.Move(ctx, entity.CollectionLost, "r1", entity.CollectionReturned, "r1", &entity.Report{NamaBarang: "Kunci", ReturnedAt: entity.ServerTime()})
	require.NoError(t, err)
	assert.Equal(t, "r1", id)

	_, inLost := store.Get(entity.CollectionLost, "r1")
	assert.False(t, inLost)
	moved, ok := store.Get(entity.CollectionReturned, "r1")
	require.True(t, ok)
	assert.Equal(t, fixedNow, *moved.ReturnedAt)

	_, err = store.Move(ctx, entity.CollectionLost, "r1", entity.CollectionReturned, "", &entity.Report{})
	assert.True(t, apperrors.Is(err, apperrors.CodeNotFound))
}

func TestMemoryStoreSubscribeDeliversFullSnapshots(t *testing.T) {
	store := newTestStore()
	ctx := context.Background()
	require.NoError(t, store.Put(ctx, entity.CollectionLost, "a", &entity.Report{NamaBarang: "A"}))

	sub, err := store.Subscribe(ctx, entity.CollectionLost)
	require.NoError(t, err)
	defer sub.Stop()

	first := nextSnapshot(t, sub.Snapshots())
	assert.Len(t, first.Reports, 1)

	require.NoError(t, store.Put(ctx, entity.CollectionLost, "b", &entity.Report{NamaBarang: "B"}))
	second := nextSnapshot(t, sub.Snapshots())
	require.Len(t, second.Reports, 2)
	assert.Equal(t, "a", second.Reports[0].ID)
	assert.Equal(t, "b", second.Reports[1].ID)
}

func TestMemoryStoreSubscriptionIsLatestWins(t *testing.T) {
	store := newTestStore()
	ctx := context.Background()

	sub, err := store.Subscribe(ctx, entity.CollectionReturned)
	require.NoError(t, err)
	defer sub.Stop()

	// wait for the listener to be registered
	nextSnapshot(t, sub.Snapshots())

	for _, id := range []string{"x", "y", "z"} {
		require.NoError(t, store.Put(ctx, entity.CollectionReturned, id, &entity.Report{}))
	}

	snap := nextSnapshot(t, sub.Snapshots())
	assert.Len(t, snap.Reports, 3, "intermediate snapshots are replaced by the newest")
}

func TestSubscriptionStopClosesChannels(t *testing.T) {
	store := newTestStore()
	sub, err := store.Subscribe(context.Background(), entity.CollectionHistory)
	require.NoError(t, err)

	sub.Stop()
	sub.Stop()

	_, ok := <-sub.Snapshots()
	assert.False(t, ok)
	_, ok = <-sub.Errors()
	assert.False(t, ok)
}

func TestInterruptEndsSubscriptionWithError(t *testing.T) {
	store := newTestStore()
	sub, err := store.Subscribe(context.Background(), entity.CollectionLost)
	require.NoError(t, err)
	defer sub.Stop()
	nextSnapshot(t, sub.Snapshots())

	cause := errors.New("connection reset")
	store.Interrupt(entity.CollectionLost, cause)

	select {
	case got := <-sub.Errors():
		assert.Equal(t, cause, got)
	case <-time.After(2 * time.Second):
		t.Fatal("expected subscription error")
	}
}

func TestToDocument(t *testing.T) {
	tanggal := time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC)
	doc := toDocument(&entity.Report{
		ID:          "ignored",
		NamaBarang:  "Tas",
		Tanggal:     &tanggal,
		ReturnedAt:  entity.ServerTime(),
		ConfirmedBy: "admin-1",
	})

	assert.Equal(t, "Tas", doc["namaBarang"])
	assert.Equal(t, tanggal, doc["tanggal"])
	assert.Equal(t, firestore.ServerTimestamp, doc["returnedAt"])
	assert.Equal(t, "admin-1", doc["confirmedBy"])
	assert.NotContains(t, doc, "kategori")
	assert.NotContains(t, doc, "takenAt")
	assert.NotContains(t, doc, "id")
}
