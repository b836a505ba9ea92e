package repository

import (
	"context"

	"lostfound/internal/domain/entity"
)

// ReportRepository is the record store contract the lifecycle engine depends
// on. Timestamp fields set to entity.ServerTime() are filled by the store.
type ReportRepository interface {
	// Create writes report under a store-assigned id and returns that id.
	Create(ctx context.Context, collection entity.Collection, report *entity.Report) (string, error)
	// Put creates or overwrites the document keyed by id.
	Put(ctx context.Context, collection entity.Collection, id string, report *entity.Report) error
	// Delete removes the document. Deleting an absent id is not an error.
	Delete(ctx context.Context, collection entity.Collection, id string) error
	// Subscribe starts a live feed of full snapshots of the collection.
	Subscribe(ctx context.Context, collection entity.Collection) (Subscription, error)
}

// ReportMover is implemented by stores that can move a record between two
// collections in a single transaction. An empty toID lets the store assign
// one. The move fails if the source document no longer exists.
type ReportMover interface {
	Move(ctx context.Context, from entity.Collection, fromID string, to entity.Collection, toID string, report *entity.Report) (string, error)
}

// Subscription is a cancellable stream of full collection snapshots.
//
// Delivery is latest-wins: a consumer that falls behind receives the newest
// snapshot, never a diff. Both channels are closed when the stream ends,
// either through Stop or a terminal store error (sent on Errors first).
type Subscription interface {
	Snapshots() <-chan entity.Snapshot
	Errors() <-chan error
	// Stop cancels the stream and returns once nothing more can be delivered.
	// It is safe to call more than once.
	Stop()
}
