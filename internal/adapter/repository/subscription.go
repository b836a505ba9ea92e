package repository

import (
	"context"
	"sync"

	"lostfound/internal/domain/entity"
)

// snapshotSubscription runs a producer in its own goroutine and hands its
// snapshots to a single consumer with latest-wins semantics.
type snapshotSubscription struct {
	snapshots chan entity.Snapshot
	errs      chan error
	cancel    context.CancelFunc
	done      chan struct{}
	stopOnce  sync.Once
}

type producer func(ctx context.Context, emit func(entity.Snapshot)) error

func startSubscription(parent context.Context, run producer) *snapshotSubscription {
	ctx, cancel := context.WithCancel(parent)
	s := &snapshotSubscription{
		snapshots: make(chan entity.Snapshot, 1),
		errs:      make(chan error, 1),
		cancel:    cancel,
		done:      make(chan struct{}),
	}

	go func() {
		defer close(s.done)
		defer close(s.errs)
		defer close(s.snapshots)

		// errs has room for exactly this one terminal error
		if err := run(ctx, s.emit); err != nil && ctx.Err() == nil {
			s.errs <- err
		}
	}()

	return s
}

// emit replaces any snapshot the consumer has not picked up yet. Only the
// producer goroutine sends, so the second select never blocks.
func (s *snapshotSubscription) emit(snap entity.Snapshot) {
	select {
	case <-s.snapshots:
	default:
	}
	select {
	case s.snapshots <- snap:
	default:
	}
}

func (s *snapshotSubscription) Snapshots() <-chan entity.Snapshot {
	return s.snapshots
}

func (s *snapshotSubscription) Errors() <-chan error {
	return s.errs
}

func (s *snapshotSubscription) Stop() {
	s.stopOnce.Do(func() {
		s.cancel()
		<-s.done
		// drop whatever was still buffered so nothing is observed after Stop
		for range s.snapshots {
		}
	})
}
