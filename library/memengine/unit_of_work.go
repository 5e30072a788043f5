package memengine

import (
	"context"
	"sync"

	"github.com/AntonStoeckl/lending-library-go/library"
)

type unitOfWork struct {
	store *Store

	mu       sync.Mutex
	work     memoryState
	finished bool
}

func newUnitOfWork(store *Store, work memoryState) *unitOfWork {
	return &unitOfWork{store: store, work: work}
}

func (u *unitOfWork) Books() library.BookStore {
	return bookStore{uow: u}
}

func (u *unitOfWork) Members() library.MemberStore {
	return memberStore{uow: u}
}

func (u *unitOfWork) Reservations() library.ReservationStore {
	return reservationStore{uow: u}
}

// Commit publishes the private copy and ends the unit of work.
func (u *unitOfWork) Commit(ctx context.Context) error {
	return u.finish(ctx, true)
}

// Rollback drops the private copy and ends the unit of work.
func (u *unitOfWork) Rollback(ctx context.Context) error {
	return u.finish(ctx, false)
}

func (u *unitOfWork) finish(ctx context.Context, publish bool) error {
	u.mu.Lock()
	defer u.mu.Unlock()

	if u.finished {
		return nil
	}

	u.finished = true
	defer u.store.release()

	if publish {
		if err := ctx.Err(); err != nil {
			return err
		}

		u.store.publish(u.work)
	}

	return nil
}

// access runs fn against the private copy unless the unit of work has ended.
func (u *unitOfWork) access(ctx context.Context, fn func(state memoryState) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	u.mu.Lock()
	defer u.mu.Unlock()

	if u.finished {
		return library.ErrUnitOfWorkFinished
	}

	return fn(u.work)
}
