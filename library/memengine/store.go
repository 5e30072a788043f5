package memengine

import (
	"context"
	"errors"

	"github.com/AntonStoeckl/lending-library-go/library"
)

// ErrForeignKeyViolation is returned when a write would leave a dangling reference.
var ErrForeignKeyViolation = errors.New("foreign key violation")

// Store is an in-memory record store.
type Store struct {
	// writer is a one-slot semaphore held by the active unit of work.
	writer    chan struct{}
	committed memoryState
	closed    bool
}

// NewStore creates an empty Store.
func NewStore() *Store {
	return &Store{
		writer:    make(chan struct{}, 1),
		committed: newMemoryState(),
	}
}

// Begin waits until no other unit of work is active and starts a new one.
func (s *Store) Begin(ctx context.Context) (library.UnitOfWork, error) {
	if err := s.acquire(ctx); err != nil {
		return nil, err
	}

	if s.closed {
		s.release()
		return nil, library.ErrClosed
	}

	return newUnitOfWork(s, s.committed.clone()), nil
}

// Close makes every later Begin fail with library.ErrClosed. Closing twice is a no-op.
func (s *Store) Close() error {
	if err := s.acquire(context.Background()); err != nil {
		return err
	}
	defer s.release()

	s.closed = true

	return nil
}

func (s *Store) acquire(ctx context.Context) error {
	select {
	case s.writer <- struct{}{}:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *Store) release() {
	<-s.writer
}

// publish replaces the committed state. The caller holds the writer slot.
func (s *Store) publish(state memoryState) {
	s.committed = state
}
