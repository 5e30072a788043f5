package memengine

import (
	"context"
	"fmt"
	"sort"

	"github.com/AntonStoeckl/lending-library-go/library"
)

type reservationStore struct {
	uow *unitOfWork
}

func (s reservationStore) Exists(ctx context.Context, id int64) (bool, error) {
	var exists bool

	err := s.uow.access(ctx, func(state memoryState) error {
		_, exists = state.reservations[id]
		return nil
	})

	return exists, err
}

func (s reservationStore) Get(ctx context.Context, id int64) (library.Reservation, bool, error) {
	var reservation library.Reservation
	var found bool

	err := s.uow.access(ctx, func(state memoryState) error {
		reservation, found = state.reservations[id]
		return nil
	})

	return reservation, found, err
}

func (s reservationStore) Insert(ctx context.Context, reservation library.Reservation) error {
	return s.uow.access(ctx, func(state memoryState) error {
		if _, exists := state.reservations[reservation.ID]; exists {
			return fmt.Errorf("insert reservation %d: %w", reservation.ID, library.ErrAlreadyExists)
		}

		if _, exists := state.books[reservation.BookID]; !exists {
			return fmt.Errorf("insert reservation %d, book %d: %w", reservation.ID, reservation.BookID, ErrForeignKeyViolation)
		}

		if _, exists := state.members[reservation.MemberID]; !exists {
			return fmt.Errorf("insert reservation %d, member %d: %w", reservation.ID, reservation.MemberID, ErrForeignKeyViolation)
		}

		state.reservations[reservation.ID] = reservation

		return nil
	})
}

// ListForBook returns the reservations of a book ordered by id.
func (s reservationStore) ListForBook(ctx context.Context, bookID int64) ([]library.Reservation, error) {
	var reservations []library.Reservation

	err := s.uow.access(ctx, func(state memoryState) error {
		for _, reservation := range state.reservations {
			if reservation.BookID == bookID {
				reservations = append(reservations, reservation)
			}
		}

		return nil
	})

	sort.Slice(reservations, func(i, j int) bool {
		return reservations[i].ID < reservations[j].ID
	})

	return reservations, err
}

func (s reservationStore) ExistsForMember(ctx context.Context, memberID int64) (bool, error) {
	var exists bool

	err := s.uow.access(ctx, func(state memoryState) error {
		for _, reservation := range state.reservations {
			if reservation.MemberID == memberID {
				exists = true
				break
			}
		}

		return nil
	})

	return exists, err
}

func (s reservationStore) Delete(ctx context.Context, id int64) (int64, error) {
	var rowsAffected int64

	err := s.uow.access(ctx, func(state memoryState) error {
		if _, exists := state.reservations[id]; !exists {
			return nil
		}

		delete(state.reservations, id)
		rowsAffected = 1

		return nil
	})

	return rowsAffected, err
}
