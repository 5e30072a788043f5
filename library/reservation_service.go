package library

import (
	"context"
	"fmt"
	"time"
)

// ReservationService manages the reservation queues of lent books.
type ReservationService struct {
	runner *runner
}

// Reserve queues a member for a book that is lent to somebody else.
func (s *ReservationService) Reserve(ctx context.Context, reservationID, bookID, memberID int64, date time.Time) error {
	return s.runner.run(ctx, operationReserveBook, func(ctx context.Context, uow UnitOfWork) error {
		book, found, err := uow.Books().Get(ctx, bookID)
		if err != nil {
			return err
		}

		if !found {
			return bookNotFound(bookID)
		}

		if err = mustBeOnLoan(book); err != nil {
			return err
		}

		if err = mustNotBeLentTo(book, memberID); err != nil {
			return err
		}

		exists, err := uow.Members().Exists(ctx, memberID)
		if err != nil {
			return err
		}

		if !exists {
			return memberNotFound(memberID)
		}

		if err = mustNotPrecede(date, book.LoanedOn, "reservation date", "loan date"); err != nil {
			return err
		}

		exists, err = uow.Reservations().Exists(ctx, reservationID)
		if err != nil {
			return err
		}

		if exists {
			return fmt.Errorf("reservation %d: %w", reservationID, ErrAlreadyExists)
		}

		return uow.Reservations().Insert(ctx, Reservation{
			ID:         reservationID,
			BookID:     bookID,
			MemberID:   memberID,
			ReservedOn: Day(date),
		})
	})
}

// Fulfill turns the first reservation in line into a loan and removes the reservation.
func (s *ReservationService) Fulfill(ctx context.Context, reservationID int64, date time.Time) error {
	return s.runner.run(ctx, operationFulfillReservation, func(ctx context.Context, uow UnitOfWork) error {
		reservation, found, err := uow.Reservations().Get(ctx, reservationID)
		if err != nil {
			return err
		}

		if !found {
			return reservationNotFound(reservationID)
		}

		queue, err := uow.Reservations().ListForBook(ctx, reservation.BookID)
		if err != nil {
			return err
		}

		if err = mustBeFirstInLine(reservation, queue); err != nil {
			return err
		}

		book, found, err := uow.Books().Get(ctx, reservation.BookID)
		if err != nil {
			return err
		}

		if !found {
			return bookNotFound(reservation.BookID)
		}

		if err = mustBeAvailable(book); err != nil {
			return err
		}

		member, found, err := uow.Members().Get(ctx, reservation.MemberID)
		if err != nil {
			return err
		}

		if !found {
			return memberNotFound(reservation.MemberID)
		}

		if err = mustBeBelowLoanCeiling(member); err != nil {
			return err
		}

		if err = mustNotPrecede(date, reservation.ReservedOn, "loan date", "reservation date"); err != nil {
			return err
		}

		if err = lendBook(ctx, uow, reservation.BookID, reservation.MemberID, date); err != nil {
			return err
		}

		rowsAffected, err := uow.Reservations().Delete(ctx, reservationID)
		if err != nil {
			return err
		}

		return mustAffectOneRow(rowsAffected, "reservation", reservationID)
	})
}

// Cancel removes a reservation.
func (s *ReservationService) Cancel(ctx context.Context, reservationID int64) error {
	return s.runner.run(ctx, operationCancelReservation, func(ctx context.Context, uow UnitOfWork) error {
		rowsAffected, err := uow.Reservations().Delete(ctx, reservationID)
		if err != nil {
			return err
		}

		if rowsAffected == 0 {
			return reservationNotFound(reservationID)
		}

		return nil
	})
}

// Queue returns the outstanding reservations of a book in the order they will be fulfilled.
func (s *ReservationService) Queue(ctx context.Context, bookID int64) ([]Reservation, error) {
	var queue []Reservation

	err := s.runner.run(ctx, operationReservationQueue, func(ctx context.Context, uow UnitOfWork) error {
		exists, err := uow.Books().Exists(ctx, bookID)
		if err != nil {
			return err
		}

		if !exists {
			return bookNotFound(bookID)
		}

		reservations, err := uow.Reservations().ListForBook(ctx, bookID)
		if err != nil {
			return err
		}

		queue = InLineOrder(reservations)

		return nil
	})
	if err != nil {
		return nil, err
	}

	return queue, nil
}
