package postgresengine

import (
	"context"
	"time"

	"github.com/AntonStoeckl/lending-library-go/library"
	"github.com/AntonStoeckl/lending-library-go/library/postgresengine/internal/adapters"
)

// === books ===

type bookStore struct {
	uow *unitOfWork
}

func (s bookStore) Exists(ctx context.Context, id int64) (bool, error) {
	sqlQuery, args, err := s.uow.queries.bookExists(id)
	return s.uow.exists(ctx, sqlQuery, args, err)
}

func (s bookStore) Get(ctx context.Context, id int64) (library.Book, bool, error) {
	sqlQuery, args, buildErr := s.uow.queries.selectBook(id)

	var book library.Book
	var found bool

	err := s.uow.query(ctx, logActionSelect, sqlQuery, args, buildErr, func(rows adapters.DBRows) error {
		var scanErr error
		book, scanErr = scanBook(rows)
		found = scanErr == nil

		return scanErr
	})
	if err != nil {
		return library.Book{}, false, err
	}

	return book, found, nil
}

func (s bookStore) Insert(ctx context.Context, book library.Book) error {
	sqlQuery, args, err := s.uow.queries.insertBook(book)
	_, err = s.uow.exec(ctx, logActionInsert, sqlQuery, args, err)

	return err
}

func (s bookStore) SetBorrower(
	ctx context.Context,
	id, memberID int64,
	loanedOn time.Time,
	expectedBorrowerID int64,
) (int64, error) {
	sqlQuery, args, err := s.uow.queries.setBorrower(id, memberID, loanedOn, expectedBorrowerID)
	return s.uow.exec(ctx, logActionUpdate, sqlQuery, args, err)
}

func (s bookStore) ClearBorrower(ctx context.Context, id, expectedBorrowerID int64) (int64, error) {
	sqlQuery, args, err := s.uow.queries.clearBorrower(id, expectedBorrowerID)
	return s.uow.exec(ctx, logActionUpdate, sqlQuery, args, err)
}

func (s bookStore) Delete(ctx context.Context, id int64) (int64, error) {
	sqlQuery, args, err := s.uow.queries.deleteBook(id)
	return s.uow.exec(ctx, logActionDelete, sqlQuery, args, err)
}

func (s bookStore) ListByBorrower(ctx context.Context, memberID int64) ([]library.Book, error) {
	sqlQuery, args, buildErr := s.uow.queries.selectBooksByBorrower(memberID)

	var books []library.Book

	err := s.uow.query(ctx, logActionSelect, sqlQuery, args, buildErr, func(rows adapters.DBRows) error {
		book, scanErr := scanBook(rows)
		if scanErr != nil {
			return scanErr
		}

		books = append(books, book)

		return nil
	})
	if err != nil {
		return nil, err
	}

	return books, nil
}

func scanBook(rows adapters.DBRows) (library.Book, error) {
	var book library.Book
	var borrowerID *int64
	var loanedOn *time.Time

	if err := rows.Scan(&book.ID, &book.Title, &book.Author, &book.AcquiredOn, &borrowerID, &loanedOn); err != nil {
		return library.Book{}, err
	}

	book.AcquiredOn = library.Day(book.AcquiredOn)

	if borrowerID != nil {
		book.BorrowerID = *borrowerID
	}

	if loanedOn != nil {
		book.LoanedOn = library.Day(*loanedOn)
	}

	return book, nil
}

// === members ===

type memberStore struct {
	uow *unitOfWork
}

func (s memberStore) Exists(ctx context.Context, id int64) (bool, error) {
	sqlQuery, args, err := s.uow.queries.memberExists(id)
	return s.uow.exists(ctx, sqlQuery, args, err)
}

func (s memberStore) Get(ctx context.Context, id int64) (library.Member, bool, error) {
	sqlQuery, args, buildErr := s.uow.queries.selectMember(id)

	var member library.Member
	var found bool

	err := s.uow.query(ctx, logActionSelect, sqlQuery, args, buildErr, func(rows adapters.DBRows) error {
		if scanErr := rows.Scan(&member.ID, &member.Name, &member.Phone, &member.LoanCeiling, &member.LoanCount); scanErr != nil {
			return scanErr
		}

		found = true

		return nil
	})
	if err != nil {
		return library.Member{}, false, err
	}

	return member, found, nil
}

func (s memberStore) Insert(ctx context.Context, member library.Member) error {
	sqlQuery, args, err := s.uow.queries.insertMember(member)
	_, err = s.uow.exec(ctx, logActionInsert, sqlQuery, args, err)

	return err
}

func (s memberStore) IncrementLoanCount(ctx context.Context, id int64) (int64, error) {
	sqlQuery, args, err := s.uow.queries.incrementLoanCount(id)
	return s.uow.exec(ctx, logActionUpdate, sqlQuery, args, err)
}

func (s memberStore) DecrementLoanCount(ctx context.Context, id int64) (int64, error) {
	sqlQuery, args, err := s.uow.queries.decrementLoanCount(id)
	return s.uow.exec(ctx, logActionUpdate, sqlQuery, args, err)
}

func (s memberStore) Delete(ctx context.Context, id int64) (int64, error) {
	sqlQuery, args, err := s.uow.queries.deleteMember(id)
	return s.uow.exec(ctx, logActionDelete, sqlQuery, args, err)
}

// === reservations ===

type reservationStore struct {
	uow *unitOfWork
}

func (s reservationStore) Exists(ctx context.Context, id int64) (bool, error) {
	sqlQuery, args, err := s.uow.queries.reservationExists(id)
	return s.uow.exists(ctx, sqlQuery, args, err)
}

func (s reservationStore) Get(ctx context.Context, id int64) (library.Reservation, bool, error) {
	sqlQuery, args, buildErr := s.uow.queries.selectReservation(id)

	var reservation library.Reservation
	var found bool

	err := s.uow.query(ctx, logActionSelect, sqlQuery, args, buildErr, func(rows adapters.DBRows) error {
		var scanErr error
		reservation, scanErr = scanReservation(rows)
		found = scanErr == nil

		return scanErr
	})
	if err != nil {
		return library.Reservation{}, false, err
	}

	return reservation, found, nil
}

func (s reservationStore) Insert(ctx context.Context, reservation library.Reservation) error {
	sqlQuery, args, err := s.uow.queries.insertReservation(reservation)
	_, err = s.uow.exec(ctx, logActionInsert, sqlQuery, args, err)

	return err
}

// ListForBook returns the reservations of a book ordered by id.
func (s reservationStore) ListForBook(ctx context.Context, bookID int64) ([]library.Reservation, error) {
	sqlQuery, args, buildErr := s.uow.queries.selectReservationsForBook(bookID)

	var reservations []library.Reservation

	err := s.uow.query(ctx, logActionSelect, sqlQuery, args, buildErr, func(rows adapters.DBRows) error {
		reservation, scanErr := scanReservation(rows)
		if scanErr != nil {
			return scanErr
		}

		reservations = append(reservations, reservation)

		return nil
	})
	if err != nil {
		return nil, err
	}

	return reservations, nil
}

func (s reservationStore) ExistsForMember(ctx context.Context, memberID int64) (bool, error) {
	sqlQuery, args, err := s.uow.queries.reservationExistsForMember(memberID)
	return s.uow.exists(ctx, sqlQuery, args, err)
}

func (s reservationStore) Delete(ctx context.Context, id int64) (int64, error) {
	sqlQuery, args, err := s.uow.queries.deleteReservation(id)
	return s.uow.exec(ctx, logActionDelete, sqlQuery, args, err)
}

func scanReservation(rows adapters.DBRows) (library.Reservation, error) {
	var reservation library.Reservation

	if err := rows.Scan(&reservation.ID, &reservation.BookID, &reservation.MemberID, &reservation.ReservedOn); err != nil {
		return library.Reservation{}, err
	}

	reservation.ReservedOn = library.Day(reservation.ReservedOn)

	return reservation, nil
}
