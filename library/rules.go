package library

import (
	"fmt"
	"time"
)

// The rules below are pure decisions over state read inside the current unit of work.

func mustBeAvailable(book Book) error {
	if book.OnLoan() {
		return fmt.Errorf("book %d lent to member %d: %w", book.ID, book.BorrowerID, ErrAlreadyOnLoan)
	}

	return nil
}

func mustBeOnLoan(book Book) error {
	if !book.OnLoan() {
		return fmt.Errorf("book %d: %w", book.ID, ErrNotOnLoan)
	}

	return nil
}

func mustNotBeOnLoanForDisposal(book Book) error {
	if book.OnLoan() {
		return fmt.Errorf("book %d lent to member %d: %w", book.ID, book.BorrowerID, ErrOnLoan)
	}

	return nil
}

func mustNotBeLentTo(book Book, memberID int64) error {
	if book.IsLentTo(memberID) {
		return fmt.Errorf("book %d, member %d: %w", book.ID, memberID, ErrSelfLoan)
	}

	return nil
}

func mustBeBelowLoanCeiling(member Member) error {
	if member.AtLoanCeiling() {
		return fmt.Errorf(
			"member %d has %d of %d loans: %w",
			member.ID, member.LoanCount, member.LoanCeiling, ErrLoanLimitReached,
		)
	}

	return nil
}

func mustHaveValidLoanCeiling(memberID int64, loanCeiling int) error {
	if loanCeiling < 0 {
		return fmt.Errorf("member %d, loan ceiling %d: %w", memberID, loanCeiling, ErrInvalidLoanCeiling)
	}

	return nil
}

func mustHaveNoLoans(member Member) error {
	if member.HasLoans() {
		return fmt.Errorf("member %d has %d loans: %w", member.ID, member.LoanCount, ErrHasLoans)
	}

	return nil
}

func mustNotBeReserved(bookID int64, queue []Reservation) error {
	first, found := FirstInLine(queue)
	if found {
		return fmt.Errorf(
			"book %d reserved by member %d with reservation %d: %w",
			bookID, first.MemberID, first.ID, ErrReserved,
		)
	}

	return nil
}

func mustBeFirstInLine(reservation Reservation, queue []Reservation) error {
	first, found := FirstInLine(queue)
	if found && first.ID != reservation.ID {
		return &NotFirstInLineError{
			ReservationID: reservation.ID,
			BookID:        reservation.BookID,
			FirstInLineID: first.ID,
		}
	}

	return nil
}

// mustNotPrecede rejects a date on a calendar day strictly before reference.
func mustNotPrecede(date, reference time.Time, what, referenceName string) error {
	if isEarlier(date, reference) {
		return fmt.Errorf(
			"%s %s is earlier than %s %s: %w",
			what, Day(date).Format(DateLayout), referenceName, Day(reference).Format(DateLayout), ErrDateOrderViolation,
		)
	}

	return nil
}

// mustAffectOneRow turns a write that affected no rows into a lost race.
func mustAffectOneRow(rowsAffected int64, entity string, id int64) error {
	if rowsAffected == 0 {
		return lostRace(entity, id)
	}

	return nil
}
