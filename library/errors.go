package library

import (
	"errors"
	"fmt"
)

// Business rule violations. They are recoverable results, callers match them with errors.Is.
var (
	ErrNotFound           = errors.New("not found")
	ErrAlreadyExists      = errors.New("already exists")
	ErrAlreadyOnLoan      = errors.New("book is already on loan")
	ErrNotOnLoan          = errors.New("book is not on loan")
	ErrOnLoan             = errors.New("book is on loan")
	ErrLoanLimitReached   = errors.New("member has reached the loan limit")
	ErrReserved           = errors.New("book is reserved")
	ErrSelfLoan           = errors.New("book is already on loan to this member")
	ErrNotFirstInLine     = errors.New("reservation is not first in line")
	ErrHasLoans           = errors.New("member still has loans")
	ErrHasReservations    = errors.New("member still has reservations")
	ErrDateOrderViolation = errors.New("date is earlier than the preceding date")
)

// ErrConcurrentModification means a write affected no rows because another transaction
// changed or deleted the row after it was read. The operation was rolled back and may be retried.
var ErrConcurrentModification = errors.New("concurrent modification, no rows were affected")

// ErrStoreUnavailable wraps failures of the underlying record store.
var ErrStoreUnavailable = errors.New("record store unavailable")

// Configuration and usage errors.
var (
	ErrNilStore              = errors.New("store must not be nil")
	ErrNilDatabaseConnection = errors.New("database connection must not be nil")
	ErrEmptyTableName        = errors.New("empty table name supplied")
	ErrClosed                = errors.New("library is closed")
	ErrUnitOfWorkFinished    = errors.New("unit of work is already committed or rolled back")
	ErrInvalidDate           = errors.New("invalid date")
	ErrInvalidLoanCeiling    = errors.New("loan ceiling must not be negative")
)

var ruleViolations = []error{
	ErrNotFound,
	ErrAlreadyExists,
	ErrAlreadyOnLoan,
	ErrNotOnLoan,
	ErrOnLoan,
	ErrLoanLimitReached,
	ErrReserved,
	ErrSelfLoan,
	ErrNotFirstInLine,
	ErrHasLoans,
	ErrHasReservations,
	ErrDateOrderViolation,
	ErrInvalidLoanCeiling,
}

// NotFirstInLineError is returned by ReservationService.Fulfill when another reservation
// for the same book precedes the requested one.
type NotFirstInLineError struct {
	ReservationID int64
	BookID        int64
	FirstInLineID int64
}

func (e *NotFirstInLineError) Error() string {
	return fmt.Sprintf(
		"reservation %d for book %d: %s, first in line is reservation %d",
		e.ReservationID, e.BookID, ErrNotFirstInLine, e.FirstInLineID,
	)
}

// Unwrap makes errors.Is(err, ErrNotFirstInLine) hold.
func (e *NotFirstInLineError) Unwrap() error {
	return ErrNotFirstInLine
}

// IsRuleViolation reports whether err is a business rule violation detected on the first read.
// Such errors must not be retried without re-validating the request.
func IsRuleViolation(err error) bool {
	for _, violation := range ruleViolations {
		if errors.Is(err, violation) {
			return true
		}
	}

	return false
}

// IsRetryable reports whether err signals a lost race with another transaction.
// Only ErrConcurrentModification is retryable, every other error fails fast.
func IsRetryable(err error) bool {
	return errors.Is(err, ErrConcurrentModification)
}

func bookNotFound(id int64) error {
	return fmt.Errorf("book %d: %w", id, ErrNotFound)
}

func memberNotFound(id int64) error {
	return fmt.Errorf("member %d: %w", id, ErrNotFound)
}

func reservationNotFound(id int64) error {
	return fmt.Errorf("reservation %d: %w", id, ErrNotFound)
}

// lostRace is returned when a guarded write affected zero rows.
func lostRace(entity string, id int64) error {
	return fmt.Errorf("%s %d changed by another transaction: %w", entity, id, ErrConcurrentModification)
}

// asStoreFailure leaves classified errors untouched and wraps everything else with ErrStoreUnavailable.
func asStoreFailure(err error) error {
	if err == nil {
		return nil
	}

	if IsRuleViolation(err) ||
		errors.Is(err, ErrConcurrentModification) ||
		errors.Is(err, ErrStoreUnavailable) ||
		errors.Is(err, ErrClosed) {
		return err
	}

	return errors.Join(ErrStoreUnavailable, err)
}
