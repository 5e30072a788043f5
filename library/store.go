package library

import (
	"context"
	"time"
)

// Store opens units of work against one record store. The PostgreSQL engine and the in-memory
// engine both implement it.
type Store interface {
	Begin(ctx context.Context) (UnitOfWork, error)
	Close() error
}

// UnitOfWork is one transaction scope. All three accessors operate on the same scope,
// so a Commit publishes their writes together and a Rollback discards them together.
//
// Commit and Rollback are terminal. Calling either one after the scope has ended is a no-op,
// every accessor call after that fails with ErrUnitOfWorkFinished.
type UnitOfWork interface {
	Books() BookStore
	Members() MemberStore
	Reservations() ReservationStore
	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error
}

// BookStore accesses book records inside a unit of work.
//
// SetBorrower lends a book when expectedBorrowerID is zero and renews a loan otherwise.
// ClearBorrower ends the loan of expectedBorrowerID. Both only touch a row that still has
// the expected borrower, so a lost race shows up as zero rows affected.
type BookStore interface {
	Exists(ctx context.Context, id int64) (bool, error)
	Get(ctx context.Context, id int64) (Book, bool, error)
	Insert(ctx context.Context, book Book) error
	SetBorrower(ctx context.Context, id, memberID int64, loanedOn time.Time, expectedBorrowerID int64) (int64, error)
	ClearBorrower(ctx context.Context, id, expectedBorrowerID int64) (int64, error)
	Delete(ctx context.Context, id int64) (int64, error)
	ListByBorrower(ctx context.Context, memberID int64) ([]Book, error)
}

// MemberStore accesses member records inside a unit of work.
//
// IncrementLoanCount only touches a member below the loan ceiling,
// DecrementLoanCount only touches a member with at least one loan.
type MemberStore interface {
	Exists(ctx context.Context, id int64) (bool, error)
	Get(ctx context.Context, id int64) (Member, bool, error)
	Insert(ctx context.Context, member Member) error
	IncrementLoanCount(ctx context.Context, id int64) (int64, error)
	DecrementLoanCount(ctx context.Context, id int64) (int64, error)
	Delete(ctx context.Context, id int64) (int64, error)
}

// ReservationStore accesses reservation records inside a unit of work.
type ReservationStore interface {
	Exists(ctx context.Context, id int64) (bool, error)
	Get(ctx context.Context, id int64) (Reservation, bool, error)
	Insert(ctx context.Context, reservation Reservation) error
	ListForBook(ctx context.Context, bookID int64) ([]Reservation, error)
	ExistsForMember(ctx context.Context, memberID int64) (bool, error)
	Delete(ctx context.Context, id int64) (int64, error)
}
