package library

import (
	"context"
	"time"
)

// LoanService lends, renews and takes back books.
type LoanService struct {
	runner *runner
}

// Lend lends an available, unreserved book to a member below the loan ceiling.
func (s *LoanService) Lend(ctx context.Context, bookID, memberID int64, date time.Time) error {
	return s.runner.run(ctx, operationLendBook, func(ctx context.Context, uow UnitOfWork) error {
		book, found, err := uow.Books().Get(ctx, bookID)
		if err != nil {
			return err
		}

		if !found {
			return bookNotFound(bookID)
		}

		if err = mustBeAvailable(book); err != nil {
			return err
		}

		member, found, err := uow.Members().Get(ctx, memberID)
		if err != nil {
			return err
		}

		if !found {
			return memberNotFound(memberID)
		}

		if err = mustBeBelowLoanCeiling(member); err != nil {
			return err
		}

		queue, err := uow.Reservations().ListForBook(ctx, bookID)
		if err != nil {
			return err
		}

		if err = mustNotBeReserved(bookID, queue); err != nil {
			return err
		}

		return lendBook(ctx, uow, bookID, memberID, date)
	})
}

// Renew moves the loan date of a lent, unreserved book forward.
func (s *LoanService) Renew(ctx context.Context, bookID int64, date time.Time) error {
	return s.runner.run(ctx, operationRenewLoan, func(ctx context.Context, uow UnitOfWork) error {
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

		if err = mustNotPrecede(date, book.LoanedOn, "renewal date", "loan date"); err != nil {
			return err
		}

		queue, err := uow.Reservations().ListForBook(ctx, bookID)
		if err != nil {
			return err
		}

		if err = mustNotBeReserved(bookID, queue); err != nil {
			return err
		}

		rowsAffected, err := uow.Books().SetBorrower(ctx, bookID, book.BorrowerID, Day(date), book.BorrowerID)
		if err != nil {
			return err
		}

		return mustAffectOneRow(rowsAffected, "book", bookID)
	})
}

// Return takes a lent book back and frees one loan of its borrower.
func (s *LoanService) Return(ctx context.Context, bookID int64, date time.Time) error {
	return s.runner.run(ctx, operationReturnBook, func(ctx context.Context, uow UnitOfWork) error {
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

		if err = mustNotPrecede(date, book.LoanedOn, "return date", "loan date"); err != nil {
			return err
		}

		rowsAffected, err := uow.Books().ClearBorrower(ctx, bookID, book.BorrowerID)
		if err != nil {
			return err
		}

		if err = mustAffectOneRow(rowsAffected, "book", bookID); err != nil {
			return err
		}

		rowsAffected, err = uow.Members().DecrementLoanCount(ctx, book.BorrowerID)
		if err != nil {
			return err
		}

		return mustAffectOneRow(rowsAffected, "member", book.BorrowerID)
	})
}

// lendBook records a new loan on the book and the member. Lend and Fulfill share it.
func lendBook(ctx context.Context, uow UnitOfWork, bookID, memberID int64, date time.Time) error {
	rowsAffected, err := uow.Books().SetBorrower(ctx, bookID, memberID, Day(date), 0)
	if err != nil {
		return err
	}

	if err = mustAffectOneRow(rowsAffected, "book", bookID); err != nil {
		return err
	}

	rowsAffected, err = uow.Members().IncrementLoanCount(ctx, memberID)
	if err != nil {
		return err
	}

	return mustAffectOneRow(rowsAffected, "member", memberID)
}
