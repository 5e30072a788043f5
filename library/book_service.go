package library

import (
	"context"
	"fmt"
	"time"
)

// BookService manages the book inventory.
type BookService struct {
	runner *runner
}

// Acquire adds a new book to the inventory.
func (s *BookService) Acquire(ctx context.Context, id int64, title, author string, acquiredOn time.Time) error {
	return s.runner.run(ctx, operationAcquireBook, func(ctx context.Context, uow UnitOfWork) error {
		exists, err := uow.Books().Exists(ctx, id)
		if err != nil {
			return err
		}

		if exists {
			return fmt.Errorf("book %d: %w", id, ErrAlreadyExists)
		}

		return uow.Books().Insert(ctx, Book{
			ID:         id,
			Title:      title,
			Author:     author,
			AcquiredOn: Day(acquiredOn),
		})
	})
}

// Dispose removes an available, unreserved book from the inventory.
func (s *BookService) Dispose(ctx context.Context, id int64) error {
	return s.runner.run(ctx, operationDisposeBook, func(ctx context.Context, uow UnitOfWork) error {
		book, found, err := uow.Books().Get(ctx, id)
		if err != nil {
			return err
		}

		if !found {
			return bookNotFound(id)
		}

		if err = mustNotBeOnLoanForDisposal(book); err != nil {
			return err
		}

		queue, err := uow.Reservations().ListForBook(ctx, id)
		if err != nil {
			return err
		}

		if err = mustNotBeReserved(id, queue); err != nil {
			return err
		}

		rowsAffected, err := uow.Books().Delete(ctx, id)
		if err != nil {
			return err
		}

		if rowsAffected == 0 {
			return bookNotFound(id)
		}

		return nil
	})
}

// Find returns the book with the given id.
func (s *BookService) Find(ctx context.Context, id int64) (Book, error) {
	var book Book

	err := s.runner.run(ctx, operationFindBook, func(ctx context.Context, uow UnitOfWork) error {
		var found bool
		var err error

		book, found, err = uow.Books().Get(ctx, id)
		if err != nil {
			return err
		}

		if !found {
			return bookNotFound(id)
		}

		return nil
	})
	if err != nil {
		return Book{}, err
	}

	return book, nil
}

// LoansOf lists the books currently lent to a member, ordered by book id.
func (s *BookService) LoansOf(ctx context.Context, memberID int64) ([]Book, error) {
	var books []Book

	err := s.runner.run(ctx, operationListLoans, func(ctx context.Context, uow UnitOfWork) error {
		exists, err := uow.Members().Exists(ctx, memberID)
		if err != nil {
			return err
		}

		if !exists {
			return memberNotFound(memberID)
		}

		books, err = uow.Books().ListByBorrower(ctx, memberID)

		return err
	})
	if err != nil {
		return nil, err
	}

	return books, nil
}
