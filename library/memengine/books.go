package memengine

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/AntonStoeckl/lending-library-go/library"
)

type bookStore struct {
	uow *unitOfWork
}

func (s bookStore) Exists(ctx context.Context, id int64) (bool, error) {
	var exists bool

	err := s.uow.access(ctx, func(state memoryState) error {
		_, exists = state.books[id]
		return nil
	})

	return exists, err
}

func (s bookStore) Get(ctx context.Context, id int64) (library.Book, bool, error) {
	var book library.Book
	var found bool

	err := s.uow.access(ctx, func(state memoryState) error {
		book, found = state.books[id]
		return nil
	})

	return book, found, err
}

func (s bookStore) Insert(ctx context.Context, book library.Book) error {
	return s.uow.access(ctx, func(state memoryState) error {
		if _, exists := state.books[book.ID]; exists {
			return fmt.Errorf("insert book %d: %w", book.ID, library.ErrAlreadyExists)
		}

		if book.OnLoan() {
			if _, exists := state.members[book.BorrowerID]; !exists {
				return fmt.Errorf("insert book %d, borrower %d: %w", book.ID, book.BorrowerID, ErrForeignKeyViolation)
			}
		}

		state.books[book.ID] = book

		return nil
	})
}

func (s bookStore) SetBorrower(
	ctx context.Context,
	id, memberID int64,
	loanedOn time.Time,
	expectedBorrowerID int64,
) (int64, error) {
	var rowsAffected int64

	err := s.uow.access(ctx, func(state memoryState) error {
		book, exists := state.books[id]
		if !exists || book.BorrowerID != expectedBorrowerID {
			return nil
		}

		if _, exists = state.members[memberID]; !exists {
			return fmt.Errorf("lend book %d, borrower %d: %w", id, memberID, ErrForeignKeyViolation)
		}

		book.BorrowerID = memberID
		book.LoanedOn = loanedOn
		state.books[id] = book
		rowsAffected = 1

		return nil
	})

	return rowsAffected, err
}

func (s bookStore) ClearBorrower(ctx context.Context, id, expectedBorrowerID int64) (int64, error) {
	var rowsAffected int64

	err := s.uow.access(ctx, func(state memoryState) error {
		book, exists := state.books[id]
		if !exists || !book.IsLentTo(expectedBorrowerID) {
			return nil
		}

		book.BorrowerID = 0
		book.LoanedOn = time.Time{}
		state.books[id] = book
		rowsAffected = 1

		return nil
	})

	return rowsAffected, err
}

func (s bookStore) Delete(ctx context.Context, id int64) (int64, error) {
	var rowsAffected int64

	err := s.uow.access(ctx, func(state memoryState) error {
		if _, exists := state.books[id]; !exists {
			return nil
		}

		if state.bookReserved(id) {
			return fmt.Errorf("delete book %d: %w", id, ErrForeignKeyViolation)
		}

		delete(state.books, id)
		rowsAffected = 1

		return nil
	})

	return rowsAffected, err
}

func (s bookStore) ListByBorrower(ctx context.Context, memberID int64) ([]library.Book, error) {
	var books []library.Book

	err := s.uow.access(ctx, func(state memoryState) error {
		for _, book := range state.books {
			if book.IsLentTo(memberID) {
				books = append(books, book)
			}
		}

		return nil
	})

	sort.Slice(books, func(i, j int) bool {
		return books[i].ID < books[j].ID
	})

	return books, err
}
