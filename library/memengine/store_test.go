package memengine_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AntonStoeckl/lending-library-go/library"
	"github.com/AntonStoeckl/lending-library-go/library/memengine"
)

var jan01 = library.MustParseDate("2024-01-01")

func givenCommitted(t *testing.T, store *memengine.Store, write func(ctx context.Context, uow library.UnitOfWork)) {
	t.Helper()

	ctx := context.Background()
	uow, err := store.Begin(ctx)
	require.NoError(t, err, "error in arranging test data")

	write(ctx, uow)

	require.NoError(t, uow.Commit(ctx), "error in arranging test data")
}

func Test_Store_CommitPublishesWrites(t *testing.T) {
	// arrange
	ctx := context.Background()
	store := memengine.NewStore()

	// act
	givenCommitted(t, store, func(ctx context.Context, uow library.UnitOfWork) {
		require.NoError(t, uow.Books().Insert(ctx, library.Book{ID: 1, Title: "Title", AcquiredOn: jan01}))
	})

	// assert
	uow, err := store.Begin(ctx)
	require.NoError(t, err)
	defer func() { _ = uow.Rollback(ctx) }()

	book, found, err := uow.Books().Get(ctx, 1)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, "Title", book.Title)
}

func Test_Store_RollbackDiscardsWrites(t *testing.T) {
	// arrange
	ctx := context.Background()
	store := memengine.NewStore()

	uow, err := store.Begin(ctx)
	require.NoError(t, err)
	require.NoError(t, uow.Members().Insert(ctx, library.Member{ID: 10, LoanCeiling: 1}))

	// act
	err = uow.Rollback(ctx)

	// assert
	require.NoError(t, err)

	next, err := store.Begin(ctx)
	require.NoError(t, err)
	defer func() { _ = next.Rollback(ctx) }()

	exists, err := next.Members().Exists(ctx, 10)
	require.NoError(t, err)
	assert.False(t, exists)
}

func Test_Store_FinishedUnitOfWorkRejectsAccess(t *testing.T) {
	// arrange
	ctx := context.Background()
	store := memengine.NewStore()
	uow, err := store.Begin(ctx)
	require.NoError(t, err)
	require.NoError(t, uow.Commit(ctx))

	// act
	_, existsErr := uow.Books().Exists(ctx, 1)
	insertErr := uow.Books().Insert(ctx, library.Book{ID: 1})
	secondCommitErr := uow.Commit(ctx)
	rollbackErr := uow.Rollback(ctx)

	// assert
	assert.ErrorIs(t, existsErr, library.ErrUnitOfWorkFinished)
	assert.ErrorIs(t, insertErr, library.ErrUnitOfWorkFinished)
	assert.NoError(t, secondCommitErr)
	assert.NoError(t, rollbackErr)
}

func Test_Store_BeginWaitsForActiveUnitOfWork(t *testing.T) {
	// arrange
	store := memengine.NewStore()
	active, err := store.Begin(context.Background())
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	// act
	_, blockedErr := store.Begin(ctx)
	require.NoError(t, active.Rollback(context.Background()))
	next, nextErr := store.Begin(context.Background())

	// assert
	assert.ErrorIs(t, blockedErr, context.DeadlineExceeded)
	require.NoError(t, nextErr)
	assert.NoError(t, next.Rollback(context.Background()))
}

func Test_Store_CloseRejectsBegin(t *testing.T) {
	// arrange
	store := memengine.NewStore()

	// act
	firstErr := store.Close()
	secondErr := store.Close()
	_, beginErr := store.Begin(context.Background())

	// assert
	assert.NoError(t, firstErr)
	assert.NoError(t, secondErr)
	assert.ErrorIs(t, beginErr, library.ErrClosed)
}

func Test_Store_GuardedWrites(t *testing.T) {
	// arrange
	ctx := context.Background()
	store := memengine.NewStore()
	givenCommitted(t, store, func(ctx context.Context, uow library.UnitOfWork) {
		require.NoError(t, uow.Members().Insert(ctx, library.Member{ID: 10, LoanCeiling: 1}))
		require.NoError(t, uow.Members().Insert(ctx, library.Member{ID: 20, LoanCeiling: 1}))
		require.NoError(t, uow.Books().Insert(ctx, library.Book{ID: 1, AcquiredOn: jan01}))
	})

	uow, err := store.Begin(ctx)
	require.NoError(t, err)
	defer func() { _ = uow.Rollback(ctx) }()

	books := uow.Books()
	members := uow.Members()

	// act & assert
	rows, err := books.SetBorrower(ctx, 1, 10, jan01, 20)
	require.NoError(t, err)
	assert.Equal(t, int64(0), rows, "an available book does not match borrower 20")

	rows, err = books.SetBorrower(ctx, 1, 10, jan01, 0)
	require.NoError(t, err)
	assert.Equal(t, int64(1), rows)

	rows, err = books.SetBorrower(ctx, 1, 20, jan01, 0)
	require.NoError(t, err)
	assert.Equal(t, int64(0), rows, "a lent book is not available")

	rows, err = books.ClearBorrower(ctx, 1, 20)
	require.NoError(t, err)
	assert.Equal(t, int64(0), rows, "book 1 is lent to member 10")

	rows, err = members.IncrementLoanCount(ctx, 10)
	require.NoError(t, err)
	assert.Equal(t, int64(1), rows)

	rows, err = members.IncrementLoanCount(ctx, 10)
	require.NoError(t, err)
	assert.Equal(t, int64(0), rows, "member 10 is at the ceiling")

	rows, err = members.DecrementLoanCount(ctx, 20)
	require.NoError(t, err)
	assert.Equal(t, int64(0), rows, "member 20 has no loans")

	rows, err = books.ClearBorrower(ctx, 1, 10)
	require.NoError(t, err)
	assert.Equal(t, int64(1), rows)

	book, _, err := books.Get(ctx, 1)
	require.NoError(t, err)
	assert.False(t, book.OnLoan())
	assert.True(t, book.LoanedOn.IsZero())
}

func Test_Store_ReferentialIntegrity(t *testing.T) {
	// arrange
	ctx := context.Background()
	store := memengine.NewStore()
	givenCommitted(t, store, func(ctx context.Context, uow library.UnitOfWork) {
		require.NoError(t, uow.Members().Insert(ctx, library.Member{ID: 10, LoanCeiling: 1}))
		require.NoError(t, uow.Books().Insert(ctx, library.Book{ID: 1, AcquiredOn: jan01}))
		require.NoError(t, uow.Reservations().Insert(ctx, library.Reservation{ID: 100, BookID: 1, MemberID: 10, ReservedOn: jan01}))
	})

	uow, err := store.Begin(ctx)
	require.NoError(t, err)
	defer func() { _ = uow.Rollback(ctx) }()

	// act
	_, deleteBookErr := uow.Books().Delete(ctx, 1)
	_, deleteMemberErr := uow.Members().Delete(ctx, 10)
	insertReservationErr := uow.Reservations().Insert(ctx, library.Reservation{ID: 101, BookID: 2, MemberID: 10})
	_, lendErr := uow.Books().SetBorrower(ctx, 1, 99, jan01, 0)
	duplicateErr := uow.Books().Insert(ctx, library.Book{ID: 1})

	// assert
	assert.ErrorIs(t, deleteBookErr, memengine.ErrForeignKeyViolation)
	assert.ErrorIs(t, deleteMemberErr, memengine.ErrForeignKeyViolation)
	assert.ErrorIs(t, insertReservationErr, memengine.ErrForeignKeyViolation)
	assert.ErrorIs(t, lendErr, memengine.ErrForeignKeyViolation)
	assert.ErrorIs(t, duplicateErr, library.ErrAlreadyExists)
}

func Test_Store_ListsAreOrderedByID(t *testing.T) {
	// arrange
	ctx := context.Background()
	store := memengine.NewStore()
	givenCommitted(t, store, func(ctx context.Context, uow library.UnitOfWork) {
		require.NoError(t, uow.Members().Insert(ctx, library.Member{ID: 10, LoanCeiling: 5}))
		for _, id := range []int64{5, 3, 4} {
			require.NoError(t, uow.Books().Insert(ctx, library.Book{ID: id, BorrowerID: 10, LoanedOn: jan01}))
			require.NoError(t, uow.Reservations().Insert(ctx, library.Reservation{ID: id * 10, BookID: 5, MemberID: 10}))
		}
	})

	uow, err := store.Begin(ctx)
	require.NoError(t, err)
	defer func() { _ = uow.Rollback(ctx) }()

	// act
	books, booksErr := uow.Books().ListByBorrower(ctx, 10)
	reservations, reservationsErr := uow.Reservations().ListForBook(ctx, 5)
	reserved, reservedErr := uow.Reservations().ExistsForMember(ctx, 10)

	// assert
	require.NoError(t, booksErr)
	require.NoError(t, reservationsErr)
	require.NoError(t, reservedErr)
	assert.Equal(t, []int64{3, 4, 5}, []int64{books[0].ID, books[1].ID, books[2].ID})
	assert.Equal(t, []int64{30, 40, 50}, []int64{reservations[0].ID, reservations[1].ID, reservations[2].ID})
	assert.True(t, reserved)
}
