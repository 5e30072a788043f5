package library_test

import (
	"context"
	"errors"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AntonStoeckl/lending-library-go/library"
	"github.com/AntonStoeckl/lending-library-go/library/memengine"
	"github.com/AntonStoeckl/lending-library-go/testutil/testdoubles"
)

func Test_Open_FailsForNilStore(t *testing.T) {
	// act
	lib, err := library.Open(nil)

	// assert
	assert.ErrorIs(t, err, library.ErrNilStore)
	assert.Nil(t, lib)
}

func Test_Open_FailsWhenAnOptionFails(t *testing.T) {
	// arrange
	optionErr := errors.New("option failed")
	failing := func(*library.Library) error { return optionErr }

	// act
	_, err := library.Open(memengine.NewStore(), failing)

	// assert
	assert.ErrorIs(t, err, optionErr)
}

func Test_Close_IsIdempotentAndRejectsLaterCalls(t *testing.T) {
	// arrange
	ctx := context.Background()
	lib, _ := openLibrary(t)
	givenBook(t, lib, 1)

	// act
	firstErr := lib.Close(ctx)
	secondErr := lib.Close(ctx)
	_, findErr := lib.Books.Find(ctx, 1)
	lendErr := lib.Loans.Lend(ctx, 1, 10, jan01)
	enrollErr := lib.Members.Enroll(ctx, 10, "Jane Reader", "555-0100", -1)

	// assert
	assert.NoError(t, firstErr)
	assert.NoError(t, secondErr)
	assert.ErrorIs(t, findErr, library.ErrClosed)
	assert.ErrorIs(t, lendErr, library.ErrClosed)
	assert.ErrorIs(t, enrollErr, library.ErrClosed)
	assert.NotErrorIs(t, enrollErr, library.ErrInvalidLoanCeiling)
}

func Test_Library_ServicesShareOneStore(t *testing.T) {
	// arrange
	ctx := context.Background()
	lib, store := openLibrary(t)

	// act
	givenBook(t, lib, 1)
	givenMember(t, lib, 10, 1)
	givenLoan(t, lib, 1, 10, jan01)

	// assert
	books, err := lib.Books.LoansOf(ctx, 10)
	require.NoError(t, err)
	require.Len(t, books, 1)
	assert.Equal(t, int64(1), books[0].ID)
	assertConsistent(t, store)
}

// === Unit of work ===

func Test_UnitOfWork_LostRaceRollsBackEveryWrite(t *testing.T) {
	testCases := []struct {
		description string
		call        string
		act         func(ctx context.Context, lib *library.Library) error
	}{
		{
			description: "lend, book write",
			call:        testdoubles.CallBooksSetBorrower,
			act: func(ctx context.Context, lib *library.Library) error {
				return lib.Loans.Lend(ctx, 2, 20, jan02)
			},
		},
		{
			description: "lend, member write",
			call:        testdoubles.CallMembersIncrementLoanCount,
			act: func(ctx context.Context, lib *library.Library) error {
				return lib.Loans.Lend(ctx, 2, 20, jan02)
			},
		},
		{
			description: "renew",
			call:        testdoubles.CallBooksSetBorrower,
			act: func(ctx context.Context, lib *library.Library) error {
				return lib.Loans.Renew(ctx, 1, jan05)
			},
		},
		{
			description: "return, book write",
			call:        testdoubles.CallBooksClearBorrower,
			act: func(ctx context.Context, lib *library.Library) error {
				return lib.Loans.Return(ctx, 1, jan05)
			},
		},
		{
			description: "return, member write",
			call:        testdoubles.CallMembersDecrementLoanCount,
			act: func(ctx context.Context, lib *library.Library) error {
				return lib.Loans.Return(ctx, 1, jan05)
			},
		},
		{
			description: "fulfill, reservation delete",
			call:        testdoubles.CallReservationsDelete,
			act: func(ctx context.Context, lib *library.Library) error {
				return lib.Reservations.Fulfill(ctx, 200, jan05)
			},
		},
		{
			description: "fulfill, member write",
			call:        testdoubles.CallMembersIncrementLoanCount,
			act: func(ctx context.Context, lib *library.Library) error {
				return lib.Reservations.Fulfill(ctx, 200, jan05)
			},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.description, func(t *testing.T) {
			// arrange
			ctx := context.Background()
			store := memengine.NewStore()
			faulty := testdoubles.NewFaultyStore(store)
			lib, err := library.Open(faulty)
			require.NoError(t, err)

			givenBook(t, lib, 1)
			givenBook(t, lib, 2)
			givenBook(t, lib, 3)
			givenMember(t, lib, 10, 3)
			givenMember(t, lib, 20, 3)
			givenLoan(t, lib, 1, 10, jan01)
			givenLoan(t, lib, 3, 10, jan01)
			givenReservation(t, lib, 200, 3, 20, jan02)
			require.NoError(t, lib.Loans.Return(ctx, 3, jan03))

			before := snapshot(t, store)
			commitsBefore := faulty.Commits()
			faulty.LoseRaceOn(tc.call)

			// act
			err = tc.act(ctx, lib)

			// assert
			assert.ErrorIs(t, err, library.ErrConcurrentModification)
			assert.True(t, library.IsRetryable(err))
			assert.False(t, library.IsRuleViolation(err))
			assert.Equal(t, commitsBefore, faulty.Commits(), "nothing may be committed")
			assert.Equal(t, before, snapshot(t, store), "the committed state must be unchanged")
			assertConsistent(t, store)
		})
	}
}

func Test_UnitOfWork_ZeroRowDeletesMeanNotFound(t *testing.T) {
	// arrange
	ctx := context.Background()
	faulty := testdoubles.NewFaultyStore(memengine.NewStore())
	lib, err := library.Open(faulty)
	require.NoError(t, err)
	givenBook(t, lib, 1)
	givenMember(t, lib, 10, 1)
	faulty.LoseRaceOn(testdoubles.CallBooksDelete).LoseRaceOn(testdoubles.CallMembersDelete)

	// act
	disposeErr := lib.Books.Dispose(ctx, 1)
	withdrawErr := lib.Members.Withdraw(ctx, 10)

	// assert
	assert.ErrorIs(t, disposeErr, library.ErrNotFound)
	assert.ErrorIs(t, withdrawErr, library.ErrNotFound)
}

func Test_UnitOfWork_StoreFailuresAreWrapped(t *testing.T) {
	// arrange
	ctx := context.Background()
	driverErr := errors.New("connection reset by peer")
	faulty := testdoubles.NewFaultyStore(memengine.NewStore())
	lib, err := library.Open(faulty)
	require.NoError(t, err)
	givenBook(t, lib, 1)
	faulty.FailOn(testdoubles.CallBooksGet, driverErr)

	// act
	_, findErr := lib.Books.Find(ctx, 1)

	// assert
	assert.ErrorIs(t, findErr, library.ErrStoreUnavailable)
	assert.ErrorIs(t, findErr, driverErr)
	assert.False(t, library.IsRetryable(findErr))
	assert.False(t, library.IsRuleViolation(findErr))
}

func Test_UnitOfWork_BeginFailureIsWrapped(t *testing.T) {
	// arrange
	driverErr := errors.New("too many connections")
	faulty := testdoubles.NewFaultyStore(memengine.NewStore())
	lib, err := library.Open(faulty)
	require.NoError(t, err)
	faulty.FailBegin(driverErr)

	// act
	err = lib.Books.Acquire(context.Background(), 1, "Title", "Author", jan01)

	// assert
	assert.ErrorIs(t, err, library.ErrStoreUnavailable)
	assert.ErrorIs(t, err, driverErr)
	assert.Equal(t, 0, faulty.Rollbacks())
}

func Test_UnitOfWork_CommitFailureLeavesStateUnchanged(t *testing.T) {
	// arrange
	ctx := context.Background()
	commitErr := errors.New("could not serialize access")
	store := memengine.NewStore()
	faulty := testdoubles.NewFaultyStore(store)
	lib, err := library.Open(faulty)
	require.NoError(t, err)
	faulty.FailCommit(commitErr)

	// act
	err = lib.Books.Acquire(ctx, 1, "Title", "Author", jan01)

	// assert
	assert.ErrorIs(t, err, library.ErrStoreUnavailable)
	assert.ErrorIs(t, err, commitErr)
	assert.Empty(t, snapshot(t, store).Books)
}

func Test_UnitOfWork_RollbackFailureIsJoinedAndLogged(t *testing.T) {
	// arrange
	ctx := context.Background()
	rollbackErr := errors.New("connection lost during rollback")
	logSpy := testdoubles.NewLogHandlerSpy(false)
	faulty := testdoubles.NewFaultyStore(memengine.NewStore())
	lib, err := library.Open(faulty, library.WithLogger(slog.New(logSpy)))
	require.NoError(t, err)
	faulty.FailRollback(rollbackErr)

	// act
	err = lib.Loans.Lend(ctx, 1, 10, jan01)

	// assert
	assert.ErrorIs(t, err, library.ErrNotFound)
	assert.ErrorIs(t, err, rollbackErr)
	assert.True(t, logSpy.HasWarnLog("rollback failed"))
}

func Test_UnitOfWork_PanicRollsBackAndIsReraised(t *testing.T) {
	// arrange
	ctx := context.Background()
	store := memengine.NewStore()
	faulty := testdoubles.NewFaultyStore(store)
	lib, err := library.Open(faulty)
	require.NoError(t, err)
	givenBook(t, lib, 1)
	givenMember(t, lib, 10, 1)
	faulty.PanicOn(testdoubles.CallMembersIncrementLoanCount)

	// act
	assert.Panics(t, func() {
		_ = lib.Loans.Lend(ctx, 1, 10, jan01)
	})

	// assert
	assert.Equal(t, 1, faulty.Rollbacks())
	faulty.Heal()
	assert.False(t, findBook(t, lib, 1).OnLoan(), "the book write must be rolled back")
	assertConsistent(t, store)
}

func Test_UnitOfWork_CanceledContextFailsWithoutCommitting(t *testing.T) {
	// arrange
	ctx, cancel := context.WithCancel(context.Background())
	lib, store := openLibrary(t)
	cancel()

	// act
	err := lib.Books.Acquire(ctx, 1, "Title", "Author", jan01)

	// assert
	assert.ErrorIs(t, err, context.Canceled)
	assert.ErrorIs(t, err, library.ErrStoreUnavailable)
	assert.Empty(t, snapshot(t, store).Books)
}
