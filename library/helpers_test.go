package library_test

import (
	"context"
	"testing"
	"time"

	jsoniter "github.com/json-iterator/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AntonStoeckl/lending-library-go/library"
	"github.com/AntonStoeckl/lending-library-go/library/memengine"
)

var (
	jan01 = library.MustParseDate("2024-01-01")
	jan02 = library.MustParseDate("2024-01-02")
	jan03 = library.MustParseDate("2024-01-03")
	jan05 = library.MustParseDate("2024-01-05")
	jan10 = library.MustParseDate("2024-01-10")
)

func openLibrary(t *testing.T, options ...library.Option) (*library.Library, *memengine.Store) {
	t.Helper()

	store := memengine.NewStore()
	lib, err := library.Open(store, options...)
	require.NoError(t, err, "error in arranging the library")

	return lib, store
}

func givenBook(t *testing.T, lib *library.Library, id int64) {
	t.Helper()

	err := lib.Books.Acquire(context.Background(), id, "Learning Domain-Driven Design", "Vlad Khononov", jan01)
	require.NoError(t, err, "error in arranging test data")
}

func givenMember(t *testing.T, lib *library.Library, id int64, loanCeiling int) {
	t.Helper()

	err := lib.Members.Enroll(context.Background(), id, "Jane Reader", "555-0100", loanCeiling)
	require.NoError(t, err, "error in arranging test data")
}

func givenLoan(t *testing.T, lib *library.Library, bookID, memberID int64, date time.Time) {
	t.Helper()

	err := lib.Loans.Lend(context.Background(), bookID, memberID, date)
	require.NoError(t, err, "error in arranging test data")
}

func givenReservation(t *testing.T, lib *library.Library, reservationID, bookID, memberID int64, date time.Time) {
	t.Helper()

	err := lib.Reservations.Reserve(context.Background(), reservationID, bookID, memberID, date)
	require.NoError(t, err, "error in arranging test data")
}

func findBook(t *testing.T, lib *library.Library, id int64) library.Book {
	t.Helper()

	book, err := lib.Books.Find(context.Background(), id)
	require.NoError(t, err)

	return book
}

func findMember(t *testing.T, lib *library.Library, id int64) library.Member {
	t.Helper()

	member, err := lib.Members.Find(context.Background(), id)
	require.NoError(t, err)

	return member
}

func snapshot(t *testing.T, store *memengine.Store) memengine.Fixture {
	t.Helper()

	data, err := store.SnapshotJSON(context.Background())
	require.NoError(t, err)

	var fixture memengine.Fixture
	require.NoError(t, jsoniter.ConfigCompatibleWithStandardLibrary.Unmarshal(data, &fixture))

	return fixture
}

// assertConsistent checks that books, members and reservations agree with each other.
func assertConsistent(t *testing.T, store *memengine.Store) {
	t.Helper()

	fixture := snapshot(t, store)

	books := make(map[int64]library.Book)
	loans := make(map[int64]int)

	for _, book := range fixture.Books {
		assert.Equal(t, book.OnLoan(), !book.LoanedOn.IsZero(), "book %d: borrower and loan date must be set together", book.ID)

		books[book.ID] = book
		if book.OnLoan() {
			loans[book.BorrowerID]++
		}
	}

	for _, member := range fixture.Members {
		assert.Equal(t, loans[member.ID], member.LoanCount, "member %d: loan count must equal the books on loan", member.ID)
		assert.LessOrEqual(t, member.LoanCount, member.LoanCeiling, "member %d: loan count must not exceed the ceiling", member.ID)
	}

	for _, reservation := range fixture.Reservations {
		book, exists := books[reservation.BookID]
		assert.True(t, exists, "reservation %d must reference an existing book", reservation.ID)
		assert.False(t, book.IsLentTo(reservation.MemberID), "reservation %d must not belong to the holder", reservation.ID)
	}
}
