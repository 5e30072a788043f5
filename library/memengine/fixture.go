package memengine

import (
	"context"
	"errors"
	"fmt"
	"sort"

	jsoniter "github.com/json-iterator/go"

	"github.com/AntonStoeckl/lending-library-go/library"
)

// ErrInvalidFixture is returned by LoadJSON for malformed or inconsistent fixtures.
var ErrInvalidFixture = errors.New("invalid fixture")

var fixtureJSON = jsoniter.ConfigCompatibleWithStandardLibrary

// Fixture is the serialisable representation of the committed state. Records are ordered by id.
type Fixture struct {
	Books        []library.Book        `json:"books"`
	Members      []library.Member      `json:"members"`
	Reservations []library.Reservation `json:"reservations"`
}

// LoadJSON replaces the committed state with the records of a JSON fixture.
// Loan counts are derived from the books lent to each member and must not exceed the loan ceiling.
// A book carries a borrower and a loan date together or neither. It waits for the active unit of work to finish.
func (s *Store) LoadJSON(ctx context.Context, data []byte) error {
	var fixture Fixture
	if err := fixtureJSON.Unmarshal(data, &fixture); err != nil {
		return errors.Join(ErrInvalidFixture, err)
	}

	state, err := stateFromFixture(fixture)
	if err != nil {
		return err
	}

	if err = s.acquire(ctx); err != nil {
		return err
	}
	defer s.release()

	if s.closed {
		return library.ErrClosed
	}

	s.publish(state)

	return nil
}

// SnapshotJSON dumps the committed state as a JSON fixture.
func (s *Store) SnapshotJSON(ctx context.Context) ([]byte, error) {
	if err := s.acquire(ctx); err != nil {
		return nil, err
	}

	fixture := fixtureFromState(s.committed)
	s.release()

	return fixtureJSON.MarshalIndent(fixture, "", "  ")
}

func stateFromFixture(fixture Fixture) (memoryState, error) {
	state := newMemoryState()

	for _, member := range fixture.Members {
		if _, exists := state.members[member.ID]; exists {
			return memoryState{}, fmt.Errorf("%w: duplicate member %d", ErrInvalidFixture, member.ID)
		}

		if member.LoanCeiling < 0 {
			return memoryState{}, fmt.Errorf("%w: member %d has a negative loan ceiling", ErrInvalidFixture, member.ID)
		}

		member.LoanCount = 0
		state.members[member.ID] = member
	}

	for _, book := range fixture.Books {
		if _, exists := state.books[book.ID]; exists {
			return memoryState{}, fmt.Errorf("%w: duplicate book %d", ErrInvalidFixture, book.ID)
		}

		book.AcquiredOn = library.Day(book.AcquiredOn)
		book.LoanedOn = library.Day(book.LoanedOn)

		if book.OnLoan() == book.LoanedOn.IsZero() {
			return memoryState{}, fmt.Errorf("%w: book %d needs both a borrower and a loan date or neither", ErrInvalidFixture, book.ID)
		}

		if book.OnLoan() {
			member, exists := state.members[book.BorrowerID]
			if !exists {
				return memoryState{}, fmt.Errorf("%w: book %d lent to unknown member %d", ErrInvalidFixture, book.ID, book.BorrowerID)
			}

			member.LoanCount++
			state.members[member.ID] = member
		}

		state.books[book.ID] = book
	}

	for _, member := range state.members {
		if member.LoanCount > member.LoanCeiling {
			return memoryState{}, fmt.Errorf("%w: member %d has %d loans above the ceiling of %d",
				ErrInvalidFixture, member.ID, member.LoanCount, member.LoanCeiling)
		}
	}

	for _, reservation := range fixture.Reservations {
		if _, exists := state.reservations[reservation.ID]; exists {
			return memoryState{}, fmt.Errorf("%w: duplicate reservation %d", ErrInvalidFixture, reservation.ID)
		}

		if _, exists := state.books[reservation.BookID]; !exists {
			return memoryState{}, fmt.Errorf("%w: reservation %d for unknown book %d", ErrInvalidFixture, reservation.ID, reservation.BookID)
		}

		if _, exists := state.members[reservation.MemberID]; !exists {
			return memoryState{}, fmt.Errorf("%w: reservation %d for unknown member %d", ErrInvalidFixture, reservation.ID, reservation.MemberID)
		}

		reservation.ReservedOn = library.Day(reservation.ReservedOn)
		state.reservations[reservation.ID] = reservation
	}

	return state, nil
}

func fixtureFromState(state memoryState) Fixture {
	fixture := Fixture{
		Books:        make([]library.Book, 0, len(state.books)),
		Members:      make([]library.Member, 0, len(state.members)),
		Reservations: make([]library.Reservation, 0, len(state.reservations)),
	}

	for _, book := range state.books {
		fixture.Books = append(fixture.Books, book)
	}

	for _, member := range state.members {
		fixture.Members = append(fixture.Members, member)
	}

	for _, reservation := range state.reservations {
		fixture.Reservations = append(fixture.Reservations, reservation)
	}

	sort.Slice(fixture.Books, func(i, j int) bool { return fixture.Books[i].ID < fixture.Books[j].ID })
	sort.Slice(fixture.Members, func(i, j int) bool { return fixture.Members[i].ID < fixture.Members[j].ID })
	sort.Slice(fixture.Reservations, func(i, j int) bool { return fixture.Reservations[i].ID < fixture.Reservations[j].ID })

	return fixture
}
