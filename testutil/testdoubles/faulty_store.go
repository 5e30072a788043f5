package testdoubles

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/AntonStoeckl/lending-library-go/library"
)

// Record store calls that faults can be injected into.
const (
	CallBooksExists                 = "books.exists"
	CallBooksGet                    = "books.get"
	CallBooksInsert                 = "books.insert"
	CallBooksSetBorrower            = "books.set_borrower"
	CallBooksClearBorrower          = "books.clear_borrower"
	CallBooksDelete                 = "books.delete"
	CallBooksListByBorrower         = "books.list_by_borrower"
	CallMembersExists               = "members.exists"
	CallMembersGet                  = "members.get"
	CallMembersInsert               = "members.insert"
	CallMembersIncrementLoanCount   = "members.increment_loan_count"
	CallMembersDecrementLoanCount   = "members.decrement_loan_count"
	CallMembersDelete               = "members.delete"
	CallReservationsExists          = "reservations.exists"
	CallReservationsGet             = "reservations.get"
	CallReservationsInsert          = "reservations.insert"
	CallReservationsListForBook     = "reservations.list_for_book"
	CallReservationsExistsForMember = "reservations.exists_for_member"
	CallReservationsDelete          = "reservations.delete"
)

// FaultyStore wraps a library.Store and injects faults into chosen calls.
//
// A lost race makes a guarded write report zero affected rows without touching the wrapped store,
// which is what a concurrent transaction that changed the row first looks like.
type FaultyStore struct {
	inner library.Store

	mu          sync.Mutex
	lostRaces   map[string]bool
	failures    map[string]error
	panics      map[string]bool
	beginErr    error
	commitErr   error
	rollbackErr error
	commits     int
	rollbacks   int
}

// NewFaultyStore wraps inner. Without configured faults it behaves exactly like inner.
func NewFaultyStore(inner library.Store) *FaultyStore {
	return &FaultyStore{
		inner:     inner,
		lostRaces: make(map[string]bool),
		failures:  make(map[string]error),
		panics:    make(map[string]bool),
	}
}

// LoseRaceOn makes the guarded write call affect zero rows.
func (s *FaultyStore) LoseRaceOn(call string) *FaultyStore {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lostRaces[call] = true

	return s
}

// FailOn makes call return err.
func (s *FaultyStore) FailOn(call string, err error) *FaultyStore {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failures[call] = err

	return s
}

// PanicOn makes call panic.
func (s *FaultyStore) PanicOn(call string) *FaultyStore {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.panics[call] = true

	return s
}

// FailBegin makes Begin return err.
func (s *FaultyStore) FailBegin(err error) *FaultyStore {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.beginErr = err

	return s
}

// FailCommit makes Commit return err. The wrapped unit of work is rolled back instead of committed.
func (s *FaultyStore) FailCommit(err error) *FaultyStore {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.commitErr = err

	return s
}

// FailRollback makes Rollback return err after rolling back the wrapped unit of work.
func (s *FaultyStore) FailRollback(err error) *FaultyStore {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rollbackErr = err

	return s
}

// Heal removes all configured faults.
func (s *FaultyStore) Heal() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.lostRaces = make(map[string]bool)
	s.failures = make(map[string]error)
	s.panics = make(map[string]bool)
	s.beginErr = nil
	s.commitErr = nil
	s.rollbackErr = nil
}

// Commits returns how many units of work were committed successfully.
func (s *FaultyStore) Commits() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.commits
}

// Rollbacks returns how many units of work were rolled back.
func (s *FaultyStore) Rollbacks() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.rollbacks
}

// Begin implements library.Store.
func (s *FaultyStore) Begin(ctx context.Context) (library.UnitOfWork, error) {
	s.mu.Lock()
	beginErr := s.beginErr
	s.mu.Unlock()

	if beginErr != nil {
		return nil, beginErr
	}

	uow, err := s.inner.Begin(ctx)
	if err != nil {
		return nil, err
	}

	return &faultyUnitOfWork{inner: uow, store: s}, nil
}

// Close implements library.Store.
func (s *FaultyStore) Close() error {
	return s.inner.Close()
}

// intercept reports whether call loses its race, or returns the injected failure.
func (s *FaultyStore) intercept(call string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.panics[call] {
		panic(fmt.Sprintf("injected panic in %s", call))
	}

	if err, failing := s.failures[call]; failing {
		return false, err
	}

	return s.lostRaces[call], nil
}

type faultyUnitOfWork struct {
	inner library.UnitOfWork
	store *FaultyStore
}

func (u *faultyUnitOfWork) Books() library.BookStore {
	return faultyBooks{inner: u.inner.Books(), store: u.store}
}

func (u *faultyUnitOfWork) Members() library.MemberStore {
	return faultyMembers{inner: u.inner.Members(), store: u.store}
}

func (u *faultyUnitOfWork) Reservations() library.ReservationStore {
	return faultyReservations{inner: u.inner.Reservations(), store: u.store}
}

func (u *faultyUnitOfWork) Commit(ctx context.Context) error {
	u.store.mu.Lock()
	commitErr := u.store.commitErr
	u.store.mu.Unlock()

	if commitErr != nil {
		_ = u.inner.Rollback(ctx)
		return commitErr
	}

	if err := u.inner.Commit(ctx); err != nil {
		return err
	}

	u.store.mu.Lock()
	u.store.commits++
	u.store.mu.Unlock()

	return nil
}

func (u *faultyUnitOfWork) Rollback(ctx context.Context) error {
	err := u.inner.Rollback(ctx)

	u.store.mu.Lock()
	defer u.store.mu.Unlock()
	u.store.rollbacks++

	if u.store.rollbackErr != nil {
		return u.store.rollbackErr
	}

	return err
}

// guardedWrite runs write unless call is configured to fail or to lose its race.
func guardedWrite(store *FaultyStore, call string, write func() (int64, error)) (int64, error) {
	lost, err := store.intercept(call)
	if err != nil {
		return 0, err
	}

	if lost {
		return 0, nil
	}

	return write()
}

type faultyBooks struct {
	inner library.BookStore
	store *FaultyStore
}

func (b faultyBooks) Exists(ctx context.Context, id int64) (bool, error) {
	if _, err := b.store.intercept(CallBooksExists); err != nil {
		return false, err
	}

	return b.inner.Exists(ctx, id)
}

func (b faultyBooks) Get(ctx context.Context, id int64) (library.Book, bool, error) {
	if _, err := b.store.intercept(CallBooksGet); err != nil {
		return library.Book{}, false, err
	}

	return b.inner.Get(ctx, id)
}

func (b faultyBooks) Insert(ctx context.Context, book library.Book) error {
	if _, err := b.store.intercept(CallBooksInsert); err != nil {
		return err
	}

	return b.inner.Insert(ctx, book)
}

func (b faultyBooks) SetBorrower(
	ctx context.Context,
	id, memberID int64,
	loanedOn time.Time,
	expectedBorrowerID int64,
) (int64, error) {
	return guardedWrite(b.store, CallBooksSetBorrower, func() (int64, error) {
		return b.inner.SetBorrower(ctx, id, memberID, loanedOn, expectedBorrowerID)
	})
}

func (b faultyBooks) ClearBorrower(ctx context.Context, id, expectedBorrowerID int64) (int64, error) {
	return guardedWrite(b.store, CallBooksClearBorrower, func() (int64, error) {
		return b.inner.ClearBorrower(ctx, id, expectedBorrowerID)
	})
}

func (b faultyBooks) Delete(ctx context.Context, id int64) (int64, error) {
	return guardedWrite(b.store, CallBooksDelete, func() (int64, error) {
		return b.inner.Delete(ctx, id)
	})
}

func (b faultyBooks) ListByBorrower(ctx context.Context, memberID int64) ([]library.Book, error) {
	if _, err := b.store.intercept(CallBooksListByBorrower); err != nil {
		return nil, err
	}

	return b.inner.ListByBorrower(ctx, memberID)
}

type faultyMembers struct {
	inner library.MemberStore
	store *FaultyStore
}

func (m faultyMembers) Exists(ctx context.Context, id int64) (bool, error) {
	if _, err := m.store.intercept(CallMembersExists); err != nil {
		return false, err
	}

	return m.inner.Exists(ctx, id)
}

func (m faultyMembers) Get(ctx context.Context, id int64) (library.Member, bool, error) {
	if _, err := m.store.intercept(CallMembersGet); err != nil {
		return library.Member{}, false, err
	}

	return m.inner.Get(ctx, id)
}

func (m faultyMembers) Insert(ctx context.Context, member library.Member) error {
	if _, err := m.store.intercept(CallMembersInsert); err != nil {
		return err
	}

	return m.inner.Insert(ctx, member)
}

func (m faultyMembers) IncrementLoanCount(ctx context.Context, id int64) (int64, error) {
	return guardedWrite(m.store, CallMembersIncrementLoanCount, func() (int64, error) {
		return m.inner.IncrementLoanCount(ctx, id)
	})
}

func (m faultyMembers) DecrementLoanCount(ctx context.Context, id int64) (int64, error) {
	return guardedWrite(m.store, CallMembersDecrementLoanCount, func() (int64, error) {
		return m.inner.DecrementLoanCount(ctx, id)
	})
}

func (m faultyMembers) Delete(ctx context.Context, id int64) (int64, error) {
	return guardedWrite(m.store, CallMembersDelete, func() (int64, error) {
		return m.inner.Delete(ctx, id)
	})
}

type faultyReservations struct {
	inner library.ReservationStore
	store *FaultyStore
}

func (r faultyReservations) Exists(ctx context.Context, id int64) (bool, error) {
	if _, err := r.store.intercept(CallReservationsExists); err != nil {
		return false, err
	}

	return r.inner.Exists(ctx, id)
}

func (r faultyReservations) Get(ctx context.Context, id int64) (library.Reservation, bool, error) {
	if _, err := r.store.intercept(CallReservationsGet); err != nil {
		return library.Reservation{}, false, err
	}

	return r.inner.Get(ctx, id)
}

func (r faultyReservations) Insert(ctx context.Context, reservation library.Reservation) error {
	if _, err := r.store.intercept(CallReservationsInsert); err != nil {
		return err
	}

	return r.inner.Insert(ctx, reservation)
}

func (r faultyReservations) ListForBook(ctx context.Context, bookID int64) ([]library.Reservation, error) {
	if _, err := r.store.intercept(CallReservationsListForBook); err != nil {
		return nil, err
	}

	return r.inner.ListForBook(ctx, bookID)
}

func (r faultyReservations) ExistsForMember(ctx context.Context, memberID int64) (bool, error) {
	if _, err := r.store.intercept(CallReservationsExistsForMember); err != nil {
		return false, err
	}

	return r.inner.ExistsForMember(ctx, memberID)
}

func (r faultyReservations) Delete(ctx context.Context, id int64) (int64, error) {
	return guardedWrite(r.store, CallReservationsDelete, func() (int64, error) {
		return r.inner.Delete(ctx, id)
	})
}
