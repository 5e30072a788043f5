// Package library provides the transactional business-rule layer of a lending library:
// book inventory, member registration, loans, and reservation queues.
//
// Every service operation is one unit of work. It re-reads the authoritative state from the
// record store, decides purely in memory whether the business rules allow the operation,
// issues the minimal set of writes, and commits. Any violated rule, failed write, or
// zero-rows-affected write rolls the whole unit of work back.
//
// Key types:
//   - Library: the facade that wires one Store into the four services
//   - BookService, MemberService, LoanService, ReservationService: the business operations
//   - Store and UnitOfWork: the record-store contract consumed by the services
//   - Book, Member, Reservation: the records the services read and write
//
// Common usage pattern:
//
//	engine, _ := postgresengine.NewEngineFromPGXPool(pool)
//	lib, _ := library.Open(engine, library.WithLogger(slog.Default()))
//	defer lib.Close()
//
//	err := lib.Loans.Lend(ctx, bookID, memberID, library.MustParseDate("2024-01-01"))
//	if errors.Is(err, library.ErrLoanLimitReached) {
//		// business rule violated, nothing was written
//	}
//	if library.IsRetryable(err) {
//		// lost a race against another transaction, the caller may try again
//	}
package library
