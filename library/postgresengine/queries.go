package postgresengine

import (
	"errors"
	"time"

	"github.com/doug-martin/goqu/v9"
	_ "github.com/doug-martin/goqu/v9/dialect/postgres" // driver import
	"github.com/doug-martin/goqu/v9/exp"

	"github.com/AntonStoeckl/lending-library-go/library"
)

const (
	dialectPostgres = "postgres"
	colID           = "id"
	colTitle        = "title"
	colAuthor       = "author"
	colAcquiredOn   = "acquired_on"
	colBorrowerID   = "borrower_id"
	colLoanedOn     = "loaned_on"
	colName         = "name"
	colPhone        = "phone"
	colLoanCeiling  = "loan_ceiling"
	colLoanCount    = "loan_count"
	colBookID       = "book_id"
	colMemberID     = "member_id"
	colReservedOn   = "reserved_on"
	exprOne         = "1"
	exprIncrement   = "loan_count + 1"
	exprDecrement   = "loan_count - 1"
)

type (
	sqlQueryString = string
	sqlArgs        = []any
)

// statement is something goqu can render, a select, insert, update or delete dataset.
type statement interface {
	ToSQL() (string, []any, error)
}

// queries builds every statement of the engine for one set of table names.
type queries struct {
	dialect goqu.DialectWrapper
	tables  tableNames
}

func newQueries(tables tableNames) queries {
	return queries{dialect: goqu.Dialect(dialectPostgres), tables: tables}
}

func build(stmt statement) (sqlQueryString, sqlArgs, error) {
	query, args, err := stmt.ToSQL()
	if err != nil {
		return "", nil, errors.Join(ErrBuildingQueryFailed, err)
	}

	return query, args, nil
}

func (q queries) exists(table string, where ...exp.Expression) (sqlQueryString, sqlArgs, error) {
	return build(q.dialect.From(table).Prepared(true).
		Select(goqu.L(exprOne)).
		Where(where...).
		Limit(1))
}

// === books ===

var bookColumns = []any{colID, colTitle, colAuthor, colAcquiredOn, colBorrowerID, colLoanedOn}

func (q queries) bookExists(id int64) (sqlQueryString, sqlArgs, error) {
	return q.exists(q.tables.books, goqu.C(colID).Eq(id))
}

func (q queries) selectBook(id int64) (sqlQueryString, sqlArgs, error) {
	return build(q.dialect.From(q.tables.books).Prepared(true).
		Select(bookColumns...).
		Where(goqu.C(colID).Eq(id)))
}

func (q queries) selectBooksByBorrower(memberID int64) (sqlQueryString, sqlArgs, error) {
	return build(q.dialect.From(q.tables.books).Prepared(true).
		Select(bookColumns...).
		Where(goqu.C(colBorrowerID).Eq(memberID)).
		Order(goqu.I(colID).Asc()))
}

func (q queries) insertBook(book library.Book) (sqlQueryString, sqlArgs, error) {
	return build(q.dialect.Insert(q.tables.books).Prepared(true).
		Rows(goqu.Record{
			colID:         book.ID,
			colTitle:      book.Title,
			colAuthor:     book.Author,
			colAcquiredOn: book.AcquiredOn,
			colBorrowerID: nullableID(book.BorrowerID),
			colLoanedOn:   nullableDate(book.LoanedOn),
		}))
}

// setBorrower only matches a book that is still lent to expectedBorrowerID, or available when it is zero.
func (q queries) setBorrower(id, memberID int64, loanedOn time.Time, expectedBorrowerID int64) (sqlQueryString, sqlArgs, error) {
	return build(q.dialect.Update(q.tables.books).Prepared(true).
		Set(goqu.Record{colBorrowerID: memberID, colLoanedOn: loanedOn}).
		Where(goqu.C(colID).Eq(id), borrowerIs(expectedBorrowerID)))
}

func (q queries) clearBorrower(id, expectedBorrowerID int64) (sqlQueryString, sqlArgs, error) {
	return build(q.dialect.Update(q.tables.books).Prepared(true).
		Set(goqu.Record{colBorrowerID: nil, colLoanedOn: nil}).
		Where(goqu.C(colID).Eq(id), borrowerIs(expectedBorrowerID)))
}

func (q queries) deleteBook(id int64) (sqlQueryString, sqlArgs, error) {
	return build(q.dialect.Delete(q.tables.books).Prepared(true).
		Where(goqu.C(colID).Eq(id)))
}

// === members ===

var memberColumns = []any{colID, colName, colPhone, colLoanCeiling, colLoanCount}

func (q queries) memberExists(id int64) (sqlQueryString, sqlArgs, error) {
	return q.exists(q.tables.members, goqu.C(colID).Eq(id))
}

func (q queries) selectMember(id int64) (sqlQueryString, sqlArgs, error) {
	return build(q.dialect.From(q.tables.members).Prepared(true).
		Select(memberColumns...).
		Where(goqu.C(colID).Eq(id)))
}

func (q queries) insertMember(member library.Member) (sqlQueryString, sqlArgs, error) {
	return build(q.dialect.Insert(q.tables.members).Prepared(true).
		Rows(goqu.Record{
			colID:          member.ID,
			colName:        member.Name,
			colPhone:       member.Phone,
			colLoanCeiling: member.LoanCeiling,
			colLoanCount:   member.LoanCount,
		}))
}

// incrementLoanCount only matches a member below the loan ceiling.
func (q queries) incrementLoanCount(id int64) (sqlQueryString, sqlArgs, error) {
	return build(q.dialect.Update(q.tables.members).Prepared(true).
		Set(goqu.Record{colLoanCount: goqu.L(exprIncrement)}).
		Where(goqu.C(colID).Eq(id), goqu.C(colLoanCount).Lt(goqu.C(colLoanCeiling))))
}

// decrementLoanCount only matches a member with at least one loan.
func (q queries) decrementLoanCount(id int64) (sqlQueryString, sqlArgs, error) {
	return build(q.dialect.Update(q.tables.members).Prepared(true).
		Set(goqu.Record{colLoanCount: goqu.L(exprDecrement)}).
		Where(goqu.C(colID).Eq(id), goqu.C(colLoanCount).Gt(0)))
}

func (q queries) deleteMember(id int64) (sqlQueryString, sqlArgs, error) {
	return build(q.dialect.Delete(q.tables.members).Prepared(true).
		Where(goqu.C(colID).Eq(id)))
}

// === reservations ===

var reservationColumns = []any{colID, colBookID, colMemberID, colReservedOn}

func (q queries) reservationExists(id int64) (sqlQueryString, sqlArgs, error) {
	return q.exists(q.tables.reservations, goqu.C(colID).Eq(id))
}

func (q queries) reservationExistsForMember(memberID int64) (sqlQueryString, sqlArgs, error) {
	return q.exists(q.tables.reservations, goqu.C(colMemberID).Eq(memberID))
}

func (q queries) selectReservation(id int64) (sqlQueryString, sqlArgs, error) {
	return build(q.dialect.From(q.tables.reservations).Prepared(true).
		Select(reservationColumns...).
		Where(goqu.C(colID).Eq(id)))
}

func (q queries) selectReservationsForBook(bookID int64) (sqlQueryString, sqlArgs, error) {
	return build(q.dialect.From(q.tables.reservations).Prepared(true).
		Select(reservationColumns...).
		Where(goqu.C(colBookID).Eq(bookID)).
		Order(goqu.I(colID).Asc()))
}

func (q queries) insertReservation(reservation library.Reservation) (sqlQueryString, sqlArgs, error) {
	return build(q.dialect.Insert(q.tables.reservations).Prepared(true).
		Rows(goqu.Record{
			colID:         reservation.ID,
			colBookID:     reservation.BookID,
			colMemberID:   reservation.MemberID,
			colReservedOn: reservation.ReservedOn,
		}))
}

func (q queries) deleteReservation(id int64) (sqlQueryString, sqlArgs, error) {
	return build(q.dialect.Delete(q.tables.reservations).Prepared(true).
		Where(goqu.C(colID).Eq(id)))
}

func borrowerIs(borrowerID int64) exp.Expression {
	if borrowerID == 0 {
		return goqu.C(colBorrowerID).IsNull()
	}

	return goqu.C(colBorrowerID).Eq(borrowerID)
}

func nullableID(id int64) any {
	if id == 0 {
		return nil
	}

	return id
}

func nullableDate(date time.Time) any {
	if date.IsZero() {
		return nil
	}

	return date
}
