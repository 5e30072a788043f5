package postgresengine

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
)

const logActionMigrate = "migrate"

const (
	createMembersTable = `CREATE TABLE IF NOT EXISTS %[1]s (
	id           BIGINT PRIMARY KEY,
	name         TEXT NOT NULL,
	phone        TEXT NOT NULL,
	loan_ceiling INTEGER NOT NULL CHECK (loan_ceiling >= 0),
	loan_count   INTEGER NOT NULL DEFAULT 0 CHECK (loan_count >= 0 AND loan_count <= loan_ceiling)
)`

	createBooksTable = `CREATE TABLE IF NOT EXISTS %[1]s (
	id          BIGINT PRIMARY KEY,
	title       TEXT NOT NULL,
	author      TEXT NOT NULL,
	acquired_on DATE NOT NULL,
	borrower_id BIGINT REFERENCES %[2]s (id),
	loaned_on   DATE,
	CHECK ((borrower_id IS NULL) = (loaned_on IS NULL))
)`

	createReservationsTable = `CREATE TABLE IF NOT EXISTS %[1]s (
	id          BIGINT PRIMARY KEY,
	book_id     BIGINT NOT NULL REFERENCES %[2]s (id),
	member_id   BIGINT NOT NULL REFERENCES %[3]s (id),
	reserved_on DATE NOT NULL
)`

	createBorrowerIndex    = `CREATE INDEX IF NOT EXISTS %[1]s ON %[2]s (borrower_id)`
	createReservationIndex = `CREATE INDEX IF NOT EXISTS %[1]s ON %[2]s (book_id, reserved_on, id)`
)

// Migrate creates the books, members and reservations tables and their indexes when they do not exist.
func (e Engine) Migrate(ctx context.Context) error {
	for _, statement := range e.migrationStatements() {
		start := time.Now()
		_, err := e.db.Exec(ctx, statement)
		e.logQueryWithDuration(statement, logActionMigrate, time.Since(start))

		if err != nil {
			e.logError(logMsgMigrationFailed, err, logAttrQuery, statement)
			return errors.Join(ErrMigrationFailed, err)
		}
	}

	return nil
}

func (e Engine) migrationStatements() []string {
	books := quoteIdentifier(e.tables.books)
	members := quoteIdentifier(e.tables.members)
	reservations := quoteIdentifier(e.tables.reservations)

	return []string{
		fmt.Sprintf(createMembersTable, members),
		fmt.Sprintf(createBooksTable, books, members),
		fmt.Sprintf(createReservationsTable, reservations, books, members),
		fmt.Sprintf(createBorrowerIndex, quoteIdentifier(unqualified(e.tables.books)+"_borrower_id_idx"), books),
		fmt.Sprintf(createReservationIndex, quoteIdentifier(unqualified(e.tables.reservations)+"_book_id_idx"), reservations),
	}
}

// quoteIdentifier quotes a table name, qualified by its schema when it contains a dot,
// the same way goqu reads it in the queries.
func quoteIdentifier(name string) string {
	return pgx.Identifier(strings.Split(name, ".")).Sanitize()
}

// unqualified strips the schema. Index names can not be schema qualified.
func unqualified(name string) string {
	return name[strings.LastIndex(name, ".")+1:]
}
