package postgresengine

import (
	"errors"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"

	"github.com/AntonStoeckl/lending-library-go/library"
)

// SQLSTATE codes with a meaning for the services.
const (
	sqlStateUniqueViolation      = "23505"
	sqlStateForeignKeyViolation  = "23503"
	sqlStateSerializationFailure = "40001"
	sqlStateDeadlockDetected     = "40P01"

	sqlStateClassFeatureNotSupported     = "0A"
	sqlStateClassInvalidTransactionState = "25"
)

// mapDriverError classifies a pgx or lib/pq error by its SQLSTATE.
//
// A serialization failure, a deadlock, and a foreign key violation on a row the unit of work
// has just read all mean another transaction won the race.
func mapDriverError(err error) error {
	if err == nil {
		return nil
	}

	switch sqlState(err) {
	case sqlStateUniqueViolation:
		return errors.Join(library.ErrAlreadyExists, err)
	case sqlStateSerializationFailure, sqlStateDeadlockDetected, sqlStateForeignKeyViolation:
		return errors.Join(library.ErrConcurrentModification, err)
	default:
		return err
	}
}

func sqlState(err error) string {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code
	}

	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return string(pqErr.Code)
	}

	return ""
}

// isIsolationRejected reports whether the database refused the requested isolation level,
// as opposed to failing to start the transaction at all.
func isIsolationRejected(err error) bool {
	state := sqlState(err)

	return strings.HasPrefix(state, sqlStateClassFeatureNotSupported) ||
		strings.HasPrefix(state, sqlStateClassInvalidTransactionState)
}
