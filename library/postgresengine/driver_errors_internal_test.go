package postgresengine

import (
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"

	"github.com/AntonStoeckl/lending-library-go/library"
)

func Test_MapDriverError(t *testing.T) {
	testCases := []struct {
		name     string
		err      error
		expected error
	}{
		{"pgx unique violation", &pgconn.PgError{Code: "23505"}, library.ErrAlreadyExists},
		{"pgx serialization failure", &pgconn.PgError{Code: "40001"}, library.ErrConcurrentModification},
		{"pgx deadlock", &pgconn.PgError{Code: "40P01"}, library.ErrConcurrentModification},
		{"pgx foreign key violation", &pgconn.PgError{Code: "23503"}, library.ErrConcurrentModification},
		{"pq unique violation", &pq.Error{Code: "23505"}, library.ErrAlreadyExists},
		{"pq serialization failure", &pq.Error{Code: "40001"}, library.ErrConcurrentModification},
		{"wrapped pgx error", fmt.Errorf("exec: %w", &pgconn.PgError{Code: "40001"}), library.ErrConcurrentModification},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			// act
			mapped := mapDriverError(tc.err)

			// assert
			assert.ErrorIs(t, mapped, tc.expected)
			assert.ErrorIs(t, mapped, tc.err)
		})
	}
}

func Test_MapDriverError_LeavesOtherErrorsUnclassified(t *testing.T) {
	// arrange
	checkViolation := &pgconn.PgError{Code: "23514"}
	plain := errors.New("connection reset by peer")

	// act
	mappedCheck := mapDriverError(checkViolation)
	mappedPlain := mapDriverError(plain)

	// assert
	assert.Same(t, checkViolation, mappedCheck)
	assert.Equal(t, plain, mappedPlain)
	assert.False(t, library.IsRuleViolation(mappedCheck))
	assert.False(t, library.IsRetryable(mappedPlain))
	assert.NoError(t, mapDriverError(nil))
}

func Test_IsIsolationRejected(t *testing.T) {
	testCases := []struct {
		name     string
		err      error
		expected bool
	}{
		{"pgx feature not supported", &pgconn.PgError{Code: "0A000"}, true},
		{"pq invalid transaction state", &pq.Error{Code: "25001"}, true},
		{"too many connections", &pgconn.PgError{Code: "53300"}, false},
		{"plain network error", errors.New("connection refused"), false},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			// act
			rejected := isIsolationRejected(tc.err)

			// assert
			assert.Equal(t, tc.expected, rejected)
		})
	}
}
