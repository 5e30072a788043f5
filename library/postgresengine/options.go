package postgresengine

import (
	"github.com/AntonStoeckl/lending-library-go/library"
	"github.com/AntonStoeckl/lending-library-go/library/postgresengine/internal/adapters"
)

// IsolationLevel is the transaction isolation level requested for every unit of work.
type IsolationLevel = adapters.IsolationLevel

// Supported isolation levels.
const (
	IsolationDefault        = adapters.IsolationDefault
	IsolationReadCommitted  = adapters.IsolationReadCommitted
	IsolationRepeatableRead = adapters.IsolationRepeatableRead
	IsolationSerializable   = adapters.IsolationSerializable
)

// Option defines a functional option for configuring the Engine.
type Option func(*Engine) error

// WithTableNames sets the names of the books, members and reservations tables.
// A name may be qualified by a schema, as in "lending.books". The schema must exist before Migrate runs.
func WithTableNames(books, members, reservations string) Option {
	return func(e *Engine) error {
		if books == "" || members == "" || reservations == "" {
			return library.ErrEmptyTableName
		}

		e.tables = tableNames{books: books, members: members, reservations: reservations}

		return nil
	}
}

// WithIsolationLevel sets the isolation level requested for every unit of work.
// The default is IsolationSerializable.
func WithIsolationLevel(level IsolationLevel) Option {
	return func(e *Engine) error {
		e.isolation = level
		return nil
	}
}

// WithLogger sets the logger for the Engine.
// The logger will receive messages at different levels based on the logger's configured level:
//
// Debug level: SQL statements with execution timing (development use)
// Warn level: isolation level fallbacks and failed rollbacks
// Error level: failed statements, commits, and transaction starts.
func WithLogger(logger library.Logger) Option {
	return func(e *Engine) error {
		e.logger = logger
		return nil
	}
}
