package postgresengine

import (
	"context"
	"database/sql"
	"errors"
	"math"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jmoiron/sqlx"

	"github.com/AntonStoeckl/lending-library-go/library"
	"github.com/AntonStoeckl/lending-library-go/library/postgresengine/internal/adapters"
)

const (
	defaultBooksTableName        = "books"
	defaultMembersTableName      = "members"
	defaultReservationsTableName = "reservations"
	logMsgBeginFailed            = "failed to begin transaction"
	logMsgIsolationFallback      = "isolation level rejected, falling back to the database default"
	logMsgBuildQueryFailed       = "failed to build sql statement"
	logMsgDBQueryFailed          = "database query execution failed"
	logMsgDBExecFailed           = "database statement execution failed"
	logMsgRowsAffectedFailed     = "failed to get rows affected count"
	logMsgScanRowFailed          = "failed to scan database row"
	logMsgCloseRowsFailed        = "failed to close database rows"
	logMsgCommitFailed           = "failed to commit transaction"
	logMsgRollbackFailed         = "failed to roll back transaction"
	logMsgMigrationFailed        = "migration failed"
	logMsgSQLExecuted            = "executed sql for: "
	logAttrError                 = "error"
	logAttrQuery                 = "query"
	logAttrDurationMS            = "duration_ms"
	logAttrIsolation             = "isolation"
)

// Errors of the PostgreSQL engine. They reach the caller joined with library.ErrStoreUnavailable.
var (
	ErrBuildingQueryFailed       = errors.New("building sql statement failed")
	ErrQueryFailed               = errors.New("sql query failed")
	ErrExecFailed                = errors.New("sql statement failed")
	ErrGettingRowsAffectedFailed = errors.New("getting rows affected failed")
	ErrScanningDBRowFailed       = errors.New("scanning db row failed")
	ErrBeginFailed               = errors.New("beginning transaction failed")
	ErrCommitFailed              = errors.New("committing transaction failed")
	ErrMigrationFailed           = errors.New("migration failed")
)

type tableNames struct {
	books        string
	members      string
	reservations string
}

// Engine is a PostgreSQL record store. It implements library.Store.
type Engine struct {
	db        adapters.DBAdapter
	tables    tableNames
	isolation IsolationLevel
	logger    library.Logger
}

// NewEngineFromPGXPool creates a new Engine using a pgx Pool with optional configuration.
func NewEngineFromPGXPool(db *pgxpool.Pool, options ...Option) (Engine, error) {
	if db == nil {
		return Engine{}, library.ErrNilDatabaseConnection
	}

	return newEngine(adapters.NewPGXAdapter(db), options...)
}

// NewEngineFromSQLDB creates a new Engine using a sql.DB with optional configuration.
func NewEngineFromSQLDB(db *sql.DB, options ...Option) (Engine, error) {
	if db == nil {
		return Engine{}, library.ErrNilDatabaseConnection
	}

	return newEngine(adapters.NewSQLAdapter(db), options...)
}

// NewEngineFromSQLX creates a new Engine using a sqlx.DB with optional configuration.
func NewEngineFromSQLX(db *sqlx.DB, options ...Option) (Engine, error) {
	if db == nil {
		return Engine{}, library.ErrNilDatabaseConnection
	}

	return newEngine(adapters.NewSQLXAdapter(db), options...)
}

func newEngine(db adapters.DBAdapter, options ...Option) (Engine, error) {
	e := Engine{
		db: db,
		tables: tableNames{
			books:        defaultBooksTableName,
			members:      defaultMembersTableName,
			reservations: defaultReservationsTableName,
		},
		isolation: IsolationSerializable,
	}

	for _, option := range options {
		if err := option(&e); err != nil {
			return Engine{}, err
		}
	}

	return e, nil
}

// Begin starts a database transaction at the configured isolation level.
// When the database rejects that level it retries once at the database default.
func (e Engine) Begin(ctx context.Context) (library.UnitOfWork, error) {
	tx, err := e.db.BeginTx(ctx, e.isolation)

	if err != nil && e.isolation != IsolationDefault && isIsolationRejected(err) {
		e.logWarn(logMsgIsolationFallback, logAttrIsolation, e.isolation.String(), logAttrError, err.Error())
		tx, err = e.db.BeginTx(ctx, IsolationDefault)
	}

	if err != nil {
		e.logError(logMsgBeginFailed, err)
		return nil, errors.Join(ErrBeginFailed, mapDriverError(err))
	}

	return newUnitOfWork(e, tx), nil
}

// Close closes the database handle.
func (e Engine) Close() error {
	return e.db.Close()
}

// logQueryWithDuration logs SQL statements with execution time at debug level if the logger is configured.
func (e Engine) logQueryWithDuration(sqlQuery string, action string, duration time.Duration) {
	if e.logger != nil {
		e.logger.Debug(logMsgSQLExecuted+action, logAttrDurationMS, toMilliseconds(duration), logAttrQuery, sqlQuery)
	}
}

// logWarn logs non-critical issues at warn level if the logger is configured.
func (e Engine) logWarn(message string, args ...any) {
	if e.logger != nil {
		e.logger.Warn(message, args...)
	}
}

// logError logs error information at the error level if the logger is configured.
func (e Engine) logError(message string, err error, args ...any) {
	if e.logger != nil {
		allArgs := []any{logAttrError, err.Error()}
		allArgs = append(allArgs, args...)
		e.logger.Error(message, allArgs...)
	}
}

// toMilliseconds converts a time.Duration to float64 milliseconds with 3 decimal places.
func toMilliseconds(d time.Duration) float64 {
	return math.Round(float64(d.Nanoseconds())/1e6*1000) / 1000
}
