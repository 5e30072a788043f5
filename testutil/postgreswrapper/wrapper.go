// Package postgreswrapper creates PostgreSQL engines for the integration tests, one per supported adapter.
//
// ADAPTER_TYPE selects the adapter: pgx.pool (default), sql.db or sqlx.db.
// Tests are skipped when the test database cannot be reached.
package postgreswrapper

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"

	"github.com/AntonStoeckl/lending-library-go/library/postgresengine"
	"github.com/AntonStoeckl/lending-library-go/testutil/config"
)

// Adapter type constants
const (
	typePGXPool = "pgx.pool"
	typeSQLDB   = "sql.db"
	typeSQLXDB  = "sqlx.db"
)

const connectTimeout = 3 * time.Second

const truncateAll = "TRUNCATE TABLE reservations, books, members"

// Wrapper abstracts over the different database handles.
type Wrapper interface {
	GetEngine() postgresengine.Engine
	Exec(ctx context.Context, statement string) error
}

// PGXPoolWrapper wraps pgxpool-based testing.
type PGXPoolWrapper struct {
	pool   *pgxpool.Pool
	engine postgresengine.Engine
}

func (w *PGXPoolWrapper) GetEngine() postgresengine.Engine {
	return w.engine
}

func (w *PGXPoolWrapper) Exec(ctx context.Context, statement string) error {
	_, err := w.pool.Exec(ctx, statement)
	return err
}

// SQLDBWrapper wraps sql.DB-based testing.
type SQLDBWrapper struct {
	db     *sql.DB
	engine postgresengine.Engine
}

func (w *SQLDBWrapper) GetEngine() postgresengine.Engine {
	return w.engine
}

func (w *SQLDBWrapper) Exec(ctx context.Context, statement string) error {
	_, err := w.db.ExecContext(ctx, statement)
	return err
}

// SQLXWrapper wraps sqlx.DB-based testing.
type SQLXWrapper struct {
	db     *sqlx.DB
	engine postgresengine.Engine
}

func (w *SQLXWrapper) GetEngine() postgresengine.Engine {
	return w.engine
}

func (w *SQLXWrapper) Exec(ctx context.Context, statement string) error {
	_, err := w.db.ExecContext(ctx, statement)
	return err
}

// CreateWrapperWithTestConfig connects to the test database with the adapter from the environment,
// migrates the schema and empties the tables. The handle is closed when the test ends.
func CreateWrapperWithTestConfig(t testing.TB, options ...postgresengine.Option) Wrapper {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), connectTimeout)
	defer cancel()

	adapterTypeFromEnv := strings.ToLower(os.Getenv("ADAPTER_TYPE"))

	var wrapper Wrapper
	var newEngine func(options ...postgresengine.Option) (postgresengine.Engine, error)

	switch adapterTypeFromEnv {
	case typePGXPool, "":
		poolConfig, err := config.PostgresPGXPoolTestConfig()
		require.NoError(t, err, "error parsing the test DSN")

		pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
		require.NoError(t, err, "error creating the DB pool in test setup")

		if pingErr := pool.Ping(ctx); pingErr != nil {
			pool.Close()
			t.Skipf("test database not reachable: %v", pingErr)
		}

		newEngine = func(opts ...postgresengine.Option) (postgresengine.Engine, error) {
			return postgresengine.NewEngineFromPGXPool(pool, opts...)
		}

		engine, err := newEngine(options...)
		require.NoError(t, err, "error creating the engine in test setup")
		wrapper = &PGXPoolWrapper{pool: pool, engine: engine}

	case typeSQLDB:
		db, err := config.PostgresSQLDBTestConfig(ctx)
		if err != nil {
			t.Skipf("test database not reachable: %v", err)
		}

		newEngine = func(opts ...postgresengine.Option) (postgresengine.Engine, error) {
			return postgresengine.NewEngineFromSQLDB(db, opts...)
		}

		engine, err := newEngine(options...)
		require.NoError(t, err, "error creating the engine in test setup")
		wrapper = &SQLDBWrapper{db: db, engine: engine}

	case typeSQLXDB:
		db, err := config.PostgresSQLXTestConfig(ctx)
		if err != nil {
			t.Skipf("test database not reachable: %v", err)
		}

		newEngine = func(opts ...postgresengine.Option) (postgresengine.Engine, error) {
			return postgresengine.NewEngineFromSQLX(db, opts...)
		}

		engine, err := newEngine(options...)
		require.NoError(t, err, "error creating the engine in test setup")
		wrapper = &SQLXWrapper{db: db, engine: engine}

	default:
		panic(fmt.Sprintf("unsupported adapter type from env: %s", adapterTypeFromEnv))
	}

	t.Cleanup(func() {
		_ = wrapper.GetEngine().Close()
	})

	// The default tables always exist, so CleanUp works for engines with custom table names too.
	defaultEngine, err := newEngine()
	require.NoError(t, err, "error creating the default engine in test setup")
	require.NoError(t, defaultEngine.Migrate(context.Background()), "error migrating the default schema")
	require.NoError(t, wrapper.GetEngine().Migrate(context.Background()), "error migrating the schema")
	CleanUp(t, wrapper)

	return wrapper
}

// CleanUp empties the default tables.
func CleanUp(t testing.TB, wrapper Wrapper) {
	t.Helper()

	err := wrapper.Exec(context.Background(), truncateAll)
	require.NoError(t, err, "error cleaning up the tables")
}
