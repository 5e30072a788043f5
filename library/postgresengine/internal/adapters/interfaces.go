package adapters

import "context"

// IsolationLevel is the transaction isolation level requested by BeginTx.
type IsolationLevel int

// Supported isolation levels. IsolationDefault leaves the choice to the database.
const (
	IsolationDefault IsolationLevel = iota
	IsolationReadCommitted
	IsolationRepeatableRead
	IsolationSerializable
)

// String returns the SQL name of the isolation level.
func (l IsolationLevel) String() string {
	switch l {
	case IsolationReadCommitted:
		return "READ COMMITTED"
	case IsolationRepeatableRead:
		return "REPEATABLE READ"
	case IsolationSerializable:
		return "SERIALIZABLE"
	default:
		return "DEFAULT"
	}
}

// DBAdapter defines the interface for database operations needed by the record store.
type DBAdapter interface {
	BeginTx(ctx context.Context, isolation IsolationLevel) (DBTx, error)
	Exec(ctx context.Context, query string, args ...any) (DBResult, error)
	Close() error
}

// DBTx is one database transaction.
type DBTx interface {
	Query(ctx context.Context, query string, args ...any) (DBRows, error)
	Exec(ctx context.Context, query string, args ...any) (DBResult, error)
	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error
}

// DBRows defines the interface for query result rows.
type DBRows interface {
	Next() bool
	Scan(dest ...any) error
	Err() error
	Close() error
}

// DBResult defines the interface for execution results.
type DBResult interface {
	RowsAffected() (int64, error)
}
