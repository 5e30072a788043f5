// Package postgresengine provides a PostgreSQL implementation of library.Store.
//
// The engine supports three database adapters:
//   - pgx.Pool (recommended for performance)
//   - database/sql.DB with the lib/pq driver
//   - sqlx.DB
//
// Every unit of work is one database transaction, SERIALIZABLE by default. When the database
// rejects the requested isolation level, the engine begins the transaction with the database's
// default level instead and logs a warning.
//
// All statements are built with goqu using prepared placeholders. Guarded updates report the rows
// they affected, so the services can detect writes lost to a concurrent transaction. Serialization
// failures and deadlocks are reported as library.ErrConcurrentModification, unique violations as
// library.ErrAlreadyExists.
//
// Migrate creates the books, members and reservations tables when they do not exist.
package postgresengine
