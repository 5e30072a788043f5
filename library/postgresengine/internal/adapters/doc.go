// Package adapters provide database adapter implementations for the PostgreSQL record store.
//
// This package implements the adapter pattern to support multiple PostgreSQL database libraries:
// pgx.Pool, sql.DB, and sqlx.DB. All adapters begin transactions through a common DBAdapter
// interface and return a DBTx, so the record store works with any supported connection type.
package adapters
