// Package memengine provides an in-memory implementation of library.Store.
//
// A unit of work holds a store-wide lock from Begin until Commit or Rollback, so units of work
// run one at a time and are trivially serializable. Each unit of work writes to a private copy
// of the committed state, Commit publishes the copy and Rollback drops it.
//
// The store mimics the relational constraints of the PostgreSQL engine: duplicate ids fail
// with library.ErrAlreadyExists, and rows referenced by a reservation or a loan cannot be deleted.
//
// LoadJSON and SnapshotJSON seed and dump the committed state as a JSON fixture.
package memengine
