package postgresengine

import (
	"context"
	"sync"

	"github.com/AntonStoeckl/lending-library-go/library/postgresengine/internal/adapters"
)

// fakeAdapter is an adapters.DBAdapter that hands out one scripted transaction.
type fakeAdapter struct {
	mu        sync.Mutex
	beginErrs map[IsolationLevel]error
	begun     []IsolationLevel
	execs     []string
	tx        *fakeTx
	closed    bool
}

func newFakeAdapter() *fakeAdapter {
	return &fakeAdapter{beginErrs: make(map[IsolationLevel]error), tx: &fakeTx{rowsAffected: 1}}
}

func (a *fakeAdapter) BeginTx(_ context.Context, isolation IsolationLevel) (adapters.DBTx, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.begun = append(a.begun, isolation)

	if err := a.beginErrs[isolation]; err != nil {
		return nil, err
	}

	return a.tx, nil
}

func (a *fakeAdapter) Exec(_ context.Context, query string, _ ...any) (adapters.DBResult, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.execs = append(a.execs, query)

	return fakeResult{rowsAffected: 0}, nil
}

func (a *fakeAdapter) Close() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.closed = true

	return nil
}

// fakeTx records statements and answers with scripted results.
type fakeTx struct {
	queries      []string
	execs        []string
	queryRows    int
	queryErr     error
	execErr      error
	rowsAffected int64
	commitErr    error
	commits      int
	rollbacks    int
}

func (tx *fakeTx) Query(_ context.Context, query string, _ ...any) (adapters.DBRows, error) {
	tx.queries = append(tx.queries, query)

	if tx.queryErr != nil {
		return nil, tx.queryErr
	}

	return &fakeRows{remaining: tx.queryRows}, nil
}

func (tx *fakeTx) Exec(_ context.Context, query string, _ ...any) (adapters.DBResult, error) {
	tx.execs = append(tx.execs, query)

	if tx.execErr != nil {
		return nil, tx.execErr
	}

	return fakeResult{rowsAffected: tx.rowsAffected}, nil
}

func (tx *fakeTx) Commit(_ context.Context) error {
	tx.commits++
	return tx.commitErr
}

func (tx *fakeTx) Rollback(_ context.Context) error {
	tx.rollbacks++
	return nil
}

// fakeRows yields empty rows, enough for existence checks.
type fakeRows struct {
	remaining int
	closed    bool
}

func (r *fakeRows) Next() bool {
	if r.remaining == 0 {
		return false
	}

	r.remaining--

	return true
}

func (r *fakeRows) Scan(_ ...any) error {
	return nil
}

func (r *fakeRows) Err() error {
	return nil
}

func (r *fakeRows) Close() error {
	r.closed = true
	return nil
}

type fakeResult struct {
	rowsAffected int64
}

func (r fakeResult) RowsAffected() (int64, error) {
	return r.rowsAffected, nil
}
