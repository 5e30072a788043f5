package postgresengine

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/AntonStoeckl/lending-library-go/library"
	"github.com/AntonStoeckl/lending-library-go/library/postgresengine/internal/adapters"
)

const (
	logActionExists = "exists"
	logActionSelect = "select"
	logActionInsert = "insert"
	logActionUpdate = "update"
	logActionDelete = "delete"
)

// unitOfWork is one database transaction. The three accessors share it.
type unitOfWork struct {
	engine  Engine
	queries queries

	mu       sync.Mutex
	tx       adapters.DBTx
	finished bool
}

func newUnitOfWork(engine Engine, tx adapters.DBTx) *unitOfWork {
	return &unitOfWork{engine: engine, queries: newQueries(engine.tables), tx: tx}
}

func (u *unitOfWork) Books() library.BookStore {
	return bookStore{uow: u}
}

func (u *unitOfWork) Members() library.MemberStore {
	return memberStore{uow: u}
}

func (u *unitOfWork) Reservations() library.ReservationStore {
	return reservationStore{uow: u}
}

// Commit commits the transaction. A failed commit also ends the unit of work.
func (u *unitOfWork) Commit(ctx context.Context) error {
	u.mu.Lock()
	defer u.mu.Unlock()

	if u.finished {
		return nil
	}

	u.finished = true

	if err := u.tx.Commit(ctx); err != nil {
		u.engine.logError(logMsgCommitFailed, err)
		return errors.Join(ErrCommitFailed, mapDriverError(err))
	}

	return nil
}

// Rollback rolls the transaction back.
func (u *unitOfWork) Rollback(ctx context.Context) error {
	u.mu.Lock()
	defer u.mu.Unlock()

	if u.finished {
		return nil
	}

	u.finished = true

	if err := u.tx.Rollback(ctx); err != nil {
		u.engine.logWarn(logMsgRollbackFailed, logAttrError, err.Error())
		return err
	}

	return nil
}

func (u *unitOfWork) activeTx() (adapters.DBTx, error) {
	u.mu.Lock()
	defer u.mu.Unlock()

	if u.finished {
		return nil, library.ErrUnitOfWorkFinished
	}

	return u.tx, nil
}

// query runs a select and hands every row to scan.
func (u *unitOfWork) query(
	ctx context.Context,
	action string,
	sqlQuery sqlQueryString,
	args sqlArgs,
	buildErr error,
	scan func(rows adapters.DBRows) error,
) error {
	if buildErr != nil {
		u.engine.logError(logMsgBuildQueryFailed, buildErr)
		return buildErr
	}

	tx, err := u.activeTx()
	if err != nil {
		return err
	}

	start := time.Now()
	rows, queryErr := tx.Query(ctx, sqlQuery, args...)
	u.engine.logQueryWithDuration(sqlQuery, action, time.Since(start))

	if queryErr != nil {
		u.engine.logError(logMsgDBQueryFailed, queryErr, logAttrQuery, sqlQuery)
		return errors.Join(ErrQueryFailed, mapDriverError(queryErr))
	}
	defer u.closeRows(rows)

	for rows.Next() {
		if scanErr := scan(rows); scanErr != nil {
			u.engine.logError(logMsgScanRowFailed, scanErr, logAttrQuery, sqlQuery)
			return errors.Join(ErrScanningDBRowFailed, scanErr)
		}
	}

	if iterErr := rows.Err(); iterErr != nil {
		u.engine.logError(logMsgDBQueryFailed, iterErr, logAttrQuery, sqlQuery)
		return errors.Join(ErrQueryFailed, mapDriverError(iterErr))
	}

	return nil
}

// exists reports whether a select returned at least one row.
func (u *unitOfWork) exists(ctx context.Context, sqlQuery sqlQueryString, args sqlArgs, buildErr error) (bool, error) {
	var found bool

	err := u.query(ctx, logActionExists, sqlQuery, args, buildErr, func(_ adapters.DBRows) error {
		found = true
		return nil
	})

	return found, err
}

// exec runs an insert, update or delete and returns the rows it affected.
func (u *unitOfWork) exec(
	ctx context.Context,
	action string,
	sqlQuery sqlQueryString,
	args sqlArgs,
	buildErr error,
) (int64, error) {
	if buildErr != nil {
		u.engine.logError(logMsgBuildQueryFailed, buildErr)
		return 0, buildErr
	}

	tx, err := u.activeTx()
	if err != nil {
		return 0, err
	}

	start := time.Now()
	result, execErr := tx.Exec(ctx, sqlQuery, args...)
	u.engine.logQueryWithDuration(sqlQuery, action, time.Since(start))

	if execErr != nil {
		u.engine.logError(logMsgDBExecFailed, execErr, logAttrQuery, sqlQuery)
		return 0, errors.Join(ErrExecFailed, mapDriverError(execErr))
	}

	rowsAffected, rowsAffectedErr := result.RowsAffected()
	if rowsAffectedErr != nil {
		u.engine.logError(logMsgRowsAffectedFailed, rowsAffectedErr)
		return 0, errors.Join(ErrGettingRowsAffectedFailed, rowsAffectedErr)
	}

	return rowsAffected, nil
}

// closeRows safely closes database rows and logs any errors.
func (u *unitOfWork) closeRows(rows adapters.DBRows) {
	if closeErr := rows.Close(); closeErr != nil {
		u.engine.logWarn(logMsgCloseRowsFailed, logAttrError, closeErr.Error())
	}
}
