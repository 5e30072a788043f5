package library

import (
	"context"
	"errors"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
)

// unitOfWorkFunc reads, decides and writes inside one unit of work.
type unitOfWorkFunc func(ctx context.Context, uow UnitOfWork) error

// runner executes every service operation as exactly one unit of work and observes it.
type runner struct {
	store            Store
	closed           atomic.Bool
	logger           Logger
	contextualLogger ContextualLogger
	metricsCollector MetricsCollector
	tracingCollector TracingCollector
}

// run begins a unit of work, runs fn, and commits. Any error rolls the unit of work back,
// a panic in fn is re-raised after the rollback.
func (r *runner) run(ctx context.Context, operation string, fn unitOfWorkFunc) error {
	if r.closed.Load() {
		return ErrClosed
	}

	unitOfWorkID := newUnitOfWorkID()
	tracing, ctx := r.startTracing(ctx, operation, unitOfWorkID)

	start := time.Now()
	err := r.execute(ctx, operation, unitOfWorkID, fn)
	duration := time.Since(start)

	tracing.finish(outcomeOf(err), duration)
	r.recordMetrics(ctx, operation, err, duration)
	r.logOutcome(ctx, operation, unitOfWorkID, err, duration)

	return err
}

func (r *runner) execute(ctx context.Context, operation, unitOfWorkID string, fn unitOfWorkFunc) error {
	uow, beginErr := r.store.Begin(ctx)
	if beginErr != nil {
		return asStoreFailure(beginErr)
	}

	defer func() {
		if recovered := recover(); recovered != nil {
			_ = r.rollback(ctx, uow, operation, unitOfWorkID, nil)
			panic(recovered)
		}
	}()

	if err := fn(ctx, uow); err != nil {
		return r.rollback(ctx, uow, operation, unitOfWorkID, asStoreFailure(err))
	}

	if err := uow.Commit(ctx); err != nil {
		return r.rollback(ctx, uow, operation, unitOfWorkID, asStoreFailure(err))
	}

	return nil
}

// rollback discards the unit of work and returns cause, joined with the rollback failure if there is one.
// The rollback runs even when ctx is already canceled.
func (r *runner) rollback(ctx context.Context, uow UnitOfWork, operation, unitOfWorkID string, cause error) error {
	rollbackErr := uow.Rollback(context.WithoutCancel(ctx))
	if rollbackErr == nil {
		return cause
	}

	r.logRollbackFailure(ctx, operation, unitOfWorkID, rollbackErr)

	return errors.Join(cause, rollbackErr)
}

// newUnitOfWorkID returns a time-ordered id that correlates the span and log records of one unit of work.
func newUnitOfWorkID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.NewString()
	}

	return id.String()
}
