package library

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"
)

// Metric names recorded for every unit of work.
const (
	MetricOperationDuration       = "library_operation_duration_seconds"
	MetricOperations              = "library_operations_total"
	MetricRuleViolations          = "library_rule_violations_total"
	MetricConcurrentModifications = "library_concurrent_modifications_total"
)

// Outcomes of a unit of work, used as metric label and span attribute values.
const (
	OutcomeSuccess                = "success"
	OutcomeRuleViolation          = "rule_violation"
	OutcomeConcurrentModification = "concurrent_modification"
	OutcomeStoreUnavailable       = "store_unavailable"
	OutcomeClosed                 = "closed"
)

const (
	spanNamePrefix          = "library."
	spanAttrOperation       = "operation"
	spanAttrUnitOfWorkID    = "unit_of_work_id"
	spanAttrOutcome         = "outcome"
	spanAttrDurationMS      = "duration_ms"
	labelOperation          = "operation"
	labelOutcome            = "outcome"
	labelRule               = "rule"
	statusSuccess           = "success"
	statusError             = "error"
	logMsgOperation         = "library operation: "
	logMsgRejected          = "library operation rejected: "
	logMsgConcurrentChange  = "concurrent modification detected: "
	logMsgStoreFailure      = "library operation failed: "
	logMsgRollbackFailed    = "rollback failed"
	logAttrError            = "error"
	logAttrDurationMS       = "duration_ms"
	logAttrUnitOfWorkID     = "unit_of_work_id"
	logAttrOperation        = "operation"
	logAttrRollbackError    = "rollback_error"
	ruleLabelUnclassified   = "other"
	millisecondsDecimalBase = 1000
)

// outcomeOf classifies the result of a unit of work.
func outcomeOf(err error) string {
	switch {
	case err == nil:
		return OutcomeSuccess
	case errors.Is(err, ErrClosed):
		return OutcomeClosed
	case errors.Is(err, ErrConcurrentModification):
		return OutcomeConcurrentModification
	case IsRuleViolation(err):
		return OutcomeRuleViolation
	default:
		return OutcomeStoreUnavailable
	}
}

// ruleOf names the violated rule for the rule violation counter.
func ruleOf(err error) string {
	for _, violation := range ruleViolations {
		if errors.Is(err, violation) {
			return violation.Error()
		}
	}

	return ruleLabelUnclassified
}

// toMilliseconds converts a time.Duration to float64 milliseconds with 3 decimal places.
func toMilliseconds(d time.Duration) float64 {
	return math.Round(float64(d.Nanoseconds())/1e6*millisecondsDecimalBase) / millisecondsDecimalBase
}

// === Tracing ===

// tracingObserver encapsulates the span lifecycle of one unit of work.
type tracingObserver struct {
	collector TracingCollector
	span      SpanContext
}

func (r *runner) startTracing(ctx context.Context, operation, unitOfWorkID string) (*tracingObserver, context.Context) {
	if r.tracingCollector == nil {
		return &tracingObserver{}, ctx
	}

	newCtx, span := r.tracingCollector.StartSpan(ctx, spanNamePrefix+operation, map[string]string{
		spanAttrOperation:    operation,
		spanAttrUnitOfWorkID: unitOfWorkID,
	})

	return &tracingObserver{collector: r.tracingCollector, span: span}, newCtx
}

func (to *tracingObserver) finish(outcome string, duration time.Duration) {
	if to.span == nil {
		return
	}

	status := statusSuccess
	if outcome != OutcomeSuccess {
		status = statusError
	}

	to.span.SetStatus(status)
	to.span.AddAttribute(spanAttrDurationMS, fmt.Sprintf("%.2f", toMilliseconds(duration)))

	to.collector.FinishSpan(to.span, status, map[string]string{spanAttrOutcome: outcome})
}

// === Metrics ===

func (r *runner) recordMetrics(ctx context.Context, operation string, err error, duration time.Duration) {
	if r.metricsCollector == nil {
		return
	}

	outcome := outcomeOf(err)
	labels := map[string]string{labelOperation: operation, labelOutcome: outcome}

	r.recordDuration(ctx, MetricOperationDuration, duration, labels)
	r.incrementCounter(ctx, MetricOperations, labels)

	switch outcome {
	case OutcomeRuleViolation:
		r.incrementCounter(ctx, MetricRuleViolations, map[string]string{labelOperation: operation, labelRule: ruleOf(err)})
	case OutcomeConcurrentModification:
		r.incrementCounter(ctx, MetricConcurrentModifications, map[string]string{labelOperation: operation})
	}
}

func (r *runner) recordDuration(ctx context.Context, metric string, duration time.Duration, labels map[string]string) {
	if contextualCollector, ok := r.metricsCollector.(ContextualMetricsCollector); ok {
		contextualCollector.RecordDurationContext(ctx, metric, duration, labels)
		return
	}

	r.metricsCollector.RecordDuration(metric, duration, labels)
}

func (r *runner) incrementCounter(ctx context.Context, metric string, labels map[string]string) {
	if contextualCollector, ok := r.metricsCollector.(ContextualMetricsCollector); ok {
		contextualCollector.IncrementCounterContext(ctx, metric, labels)
		return
	}

	r.metricsCollector.IncrementCounter(metric, labels)
}

// === Logging ===

func (r *runner) logOutcome(ctx context.Context, operation, unitOfWorkID string, err error, duration time.Duration) {
	args := []any{
		logAttrUnitOfWorkID, unitOfWorkID,
		logAttrDurationMS, toMilliseconds(duration),
	}

	switch outcomeOf(err) {
	case OutcomeSuccess:
		r.logInfo(ctx, logMsgOperation+operation, args...)
	case OutcomeRuleViolation, OutcomeClosed:
		r.logInfo(ctx, logMsgRejected+operation, append(args, logAttrError, err.Error())...)
	case OutcomeConcurrentModification:
		r.logInfo(ctx, logMsgConcurrentChange+operation, append(args, logAttrError, err.Error())...)
	default:
		r.logError(ctx, logMsgStoreFailure+operation, append(args, logAttrError, err.Error())...)
	}
}

func (r *runner) logRollbackFailure(ctx context.Context, operation, unitOfWorkID string, rollbackErr error) {
	args := []any{
		logAttrOperation, operation,
		logAttrUnitOfWorkID, unitOfWorkID,
		logAttrRollbackError, rollbackErr.Error(),
	}

	if r.logger != nil {
		r.logger.Warn(logMsgRollbackFailed, args...)
	}

	if r.contextualLogger != nil {
		r.contextualLogger.WarnContext(ctx, logMsgRollbackFailed, args...)
	}
}

func (r *runner) logInfo(ctx context.Context, msg string, args ...any) {
	if r.logger != nil {
		r.logger.Info(msg, args...)
	}

	if r.contextualLogger != nil {
		r.contextualLogger.InfoContext(ctx, msg, args...)
	}
}

func (r *runner) logError(ctx context.Context, msg string, args ...any) {
	if r.logger != nil {
		r.logger.Error(msg, args...)
	}

	if r.contextualLogger != nil {
		r.contextualLogger.ErrorContext(ctx, msg, args...)
	}
}
