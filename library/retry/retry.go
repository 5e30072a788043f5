// Package retry retries library operations that lost a race against a concurrent transaction.
//
// The services never retry on their own. A caller that wants to retry wraps the call:
//
//	result, err := retry.OnConcurrentModification(ctx, func(ctx context.Context) error {
//		return lib.Loans.Lend(ctx, bookID, memberID, date)
//	})
//
// Every attempt re-runs the whole operation, so the business rules are checked again on fresh state.
package retry

import (
	"context"
	"errors"
	"math/rand/v2"
	"strconv"
	"time"

	"github.com/AntonStoeckl/lending-library-go/library"
)

const (
	defaultMaxAttempts  = 6
	defaultBaseDelay    = 10 * time.Millisecond
	defaultJitterFactor = 0.3
)

// Metric names recorded when WithMetrics is used.
const (
	MetricRetries           = "library_retries_total"
	MetricRetryDelay        = "library_retry_delay_seconds"
	MetricMaxRetriesReached = "library_max_retries_reached_total"
)

const (
	labelOperation      = "operation"
	labelAttemptNumber  = "attempt_number"
	labelErrorType      = "error_type"
	labelFinalErrorType = "final_error_type"
)

// Error types reported in Result.LastErrorType and as metric labels.
const (
	ErrorTypeNone                    = "none"
	ErrorTypeConcurrentModification  = "concurrent_modification"
	ErrorTypeContextCanceled         = "context_canceled"
	ErrorTypeContextDeadlineExceeded = "context_deadline_exceeded"
	ErrorTypeOther                   = "other"
)

var (
	// ErrNilMetricsCollector is returned when a nil metrics collector is provided to WithMetrics.
	ErrNilMetricsCollector = errors.New("metrics collector must not be nil")

	// ErrEmptyOperation is returned when an empty operation name is provided to WithMetrics.
	ErrEmptyOperation = errors.New("operation must not be empty")

	// ErrInvalidMaxAttempts is returned when max attempts are not positive.
	ErrInvalidMaxAttempts = errors.New("max attempts must be positive")

	// ErrNegativeBaseDelay is returned when the base delay is negative.
	ErrNegativeBaseDelay = errors.New("base delay must not be negative")

	// ErrInvalidJitterFactor is returned when the jitter factor is not between 0.0 and 1.0.
	ErrInvalidJitterFactor = errors.New("jitter factor must be between 0.0 and 1.0")
)

// Func is one attempt of a library operation.
type Func func(ctx context.Context) error

// Result describes how many attempts a call took.
type Result struct {
	Attempts      int
	TotalDelay    time.Duration
	LastErrorType string
}

type config struct {
	maxAttempts      int
	baseDelay        time.Duration
	jitterFactor     float64
	metricsCollector library.MetricsCollector
	operation        string
}

// Option configures retry behavior using the functional options pattern.
type Option func(*config) error

// OnConcurrentModification runs fn and retries it with exponential backoff while it fails with
// library.ErrConcurrentModification, up to the configured number of attempts.
//
// Retry schedule (default): 0 ms, 10 ms, 20 ms, 40 ms, 80 ms, 160 ms, each with up to 30% jitter.
// Every other error, rule violations and store failures included, is returned at once.
// A canceled context ends the backoff wait with the context error.
func OnConcurrentModification(ctx context.Context, fn Func, options ...Option) (Result, error) {
	cfg := &config{
		maxAttempts:  defaultMaxAttempts,
		baseDelay:    defaultBaseDelay,
		jitterFactor: defaultJitterFactor,
	}

	for _, option := range options {
		if err := option(cfg); err != nil {
			return Result{}, err
		}
	}

	var result Result
	var lastErr error

	for attempt := 0; attempt < cfg.maxAttempts; attempt++ {
		if attempt > 0 {
			delay := cfg.backoff(attempt)
			cfg.recordDelay(ctx, attempt, delay)

			select {
			case <-time.After(delay):
				result.TotalDelay += delay
			case <-ctx.Done():
				result.LastErrorType = errorType(ctx.Err())
				return result, ctx.Err()
			}
		}

		result.Attempts++

		lastErr = fn(ctx)
		result.LastErrorType = errorType(lastErr)

		if lastErr == nil || !library.IsRetryable(lastErr) {
			return result, lastErr
		}

		if attempt < cfg.maxAttempts-1 {
			cfg.recordRetry(ctx, attempt+1, lastErr)
		}
	}

	cfg.recordMaxRetriesReached(ctx, lastErr)

	return result, lastErr
}

// backoff returns baseDelay * 2^(attempt-1) plus jitter.
func (c *config) backoff(attempt int) time.Duration {
	delay := c.baseDelay * time.Duration(1<<(attempt-1))
	jitter := rand.Float64() * float64(delay) * c.jitterFactor //nolint:gosec // math/rand is sufficient for jitter

	return delay + time.Duration(jitter)
}

func (c *config) recordDelay(ctx context.Context, attempt int, delay time.Duration) {
	if c.metricsCollector == nil {
		return
	}

	labels := map[string]string{
		labelOperation:     c.operation,
		labelAttemptNumber: strconv.Itoa(attempt),
	}

	if contextualCollector, ok := c.metricsCollector.(library.ContextualMetricsCollector); ok {
		contextualCollector.RecordDurationContext(ctx, MetricRetryDelay, delay, labels)
		return
	}

	c.metricsCollector.RecordDuration(MetricRetryDelay, delay, labels)
}

func (c *config) recordRetry(ctx context.Context, attemptNumber int, err error) {
	labels := map[string]string{
		labelOperation:     c.operation,
		labelAttemptNumber: strconv.Itoa(attemptNumber),
		labelErrorType:     errorType(err),
	}

	c.incrementCounter(ctx, MetricRetries, labels)
}

func (c *config) recordMaxRetriesReached(ctx context.Context, err error) {
	labels := map[string]string{
		labelOperation:      c.operation,
		labelFinalErrorType: errorType(err),
	}

	c.incrementCounter(ctx, MetricMaxRetriesReached, labels)
}

func (c *config) incrementCounter(ctx context.Context, metric string, labels map[string]string) {
	if c.metricsCollector == nil {
		return
	}

	if contextualCollector, ok := c.metricsCollector.(library.ContextualMetricsCollector); ok {
		contextualCollector.IncrementCounterContext(ctx, metric, labels)
		return
	}

	c.metricsCollector.IncrementCounter(metric, labels)
}

// errorType extracts a string representation of the error type for metrics labeling.
func errorType(err error) string {
	switch {
	case err == nil:
		return ErrorTypeNone
	case errors.Is(err, library.ErrConcurrentModification):
		return ErrorTypeConcurrentModification
	case errors.Is(err, context.Canceled):
		return ErrorTypeContextCanceled
	case errors.Is(err, context.DeadlineExceeded):
		return ErrorTypeContextDeadlineExceeded
	default:
		return ErrorTypeOther
	}
}

// WithMaxAttempts sets the maximum number of attempts, the first one included.
func WithMaxAttempts(attempts int) Option {
	return func(c *config) error {
		if attempts <= 0 {
			return ErrInvalidMaxAttempts
		}

		c.maxAttempts = attempts

		return nil
	}
}

// WithBaseDelay sets the base delay for exponential backoff.
// Actual delays: baseDelay, baseDelay*2, baseDelay*4, baseDelay*8, etc.
func WithBaseDelay(delay time.Duration) Option {
	return func(c *config) error {
		if delay < 0 {
			return ErrNegativeBaseDelay
		}

		c.baseDelay = delay

		return nil
	}
}

// WithJitterFactor sets the jitter added as a share of the calculated backoff delay.
// Valid range: 0.0 (no jitter) to 1.0 (100% jitter).
func WithJitterFactor(factor float64) Option {
	return func(c *config) error {
		if factor < 0.0 || factor > 1.0 {
			return ErrInvalidJitterFactor
		}

		c.jitterFactor = factor

		return nil
	}
}

// WithMetrics records retries, backoff delays and exhausted retries, labeled with operation.
func WithMetrics(collector library.MetricsCollector, operation string) Option {
	return func(c *config) error {
		if collector == nil {
			return ErrNilMetricsCollector
		}

		if operation == "" {
			return ErrEmptyOperation
		}

		c.metricsCollector = collector
		c.operation = operation

		return nil
	}
}
