package library

import "context"

// Library wires one Store into the four services. All services share the store
// and the observability configuration.
type Library struct {
	Books        *BookService
	Members      *MemberService
	Loans        *LoanService
	Reservations *ReservationService

	runner *runner
}

// Option defines a functional option for configuring the Library.
type Option func(*Library) error

// WithLogger sets the logger for the Library.
// The logger will receive messages at different levels based on the logger's configured level:
//
// Info level: completed and rejected operations with duration and unit of work id
// Warn level: failed rollbacks
// Error level: record store failures that caused an operation to fail.
func WithLogger(logger Logger) Option {
	return func(l *Library) error {
		l.runner.logger = logger
		return nil
	}
}

// WithContextualLogger sets the contextual logger for the Library.
// It receives the same messages as the Logger, together with the span context of the operation.
func WithContextualLogger(logger ContextualLogger) Option {
	return func(l *Library) error {
		l.runner.contextualLogger = logger
		return nil
	}
}

// WithMetrics sets the metrics collector for the Library.
// It receives operation durations, operation counts by outcome, rule violations and concurrent modifications.
func WithMetrics(collector MetricsCollector) Option {
	return func(l *Library) error {
		l.runner.metricsCollector = collector
		return nil
	}
}

// WithTracing sets the tracing collector for the Library. Every operation produces one span.
func WithTracing(collector TracingCollector) Option {
	return func(l *Library) error {
		l.runner.tracingCollector = collector
		return nil
	}
}

// Open creates a Library on top of store.
func Open(store Store, options ...Option) (*Library, error) {
	if store == nil {
		return nil, ErrNilStore
	}

	r := &runner{store: store}
	l := &Library{
		Books:        &BookService{runner: r},
		Members:      &MemberService{runner: r},
		Loans:        &LoanService{runner: r},
		Reservations: &ReservationService{runner: r},
		runner:       r,
	}

	for _, option := range options {
		if err := option(l); err != nil {
			return nil, err
		}
	}

	return l, nil
}

// Close closes the underlying store. Service calls after Close fail with ErrClosed.
// Closing an already closed Library is a no-op.
func (l *Library) Close(ctx context.Context) error {
	if !l.runner.closed.CompareAndSwap(false, true) {
		return nil
	}

	if err := l.runner.store.Close(); err != nil {
		l.runner.logError(ctx, logMsgStoreFailure+operationClose, logAttrError, err.Error())
		return asStoreFailure(err)
	}

	return nil
}
