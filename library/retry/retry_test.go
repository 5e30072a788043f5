package retry_test

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/AntonStoeckl/lending-library-go/library"
	"github.com/AntonStoeckl/lending-library-go/library/retry"
	"github.com/AntonStoeckl/lending-library-go/testutil/testdoubles"
)

func Test_OnConcurrentModification_Success_NoRetries(t *testing.T) {
	// arrange
	ctx := context.Background()
	callCount := 0

	fn := func(_ context.Context) error {
		callCount++
		return nil
	}

	// act
	result, err := retry.OnConcurrentModification(ctx, fn)

	// assert
	assert.NoError(t, err)
	assert.Equal(t, 1, callCount)
	assert.Equal(t, 1, result.Attempts)
	assert.Equal(t, time.Duration(0), result.TotalDelay)
	assert.Equal(t, retry.ErrorTypeNone, result.LastErrorType)
}

func Test_OnConcurrentModification_RetriesLostRaces(t *testing.T) {
	// arrange
	ctx := context.Background()
	callCount := 0

	fn := func(_ context.Context) error {
		callCount++
		if callCount < 3 {
			return fmt.Errorf("book 7 changed by another transaction: %w", library.ErrConcurrentModification)
		}
		return nil
	}

	// act
	result, err := retry.OnConcurrentModification(ctx, fn, retry.WithBaseDelay(time.Millisecond))

	// assert
	assert.NoError(t, err)
	assert.Equal(t, 3, callCount)
	assert.Equal(t, 3, result.Attempts)
	assert.Greater(t, result.TotalDelay, time.Duration(0))
	assert.Equal(t, retry.ErrorTypeNone, result.LastErrorType)
}

func Test_OnConcurrentModification_DoesNotRetryRuleViolations(t *testing.T) {
	// arrange
	ctx := context.Background()
	callCount := 0

	fn := func(_ context.Context) error {
		callCount++
		return fmt.Errorf("book 7: %w", library.ErrAlreadyOnLoan)
	}

	// act
	result, err := retry.OnConcurrentModification(ctx, fn)

	// assert
	assert.ErrorIs(t, err, library.ErrAlreadyOnLoan)
	assert.Equal(t, 1, callCount)
	assert.Equal(t, 1, result.Attempts)
	assert.Equal(t, retry.ErrorTypeOther, result.LastErrorType)
}

func Test_OnConcurrentModification_DoesNotRetryStoreFailures(t *testing.T) {
	// arrange
	ctx := context.Background()
	callCount := 0

	fn := func(_ context.Context) error {
		callCount++
		return errors.Join(library.ErrStoreUnavailable, errors.New("connection refused"))
	}

	// act
	_, err := retry.OnConcurrentModification(ctx, fn)

	// assert
	assert.ErrorIs(t, err, library.ErrStoreUnavailable)
	assert.Equal(t, 1, callCount)
}

func Test_OnConcurrentModification_GivesUpAfterMaxAttempts(t *testing.T) {
	// arrange
	ctx := context.Background()
	callCount := 0
	metricsSpy := testdoubles.NewMetricsCollectorSpy(true)

	fn := func(_ context.Context) error {
		callCount++
		return library.ErrConcurrentModification
	}

	// act
	result, err := retry.OnConcurrentModification(ctx, fn,
		retry.WithMaxAttempts(3),
		retry.WithBaseDelay(time.Millisecond),
		retry.WithJitterFactor(0),
		retry.WithMetrics(metricsSpy, "lend_book"),
	)

	// assert
	assert.ErrorIs(t, err, library.ErrConcurrentModification)
	assert.Equal(t, 3, callCount)
	assert.Equal(t, 3, result.Attempts)
	assert.Equal(t, 3*time.Millisecond, result.TotalDelay, "1ms then 2ms without jitter")
	assert.Equal(t, retry.ErrorTypeConcurrentModification, result.LastErrorType)

	assert.Equal(t, 2, metricsSpy.CountCounterRecordsForMetric(retry.MetricRetries))
	assert.Equal(t, 2, metricsSpy.CountDurationRecordsForMetric(retry.MetricRetryDelay))
	assert.True(t, metricsSpy.HasCounterRecordForMetric(retry.MetricRetries).
		WithOperation("lend_book").
		WithLabel("attempt_number", "1").
		WithLabel("error_type", retry.ErrorTypeConcurrentModification).
		Assert())
	assert.True(t, metricsSpy.HasCounterRecordForMetric(retry.MetricMaxRetriesReached).
		WithOperation("lend_book").
		WithLabel("final_error_type", retry.ErrorTypeConcurrentModification).
		Assert())
}

func Test_OnConcurrentModification_StopsWaitingWhenContextIsCanceled(t *testing.T) {
	// arrange
	ctx, cancel := context.WithCancel(context.Background())
	callCount := 0

	fn := func(_ context.Context) error {
		callCount++
		cancel()
		return library.ErrConcurrentModification
	}

	// act
	result, err := retry.OnConcurrentModification(ctx, fn, retry.WithBaseDelay(time.Hour))

	// assert
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, callCount)
	assert.Equal(t, 1, result.Attempts)
	assert.Equal(t, retry.ErrorTypeContextCanceled, result.LastErrorType)
}

func Test_OnConcurrentModification_WithAllOptions(t *testing.T) {
	// arrange
	ctx := context.Background()
	callCount := 0

	fn := func(_ context.Context) error {
		callCount++
		if callCount < 2 {
			return library.ErrConcurrentModification
		}
		return nil
	}

	// act
	result, err := retry.OnConcurrentModification(ctx, fn,
		retry.WithMaxAttempts(3),
		retry.WithBaseDelay(5*time.Millisecond),
		retry.WithJitterFactor(0.1),
		retry.WithMetrics(testdoubles.NewMetricsCollectorSpy(false), "return_book"),
	)

	// assert
	assert.NoError(t, err)
	assert.Equal(t, 2, callCount)
	assert.Equal(t, 2, result.Attempts)
	assert.GreaterOrEqual(t, result.TotalDelay, 5*time.Millisecond)
}

func Test_OnConcurrentModification_InvalidOptions(t *testing.T) {
	ctx := context.Background()
	fn := func(_ context.Context) error { return nil }

	_, err := retry.OnConcurrentModification(ctx, fn, retry.WithMaxAttempts(0))
	assert.ErrorIs(t, err, retry.ErrInvalidMaxAttempts)

	_, err = retry.OnConcurrentModification(ctx, fn, retry.WithBaseDelay(-1*time.Second))
	assert.ErrorIs(t, err, retry.ErrNegativeBaseDelay)

	_, err = retry.OnConcurrentModification(ctx, fn, retry.WithJitterFactor(1.5))
	assert.ErrorIs(t, err, retry.ErrInvalidJitterFactor)

	_, err = retry.OnConcurrentModification(ctx, fn, retry.WithMetrics(nil, "lend_book"))
	assert.ErrorIs(t, err, retry.ErrNilMetricsCollector)

	_, err = retry.OnConcurrentModification(ctx, fn, retry.WithMetrics(testdoubles.NewMetricsCollectorSpy(false), ""))
	assert.ErrorIs(t, err, retry.ErrEmptyOperation)
}
