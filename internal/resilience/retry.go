package resilience

import (
	"context"
	"log/slog"
	"math"
	"time"

	"github.com/invoiceworks/invoice-pipeline/internal/common"
)

// Policy parameterizes the retry wrapper. A call is attempted MaxRetries+1
// times at most; between attempts the wrapper sleeps
// min(InitialDelay * BackoffFactor^attempt, MaxDelay).
type Policy struct {
	MaxRetries    int
	BackoffFactor float64
	InitialDelay  time.Duration
	MaxDelay      time.Duration

	// OnRetry, when set, is invoked before each backoff sleep. Used for
	// attempt accounting and by tests.
	OnRetry func(attempt int, delay time.Duration, err error)
}

// Per-dependency presets.

func TextractPolicy() Policy {
	return Policy{MaxRetries: 3, BackoffFactor: 2.0, InitialDelay: time.Second, MaxDelay: 30 * time.Second}
}

func BedrockPolicy() Policy {
	return Policy{MaxRetries: 2, BackoffFactor: 1.5, InitialDelay: 2 * time.Second, MaxDelay: 20 * time.Second}
}

func DynamoDBPolicy() Policy {
	return Policy{MaxRetries: 3, BackoffFactor: 2.0, InitialDelay: 500 * time.Millisecond, MaxDelay: 10 * time.Second}
}

// Do executes op with retry and exponential backoff. Each failure is passed
// through classify to land in the error taxonomy; only errors classified as
// retryable trigger another attempt. The backoff sleep blocks only this call
// and is abandoned if ctx is done.
func Do[T any](ctx context.Context, logger *slog.Logger, name string, policy Policy, classify func(error) error, op func(context.Context) (T, error)) (T, error) {
	if logger == nil {
		logger = slog.Default()
	}

	var zero T
	var lastErr error
	for attempt := 0; attempt <= policy.MaxRetries; attempt++ {
		result, err := op(ctx)
		if err == nil {
			if attempt > 0 {
				logger.Info("retry.recovered", "op", name, "attempt", attempt+1)
			}
			return result, nil
		}

		if classify != nil {
			err = classify(err)
		}
		lastErr = err

		if !common.IsRetryable(err) {
			logger.Error("retry.non_retryable", "op", name, "error", err)
			return zero, err
		}
		if attempt == policy.MaxRetries {
			logger.Error("retry.exhausted", "op", name, "attempts", attempt+1, "error", err)
			return zero, err
		}

		delay := backoffDelay(policy, attempt)
		logger.Warn("retry.backoff",
			"op", name, "attempt", attempt+1, "delay_ms", delay.Milliseconds(), "error", err)
		if policy.OnRetry != nil {
			policy.OnRetry(attempt, delay, err)
		}
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return zero, common.NewNonRetryableError("", "operation cancelled during backoff", ctx.Err())
		}
	}
	return zero, lastErr
}

func backoffDelay(policy Policy, attempt int) time.Duration {
	delay := time.Duration(float64(policy.InitialDelay) * math.Pow(policy.BackoffFactor, float64(attempt)))
	if delay > policy.MaxDelay {
		delay = policy.MaxDelay
	}
	return delay
}
