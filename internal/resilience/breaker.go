package resilience

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/invoiceworks/invoice-pipeline/internal/common"
)

// BreakerState is the circuit state for one guarded dependency.
type BreakerState string

const (
	StateClosed   BreakerState = "CLOSED"
	StateOpen     BreakerState = "OPEN"
	StateHalfOpen BreakerState = "HALF_OPEN"
)

// Breaker is a three-state circuit breaker. It opens after FailureThreshold
// consecutive failures, fails fast while open, and probes the dependency
// again once RecoveryTimeout has elapsed since the last failure. One instance
// guards one dependency for the process lifetime and is shared across
// concurrent requests; all state transitions happen under the mutex.
type Breaker struct {
	name             string
	failureThreshold int
	recoveryTimeout  time.Duration
	logger           *slog.Logger

	mu              sync.Mutex
	state           BreakerState
	failureCount    int
	lastFailureTime time.Time

	now func() time.Time
}

func NewBreaker(name string, failureThreshold int, recoveryTimeout time.Duration, logger *slog.Logger) *Breaker {
	if logger == nil {
		logger = slog.Default()
	}
	return &Breaker{
		name:             name,
		failureThreshold: failureThreshold,
		recoveryTimeout:  recoveryTimeout,
		logger:           logger,
		state:            StateClosed,
		now:              time.Now,
	}
}

// Allow decides whether a call may proceed. While open and inside the
// recovery window it fails fast with a CircuitOpenError, protecting the
// dependency from load during an outage. Once the window has elapsed the
// breaker moves to half-open and lets a single probe through.
func (b *Breaker) Allow() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.state == StateOpen {
		if b.now().Sub(b.lastFailureTime) <= b.recoveryTimeout {
			return common.NewCircuitOpenError(b.name)
		}
		b.state = StateHalfOpen
		b.logger.Info("breaker.half_open", "dependency", b.name)
	}
	return nil
}

// OnSuccess resets the failure count; a successful half-open probe closes
// the circuit.
func (b *Breaker) OnSuccess() {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.failureCount = 0
	if b.state == StateHalfOpen {
		b.state = StateClosed
		b.logger.Info("breaker.closed", "dependency", b.name)
	}
}

// OnFailure records a failure, opening the circuit at the threshold. A
// failed half-open probe reopens immediately and restarts the recovery
// clock.
func (b *Breaker) OnFailure() {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.failureCount++
	b.lastFailureTime = b.now()

	if b.state == StateHalfOpen || b.failureCount >= b.failureThreshold {
		if b.state != StateOpen {
			b.logger.Warn("breaker.open", "dependency", b.name, "failures", b.failureCount)
		}
		b.state = StateOpen
	}
}

// State returns the current circuit state.
func (b *Breaker) State() BreakerState {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state
}

// FailureCount returns the current consecutive-failure count.
func (b *Breaker) FailureCount() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.failureCount
}

// Call runs op under breaker protection. CircuitOpenError failures do not
// touch the failure count: only real contact with the dependency counts.
func Call[T any](ctx context.Context, b *Breaker, op func(context.Context) (T, error)) (T, error) {
	var zero T
	if err := b.Allow(); err != nil {
		return zero, err
	}
	result, err := op(ctx)
	if err != nil {
		b.OnFailure()
		return zero, err
	}
	b.OnSuccess()
	return result, nil
}

// Registry holds the per-dependency breaker singletons. It is constructed
// once at process start and injected into every call site, which keeps the
// breakers testable: tests build a fresh registry instead of resetting
// process-wide state.
type Registry struct {
	Textract *Breaker
	Bedrock  *Breaker
	DynamoDB *Breaker
}

func NewRegistry(logger *slog.Logger) *Registry {
	return &Registry{
		Textract: NewBreaker("textract", 3, 30*time.Second, logger),
		Bedrock:  NewBreaker("bedrock", 2, 60*time.Second, logger),
		DynamoDB: NewBreaker("dynamodb", 5, 20*time.Second, logger),
	}
}
