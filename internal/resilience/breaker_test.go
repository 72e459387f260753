package resilience

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/invoiceworks/invoice-pipeline/internal/common"
)

func TestBreakerOpensAtThreshold(t *testing.T) {
	b := NewBreaker("dep", 3, 30*time.Second, nil)

	b.OnFailure()
	b.OnFailure()
	if b.State() != StateClosed {
		t.Fatalf("state = %q before threshold, want CLOSED", b.State())
	}
	b.OnFailure()
	if b.State() != StateOpen {
		t.Fatalf("state = %q at threshold, want OPEN", b.State())
	}

	err := b.Allow()
	if common.KindOf(err) != common.KindCircuitOpen {
		t.Fatalf("Allow() = %v, want circuit-open error", err)
	}
}

func TestBreakerSuccessResetsCount(t *testing.T) {
	b := NewBreaker("dep", 3, 30*time.Second, nil)

	b.OnFailure()
	b.OnFailure()
	b.OnSuccess()
	if b.FailureCount() != 0 {
		t.Fatalf("failure count = %d after success, want 0", b.FailureCount())
	}
	b.OnFailure()
	if b.State() != StateClosed {
		t.Fatalf("state = %q, want CLOSED; failures must be consecutive", b.State())
	}
}

func TestBreakerHalfOpenProbeCloses(t *testing.T) {
	base := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	now := base
	b := NewBreaker("dep", 1, 30*time.Second, nil)
	b.now = func() time.Time { return now }

	b.OnFailure()
	if b.State() != StateOpen {
		t.Fatalf("state = %q, want OPEN", b.State())
	}

	// Inside the recovery window: still failing fast.
	now = base.Add(10 * time.Second)
	if err := b.Allow(); err == nil {
		t.Fatal("Allow() = nil inside recovery window, want error")
	}

	// Past the window: a single probe is let through.
	now = base.Add(31 * time.Second)
	if err := b.Allow(); err != nil {
		t.Fatalf("Allow() = %v past recovery window, want nil", err)
	}
	if b.State() != StateHalfOpen {
		t.Fatalf("state = %q, want HALF_OPEN", b.State())
	}

	b.OnSuccess()
	if b.State() != StateClosed {
		t.Fatalf("state = %q after successful probe, want CLOSED", b.State())
	}
	if b.FailureCount() != 0 {
		t.Fatalf("failure count = %d, want 0", b.FailureCount())
	}
}

func TestBreakerHalfOpenProbeFailureReopens(t *testing.T) {
	base := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	now := base
	b := NewBreaker("dep", 2, 30*time.Second, nil)
	b.now = func() time.Time { return now }

	b.OnFailure()
	b.OnFailure()

	now = base.Add(31 * time.Second)
	if err := b.Allow(); err != nil {
		t.Fatalf("Allow() = %v, want nil", err)
	}
	b.OnFailure()
	if b.State() != StateOpen {
		t.Fatalf("state = %q after failed probe, want OPEN", b.State())
	}

	// The recovery clock restarted with the probe failure.
	now = now.Add(10 * time.Second)
	if err := b.Allow(); err == nil {
		t.Fatal("Allow() = nil, want fail-fast after reopening")
	}
}

func TestCallFailsFastWithoutInvokingOp(t *testing.T) {
	b := NewBreaker("dep", 1, time.Hour, nil)
	b.OnFailure()

	invoked := false
	_, err := Call(context.Background(), b, func(context.Context) (int, error) {
		invoked = true
		return 0, nil
	})
	if common.KindOf(err) != common.KindCircuitOpen {
		t.Fatalf("err = %v, want circuit-open", err)
	}
	if invoked {
		t.Fatal("op was invoked while the circuit was open")
	}
	if b.FailureCount() != 1 {
		t.Fatalf("failure count = %d, fail-fast must not count as a failure", b.FailureCount())
	}
}

func TestCallRecordsOutcome(t *testing.T) {
	b := NewBreaker("dep", 2, time.Hour, nil)

	_, err := Call(context.Background(), b, func(context.Context) (int, error) {
		return 0, errors.New("boom")
	})
	if err == nil {
		t.Fatal("want error")
	}
	if b.FailureCount() != 1 {
		t.Fatalf("failure count = %d, want 1", b.FailureCount())
	}

	got, err := Call(context.Background(), b, func(context.Context) (int, error) {
		return 7, nil
	})
	if err != nil || got != 7 {
		t.Fatalf("Call = %d, %v, want 7, nil", got, err)
	}
	if b.FailureCount() != 0 {
		t.Fatalf("failure count = %d after success, want 0", b.FailureCount())
	}
}

func TestNewRegistryPresets(t *testing.T) {
	r := NewRegistry(nil)
	tests := []struct {
		b         *Breaker
		name      string
		threshold int
		timeout   time.Duration
	}{
		{r.Textract, "textract", 3, 30 * time.Second},
		{r.Bedrock, "bedrock", 2, 60 * time.Second},
		{r.DynamoDB, "dynamodb", 5, 20 * time.Second},
	}
	for _, tt := range tests {
		if tt.b == nil {
			t.Fatalf("%s breaker is nil", tt.name)
		}
		if tt.b.name != tt.name || tt.b.failureThreshold != tt.threshold || tt.b.recoveryTimeout != tt.timeout {
			t.Errorf("%s = {%s %d %v}, want {%s %d %v}",
				tt.name, tt.b.name, tt.b.failureThreshold, tt.b.recoveryTimeout, tt.name, tt.threshold, tt.timeout)
		}
		if tt.b.State() != StateClosed {
			t.Errorf("%s starts %q, want CLOSED", tt.name, tt.b.State())
		}
	}
}
