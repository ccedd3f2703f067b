package llm

import (
	"context"
	"errors"
	"testing"
	"time"
)

func testPolicy(slept *[]time.Duration) RetryPolicy {
	p := DefaultRetryPolicy()
	p.Sleep = func(_ context.Context, d time.Duration) error {
		*slept = append(*slept, d)
		return nil
	}
	return p
}

func TestRetrySucceedsOnThirdAttempt(t *testing.T) {
	var slept []time.Duration
	p := testPolicy(&slept)

	attempts := 0
	err := p.Do(context.Background(), "complete", func(context.Context) error {
		attempts++
		if attempts < 3 {
			return ErrRateLimited
		}
		return nil
	})
	if err != nil {
		t.Fatalf("expected success, got %v", err)
	}
	if attempts != 3 {
		t.Fatalf("expected 3 attempts, got %d", attempts)
	}
	if len(slept) != 2 || slept[0] != 2*time.Second || slept[1] != 4*time.Second {
		t.Fatalf("unexpected wait sequence: %v", slept)
	}
}

func TestRetryStopsAfterMaxAttempts(t *testing.T) {
	var slept []time.Duration
	p := testPolicy(&slept)

	attempts := 0
	err := p.Do(context.Background(), "complete", func(context.Context) error {
		attempts++
		return ErrUnavailable
	})
	if !errors.Is(err, ErrUnavailable) {
		t.Fatalf("expected ErrUnavailable, got %v", err)
	}
	if attempts != 3 {
		t.Fatalf("expected exactly 3 attempts, got %d", attempts)
	}
	if len(slept) != 2 {
		t.Fatalf("expected 2 waits, got %v", slept)
	}
}

func TestRetrySingleAttemptNeverWaits(t *testing.T) {
	var slept []time.Duration
	p := testPolicy(&slept)
	p.MaxAttempts = 1

	attempts := 0
	err := p.Do(context.Background(), "complete", func(context.Context) error {
		attempts++
		return ErrUnavailable
	})
	if !errors.Is(err, ErrUnavailable) {
		t.Fatalf("expected ErrUnavailable, got %v", err)
	}
	if attempts != 1 {
		t.Fatalf("expected a single attempt, got %d", attempts)
	}
	if len(slept) != 0 {
		t.Fatalf("expected no waits, got %v", slept)
	}
}

func TestRetryPermanentErrorReturnsImmediately(t *testing.T) {
	var slept []time.Duration
	p := testPolicy(&slept)

	attempts := 0
	err := p.Do(context.Background(), "complete", func(context.Context) error {
		attempts++
		return ErrUnauthorized
	})
	if !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized, got %v", err)
	}
	if attempts != 1 {
		t.Fatalf("expected 1 attempt, got %d", attempts)
	}
	if len(slept) != 0 {
		t.Fatalf("expected no waits, got %v", slept)
	}
}

func TestRetryHonorsContextCancellation(t *testing.T) {
	p := DefaultRetryPolicy()
	p.Sleep = func(ctx context.Context, _ time.Duration) error {
		return context.Canceled
	}

	attempts := 0
	err := p.Do(context.Background(), "complete", func(context.Context) error {
		attempts++
		return ErrRateLimited
	})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if attempts != 1 {
		t.Fatalf("expected 1 attempt, got %d", attempts)
	}
}
