package retry

import (
	"context"
	"errors"
	"testing"
	"time"
)

var errTransient = errors.New("connection reset")

func fastPolicy() Policy {
	return Policy{MaxAttempts: 3, MinBackoff: time.Millisecond, MaxBackoff: 2 * time.Millisecond}
}

func TestDoSucceedsAfterTransientFailures(t *testing.T) {
	calls := 0
	var retries []int
	p := fastPolicy()
	p.OnRetry = func(attempt int, _ time.Duration, _ error) { retries = append(retries, attempt) }

	err := Do(context.Background(), p, func(_ context.Context, attempt int) error {
		calls++
		if attempt < 3 {
			return errTransient
		}
		return nil
	})
	if err != nil {
		t.Fatalf("Do: %v", err)
	}
	if calls != 3 {
		t.Fatalf("calls: want=3 got=%d", calls)
	}
	if len(retries) != 2 || retries[0] != 1 || retries[1] != 2 {
		t.Fatalf("unexpected OnRetry attempts: %+v", retries)
	}
}

func TestDoStopsOnNonRetryableError(t *testing.T) {
	conflict := errors.New("duplicate key")
	calls := 0
	p := fastPolicy()
	p.Retryable = func(err error) bool { return !errors.Is(err, conflict) }

	err := Do(context.Background(), p, func(context.Context, int) error {
		calls++
		return conflict
	})
	if !errors.Is(err, conflict) {
		t.Fatalf("expected conflict passthrough, got %v", err)
	}
	if errors.Is(err, ErrExhausted) {
		t.Fatalf("non-retryable error must not be reported as exhausted")
	}
	if calls != 1 {
		t.Fatalf("calls: want=1 got=%d", calls)
	}
}

func TestDoReportsExhaustion(t *testing.T) {
	err := Do(context.Background(), fastPolicy(), func(context.Context, int) error {
		return errTransient
	})
	if !errors.Is(err, ErrExhausted) {
		t.Fatalf("expected ErrExhausted, got %v", err)
	}
	if !errors.Is(err, errTransient) {
		t.Fatalf("expected last cause to be wrapped, got %v", err)
	}
	if got := Attempts(err); got != 3 {
		t.Fatalf("attempts: want=3 got=%d", got)
	}
}

func TestDoAppliesPerAttemptTimeout(t *testing.T) {
	p := fastPolicy()
	p.MaxAttempts = 1
	p.Timeout = 5 * time.Millisecond

	err := Do(context.Background(), p, func(ctx context.Context, _ int) error {
		<-ctx.Done()
		return ctx.Err()
	})
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline exceeded, got %v", err)
	}
}

func TestBackoffStaysWithinJitterBounds(t *testing.T) {
	p := Policy{MinBackoff: 100 * time.Millisecond, MaxBackoff: time.Second, JitterFrac: 0.2}
	cases := []struct {
		attempt int
		base    time.Duration
	}{
		{1, 100 * time.Millisecond},
		{2, 200 * time.Millisecond},
		{3, 400 * time.Millisecond},
		{6, time.Second},
	}
	for _, tc := range cases {
		for i := 0; i < 50; i++ {
			d := Backoff(p, tc.attempt)
			low := time.Duration(float64(tc.base) * 0.8)
			high := time.Duration(float64(tc.base) * 1.2)
			if d < low || d > high {
				t.Fatalf("attempt %d: delay %s outside [%s, %s]", tc.attempt, d, low, high)
			}
		}
	}
}
