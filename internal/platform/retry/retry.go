// Package retry runs storage calls with bounded exponential backoff, jitter and a
// per-attempt timeout.
package retry

import (
	"context"
	"errors"
	"math"
	"math/rand"
	"time"
)

// Policy configures Do. Zero values fall back to the defaults below.
type Policy struct {
	MaxAttempts int           // default 3
	MinBackoff  time.Duration // default 100ms
	MaxBackoff  time.Duration // default 5s
	JitterFrac  float64       // default 0.20
	Timeout     time.Duration // per attempt; 0 disables

	// Retryable decides whether err is worth another attempt. Nil retries everything.
	Retryable func(err error) bool
	// OnRetry is called before sleeping between attempts.
	OnRetry func(attempt int, delay time.Duration, err error)
}

// ErrExhausted wraps the last error once every attempt failed with a retryable error.
var ErrExhausted = errors.New("retries exhausted")

type exhaustedError struct {
	attempts int
	last     error
}

func (e *exhaustedError) Error() string {
	return ErrExhausted.Error() + ": " + e.last.Error()
}

func (e *exhaustedError) Unwrap() []error { return []error{ErrExhausted, e.last} }

// Attempts reports how many times fn ran before Do gave up.
func Attempts(err error) int {
	var ex *exhaustedError
	if errors.As(err, &ex) {
		return ex.attempts
	}
	return 0
}

// Do calls fn until it succeeds, returns a non-retryable error, or MaxAttempts is
// reached. The attempt number (1-based) is passed to fn.
func Do(ctx context.Context, p Policy, fn func(ctx context.Context, attempt int) error) error {
	p = p.withDefaults()
	var last error
	for attempt := 1; attempt <= p.MaxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			if last != nil {
				return &exhaustedError{attempts: attempt - 1, last: last}
			}
			return err
		}
		last = runOnce(ctx, p.Timeout, attempt, fn)
		if last == nil {
			return nil
		}
		if p.Retryable != nil && !p.Retryable(last) {
			return last
		}
		if attempt == p.MaxAttempts {
			break
		}
		delay := Backoff(p, attempt)
		if p.OnRetry != nil {
			p.OnRetry(attempt, delay, last)
		}
		if err := sleep(ctx, delay); err != nil {
			return &exhaustedError{attempts: attempt, last: last}
		}
	}
	return &exhaustedError{attempts: p.MaxAttempts, last: last}
}

func runOnce(ctx context.Context, timeout time.Duration, attempt int, fn func(ctx context.Context, attempt int) error) error {
	if timeout <= 0 {
		return fn(ctx, attempt)
	}
	actx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	return fn(actx, attempt)
}

// Backoff returns the jittered delay after the given (1-based) failed attempt.
func Backoff(p Policy, attempt int) time.Duration {
	p = p.withDefaults()
	if attempt < 1 {
		attempt = 1
	}
	d := time.Duration(float64(p.MinBackoff) * math.Pow(2, float64(attempt-1)))
	if d > p.MaxBackoff {
		d = p.MaxBackoff
	}
	delta := float64(d) * p.JitterFrac
	low := float64(d) - delta
	high := float64(d) + delta
	if low < 0 {
		low = 0
	}
	return time.Duration(low + rand.Float64()*(high-low))
}

func (p Policy) withDefaults() Policy {
	if p.MaxAttempts <= 0 {
		p.MaxAttempts = 3
	}
	if p.MinBackoff <= 0 {
		p.MinBackoff = 100 * time.Millisecond
	}
	if p.MaxBackoff <= 0 {
		p.MaxBackoff = 5 * time.Second
	}
	if p.MaxBackoff < p.MinBackoff {
		p.MaxBackoff = p.MinBackoff
	}
	if p.JitterFrac <= 0 {
		p.JitterFrac = 0.20
	}
	if p.JitterFrac > 1 {
		p.JitterFrac = 1
	}
	return p
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
