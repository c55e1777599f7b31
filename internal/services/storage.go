package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/yungbote/tally-backend/internal/data/aggregates"
	domainagg "github.com/yungbote/tally-backend/internal/domain/aggregates"
	"github.com/yungbote/tally-backend/internal/observability"
	"github.com/yungbote/tally-backend/internal/platform/dbctx"
	"github.com/yungbote/tally-backend/internal/platform/logger"
	"github.com/yungbote/tally-backend/internal/platform/retry"
)

// storageCaller wraps every backend call in bounded retry with a per-attempt timeout.
// Only transient failures are retried; conflicts and validation errors return at once.
type storageCaller struct {
	policy  retry.Policy
	log     *logger.Logger
	metrics *observability.Metrics
}

func newStorageCaller(policy retry.Policy, log *logger.Logger, metrics *observability.Metrics) storageCaller {
	return storageCaller{policy: policy, log: log, metrics: metrics}
}

func (s storageCaller) do(ctx context.Context, op string, fn func(ctx context.Context, attempt int) error) error {
	p := s.policy
	p.Retryable = isTransient
	p.OnRetry = func(attempt int, delay time.Duration, err error) {
		s.log.Warn("retry_attempt", "op", op, "attempt", attempt, "delay", delay, "error", err)
		s.metrics.IncStorageRetry(op)
	}
	err := retry.Do(ctx, p, fn)
	if errors.Is(err, retry.ErrExhausted) {
		return fmt.Errorf("%w: %s after %d attempts: %w", ErrStorageUnavailable, op, retry.Attempts(err), err)
	}
	return err
}

// StorageStep gives multi-transaction aggregate writes the same retry and per-attempt
// timeout as single calls, applied to each unit separately.
func StorageStep(policy retry.Policy, log *logger.Logger, metrics *observability.Metrics) aggregates.Step {
	if log == nil {
		log = logger.Nop()
	}
	caller := newStorageCaller(policy, log, metrics)
	return func(ctx context.Context, op string, fn func(ctx context.Context) error) error {
		return caller.do(ctx, op, func(ctx context.Context, _ int) error { return fn(ctx) })
	}
}

func isTransient(err error) bool {
	return domainagg.Retryable(aggregates.MapError("storage", err))
}

// read runs a single repo read through the storage caller.
func read[T any](ctx context.Context, s storageCaller, op string, fn func(dbc dbctx.Context) (T, error)) (T, error) {
	var out T
	err := s.do(ctx, op, func(ctx context.Context, _ int) error {
		v, err := fn(dbctx.FromContext(ctx))
		if err != nil {
			return err
		}
		out = v
		return nil
	})
	if err != nil {
		return out, translate(op, err)
	}
	return out, nil
}
