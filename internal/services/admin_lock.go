package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	tallyredis "github.com/yungbote/tally-backend/internal/clients/redis"
	"github.com/yungbote/tally-backend/internal/platform/logger"
)

// ErrAdminLockLost is the cancellation cause of an admin operation whose lease lapsed.
var ErrAdminLockLost = errors.New("admin lock lost")

// AdminLock serialises administrative mutations. Ordinary attempts never take it.
// The returned context must be used for the guarded work: it is cancelled if the lock
// stops being held before release.
type AdminLock interface {
	Acquire(ctx context.Context) (held context.Context, release func(), err error)
}

type localAdminLock struct {
	sem chan struct{}
}

// NewLocalAdminLock returns a process-local lock, enough when a single process serves admin calls.
func NewLocalAdminLock() AdminLock {
	return &localAdminLock{sem: make(chan struct{}, 1)}
}

func (l *localAdminLock) Acquire(ctx context.Context) (context.Context, func(), error) {
	select {
	case l.sem <- struct{}{}:
		return ctx, func() { <-l.sem }, nil
	case <-ctx.Done():
		return nil, nil, ctx.Err()
	}
}

type heldLease interface {
	Renew(ctx context.Context) error
	Release(ctx context.Context) error
}

type leaseAdminLock struct {
	acquire func(ctx context.Context) (heldLease, error)
	ttl     time.Duration
	log     *logger.Logger
}

// NewLeaseAdminLock shares the admin lock across processes through a Redis lease. The lease
// is renewed every third of its TTL for as long as the operation runs.
func NewLeaseAdminLock(lease *tallyredis.LeaseLock, log *logger.Logger) AdminLock {
	return newLeaseAdminLock(func(ctx context.Context) (heldLease, error) {
		h, err := lease.Acquire(ctx)
		if err != nil {
			return nil, err
		}
		return h, nil
	}, lease.TTL(), log)
}

func newLeaseAdminLock(acquire func(ctx context.Context) (heldLease, error), ttl time.Duration, log *logger.Logger) *leaseAdminLock {
	if log == nil {
		log = logger.Nop()
	}
	return &leaseAdminLock{acquire: acquire, ttl: ttl, log: log.With("component", "AdminLease")}
}

func (l *leaseAdminLock) Acquire(ctx context.Context) (context.Context, func(), error) {
	lease, err := l.acquire(ctx)
	if err != nil {
		return nil, nil, err
	}
	held, cancel := context.WithCancelCause(ctx)
	done := make(chan struct{})
	stopped := make(chan struct{})
	go func() {
		defer close(stopped)
		l.keepAlive(held, lease, done, cancel)
	}()

	release := func() {
		close(done)
		<-stopped
		cancel(nil)
		rctx, rcancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer rcancel()
		if err := lease.Release(rctx); err != nil {
			l.log.Warn("admin_lease_release_failed", "error", err)
		}
	}
	return held, release, nil
}

// keepAlive renews until done. A renewal that finds the lease gone, or failures lasting a
// whole TTL, cancel held with ErrAdminLockLost.
func (l *leaseAdminLock) keepAlive(held context.Context, lease heldLease, done <-chan struct{}, cancel context.CancelCauseFunc) {
	interval := l.ttl / 3
	if interval <= 0 {
		interval = time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	lastOK := time.Now()
	for {
		select {
		case <-done:
			return
		case <-held.Done():
			return
		case <-ticker.C:
		}
		rctx, rcancel := context.WithTimeout(context.Background(), interval)
		err := lease.Renew(rctx)
		rcancel()
		switch {
		case err == nil:
			lastOK = time.Now()
		case errors.Is(err, tallyredis.ErrLeaseLost), time.Since(lastOK) >= l.ttl:
			l.log.Error("admin_lease_lost", "error", err, "last_renewed", lastOK)
			cancel(fmt.Errorf("%w: %w", ErrAdminLockLost, err))
			return
		default:
			l.log.Warn("admin_lease_renew_failed", "error", err)
		}
	}
}
