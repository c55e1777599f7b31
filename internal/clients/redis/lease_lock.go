package redis

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"
)

var (
	ErrLockHeld  = errors.New("lease held by another holder")
	ErrLeaseLost = errors.New("lease no longer held")
)

// releaseScript deletes the key only if it still carries our token, so an expired lease
// re-acquired by someone else is never released by us.
var releaseScript = goredis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// renewScript extends the TTL only while the key still carries our token.
var renewScript = goredis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("PEXPIRE", KEYS[1], ARGV[2])
end
return 0
`)

// LeaseLock is a single-holder lease on one Redis key (SET NX PX).
type LeaseLock struct {
	rdb  goredis.UniversalClient
	key  string
	ttl  time.Duration
	poll time.Duration
}

func NewLeaseLock(rdb goredis.UniversalClient, key string, ttl time.Duration) *LeaseLock {
	key = strings.TrimSpace(key)
	if key == "" {
		key = "tally:admin_lock"
	}
	if ttl <= 0 {
		ttl = 2 * time.Minute
	}
	return &LeaseLock{rdb: rdb, key: key, ttl: ttl, poll: 100 * time.Millisecond}
}

func (l *LeaseLock) TTL() time.Duration { return l.ttl }

// Lease is one holding of a LeaseLock. It expires after the lock TTL unless renewed.
type Lease struct {
	lock  *LeaseLock
	token string
}

// Renew pushes expiry one TTL into the future. ErrLeaseLost means the key expired or
// another holder owns it now.
func (h *Lease) Renew(ctx context.Context) error {
	n, err := renewScript.Run(ctx, h.lock.rdb, []string{h.lock.key}, h.token, h.lock.ttl.Milliseconds()).Int()
	if err != nil {
		return fmt.Errorf("renew lease %s: %w", h.lock.key, err)
	}
	if n == 0 {
		return fmt.Errorf("renew lease %s: %w", h.lock.key, ErrLeaseLost)
	}
	return nil
}

// Release drops the lease if it is still ours.
func (h *Lease) Release(ctx context.Context) error {
	return releaseScript.Run(ctx, h.lock.rdb, []string{h.lock.key}, h.token).Err()
}

// TryAcquire takes the lease once. It returns ErrLockHeld when another holder owns it.
func (l *LeaseLock) TryAcquire(ctx context.Context) (*Lease, error) {
	token := uuid.NewString()
	ok, err := l.rdb.SetNX(ctx, l.key, token, l.ttl).Result()
	if err != nil {
		return nil, fmt.Errorf("acquire lease %s: %w", l.key, err)
	}
	if !ok {
		return nil, ErrLockHeld
	}
	return &Lease{lock: l, token: token}, nil
}

// Acquire polls until the lease is taken or ctx is done.
func (l *LeaseLock) Acquire(ctx context.Context) (*Lease, error) {
	for {
		lease, err := l.TryAcquire(ctx)
		if err == nil {
			return lease, nil
		}
		if !errors.Is(err, ErrLockHeld) {
			return nil, err
		}
		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("acquire lease %s: %w", l.key, ctx.Err())
		case <-time.After(l.poll):
		}
	}
}
