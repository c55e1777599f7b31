package redis

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"

	types "github.com/yungbote/tally-backend/internal/domain"
	"github.com/yungbote/tally-backend/internal/platform/logger"
)

func testClient(t *testing.T) *goredis.Client {
	t.Helper()
	addr := os.Getenv("TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("set TEST_REDIS_ADDR to run redis integration tests")
	}
	rdb, err := NewClient(context.Background(), Config{Addr: addr})
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	t.Cleanup(func() { _ = rdb.Close() })
	return rdb
}

func TestNewClientRequiresAddr(t *testing.T) {
	if _, err := NewClient(context.Background(), Config{}); err == nil {
		t.Fatalf("expected error for empty addr")
	}
}

func TestLeaseLock(t *testing.T) {
	rdb := testClient(t)
	ctx := context.Background()
	key := "tally:test:lock:" + uuid.NewString()
	a := NewLeaseLock(rdb, key, time.Second)
	b := NewLeaseLock(rdb, key, time.Second)

	held, err := a.TryAcquire(ctx)
	if err != nil {
		t.Fatalf("TryAcquire: %v", err)
	}
	if _, err := b.TryAcquire(ctx); !errors.Is(err, ErrLockHeld) {
		t.Fatalf("second TryAcquire: want ErrLockHeld got %v", err)
	}

	// renewing keeps the lease past its original TTL
	for i := 0; i < 3; i++ {
		time.Sleep(400 * time.Millisecond)
		if err := held.Renew(ctx); err != nil {
			t.Fatalf("Renew %d: %v", i, err)
		}
	}
	if _, err := b.TryAcquire(ctx); !errors.Is(err, ErrLockHeld) {
		t.Fatalf("renewed lease expired: %v", err)
	}
	if err := held.Release(ctx); err != nil {
		t.Fatalf("release: %v", err)
	}
	if err := held.Renew(ctx); !errors.Is(err, ErrLeaseLost) {
		t.Fatalf("Renew after release: want ErrLeaseLost got %v", err)
	}

	waitCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	heldB, err := b.Acquire(waitCtx)
	if err != nil {
		t.Fatalf("Acquire after release: %v", err)
	}
	// a stale release must not drop b's lease
	_ = held.Release(ctx)
	if _, err := a.TryAcquire(ctx); !errors.Is(err, ErrLockHeld) {
		t.Fatalf("lease dropped by stale release: %v", err)
	}
	_ = heldB.Release(ctx)
}

func TestEventBusRoundTrip(t *testing.T) {
	rdb := testClient(t)
	log, err := logger.New("test")
	if err != nil {
		t.Fatalf("logger: %v", err)
	}
	bus, err := NewEventBus(rdb, "tally:test:"+uuid.NewString(), log)
	if err != nil {
		t.Fatalf("NewEventBus: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	got := make(chan types.LedgerEvent, 1)
	if err := bus.Subscribe(ctx, func(ev types.LedgerEvent) { got <- ev }); err != nil {
		t.Fatalf("Subscribe: %v", err)
	}
	want := types.LedgerEvent{Type: types.EventCountClaimed, SequenceNumber: 101, ContributorID: "alice", CurrentCount: 101}
	if err := bus.Publish(ctx, want); err != nil {
		t.Fatalf("Publish: %v", err)
	}
	select {
	case ev := <-got:
		if ev.Type != want.Type || ev.SequenceNumber != 101 || ev.ContributorID != "alice" {
			t.Fatalf("unexpected event %+v", ev)
		}
	case <-ctx.Done():
		t.Fatalf("timed out waiting for event")
	}
}
