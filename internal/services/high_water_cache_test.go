package services

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{t: time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.t = c.t.Add(d)
	c.mu.Unlock()
}

func TestHighWaterCacheTTL(t *testing.T) {
	clock := newFakeClock()
	cache := NewHighWaterCache(3*time.Second, clock.Now)
	ctx := context.Background()

	var loads int
	value := int64(10)
	load := func(context.Context) (int64, error) {
		loads++
		return value, nil
	}

	got, hit, err := cache.Get(ctx, load)
	if err != nil || hit || got != 10 {
		t.Fatalf("first Get: want=10,miss got=%d,hit=%v err=%v", got, hit, err)
	}
	value = 11
	clock.Advance(2 * time.Second)
	got, hit, _ = cache.Get(ctx, load)
	if !hit || got != 10 {
		t.Fatalf("within ttl: want=10,hit got=%d,hit=%v", got, hit)
	}
	clock.Advance(time.Second)
	got, hit, _ = cache.Get(ctx, load)
	if hit || got != 11 {
		t.Fatalf("after ttl: want=11,miss got=%d,hit=%v", got, hit)
	}
	if loads != 2 {
		t.Fatalf("loads: want=2 got=%d", loads)
	}
}

func TestHighWaterCacheInvalidate(t *testing.T) {
	clock := newFakeClock()
	cache := NewHighWaterCache(time.Minute, clock.Now)
	ctx := context.Background()

	value := int64(5)
	load := func(context.Context) (int64, error) { return value, nil }
	if _, _, err := cache.Get(ctx, load); err != nil {
		t.Fatalf("Get: %v", err)
	}
	if v, ok := cache.Peek(); !ok || v != 5 {
		t.Fatalf("Peek: want=5,true got=%d,%v", v, ok)
	}

	value = 6
	cache.Invalidate()
	if _, ok := cache.Peek(); ok {
		t.Fatalf("Peek after Invalidate: want empty")
	}
	got, hit, _ := cache.Get(ctx, load)
	if hit || got != 6 {
		t.Fatalf("after Invalidate: want=6,miss got=%d,hit=%v", got, hit)
	}
}

func TestHighWaterCacheZeroTTLNeverCaches(t *testing.T) {
	cache := NewHighWaterCache(0, nil)
	var loads int
	for i := 0; i < 3; i++ {
		_, hit, err := cache.Get(context.Background(), func(context.Context) (int64, error) {
			loads++
			return 1, nil
		})
		if err != nil || hit {
			t.Fatalf("Get %d: hit=%v err=%v", i, hit, err)
		}
	}
	if loads != 3 {
		t.Fatalf("loads: want=3 got=%d", loads)
	}
}

func TestHighWaterCacheErrorNotCached(t *testing.T) {
	cache := NewHighWaterCache(time.Minute, newFakeClock().Now)
	boom := errors.New("boom")
	if _, _, err := cache.Get(context.Background(), func(context.Context) (int64, error) { return 0, boom }); !errors.Is(err, boom) {
		t.Fatalf("Get: want=%v got=%v", boom, err)
	}
	if _, ok := cache.Peek(); ok {
		t.Fatalf("failed load must not populate the cache")
	}
}

func TestHighWaterCacheCoalescesConcurrentLoads(t *testing.T) {
	cache := NewHighWaterCache(time.Minute, newFakeClock().Now)
	var loads atomic.Int32
	release := make(chan struct{})
	load := func(context.Context) (int64, error) {
		loads.Add(1)
		<-release
		return 42, nil
	}

	const callers = 8
	var wg sync.WaitGroup
	var started sync.WaitGroup
	results := make([]int64, callers)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		started.Add(1)
		go func(i int) {
			defer wg.Done()
			started.Done()
			v, _, err := cache.Get(context.Background(), load)
			if err != nil {
				t.Errorf("Get: %v", err)
			}
			results[i] = v
		}(i)
	}
	started.Wait()
	time.Sleep(20 * time.Millisecond)
	close(release)
	wg.Wait()

	if n := loads.Load(); n != 1 {
		t.Fatalf("loads: want=1 got=%d", n)
	}
	for i, v := range results {
		if v != 42 {
			t.Fatalf("caller %d: want=42 got=%d", i, v)
		}
	}
}

func TestHighWaterCacheDropsLoadStartedBeforeInvalidate(t *testing.T) {
	cache := NewHighWaterCache(time.Minute, newFakeClock().Now)
	entered := make(chan struct{})
	release := make(chan struct{})
	done := make(chan struct{})
	go func() {
		defer close(done)
		_, _, _ = cache.Get(context.Background(), func(context.Context) (int64, error) {
			close(entered)
			<-release
			return 7, nil
		})
	}()
	<-entered
	cache.Invalidate()
	close(release)
	<-done

	if _, ok := cache.Peek(); ok {
		t.Fatalf("stale load stored after Invalidate")
	}
}
