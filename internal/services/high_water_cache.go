package services

import (
	"context"
	"strconv"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
)

// HighWaterCache holds the last read maximum sequence number for a short TTL. It only
// reduces read load: nothing relies on it being fresh.
type HighWaterCache struct {
	ttl time.Duration
	now func() time.Time

	mu      sync.Mutex
	value   int64
	expires time.Time
	valid   bool
	gen     uint64

	group singleflight.Group
}

// NewHighWaterCache returns a cache with the given TTL. ttl <= 0 disables caching;
// a nil now uses the wall clock.
func NewHighWaterCache(ttl time.Duration, now func() time.Time) *HighWaterCache {
	if now == nil {
		now = time.Now
	}
	return &HighWaterCache{ttl: ttl, now: now}
}

// Get returns the cached value, or calls load once for all concurrent missers. hit
// reports whether the value came from the cache.
func (c *HighWaterCache) Get(ctx context.Context, load func(ctx context.Context) (int64, error)) (value int64, hit bool, err error) {
	c.mu.Lock()
	if c.valid && c.now().Before(c.expires) {
		v := c.value
		c.mu.Unlock()
		return v, true, nil
	}
	gen := c.gen
	c.mu.Unlock()

	// loads started before an invalidation are not shared with callers after it
	res, err, _ := c.group.Do(strconv.FormatUint(gen, 10), func() (any, error) {
		v, err := load(ctx)
		if err != nil {
			return int64(0), err
		}
		c.store(gen, v)
		return v, nil
	})
	if err != nil {
		return 0, false, err
	}
	return res.(int64), false, nil
}

func (c *HighWaterCache) store(gen uint64, v int64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.gen != gen || c.ttl <= 0 {
		return
	}
	c.value = v
	c.valid = true
	c.expires = c.now().Add(c.ttl)
}

// Invalidate drops the cached value and any in-flight load result.
func (c *HighWaterCache) Invalidate() {
	c.mu.Lock()
	c.valid = false
	c.gen++
	c.mu.Unlock()
}

// Peek returns the cached value without loading. ok is false when empty or expired.
func (c *HighWaterCache) Peek() (value int64, ok bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.valid || !c.now().Before(c.expires) {
		return 0, false
	}
	return c.value, true
}
