package cache

import (
	"context"
	"math"
	"strconv"
	"sync"
	"time"

	"github.com/MKhiriev/go-auth-gate/models"
	"golang.org/x/time/rate"
)

type memoryEntry struct {
	value     string
	list      []string
	expiresAt time.Time
}

func (e memoryEntry) expired(now time.Time) bool {
	return !e.expiresAt.IsZero() && !now.Before(e.expiresAt)
}

type memoryBucket struct {
	limiter   *rate.Limiter
	capacity  int64
	period    time.Duration
	touchedAt time.Time
}

// MemoryCache is an in-process [Cache] for single-instance deployments and
// tests. Buckets are backed by golang.org/x/time/rate limiters evaluated
// against the cache clock.
type MemoryCache struct {
	mu      sync.Mutex
	entries map[string]memoryEntry
	buckets map[string]*memoryBucket
	now     func() time.Time
}

// MemoryOption configures a MemoryCache.
type MemoryOption func(*MemoryCache)

// WithClock replaces time.Now as the cache clock.
func WithClock(now func() time.Time) MemoryOption {
	return func(c *MemoryCache) {
		c.now = now
	}
}

func NewMemoryCache(opts ...MemoryOption) *MemoryCache {
	c := &MemoryCache{
		entries: make(map[string]memoryEntry),
		buckets: make(map[string]*memoryBucket),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// live returns the entry under key, dropping it if expired. Caller holds mu.
func (c *MemoryCache) live(key string, now time.Time) (memoryEntry, bool) {
	e, ok := c.entries[key]
	if !ok {
		return memoryEntry{}, false
	}
	if e.expired(now) {
		delete(c.entries, key)
		return memoryEntry{}, false
	}
	return e, true
}

func (c *MemoryCache) expiry(now time.Time, ttl time.Duration) time.Time {
	if ttl <= 0 {
		return time.Time{}
	}
	return now.Add(ttl)
}

func (c *MemoryCache) Get(ctx context.Context, key string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.live(key, c.now())
	if !ok {
		return "", ErrCacheMiss
	}
	return e.value, nil
}

func (c *MemoryCache) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	c.entries[key] = memoryEntry{value: value, expiresAt: c.expiry(now, ttl)}
	return nil
}

func (c *MemoryCache) IncrWithTTL(ctx context.Context, key string, ttl time.Duration) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	e, ok := c.live(key, now)

	var n int64
	if ok {
		parsed, err := strconv.ParseInt(e.value, 10, 64)
		if err != nil {
			return 0, err
		}
		n = parsed
	}
	n++

	if n == 1 {
		e.expiresAt = c.expiry(now, ttl)
	}
	e.value = strconv.FormatInt(n, 10)
	c.entries[key] = e

	return n, nil
}

func (c *MemoryCache) Delete(ctx context.Context, keys ...string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	for _, key := range keys {
		delete(c.entries, key)
		delete(c.buckets, key)
	}
	return nil
}

func (c *MemoryCache) Exists(ctx context.Context, key string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	_, ok := c.live(key, c.now())
	return ok, nil
}

func (c *MemoryCache) TTL(ctx context.Context, key string) (time.Duration, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	e, ok := c.live(key, now)
	if !ok {
		return 0, ErrCacheMiss
	}
	if e.expiresAt.IsZero() {
		return 0, nil
	}
	return e.expiresAt.Sub(now), nil
}

func (c *MemoryCache) Push(ctx context.Context, list, value string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	e, _ := c.live(list, c.now())
	e.list = append(e.list, value)
	c.entries[list] = e
	return nil
}

// List returns a copy of the list stored under key.
func (c *MemoryCache) List(key string) []string {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.live(key, c.now())
	if !ok {
		return nil
	}
	return append([]string(nil), e.list...)
}

func (c *MemoryCache) TakeToken(ctx context.Context, key string, capacity int64, period time.Duration) (models.RateLimitDecision, error) {
	if capacity < 1 || period <= 0 {
		return models.RateLimitDecision{}, ErrInvalidBucket
	}
	if err := ctx.Err(); err != nil {
		return models.RateLimitDecision{}, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	b, ok := c.buckets[key]
	// an idle bucket is full again after one period, same as the Redis key expiring
	if !ok || b.capacity != capacity || b.period != period || now.Sub(b.touchedAt) >= period {
		every := rate.Every(period / time.Duration(capacity))
		b = &memoryBucket{
			limiter:  rate.NewLimiter(every, int(capacity)),
			capacity: capacity,
			period:   period,
		}
		c.buckets[key] = b
	}
	b.touchedAt = now

	if b.limiter.AllowN(now, 1) {
		return models.RateLimitDecision{
			Allowed:   true,
			Remaining: int64(math.Floor(b.limiter.TokensAt(now))),
		}, nil
	}

	r := b.limiter.ReserveN(now, 1)
	wait := r.DelayFrom(now)
	r.CancelAt(now)

	return models.RateLimitDecision{
		Allowed:   false,
		Remaining: 0,
		WaitNanos: wait.Nanoseconds(),
	}, nil
}

// Prune drops expired entries and buckets idle for at least one period,
// returning how many keys were removed. Reads already ignore both, so this
// only bounds memory.
func (c *MemoryCache) Prune() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	removed := 0
	for key, e := range c.entries {
		if e.expired(now) {
			delete(c.entries, key)
			removed++
		}
	}
	for key, b := range c.buckets {
		if now.Sub(b.touchedAt) >= b.period {
			delete(c.buckets, key)
			removed++
		}
	}
	return removed
}

// Len reports the number of stored entries and buckets, expired or not.
func (c *MemoryCache) Len() (entries, buckets int) {
	c.mu.Lock()
	defer c.mu.Unlock()

	return len(c.entries), len(c.buckets)
}

func (c *MemoryCache) Close() error {
	return nil
}
