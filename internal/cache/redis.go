package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/MKhiriev/go-auth-gate/internal/config"
	"github.com/MKhiriev/go-auth-gate/internal/logger"
	"github.com/MKhiriev/go-auth-gate/models"
	"github.com/redis/go-redis/v9"
)

// incrWithTTLScript increments KEYS[1] and sets its TTL (ARGV[1], ms) on the
// first increment only.
var incrWithTTLScript = redis.NewScript(`
local v = redis.call('INCR', KEYS[1])
if v == 1 then
  redis.call('PEXPIRE', KEYS[1], ARGV[1])
end
return v
`)

// takeTokenScript implements a continuously refilled token bucket stored as
// a hash {tokens, ts}. ARGV: capacity, period ms, now ms.
// Returns {allowed, remaining whole tokens, wait ms}.
var takeTokenScript = redis.NewScript(`
local capacity = tonumber(ARGV[1])
local period = tonumber(ARGV[2])
local now = tonumber(ARGV[3])

local state = redis.call('HMGET', KEYS[1], 'tokens', 'ts')
local tokens = tonumber(state[1])
local ts = tonumber(state[2])
if tokens == nil or ts == nil then
  tokens = capacity
  ts = now
end

local elapsed = math.max(0, now - ts)
tokens = math.min(capacity, tokens + elapsed * capacity / period)

local allowed = 0
local wait = 0
if tokens >= 1 then
  tokens = tokens - 1
  allowed = 1
else
  wait = math.ceil((1 - tokens) * period / capacity)
end

redis.call('HSET', KEYS[1], 'tokens', tostring(tokens), 'ts', tostring(now))
redis.call('PEXPIRE', KEYS[1], period)
return {allowed, math.floor(tokens), wait}
`)

// RedisCache is the Redis-backed [Cache].
type RedisCache struct {
	client  redis.UniversalClient
	timeout time.Duration
	now     func() time.Time
	logger  *logger.Logger
}

// NewRedisCache connects to Redis and verifies the connection with PING.
// callTimeout bounds every subsequent operation.
func NewRedisCache(ctx context.Context, cfg config.Cache, callTimeout time.Duration, log *logger.Logger) (*RedisCache, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         cfg.Address,
		Password:     cfg.Password,
		DB:           cfg.DB,
		DialTimeout:  callTimeout,
		ReadTimeout:  callTimeout,
		WriteTimeout: callTimeout,
	})

	pingCtx, cancel := context.WithTimeout(ctx, callTimeout)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("error connecting to redis at %s: %w", cfg.Address, err)
	}

	log.Info().Str("func", "cache.NewRedisCache").Str("address", cfg.Address).Msg("connected to redis")

	return NewRedisCacheFromClient(client, callTimeout, log), nil
}

// NewRedisCacheFromClient wraps an existing client.
func NewRedisCacheFromClient(client redis.UniversalClient, callTimeout time.Duration, log *logger.Logger) *RedisCache {
	return &RedisCache{
		client:  client,
		timeout: callTimeout,
		now:     time.Now,
		logger:  log,
	}
}

func (c *RedisCache) bounded(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, c.timeout)
}

func (c *RedisCache) Get(ctx context.Context, key string) (string, error) {
	ctx, cancel := c.bounded(ctx)
	defer cancel()

	value, err := c.client.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return "", ErrCacheMiss
	}
	if err != nil {
		return "", fmt.Errorf("redis GET %s: %w", key, err)
	}

	return value, nil
}

func (c *RedisCache) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	ctx, cancel := c.bounded(ctx)
	defer cancel()

	if ttl < 0 {
		ttl = 0
	}
	if err := c.client.Set(ctx, key, value, ttl).Err(); err != nil {
		return fmt.Errorf("redis SET %s: %w", key, err)
	}

	return nil
}

func (c *RedisCache) IncrWithTTL(ctx context.Context, key string, ttl time.Duration) (int64, error) {
	ctx, cancel := c.bounded(ctx)
	defer cancel()

	n, err := incrWithTTLScript.Run(ctx, c.client, []string{key}, ttl.Milliseconds()).Int64()
	if err != nil {
		return 0, fmt.Errorf("redis INCR %s: %w", key, err)
	}

	return n, nil
}

func (c *RedisCache) Delete(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}

	ctx, cancel := c.bounded(ctx)
	defer cancel()

	if err := c.client.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("redis DEL: %w", err)
	}

	return nil
}

func (c *RedisCache) Exists(ctx context.Context, key string) (bool, error) {
	ctx, cancel := c.bounded(ctx)
	defer cancel()

	n, err := c.client.Exists(ctx, key).Result()
	if err != nil {
		return false, fmt.Errorf("redis EXISTS %s: %w", key, err)
	}

	return n > 0, nil
}

func (c *RedisCache) TTL(ctx context.Context, key string) (time.Duration, error) {
	ctx, cancel := c.bounded(ctx)
	defer cancel()

	ttl, err := c.client.PTTL(ctx, key).Result()
	if err != nil {
		return 0, fmt.Errorf("redis PTTL %s: %w", key, err)
	}
	// go-redis reports -2 for a missing key and -1 for no expiry, unscaled.
	if ttl == -2 {
		return 0, ErrCacheMiss
	}
	if ttl < 0 {
		return 0, nil
	}

	return ttl, nil
}

func (c *RedisCache) Push(ctx context.Context, list, value string) error {
	ctx, cancel := c.bounded(ctx)
	defer cancel()

	if err := c.client.RPush(ctx, list, value).Err(); err != nil {
		return fmt.Errorf("redis RPUSH %s: %w", list, err)
	}

	return nil
}

func (c *RedisCache) TakeToken(ctx context.Context, key string, capacity int64, period time.Duration) (models.RateLimitDecision, error) {
	if capacity < 1 || period < time.Millisecond {
		return models.RateLimitDecision{}, ErrInvalidBucket
	}

	ctx, cancel := c.bounded(ctx)
	defer cancel()

	res, err := takeTokenScript.Run(ctx, c.client, []string{key},
		capacity, period.Milliseconds(), c.now().UnixMilli()).Int64Slice()
	if err != nil {
		return models.RateLimitDecision{}, fmt.Errorf("redis token bucket %s: %w", key, err)
	}
	if len(res) != 3 {
		return models.RateLimitDecision{}, fmt.Errorf("redis token bucket %s: unexpected reply %v", key, res)
	}

	return models.RateLimitDecision{
		Allowed:   res[0] == 1,
		Remaining: res[1],
		WaitNanos: (time.Duration(res[2]) * time.Millisecond).Nanoseconds(),
	}, nil
}

func (c *RedisCache) Close() error {
	return c.client.Close()
}
