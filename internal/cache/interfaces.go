// Package cache defines the shared key-value-with-TTL port used by the
// attempt tracker, the revocation list, the rate limiter, password reset
// tokens and the email queue, together with its Redis and in-memory
// implementations.
//
// Every operation that mutates a counter or a bucket is atomic on the
// backing store; callers never read-modify-write.
package cache

import (
	"context"
	"time"

	"github.com/MKhiriev/go-auth-gate/models"
)

//go:generate mockgen -source=interfaces.go -destination=../mock/cache_mock.go -package=mock

// Cache is the key-value-with-TTL port.
type Cache interface {
	// Get returns the value stored under key or ErrCacheMiss.
	Get(ctx context.Context, key string) (string, error)

	// Set stores value under key for ttl. A non-positive ttl stores the
	// value without expiry.
	Set(ctx context.Context, key, value string, ttl time.Duration) error

	// IncrWithTTL atomically increments the counter under key and sets its
	// TTL only when the post-increment value is 1.
	IncrWithTTL(ctx context.Context, key string, ttl time.Duration) (int64, error)

	// Delete removes keys. Missing keys are ignored.
	Delete(ctx context.Context, keys ...string) error

	// Exists reports whether key holds a live value.
	Exists(ctx context.Context, key string) (bool, error)

	// TTL returns the remaining lifetime of key, or ErrCacheMiss.
	TTL(ctx context.Context, key string) (time.Duration, error)

	// Push appends value to the list stored under list.
	Push(ctx context.Context, list, value string) error

	// TakeToken atomically consumes one token from the bucket stored under
	// key. The bucket holds at most capacity tokens and is refilled evenly
	// over period.
	TakeToken(ctx context.Context, key string, capacity int64, period time.Duration) (models.RateLimitDecision, error)

	// Close releases the underlying connection.
	Close() error
}
