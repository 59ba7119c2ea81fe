package cache

import "errors"

var (
	// ErrCacheMiss is returned when a key does not exist or has expired.
	ErrCacheMiss = errors.New("cache miss")

	// ErrInvalidBucket is returned by TakeToken for a non-positive capacity
	// or period.
	ErrInvalidBucket = errors.New("invalid token bucket parameters")
)
