package config

import "errors"

// Validation errors returned by [StructuredConfig.validate] when required
// configuration groups are incomplete or invalid.
var (
	// ErrInvalidAuthConfigs indicates invalid token or lockout settings
	// (for example, a sign key shorter than 32 bytes).
	ErrInvalidAuthConfigs = errors.New("invalid auth configuration")
	// ErrInvalidStorageConfigs indicates invalid storage settings
	// (for example, an empty DSN).
	ErrInvalidStorageConfigs = errors.New("invalid storage configuration")
	// ErrInvalidCacheConfigs indicates an unknown cache backend or a redis
	// backend without an address.
	ErrInvalidCacheConfigs = errors.New("invalid cache configuration")
	// ErrInvalidServerConfigs indicates that no listener address is set.
	ErrInvalidServerConfigs = errors.New("invalid server configuration")
	// ErrInvalidRateLimitConfigs indicates a rate-limit class with a
	// non-positive capacity or period.
	ErrInvalidRateLimitConfigs = errors.New("invalid rate limit configuration")
	// ErrInvalidMailerConfigs indicates an unusable mailer backend.
	ErrInvalidMailerConfigs = errors.New("invalid mailer configuration")
)
