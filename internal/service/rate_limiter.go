package service

import (
	"context"
	"fmt"

	"github.com/MKhiriev/go-auth-gate/internal/cache"
	"github.com/MKhiriev/go-auth-gate/models"
)

// RateLimiter is a token bucket per (identity, class) kept in the shared
// cache. It knows nothing about what the identity means.
type RateLimiter struct {
	cache cache.Cache
	rules map[models.RateLimitClass]models.RateLimitRule
}

func NewRateLimiter(c cache.Cache, rules map[models.RateLimitClass]models.RateLimitRule) *RateLimiter {
	return &RateLimiter{cache: c, rules: rules}
}

func rateLimitKey(class models.RateLimitClass, identity string) string {
	return "ratelimit:" + string(class) + ":" + identity
}

// TryConsume takes one token from the bucket of identity in class.
func (r *RateLimiter) TryConsume(ctx context.Context, identity string, class models.RateLimitClass) (models.RateLimitDecision, error) {
	rule, ok := r.rules[class]
	if !ok {
		return models.RateLimitDecision{}, fmt.Errorf("%w: %s", ErrUnknownRateLimitClass, class)
	}

	decision, err := r.cache.TakeToken(ctx, rateLimitKey(class, identity), rule.Capacity, rule.Period)
	if err != nil {
		return models.RateLimitDecision{}, fmt.Errorf("error consuming rate limit token: %w", err)
	}

	return decision, nil
}
