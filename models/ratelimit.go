package models

import (
	"math"
	"time"
)

// RateLimitClass names a token-bucket configuration.
type RateLimitClass string

const (
	RateLimitAuth               RateLimitClass = "auth"
	RateLimitGeneral            RateLimitClass = "general"
	RateLimitPasswordReset      RateLimitClass = "password_reset"
	RateLimitVerificationResend RateLimitClass = "verification_resend"
	RateLimitProfileUpdate      RateLimitClass = "profile_update"
	RateLimitTwoFactorLogin     RateLimitClass = "two_factor_login"
)

// RateLimitRule is the capacity/refill pair of a bucket: Capacity tokens are
// refilled evenly over Period.
type RateLimitRule struct {
	Capacity int64
	Period   time.Duration
}

// RateLimitDecision is the result of trying to consume one token.
type RateLimitDecision struct {
	Allowed bool

	// Remaining is the number of whole tokens left after the attempt.
	Remaining int64

	// WaitNanos is the time until a token becomes available. Zero when allowed.
	WaitNanos int64
}

// RetryAfterSeconds rounds WaitNanos up to whole seconds, at least 1 when
// the decision was rejected.
func (p RateLimitDecision) RetryAfterSeconds() int64 {
	if p.Allowed {
		return 0
	}
	secs := int64(math.Ceil(float64(p.WaitNanos) / float64(time.Second)))
	if secs < 1 {
		return 1
	}
	return secs
}
