package service

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/MKhiriev/go-auth-gate/internal/cache"
	"github.com/MKhiriev/go-auth-gate/internal/config"
	"github.com/MKhiriev/go-auth-gate/internal/logger"
)

const (
	attemptsKeyPrefix = "login:attempts:"
	lockoutKeyPrefix  = "login:lockout:"
)

// LoginAttemptTracker counts consecutive failed logins per email and locks
// the email once the limit is reached.
//
// The counter and the lockout flag are separate keys: the counter lives for
// the attempt window, the flag for the lockout duration and stores the unlock
// instant in unix milliseconds.
type LoginAttemptTracker struct {
	cache       cache.Cache
	maxAttempts int64
	lockout     time.Duration
	window      time.Duration
	now         func() time.Time
}

func NewLoginAttemptTracker(c cache.Cache, cfg config.Auth) *LoginAttemptTracker {
	return &LoginAttemptTracker{
		cache:       c,
		maxAttempts: int64(cfg.MaxFailedAttempts),
		lockout:     cfg.LockoutDuration,
		window:      cfg.AttemptWindow,
		now:         time.Now,
	}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func attemptsKey(email string) string { return attemptsKeyPrefix + normalizeEmail(email) }
func lockoutKey(email string) string  { return lockoutKeyPrefix + normalizeEmail(email) }

// RecordFailedAttempt increments the counter and sets the lockout flag once
// the counter reaches the maximum.
func (t *LoginAttemptTracker) RecordFailedAttempt(ctx context.Context, email string) error {
	n, err := t.cache.IncrWithTTL(ctx, attemptsKey(email), t.window)
	if err != nil {
		return fmt.Errorf("error recording failed attempt: %w", err)
	}

	if n < t.maxAttempts {
		return nil
	}

	unlockAt := t.now().Add(t.lockout)
	if err = t.cache.Set(ctx, lockoutKey(email), strconv.FormatInt(unlockAt.UnixMilli(), 10), t.lockout); err != nil {
		return fmt.Errorf("error setting lockout: %w", err)
	}

	logger.FromContext(ctx).Warn().
		Str("func", "LoginAttemptTracker.RecordFailedAttempt").
		Int64("attempts", n).
		Time("unlock_at", unlockAt).
		Msg("email locked after repeated failed logins")

	return nil
}

func (t *LoginAttemptTracker) unlockAt(ctx context.Context, email string) (time.Time, bool, error) {
	raw, err := t.cache.Get(ctx, lockoutKey(email))
	if errors.Is(err, cache.ErrCacheMiss) {
		return time.Time{}, false, nil
	}
	if err != nil {
		return time.Time{}, false, fmt.Errorf("error reading lockout: %w", err)
	}

	ms, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		// unreadable flag: the key is still live, so treat it as a full lockout
		return t.now().Add(t.lockout), true, nil
	}

	return time.UnixMilli(ms), true, nil
}

// IsBlocked is true while a lockout flag exists and its unlock instant is
// still in the future.
func (t *LoginAttemptTracker) IsBlocked(ctx context.Context, email string) (bool, error) {
	unlock, ok, err := t.unlockAt(ctx, email)
	if err != nil || !ok {
		return false, err
	}
	return t.now().Before(unlock), nil
}

// ClearAttempts removes both the counter and the lockout flag.
func (t *LoginAttemptTracker) ClearAttempts(ctx context.Context, email string) error {
	if err := t.cache.Delete(ctx, attemptsKey(email), lockoutKey(email)); err != nil {
		return fmt.Errorf("error clearing login attempts: %w", err)
	}
	return nil
}

// RemainingLockoutMinutes rounds the time left until unlock up to whole minutes.
func (t *LoginAttemptTracker) RemainingLockoutMinutes(ctx context.Context, email string) (int64, error) {
	unlock, ok, err := t.unlockAt(ctx, email)
	if err != nil || !ok {
		return 0, err
	}

	left := unlock.Sub(t.now())
	if left <= 0 {
		return 0, nil
	}

	return int64(math.Ceil(left.Minutes())), nil
}

// RemainingAttempts returns how many failures are left before lockout.
func (t *LoginAttemptTracker) RemainingAttempts(ctx context.Context, email string) (int64, error) {
	raw, err := t.cache.Get(ctx, attemptsKey(email))
	if errors.Is(err, cache.ErrCacheMiss) {
		return t.maxAttempts, nil
	}
	if err != nil {
		return 0, fmt.Errorf("error reading login attempts: %w", err)
	}

	n, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("error parsing login attempts: %w", err)
	}

	return max(t.maxAttempts-n, 0), nil
}
