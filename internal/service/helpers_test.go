package service

import (
	"sync"
	"testing"
	"time"

	"github.com/MKhiriev/go-auth-gate/internal/cache"
	"github.com/MKhiriev/go-auth-gate/internal/config"
	"github.com/MKhiriev/go-auth-gate/models"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

const testSignKey = "0123456789abcdef0123456789abcdef"

func testAuthConfig() config.Auth {
	return config.Auth{
		TokenSignKey:      testSignKey,
		TokenIssuer:       "go-auth-gate",
		TokenAudience:     []string{"web-app", "mobile-app"},
		AccessTokenTTL:    15 * time.Minute,
		PendingTokenTTL:   5 * time.Minute,
		RefreshTokenTTL:   720 * time.Hour,
		PasswordResetTTL:  2 * time.Hour,
		EmailChangeTTL:    2 * time.Hour,
		MaxFailedAttempts: 5,
		LockoutDuration:   15 * time.Minute,
		AttemptWindow:     30 * time.Minute,
		TOTPIssuer:        "go-auth-gate",
		TOTPSkew:          1,
		BcryptCost:        bcrypt.MinCost,
	}
}

func testRules() map[models.RateLimitClass]models.RateLimitRule {
	return map[models.RateLimitClass]models.RateLimitRule{
		models.RateLimitAuth:               {Capacity: 10, Period: time.Minute},
		models.RateLimitGeneral:            {Capacity: 100, Period: time.Minute},
		models.RateLimitPasswordReset:      {Capacity: 3, Period: time.Hour},
		models.RateLimitVerificationResend: {Capacity: 5, Period: time.Hour},
		models.RateLimitProfileUpdate:      {Capacity: 10, Period: time.Hour},
		models.RateLimitTwoFactorLogin:     {Capacity: 5, Period: 5 * time.Minute},
	}
}

func newTestHasher(t *testing.T) *PasswordHasher {
	t.Helper()
	h, err := NewPasswordHasher(bcrypt.MinCost)
	require.NoError(t, err)
	return h
}

func mustHash(t *testing.T, h *PasswordHasher, plain string) string {
	t.Helper()
	hash, err := h.Hash(plain)
	require.NoError(t, err)
	return hash
}

// fakeClock is a settable clock shared by the memory cache and the
// component under test.
type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{t: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}

func newClockedCache(clock *fakeClock) *cache.MemoryCache {
	return cache.NewMemoryCache(cache.WithClock(clock.Now))
}

func verifiedUser(t *testing.T, h *PasswordHasher, email, password string) models.User {
	t.Helper()
	return models.User{
		UserID:       uuid.Must(uuid.NewV7()),
		FirstName:    "Ada",
		LastName:     "Lovelace",
		Email:        email,
		PasswordHash: mustHash(t, h, password),
		PlatformRole: models.RoleUser,
		IsActive:     true,
		IsVerified:   true,
	}
}
