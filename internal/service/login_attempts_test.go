package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/MKhiriev/go-auth-gate/internal/mock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

func newTestTracker(clock *fakeClock) *LoginAttemptTracker {
	tracker := NewLoginAttemptTracker(newClockedCache(clock), testAuthConfig())
	tracker.now = clock.Now
	return tracker
}

func TestLoginAttemptTracker_LocksAfterMaxFailures(t *testing.T) {
	ctx := context.Background()
	clock := newFakeClock()
	tracker := newTestTracker(clock)

	for i := 0; i < 4; i++ {
		require.NoError(t, tracker.RecordFailedAttempt(ctx, "a@x.com"))
		blocked, err := tracker.IsBlocked(ctx, "a@x.com")
		require.NoError(t, err)
		assert.False(t, blocked, "blocked after %d failures", i+1)
	}

	require.NoError(t, tracker.RecordFailedAttempt(ctx, "a@x.com"))

	blocked, err := tracker.IsBlocked(ctx, "a@x.com")
	require.NoError(t, err)
	assert.True(t, blocked)

	minutes, err := tracker.RemainingLockoutMinutes(ctx, "a@x.com")
	require.NoError(t, err)
	assert.Equal(t, int64(15), minutes)
}

func TestLoginAttemptTracker_LockoutOutlivesAttemptWindow(t *testing.T) {
	ctx := context.Background()
	clock := newFakeClock()
	tracker := newTestTracker(clock)

	for range 5 {
		require.NoError(t, tracker.RecordFailedAttempt(ctx, "a@x.com"))
	}

	clock.Advance(14*time.Minute + 59*time.Second)
	blocked, err := tracker.IsBlocked(ctx, "a@x.com")
	require.NoError(t, err)
	assert.True(t, blocked)

	minutes, err := tracker.RemainingLockoutMinutes(ctx, "a@x.com")
	require.NoError(t, err)
	assert.Equal(t, int64(1), minutes, "remaining time rounds up")

	clock.Advance(time.Second)
	blocked, err = tracker.IsBlocked(ctx, "a@x.com")
	require.NoError(t, err)
	assert.False(t, blocked)
}

func TestLoginAttemptTracker_FurtherFailuresKeepLockout(t *testing.T) {
	ctx := context.Background()
	clock := newFakeClock()
	tracker := newTestTracker(clock)

	for range 5 {
		require.NoError(t, tracker.RecordFailedAttempt(ctx, "a@x.com"))
	}

	clock.Advance(10 * time.Minute)
	require.NoError(t, tracker.RecordFailedAttempt(ctx, "a@x.com"))

	// the sixth failure restarts the lockout from now
	clock.Advance(10 * time.Minute)
	blocked, err := tracker.IsBlocked(ctx, "a@x.com")
	require.NoError(t, err)
	assert.True(t, blocked)
}

func TestLoginAttemptTracker_EmailIsCaseInsensitive(t *testing.T) {
	ctx := context.Background()
	tracker := newTestTracker(newFakeClock())

	for _, email := range []string{"A@x.com", "a@X.com", " a@x.com", "A@X.COM", "a@x.com"} {
		require.NoError(t, tracker.RecordFailedAttempt(ctx, email))
	}

	blocked, err := tracker.IsBlocked(ctx, "a@x.com")
	require.NoError(t, err)
	assert.True(t, blocked)
}

func TestLoginAttemptTracker_ClearAttempts(t *testing.T) {
	ctx := context.Background()
	tracker := newTestTracker(newFakeClock())

	for range 5 {
		require.NoError(t, tracker.RecordFailedAttempt(ctx, "a@x.com"))
	}
	require.NoError(t, tracker.ClearAttempts(ctx, "a@x.com"))

	blocked, err := tracker.IsBlocked(ctx, "a@x.com")
	require.NoError(t, err)
	assert.False(t, blocked)

	left, err := tracker.RemainingAttempts(ctx, "a@x.com")
	require.NoError(t, err)
	assert.Equal(t, int64(5), left)
}

func TestLoginAttemptTracker_CounterExpiresWithWindow(t *testing.T) {
	ctx := context.Background()
	clock := newFakeClock()
	tracker := newTestTracker(clock)

	for range 4 {
		require.NoError(t, tracker.RecordFailedAttempt(ctx, "a@x.com"))
	}

	left, err := tracker.RemainingAttempts(ctx, "a@x.com")
	require.NoError(t, err)
	assert.Equal(t, int64(1), left)

	clock.Advance(31 * time.Minute)
	require.NoError(t, tracker.RecordFailedAttempt(ctx, "a@x.com"))

	blocked, err := tracker.IsBlocked(ctx, "a@x.com")
	require.NoError(t, err)
	assert.False(t, blocked, "counter restarted after the window")
}

func TestLoginAttemptTracker_NotLocked(t *testing.T) {
	tracker := newTestTracker(newFakeClock())

	minutes, err := tracker.RemainingLockoutMinutes(context.Background(), "nobody@x.com")
	require.NoError(t, err)
	assert.Zero(t, minutes)
}

func TestLoginAttemptTracker_CacheFailure(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	kv := mock.NewMockCache(ctrl)
	tracker := NewLoginAttemptTracker(kv, testAuthConfig())
	boom := errors.New("connection refused")

	kv.EXPECT().IncrWithTTL(gomock.Any(), "login:attempts:a@x.com", 30*time.Minute).Return(int64(0), boom)
	kv.EXPECT().Get(gomock.Any(), "login:lockout:a@x.com").Return("", boom)

	err := tracker.RecordFailedAttempt(context.Background(), "A@x.com")
	assert.ErrorIs(t, err, boom)

	_, err = tracker.IsBlocked(context.Background(), "a@x.com")
	assert.ErrorIs(t, err, boom)
}
