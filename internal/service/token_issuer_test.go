package service

import (
	"errors"
	"testing"
	"time"

	"github.com/MKhiriev/go-auth-gate/internal/utils"
	"github.com/MKhiriev/go-auth-gate/models"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestIssuer(clock *fakeClock) *TokenIssuer {
	issuer := NewTokenIssuer(testAuthConfig())
	issuer.now = clock.Now
	return issuer
}

func testUser() models.User {
	return models.User{
		UserID:       uuid.Must(uuid.NewV7()),
		Email:        "a@x.com",
		PlatformRole: models.RoleModerator,
	}
}

// ── MintAccessToken / VerifyAccessToken ──

func TestTokenIssuer_AccessRoundTrip(t *testing.T) {
	clock := newFakeClock()
	issuer := newTestIssuer(clock)
	user := testUser()

	tok, err := issuer.MintAccessToken(user)
	require.NoError(t, err)
	assert.Equal(t, clock.Now().Add(15*time.Minute), tok.ExpiresAt)

	claims, err := issuer.VerifyAccessToken(tok.SignedString)
	require.NoError(t, err)

	id, err := claims.GetUserID()
	require.NoError(t, err)
	assert.Equal(t, user.UserID, id)
	assert.Equal(t, "a@x.com", claims.Email)
	assert.Equal(t, models.RoleModerator, claims.Role)
	assert.Equal(t, "go-auth-gate", claims.Issuer)
	assert.ElementsMatch(t, []string{"web-app", "mobile-app"}, []string(claims.Audience))
	assert.NotEmpty(t, claims.ID)
	assert.Empty(t, claims.Purpose)
}

func TestTokenIssuer_AccessTokensHaveDistinctIDs(t *testing.T) {
	issuer := newTestIssuer(newFakeClock())
	user := testUser()

	a, err := issuer.MintAccessToken(user)
	require.NoError(t, err)
	b, err := issuer.MintAccessToken(user)
	require.NoError(t, err)

	assert.NotEqual(t, a.Claims.ID, b.Claims.ID)
	assert.NotEqual(t, a.SignedString, b.SignedString)
}

func TestTokenIssuer_VerifyAccessToken_Rejects(t *testing.T) {
	clock := newFakeClock()
	issuer := newTestIssuer(clock)
	user := testUser()

	valid, err := issuer.MintAccessToken(user)
	require.NoError(t, err)

	pending, err := issuer.MintPendingTwoFactorToken(user)
	require.NoError(t, err)

	otherIssuer := newTestIssuer(clock)
	otherIssuer.issuer = "someone-else"
	foreign, err := otherIssuer.MintAccessToken(user)
	require.NoError(t, err)

	otherKey := newTestIssuer(clock)
	otherKey.signKey = []byte("another-secret-another-secret-123")
	forged, err := otherKey.MintAccessToken(user)
	require.NoError(t, err)

	tests := []struct {
		name  string
		token string
	}{
		{name: "pending 2FA token", token: pending},
		{name: "wrong issuer", token: foreign.SignedString},
		{name: "wrong key", token: forged.SignedString},
		{name: "garbage", token: "not.a.token"},
		{name: "empty", token: ""},
		{name: "tampered signature", token: valid.SignedString + "a"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := issuer.VerifyAccessToken(tt.token)
			assert.True(t, errors.Is(err, ErrTokenInvalid))
		})
	}
}

func TestTokenIssuer_VerifyAccessToken_Expired(t *testing.T) {
	clock := newFakeClock()
	issuer := newTestIssuer(clock)

	tok, err := issuer.MintAccessToken(testUser())
	require.NoError(t, err)

	clock.Advance(16 * time.Minute)

	_, err = issuer.VerifyAccessToken(tok.SignedString)
	assert.ErrorIs(t, err, ErrTokenInvalid)
}

func TestTokenIssuer_VerifyAccessToken_UnknownRole(t *testing.T) {
	clock := newFakeClock()
	issuer := newTestIssuer(clock)

	claims := models.AccessClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    issuer.issuer,
			Subject:   uuid.NewString(),
			Audience:  issuer.audience,
			IssuedAt:  jwt.NewNumericDate(clock.Now()),
			ExpiresAt: jwt.NewNumericDate(clock.Now().Add(time.Minute)),
		},
		Role: "SUPERUSER",
	}
	signed, err := utils.SignJWT(claims, issuer.signKey)
	require.NoError(t, err)

	_, err = issuer.VerifyAccessToken(signed)
	assert.ErrorIs(t, err, ErrTokenInvalid)
}

// ── pending 2FA tokens ──

func TestTokenIssuer_PendingRoundTrip(t *testing.T) {
	issuer := newTestIssuer(newFakeClock())
	user := testUser()

	pending, err := issuer.MintPendingTwoFactorToken(user)
	require.NoError(t, err)

	id, ok := issuer.VerifyPendingTwoFactorToken(pending)
	require.True(t, ok)
	assert.Equal(t, user.UserID, id)
}

func TestTokenIssuer_PendingTokenDisclosesNoRole(t *testing.T) {
	issuer := newTestIssuer(newFakeClock())

	pending, err := issuer.MintPendingTwoFactorToken(testUser())
	require.NoError(t, err)

	var claims models.AccessClaims
	require.NoError(t, utils.ParseJWT(pending, &claims, issuer.signKey, jwt.WithTimeFunc(issuer.now)))
	assert.Empty(t, claims.Email)
	assert.Empty(t, claims.Role)
	assert.Equal(t, models.TwoFactorPurpose, claims.Purpose)
}

func TestTokenIssuer_PendingRejectsAccessToken(t *testing.T) {
	issuer := newTestIssuer(newFakeClock())

	access, err := issuer.MintAccessToken(testUser())
	require.NoError(t, err)

	_, ok := issuer.VerifyPendingTwoFactorToken(access.SignedString)
	assert.False(t, ok)
}

func TestTokenIssuer_PendingRejectsOtherPurpose(t *testing.T) {
	clock := newFakeClock()
	issuer := newTestIssuer(clock)

	claims := models.PendingTwoFactorClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    issuer.issuer,
			Subject:   uuid.NewString(),
			IssuedAt:  jwt.NewNumericDate(clock.Now()),
			ExpiresAt: jwt.NewNumericDate(clock.Now().Add(time.Minute)),
		},
		Purpose: "password-reset",
	}
	signed, err := utils.SignJWT(claims, issuer.signKey)
	require.NoError(t, err)

	_, ok := issuer.VerifyPendingTwoFactorToken(signed)
	assert.False(t, ok)
}

func TestTokenIssuer_PendingExpiresAfterFiveMinutes(t *testing.T) {
	clock := newFakeClock()
	issuer := newTestIssuer(clock)

	pending, err := issuer.MintPendingTwoFactorToken(testUser())
	require.NoError(t, err)

	clock.Advance(5*time.Minute + time.Second)

	_, ok := issuer.VerifyPendingTwoFactorToken(pending)
	assert.False(t, ok)
}

// ── ExtractExpiry ──

func TestTokenIssuer_ExtractExpiry(t *testing.T) {
	clock := newFakeClock()
	issuer := newTestIssuer(clock)

	tok, err := issuer.MintAccessToken(testUser())
	require.NoError(t, err)

	exp, err := issuer.ExtractExpiry(tok.SignedString)
	require.NoError(t, err)
	assert.WithinDuration(t, tok.ExpiresAt, exp, 0)

	// still readable once expired
	clock.Advance(time.Hour)
	exp, err = issuer.ExtractExpiry(tok.SignedString)
	require.NoError(t, err)
	assert.WithinDuration(t, tok.ExpiresAt, exp, 0)
}

func TestTokenIssuer_ExtractExpiry_WrongKey(t *testing.T) {
	clock := newFakeClock()
	issuer := newTestIssuer(clock)
	other := newTestIssuer(clock)
	other.signKey = []byte("another-secret-another-secret-123")

	tok, err := other.MintAccessToken(testUser())
	require.NoError(t, err)

	_, err = issuer.ExtractExpiry(tok.SignedString)
	assert.ErrorIs(t, err, ErrTokenInvalid)
}
