package service

import (
	"errors"
	"fmt"
	"time"

	"github.com/MKhiriev/go-auth-gate/internal/config"
	"github.com/MKhiriev/go-auth-gate/internal/utils"
	"github.com/MKhiriev/go-auth-gate/models"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// TokenIssuer mints and verifies HS256 access tokens and pending 2FA tokens.
// It holds no state besides its configuration.
type TokenIssuer struct {
	signKey    []byte
	issuer     string
	audience   []string
	accessTTL  time.Duration
	pendingTTL time.Duration
	ids        *utils.UUIDGenerator
	now        func() time.Time
}

func NewTokenIssuer(cfg config.Auth) *TokenIssuer {
	return &TokenIssuer{
		signKey:    []byte(cfg.TokenSignKey),
		issuer:     cfg.TokenIssuer,
		audience:   cfg.TokenAudience,
		accessTTL:  cfg.AccessTokenTTL,
		pendingTTL: cfg.PendingTokenTTL,
		ids:        utils.NewUUIDGenerator(),
		now:        time.Now,
	}
}

// MintAccessToken issues an access token for user. The returned
// ExpiresAt is what clients receive as expiresAt (epoch ms).
func (t *TokenIssuer) MintAccessToken(user models.User) (models.Token, error) {
	now := t.now()
	expiresAt := now.Add(t.accessTTL)

	claims := models.AccessClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    t.issuer,
			Subject:   user.UserID.String(),
			Audience:  t.audience,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			ID:        t.ids.Generate().String(),
		},
		Email: user.Email,
		Role:  user.PlatformRole,
	}

	signed, err := utils.SignJWT(claims, t.signKey)
	if err != nil {
		return models.Token{}, fmt.Errorf("error minting access token: %w", err)
	}

	// jwt.NumericDate truncates to seconds
	return models.Token{
		SignedString: signed,
		ExpiresAt:    claims.ExpiresAt.Time,
		Claims:       claims,
	}, nil
}

// MintPendingTwoFactorToken issues the short-lived ticket proving that the
// password step succeeded. It discloses nothing but the subject.
func (t *TokenIssuer) MintPendingTwoFactorToken(user models.User) (string, error) {
	now := t.now()

	claims := models.PendingTwoFactorClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    t.issuer,
			Subject:   user.UserID.String(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(t.pendingTTL)),
		},
		Purpose: models.TwoFactorPurpose,
	}

	signed, err := utils.SignJWT(claims, t.signKey)
	if err != nil {
		return "", fmt.Errorf("error minting pending 2FA token: %w", err)
	}

	return signed, nil
}

func (t *TokenIssuer) parserOptions() []jwt.ParserOption {
	return []jwt.ParserOption{
		jwt.WithIssuer(t.issuer),
		jwt.WithTimeFunc(t.now),
	}
}

// VerifyAccessToken validates signature, issuer, audience and expiry.
// Any signed artifact carrying a purpose claim is rejected.
func (t *TokenIssuer) VerifyAccessToken(token string) (models.AccessClaims, error) {
	var claims models.AccessClaims

	opts := t.parserOptions()
	if len(t.audience) > 0 {
		opts = append(opts, jwt.WithAudience(t.audience...))
	}

	if err := utils.ParseJWT(token, &claims, t.signKey, opts...); err != nil {
		return models.AccessClaims{}, ErrTokenInvalid
	}
	if claims.Purpose != "" {
		return models.AccessClaims{}, ErrTokenInvalid
	}
	if _, err := claims.GetUserID(); err != nil {
		return models.AccessClaims{}, ErrTokenInvalid
	}
	if _, err := models.ParsePlatformRole(string(claims.Role)); err != nil {
		return models.AccessClaims{}, ErrTokenInvalid
	}

	return claims, nil
}

// VerifyPendingTwoFactorToken returns the subject of a valid pending token.
// A validly signed token whose purpose is not "2fa" yields ok == false.
func (t *TokenIssuer) VerifyPendingTwoFactorToken(token string) (uuid.UUID, bool) {
	var claims models.PendingTwoFactorClaims

	if err := utils.ParseJWT(token, &claims, t.signKey, t.parserOptions()...); err != nil {
		return uuid.Nil, false
	}
	if claims.Purpose != models.TwoFactorPurpose {
		return uuid.Nil, false
	}

	userID, err := uuid.Parse(claims.Subject)
	if err != nil {
		return uuid.Nil, false
	}

	return userID, true
}

// ExtractExpiry returns the exp claim of a token signed by us, even if the
// token has already expired.
func (t *TokenIssuer) ExtractExpiry(token string) (time.Time, error) {
	var claims jwt.RegisteredClaims

	if err := utils.ParseJWT(token, &claims, t.signKey, jwt.WithoutClaimsValidation()); err != nil {
		return time.Time{}, ErrTokenInvalid
	}
	if claims.ExpiresAt == nil {
		return time.Time{}, errors.Join(ErrTokenInvalid, errors.New("token has no exp claim"))
	}

	return claims.ExpiresAt.Time, nil
}
