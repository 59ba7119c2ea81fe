package models

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// TwoFactorPurpose is the purpose claim value carried by pending 2FA tokens.
const TwoFactorPurpose = "2fa"

// AccessClaims is the claim set of an access token.
//
// It embeds [jwt.RegisteredClaims] for the standard claims
// (iss, sub, aud, iat, exp, jti) and adds the user's email and role.
// Purpose is only ever set on pending 2FA tokens; an access token carrying
// it must be rejected.
type AccessClaims struct {
	jwt.RegisteredClaims

	Email   string       `json:"email,omitempty"`
	Role    PlatformRole `json:"role,omitempty"`
	Purpose string       `json:"purpose,omitempty"`
}

// GetUserID parses the "sub" claim as a user identifier.
func (c AccessClaims) GetUserID() (uuid.UUID, error) {
	sub, err := c.GetSubject()
	if err != nil {
		return uuid.Nil, fmt.Errorf("error extracting UserID from token: %w", err)
	}

	userID, err := uuid.Parse(sub)
	if err != nil {
		return uuid.Nil, fmt.Errorf("error converting UserID from token to uuid: %w", err)
	}

	return userID, nil
}

// PendingTwoFactorClaims is the minimal claim set of a pending 2FA token:
// it only proves that the password step has already succeeded.
type PendingTwoFactorClaims struct {
	jwt.RegisteredClaims

	Purpose string `json:"purpose"`
}

// Token is a signed access token together with its expiry.
type Token struct {
	// SignedString is the compact JWS representation of the token
	// (base64url-encoded header.payload.signature).
	SignedString string

	ExpiresAt time.Time

	Claims AccessClaims
}

// String returns the compact JWS serialization of the token.
// It implements the [fmt.Stringer] interface.
func (t Token) String() string {
	return t.SignedString
}
