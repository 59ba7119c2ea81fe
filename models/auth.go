package models

// BearerTokenType is the token type reported in successful login responses.
const BearerTokenType = "Bearer"

// AuthResult is the outcome of a login, 2FA login or refresh.
//
// Either the token bundle (AccessToken, RefreshToken, TokenType, ExpiresAt)
// is populated, or Requires2FA is true and TempToken carries the pending
// second-factor ticket.
type AuthResult struct {
	AccessToken  string `json:"accessToken,omitempty"`
	RefreshToken string `json:"refreshToken,omitempty"`
	TokenType    string `json:"tokenType,omitempty"`

	// ExpiresAt is the access token expiry in epoch milliseconds.
	ExpiresAt int64 `json:"expiresAt,omitempty"`

	Requires2FA bool   `json:"requires2FA,omitempty"`
	TempToken   string `json:"tempToken,omitempty"`
}

// NewTokenBundle builds a full AuthResult for an authenticated user.
func NewTokenBundle(access Token, refreshToken string) AuthResult {
	return AuthResult{
		AccessToken:  access.SignedString,
		RefreshToken: refreshToken,
		TokenType:    BearerTokenType,
		ExpiresAt:    access.ExpiresAt.UnixMilli(),
	}
}

// NewTwoFactorChallenge builds an AuthResult asking the client to complete 2FA.
func NewTwoFactorChallenge(tempToken string) AuthResult {
	return AuthResult{
		Requires2FA: true,
		TempToken:   tempToken,
	}
}
