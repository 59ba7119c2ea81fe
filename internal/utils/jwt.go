package utils

import (
	"errors"
	"fmt"

	"github.com/golang-jwt/jwt/v5"
)

// SignJWT signs claims with HMAC-SHA256 and returns the compact token.
//
// Example usage:
//
//	signed, err := utils.SignJWT(&claims, []byte("secret"))
func SignJWT(claims jwt.Claims, signKey []byte) (string, error) {
	if len(signKey) == 0 {
		return "", errors.New("empty JWT sign key")
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString(signKey)
	if err != nil {
		return "", fmt.Errorf("error occurred during singing JWT token: %w", err)
	}

	return tokenString, nil
}

// ParseJWT verifies tokenString with signKey and decodes it into claims.
//
// Only HS256 is accepted. Additional validation (issuer, audience,
// clock) is supplied through opts.
//
// Example usage:
//
//	var claims models.AccessClaims
//	err := utils.ParseJWT(raw, &claims, key, jwt.WithIssuer("go-auth-gate"))
func ParseJWT(tokenString string, claims jwt.Claims, signKey []byte, opts ...jwt.ParserOption) error {
	opts = append([]jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithIssuedAt(),
	}, opts...)

	_, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (any, error) {
		return signKey, nil
	}, opts...)
	if err != nil {
		return fmt.Errorf("error occurred validating and parsing token: %w", err)
	}

	return nil
}
