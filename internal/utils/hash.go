package utils

import (
	"crypto/sha256"
	"encoding/hex"
)

// Fingerprint returns the hex-encoded SHA-256 digest of a token.
// It is used as a cache key so raw tokens are never stored.
//
// Example usage:
//
//	key := "token:revoked:" + utils.Fingerprint(accessToken)
func Fingerprint(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}
