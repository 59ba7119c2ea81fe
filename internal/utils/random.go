package utils

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"math/big"
	"strings"
)

// RandomToken returns n cryptographically random bytes encoded as
// unpadded base64url.
func RandomToken(n int) (string, error) {
	buf := make([]byte, n)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("error reading random bytes: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}

// NumericCodes returns count random decimal codes of exactly digits digits
// (leading zeros allowed).
func NumericCodes(count, digits int) ([]string, error) {
	codes := make([]string, 0, count)
	ten := big.NewInt(10)

	for range count {
		var sb strings.Builder
		sb.Grow(digits)
		for range digits {
			d, err := rand.Int(rand.Reader, ten)
			if err != nil {
				return nil, fmt.Errorf("error generating code digit: %w", err)
			}
			sb.WriteByte(byte('0' + d.Int64()))
		}
		codes = append(codes, sb.String())
	}

	return codes, nil
}
