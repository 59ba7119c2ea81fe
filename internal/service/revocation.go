package service

import (
	"context"
	"fmt"
	"time"

	"github.com/MKhiriev/go-auth-gate/internal/cache"
	"github.com/MKhiriev/go-auth-gate/internal/utils"
)

const revokedKeyPrefix = "token:revoked:"

// RevocationList holds fingerprints of access tokens that must be rejected
// before their natural expiry. Entries live exactly as long as the token.
type RevocationList struct {
	cache cache.Cache
}

func NewRevocationList(c cache.Cache) *RevocationList {
	return &RevocationList{cache: c}
}

func revokedKey(token string) string {
	return revokedKeyPrefix + utils.Fingerprint(token)
}

// Revoke adds token for remaining. A token with no lifetime left is not
// tracked. Revoking twice only resets the TTL to the same remaining value.
func (r *RevocationList) Revoke(ctx context.Context, token string, remaining time.Duration) error {
	if remaining <= 0 {
		return nil
	}
	if err := r.cache.Set(ctx, revokedKey(token), "1", remaining); err != nil {
		return fmt.Errorf("error revoking token: %w", err)
	}
	return nil
}

func (r *RevocationList) IsRevoked(ctx context.Context, token string) (bool, error) {
	ok, err := r.cache.Exists(ctx, revokedKey(token))
	if err != nil {
		return false, fmt.Errorf("error checking revocation list: %w", err)
	}
	return ok, nil
}
