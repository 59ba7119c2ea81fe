// Package utils provides general-purpose helper utilities
// used across different parts of the service.
// Includes tools for working with context, type-safe keys, token
// fingerprints, random secrets, HTTP response writing, HTTP client
// initialization and JWT signing and parsing.
package utils

import (
	"context"

	"github.com/MKhiriev/go-auth-gate/models"
	"github.com/google/uuid"
)

// contextKey is a private type for context keys.
// Using a dedicated type instead of a plain string prevents key collisions
// with other packages that may use string-based keys in the context.
type contextKey string

// String returns the string representation of the context key.
// Implements the fmt.Stringer interface.
func (c contextKey) String() string {
	return string(c)
}

var (
	// UserIDCtxKey holds the authenticated user's uuid.UUID.
	UserIDCtxKey = contextKey("userID")

	// RoleCtxKey holds the authenticated user's models.PlatformRole.
	RoleCtxKey = contextKey("platformRole")

	// AccessTokenCtxKey holds the raw bearer token of the request.
	AccessTokenCtxKey = contextKey("accessToken")

	// ClientIPCtxKey holds the resolved client IP address.
	ClientIPCtxKey = contextKey("clientIP")
)

// WithUser stores the authenticated identity in ctx.
func WithUser(ctx context.Context, userID uuid.UUID, role models.PlatformRole, accessToken string) context.Context {
	ctx = context.WithValue(ctx, UserIDCtxKey, userID)
	ctx = context.WithValue(ctx, RoleCtxKey, role)
	return context.WithValue(ctx, AccessTokenCtxKey, accessToken)
}

// GetUserIDFromContext retrieves the user identifier from the context.
//
// Returns the user ID and an ok flag:
//   - ok == true: value is found and has the correct uuid.UUID type
//   - ok == false: value is missing or has an unexpected type
func GetUserIDFromContext(ctx context.Context) (uuid.UUID, bool) {
	userID, ok := ctx.Value(UserIDCtxKey).(uuid.UUID)
	return userID, ok
}

// GetRoleFromContext retrieves the authenticated user's role.
func GetRoleFromContext(ctx context.Context) (models.PlatformRole, bool) {
	role, ok := ctx.Value(RoleCtxKey).(models.PlatformRole)
	return role, ok
}

// GetAccessTokenFromContext retrieves the raw bearer token of the request.
func GetAccessTokenFromContext(ctx context.Context) (string, bool) {
	token, ok := ctx.Value(AccessTokenCtxKey).(string)
	return token, ok
}

// WithClientIP stores the resolved client IP in ctx.
func WithClientIP(ctx context.Context, ip string) context.Context {
	return context.WithValue(ctx, ClientIPCtxKey, ip)
}

// ClientIPFromContext returns the client IP stored by WithClientIP,
// or an empty string.
func ClientIPFromContext(ctx context.Context) string {
	ip, _ := ctx.Value(ClientIPCtxKey).(string)
	return ip
}
