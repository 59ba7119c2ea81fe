package models

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// PlatformRole is the closed set of roles a user account can hold.
type PlatformRole string

const (
	RoleUser      PlatformRole = "USER"
	RoleModerator PlatformRole = "MODERATOR"
	RoleAdmin     PlatformRole = "ADMIN"
)

// ParsePlatformRole converts a stored or transmitted role name into a
// [PlatformRole]. Unknown names are rejected.
func ParsePlatformRole(s string) (PlatformRole, error) {
	switch PlatformRole(s) {
	case RoleUser:
		return RoleUser, nil
	case RoleModerator:
		return RoleModerator, nil
	case RoleAdmin:
		return RoleAdmin, nil
	default:
		return "", fmt.Errorf("unknown platform role %q", s)
	}
}

// level returns the position of the role in the privilege order.
func (r PlatformRole) level() int {
	switch r {
	case RoleUser:
		return 1
	case RoleModerator:
		return 2
	case RoleAdmin:
		return 3
	default:
		return 0
	}
}

// AtLeast reports whether r grants at least the privileges of min.
// An unknown role never satisfies any requirement.
func (r PlatformRole) AtLeast(min PlatformRole) bool {
	return r.level() > 0 && r.level() >= min.level()
}

// User represents an account entity used for authentication and authorization.
// It contains identity attributes and credential-related data.
// Sensitive fields must never be exposed outside trusted boundaries.
type User struct {
	// UserID is the stable unique identifier of the user (UUIDv7).
	UserID uuid.UUID `json:"id"`

	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`

	// Email is stored lower-cased; lookups are case-insensitive.
	Email string `json:"email"`

	// PasswordHash is the bcrypt hash of the user's password.
	// It is never serialized.
	PasswordHash string `json:"-"`

	PlatformRole PlatformRole `json:"platformRole"`

	// IsActive is false for soft-deleted and deactivated accounts.
	IsActive bool `json:"isActive"`

	// IsVerified becomes true once the email verification link was followed.
	IsVerified bool `json:"isVerified"`

	// VerificationToken is the pending email verification token, nil once verified.
	VerificationToken *string `json:"-"`

	VerifiedAt *time.Time `json:"verifiedAt,omitempty"`

	// DeletedAt is set on soft delete. A soft-deleted row is kept but
	// excluded from the default (active only) lookups.
	DeletedAt *time.Time `json:"-"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// IsDeleted reports whether the account was soft-deleted.
func (u User) IsDeleted() bool {
	return u.DeletedAt != nil
}

// TableName returns the name of the database table
// associated with the User model.
func (u User) TableName() string {
	return "users"
}
