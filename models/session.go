package models

import (
	"time"

	"github.com/google/uuid"
)

// RefreshSession is a durable record backing one issued refresh token.
// Its existence is necessary and sufficient to mint a new access token.
type RefreshSession struct {
	ID        int64
	Token     string
	UserID    uuid.UUID
	CreatedAt time.Time
	ExpiresAt time.Time
}

// Expired reports whether the session is past its expiry at the given instant.
func (s RefreshSession) Expired(now time.Time) bool {
	return !now.Before(s.ExpiresAt)
}

// TableName returns the name of the database table
// associated with the RefreshSession model.
func (s RefreshSession) TableName() string {
	return "refresh_sessions"
}
