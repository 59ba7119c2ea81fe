package store

import (
	"context"

	"github.com/MKhiriev/go-auth-gate/models"
	"github.com/google/uuid"
)

//go:generate mockgen -source=interfaces.go -destination=../mock/store_mock.go -package=mock

// UserRepository is the durable credential store.
type UserRepository interface {
	// FindActiveByEmail returns only active, non-deleted accounts.
	FindActiveByEmail(ctx context.Context, email string) (models.User, error)
	// FindAnyByEmail includes soft-deleted and inactive accounts.
	FindAnyByEmail(ctx context.Context, email string) (models.User, error)
	FindByID(ctx context.Context, userID uuid.UUID) (models.User, error)
	// FindAnyByID includes soft-deleted and inactive accounts.
	FindAnyByID(ctx context.Context, userID uuid.UUID) (models.User, error)
	FindByVerificationToken(ctx context.Context, token string) (models.User, error)
	Create(ctx context.Context, user models.User) (models.User, error)
	Update(ctx context.Context, user models.User) error
	SoftDelete(ctx context.Context, userID uuid.UUID) error
}

// TwoFactorRepository stores at most one TOTP record per user.
type TwoFactorRepository interface {
	FindByUserID(ctx context.Context, userID uuid.UUID) (models.TwoFactorSecret, error)
	// Upsert replaces any existing record wholesale.
	Upsert(ctx context.Context, secret models.TwoFactorSecret) error
	// Update writes only if the stored secret still equals secret.SecretKey;
	// otherwise it reports [ErrTwoFactorNotFound].
	Update(ctx context.Context, secret models.TwoFactorSecret) error
	// ConsumeBackupCode swaps the backup code list only if it still equals
	// previous, returning [ErrBackupCodeConflict] otherwise.
	ConsumeBackupCode(ctx context.Context, userID uuid.UUID, previous, updated []string) error
	DeleteByUserID(ctx context.Context, userID uuid.UUID) error
}

// SessionRepository stores refresh sessions.
type SessionRepository interface {
	Create(ctx context.Context, session models.RefreshSession) (models.RefreshSession, error)
	FindByToken(ctx context.Context, token string) (models.RefreshSession, error)
	DeleteByToken(ctx context.Context, token string) error
	DeleteAllByUserID(ctx context.Context, userID uuid.UUID) (int64, error)
	DeleteExpired(ctx context.Context) (int64, error)
}

type AuditRepository interface {
	Create(ctx context.Context, event models.AuditEvent) error
}
