package service

import (
	"context"

	"github.com/MKhiriev/go-auth-gate/models"
	"github.com/google/uuid"
)

//go:generate mockgen -source=interfaces.go -destination=../mock/service_mock.go -package=mock

// AuthService coordinates the anonymous side of the account lifecycle:
// registration, login with or without a second factor, session refresh and
// logout, email verification, password reset and reactivation.
type AuthService interface {
	Register(ctx context.Context, req models.RegisterRequest) (models.User, error)
	VerifyEmail(ctx context.Context, token string) error
	ResendVerification(ctx context.Context, email, password string) error

	Login(ctx context.Context, email, password string) (models.AuthResult, error)
	LoginWithTwoFactor(ctx context.Context, pendingToken, code string) (models.AuthResult, error)
	Refresh(ctx context.Context, refreshToken string) (models.AuthResult, error)
	Logout(ctx context.Context, refreshToken, accessToken string) error
	LogoutAllDevices(ctx context.Context, userID uuid.UUID) error

	RequestPasswordReset(ctx context.Context, email string) error
	PerformPasswordReset(ctx context.Context, token, newPassword string) error
	Activate(ctx context.Context, email, password string) error

	// Authenticate resolves a bearer access token into its claims, rejecting
	// revoked tokens.
	Authenticate(ctx context.Context, accessToken string) (models.AccessClaims, error)
}

// UserService serves the authenticated caller's own account.
type UserService interface {
	Me(ctx context.Context, userID uuid.UUID) (models.User, error)
	UpdateProfile(ctx context.Context, userID uuid.UUID, req models.UpdateProfileRequest) (models.User, error)
	ChangePassword(ctx context.Context, userID uuid.UUID, oldPassword, newPassword string) error
	DeleteMe(ctx context.Context, userID uuid.UUID) error

	// RequestEmailChange re-checks the password and mails a confirmation
	// token to newEmail. The address changes only on ConfirmEmailChange.
	RequestEmailChange(ctx context.Context, userID uuid.UUID, currentPassword, newEmail string) error
	ConfirmEmailChange(ctx context.Context, token string) error
}

// AdminService lets administrators manage other accounts. actorID is the
// calling administrator.
type AdminService interface {
	UpdateUserStatus(ctx context.Context, actorID, userID uuid.UUID, active bool) (models.User, error)
	UpdateUserRole(ctx context.Context, actorID, userID uuid.UUID, role models.PlatformRole) (models.User, error)
}

type TwoFactorService interface {
	BeginSetup(ctx context.Context, userID uuid.UUID) (models.TwoFactorSetup, error)
	ConfirmSetup(ctx context.Context, userID uuid.UUID, code string) error
	VerifyAtLogin(ctx context.Context, userID uuid.UUID, code string) (bool, error)
	IsEnabled(ctx context.Context, userID uuid.UUID) (bool, error)
	Status(ctx context.Context, userID uuid.UUID) (models.TwoFactorStatus, error)
	Disable(ctx context.Context, userID uuid.UUID, password string) error
}

// Auditor records auth outcomes out of band.
type Auditor interface {
	Record(ctx context.Context, userID *uuid.UUID, action, details string)
	RecordOutcome(ctx context.Context, userID *uuid.UUID, action string, err error)
	Wait()
}

// Notifier queues outbound emails without failing the caller.
type Notifier interface {
	SendVerification(ctx context.Context, user models.User, token string)
	SendPasswordReset(ctx context.Context, user models.User, token string)
	SendEmailChangeNotice(ctx context.Context, user models.User, newEmail string)
	SendEmailChangeVerification(ctx context.Context, user models.User, newEmail, token string)
	Wait()
}

// Mailer is the outbound email hand-off implemented by the adapter package.
type Mailer interface {
	Send(ctx context.Context, msg models.EmailMessage) error
}

type AppInfoService interface {
	GetAppVersion(ctx context.Context) string
	GetBuildInfo(ctx context.Context) models.AppBuildInfo
}
