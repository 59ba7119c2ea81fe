package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/MKhiriev/go-auth-gate/internal/logger"
)

// ErrorKind is the machine-checkable category of an [AuthError].
type ErrorKind string

const (
	KindInvalidCredentials       ErrorKind = "INVALID_CREDENTIALS"
	KindAccountLocked            ErrorKind = "ACCOUNT_LOCKED"
	KindAccountInactive          ErrorKind = "ACCOUNT_INACTIVE"
	KindEmailNotVerified         ErrorKind = "EMAIL_NOT_VERIFIED"
	KindEmailAlreadyExists       ErrorKind = "EMAIL_ALREADY_EXISTS"
	KindAccountSoftDeleted       ErrorKind = "ACCOUNT_SOFT_DELETED"
	KindInvalidTwoFactorSession  ErrorKind = "INVALID_2FA_SESSION"
	KindInvalidTwoFactorCode     ErrorKind = "INVALID_2FA_CODE"
	KindInvalidRefreshToken      ErrorKind = "INVALID_REFRESH_TOKEN"
	KindRateLimitExceeded        ErrorKind = "RATE_LIMIT_EXCEEDED"
	KindTwoFactorAlreadyEnabled  ErrorKind = "2FA_ALREADY_ENABLED"
	KindTwoFactorNotSetUp        ErrorKind = "2FA_NOT_SET_UP"
	KindInvalidSetupCode         ErrorKind = "INVALID_SETUP_CODE"
	KindTwoFactorSetupReplaced   ErrorKind = "2FA_SETUP_REPLACED"
	KindIncorrectPassword        ErrorKind = "INCORRECT_PASSWORD"
	KindTokenInvalid             ErrorKind = "TOKEN_INVALID"
	KindUserNotFound             ErrorKind = "USER_NOT_FOUND"
	KindInvalidVerificationToken ErrorKind = "INVALID_VERIFICATION_TOKEN"
	KindAlreadyVerified          ErrorKind = "ALREADY_VERIFIED"
	KindAccountAlreadyActive     ErrorKind = "ACCOUNT_ALREADY_ACTIVE"
	KindPasswordsSame            ErrorKind = "PASSWORDS_SAME"
	KindInvalidResetToken        ErrorKind = "INVALID_RESET_TOKEN"
	KindEmailUnchanged           ErrorKind = "EMAIL_UNCHANGED"
	KindInvalidEmailChangeToken  ErrorKind = "INVALID_EMAIL_CHANGE_TOKEN"
	KindInvalidInput             ErrorKind = "INVALID_INPUT"
	KindUnauthenticated          ErrorKind = "UNAUTHENTICATED"
	KindForbidden                ErrorKind = "FORBIDDEN"
)

// AuthError is an expected, typed outcome of an auth operation.
//
// Two AuthErrors match under [errors.Is] when their kinds are equal, so
// callers compare against the sentinels below regardless of the message.
type AuthError struct {
	Kind    ErrorKind
	Message string

	// RetryAfter is set for AccountLocked and RateLimitExceeded.
	RetryAfter time.Duration
}

func (e *AuthError) Error() string {
	return e.Message
}

func (e *AuthError) Is(target error) bool {
	t, ok := target.(*AuthError)
	return ok && t.Kind == e.Kind
}

var (
	ErrInvalidCredentials       = &AuthError{Kind: KindInvalidCredentials, Message: "Invalid email or password"}
	ErrAccountLocked            = &AuthError{Kind: KindAccountLocked, Message: "Account is temporarily locked"}
	ErrAccountInactive          = &AuthError{Kind: KindAccountInactive, Message: "Account is inactive"}
	ErrEmailNotVerified         = &AuthError{Kind: KindEmailNotVerified, Message: "Email is not verified"}
	ErrEmailAlreadyExists       = &AuthError{Kind: KindEmailAlreadyExists, Message: "Email is already registered"}
	ErrAccountSoftDeleted       = &AuthError{Kind: KindAccountSoftDeleted, Message: "An account with this email was deleted, activate it instead"}
	ErrInvalidTwoFactorSession  = &AuthError{Kind: KindInvalidTwoFactorSession, Message: "Two-factor session is invalid or expired"}
	ErrInvalidTwoFactorCode     = &AuthError{Kind: KindInvalidTwoFactorCode, Message: "Invalid two-factor code"}
	ErrInvalidRefreshToken      = &AuthError{Kind: KindInvalidRefreshToken, Message: "Invalid refresh token"}
	ErrRateLimitExceeded        = &AuthError{Kind: KindRateLimitExceeded, Message: "Too many requests"}
	ErrTwoFactorAlreadyEnabled  = &AuthError{Kind: KindTwoFactorAlreadyEnabled, Message: "Two-factor authentication is already enabled"}
	ErrTwoFactorNotSetUp        = &AuthError{Kind: KindTwoFactorNotSetUp, Message: "Two-factor authentication is not set up"}
	ErrInvalidSetupCode         = &AuthError{Kind: KindInvalidSetupCode, Message: "Invalid verification code"}
	ErrTwoFactorSetupReplaced   = &AuthError{Kind: KindTwoFactorSetupReplaced, Message: "Two-factor setup was restarted, scan the new QR code"}
	ErrIncorrectPassword        = &AuthError{Kind: KindIncorrectPassword, Message: "Incorrect password"}
	ErrTokenInvalid             = &AuthError{Kind: KindTokenInvalid, Message: "Token is invalid or expired"}
	ErrUserNotFound             = &AuthError{Kind: KindUserNotFound, Message: "User not found"}
	ErrInvalidVerificationToken = &AuthError{Kind: KindInvalidVerificationToken, Message: "Invalid verification token"}
	ErrAlreadyVerified          = &AuthError{Kind: KindAlreadyVerified, Message: "Email is already verified"}
	ErrAccountAlreadyActive     = &AuthError{Kind: KindAccountAlreadyActive, Message: "Account is already active"}
	ErrPasswordsSame            = &AuthError{Kind: KindPasswordsSame, Message: "New password must differ from the current one"}
	ErrInvalidResetToken        = &AuthError{Kind: KindInvalidResetToken, Message: "Invalid or expired password reset token"}
	ErrEmailUnchanged           = &AuthError{Kind: KindEmailUnchanged, Message: "New email must differ from the current one"}
	ErrInvalidEmailChangeToken  = &AuthError{Kind: KindInvalidEmailChangeToken, Message: "Invalid or expired email change token"}
	ErrSelfRoleChange           = &AuthError{Kind: KindForbidden, Message: "You cannot change your own role"}
	ErrSelfDeactivation         = &AuthError{Kind: KindForbidden, Message: "You cannot deactivate your own account"}
	ErrInvalidInput             = &AuthError{Kind: KindInvalidInput, Message: "Invalid input"}
	ErrUnauthenticated          = &AuthError{Kind: KindUnauthenticated, Message: "Authentication required"}
	ErrForbidden                = &AuthError{Kind: KindForbidden, Message: "Insufficient permissions"}
)

// ErrUnknownRateLimitClass is returned by [RateLimiter.TryConsume] for a
// class without a configured rule.
var ErrUnknownRateLimitClass = errors.New("unknown rate limit class")

func accountLocked(minutes int64) *AuthError {
	return &AuthError{
		Kind:       KindAccountLocked,
		Message:    fmt.Sprintf("Account is temporarily locked. Try again in %d minute(s)", minutes),
		RetryAfter: time.Duration(minutes) * time.Minute,
	}
}

// RateLimited builds a RateLimitExceeded error carrying the retry delay.
func RateLimited(retryAfter time.Duration) *AuthError {
	return &AuthError{
		Kind:       KindRateLimitExceeded,
		Message:    "Too many requests, please try again later",
		RetryAfter: retryAfter,
	}
}

// InvalidInput builds an InvalidInput error with a specific message.
func InvalidInput(message string) *AuthError {
	return &AuthError{Kind: KindInvalidInput, Message: message}
}

// KindOf returns the kind of the first AuthError in err's chain, or "" for
// unclassified failures.
func KindOf(err error) ErrorKind {
	var authErr *AuthError
	if errors.As(err, &authErr) {
		return authErr.Kind
	}
	return ""
}

// unexpected logs an unclassified lower-layer failure and wraps it. The
// transport turns anything without a kind into a generic internal error.
func unexpected(ctx context.Context, fn, msg string, err error) error {
	logger.FromContext(ctx).Err(err).Str("func", fn).Msg(msg)
	return fmt.Errorf("%s: %w", msg, err)
}
