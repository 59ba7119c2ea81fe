package service

import (
	"context"
	"errors"
	"time"

	"github.com/MKhiriev/go-auth-gate/internal/cache"
	"github.com/MKhiriev/go-auth-gate/internal/config"
	"github.com/MKhiriev/go-auth-gate/internal/logger"
	"github.com/MKhiriev/go-auth-gate/internal/store"
	"github.com/MKhiriev/go-auth-gate/internal/utils"
	"github.com/MKhiriev/go-auth-gate/models"
	"github.com/google/uuid"
)

const (
	passwordResetKeyPrefix = "password:reset:"

	// refreshTokenBytes and oneTimeTokenBytes are sizes of random tokens
	// before base64url encoding.
	refreshTokenBytes = 32
	oneTimeTokenBytes = 32
)

// Dependencies groups the collaborators shared by the account services.
type Dependencies struct {
	Users     store.UserRepository
	Sessions  store.SessionRepository
	Cache     cache.Cache
	TwoFactor TwoFactorService

	Attempts    *LoginAttemptTracker
	Revocations *RevocationList
	Limiter     *RateLimiter
	Tokens      *TokenIssuer
	Hasher      *PasswordHasher

	Auditor  Auditor
	Notifier Notifier
}

// authService is the concrete implementation of AuthService.
//
// Every public method records its outcome through the Auditor with the
// resolved actor, if any. Expected failures are *AuthError values; anything
// else is an unclassified fault already logged here.
type authService struct {
	Dependencies

	refreshTTL time.Duration
	resetTTL   time.Duration

	ids *utils.UUIDGenerator
	now func() time.Time
}

// NewAuthService constructs the coordinator. The returned service is safe for
// concurrent use; all state lives in the stores and the cache.
func NewAuthService(deps Dependencies, cfg config.Auth) AuthService {
	return &authService{
		Dependencies: deps,
		refreshTTL:   cfg.RefreshTokenTTL,
		resetTTL:     cfg.PasswordResetTTL,
		ids:          utils.NewUUIDGenerator(),
		now:          time.Now,
	}
}

func actorOf(user models.User) *uuid.UUID {
	if user.UserID == uuid.Nil {
		return nil
	}
	id := user.UserID
	return &id
}

// Register creates an active but unverified account and queues the
// verification email. Existing accounts, including soft-deleted ones,
// produce distinct conflicts.
func (a *authService) Register(ctx context.Context, req models.RegisterRequest) (user models.User, err error) {
	defer func() { a.Auditor.RecordOutcome(ctx, actorOf(user), models.AuditRegister, err) }()

	email := normalizeEmail(req.Email)

	existing, err := a.Users.FindAnyByEmail(ctx, email)
	switch {
	case err == nil && existing.IsDeleted():
		return models.User{}, ErrAccountSoftDeleted
	case err == nil:
		return models.User{}, ErrEmailAlreadyExists
	case !errors.Is(err, store.ErrUserNotFound):
		return models.User{}, unexpected(ctx, "authService.Register", "error looking up email", err)
	}

	hash, err := a.Hasher.Hash(req.Password)
	if err != nil {
		return models.User{}, unexpected(ctx, "authService.Register", "error hashing password", err)
	}

	token, err := utils.RandomToken(oneTimeTokenBytes)
	if err != nil {
		return models.User{}, unexpected(ctx, "authService.Register", "error generating verification token", err)
	}

	created, err := a.Users.Create(ctx, models.User{
		UserID:            a.ids.Generate(),
		FirstName:         req.FirstName,
		LastName:          req.LastName,
		Email:             email,
		PasswordHash:      hash,
		PlatformRole:      models.RoleUser,
		IsActive:          true,
		IsVerified:        false,
		VerificationToken: &token,
	})
	if errors.Is(err, store.ErrEmailAlreadyExists) {
		return models.User{}, ErrEmailAlreadyExists
	}
	if err != nil {
		return models.User{}, unexpected(ctx, "authService.Register", "error creating user", err)
	}

	a.Notifier.SendVerification(ctx, created, token)

	return created, nil
}

// VerifyEmail marks the owner of token as verified and clears the token.
func (a *authService) VerifyEmail(ctx context.Context, token string) (err error) {
	var user models.User
	defer func() { a.Auditor.RecordOutcome(ctx, actorOf(user), models.AuditVerifyEmail, err) }()

	user, err = a.Users.FindByVerificationToken(ctx, token)
	if errors.Is(err, store.ErrUserNotFound) {
		return ErrInvalidVerificationToken
	}
	if err != nil {
		return unexpected(ctx, "authService.VerifyEmail", "error looking up verification token", err)
	}
	if user.IsVerified {
		return ErrAlreadyVerified
	}

	now := a.now()
	user.IsVerified = true
	user.VerifiedAt = &now
	user.VerificationToken = nil

	if err = a.Users.Update(ctx, user); err != nil {
		return unexpected(ctx, "authService.VerifyEmail", "error updating user", err)
	}

	return nil
}

// ResendVerification re-checks the credentials, issues a new verification
// token and queues another email.
func (a *authService) ResendVerification(ctx context.Context, email, password string) (err error) {
	var user models.User
	defer func() { a.Auditor.RecordOutcome(ctx, actorOf(user), models.AuditResendVerification, err) }()

	if err = a.consume(ctx, normalizeEmail(email), models.RateLimitVerificationResend); err != nil {
		return err
	}

	user, err = a.checkCredentials(ctx, email, password)
	if err != nil {
		return err
	}
	if user.IsVerified {
		return ErrAlreadyVerified
	}

	token, err := utils.RandomToken(oneTimeTokenBytes)
	if err != nil {
		return unexpected(ctx, "authService.ResendVerification", "error generating verification token", err)
	}

	user.VerificationToken = &token
	if err = a.Users.Update(ctx, user); err != nil {
		return unexpected(ctx, "authService.ResendVerification", "error updating user", err)
	}

	a.Notifier.SendVerification(ctx, user, token)

	return nil
}

// checkCredentials looks up any account by email, soft-deleted included,
// and compares the password. Unknown emails and wrong passwords are
// indistinguishable to the caller.
func (a *authService) checkCredentials(ctx context.Context, email, password string) (models.User, error) {
	user, err := a.Users.FindAnyByEmail(ctx, email)
	if errors.Is(err, store.ErrUserNotFound) {
		a.Hasher.Burn(password)
		return models.User{}, ErrInvalidCredentials
	}
	if err != nil {
		return models.User{}, unexpected(ctx, "authService.checkCredentials", "error looking up user", err)
	}

	if !a.Hasher.Matches(user.PasswordHash, password) {
		return user, ErrInvalidCredentials
	}

	return user, nil
}

// consume takes one token from the bucket of identity in class.
func (a *authService) consume(ctx context.Context, identity string, class models.RateLimitClass) error {
	decision, err := a.Limiter.TryConsume(ctx, identity, class)
	if err != nil {
		return unexpected(ctx, "authService.consume", "error consuming rate limit", err)
	}
	if !decision.Allowed {
		return RateLimited(retryAfter(decision))
	}
	return nil
}

func retryAfter(decision models.RateLimitDecision) time.Duration {
	return time.Duration(decision.RetryAfterSeconds()) * time.Second
}

// Login runs the password step. Locked emails are rejected before any
// lookup. A user with 2FA enabled gets a pending token instead of a session
// and keeps the failed attempt state until the second step succeeds.
func (a *authService) Login(ctx context.Context, email, password string) (result models.AuthResult, err error) {
	var user models.User
	defer func() { a.Auditor.RecordOutcome(ctx, actorOf(user), models.AuditLogin, err) }()

	if err = a.rejectLocked(ctx, email); err != nil {
		return models.AuthResult{}, err
	}

	user, err = a.checkCredentials(ctx, email, password)
	if errors.Is(err, ErrInvalidCredentials) {
		return models.AuthResult{}, a.recordFailure(ctx, email)
	}
	if err != nil {
		return models.AuthResult{}, err
	}

	if !user.IsActive || user.IsDeleted() {
		return models.AuthResult{}, ErrAccountInactive
	}
	if !user.IsVerified {
		return models.AuthResult{}, ErrEmailNotVerified
	}

	enabled, err := a.TwoFactor.IsEnabled(ctx, user.UserID)
	if err != nil {
		return models.AuthResult{}, unexpected(ctx, "authService.Login", "error checking 2FA state", err)
	}
	if enabled {
		pending, err := a.Tokens.MintPendingTwoFactorToken(user)
		if err != nil {
			return models.AuthResult{}, unexpected(ctx, "authService.Login", "error minting pending token", err)
		}
		return models.NewTwoFactorChallenge(pending), nil
	}

	return a.completeLogin(ctx, user)
}

func (a *authService) rejectLocked(ctx context.Context, email string) error {
	blocked, err := a.Attempts.IsBlocked(ctx, email)
	if err != nil {
		return unexpected(ctx, "authService.rejectLocked", "error checking lockout", err)
	}
	if !blocked {
		return nil
	}

	minutes, err := a.Attempts.RemainingLockoutMinutes(ctx, email)
	if err != nil {
		return unexpected(ctx, "authService.rejectLocked", "error reading lockout", err)
	}

	return accountLocked(minutes)
}

// recordFailure counts a failed password step and returns the uniform
// credentials error.
func (a *authService) recordFailure(ctx context.Context, email string) error {
	if err := a.Attempts.RecordFailedAttempt(ctx, email); err != nil {
		return unexpected(ctx, "authService.recordFailure", "error recording failed attempt", err)
	}
	return ErrInvalidCredentials
}

// completeLogin clears attempt state and opens a new refresh session.
func (a *authService) completeLogin(ctx context.Context, user models.User) (models.AuthResult, error) {
	if err := a.Attempts.ClearAttempts(ctx, user.Email); err != nil {
		return models.AuthResult{}, unexpected(ctx, "authService.completeLogin", "error clearing login attempts", err)
	}

	access, err := a.Tokens.MintAccessToken(user)
	if err != nil {
		return models.AuthResult{}, unexpected(ctx, "authService.completeLogin", "error minting access token", err)
	}

	refresh, err := utils.RandomToken(refreshTokenBytes)
	if err != nil {
		return models.AuthResult{}, unexpected(ctx, "authService.completeLogin", "error generating refresh token", err)
	}

	if _, err = a.Sessions.Create(ctx, models.RefreshSession{
		Token:     refresh,
		UserID:    user.UserID,
		ExpiresAt: a.now().Add(a.refreshTTL),
	}); err != nil {
		return models.AuthResult{}, unexpected(ctx, "authService.completeLogin", "error creating refresh session", err)
	}

	return models.NewTokenBundle(access, refresh), nil
}

// LoginWithTwoFactor completes a login started by Login for a user with 2FA.
func (a *authService) LoginWithTwoFactor(ctx context.Context, pendingToken, code string) (result models.AuthResult, err error) {
	var user models.User
	defer func() { a.Auditor.RecordOutcome(ctx, actorOf(user), models.AuditLoginTwoFactor, err) }()

	userID, ok := a.Tokens.VerifyPendingTwoFactorToken(pendingToken)
	if !ok {
		return models.AuthResult{}, ErrInvalidTwoFactorSession
	}

	// Keyed by user, so minting fresh pending tokens does not reset the
	// guess budget.
	if err = a.consume(ctx, userID.String(), models.RateLimitTwoFactorLogin); err != nil {
		return models.AuthResult{}, err
	}

	user, err = a.Users.FindByID(ctx, userID)
	if errors.Is(err, store.ErrUserNotFound) {
		return models.AuthResult{}, ErrUserNotFound
	}
	if err != nil {
		return models.AuthResult{}, unexpected(ctx, "authService.LoginWithTwoFactor", "error loading user", err)
	}

	valid, err := a.TwoFactor.VerifyAtLogin(ctx, userID, code)
	if err != nil {
		return models.AuthResult{}, unexpected(ctx, "authService.LoginWithTwoFactor", "error verifying 2FA code", err)
	}
	if !valid {
		return models.AuthResult{}, ErrInvalidTwoFactorCode
	}

	return a.completeLogin(ctx, user)
}

// Refresh mints a new access token for an existing session. The refresh
// token itself is returned unchanged.
func (a *authService) Refresh(ctx context.Context, refreshToken string) (result models.AuthResult, err error) {
	var user models.User
	defer func() { a.Auditor.RecordOutcome(ctx, actorOf(user), models.AuditRefresh, err) }()

	session, err := a.Sessions.FindByToken(ctx, refreshToken)
	if errors.Is(err, store.ErrSessionNotFound) {
		return models.AuthResult{}, ErrInvalidRefreshToken
	}
	if err != nil {
		return models.AuthResult{}, unexpected(ctx, "authService.Refresh", "error looking up refresh session", err)
	}

	user, err = a.Users.FindByID(ctx, session.UserID)
	if errors.Is(err, store.ErrUserNotFound) {
		return models.AuthResult{}, ErrUserNotFound
	}
	if err != nil {
		return models.AuthResult{}, unexpected(ctx, "authService.Refresh", "error loading user", err)
	}

	access, err := a.Tokens.MintAccessToken(user)
	if err != nil {
		return models.AuthResult{}, unexpected(ctx, "authService.Refresh", "error minting access token", err)
	}

	return models.NewTokenBundle(access, session.Token), nil
}

// Logout deletes the refresh session and revokes the access token, if any,
// for exactly its remaining lifetime. Both halves are idempotent.
func (a *authService) Logout(ctx context.Context, refreshToken, accessToken string) (err error) {
	var actor *uuid.UUID
	defer func() { a.Auditor.RecordOutcome(ctx, actor, models.AuditLogout, err) }()

	if id, ok := utils.GetUserIDFromContext(ctx); ok {
		actor = &id
	}

	if refreshToken != "" {
		session, err := a.Sessions.FindByToken(ctx, refreshToken)
		switch {
		case err == nil:
			actor = &session.UserID
		case !errors.Is(err, store.ErrSessionNotFound):
			return unexpected(ctx, "authService.Logout", "error looking up refresh session", err)
		}

		if err = a.Sessions.DeleteByToken(ctx, refreshToken); err != nil {
			return unexpected(ctx, "authService.Logout", "error deleting refresh session", err)
		}
	}

	if accessToken == "" {
		return nil
	}

	expiresAt, err := a.Tokens.ExtractExpiry(accessToken)
	if err != nil {
		// not ours or corrupt: nothing to revoke
		logger.FromContext(ctx).Debug().Str("func", "authService.Logout").Msg("access token not revocable")
		return nil
	}

	if err = a.Revocations.Revoke(ctx, accessToken, expiresAt.Sub(a.now())); err != nil {
		return unexpected(ctx, "authService.Logout", "error revoking access token", err)
	}

	return nil
}

// LogoutAllDevices deletes every refresh session of userID. Access tokens
// already issued stay valid until they expire.
func (a *authService) LogoutAllDevices(ctx context.Context, userID uuid.UUID) (err error) {
	defer func() { a.Auditor.RecordOutcome(ctx, &userID, models.AuditLogoutAll, err) }()

	n, err := a.Sessions.DeleteAllByUserID(ctx, userID)
	if err != nil {
		return unexpected(ctx, "authService.LogoutAllDevices", "error deleting refresh sessions", err)
	}

	logger.FromContext(ctx).Info().
		Str("func", "authService.LogoutAllDevices").
		Int64("sessions", n).
		Msg("all refresh sessions deleted")

	return nil
}

// RequestPasswordReset issues a single-use reset token for an active account
// and queues the email. Unknown emails succeed silently.
func (a *authService) RequestPasswordReset(ctx context.Context, email string) (err error) {
	var user models.User
	defer func() { a.Auditor.RecordOutcome(ctx, actorOf(user), models.AuditPasswordResetReq, err) }()

	if err = a.consume(ctx, normalizeEmail(email), models.RateLimitPasswordReset); err != nil {
		return err
	}

	user, err = a.Users.FindActiveByEmail(ctx, email)
	if errors.Is(err, store.ErrUserNotFound) {
		return nil
	}
	if err != nil {
		return unexpected(ctx, "authService.RequestPasswordReset", "error looking up user", err)
	}

	token, err := utils.RandomToken(oneTimeTokenBytes)
	if err != nil {
		return unexpected(ctx, "authService.RequestPasswordReset", "error generating reset token", err)
	}

	if err = a.Cache.Set(ctx, passwordResetKeyPrefix+token, user.UserID.String(), a.resetTTL); err != nil {
		return unexpected(ctx, "authService.RequestPasswordReset", "error storing reset token", err)
	}

	a.Notifier.SendPasswordReset(ctx, user, token)

	return nil
}

// PerformPasswordReset consumes a reset token, sets the new password and
// ends every refresh session of the account.
func (a *authService) PerformPasswordReset(ctx context.Context, token, newPassword string) (err error) {
	var user models.User
	defer func() { a.Auditor.RecordOutcome(ctx, actorOf(user), models.AuditPasswordReset, err) }()

	key := passwordResetKeyPrefix + token

	raw, err := a.Cache.Get(ctx, key)
	if errors.Is(err, cache.ErrCacheMiss) {
		return ErrInvalidResetToken
	}
	if err != nil {
		return unexpected(ctx, "authService.PerformPasswordReset", "error reading reset token", err)
	}

	if err = a.Cache.Delete(ctx, key); err != nil {
		return unexpected(ctx, "authService.PerformPasswordReset", "error consuming reset token", err)
	}

	userID, err := uuid.Parse(raw)
	if err != nil {
		return ErrInvalidResetToken
	}

	user, err = a.Users.FindByID(ctx, userID)
	if errors.Is(err, store.ErrUserNotFound) {
		return ErrInvalidResetToken
	}
	if err != nil {
		return unexpected(ctx, "authService.PerformPasswordReset", "error loading user", err)
	}

	hash, err := a.Hasher.Hash(newPassword)
	if err != nil {
		return unexpected(ctx, "authService.PerformPasswordReset", "error hashing password", err)
	}

	user.PasswordHash = hash
	if err = a.Users.Update(ctx, user); err != nil {
		return unexpected(ctx, "authService.PerformPasswordReset", "error updating user", err)
	}

	if _, err = a.Sessions.DeleteAllByUserID(ctx, user.UserID); err != nil {
		return unexpected(ctx, "authService.PerformPasswordReset", "error deleting refresh sessions", err)
	}

	return nil
}

// Activate brings a deactivated or soft-deleted account back after a
// password check.
func (a *authService) Activate(ctx context.Context, email, password string) (err error) {
	var user models.User
	defer func() { a.Auditor.RecordOutcome(ctx, actorOf(user), models.AuditActivate, err) }()

	user, err = a.checkCredentials(ctx, email, password)
	if err != nil {
		return err
	}
	if user.IsActive && !user.IsDeleted() {
		return ErrAccountAlreadyActive
	}

	user.IsActive = true
	user.DeletedAt = nil

	if err = a.Users.Update(ctx, user); err != nil {
		return unexpected(ctx, "authService.Activate", "error updating user", err)
	}

	return nil
}

// Authenticate rejects revoked tokens before checking the signature and
// claims.
func (a *authService) Authenticate(ctx context.Context, accessToken string) (models.AccessClaims, error) {
	revoked, err := a.Revocations.IsRevoked(ctx, accessToken)
	if err != nil {
		return models.AccessClaims{}, unexpected(ctx, "authService.Authenticate", "error checking revocation", err)
	}
	if revoked {
		return models.AccessClaims{}, ErrTokenInvalid
	}

	return a.Tokens.VerifyAccessToken(accessToken)
}
