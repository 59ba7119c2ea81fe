package service

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/MKhiriev/go-auth-gate/internal/cache"
	"github.com/MKhiriev/go-auth-gate/internal/config"
	"github.com/MKhiriev/go-auth-gate/internal/store"
	"github.com/MKhiriev/go-auth-gate/internal/utils"
	"github.com/MKhiriev/go-auth-gate/models"
	"github.com/google/uuid"
)

const emailChangeKeyPrefix = "email:change:"

// pendingEmailChange is the value stored under an email change token.
type pendingEmailChange struct {
	UserID   uuid.UUID `json:"user_id"`
	NewEmail string    `json:"new_email"`
}

type userService struct {
	Dependencies

	emailChangeTTL time.Duration
}

func NewUserService(deps Dependencies, cfg config.Auth) UserService {
	return &userService{
		Dependencies:   deps,
		emailChangeTTL: cfg.EmailChangeTTL,
	}
}

func (u *userService) load(ctx context.Context, fn string, userID uuid.UUID) (models.User, error) {
	user, err := u.Users.FindByID(ctx, userID)
	if errors.Is(err, store.ErrUserNotFound) {
		return models.User{}, ErrUserNotFound
	}
	if err != nil {
		return models.User{}, unexpected(ctx, fn, "error loading user", err)
	}
	return user, nil
}

func (u *userService) Me(ctx context.Context, userID uuid.UUID) (models.User, error) {
	return u.load(ctx, "userService.Me", userID)
}

// UpdateProfile replaces the non-blank name fields.
func (u *userService) UpdateProfile(ctx context.Context, userID uuid.UUID, req models.UpdateProfileRequest) (user models.User, err error) {
	defer func() { u.Auditor.RecordOutcome(ctx, &userID, models.AuditUpdateProfile, err) }()

	decision, err := u.Limiter.TryConsume(ctx, userID.String(), models.RateLimitProfileUpdate)
	if err != nil {
		return models.User{}, unexpected(ctx, "userService.UpdateProfile", "error consuming rate limit", err)
	}
	if !decision.Allowed {
		return models.User{}, RateLimited(retryAfter(decision))
	}

	user, err = u.load(ctx, "userService.UpdateProfile", userID)
	if err != nil {
		return models.User{}, err
	}

	if name := strings.TrimSpace(req.FirstName); name != "" {
		user.FirstName = name
	}
	if name := strings.TrimSpace(req.LastName); name != "" {
		user.LastName = name
	}

	if err = u.Users.Update(ctx, user); err != nil {
		return models.User{}, unexpected(ctx, "userService.UpdateProfile", "error updating user", err)
	}

	return user, nil
}

func (u *userService) ChangePassword(ctx context.Context, userID uuid.UUID, oldPassword, newPassword string) (err error) {
	defer func() { u.Auditor.RecordOutcome(ctx, &userID, models.AuditChangePassword, err) }()

	if oldPassword == newPassword {
		return ErrPasswordsSame
	}

	user, err := u.load(ctx, "userService.ChangePassword", userID)
	if err != nil {
		return err
	}

	if !u.Hasher.Matches(user.PasswordHash, oldPassword) {
		return ErrIncorrectPassword
	}

	hash, err := u.Hasher.Hash(newPassword)
	if err != nil {
		return unexpected(ctx, "userService.ChangePassword", "error hashing password", err)
	}

	user.PasswordHash = hash
	if err = u.Users.Update(ctx, user); err != nil {
		return unexpected(ctx, "userService.ChangePassword", "error updating user", err)
	}

	return nil
}

// DeleteMe ends every session of the caller and soft-deletes the account.
// The row is kept so the email can later be reactivated.
func (u *userService) DeleteMe(ctx context.Context, userID uuid.UUID) (err error) {
	defer func() { u.Auditor.RecordOutcome(ctx, &userID, models.AuditDeleteAccount, err) }()

	if _, err = u.load(ctx, "userService.DeleteMe", userID); err != nil {
		return err
	}

	if _, err = u.Sessions.DeleteAllByUserID(ctx, userID); err != nil {
		return unexpected(ctx, "userService.DeleteMe", "error deleting refresh sessions", err)
	}

	err = u.Users.SoftDelete(ctx, userID)
	if errors.Is(err, store.ErrUserNotFound) {
		return ErrUserNotFound
	}
	if err != nil {
		return unexpected(ctx, "userService.DeleteMe", "error deleting user", err)
	}

	return nil
}

// RequestEmailChange stores a single-use token binding userID to newEmail,
// warns the current address and mails the token to the new one.
func (u *userService) RequestEmailChange(ctx context.Context, userID uuid.UUID, currentPassword, newEmail string) (err error) {
	defer func() { u.Auditor.RecordOutcome(ctx, &userID, models.AuditEmailChangeReq, err) }()

	decision, err := u.Limiter.TryConsume(ctx, userID.String(), models.RateLimitProfileUpdate)
	if err != nil {
		return unexpected(ctx, "userService.RequestEmailChange", "error consuming rate limit", err)
	}
	if !decision.Allowed {
		return RateLimited(retryAfter(decision))
	}

	user, err := u.load(ctx, "userService.RequestEmailChange", userID)
	if err != nil {
		return err
	}

	if !u.Hasher.Matches(user.PasswordHash, currentPassword) {
		return ErrIncorrectPassword
	}

	newEmail = normalizeEmail(newEmail)
	if newEmail == normalizeEmail(user.Email) {
		return ErrEmailUnchanged
	}
	if err = u.ensureEmailFree(ctx, "userService.RequestEmailChange", userID, newEmail); err != nil {
		return err
	}

	token, err := utils.RandomToken(oneTimeTokenBytes)
	if err != nil {
		return unexpected(ctx, "userService.RequestEmailChange", "error generating email change token", err)
	}

	raw, err := json.Marshal(pendingEmailChange{UserID: userID, NewEmail: newEmail})
	if err != nil {
		return unexpected(ctx, "userService.RequestEmailChange", "error encoding email change", err)
	}

	if err = u.Cache.Set(ctx, emailChangeKeyPrefix+token, string(raw), u.emailChangeTTL); err != nil {
		return unexpected(ctx, "userService.RequestEmailChange", "error storing email change token", err)
	}

	u.Notifier.SendEmailChangeNotice(ctx, user, newEmail)
	u.Notifier.SendEmailChangeVerification(ctx, user, newEmail, token)

	return nil
}

// ConfirmEmailChange consumes the token and moves the account onto the new
// address, provided nobody registered it in the meantime.
func (u *userService) ConfirmEmailChange(ctx context.Context, token string) (err error) {
	var actor *uuid.UUID
	defer func() { u.Auditor.RecordOutcome(ctx, actor, models.AuditEmailChange, err) }()

	key := emailChangeKeyPrefix + token

	raw, err := u.Cache.Get(ctx, key)
	if errors.Is(err, cache.ErrCacheMiss) {
		return ErrInvalidEmailChangeToken
	}
	if err != nil {
		return unexpected(ctx, "userService.ConfirmEmailChange", "error reading email change token", err)
	}

	if err = u.Cache.Delete(ctx, key); err != nil {
		return unexpected(ctx, "userService.ConfirmEmailChange", "error consuming email change token", err)
	}

	var change pendingEmailChange
	if err = json.Unmarshal([]byte(raw), &change); err != nil || change.NewEmail == "" {
		return ErrInvalidEmailChangeToken
	}
	actor = &change.UserID

	user, err := u.Users.FindByID(ctx, change.UserID)
	if errors.Is(err, store.ErrUserNotFound) {
		return ErrInvalidEmailChangeToken
	}
	if err != nil {
		return unexpected(ctx, "userService.ConfirmEmailChange", "error loading user", err)
	}

	if err = u.ensureEmailFree(ctx, "userService.ConfirmEmailChange", user.UserID, change.NewEmail); err != nil {
		return err
	}

	user.Email = change.NewEmail
	err = u.Users.Update(ctx, user)
	if errors.Is(err, store.ErrEmailAlreadyExists) {
		return ErrEmailAlreadyExists
	}
	if err != nil {
		return unexpected(ctx, "userService.ConfirmEmailChange", "error updating user", err)
	}

	return nil
}

// ensureEmailFree rejects an address held by any other account, deleted
// ones included, since those can still be reactivated.
func (u *userService) ensureEmailFree(ctx context.Context, fn string, userID uuid.UUID, email string) error {
	holder, err := u.Users.FindAnyByEmail(ctx, email)
	if errors.Is(err, store.ErrUserNotFound) {
		return nil
	}
	if err != nil {
		return unexpected(ctx, fn, "error looking up email", err)
	}
	if holder.UserID != userID {
		return ErrEmailAlreadyExists
	}
	return nil
}
