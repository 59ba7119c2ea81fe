package service

import (
	"context"
	"errors"

	"github.com/MKhiriev/go-auth-gate/internal/logger"
	"github.com/MKhiriev/go-auth-gate/internal/store"
	"github.com/MKhiriev/go-auth-gate/models"
	"github.com/google/uuid"
)

type adminService struct {
	Dependencies
}

func NewAdminService(deps Dependencies) AdminService {
	return &adminService{Dependencies: deps}
}

// target loads any account that is not soft-deleted, inactive ones included.
func (a *adminService) target(ctx context.Context, fn string, userID uuid.UUID) (models.User, error) {
	user, err := a.Users.FindAnyByID(ctx, userID)
	if errors.Is(err, store.ErrUserNotFound) {
		return models.User{}, ErrUserNotFound
	}
	if err != nil {
		return models.User{}, unexpected(ctx, fn, "error loading user", err)
	}
	if user.IsDeleted() {
		return models.User{}, ErrUserNotFound
	}
	return user, nil
}

// UpdateUserStatus activates or deactivates userID. Deactivation also ends
// every refresh session of the account.
func (a *adminService) UpdateUserStatus(ctx context.Context, actorID, userID uuid.UUID, active bool) (user models.User, err error) {
	defer func() { a.Auditor.RecordOutcome(ctx, &actorID, models.AuditAdminUpdateStatus, err) }()

	if actorID == userID && !active {
		return models.User{}, ErrSelfDeactivation
	}

	user, err = a.target(ctx, "adminService.UpdateUserStatus", userID)
	if err != nil {
		return models.User{}, err
	}

	user.IsActive = active
	if err = a.Users.Update(ctx, user); err != nil {
		return models.User{}, unexpected(ctx, "adminService.UpdateUserStatus", "error updating user", err)
	}

	if !active {
		n, err := a.Sessions.DeleteAllByUserID(ctx, userID)
		if err != nil {
			return models.User{}, unexpected(ctx, "adminService.UpdateUserStatus", "error deleting refresh sessions", err)
		}
		logger.FromContext(ctx).Info().
			Str("func", "adminService.UpdateUserStatus").
			Str("user_id", userID.String()).
			Int64("sessions", n).
			Msg("account deactivated")
	}

	return user, nil
}

// UpdateUserRole assigns role to userID. Administrators cannot change their
// own role.
func (a *adminService) UpdateUserRole(ctx context.Context, actorID, userID uuid.UUID, role models.PlatformRole) (user models.User, err error) {
	defer func() { a.Auditor.RecordOutcome(ctx, &actorID, models.AuditAdminUpdateRole, err) }()

	if _, err = models.ParsePlatformRole(string(role)); err != nil {
		return models.User{}, InvalidInput("Unknown role " + string(role))
	}
	if actorID == userID {
		return models.User{}, ErrSelfRoleChange
	}

	user, err = a.target(ctx, "adminService.UpdateUserRole", userID)
	if err != nil {
		return models.User{}, err
	}

	user.PlatformRole = role
	if err = a.Users.Update(ctx, user); err != nil {
		return models.User{}, unexpected(ctx, "adminService.UpdateUserRole", "error updating user", err)
	}

	return user, nil
}
