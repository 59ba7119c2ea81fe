package models

import (
	"time"

	"github.com/google/uuid"
)

// Audit actions. Coordinator outcomes are recorded as <ACTION>_SUCCESS or
// <ACTION>_FAIL.
const (
	AuditRegister           = "REGISTER"
	AuditVerifyEmail        = "VERIFY_EMAIL"
	AuditResendVerification = "RESEND_VERIFICATION"
	AuditLogin              = "LOGIN"
	AuditLoginTwoFactor     = "LOGIN_2FA"
	AuditRefresh            = "REFRESH_TOKEN"
	AuditLogout             = "LOGOUT"
	AuditLogoutAll          = "LOGOUT_ALL_DEVICES"
	AuditPasswordResetReq   = "PASSWORD_RESET_REQUEST"
	AuditPasswordReset      = "PASSWORD_RESET"
	AuditActivate           = "ACTIVATE_ACCOUNT"
	AuditChangePassword     = "CHANGE_PASSWORD"
	AuditUpdateProfile      = "UPDATE_PROFILE"
	AuditDeleteAccount      = "DELETE_ACCOUNT"
	AuditEmailChangeReq     = "EMAIL_CHANGE_REQUEST"
	AuditEmailChange        = "EMAIL_CHANGE"
	AuditAdminUpdateStatus  = "ADMIN_UPDATE_USER_STATUS"
	AuditAdminUpdateRole    = "ADMIN_UPDATE_USER_ROLE"
	AuditTwoFactorSetup     = "2FA_SETUP"
	AuditTwoFactorEnable    = "2FA_ENABLE"
	AuditTwoFactorDisable   = "2FA_DISABLE"
	AuditRateLimitExceeded  = "RATE_LIMIT_EXCEEDED"
)

// AuditEvent is a single audit log entry.
type AuditEvent struct {
	ID int64

	// UserID is nil when the actor could not be resolved.
	UserID *uuid.UUID

	Action    string
	Details   string
	IPAddress string
	Timestamp time.Time
}

// TableName returns the name of the database table
// associated with the AuditEvent model.
func (e AuditEvent) TableName() string {
	return "audit_logs"
}
