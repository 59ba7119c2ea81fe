package models

// RegisterRequest is the body of POST /auth/register.
type RegisterRequest struct {
	FirstName string `json:"firstName" validate:"required,max=50"`
	LastName  string `json:"lastName" validate:"required,max=50"`
	Email     string `json:"email" validate:"required,email,max=254"`
	Password  string `json:"password" validate:"required,min=8,max=72"`
}

// LoginRequest is the body of POST /auth/login.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// TwoFactorLoginRequest is the body of POST /auth/login/2fa.
type TwoFactorLoginRequest struct {
	TempToken string `json:"tempToken" validate:"required"`
	Code      string `json:"code" validate:"required,numeric,min=6,max=8"`
}

// RefreshRequest is the body of POST /auth/refresh.
type RefreshRequest struct {
	RefreshToken string `json:"refreshToken" validate:"required"`
}

// LogoutRequest is the body of POST /auth/logout.
// The access token, if any, comes from the Authorization header.
type LogoutRequest struct {
	RefreshToken string `json:"refreshToken"`
}

// CredentialsRequest carries an email/password pair for flows that
// re-authenticate outside of login (resend verification, activation).
type CredentialsRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// ForgotPasswordRequest is the body of POST /auth/forgot-password.
type ForgotPasswordRequest struct {
	Email string `json:"email" validate:"required,email"`
}

// ResetPasswordRequest is the body of POST /auth/reset-password.
type ResetPasswordRequest struct {
	Token       string `json:"token" validate:"required"`
	NewPassword string `json:"newPassword" validate:"required,min=8,max=72"`
}

// UpdateProfileRequest is the body of PUT /users/me.
type UpdateProfileRequest struct {
	FirstName string `json:"firstName" validate:"required,max=50"`
	LastName  string `json:"lastName" validate:"required,max=50"`
}

// ChangePasswordRequest is the body of PUT /users/me/password.
type ChangePasswordRequest struct {
	OldPassword string `json:"oldPassword" validate:"required"`
	NewPassword string `json:"newPassword" validate:"required,min=8,max=72"`
}

// EmailChangeRequest is the body of POST /users/me/email.
type EmailChangeRequest struct {
	CurrentPassword string `json:"currentPassword" validate:"required"`
	NewEmail        string `json:"newEmail" validate:"required,email,max=254"`
}

// UpdateUserStatusRequest is the body of PATCH /admin/users/{id}/status.
type UpdateUserStatusRequest struct {
	Active *bool `json:"active" validate:"required"`
}

// UpdateUserRoleRequest is the body of PATCH /admin/users/{id}/role.
type UpdateUserRoleRequest struct {
	Role string `json:"role" validate:"required,oneof=USER MODERATOR ADMIN"`
}

// TwoFactorCodeRequest is the body of POST /users/me/2fa/enable.
type TwoFactorCodeRequest struct {
	Code string `json:"code" validate:"required,numeric,len=6"`
}

// PasswordRequest is the body of POST /users/me/2fa/disable.
type PasswordRequest struct {
	Password string `json:"password" validate:"required"`
}
