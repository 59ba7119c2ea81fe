package http

import (
	"net/http"

	"github.com/MKhiriev/go-auth-gate/internal/utils"
	"github.com/MKhiriev/go-auth-gate/models"
	"github.com/go-chi/chi/v5"
)

func (h *Handler) register(w http.ResponseWriter, r *http.Request) {
	var req models.RegisterRequest
	if !h.decode(w, r, &req) {
		return
	}

	user, err := h.services.AuthService.Register(r.Context(), req)
	if err != nil {
		writeError(w, r, err)
		return
	}

	utils.WriteSuccess(w, http.StatusCreated, "Registration successful, check your email to verify the account", user)
}

func (h *Handler) login(w http.ResponseWriter, r *http.Request) {
	var req models.LoginRequest
	if !h.decode(w, r, &req) {
		return
	}

	result, err := h.services.AuthService.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		writeError(w, r, err)
		return
	}

	message := "Login successful"
	if result.Requires2FA {
		message = "Two-factor code required"
	}

	utils.WriteSuccess(w, http.StatusOK, message, result)
}

func (h *Handler) loginWithTwoFactor(w http.ResponseWriter, r *http.Request) {
	var req models.TwoFactorLoginRequest
	if !h.decode(w, r, &req) {
		return
	}

	result, err := h.services.AuthService.LoginWithTwoFactor(r.Context(), req.TempToken, req.Code)
	if err != nil {
		writeError(w, r, err)
		return
	}

	utils.WriteSuccess(w, http.StatusOK, "Login successful", result)
}

func (h *Handler) refresh(w http.ResponseWriter, r *http.Request) {
	var req models.RefreshRequest
	if !h.decode(w, r, &req) {
		return
	}

	result, err := h.services.AuthService.Refresh(r.Context(), req.RefreshToken)
	if err != nil {
		writeError(w, r, err)
		return
	}

	utils.WriteSuccess(w, http.StatusOK, "Token refreshed", result)
}

// logout accepts an optional body and an optional bearer header; whatever is
// present gets invalidated.
func (h *Handler) logout(w http.ResponseWriter, r *http.Request) {
	var req models.LogoutRequest
	if !h.decodeOptional(w, r, &req) {
		return
	}

	if err := h.services.AuthService.Logout(r.Context(), req.RefreshToken, bearerToken(r)); err != nil {
		writeError(w, r, err)
		return
	}

	utils.WriteSuccess(w, http.StatusOK, "Logged out", nil)
}

func (h *Handler) verifyEmail(w http.ResponseWriter, r *http.Request) {
	if err := h.services.AuthService.VerifyEmail(r.Context(), chi.URLParam(r, "token")); err != nil {
		writeError(w, r, err)
		return
	}

	utils.WriteSuccess(w, http.StatusOK, "Email verified", nil)
}

func (h *Handler) resendVerification(w http.ResponseWriter, r *http.Request) {
	var req models.CredentialsRequest
	if !h.decode(w, r, &req) {
		return
	}

	if err := h.services.AuthService.ResendVerification(r.Context(), req.Email, req.Password); err != nil {
		writeError(w, r, err)
		return
	}

	utils.WriteSuccess(w, http.StatusOK, "Verification email sent", nil)
}

func (h *Handler) forgotPassword(w http.ResponseWriter, r *http.Request) {
	var req models.ForgotPasswordRequest
	if !h.decode(w, r, &req) {
		return
	}

	if err := h.services.AuthService.RequestPasswordReset(r.Context(), req.Email); err != nil {
		writeError(w, r, err)
		return
	}

	utils.WriteSuccess(w, http.StatusOK, "If the account exists, a reset link has been sent", nil)
}

func (h *Handler) resetPassword(w http.ResponseWriter, r *http.Request) {
	var req models.ResetPasswordRequest
	if !h.decode(w, r, &req) {
		return
	}

	if err := h.services.AuthService.PerformPasswordReset(r.Context(), req.Token, req.NewPassword); err != nil {
		writeError(w, r, err)
		return
	}

	utils.WriteSuccess(w, http.StatusOK, "Password has been reset", nil)
}

func (h *Handler) activate(w http.ResponseWriter, r *http.Request) {
	var req models.CredentialsRequest
	if !h.decode(w, r, &req) {
		return
	}

	if err := h.services.AuthService.Activate(r.Context(), req.Email, req.Password); err != nil {
		writeError(w, r, err)
		return
	}

	utils.WriteSuccess(w, http.StatusOK, "Account activated", nil)
}
