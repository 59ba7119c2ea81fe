package http

import (
	"net/http"

	"github.com/MKhiriev/go-auth-gate/internal/utils"
	"github.com/MKhiriev/go-auth-gate/models"
	"github.com/go-chi/chi/v5"
)

func (h *Handler) me(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}

	user, err := h.services.UserService.Me(r.Context(), userID)
	if err != nil {
		writeError(w, r, err)
		return
	}

	utils.WriteSuccess(w, http.StatusOK, "", user)
}

func (h *Handler) updateProfile(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}

	var req models.UpdateProfileRequest
	if !h.decode(w, r, &req) {
		return
	}

	user, err := h.services.UserService.UpdateProfile(r.Context(), userID, req)
	if err != nil {
		writeError(w, r, err)
		return
	}

	utils.WriteSuccess(w, http.StatusOK, "Profile updated", user)
}

func (h *Handler) changePassword(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}

	var req models.ChangePasswordRequest
	if !h.decode(w, r, &req) {
		return
	}

	if err := h.services.UserService.ChangePassword(r.Context(), userID, req.OldPassword, req.NewPassword); err != nil {
		writeError(w, r, err)
		return
	}

	utils.WriteSuccess(w, http.StatusOK, "Password changed", nil)
}

func (h *Handler) requestEmailChange(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}

	var req models.EmailChangeRequest
	if !h.decode(w, r, &req) {
		return
	}

	if err := h.services.UserService.RequestEmailChange(r.Context(), userID, req.CurrentPassword, req.NewEmail); err != nil {
		writeError(w, r, err)
		return
	}

	utils.WriteSuccess(w, http.StatusOK, "Confirmation sent to the new email address", nil)
}

func (h *Handler) confirmEmailChange(w http.ResponseWriter, r *http.Request) {
	if err := h.services.UserService.ConfirmEmailChange(r.Context(), chi.URLParam(r, "token")); err != nil {
		writeError(w, r, err)
		return
	}

	utils.WriteSuccess(w, http.StatusOK, "Email changed", nil)
}

func (h *Handler) deleteMe(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}

	if err := h.services.UserService.DeleteMe(r.Context(), userID); err != nil {
		writeError(w, r, err)
		return
	}

	utils.WriteSuccess(w, http.StatusOK, "Account deleted", nil)
}

func (h *Handler) logoutAllDevices(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}

	if err := h.services.AuthService.LogoutAllDevices(r.Context(), userID); err != nil {
		writeError(w, r, err)
		return
	}

	utils.WriteSuccess(w, http.StatusOK, "Logged out from all devices", nil)
}
