package http

import (
	"net/http"

	"github.com/MKhiriev/go-auth-gate/internal/utils"
	"github.com/MKhiriev/go-auth-gate/models"
)

func (h *Handler) twoFactorStatus(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}

	status, err := h.services.TwoFactorService.Status(r.Context(), userID)
	if err != nil {
		writeError(w, r, err)
		return
	}

	utils.WriteSuccess(w, http.StatusOK, "", status)
}

// twoFactorSetup returns the secret and the raw backup codes. This is the
// only response that ever contains them.
func (h *Handler) twoFactorSetup(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}

	ctx := r.Context()
	setup, err := h.services.TwoFactorService.BeginSetup(ctx, userID)
	h.services.Auditor.RecordOutcome(ctx, &userID, models.AuditTwoFactorSetup, err)
	if err != nil {
		writeError(w, r, err)
		return
	}

	utils.WriteSuccess(w, http.StatusOK, "Scan the QR code and confirm with a code", setup)
}

func (h *Handler) twoFactorEnable(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}

	var req models.TwoFactorCodeRequest
	if !h.decode(w, r, &req) {
		return
	}

	ctx := r.Context()
	err := h.services.TwoFactorService.ConfirmSetup(ctx, userID, req.Code)
	h.services.Auditor.RecordOutcome(ctx, &userID, models.AuditTwoFactorEnable, err)
	if err != nil {
		writeError(w, r, err)
		return
	}

	utils.WriteSuccess(w, http.StatusOK, "Two-factor authentication enabled", nil)
}

func (h *Handler) twoFactorDisable(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}

	var req models.PasswordRequest
	if !h.decode(w, r, &req) {
		return
	}

	ctx := r.Context()
	err := h.services.TwoFactorService.Disable(ctx, userID, req.Password)
	h.services.Auditor.RecordOutcome(ctx, &userID, models.AuditTwoFactorDisable, err)
	if err != nil {
		writeError(w, r, err)
		return
	}

	utils.WriteSuccess(w, http.StatusOK, "Two-factor authentication disabled", nil)
}
