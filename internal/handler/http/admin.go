package http

import (
	"net/http"

	"github.com/MKhiriev/go-auth-gate/internal/service"
	"github.com/MKhiriev/go-auth-gate/internal/utils"
	"github.com/MKhiriev/go-auth-gate/models"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

// targetUser parses the {id} path segment. On failure the 400 response is
// already written.
func targetUser(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, service.InvalidInput("Invalid user id"))
		return uuid.Nil, false
	}
	return id, true
}

func (h *Handler) updateUserStatus(w http.ResponseWriter, r *http.Request) {
	actorID, ok := currentUser(w, r)
	if !ok {
		return
	}
	userID, ok := targetUser(w, r)
	if !ok {
		return
	}

	var req models.UpdateUserStatusRequest
	if !h.decode(w, r, &req) {
		return
	}

	user, err := h.services.AdminService.UpdateUserStatus(r.Context(), actorID, userID, *req.Active)
	if err != nil {
		writeError(w, r, err)
		return
	}

	utils.WriteSuccess(w, http.StatusOK, "User status updated", user)
}

func (h *Handler) updateUserRole(w http.ResponseWriter, r *http.Request) {
	actorID, ok := currentUser(w, r)
	if !ok {
		return
	}
	userID, ok := targetUser(w, r)
	if !ok {
		return
	}

	var req models.UpdateUserRoleRequest
	if !h.decode(w, r, &req) {
		return
	}

	user, err := h.services.AdminService.UpdateUserRole(r.Context(), actorID, userID, models.PlatformRole(req.Role))
	if err != nil {
		writeError(w, r, err)
		return
	}

	utils.WriteSuccess(w, http.StatusOK, "User role updated", user)
}
