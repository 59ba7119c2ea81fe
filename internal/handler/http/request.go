package http

import (
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/MKhiriev/go-auth-gate/internal/logger"
	"github.com/MKhiriev/go-auth-gate/internal/service"
	"github.com/MKhiriev/go-auth-gate/internal/utils"
	"github.com/MKhiriev/go-auth-gate/internal/validators"
	"github.com/google/uuid"
)

// decode reads the JSON body into dst and validates it. On failure the 400
// response is already written and decode returns false.
func (h *Handler) decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := utils.DecodeJSON(r, dst); err != nil {
		logger.FromRequest(r).Debug().Err(err).Msg("invalid JSON was passed")
		writeError(w, r, service.InvalidInput("Invalid JSON was passed"))
		return false
	}

	return h.validate(w, r, dst)
}

// decodeOptional is decode for bodies that may be absent.
func (h *Handler) decodeOptional(w http.ResponseWriter, r *http.Request, dst any) bool {
	err := utils.DecodeJSON(r, dst)
	if err != nil && !errors.Is(err, io.EOF) {
		logger.FromRequest(r).Debug().Err(err).Msg("invalid JSON was passed")
		writeError(w, r, service.InvalidInput("Invalid JSON was passed"))
		return false
	}

	return h.validate(w, r, dst)
}

func (h *Handler) validate(w http.ResponseWriter, r *http.Request, dst any) bool {
	err := h.validator.Validate(r.Context(), dst)
	if err == nil {
		return true
	}

	if errors.Is(err, validators.ErrInvalidRequest) {
		msg := strings.TrimPrefix(err.Error(), validators.ErrInvalidRequest.Error()+": ")
		writeError(w, r, service.InvalidInput(msg))
		return false
	}

	writeError(w, r, err)
	return false
}

// bearerToken returns the access token of an optional Authorization header.
func bearerToken(r *http.Request) string {
	token, err := getTokenFromAuthHeader(r.Header.Get("Authorization"))
	if err != nil {
		return ""
	}
	return token
}

// currentUser returns the id stored by the auth middleware.
func currentUser(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, ok := utils.GetUserIDFromContext(r.Context())
	if !ok {
		writeError(w, r, service.ErrUnauthenticated)
		return id, false
	}
	return id, true
}
