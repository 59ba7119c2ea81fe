package http

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/MKhiriev/go-auth-gate/internal/service"
	"github.com/stretchr/testify/assert"
)

func TestStatusFromError(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{service.ErrInvalidCredentials, http.StatusUnauthorized},
		{service.ErrTokenInvalid, http.StatusUnauthorized},
		{service.ErrEmailNotVerified, http.StatusForbidden},
		{service.ErrForbidden, http.StatusForbidden},
		{service.ErrUserNotFound, http.StatusNotFound},
		{service.ErrTwoFactorNotSetUp, http.StatusNotFound},
		{service.ErrInvalidSetupCode, http.StatusBadRequest},
		{service.ErrTwoFactorSetupReplaced, http.StatusConflict},
		{service.ErrEmailUnchanged, http.StatusBadRequest},
		{service.ErrInvalidEmailChangeToken, http.StatusBadRequest},
		{service.ErrSelfRoleChange, http.StatusForbidden},
		{service.ErrEmailAlreadyExists, http.StatusConflict},
		{service.ErrAccountSoftDeleted, http.StatusConflict},
		{service.RateLimited(time.Minute), http.StatusTooManyRequests},
		{service.InvalidInput("bad"), http.StatusBadRequest},
		{fmt.Errorf("wrapped: %w", service.ErrInvalidResetToken), http.StatusBadRequest},
		{errors.New("pq: connection refused"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.err.Error(), func(t *testing.T) {
			assert.Equal(t, tt.want, statusFromError(tt.err))
		})
	}
}

func TestWriteError_HidesInternalDetails(t *testing.T) {
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/", nil)

	writeError(rec, req, errors.New("pq: password authentication failed for user postgres"))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.NotContains(t, rec.Body.String(), "postgres")
	assert.Contains(t, rec.Body.String(), internalErrorMessage)
}

func TestWriteError_RetryAfterRoundsUp(t *testing.T) {
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/", nil)

	writeError(rec, req, service.RateLimited(1500*time.Millisecond))

	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "2", rec.Header().Get(retryAfterHeader))
}
