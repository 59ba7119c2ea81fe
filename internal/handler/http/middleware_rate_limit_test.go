package http

import (
	"net/http"
	"strconv"
	"testing"
	"time"

	"github.com/MKhiriev/go-auth-gate/models"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

func tightRules() map[models.RateLimitClass]models.RateLimitRule {
	return map[models.RateLimitClass]models.RateLimitRule{
		models.RateLimitAuth:    {Capacity: 2, Period: time.Minute},
		models.RateLimitGeneral: {Capacity: 1000, Period: time.Minute},
	}
}

func TestWithRateLimit_AuthEndpoints(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	env := newTestEnv(t, ctrl, tightRules())
	env.auth.EXPECT().RequestPasswordReset(gomock.Any(), "a@x.com").Return(nil).Times(2)
	env.auditor.EXPECT().Record(gomock.Any(), nil, models.AuditRateLimitExceeded, "class=auth path=/api/v1/auth/forgot-password")

	body := models.ForgotPasswordRequest{Email: "a@x.com"}

	rec := env.do(http.MethodPost, "/api/v1/auth/forgot-password", body, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "1", rec.Header().Get(rateLimitRemainingHeader))

	rec = env.do(http.MethodPost, "/api/v1/auth/forgot-password", body, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "0", rec.Header().Get(rateLimitRemainingHeader))

	rec = env.do(http.MethodPost, "/api/v1/auth/forgot-password", body, "")
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.False(t, decodeEnvelope(t, rec).Success)

	retryAfter, err := strconv.Atoi(rec.Header().Get(retryAfterHeader))
	require.NoError(t, err)
	assert.InDelta(t, 30, retryAfter, 30)
}

func TestWithRateLimit_BucketsArePerClass(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	env := newTestEnv(t, ctrl, tightRules())
	env.appInfo.EXPECT().GetAppVersion(gomock.Any()).Return("1.0.0").Times(5)

	for range 5 {
		rec := env.do(http.MethodGet, "/api/v1/version", nil, "")
		assert.Equal(t, http.StatusOK, rec.Code)
	}
}

func TestWithRateLimit_AuditsAuthenticatedActor(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	env := newTestEnv(t, ctrl, map[models.RateLimitClass]models.RateLimitRule{
		models.RateLimitAuth:    {Capacity: 10, Period: time.Minute},
		models.RateLimitGeneral: {Capacity: 1, Period: time.Minute},
	})
	userID := uuid.New()
	env.expectAuthenticated(userID, models.RoleUser)
	env.users.EXPECT().Me(gomock.Any(), userID).Return(models.User{UserID: userID}, nil)
	env.auditor.EXPECT().Record(gomock.Any(), &userID, models.AuditRateLimitExceeded, gomock.Any())

	assert.Equal(t, http.StatusOK, env.do(http.MethodGet, "/api/v1/users/me", nil, validToken).Code)
	assert.Equal(t, http.StatusTooManyRequests, env.do(http.MethodGet, "/api/v1/users/me", nil, validToken).Code)
}
