package http

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/MKhiriev/go-auth-gate/internal/cache"
	"github.com/MKhiriev/go-auth-gate/internal/logger"
	"github.com/MKhiriev/go-auth-gate/internal/mock"
	"github.com/MKhiriev/go-auth-gate/internal/service"
	"github.com/MKhiriev/go-auth-gate/internal/validators"
	"github.com/MKhiriev/go-auth-gate/models"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

const validToken = "valid-access-token"

// testEnv holds the mocked services behind a Handler.
type testEnv struct {
	h         *Handler
	router    http.Handler
	auth      *mock.MockAuthService
	users     *mock.MockUserService
	admin     *mock.MockAdminService
	twoFactor *mock.MockTwoFactorService
	appInfo   *mock.MockAppInfoService
	auditor   *mock.MockAuditor
}

func generousRules() map[models.RateLimitClass]models.RateLimitRule {
	return map[models.RateLimitClass]models.RateLimitRule{
		models.RateLimitAuth:    {Capacity: 1000, Period: time.Minute},
		models.RateLimitGeneral: {Capacity: 1000, Period: time.Minute},
	}
}

func newTestEnv(t *testing.T, ctrl *gomock.Controller, rules map[models.RateLimitClass]models.RateLimitRule) *testEnv {
	t.Helper()

	env := &testEnv{
		auth:      mock.NewMockAuthService(ctrl),
		users:     mock.NewMockUserService(ctrl),
		admin:     mock.NewMockAdminService(ctrl),
		twoFactor: mock.NewMockTwoFactorService(ctrl),
		appInfo:   mock.NewMockAppInfoService(ctrl),
		auditor:   mock.NewMockAuditor(ctrl),
	}

	env.h = NewHandler(&service.Services{
		AuthService:      env.auth,
		UserService:      env.users,
		AdminService:     env.admin,
		TwoFactorService: env.twoFactor,
		AppInfoService:   env.appInfo,
		RateLimiter:      service.NewRateLimiter(cache.NewMemoryCache(), rules),
		Auditor:          env.auditor,
	}, validators.NewRequestValidator(), logger.Nop())
	env.router = env.h.Init()

	return env
}

// expectAuthenticated makes validToken resolve to userID with role.
func (e *testEnv) expectAuthenticated(userID uuid.UUID, role models.PlatformRole) {
	e.auth.EXPECT().Authenticate(gomock.Any(), validToken).Return(models.AccessClaims{
		RegisteredClaims: jwt.RegisteredClaims{Subject: userID.String()},
		Email:            "a@x.com",
		Role:             role,
	}, nil).AnyTimes()
}

func (e *testEnv) do(method, path string, body any, token string) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	switch b := body.(type) {
	case nil:
	case string:
		buf.WriteString(b)
	default:
		_ = json.NewEncoder(&buf).Encode(b)
	}

	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)
	return rec
}

// envelope decodes the response body; Data stays raw for per-test decoding.
type envelope struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

func decodeEnvelope(t *testing.T, rec *httptest.ResponseRecorder) envelope {
	t.Helper()
	var env envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env), rec.Body.String())
	return env
}

// ─────────────────────────────────────────────
// NewHandler
// ─────────────────────────────────────────────

func TestNewHandler_StoresDependencies(t *testing.T) {
	svc := &service.Services{}
	v := validators.NewRequestValidator()
	log := logger.Nop()

	h := NewHandler(svc, v, log)

	require.NotNil(t, h)
	assert.Equal(t, svc, h.services)
	assert.Equal(t, v, h.validator)
	assert.Equal(t, log, h.logger)
}

// ─────────────────────────────────────────────
// Init: route registration
// ─────────────────────────────────────────────

func TestInit_ProtectedRoutesRequireAuth(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	env := newTestEnv(t, ctrl, generousRules())

	routes := []struct {
		method string
		path   string
	}{
		{http.MethodGet, "/api/v1/users/me"},
		{http.MethodPut, "/api/v1/users/me"},
		{http.MethodDelete, "/api/v1/users/me"},
		{http.MethodPut, "/api/v1/users/me/password"},
		{http.MethodPost, "/api/v1/users/me/email"},
		{http.MethodPost, "/api/v1/users/me/logout-all"},
		{http.MethodGet, "/api/v1/users/me/2fa/status"},
		{http.MethodPost, "/api/v1/users/me/2fa/setup"},
		{http.MethodPost, "/api/v1/users/me/2fa/enable"},
		{http.MethodPost, "/api/v1/users/me/2fa/disable"},
		{http.MethodGet, "/api/v1/admin/build-info"},
		{http.MethodPatch, "/api/v1/admin/users/" + uuid.NewString() + "/status"},
		{http.MethodPatch, "/api/v1/admin/users/" + uuid.NewString() + "/role"},
	}

	for _, tc := range routes {
		t.Run(tc.method+" "+tc.path, func(t *testing.T) {
			rec := env.do(tc.method, tc.path, nil, "")

			assert.Equal(t, http.StatusUnauthorized, rec.Code)
			assert.False(t, decodeEnvelope(t, rec).Success)
		})
	}
}

func TestInit_UnknownRouteReturns404(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	env := newTestEnv(t, ctrl, generousRules())

	rec := env.do(http.MethodGet, "/api/v1/nonexistent", nil, "")

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "Not Found", decodeEnvelope(t, rec).Message)
}

func TestInit_WrongMethodReturns404(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	env := newTestEnv(t, ctrl, generousRules())

	// only POST is registered
	rec := env.do(http.MethodGet, "/api/v1/auth/login", nil, "")

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestInit_TraceIDHeaderAlwaysSet(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	env := newTestEnv(t, ctrl, generousRules())

	rec := env.do(http.MethodGet, "/api/v1/nonexistent", nil, "")

	_, err := uuid.Parse(rec.Header().Get(traceIDHeader))
	assert.NoError(t, err)
}

func TestInit_RecoversFromPanics(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	env := newTestEnv(t, ctrl, generousRules())
	env.appInfo.EXPECT().GetAppVersion(gomock.Any()).DoAndReturn(func(context.Context) string {
		panic("boom")
	})

	rec := env.do(http.MethodGet, "/api/v1/version", nil, "")

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}
