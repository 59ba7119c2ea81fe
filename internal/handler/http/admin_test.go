package http

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/MKhiriev/go-auth-gate/internal/service"
	"github.com/MKhiriev/go-auth-gate/models"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

func TestUpdateUserStatus(t *testing.T) {
	tests := []struct {
		name       string
		role       models.PlatformRole
		path       string
		body       any
		err        error
		wantCall   bool
		wantActive bool
		wantStatus int
	}{
		{name: "deactivate", role: models.RoleAdmin, body: map[string]any{"active": false}, wantCall: true, wantStatus: http.StatusOK},
		{name: "activate", role: models.RoleAdmin, body: map[string]any{"active": true}, wantCall: true, wantActive: true, wantStatus: http.StatusOK},
		{name: "self deactivation", role: models.RoleAdmin, body: map[string]any{"active": false}, err: service.ErrSelfDeactivation, wantCall: true, wantStatus: http.StatusForbidden},
		{name: "missing user", role: models.RoleAdmin, body: map[string]any{"active": false}, err: service.ErrUserNotFound, wantCall: true, wantStatus: http.StatusNotFound},
		{name: "active flag missing", role: models.RoleAdmin, body: map[string]any{}, wantStatus: http.StatusBadRequest},
		{name: "bad id", role: models.RoleAdmin, path: "/api/v1/admin/users/not-a-uuid/status", body: map[string]any{"active": true}, wantStatus: http.StatusBadRequest},
		{name: "moderator forbidden", role: models.RoleModerator, body: map[string]any{"active": false}, wantStatus: http.StatusForbidden},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			defer ctrl.Finish()

			env := newTestEnv(t, ctrl, generousRules())
			adminID, userID := uuid.New(), uuid.New()
			env.expectAuthenticated(adminID, tt.role)

			path := tt.path
			if path == "" {
				path = "/api/v1/admin/users/" + userID.String() + "/status"
			}
			if tt.wantCall {
				env.admin.EXPECT().UpdateUserStatus(gomock.Any(), adminID, userID, tt.wantActive).
					Return(models.User{UserID: userID, IsActive: tt.wantActive}, tt.err)
			}

			rec := env.do(http.MethodPatch, path, tt.body, validToken)

			assert.Equal(t, tt.wantStatus, rec.Code)
		})
	}
}

func TestUpdateUserRole(t *testing.T) {
	tests := []struct {
		name       string
		body       any
		err        error
		wantCall   bool
		wantStatus int
	}{
		{name: "promote", body: models.UpdateUserRoleRequest{Role: "MODERATOR"}, wantCall: true, wantStatus: http.StatusOK},
		{name: "own role", body: models.UpdateUserRoleRequest{Role: "MODERATOR"}, err: service.ErrSelfRoleChange, wantCall: true, wantStatus: http.StatusForbidden},
		{name: "unknown role", body: models.UpdateUserRoleRequest{Role: "ROOT"}, wantStatus: http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			defer ctrl.Finish()

			env := newTestEnv(t, ctrl, generousRules())
			adminID, userID := uuid.New(), uuid.New()
			env.expectAuthenticated(adminID, models.RoleAdmin)

			if tt.wantCall {
				env.admin.EXPECT().UpdateUserRole(gomock.Any(), adminID, userID, models.RoleModerator).
					Return(models.User{UserID: userID, PlatformRole: models.RoleModerator}, tt.err)
			}

			rec := env.do(http.MethodPatch, "/api/v1/admin/users/"+userID.String()+"/role", tt.body, validToken)

			require.Equal(t, tt.wantStatus, rec.Code)
			if tt.wantStatus == http.StatusOK {
				var got models.User
				require.NoError(t, json.Unmarshal(decodeEnvelope(t, rec).Data, &got))
				assert.Equal(t, models.RoleModerator, got.PlatformRole)
			}
		})
	}
}
