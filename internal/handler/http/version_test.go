package http

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/mock/gomock"
)

func TestGetServerVersion(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	env := newTestEnv(t, ctrl, generousRules())
	env.appInfo.EXPECT().GetAppVersion(gomock.Any()).Return("2.5.1")

	rec := env.do(http.MethodGet, "/api/v1/version", nil, "")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/plain", rec.Header().Get("Content-Type"))
	assert.Equal(t, "2.5.1", rec.Body.String())
}
