package http

import (
	"net/http"

	"github.com/MKhiriev/go-auth-gate/internal/utils"
)

func (h *Handler) getServerVersion(w http.ResponseWriter, r *http.Request) {
	serverVersion := h.services.AppInfoService.GetAppVersion(r.Context())

	w.Header().Set("Content-Type", "text/plain")
	w.Write([]byte(serverVersion))
}

func (h *Handler) getBuildInfo(w http.ResponseWriter, r *http.Request) {
	utils.WriteSuccess(w, http.StatusOK, "", h.services.AppInfoService.GetBuildInfo(r.Context()))
}
