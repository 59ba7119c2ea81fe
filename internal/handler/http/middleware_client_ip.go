package http

import (
	"net"
	"net/http"

	"github.com/MKhiriev/go-auth-gate/internal/utils"
)

// withClientIP stores the caller's address, without the port, in the request
// context. It runs after chi's RealIP, so proxy headers are already applied
// to RemoteAddr.
func (h *Handler) withClientIP(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ip := r.RemoteAddr
		if host, _, err := net.SplitHostPort(ip); err == nil {
			ip = host
		}

		next.ServeHTTP(w, r.WithContext(utils.WithClientIP(r.Context(), ip)))
	})
}
