package http

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/MKhiriev/go-auth-gate/internal/service"
	"github.com/MKhiriev/go-auth-gate/internal/utils"
	"github.com/MKhiriev/go-auth-gate/models"
	"github.com/google/uuid"
)

const (
	rateLimitRemainingHeader = "X-Rate-Limit-Remaining"
	retryAfterHeader         = "Retry-After"
)

// withRateLimit takes one token from the caller's bucket of class, keyed by
// client IP. Rejections answer 429 with Retry-After and are audited.
func (h *Handler) withRateLimit(class models.RateLimitClass) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			ip := utils.ClientIPFromContext(ctx)

			decision, err := h.services.RateLimiter.TryConsume(ctx, ip, class)
			if err != nil {
				writeError(w, r, err)
				return
			}

			if !decision.Allowed {
				var actor *uuid.UUID
				if id, ok := utils.GetUserIDFromContext(ctx); ok {
					actor = &id
				}
				h.services.Auditor.Record(ctx, actor, models.AuditRateLimitExceeded,
					fmt.Sprintf("class=%s path=%s", class, r.URL.Path))

				writeError(w, r, service.RateLimited(time.Duration(decision.RetryAfterSeconds())*time.Second))
				return
			}

			w.Header().Set(rateLimitRemainingHeader, strconv.FormatInt(decision.Remaining, 10))
			next.ServeHTTP(w, r)
		})
	}
}
