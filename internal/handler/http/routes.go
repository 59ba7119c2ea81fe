package http

import (
	"github.com/MKhiriev/go-auth-gate/models"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

func (h *Handler) Init() *chi.Mux {
	router := chi.NewRouter()
	router.Use(middleware.Recoverer, middleware.RealIP, h.withTraceID, h.withClientIP, h.withLogging)

	router.NotFound(h.notFound)
	router.MethodNotAllowed(h.notFound)

	router.Route("/api/v1", func(r chi.Router) {
		r.With(h.withRateLimit(models.RateLimitGeneral)).Get("/version", h.getServerVersion)

		// routes without authorization
		r.Route("/auth", func(r chi.Router) {
			r.Use(h.withRateLimit(models.RateLimitAuth))

			r.Post("/register", h.register)
			r.Post("/login", h.login)
			r.Post("/login/2fa", h.loginWithTwoFactor)
			r.Post("/refresh", h.refresh)
			r.Post("/logout", h.logout)
			r.Get("/verify/{token}", h.verifyEmail)
			r.Post("/resend-verification", h.resendVerification)
			r.Post("/forgot-password", h.forgotPassword)
			r.Post("/reset-password", h.resetPassword)
			r.Put("/activate", h.activate)
		})

		r.Route("/users/me", func(r chi.Router) {
			r.Use(h.auth, h.withRateLimit(models.RateLimitGeneral))

			r.Get("/", h.me)
			r.Put("/", h.updateProfile)
			r.Delete("/", h.deleteMe)
			r.Put("/password", h.changePassword)
			r.Post("/email", h.requestEmailChange)
			r.Post("/logout-all", h.logoutAllDevices)

			r.Get("/2fa/status", h.twoFactorStatus)
			r.Post("/2fa/setup", h.twoFactorSetup)
			r.Post("/2fa/enable", h.twoFactorEnable)
			r.Post("/2fa/disable", h.twoFactorDisable)
		})

		// the token in the link is the only credential
		r.With(h.withRateLimit(models.RateLimitGeneral)).Get("/users/email/confirm/{token}", h.confirmEmailChange)

		r.Route("/admin", func(r chi.Router) {
			r.Use(h.auth, h.withRateLimit(models.RateLimitGeneral), h.requireRole(models.RoleAdmin))

			r.Get("/build-info", h.getBuildInfo)
			r.Patch("/users/{id}/status", h.updateUserStatus)
			r.Patch("/users/{id}/role", h.updateUserRole)
		})
	})

	return router
}
