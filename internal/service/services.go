package service

import (
	"fmt"

	"github.com/MKhiriev/go-auth-gate/internal/config"
	"github.com/MKhiriev/go-auth-gate/internal/store"
	"github.com/MKhiriev/go-auth-gate/models"
)

// Services bundles everything the transport layer calls into.
type Services struct {
	AuthService      AuthService
	UserService      UserService
	AdminService     AdminService
	TwoFactorService TwoFactorService
	AppInfoService   AppInfoService

	// RateLimiter is shared with the request-gating middleware.
	RateLimiter *RateLimiter
	Auditor     Auditor
	Notifier    Notifier
}

func NewServices(storages *store.Storages, cfg *config.StructuredConfig, mailer Mailer, buildInfo models.AppBuildInfo) (*Services, error) {
	hasher, err := NewPasswordHasher(cfg.Auth.BcryptCost)
	if err != nil {
		return nil, fmt.Errorf("error creating password hasher: %w", err)
	}

	twoFactor := NewTwoFactorService(storages.TwoFactorRepository, storages.UserRepository, hasher, cfg.Auth)
	limiter := NewRateLimiter(storages.Cache, cfg.RateLimit.Rules())

	deps := Dependencies{
		Users:       storages.UserRepository,
		Sessions:    storages.SessionRepository,
		Cache:       storages.Cache,
		TwoFactor:   twoFactor,
		Attempts:    NewLoginAttemptTracker(storages.Cache, cfg.Auth),
		Revocations: NewRevocationList(storages.Cache),
		Limiter:     limiter,
		Tokens:      NewTokenIssuer(cfg.Auth),
		Hasher:      hasher,
		Auditor:     NewAuditRecorder(storages.AuditRepository, cfg.Storage.CallTimeout),
		Notifier:    NewEmailNotifier(mailer, cfg.Mailer.Timeout),
	}

	return &Services{
		AuthService:      NewAuthService(deps, cfg.Auth),
		UserService:      NewUserService(deps, cfg.Auth),
		AdminService:     NewAdminService(deps),
		TwoFactorService: twoFactor,
		AppInfoService:   NewAppInfoService(buildInfo),
		RateLimiter:      limiter,
		Auditor:          deps.Auditor,
		Notifier:         deps.Notifier,
	}, nil
}

// Wait drains pending audit writes and email hand-offs.
func (s *Services) Wait() {
	s.Auditor.Wait()
	s.Notifier.Wait()
}
