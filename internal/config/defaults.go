package config

import "time"

const (
	defaultAppName           = "go-auth-gate"
	defaultLogLevel          = "info"
	defaultTokenIssuer       = "go-auth-gate"
	defaultAccessTokenTTL    = 900 * time.Second
	defaultPendingTokenTTL   = 300 * time.Second
	defaultRefreshTokenTTL   = 720 * time.Hour
	defaultPasswordResetTTL  = 2 * time.Hour
	defaultEmailChangeTTL    = 2 * time.Hour
	defaultMaxFailedAttempts = 5
	defaultLockoutDuration   = 15 * time.Minute
	defaultAttemptWindow     = 30 * time.Minute
	defaultTOTPIssuer        = "go-auth-gate"
	defaultTOTPSkew          = 1
	defaultBcryptCost        = 10
	defaultCallTimeout       = 500 * time.Millisecond
	defaultRequestTimeout    = 10 * time.Second
	defaultMailerQueue       = "email:queue"
	defaultMailerTimeout     = 2 * time.Second
	defaultSweepInterval     = time.Hour
	defaultPruneInterval     = time.Minute
)

var defaultAudience = []string{"web-app", "mobile-app"}

// applyDefaults fills every field left at its zero value after merging.
func (cfg *StructuredConfig) applyDefaults() {
	setDefault(&cfg.App.Name, defaultAppName)
	setDefault(&cfg.App.LogLevel, defaultLogLevel)

	a := &cfg.Auth
	setDefault(&a.TokenIssuer, defaultTokenIssuer)
	if len(a.TokenAudience) == 0 {
		a.TokenAudience = append([]string(nil), defaultAudience...)
	}
	setDefault(&a.AccessTokenTTL, defaultAccessTokenTTL)
	setDefault(&a.PendingTokenTTL, defaultPendingTokenTTL)
	setDefault(&a.RefreshTokenTTL, defaultRefreshTokenTTL)
	setDefault(&a.PasswordResetTTL, defaultPasswordResetTTL)
	setDefault(&a.EmailChangeTTL, defaultEmailChangeTTL)
	setDefault(&a.MaxFailedAttempts, defaultMaxFailedAttempts)
	setDefault(&a.LockoutDuration, defaultLockoutDuration)
	setDefault(&a.AttemptWindow, defaultAttemptWindow)
	setDefault(&a.TOTPIssuer, defaultTOTPIssuer)
	setDefault(&a.TOTPSkew, defaultTOTPSkew)
	setDefault(&a.BcryptCost, defaultBcryptCost)

	setDefault(&cfg.Storage.CallTimeout, defaultCallTimeout)
	setDefault(&cfg.Cache.Backend, CacheBackendMemory)
	setDefault(&cfg.Server.RequestTimeout, defaultRequestTimeout)

	rl := &cfg.RateLimit
	setDefaultRule(&rl.Auth, 10, time.Minute)
	setDefaultRule(&rl.General, 100, time.Minute)
	setDefaultRule(&rl.PasswordReset, 3, time.Hour)
	setDefaultRule(&rl.VerificationResend, 5, time.Hour)
	setDefaultRule(&rl.ProfileUpdate, 10, time.Hour)
	setDefaultRule(&rl.TwoFactorLogin, 5, 5*time.Minute)

	setDefault(&cfg.Mailer.Backend, MailerBackendLog)
	setDefault(&cfg.Mailer.QueueName, defaultMailerQueue)
	setDefault(&cfg.Mailer.Timeout, defaultMailerTimeout)

	setDefault(&cfg.Workers.SweepInterval, defaultSweepInterval)
	setDefault(&cfg.Workers.PruneInterval, defaultPruneInterval)
}

func setDefault[T comparable](field *T, value T) {
	var zero T
	if *field == zero {
		*field = value
	}
}

func setDefaultRule(rule *RateLimitRule, capacity int64, period time.Duration) {
	setDefault(&rule.Capacity, capacity)
	setDefault(&rule.Period, period)
}
