package config

import (
	"encoding/json"
	"fmt"
	"os"
	"time"
)

type jsonRateLimitRule struct {
	Capacity int64    `json:"capacity"`
	Period   Duration `json:"period"`
}

func (r jsonRateLimitRule) toRule() RateLimitRule {
	return RateLimitRule{Capacity: r.Capacity, Period: time.Duration(r.Period)}
}

// StructuredJSONConfig mirrors [StructuredConfig] with JSON tags and
// human-readable durations ("15m", "720h").
type StructuredJSONConfig struct {
	App struct {
		Name     string `json:"name"`
		LogLevel string `json:"log_level"`
	} `json:"app,omitempty"`

	Auth struct {
		TokenSignKey      string   `json:"token_sign_key"`
		TokenIssuer       string   `json:"token_issuer"`
		TokenAudience     []string `json:"token_audience"`
		AccessTokenTTL    Duration `json:"access_token_ttl"`
		PendingTokenTTL   Duration `json:"pending_token_ttl"`
		RefreshTokenTTL   Duration `json:"refresh_token_ttl"`
		PasswordResetTTL  Duration `json:"password_reset_ttl"`
		EmailChangeTTL    Duration `json:"email_change_ttl"`
		MaxFailedAttempts int      `json:"max_failed_attempts"`
		LockoutDuration   Duration `json:"lockout_duration"`
		AttemptWindow     Duration `json:"attempt_window"`
		TOTPIssuer        string   `json:"totp_issuer"`
		TOTPSkew          uint     `json:"totp_skew"`
		BcryptCost        int      `json:"bcrypt_cost"`
	} `json:"auth,omitempty"`

	Storage struct {
		DB struct {
			DSN          string `json:"dsn"`
			MaxOpenConns int    `json:"max_open_conns"`
		} `json:"db,omitempty"`
		CallTimeout Duration `json:"call_timeout"`
	} `json:"storage,omitempty"`

	Cache struct {
		Backend  string `json:"backend"`
		Address  string `json:"address"`
		Password string `json:"password"`
		DB       int    `json:"db"`
	} `json:"cache,omitempty"`

	Server struct {
		HTTPAddress    string   `json:"http_address"`
		GRPCAddress    string   `json:"grpc_address"`
		RequestTimeout Duration `json:"request_timeout"`
	} `json:"server,omitempty"`

	RateLimit struct {
		Auth               jsonRateLimitRule `json:"auth"`
		General            jsonRateLimitRule `json:"general"`
		PasswordReset      jsonRateLimitRule `json:"password_reset"`
		VerificationResend jsonRateLimitRule `json:"verification_resend"`
		ProfileUpdate      jsonRateLimitRule `json:"profile_update"`
		TwoFactorLogin     jsonRateLimitRule `json:"two_factor_login"`
	} `json:"rate_limit,omitempty"`

	Mailer struct {
		Backend    string   `json:"backend"`
		QueueName  string   `json:"queue_name"`
		WebhookURL string   `json:"webhook_url"`
		Timeout    Duration `json:"timeout"`
	} `json:"mailer,omitempty"`

	Workers struct {
		SweepInterval Duration `json:"sweep_interval"`
		PruneInterval Duration `json:"prune_interval"`
	} `json:"workers,omitempty"`
}

func parseJSON(jsonFilePath string) (*StructuredConfig, error) {
	jsonFile, err := os.Open(jsonFilePath)
	if err != nil {
		return nil, fmt.Errorf("error reading a json file: %w", err)
	}
	defer jsonFile.Close()

	var j StructuredJSONConfig
	if err := json.NewDecoder(jsonFile).Decode(&j); err != nil {
		return nil, fmt.Errorf("error decoding json configs: %w", err)
	}

	cfg := &StructuredConfig{
		App: App{
			Name:     j.App.Name,
			LogLevel: j.App.LogLevel,
		},
		Auth: Auth{
			TokenSignKey:      j.Auth.TokenSignKey,
			TokenIssuer:       j.Auth.TokenIssuer,
			TokenAudience:     j.Auth.TokenAudience,
			AccessTokenTTL:    time.Duration(j.Auth.AccessTokenTTL),
			PendingTokenTTL:   time.Duration(j.Auth.PendingTokenTTL),
			RefreshTokenTTL:   time.Duration(j.Auth.RefreshTokenTTL),
			PasswordResetTTL:  time.Duration(j.Auth.PasswordResetTTL),
			EmailChangeTTL:    time.Duration(j.Auth.EmailChangeTTL),
			MaxFailedAttempts: j.Auth.MaxFailedAttempts,
			LockoutDuration:   time.Duration(j.Auth.LockoutDuration),
			AttemptWindow:     time.Duration(j.Auth.AttemptWindow),
			TOTPIssuer:        j.Auth.TOTPIssuer,
			TOTPSkew:          j.Auth.TOTPSkew,
			BcryptCost:        j.Auth.BcryptCost,
		},
		Storage: Storage{
			DB: DB{
				DSN:          j.Storage.DB.DSN,
				MaxOpenConns: j.Storage.DB.MaxOpenConns,
			},
			CallTimeout: time.Duration(j.Storage.CallTimeout),
		},
		Cache: Cache{
			Backend:  j.Cache.Backend,
			Address:  j.Cache.Address,
			Password: j.Cache.Password,
			DB:       j.Cache.DB,
		},
		Server: Server{
			HTTPAddress:    j.Server.HTTPAddress,
			GRPCAddress:    j.Server.GRPCAddress,
			RequestTimeout: time.Duration(j.Server.RequestTimeout),
		},
		RateLimit: RateLimit{
			Auth:               j.RateLimit.Auth.toRule(),
			General:            j.RateLimit.General.toRule(),
			PasswordReset:      j.RateLimit.PasswordReset.toRule(),
			VerificationResend: j.RateLimit.VerificationResend.toRule(),
			ProfileUpdate:      j.RateLimit.ProfileUpdate.toRule(),
			TwoFactorLogin:     j.RateLimit.TwoFactorLogin.toRule(),
		},
		Mailer: Mailer{
			Backend:    j.Mailer.Backend,
			QueueName:  j.Mailer.QueueName,
			WebhookURL: j.Mailer.WebhookURL,
			Timeout:    time.Duration(j.Mailer.Timeout),
		},
		Workers: Workers{
			SweepInterval: time.Duration(j.Workers.SweepInterval),
			PruneInterval: time.Duration(j.Workers.PruneInterval),
		},
	}

	return cfg, nil
}

// Duration is a wrapper around time.Duration that supports JSON unmarshaling from strings like "1h", "30s"
type Duration time.Duration

func (d *Duration) UnmarshalJSON(b []byte) error {
	var v interface{}
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}

	switch value := v.(type) {
	case float64:
		*d = Duration(time.Duration(value))
		return nil
	case string:
		tmp, err := time.ParseDuration(value)
		if err != nil {
			return err
		}
		*d = Duration(tmp)
		return nil
	default:
		return json.Unmarshal(b, (*time.Duration)(d))
	}
}

func (d Duration) MarshalJSON() ([]byte, error) {
	return json.Marshal(time.Duration(d).String())
}
