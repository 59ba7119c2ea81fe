// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package config

import (
	"errors"
	"fmt"
)

// minSignKeyLength is the minimum HS256 key size in bytes.
const minSignKeyLength = 32

// validate checks that the final merged [StructuredConfig] satisfies all
// application invariants before it is used at startup.
//
// Returns nil if the configuration is valid, or every violation joined
// into a single error otherwise.
func (cfg *StructuredConfig) validate() error {
	var errs []error

	if len(cfg.Auth.TokenSignKey) < minSignKeyLength {
		errs = append(errs, fmt.Errorf("%w: token sign key must be at least %d bytes", ErrInvalidAuthConfigs, minSignKeyLength))
	}
	if cfg.Auth.MaxFailedAttempts < 1 {
		errs = append(errs, fmt.Errorf("%w: max failed attempts must be positive", ErrInvalidAuthConfigs))
	}

	if cfg.Storage.DB.DSN == "" {
		errs = append(errs, fmt.Errorf("%w: database DSN is required", ErrInvalidStorageConfigs))
	}

	switch cfg.Cache.Backend {
	case CacheBackendRedis:
		if cfg.Cache.Address == "" {
			errs = append(errs, fmt.Errorf("%w: redis backend requires an address", ErrInvalidCacheConfigs))
		}
	case CacheBackendMemory:
	default:
		errs = append(errs, fmt.Errorf("%w: unknown backend %q", ErrInvalidCacheConfigs, cfg.Cache.Backend))
	}

	if cfg.Server.HTTPAddress == "" && cfg.Server.GRPCAddress == "" {
		errs = append(errs, fmt.Errorf("%w: at least one server address is required", ErrInvalidServerConfigs))
	}

	for class, rule := range cfg.RateLimit.Rules() {
		if rule.Capacity < 1 || rule.Period <= 0 {
			errs = append(errs, fmt.Errorf("%w: class %s needs positive capacity and period", ErrInvalidRateLimitConfigs, class))
		}
	}

	switch cfg.Mailer.Backend {
	case MailerBackendWebhook:
		if cfg.Mailer.WebhookURL == "" {
			errs = append(errs, fmt.Errorf("%w: webhook backend requires a URL", ErrInvalidMailerConfigs))
		}
	case MailerBackendQueue:
		if cfg.Cache.Backend != CacheBackendRedis {
			errs = append(errs, fmt.Errorf("%w: queue backend requires the redis cache", ErrInvalidMailerConfigs))
		}
	case MailerBackendLog:
	default:
		errs = append(errs, fmt.Errorf("%w: unknown backend %q", ErrInvalidMailerConfigs, cfg.Mailer.Backend))
	}

	return errors.Join(errs...)
}
