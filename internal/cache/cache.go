package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/MKhiriev/go-auth-gate/internal/config"
	"github.com/MKhiriev/go-auth-gate/internal/logger"
)

// New builds the cache selected by cfg.Backend.
func New(ctx context.Context, cfg config.Cache, callTimeout time.Duration, log *logger.Logger) (Cache, error) {
	switch cfg.Backend {
	case config.CacheBackendRedis:
		return NewRedisCache(ctx, cfg, callTimeout, log)
	case config.CacheBackendMemory, "":
		log.Warn().Str("func", "cache.New").Msg("using in-memory cache; lockouts and revocations are not shared between instances")
		return NewMemoryCache(), nil
	default:
		return nil, fmt.Errorf("unknown cache backend %q", cfg.Backend)
	}
}
