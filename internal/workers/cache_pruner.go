package workers

import (
	"context"
	"time"

	"github.com/MKhiriev/go-auth-gate/internal/logger"
)

// CachePruner periodically removes expired keys and idle rate-limit buckets
// from the in-process cache.
type CachePruner struct {
	cache    Pruner
	interval time.Duration
	logger   *logger.Logger
}

func NewCachePruner(cache Pruner, interval time.Duration, logger *logger.Logger) *CachePruner {
	return &CachePruner{
		cache:    cache,
		interval: interval,
		logger:   logger,
	}
}

func (p *CachePruner) Run(ctx context.Context) {
	if p.interval <= 0 {
		p.logger.Warn().Str("func", "CachePruner.Run").Msg("prune interval is not positive, pruner disabled")
		return
	}

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if removed := p.cache.Prune(); removed > 0 {
				p.logger.Debug().Int("removed", removed).Msg("stale cache keys pruned")
			}
		}
	}
}
