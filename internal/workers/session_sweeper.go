package workers

import (
	"context"
	"time"

	"github.com/MKhiriev/go-auth-gate/internal/logger"
)

// SessionSweeper periodically purges refresh sessions past their expiry.
// Expired sessions are already rejected on refresh; this only reclaims rows.
type SessionSweeper struct {
	sessions ExpiredSessionDeleter
	interval time.Duration
	logger   *logger.Logger
}

func NewSessionSweeper(sessions ExpiredSessionDeleter, interval time.Duration, logger *logger.Logger) *SessionSweeper {
	return &SessionSweeper{
		sessions: sessions,
		interval: interval,
		logger:   logger,
	}
}

func (s *SessionSweeper) Run(ctx context.Context) {
	if s.interval <= 0 {
		s.logger.Warn().Str("func", "SessionSweeper.Run").Msg("sweep interval is not positive, sweeper disabled")
		return
	}

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.sweep(ctx)
		}
	}
}

func (s *SessionSweeper) sweep(ctx context.Context) {
	deleted, err := s.sessions.DeleteExpired(ctx)
	if err != nil {
		s.logger.Err(err).Str("func", "SessionSweeper.sweep").Msg("error deleting expired sessions")
		return
	}

	if deleted > 0 {
		s.logger.Info().Int64("deleted", deleted).Msg("expired sessions removed")
	}
}
