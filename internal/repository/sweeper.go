package repository

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/Rrens/pdf-chat/internal/domain"
	"github.com/Rrens/pdf-chat/internal/metrics"
)

// RunSweeper purges expired sessions every interval until ctx is done.
// Backends that expire keys themselves do not implement domain.ExpirySweeper
// and need no sweeper.
func RunSweeper(ctx context.Context, sweeper domain.ExpirySweeper, interval time.Duration, m *metrics.Metrics) {
	if interval <= 0 {
		return
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			SweepOnce(ctx, sweeper, m)
		}
	}
}

// SweepOnce runs a single purge and records how many sessions were removed
func SweepOnce(ctx context.Context, sweeper domain.ExpirySweeper, m *metrics.Metrics) int {
	n, err := sweeper.DeleteExpired(ctx)
	if err != nil {
		log.Error().Err(err).Msg("Failed to sweep expired sessions")
		return 0
	}
	if n > 0 {
		log.Info().Int("count", n).Msg("Expired sessions removed")
		if m != nil {
			m.SessionsExpired.Add(float64(n))
		}
	}
	return n
}
