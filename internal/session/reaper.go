package session

import (
	"context"
	"time"

	"github.com/rs/zerolog"
)

// Reaper drops in-memory sessions that have gone idle. Persisted snapshots
// survive reaping, so an evicted quiz can still be resumed later.
type Reaper struct {
	manager  *Manager
	interval time.Duration
	maxIdle  time.Duration
	logger   zerolog.Logger
}

func NewReaper(manager *Manager, interval, maxIdle time.Duration, logger zerolog.Logger) *Reaper {
	if interval <= 0 {
		interval = 10 * time.Minute
	}
	if maxIdle <= 0 {
		maxIdle = 2 * time.Hour
	}
	return &Reaper{
		manager:  manager,
		interval: interval,
		maxIdle:  maxIdle,
		logger:   logger.With().Str("component", "session_reaper").Logger(),
	}
}

// Run prunes idle sessions until the context is canceled.
func (r *Reaper) Run(ctx context.Context) error {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if pruned := r.manager.PruneIdle(r.maxIdle); pruned > 0 {
				r.logger.Info().Int("pruned", pruned).Msg("idle sessions reaped")
			}
		}
	}
}
