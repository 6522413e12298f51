// Package workers holds the periodic background jobs.
package workers

import (
	"context"
	"time"

	"careerHubAPI/internal/logger"
)

// Refresher rebuilds a cached view.
type Refresher interface {
	Refresh(ctx context.Context) error
}

// RunLeaderboardRefresher rebuilds the leaderboard every interval until ctx
// is cancelled. It runs once immediately so a cold cache is warmed at boot.
func RunLeaderboardRefresher(ctx context.Context, log *logger.Logger, r Refresher, interval time.Duration) {
	if interval <= 0 {
		interval = 5 * time.Minute
	}
	log = log.With("worker", "leaderboard_refresher")

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	refresh(ctx, log, r)
	for {
		select {
		case <-ticker.C:
			refresh(ctx, log, r)
		case <-ctx.Done():
			log.Info("leaderboard refresher stopped")
			return
		}
	}
}

func refresh(ctx context.Context, log *logger.Logger, r Refresher) {
	runCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	start := time.Now()
	if err := r.Refresh(runCtx); err != nil {
		log.Warn("leaderboard refresh failed", "error", err)
		return
	}
	log.Debug("leaderboard refreshed", "took", time.Since(start))
}
