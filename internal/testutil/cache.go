package testutil

import (
	"context"
	"sync"

	"careerHubAPI/internal/cache"
	"careerHubAPI/internal/types/leaderboard"
)

var _ cache.LeaderboardCache = (*MemoryLeaderboardCache)(nil)

// MemoryLeaderboardCache is a LeaderboardCache without expiry.
type MemoryLeaderboardCache struct {
	mu      sync.Mutex
	entries []*leaderboard.RankEntry
	present bool
	gen     int64

	GetErr error

	Gets, Sets, Invalidations int
}

func (c *MemoryLeaderboardCache) Generation(ctx context.Context) (int64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.gen, nil
}

func (c *MemoryLeaderboardCache) Get(ctx context.Context) ([]*leaderboard.RankEntry, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.Gets++
	if c.GetErr != nil {
		return nil, false, c.GetErr
	}
	return c.entries, c.present, nil
}

// Set ignores entries built for a generation that has since been
// invalidated.
func (c *MemoryLeaderboardCache) Set(ctx context.Context, gen int64, entries []*leaderboard.RankEntry) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.Sets++
	if gen != c.gen {
		return nil
	}
	c.entries = entries
	c.present = true
	return nil
}

func (c *MemoryLeaderboardCache) Invalidate(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.Invalidations++
	c.gen++
	c.entries = nil
	c.present = false
	return nil
}

// Present reports whether a value is cached.
func (c *MemoryLeaderboardCache) Present() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.present
}
