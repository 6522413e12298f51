package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"careerHubAPI/internal/logger"
	"careerHubAPI/internal/types/leaderboard"
)

const ResumeathonKey = "leaderboard:resumeathon"

// LeaderboardCache stores the ranked, caller-independent entry list.
// Entries are tagged with a generation; Invalidate advances it, so a build
// that read the generation before an invalidation never becomes visible.
type LeaderboardCache interface {
	Generation(ctx context.Context) (int64, error)
	// Get reports false on a miss.
	Get(ctx context.Context) ([]*leaderboard.RankEntry, bool, error)
	Set(ctx context.Context, gen int64, entries []*leaderboard.RankEntry) error
	Invalidate(ctx context.Context) error
}

type RedisLeaderboardCache struct {
	log *logger.Logger
	rdb *goredis.Client
	key string
	ttl time.Duration
}

// Connect dials addr and pings it.
func Connect(ctx context.Context, addr string) (*goredis.Client, error) {
	if addr == "" {
		return nil, errors.New("missing redis address")
	}
	rdb := goredis.NewClient(&goredis.Options{
		Addr:        addr,
		DialTimeout: 5 * time.Second,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return rdb, nil
}

func NewRedisLeaderboardCache(log *logger.Logger, rdb *goredis.Client, ttl time.Duration) *RedisLeaderboardCache {
	return &RedisLeaderboardCache{
		log: log.With("service", "LeaderboardCache"),
		rdb: rdb,
		key: ResumeathonKey,
		ttl: ttl,
	}
}

func (c *RedisLeaderboardCache) genKey() string { return c.key + ":gen" }

func (c *RedisLeaderboardCache) entriesKey(gen int64) string {
	return c.key + ":" + strconv.FormatInt(gen, 10)
}

func (c *RedisLeaderboardCache) Generation(ctx context.Context) (int64, error) {
	gen, err := c.rdb.Get(ctx, c.genKey()).Int64()
	if errors.Is(err, goredis.Nil) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("redis get generation: %w", err)
	}
	return gen, nil
}

func (c *RedisLeaderboardCache) Get(ctx context.Context) ([]*leaderboard.RankEntry, bool, error) {
	gen, err := c.Generation(ctx)
	if err != nil {
		return nil, false, err
	}
	key := c.entriesKey(gen)

	raw, err := c.rdb.Get(ctx, key).Bytes()
	if errors.Is(err, goredis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("redis get: %w", err)
	}

	var entries []*leaderboard.RankEntry
	if err := json.Unmarshal(raw, &entries); err != nil {
		c.log.Warn("dropping undecodable leaderboard cache entry", "error", err)
		_ = c.rdb.Del(ctx, key).Err()
		return nil, false, nil
	}
	return entries, true, nil
}

// Set stores entries under gen. Entries of an older generation are written to
// a key no reader looks at and expire with the TTL.
func (c *RedisLeaderboardCache) Set(ctx context.Context, gen int64, entries []*leaderboard.RankEntry) error {
	raw, err := json.Marshal(entries)
	if err != nil {
		return fmt.Errorf("encode leaderboard: %w", err)
	}
	if err := c.rdb.Set(ctx, c.entriesKey(gen), raw, c.ttl).Err(); err != nil {
		return fmt.Errorf("redis set: %w", err)
	}
	return nil
}

func (c *RedisLeaderboardCache) Invalidate(ctx context.Context) error {
	if err := c.rdb.Incr(ctx, c.genKey()).Err(); err != nil {
		return fmt.Errorf("redis incr generation: %w", err)
	}
	return nil
}
