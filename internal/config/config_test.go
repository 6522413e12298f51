package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func lookupFrom(env map[string]string) func(string) (string, bool) {
	return func(name string) (string, bool) {
		v, ok := env[name]
		return v, ok
	}
}

func TestFromLookupDefaults(t *testing.T) {
	cfg, err := FromLookup(lookupFrom(map[string]string{
		"DATABASE_URL":     "postgres://localhost/careerhub",
		"CLERK_SECRET_KEY": "sk_test_x",
	}))
	require.NoError(t, err)

	assert.Equal(t, "3333", cfg.Port)
	assert.Equal(t, time.UTC, cfg.Location)
	assert.Equal(t, 60*time.Second, cfg.LeaderboardCacheTTL)
	assert.Equal(t, 5*time.Minute, cfg.LeaderboardRefreshInterval)
	assert.Equal(t, int32(25), cfg.DBMaxConns)
	assert.Equal(t, 5.0, cfg.RateLimitRPS)
	assert.Equal(t, 30, cfg.RateLimitBurst)
	assert.Equal(t, defaultSyntheticPatterns, cfg.SyntheticEmailPatterns)
	assert.Equal(t, []string{"*"}, cfg.AllowedOrigins)
	assert.False(t, cfg.IsProduction())
}

func TestFromLookupOverrides(t *testing.T) {
	cfg, err := FromLookup(lookupFrom(map[string]string{
		"APP_ENV":                  "production",
		"DATABASE_URL":             "postgres://db/careerhub",
		"CLERK_SECRET_KEY":         "sk_live_x",
		"APP_TIMEZONE":             "Asia/Kolkata",
		"LEADERBOARD_CACHE_TTL":    "2m",
		"SYNTHETIC_EMAIL_PATTERNS": " @Fake.io , qa+ ,",
		"DB_MAX_CONNS":             "10",
	}))
	require.NoError(t, err)

	assert.True(t, cfg.IsProduction())
	assert.Equal(t, "Asia/Kolkata", cfg.Location.String())
	assert.Equal(t, 2*time.Minute, cfg.LeaderboardCacheTTL)
	assert.Equal(t, []string{"@fake.io", "qa+"}, cfg.SyntheticEmailPatterns)
	assert.Equal(t, int32(10), cfg.DBMaxConns)
}

func TestFromLookupErrors(t *testing.T) {
	base := map[string]string{
		"DATABASE_URL":     "postgres://localhost/careerhub",
		"CLERK_SECRET_KEY": "sk_test_x",
	}
	tests := []struct {
		name  string
		key   string
		value string
	}{
		{"missing database url", "DATABASE_URL", ""},
		{"missing clerk key", "CLERK_SECRET_KEY", ""},
		{"bad timezone", "APP_TIMEZONE", "Mars/Olympus"},
		{"bad ttl", "LEADERBOARD_CACHE_TTL", "soon"},
		{"negative interval", "LEADERBOARD_REFRESH_INTERVAL", "-1m"},
		{"bad max conns", "DB_MAX_CONNS", "zero"},
		{"bad rps", "RATE_LIMIT_RPS", "0"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := map[string]string{}
			for k, v := range base {
				env[k] = v
			}
			env[tt.key] = tt.value
			_, err := FromLookup(lookupFrom(env))
			assert.Error(t, err)
		})
	}
}
