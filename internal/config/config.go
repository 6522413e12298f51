package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
	_ "time/tzdata"

	"github.com/joho/godotenv"
)

var defaultSyntheticPatterns = []string{"@example.com", "@test.", "+test", "noreply", "demo"}

type Config struct {
	Env  string
	Port string

	DatabaseURL string
	DBMaxConns  int32

	ClerkSecretKey     string
	ClerkWebhookSecret string

	// Location defines calendar days for streaks and the calendar view.
	Location *time.Location

	RedisAddr                  string
	LeaderboardCacheTTL        time.Duration
	LeaderboardRefreshInterval time.Duration
	SyntheticEmailPatterns     []string

	GoogleCloudProject  string
	GoogleCloudLocation string
	VertexModel         string
	FCMCredentialsFile  string
	// FCMCredentialsJSON is a base64 service account key; it wins over the file.
	FCMCredentialsJSON string

	MetricsUser string
	MetricsPass string
	PprofSecret string

	AllowedOrigins []string

	RateLimitRPS   float64
	RateLimitBurst int
}

// Load reads a local .env file when present, then builds the config from the
// process environment.
func Load() (*Config, error) {
	_ = godotenv.Load()
	return FromLookup(os.LookupEnv)
}

// FromLookup builds a Config from any env-style lookup function.
func FromLookup(lookup func(string) (string, bool)) (*Config, error) {
	get := func(name, def string) string {
		if v, ok := lookup(name); ok && strings.TrimSpace(v) != "" {
			return strings.TrimSpace(v)
		}
		return def
	}

	cfg := &Config{
		Env:                 get("APP_ENV", "development"),
		Port:                get("PORT", "3333"),
		DatabaseURL:         get("DATABASE_URL", ""),
		ClerkSecretKey:      get("CLERK_SECRET_KEY", ""),
		ClerkWebhookSecret:  get("CLERK_WEBHOOK_SECRET", ""),
		RedisAddr:           get("REDIS_ADDR", ""),
		GoogleCloudProject:  get("GOOGLE_CLOUD_PROJECT", ""),
		GoogleCloudLocation: get("GOOGLE_CLOUD_LOCATION", "us-central1"),
		VertexModel:         get("VERTEX_MODEL", "gemini-1.5-flash"),
		FCMCredentialsFile:  get("FCM_CREDENTIALS_FILE", "./serviceAccountKey.json"),
		FCMCredentialsJSON:  get("FCM_SERVICE_ACCOUNT_JSON", ""),
		MetricsUser:         get("METRICS_USER", ""),
		MetricsPass:         get("METRICS_PASS", ""),
		PprofSecret:         get("PPROF_SECRET", ""),
		AllowedOrigins:      splitList(get("CORS_ALLOWED_ORIGINS", "*")),
	}

	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL environment variable is not set")
	}
	if cfg.ClerkSecretKey == "" {
		return nil, fmt.Errorf("CLERK_SECRET_KEY environment variable is not set")
	}

	loc, err := time.LoadLocation(get("APP_TIMEZONE", "UTC"))
	if err != nil {
		return nil, fmt.Errorf("invalid APP_TIMEZONE: %w", err)
	}
	cfg.Location = loc

	if cfg.LeaderboardCacheTTL, err = parseDuration(get("LEADERBOARD_CACHE_TTL", "60s")); err != nil {
		return nil, fmt.Errorf("invalid LEADERBOARD_CACHE_TTL: %w", err)
	}
	if cfg.LeaderboardRefreshInterval, err = parseDuration(get("LEADERBOARD_REFRESH_INTERVAL", "5m")); err != nil {
		return nil, fmt.Errorf("invalid LEADERBOARD_REFRESH_INTERVAL: %w", err)
	}

	maxConns, err := strconv.Atoi(get("DB_MAX_CONNS", "25"))
	if err != nil || maxConns <= 0 {
		return nil, fmt.Errorf("invalid DB_MAX_CONNS %q", get("DB_MAX_CONNS", ""))
	}
	cfg.DBMaxConns = int32(maxConns)

	if cfg.RateLimitRPS, err = strconv.ParseFloat(get("RATE_LIMIT_RPS", "5"), 64); err != nil || cfg.RateLimitRPS <= 0 {
		return nil, fmt.Errorf("invalid RATE_LIMIT_RPS %q", get("RATE_LIMIT_RPS", ""))
	}
	if cfg.RateLimitBurst, err = strconv.Atoi(get("RATE_LIMIT_BURST", "30")); err != nil || cfg.RateLimitBurst <= 0 {
		return nil, fmt.Errorf("invalid RATE_LIMIT_BURST %q", get("RATE_LIMIT_BURST", ""))
	}

	cfg.SyntheticEmailPatterns = splitList(get("SYNTHETIC_EMAIL_PATTERNS", ""))
	if len(cfg.SyntheticEmailPatterns) == 0 {
		cfg.SyntheticEmailPatterns = append([]string(nil), defaultSyntheticPatterns...)
	}

	return cfg, nil
}

func (c *Config) IsProduction() bool {
	switch strings.ToLower(c.Env) {
	case "prod", "production":
		return true
	}
	return false
}

func parseDuration(s string) (time.Duration, error) {
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, err
	}
	if d <= 0 {
		return 0, fmt.Errorf("must be positive, got %s", s)
	}
	return d, nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.ToLower(strings.TrimSpace(part)); p != "" {
			out = append(out, p)
		}
	}
	return out
}
