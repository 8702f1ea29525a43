package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"
)

const defaultJWTSecret = "dev-secret-change-in-production"

type Config struct {
	Host     string
	Port     string
	Env      string
	LogLevel slog.Level

	// Storage selects the account backend: "mysql" or "memory".
	Storage     string
	DatabaseDSN string
	RedisURL    string

	JWTSecret string
	JWTExpiry time.Duration

	CountryInfoTTL  time.Duration
	NewsTTL         time.Duration
	UpstreamTimeout time.Duration
	CacheMaxEntries int

	RestCountriesURL  string
	GNewsURL          string
	GNewsAPIKey       string
	NewsRatePerMinute int
}

// IsProduction reports whether ENV is "production".
func (c Config) IsProduction() bool {
	return c.Env == "production"
}

func Load() Config {
	cfg := Config{
		Host:        getEnv("HOST", "0.0.0.0"),
		Port:        getEnv("PORT", "5000"),
		Env:         getEnv("ENV", "development"),
		LogLevel:    getLogLevel("LOG_LEVEL", slog.LevelInfo),
		Storage:     strings.ToLower(getEnv("STORAGE", "mysql")),
		DatabaseDSN: getEnv("DATABASE_DSN", "root:password@tcp(127.0.0.1:3306)/travelglobe?parseTime=true"),
		RedisURL:    os.Getenv("REDIS_URL"),

		JWTSecret: getEnv("JWT_SECRET", defaultJWTSecret),
		JWTExpiry: getDuration("JWT_EXPIRES_IN", 7*24*time.Hour),

		CountryInfoTTL:  getDuration("COUNTRY_INFO_TTL", 24*time.Hour),
		NewsTTL:         getDuration("NEWS_TTL", 30*time.Minute),
		UpstreamTimeout: getDuration("UPSTREAM_TIMEOUT", 8*time.Second),
		CacheMaxEntries: getInt("CACHE_MAX_ENTRIES", 1024),

		RestCountriesURL:  os.Getenv("REST_COUNTRIES_URL"),
		GNewsURL:          os.Getenv("GNEWS_URL"),
		GNewsAPIKey:       os.Getenv("GNEWS_API_KEY"),
		NewsRatePerMinute: getInt("NEWS_RATE_PER_MINUTE", 2),
	}

	if cfg.IsProduction() && cfg.JWTSecret == defaultJWTSecret {
		slog.Error("JWT_SECRET must be set in production environment")
		os.Exit(1)
	}

	return cfg
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getDuration(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	d, err := ParseDuration(v)
	if err != nil || d <= 0 {
		slog.Warn("ignoring invalid duration", "key", key, "value", v)
		return fallback
	}
	return d
}

func getInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		slog.Warn("ignoring invalid integer", "key", key, "value", v)
		return fallback
	}
	return n
}

func getLogLevel(key string, fallback slog.Level) slog.Level {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	var level slog.Level
	if err := level.UnmarshalText([]byte(v)); err != nil {
		slog.Warn("ignoring invalid log level", "key", key, "value", v)
		return fallback
	}
	return level
}

// ParseDuration accepts Go durations ("36h", "90m") and whole days ("7d").
func ParseDuration(s string) (time.Duration, error) {
	s = strings.TrimSpace(s)
	if days, ok := strings.CutSuffix(s, "d"); ok {
		n, err := strconv.Atoi(days)
		if err != nil {
			return 0, fmt.Errorf("invalid day count %q", s)
		}
		return time.Duration(n) * 24 * time.Hour, nil
	}
	return time.ParseDuration(s)
}
