package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
)

type Config struct {
	Port         string
	BackendURL   string
	BackendToken string
	DatabaseURL  string

	JWTSecret             string
	DashboardUser         string
	DashboardPasswordHash string
	AllowedOrigins        []string
	IsDemo                bool

	LogLevel  string
	LogFormat string

	HTTPTimeout time.Duration
	HTTPRetries int

	MarketStale       time.Duration
	FXStale           time.Duration
	BudgetStale       time.Duration
	TransactionsStale time.Duration
	RefreshInterval   time.Duration
	CacheMaxItems     int64
}

// AuthEnabled reports whether the dashboard API requires a login.
func (c Config) AuthEnabled() bool {
	return c.DashboardPasswordHash != ""
}

func Load() Config {
	// Load .env file if present
	_ = godotenv.Load()

	cfg := Config{
		Port:                  getEnv("PORT", "8080"),
		BackendURL:            strings.TrimRight(getEnv("BACKEND_URL", "http://localhost:8000"), "/"),
		BackendToken:          getEnv("BACKEND_TOKEN", ""),
		DatabaseURL:           getEnv("DATABASE_URL", ""),
		JWTSecret:             getEnv("JWT_SECRET", ""),
		DashboardUser:         getEnv("DASHBOARD_USER", "admin"),
		DashboardPasswordHash: getEnv("DASHBOARD_PASSWORD_HASH", ""),
		AllowedOrigins:        splitList(getEnv("ALLOWED_ORIGINS", "http://localhost:3000")),
		IsDemo:                getBool("DEMO_MODE", false),
		LogLevel:              getEnv("LOG_LEVEL", "info"),
		LogFormat:             getEnv("LOG_FORMAT", "json"),
		HTTPTimeout:           getDuration("HTTP_TIMEOUT", 15*time.Second),
		HTTPRetries:           getInt("HTTP_RETRIES", 2),
		MarketStale:           getDuration("MARKET_STALE", 5*time.Minute),
		FXStale:               getDuration("FX_STALE", time.Hour),
		BudgetStale:           getDuration("BUDGET_STALE", time.Minute),
		TransactionsStale:     getDuration("TRANSACTIONS_STALE", 24*time.Hour),
		RefreshInterval:       getDuration("REFRESH_INTERVAL", time.Minute),
		CacheMaxItems:         int64(getInt("CACHE_MAX_ITEMS", 10000)),
	}

	if cfg.AuthEnabled() && cfg.JWTSecret == "" {
		log.Fatal().Msg("JWT_SECRET is required when DASHBOARD_PASSWORD_HASH is set")
	}

	return cfg
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func getDuration(key string, fallback time.Duration) time.Duration {
	raw, ok := os.LookupEnv(key)
	if !ok || raw == "" {
		return fallback
	}
	d, err := time.ParseDuration(raw)
	if err != nil || d <= 0 {
		log.Warn().Str("key", key).Str("value", raw).Dur("default", fallback).Msg("invalid duration, using default")
		return fallback
	}
	return d
}

func getInt(key string, fallback int) int {
	raw, ok := os.LookupEnv(key)
	if !ok || raw == "" {
		return fallback
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		log.Warn().Str("key", key).Str("value", raw).Int("default", fallback).Msg("invalid integer, using default")
		return fallback
	}
	return n
}

func getBool(key string, fallback bool) bool {
	raw, ok := os.LookupEnv(key)
	if !ok || raw == "" {
		return fallback
	}
	b, err := strconv.ParseBool(raw)
	if err != nil {
		log.Warn().Str("key", key).Str("value", raw).Msg("invalid boolean, using default")
		return fallback
	}
	return b
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
