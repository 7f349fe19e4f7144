package config

import (
	"log/slog"
	"os"
	"strconv"
	"time"

	"github.com/shopspring/decimal"
)

// Config holds all application configuration loaded from environment variables.
type Config struct {
	DatabaseURL          string
	HTTPPort             string
	BaseCurrency         string
	RateCacheTTL         time.Duration
	CoinGeckoURL         string
	CoinGeckoAPIKey      string
	OracleDelay          time.Duration
	OracleTimeout        time.Duration
	CoinGeckoRetryMax    int
	RateWorkerInterval   time.Duration
	ReportWorkerInterval time.Duration
	AdminAPIKey          string
	GoogleSheetsID       string
	GoogleCredentials    string
	DefaultTolerance     decimal.Decimal
}

// Load reads configuration from environment variables with sensible defaults.
func Load() Config {
	return Config{
		DatabaseURL:          envOrDefaultWarn("DATABASE_URL", ""),
		HTTPPort:             envOrDefault("HTTP_PORT", "8080"),
		BaseCurrency:         envOrDefault("BASE_CURRENCY", "EUR"),
		RateCacheTTL:         envOrDefaultDuration("RATE_CACHE_TTL", 10*time.Minute),
		CoinGeckoURL:         envOrDefault("COINGECKO_URL", "https://api.coingecko.com/api/v3"),
		CoinGeckoAPIKey:      os.Getenv("COINGECKO_API_KEY"),
		OracleDelay:          envOrDefaultDuration("ORACLE_DELAY", time.Second),
		OracleTimeout:        envOrDefaultDuration("ORACLE_TIMEOUT", 30*time.Second),
		CoinGeckoRetryMax:    envOrDefaultInt("COINGECKO_RETRY_MAX", 3),
		RateWorkerInterval:   envOrDefaultDuration("RATE_WORKER_INTERVAL", time.Hour),
		ReportWorkerInterval: envOrDefaultDuration("REPORT_WORKER_INTERVAL", 24*time.Hour),
		AdminAPIKey:          os.Getenv("ADMIN_API_KEY"),
		GoogleSheetsID:       os.Getenv("GOOGLE_SHEETS_ID"),
		GoogleCredentials:    os.Getenv("GOOGLE_CREDENTIALS_JSON"),
		DefaultTolerance:     envOrDefaultDecimal("DEFAULT_TOLERANCE", decimal.NewFromInt(2)),
	}
}

func envOrDefault(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

func envOrDefaultWarn(key, defaultVal string) string {
	v := envOrDefault(key, defaultVal)
	if v == "" {
		slog.Warn("required env var not set", "key", key)
	}
	return v
}

func envOrDefaultInt(key string, defaultVal int) int {
	if v := os.Getenv(key); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			slog.Warn("invalid integer env var, using default", "key", key, "value", v, "default", defaultVal)
			return defaultVal
		}
		return n
	}
	return defaultVal
}

func envOrDefaultDuration(key string, defaultVal time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			slog.Warn("invalid duration env var, using default", "key", key, "value", v, "default", defaultVal)
			return defaultVal
		}
		return d
	}
	return defaultVal
}

func envOrDefaultDecimal(key string, defaultVal decimal.Decimal) decimal.Decimal {
	if v := os.Getenv(key); v != "" {
		d, err := decimal.NewFromString(v)
		if err != nil || d.IsNegative() {
			slog.Warn("invalid decimal env var, using default", "key", key, "value", v, "default", defaultVal.String())
			return defaultVal
		}
		return d
	}
	return defaultVal
}
