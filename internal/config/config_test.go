package config

import (
	"os"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	// Clear any env vars that might affect defaults
	for _, key := range []string{"DATABASE_URL", "COINGECKO_URL", "HTTP_PORT", "BASE_CURRENCY", "RATE_CACHE_TTL",
		"ORACLE_DELAY", "ORACLE_TIMEOUT", "COINGECKO_RETRY_MAX", "DEFAULT_TOLERANCE"} {
		t.Setenv(key, "")
		os.Unsetenv(key)
	}

	cfg := Load()

	if cfg.DatabaseURL != "" {
		t.Errorf("DatabaseURL = %q, want empty", cfg.DatabaseURL)
	}
	if cfg.CoinGeckoURL != "https://api.coingecko.com/api/v3" {
		t.Errorf("CoinGeckoURL = %q, want default", cfg.CoinGeckoURL)
	}
	if cfg.BaseCurrency != "EUR" {
		t.Errorf("BaseCurrency = %q, want EUR", cfg.BaseCurrency)
	}
	if cfg.RateCacheTTL != 10*time.Minute {
		t.Errorf("RateCacheTTL = %v, want 10m", cfg.RateCacheTTL)
	}
	if cfg.OracleDelay != time.Second {
		t.Errorf("OracleDelay = %v, want 1s", cfg.OracleDelay)
	}
	if cfg.OracleTimeout != 30*time.Second {
		t.Errorf("OracleTimeout = %v, want 30s", cfg.OracleTimeout)
	}
	if cfg.CoinGeckoRetryMax != 3 {
		t.Errorf("CoinGeckoRetryMax = %d, want 3", cfg.CoinGeckoRetryMax)
	}
	if cfg.DefaultTolerance.String() != "2" {
		t.Errorf("DefaultTolerance = %s, want 2", cfg.DefaultTolerance)
	}
	if cfg.HTTPPort != "8080" {
		t.Errorf("HTTPPort = %q, want 8080", cfg.HTTPPort)
	}
}

func TestLoadEnvOverride(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/testdb")
	t.Setenv("HTTP_PORT", "9090")
	t.Setenv("BASE_CURRENCY", "USD")
	t.Setenv("RATE_CACHE_TTL", "5m")
	t.Setenv("ORACLE_DELAY", "250ms")
	t.Setenv("COINGECKO_RETRY_MAX", "10")
	t.Setenv("DEFAULT_TOLERANCE", "1.5")

	cfg := Load()

	if cfg.DatabaseURL != "postgres://localhost/testdb" {
		t.Errorf("DatabaseURL = %q, want override", cfg.DatabaseURL)
	}
	if cfg.HTTPPort != "9090" {
		t.Errorf("HTTPPort = %q, want 9090", cfg.HTTPPort)
	}
	if cfg.BaseCurrency != "USD" {
		t.Errorf("BaseCurrency = %q, want USD", cfg.BaseCurrency)
	}
	if cfg.RateCacheTTL != 5*time.Minute {
		t.Errorf("RateCacheTTL = %v, want 5m", cfg.RateCacheTTL)
	}
	if cfg.OracleDelay != 250*time.Millisecond {
		t.Errorf("OracleDelay = %v, want 250ms", cfg.OracleDelay)
	}
	if cfg.CoinGeckoRetryMax != 10 {
		t.Errorf("CoinGeckoRetryMax = %d, want 10", cfg.CoinGeckoRetryMax)
	}
	if cfg.DefaultTolerance.String() != "1.5" {
		t.Errorf("DefaultTolerance = %s, want 1.5", cfg.DefaultTolerance)
	}
}

func TestLoadInvalidEnvFallsBackToDefault(t *testing.T) {
	t.Setenv("COINGECKO_RETRY_MAX", "not-a-number")
	t.Setenv("ORACLE_DELAY", "invalid-duration")
	t.Setenv("DEFAULT_TOLERANCE", "-3")

	cfg := Load()

	if cfg.CoinGeckoRetryMax != 3 {
		t.Errorf("CoinGeckoRetryMax = %d, want default 3 on invalid input", cfg.CoinGeckoRetryMax)
	}
	if cfg.OracleDelay != time.Second {
		t.Errorf("OracleDelay = %v, want default 1s on invalid input", cfg.OracleDelay)
	}
	if cfg.DefaultTolerance.String() != "2" {
		t.Errorf("DefaultTolerance = %s, want default 2 on invalid input", cfg.DefaultTolerance)
	}
}
