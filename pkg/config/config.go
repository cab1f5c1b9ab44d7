package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/formlane/visor/pkg/ledger"
)

// Config holds all engine configuration.
type Config struct {
	// FallbackAdminRoleID confirms admin status when the role listing is
	// forbidden to the session. Deployment-specific; empty disables the
	// fallback.
	FallbackAdminRoleID string

	// BadgeBatchSize bounds concurrent per-form count fetches.
	BadgeBatchSize int

	// LedgerWriteMode selects the view-event durability policy.
	LedgerWriteMode ledger.WriteMode

	// Panel detection cache sizing.
	PanelCacheSize int
	PanelCacheTTL  time.Duration

	// Optional viewed-store backends. Empty means the platform record API
	// backs the ledger.
	RedisURL    string
	PostgresURL string

	LogLevel string
}

// Default returns the built-in defaults without consulting the environment.
func Default() *Config {
	return &Config{
		BadgeBatchSize:  5,
		LedgerWriteMode: ledger.Optimistic,
		PanelCacheSize:  512,
		LogLevel:        "info",
	}
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	cfg := &Config{
		FallbackAdminRoleID: getEnv("VISOR_FALLBACK_ADMIN_ROLE_ID", ""),
		BadgeBatchSize:      getEnvInt("VISOR_BADGE_BATCH_SIZE", 5),
		LedgerWriteMode:     ledger.WriteMode(getEnv("VISOR_LEDGER_WRITE_MODE", string(ledger.Optimistic))),
		PanelCacheSize:      getEnvInt("VISOR_PANEL_CACHE_SIZE", 512),
		PanelCacheTTL:       getEnvDuration("VISOR_PANEL_CACHE_TTL", 0),
		RedisURL:            getEnv("VISOR_REDIS_URL", ""),
		PostgresURL:         getEnv("VISOR_POSTGRES_URL", ""),
		LogLevel:            getEnv("VISOR_LOG_LEVEL", "info"),
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return cfg, nil
}

// Validate checks configuration consistency.
func (c *Config) Validate() error {
	if c.BadgeBatchSize <= 0 {
		return fmt.Errorf("badge batch size must be positive, got %d", c.BadgeBatchSize)
	}
	if c.PanelCacheSize <= 0 {
		return fmt.Errorf("panel cache size must be positive, got %d", c.PanelCacheSize)
	}
	switch c.LedgerWriteMode {
	case ledger.Optimistic, ledger.Strict:
	default:
		return fmt.Errorf("invalid ledger write mode %q", c.LedgerWriteMode)
	}
	switch c.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("invalid log level %q", c.LogLevel)
	}
	if c.RedisURL != "" && c.PostgresURL != "" {
		return fmt.Errorf("at most one of VISOR_REDIS_URL and VISOR_POSTGRES_URL may be set")
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if parsed, err := time.ParseDuration(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}
