// Package config loads service configuration from environment variables.
package config

import (
	"os"
	"strconv"
	"time"
)

// Config holds all service-level settings. Tenant behavior (batch sizes,
// caps, targets) lives in the database, not here.
type Config struct {
	Port        string
	DatabaseURL string

	// ProviderMode selects the external-collaborator implementations:
	// "mock" for local development and tests.
	ProviderMode string
	// ProviderRPS throttles outbound provider calls; 0 disables throttling.
	ProviderRPS   float64
	ProviderBurst int

	LogLevel       string
	MigrateOnStart bool

	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// Load reads configuration from environment variables with defaults.
func Load() Config {
	return Config{
		Port:           envStr("PORT", "8080"),
		DatabaseURL:    envStr("DATABASE_URL", ""),
		ProviderMode:   envStr("PROVIDER_MODE", "mock"),
		ProviderRPS:    envFloat("PROVIDER_RPS", 2),
		ProviderBurst:  envInt("PROVIDER_BURST", 1),
		LogLevel:       envStr("LOG_LEVEL", "info"),
		MigrateOnStart: envBool("MIGRATE_ON_START", true),
		ReadTimeout:    envDuration("READ_TIMEOUT", 30*time.Second),
		WriteTimeout:   envDuration("WRITE_TIMEOUT", 120*time.Second),
	}
}

func envStr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func envInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

func envFloat(key string, def float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return def
}

func envBool(key string, def bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return def
}

func envDuration(key string, def time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}
