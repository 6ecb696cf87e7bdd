// Package config loads service configuration from the environment.
package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
)

// Config holds the service configuration.
type Config struct {
	// Port the HTTP server listens on.
	Port string

	// Env names the deployment environment (development, staging,
	// production). Free-form; it only tags telemetry and logs.
	Env string

	// LogLevel is a zerolog level name (trace, debug, info, ...).
	LogLevel string

	// LogFormat selects json (default) or console output.
	LogFormat string

	// DataDir holds the rasters and georeference file.
	DataDir string

	// DatabaseURL is a postgres:// connection string. Empty means no
	// database: scenario presets are kept in memory.
	DatabaseURL string

	// OTELEnabled turns on OTLP export of traces and metrics.
	OTELEnabled bool

	// OTLPEndpoint is the OTLP gRPC collector address.
	OTLPEndpoint string
}

// Load reads configuration from the environment with defaults. An
// optional .env file is read first; real environment variables win
// over file values.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	cfg := &Config{
		Port:         getenvDefault("APP_PORT", "8080"),
		Env:          getenvDefault("APP_ENV", "development"),
		LogLevel:     getenvDefault("LOG_LEVEL", "info"),
		LogFormat:    getenvDefault("LOG_FORMAT", "json"),
		DataDir:      getenvDefault("DATA_DIR", "data"),
		DatabaseURL:  os.Getenv("DATABASE_URL"),
		OTELEnabled:  os.Getenv("OTEL_ENABLED") == "true",
		OTLPEndpoint: getenvDefault("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4317"),
	}

	if port, err := strconv.Atoi(cfg.Port); err != nil || port < 1 || port > 65535 {
		return nil, fmt.Errorf("invalid APP_PORT %q", cfg.Port)
	}
	if _, err := zerolog.ParseLevel(cfg.LogLevel); err != nil {
		return nil, fmt.Errorf("invalid LOG_LEVEL %q: %w", cfg.LogLevel, err)
	}
	if cfg.LogFormat != "json" && cfg.LogFormat != "console" {
		return nil, fmt.Errorf("invalid LOG_FORMAT %q (want json or console)", cfg.LogFormat)
	}

	return cfg, nil
}

// Level returns the parsed zerolog level. Load validated it.
func (c *Config) Level() zerolog.Level {
	level, err := zerolog.ParseLevel(c.LogLevel)
	if err != nil {
		return zerolog.InfoLevel
	}
	return level
}

func getenvDefault(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}
