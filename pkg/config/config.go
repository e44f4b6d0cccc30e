// Package config loads PulseFeed's environment configuration (spec.md §6).
package config

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
)

// Config holds every environment-derived setting the server needs to start.
type Config struct {
	ClickHouseURL      string
	ClickHouseUser     string
	ClickHousePassword string
	ClickHouseDatabase string
	RedisURL           string
	BindAddr           string
}

// Load reads a local .env file if present (missing is not an error — a
// deployed environment sets real env vars directly) and then reads the
// required variables from the process environment, applying the spec's
// documented defaults where one exists.
func Load() (Config, error) {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		return Config{}, fmt.Errorf("loading .env: %w", err)
	}

	cfg := Config{
		ClickHouseURL:      os.Getenv("CLICKHOUSE_URL"),
		ClickHouseUser:     os.Getenv("CLICKHOUSE_USER"),
		ClickHousePassword: os.Getenv("CLICKHOUSE_PASSWORD"),
		ClickHouseDatabase: os.Getenv("CLICKHOUSE_DATABASE"),
		RedisURL:           os.Getenv("REDIS_URL"),
		BindAddr:           os.Getenv("BIND_ADDR"),
	}
	if cfg.BindAddr == "" {
		cfg.BindAddr = "0.0.0.0:3001"
	}

	var missing []string
	if cfg.ClickHouseURL == "" {
		missing = append(missing, "CLICKHOUSE_URL")
	}
	if cfg.RedisURL == "" {
		missing = append(missing, "REDIS_URL")
	}
	if len(missing) > 0 {
		return Config{}, fmt.Errorf("config: missing required env vars: %v", missing)
	}
	return cfg, nil
}
