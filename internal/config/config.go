// Package config loads process configuration from the environment.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

type Config struct {
	// Storage
	DatabaseURL string

	// HTTP surface
	ListenAddr string

	// Fetch settings
	SourcesConfigPath string // optional YAML override for the feed list
	FeedTimeout       time.Duration
	ArticleMaxAge     time.Duration

	// Image hunt settings
	HuntTimeout       time.Duration
	HuntsPerSource    int
	HuntRatePerSecond int

	Debug bool
}

func Load() (*Config, error) {
	cfg := &Config{
		ListenAddr:        ":8080",
		FeedTimeout:       10 * time.Second,
		ArticleMaxAge:     14 * 24 * time.Hour,
		HuntTimeout:       5 * time.Second,
		HuntsPerSource:    10,
		HuntRatePerSecond: 4,
	}

	cfg.DatabaseURL = os.Getenv("DATABASE_URL")
	cfg.SourcesConfigPath = os.Getenv("SOURCES_CONFIG_PATH")

	if addr := os.Getenv("LISTEN_ADDR"); addr != "" {
		cfg.ListenAddr = addr
	}
	if v := getEnvIntOrDefault("FEED_TIMEOUT_SECONDS", 0); v > 0 {
		cfg.FeedTimeout = time.Duration(v) * time.Second
	}
	if v := getEnvIntOrDefault("ARTICLE_MAX_AGE_DAYS", 0); v > 0 {
		cfg.ArticleMaxAge = time.Duration(v) * 24 * time.Hour
	}
	if v := getEnvIntOrDefault("HUNT_TIMEOUT_SECONDS", 0); v > 0 {
		cfg.HuntTimeout = time.Duration(v) * time.Second
	}
	if v := getEnvIntOrDefault("HUNTS_PER_SOURCE", 0); v > 0 {
		cfg.HuntsPerSource = v
	}
	if v := getEnvIntOrDefault("HUNT_RATE_PER_SECOND", 0); v > 0 {
		cfg.HuntRatePerSecond = v
	}
	if os.Getenv("DEBUG") == "true" {
		cfg.Debug = true
	}

	return cfg, cfg.Validate()
}

func getEnvIntOrDefault(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func (c *Config) Validate() error {
	if c.DatabaseURL == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}
	return nil
}
