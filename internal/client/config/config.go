// Package config loads client-side configuration from the environment.
package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds client runtime settings.
type Config struct {
	ServerURL               string
	DBPath                  string
	HTTPTimeoutSeconds      int
	BackstopIntervalSeconds int
	LogLevel                string
}

// Load reads client configuration from environment variables.
func Load() *Config {
	_ = godotenv.Load()

	return &Config{
		ServerURL:               getEnv("FINERP_SERVER_URL", "http://127.0.0.1:8080"),
		DBPath:                  getEnv("FINERP_DB_PATH", "financeerp-client.db"),
		HTTPTimeoutSeconds:      getEnvAsInt("FINERP_HTTP_TIMEOUT_SECONDS", 15),
		BackstopIntervalSeconds: getEnvAsInt("FINERP_BACKSTOP_INTERVAL_SECONDS", 300),
		LogLevel:                getEnv("FINERP_LOG_LEVEL", "info"),
	}
}

// HTTPTimeout returns the bound applied to every API round trip.
func (c *Config) HTTPTimeout() time.Duration {
	return time.Duration(c.HTTPTimeoutSeconds) * time.Second
}

// BackstopInterval returns the local credential re-check period.
func (c *Config) BackstopInterval() time.Duration {
	return time.Duration(c.BackstopIntervalSeconds) * time.Second
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(val)
	if err != nil {
		return fallback
	}
	return parsed
}
