// Package config loads command configuration from the environment.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/spetersoncode/relay/settings"
)

// Config holds configuration loaded from environment variables.
type Config struct {
	// Credentials
	APIKeys string // API_KEY; when set the credential store is locked

	// Settings storage
	SettingsBackend string
	SettingsPath    string
	RedisURL        string
	RedisPrefix     string

	// Requests
	Model            string
	Timeout          time.Duration
	IsolatedRotation bool

	// Observability
	LogLevel    string // debug, info, warn, error
	MetricsAddr string
}

// Load loads configuration from environment variables.
// It loads a .env file if present (silent fail if not found).
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		APIKeys:          os.Getenv("API_KEY"),
		SettingsBackend:  strings.ToLower(getEnvOrDefault("RELAY_SETTINGS", settings.BackendMemory)),
		SettingsPath:     getEnvOrDefault("RELAY_SETTINGS_PATH", settings.DefaultFilePath),
		RedisURL:         os.Getenv("RELAY_REDIS_URL"),
		RedisPrefix:      getEnvOrDefault("RELAY_REDIS_PREFIX", settings.DefaultRedisPrefix),
		Model:            os.Getenv("RELAY_MODEL"),
		Timeout:          getEnvDurationOrDefault("RELAY_TIMEOUT", 2*time.Minute),
		IsolatedRotation: getEnvBoolOrDefault("RELAY_ISOLATED_ROTATION", false),
		LogLevel:         getEnvOrDefault("RELAY_LOG_LEVEL", "info"),
		MetricsAddr:      os.Getenv("RELAY_METRICS_ADDR"),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks that the configuration is usable.
func (c *Config) Validate() error {
	switch c.SettingsBackend {
	case settings.BackendMemory:
	case settings.BackendFile:
		if c.SettingsPath == "" {
			return fmt.Errorf("RELAY_SETTINGS_PATH is required for the file settings backend")
		}
	case settings.BackendRedis:
		if c.RedisURL == "" {
			return fmt.Errorf("RELAY_REDIS_URL is required for the redis settings backend")
		}
	default:
		return fmt.Errorf("unknown settings backend: %s (must be memory, file, or redis)", c.SettingsBackend)
	}

	if c.Timeout <= 0 {
		return fmt.Errorf("RELAY_TIMEOUT must be positive, got %s", c.Timeout)
	}

	return nil
}

// SettingsOptions returns the options for settings.Open.
func (c *Config) SettingsOptions() settings.Options {
	return settings.Options{
		Backend:     c.SettingsBackend,
		Path:        c.SettingsPath,
		RedisURL:    c.RedisURL,
		RedisPrefix: c.RedisPrefix,
	}
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}

func getEnvBoolOrDefault(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}
