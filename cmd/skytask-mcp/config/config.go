package config

import (
	"log"
	"os"
	"strconv"
	"time"
)

// Defaults applied when the corresponding environment variable is unset or
// unparsable.
const (
	DefaultBaseURL        = "https://api.skytask.io/v1"
	DefaultHTTPTimeout    = 30 * time.Second
	DefaultRetryAttempts  = 3
	DefaultRetryBaseDelay = 1000 * time.Millisecond
)

// Config carries everything the transport client needs. The API key is the
// only value without a default; its absence is reported by the client before
// any network I/O.
type Config struct {
	APIKey         string
	BaseURL        string
	HTTPTimeout    time.Duration
	RetryAttempts  int
	RetryBaseDelay time.Duration
}

// Load reads configuration from the environment, falling back to defaults.
func Load() Config {
	return Config{
		APIKey:         os.Getenv("SKYTASK_API_KEY"),
		BaseURL:        getEnvOrDefault("SKYTASK_API_URL", DefaultBaseURL),
		HTTPTimeout:    envDuration("SKYTASK_HTTP_TIMEOUT", DefaultHTTPTimeout),
		RetryAttempts:  envInt("SKYTASK_RETRY_ATTEMPTS", DefaultRetryAttempts),
		RetryBaseDelay: envDuration("SKYTASK_RETRY_BASE_DELAY", DefaultRetryBaseDelay),
	}
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func envInt(key string, defaultValue int) int {
	raw := os.Getenv(key)
	if raw == "" {
		return defaultValue
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v <= 0 {
		log.Printf("ignoring invalid %s=%q, using %d", key, raw, defaultValue)
		return defaultValue
	}
	return v
}

func envDuration(key string, defaultValue time.Duration) time.Duration {
	raw := os.Getenv(key)
	if raw == "" {
		return defaultValue
	}
	v, err := time.ParseDuration(raw)
	if err != nil || v <= 0 {
		log.Printf("ignoring invalid %s=%q, using %v", key, raw, defaultValue)
		return defaultValue
	}
	return v
}
