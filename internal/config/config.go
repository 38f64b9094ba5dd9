// Package config provides application configuration.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all application configuration. It is loaded once at startup
// and passed explicitly to components; nothing reads the environment after
// Load returns.
type Config struct {
	Port           string
	BackendURL     string
	BackendAPIKey  string
	AgentToken     string
	AllowedOrigins []string
	Timeout        TimeoutConfig
}

// TimeoutConfig groups the fixed request deadlines.
type TimeoutConfig struct {
	BackendRequest time.Duration
	HealthCheck    time.Duration
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	backendTimeout := getEnvInt("BACKEND_TIMEOUT", 30)
	if backendTimeout <= 0 {
		backendTimeout = 30
	}

	cfg := &Config{
		Port:           getEnv("PORT", "8080"),
		BackendURL:     getEnv("BACKEND_URL", ""),
		BackendAPIKey:  getEnv("BACKEND_API_KEY", ""),
		AgentToken:     getEnv("AGENT_TOKEN", ""),
		AllowedOrigins: splitOrigins(getEnv("CORS_ALLOWED_ORIGINS", "*")),
		Timeout: TimeoutConfig{
			BackendRequest: time.Duration(backendTimeout) * time.Second,
			HealthCheck:    5 * time.Second,
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// Validate checks that all required configuration fields are set.
func (c *Config) Validate() error {
	if c.Port == "" {
		return fmt.Errorf("PORT cannot be empty")
	}
	if c.BackendURL == "" {
		return fmt.Errorf("BACKEND_URL cannot be empty")
	}
	if !strings.HasPrefix(c.BackendURL, "http://") && !strings.HasPrefix(c.BackendURL, "https://") {
		return fmt.Errorf("BACKEND_URL must be an http(s) URL")
	}
	if c.BackendAPIKey == "" {
		return fmt.Errorf("BACKEND_API_KEY cannot be empty")
	}
	if c.AgentToken == "" {
		return fmt.Errorf("AGENT_TOKEN cannot be empty")
	}
	return nil
}

func splitOrigins(value string) []string {
	parts := strings.Split(value, ",")
	origins := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			origins = append(origins, p)
		}
	}
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	return origins
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	value, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	n, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil {
		return fallback
	}
	return n
}
