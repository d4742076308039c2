package main

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds the server configuration loaded from environment variables.
type Config struct {
	// Server
	Port     string
	LogLevel string // debug, info, warn, error

	// Provider selection
	Provider string
	Model    string

	// API Keys
	AnthropicKey string
	OpenAIKey    string
	GoogleKey    string

	// Run config
	Timeout   time.Duration
	Strict    bool
	CacheSize int
}

// LoadConfig loads configuration from environment variables.
// It loads a .env file if present (silent fail if not found).
func LoadConfig() (*Config, error) {
	godotenv.Load() // Load .env file if present

	cfg := &Config{
		Port:         getEnvOrDefault("STRAND_PORT", "8000"),
		LogLevel:     getEnvOrDefault("STRAND_LOG_LEVEL", "info"),
		Provider:     getEnvOrDefault("STRAND_PROVIDER", "anthropic"),
		Model:        os.Getenv("STRAND_MODEL"),
		AnthropicKey: os.Getenv("ANTHROPIC_API_KEY"),
		OpenAIKey:    os.Getenv("OPENAI_API_KEY"),
		GoogleKey:    os.Getenv("GOOGLE_API_KEY"),
		Timeout:      getEnvDurationOrDefault("STRAND_TIMEOUT", 2*time.Minute),
		Strict:       getEnvBoolOrDefault("STRAND_STRICT", false),
		CacheSize:    getEnvIntOrDefault("STRAND_CACHE_SIZE", 256),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks that required configuration is present.
func (c *Config) Validate() error {
	switch c.Provider {
	case "anthropic":
		if c.AnthropicKey == "" {
			return fmt.Errorf("ANTHROPIC_API_KEY is required when STRAND_PROVIDER=anthropic")
		}
	case "openai":
		if c.OpenAIKey == "" {
			return fmt.Errorf("OPENAI_API_KEY is required when STRAND_PROVIDER=openai")
		}
	case "google":
		if c.GoogleKey == "" {
			return fmt.Errorf("GOOGLE_API_KEY is required when STRAND_PROVIDER=google")
		}
	default:
		return fmt.Errorf("unknown provider %q: must be anthropic, openai, or google", c.Provider)
	}

	if c.CacheSize < 0 {
		return fmt.Errorf("STRAND_CACHE_SIZE must not be negative")
	}

	return nil
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvIntOrDefault(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
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
