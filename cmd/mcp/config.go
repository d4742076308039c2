package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
)

// Config holds the MCP server configuration, loaded from environment
// variables.
type Config struct {
	// Provider selects the completion provider: anthropic, openai, or google.
	Provider string

	// Model overrides the provider's default model when set.
	Model string

	// AnthropicKey is the Anthropic API key.
	AnthropicKey string

	// OpenAIKey is the OpenAI API key.
	OpenAIKey string

	// GoogleKey is the Google API key.
	GoogleKey string
}

// LoadConfig reads configuration from the environment, consulting a .env
// file if one exists.
func LoadConfig() (*Config, error) {
	// Load .env file if present (ignore error if not found)
	_ = godotenv.Load()

	cfg := &Config{
		Provider:     getEnvOrDefault("STRAND_PROVIDER", "anthropic"),
		Model:        os.Getenv("STRAND_MODEL"),
		AnthropicKey: os.Getenv("ANTHROPIC_API_KEY"),
		OpenAIKey:    os.Getenv("OPENAI_API_KEY"),
		GoogleKey:    os.Getenv("GOOGLE_API_KEY"),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks that the configuration is usable.
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
	return nil
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
