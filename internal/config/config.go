// Package config loads service configuration from environment variables.
package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// Config contains all configuration parameters for the service.
type Config struct {
	Port    string `envconfig:"PORT" default:"8080"`
	Env     string `envconfig:"ENV" default:"development"`
	DBPath  string `envconfig:"DB_PATH" default:"./data/settlements.db"`
	Service string `envconfig:"SERVICE_NAME" default:"Exchange Settlement"`

	// APIKey is the shared secret compared against the x-api-key header.
	APIKey string `envconfig:"API_KEY" required:"true"`

	// JWTSecret signs and verifies session tokens.
	JWTSecret string `envconfig:"JWT_SECRET" required:"true"`

	// EncryptionKey is the secret the memo cipher key is derived from.
	EncryptionKey string `envconfig:"ENCRYPTION_KEY" required:"true"`

	// TokenTTL is the validity window of issued session tokens.
	TokenTTL time.Duration `envconfig:"TOKEN_TTL" default:"1h"`

	// AuthDisabled skips the shared-secret gate. Only the test harness may
	// set this; it is deliberately independent of Env so a misconfigured
	// environment string can never switch authentication off.
	AuthDisabled bool `envconfig:"AUTH_DISABLED" default:"false"`

	// EchoMemo controls whether the create response echoes the plaintext
	// memo back for round-trip verification.
	EchoMemo bool `envconfig:"ECHO_MEMO" default:"true"`

	// RateLimit is the sustained requests-per-minute budget per client.
	RateLimit int `envconfig:"RATE_LIMIT_PER_MINUTE" default:"100"`
}

// Load reads configuration from the environment.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := envconfig.Process("", cfg); err != nil {
		return nil, fmt.Errorf("failed to process config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if c.APIKey == "" {
		return errors.New("API_KEY must not be empty")
	}
	if c.JWTSecret == "" {
		return errors.New("JWT_SECRET must not be empty")
	}
	if c.EncryptionKey == "" {
		return errors.New("ENCRYPTION_KEY must not be empty")
	}
	if c.RateLimit < 1 {
		return fmt.Errorf("RATE_LIMIT_PER_MINUTE must be positive, got %d", c.RateLimit)
	}
	return nil
}

// IsProduction reports whether the service runs in production mode.
// Production mode hides internal error detail from API responses.
func (c *Config) IsProduction() bool {
	return c.Env == "production"
}
