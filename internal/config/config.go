// Package config handles relaynote configuration loading and validation.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config is the root configuration for relaynote.
type Config struct {
	Discord DiscordConfig `yaml:"discord"`
	Linear  LinearConfig  `yaml:"linear"`
	Server  ServerConfig  `yaml:"server"`
	Logging LoggingConfig `yaml:"logging"`
}

// DiscordConfig defines the chat webhook sink.
type DiscordConfig struct {
	WebhookURL string `yaml:"webhook_url"`
}

// LinearConfig defines the issue tracker connection.
type LinearConfig struct {
	APIKey   string `yaml:"api_key"`
	Endpoint string `yaml:"endpoint"` // GraphQL endpoint, override for testing
}

// ServerConfig defines webhook receiver settings for serve mode.
type ServerConfig struct {
	Addr          string        `yaml:"addr"`
	WebhookSecret string        `yaml:"webhook_secret"` // HMAC secret, empty disables verification
	ReadTimeout   time.Duration `yaml:"read_timeout"`
	WriteTimeout  time.Duration `yaml:"write_timeout"`
}

// LoggingConfig defines log output settings.
type LoggingConfig struct {
	Level     string `yaml:"level"`
	SentryDSN string `yaml:"sentry_dsn"`
}

// DefaultConfig returns a config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Linear: LinearConfig{
			Endpoint: "https://api.linear.app/graphql",
		},
		Server: ServerConfig{
			Addr:         ":8486",
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 30 * time.Second,
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// Load reads configuration from the default path, layering environment
// variables and GitHub Actions inputs over the file. A missing config
// file is not an error: in action mode everything arrives via env.
func Load() (*Config, error) {
	// .env is a local development convenience, absence is fine.
	_ = godotenv.Load()

	cfg := DefaultConfig()

	configPath := DefaultConfigPath()
	if data, err := os.ReadFile(configPath); err == nil {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse %s: %w", configPath, err)
		}
	} else if !os.IsNotExist(err) {
		return nil, err
	}

	cfg.expandEnvVars()
	cfg.applyEnvOverrides()
	return cfg, nil
}

// DefaultConfigPath returns the default configuration file path.
func DefaultConfigPath() string {
	if p := os.Getenv("RELAYNOTE_CONFIG"); p != "" {
		return p
	}
	homeDir, _ := os.UserHomeDir()
	return filepath.Join(homeDir, ".config/relaynote/config.yaml")
}

func (c *Config) expandEnvVars() {
	c.Discord.WebhookURL = os.ExpandEnv(c.Discord.WebhookURL)
	c.Linear.APIKey = os.ExpandEnv(c.Linear.APIKey)
	c.Server.WebhookSecret = os.ExpandEnv(c.Server.WebhookSecret)
	c.Logging.SentryDSN = os.ExpandEnv(c.Logging.SentryDSN)
}

// applyEnvOverrides layers GitHub Actions inputs and plain environment
// variables over the file config. Action inputs win: they are the
// documented interface of the original action.
func (c *Config) applyEnvOverrides() {
	if v := os.Getenv("DISCORD_WEBHOOK_URL"); v != "" {
		c.Discord.WebhookURL = v
	}
	if v := os.Getenv("LINEAR_API_KEY"); v != "" {
		c.Linear.APIKey = v
	}
	if v := ActionInput("discord-webhook-url"); v != "" {
		c.Discord.WebhookURL = v
	}
	if v := ActionInput("linear-api-key"); v != "" {
		c.Linear.APIKey = v
	}
}

// ActionInput reads a GitHub Actions input from the environment.
// The runner exposes input "foo-bar" as INPUT_FOO-BAR.
func ActionInput(name string) string {
	key := "INPUT_" + strings.ToUpper(strings.ReplaceAll(name, " ", "_"))
	return strings.TrimSpace(os.Getenv(key))
}

// Validate checks that the credentials the pipeline needs are present.
func (c *Config) Validate() error {
	if c.Discord.WebhookURL == "" {
		return fmt.Errorf("discord-webhook-url is required")
	}
	if c.Linear.APIKey == "" {
		return fmt.Errorf("linear-api-key is required")
	}
	return nil
}
