// Copyright 2024-2026 Aiku AI

package bridge

import (
	_ "embed"
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog"
	"go.mau.fi/util/ptr"
	"go.mau.fi/zeroconfig"
	"gopkg.in/yaml.v3"
)

//go:embed example-config.yaml
var ExampleConfig string

// Environment variables overriding the config file, named after the
// original deployment convention.
const (
	botTokenEnvVar = "TGBOT_MASTODON_SYNC_BOT_TOKEN"
	dbPathEnvVar   = "TGBOT_MASTODON_SYNC_DATABASE_URL"
)

// Config holds the bridge configuration.
type Config struct {
	Telegram TelegramConfig    `yaml:"telegram"`
	Database DatabaseConfig    `yaml:"database"`
	Mastodon MastodonConfig    `yaml:"mastodon"`
	Publish  PublishConfig     `yaml:"publish"`
	Logging  zeroconfig.Config `yaml:"logging"`
}

// TelegramConfig is the source-platform side of the configuration.
type TelegramConfig struct {
	BotToken string `yaml:"bot_token"`
	// AdminUserID may use /broadcast. Zero disables the command.
	AdminUserID int64 `yaml:"admin_user_id"`
}

// DatabaseConfig locates the SQLite database file.
type DatabaseConfig struct {
	Path string `yaml:"path"`
}

// MastodonConfig identifies this bridge when registering OAuth apps.
type MastodonConfig struct {
	ClientName string `yaml:"client_name"`
	Website    string `yaml:"website"`
}

// PublishConfig tunes the publication pipeline.
type PublishConfig struct {
	DefaultVisibility string `yaml:"default_visibility"`
	DefaultLanguage   string `yaml:"default_language"`
	// RetryIntervalSeconds is the wait between post submissions while the
	// server is still processing uploaded media.
	RetryIntervalSeconds int `yaml:"media_retry_interval_seconds"`
	// ProcessTimeoutSeconds bounds the whole submission retry loop.
	ProcessTimeoutSeconds int `yaml:"media_process_timeout_seconds"`
}

// RetryInterval returns the submission retry interval as a duration.
func (c *PublishConfig) RetryInterval() time.Duration {
	return time.Duration(c.RetryIntervalSeconds) * time.Second
}

// ProcessTimeout returns the media processing timeout as a duration.
func (c *PublishConfig) ProcessTimeout() time.Duration {
	return time.Duration(c.ProcessTimeoutSeconds) * time.Second
}

// DefaultConfig returns the built-in defaults, matching example-config.yaml.
func DefaultConfig() *Config {
	return &Config{
		Database: DatabaseConfig{Path: "telegram-mastodon-sync.db"},
		Mastodon: MastodonConfig{
			ClientName: "telegram-mastodon-sync",
			Website:    "https://github.com/aiku/telegram-mastodon-sync",
		},
		Publish: PublishConfig{
			DefaultVisibility:     "public",
			DefaultLanguage:       "en",
			RetryIntervalSeconds:  10,
			ProcessTimeoutSeconds: 300,
		},
		Logging: zeroconfig.Config{
			MinLevel: ptr.Ptr(zerolog.InfoLevel),
			Writers: []zeroconfig.WriterConfig{{
				Type:   zeroconfig.WriterTypeStdout,
				Format: zeroconfig.LogFormatPrettyColored,
			}},
		},
	}
}

// LoadConfig reads the config file at path over the defaults and applies
// environment overrides for the secrets.
func LoadConfig(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}
	cfg.applyEnv()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() {
	if token := os.Getenv(botTokenEnvVar); token != "" {
		c.Telegram.BotToken = token
	}
	if path := os.Getenv(dbPathEnvVar); path != "" {
		c.Database.Path = path
	}
}

// Validate checks the fields without which the bridge cannot start.
func (c *Config) Validate() error {
	if c.Telegram.BotToken == "" {
		return fmt.Errorf("telegram.bot_token is required (or set %s)", botTokenEnvVar)
	}
	if c.Database.Path == "" {
		return fmt.Errorf("database.path is required")
	}
	if c.Publish.RetryIntervalSeconds <= 0 {
		return fmt.Errorf("publish.media_retry_interval_seconds must be positive")
	}
	if c.Publish.ProcessTimeoutSeconds <= 0 {
		return fmt.Errorf("publish.media_process_timeout_seconds must be positive")
	}
	return nil
}
