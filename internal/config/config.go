// Package config loads process settings from the environment and
// moderation rules from a YAML file.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"

	"github.com/evcraddock/comment-utils/internal/email"
	"github.com/evcraddock/comment-utils/internal/moderation"
)

// Config holds settings read from CU_* environment variables.
type Config struct {
	DB       string `env:"CU_DB"`
	DBDriver string `env:"CU_DB_DRIVER" envDefault:"sqlite"`
	SiteID   int64  `env:"CU_SITE_ID" envDefault:"1"`
	Addr     string `env:"CU_ADDR" envDefault:":8080"`
	DevMode  bool   `env:"CU_DEV_MODE"`

	// ConfigFile overrides the default moderation rules file.
	ConfigFile string `env:"CU_CONFIG"`

	AkismetAPIKey string `env:"CU_AKISMET_API_KEY"`

	SMTPHost             string   `env:"CU_SMTP_HOST"`
	SMTPPort             string   `env:"CU_SMTP_PORT" envDefault:"587"`
	SMTPUser             string   `env:"CU_SMTP_USER"`
	SMTPPass             string   `env:"CU_SMTP_PASS"`
	DefaultFromEmail     string   `env:"CU_DEFAULT_FROM_EMAIL" envDefault:"webmaster@localhost"`
	Managers             []string `env:"CU_MANAGERS" envSeparator:","`
	NotificationTemplate string   `env:"CU_NOTIFICATION_TEMPLATE"`
}

// FromEnv parses Config from the environment.
func FromEnv() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	if cfg.SiteID <= 0 {
		return Config{}, fmt.Errorf("CU_SITE_ID must be positive, got %d", cfg.SiteID)
	}
	return cfg, nil
}

// SMTP returns the mail settings.
func (c Config) SMTP() email.SMTPConfig {
	return email.SMTPConfig{
		Host: c.SMTPHost,
		Port: c.SMTPPort,
		User: c.SMTPUser,
		Pass: c.SMTPPass,
		From: c.DefaultFromEmail,
	}
}

// File is the YAML configuration file.
type File struct {
	// Moderation maps "app.model" labels to moderation rules.
	Moderation map[string]moderation.Rule `yaml:"moderation"`
}

// DefaultFilePath returns ~/.config/cu/config.yaml.
func DefaultFilePath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("finding home directory: %w", err)
	}
	return filepath.Join(home, ".config", "cu", "config.yaml"), nil
}

// FilePath returns the configured file path, or the default.
func (c Config) FilePath() (string, error) {
	if c.ConfigFile != "" {
		return c.ConfigFile, nil
	}
	return DefaultFilePath()
}

// LoadFile reads the YAML config at path.
// Returns a zero-value File if the file doesn't exist or is empty.
// Unknown keys are errors, so a misspelled option cannot be ignored.
func LoadFile(path string) (File, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return File{}, nil
	}
	if err != nil {
		return File{}, fmt.Errorf("reading config: %w", err)
	}

	var f File
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&f); err != nil && !errors.Is(err, io.EOF) {
		return File{}, fmt.Errorf("parsing config %s: %w", path, err)
	}
	return f, nil
}
