package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the root configuration for api-mocker.
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Database  DatabaseConfig  `yaml:"database"`
	Notify    NotifyConfig    `yaml:"notify"`
	Options   OptionsConfig   `yaml:"options"`
	Bootstrap BootstrapConfig `yaml:"bootstrap"`
}

// ServerConfig contains HTTP server settings.
type ServerConfig struct {
	Listen string `yaml:"listen"`
}

// DatabaseConfig contains SQLite settings.
type DatabaseConfig struct {
	Path string `yaml:"path"`
}

// NotifyConfig selects and configures the notification backend.
// Backend is one of "log", "webhook" or "amqp".
type NotifyConfig struct {
	Backend   string        `yaml:"backend"`
	Interval  time.Duration `yaml:"interval"`
	BatchSize int           `yaml:"batch_size"`
	Webhook   WebhookConfig `yaml:"webhook"`
	AMQP      AMQPConfig    `yaml:"amqp"`
}

// WebhookConfig configures the signed-webhook backend.
type WebhookConfig struct {
	URL     string        `yaml:"url"`
	Secret  string        `yaml:"secret"`
	Timeout time.Duration `yaml:"timeout"`
}

// AMQPConfig configures the message-broker backend.
type AMQPConfig struct {
	URL      string `yaml:"url"`
	Exchange string `yaml:"exchange"`
}

// OptionsConfig points at an optional JSON schema overriding the
// built-in options schema.
type OptionsConfig struct {
	SchemaPath string `yaml:"schema_path"`
}

// BootstrapConfig describes a user upserted at startup so a fresh
// deployment has a working token.
type BootstrapConfig struct {
	Token    string `yaml:"token"`
	UserID   string `yaml:"user_id"`
	UserName string `yaml:"user_name"`
	Email    string `yaml:"email"`
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	applyDefaults(&cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}
	return &cfg, nil
}

// Default returns a configuration usable without a config file.
func Default() *Config {
	cfg := &Config{}
	applyDefaults(cfg)
	return cfg
}

func applyDefaults(cfg *Config) {
	if cfg.Server.Listen == "" {
		cfg.Server.Listen = ":8080"
	}
	if cfg.Database.Path == "" {
		cfg.Database.Path = "./api-mocker.sqlite"
	}
	if cfg.Notify.Backend == "" {
		cfg.Notify.Backend = "log"
	}
	if cfg.Notify.Interval == 0 {
		cfg.Notify.Interval = 2 * time.Second
	}
	if cfg.Notify.BatchSize == 0 {
		cfg.Notify.BatchSize = 50
	}
	if cfg.Notify.Webhook.Timeout == 0 {
		cfg.Notify.Webhook.Timeout = 10 * time.Second
	}
	if cfg.Notify.AMQP.Exchange == "" {
		cfg.Notify.AMQP.Exchange = "api-mocker.notifications"
	}
}

func (c *Config) Validate() error {
	switch c.Notify.Backend {
	case "log":
	case "webhook":
		if c.Notify.Webhook.URL == "" {
			return fmt.Errorf("notify.webhook.url is required for the webhook backend")
		}
	case "amqp":
		if c.Notify.AMQP.URL == "" {
			return fmt.Errorf("notify.amqp.url is required for the amqp backend")
		}
	default:
		return fmt.Errorf("unknown notify backend %q", c.Notify.Backend)
	}

	if c.Bootstrap.Token != "" && c.Bootstrap.UserID == "" {
		return fmt.Errorf("bootstrap.user_id is required when bootstrap.token is set")
	}
	return nil
}
