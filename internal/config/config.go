// Package config loads service configuration from an optional YAML file with
// APPROVALS_* environment variable overrides.
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
	yamlv3 "gopkg.in/yaml.v3"
)

// Config holds configuration for both the server and the dashboard binaries.
type Config struct {
	Server    ServerConfig    `koanf:"server" yaml:"server"`
	Agent     AgentConfig     `koanf:"agent" yaml:"agent"`
	Notify    NotifyConfig    `koanf:"notify" yaml:"notify"`
	Dashboard DashboardConfig `koanf:"dashboard" yaml:"dashboard"`
	Log       LogConfig       `koanf:"log" yaml:"log"`
}

// ServerConfig configures the approvals HTTP server.
type ServerConfig struct {
	Port            int           `koanf:"port" yaml:"port"`
	DatabasePath    string        `koanf:"database_path" yaml:"database_path"`
	ReadTimeout     time.Duration `koanf:"read_timeout" yaml:"read_timeout"`
	WriteTimeout    time.Duration `koanf:"write_timeout" yaml:"write_timeout"`
	IdleTimeout     time.Duration `koanf:"idle_timeout" yaml:"idle_timeout"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout" yaml:"shutdown_timeout"`
}

// AgentConfig configures the SLA agent's message composer.
type AgentConfig struct {
	OpenAIAPIKey string `koanf:"openai_api_key" yaml:"openai_api_key"`
	Model        string `koanf:"model" yaml:"model"`
}

// NotifyConfig configures outbound webhook notifications.
type NotifyConfig struct {
	SlackWebhookURL string `koanf:"slack_webhook_url" yaml:"slack_webhook_url"`
}

// DashboardConfig configures the dashboard client.
type DashboardConfig struct {
	ServerURL    string        `koanf:"server_url" yaml:"server_url"`
	PollInterval time.Duration `koanf:"poll_interval" yaml:"poll_interval"`
}

// LogConfig configures logging output.
type LogConfig struct {
	Level  string `koanf:"level" yaml:"level"`
	Pretty bool   `koanf:"pretty" yaml:"pretty"`
}

// Default returns the configuration defaults.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Port:            8000,
			DatabasePath:    "approvals.db",
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    30 * time.Second,
			IdleTimeout:     60 * time.Second,
			ShutdownTimeout: 10 * time.Second,
		},
		Agent: AgentConfig{
			Model: "gpt-4o-mini",
		},
		Dashboard: DashboardConfig{
			ServerURL:    "http://localhost:8000",
			PollInterval: 5 * time.Second,
		},
		Log: LogConfig{
			Level:  "info",
			Pretty: true,
		},
	}
}

// Load reads configuration from the given YAML file (if it exists), then
// overlays APPROVALS_* environment variables. An empty path skips the file.
func Load(path string) (*Config, error) {
	k := koanf.New(".")
	cfg := Default()

	if path != "" {
		if _, err := os.Stat(path); err == nil {
			if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
				return nil, fmt.Errorf("reading config %s: %w", path, err)
			}
		} else if !os.IsNotExist(err) {
			return nil, fmt.Errorf("accessing config %s: %w", path, err)
		}
	}

	// APPROVALS_SERVER_PORT -> server.port, APPROVALS_LOG_LEVEL -> log.level
	if err := k.Load(env.Provider("APPROVALS_", ".", func(s string) string {
		s = strings.ToLower(strings.TrimPrefix(s, "APPROVALS_"))
		return strings.Replace(s, "_", ".", 1)
	}), nil); err != nil {
		return nil, fmt.Errorf("loading env overrides: %w", err)
	}

	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("unmarshalling config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Save writes the configuration to the given YAML file path.
func (c *Config) Save(path string) error {
	data, err := yamlv3.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshalling config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing config to %s: %w", path, err)
	}
	return nil
}

// Validate checks that the configuration contains usable values.
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port must be between 1 and 65535")
	}
	if c.Server.DatabasePath == "" {
		return fmt.Errorf("server.database_path is required")
	}
	if c.Dashboard.ServerURL == "" {
		return fmt.Errorf("dashboard.server_url is required")
	}
	if c.Dashboard.PollInterval <= 0 {
		return fmt.Errorf("dashboard.poll_interval must be positive")
	}
	return nil
}
