// Package config loads the console configuration from an optional YAML file
// overlaid with CONSOLE_-prefixed environment variables.
package config

import (
	"os"
	"regexp"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// DefaultPath is the config file consulted when none is given.
const DefaultPath = "config.yaml"

type Config struct {
	Server  ServerConfig  `koanf:"server"`
	Voice   VoiceConfig   `koanf:"voice"`
	Webhook WebhookConfig `koanf:"webhook"`
	Debug   DebugConfig   `koanf:"debug"`
}

type ServerConfig struct {
	Port        int    `koanf:"port"`
	Environment string `koanf:"environment"` // development, staging, production
}

// VoiceConfig points at the conversational-voice vendor.
type VoiceConfig struct {
	APIKey  string `koanf:"api_key"`
	AgentID string `koanf:"agent_id"`
	BaseURL string `koanf:"base_url"` // Optional: custom API endpoint
}

// WebhookConfig points at the workflow-automation endpoint.
type WebhookConfig struct {
	URL    string `koanf:"url"`
	Source string `koanf:"source"`
}

// DebugConfig controls the development-only webhook mirror.
type DebugConfig struct {
	Enabled  bool `koanf:"enabled"`
	Capacity int  `koanf:"capacity"`
	// SQLitePath persists the mirror across restarts; empty keeps it in memory.
	SQLitePath string `koanf:"sqlite_path"`
}

var envVarPattern = regexp.MustCompile(`\$\{([^}]+)\}`)

// Load reads the config file at path (DefaultPath when empty; a missing file
// is fine) and overlays CONSOLE_ environment variables, where a double
// underscore separates nesting levels (CONSOLE_VOICE__API_KEY).
func Load(path string) (*Config, error) {
	if path == "" {
		path = DefaultPath
	}

	k := koanf.New(".")

	if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
		if !os.IsNotExist(err) {
			return nil, err
		}
	}

	if err := k.Load(env.Provider("CONSOLE_", ".", func(s string) string {
		return strings.Replace(strings.ToLower(strings.TrimPrefix(s, "CONSOLE_")), "__", ".", -1)
	}), nil); err != nil {
		return nil, err
	}

	// Default values
	if !k.Exists("server.port") {
		k.Set("server.port", 8080)
	}
	if !k.Exists("server.environment") {
		k.Set("server.environment", "development")
	}
	if !k.Exists("webhook.source") {
		k.Set("webhook.source", "biz-console")
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, err
	}

	// Secrets in the file may reference environment variables.
	cfg.Voice.APIKey = substituteEnvVars(cfg.Voice.APIKey)
	cfg.Webhook.URL = substituteEnvVars(cfg.Webhook.URL)

	return &cfg, nil
}

// IsProduction reports whether the deployment is production, which disables
// the webhook debug mirror.
func (c *Config) IsProduction() bool {
	return strings.EqualFold(c.Server.Environment, "production")
}

func substituteEnvVars(s string) string {
	return envVarPattern.ReplaceAllStringFunc(s, func(match string) string {
		varName := envVarPattern.FindStringSubmatch(match)[1]
		return os.Getenv(varName)
	})
}
