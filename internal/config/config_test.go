package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoad(t *testing.T) {
	t.Run("defaults", func(t *testing.T) {
		cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
		if err != nil {
			t.Fatalf("Load() error = %v", err)
		}
		if cfg.Server.Port != 8080 {
			t.Errorf("port = %v, want 8080", cfg.Server.Port)
		}
		if cfg.Server.Environment != "development" {
			t.Errorf("environment = %v, want development", cfg.Server.Environment)
		}
		if cfg.Webhook.Source != "biz-console" {
			t.Errorf("webhook source = %v, want biz-console", cfg.Webhook.Source)
		}
		if cfg.IsProduction() {
			t.Error("IsProduction() = true for development default")
		}
	})

	t.Run("env var override", func(t *testing.T) {
		t.Setenv("CONSOLE_SERVER__PORT", "9000")
		t.Setenv("CONSOLE_VOICE__AGENT_ID", "agent_env")

		cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
		if err != nil {
			t.Fatalf("Load() error = %v", err)
		}
		if cfg.Server.Port != 9000 {
			t.Errorf("port = %v, want 9000", cfg.Server.Port)
		}
		if cfg.Voice.AgentID != "agent_env" {
			t.Errorf("agent id = %v, want agent_env", cfg.Voice.AgentID)
		}
	})

	t.Run("yaml file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "config.yaml")
		content := `
server:
  port: 7070
  environment: production
voice:
  agent_id: agent_yaml
  api_key: ${TEST_VOICE_KEY}
webhook:
  url: https://hooks.example.com/catch
`
		if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
			t.Fatalf("write config: %v", err)
		}
		t.Setenv("TEST_VOICE_KEY", "sk-from-env")

		cfg, err := Load(path)
		if err != nil {
			t.Fatalf("Load() error = %v", err)
		}
		if cfg.Server.Port != 7070 {
			t.Errorf("port = %v, want 7070", cfg.Server.Port)
		}
		if !cfg.IsProduction() {
			t.Error("IsProduction() = false for production environment")
		}
		if cfg.Voice.APIKey != "sk-from-env" {
			t.Errorf("api key = %q, want substituted value", cfg.Voice.APIKey)
		}
		if cfg.Webhook.URL != "https://hooks.example.com/catch" {
			t.Errorf("webhook url = %v", cfg.Webhook.URL)
		}
	})
}

func TestSubstituteEnvVars(t *testing.T) {
	t.Setenv("TEST_VAR", "test-value")

	tests := []struct {
		name  string
		input string
		want  string
	}{
		{
			name:  "simple substitution",
			input: "${TEST_VAR}",
			want:  "test-value",
		},
		{
			name:  "substitution in string",
			input: "prefix-${TEST_VAR}-suffix",
			want:  "prefix-test-value-suffix",
		},
		{
			name:  "no substitution",
			input: "plain-string",
			want:  "plain-string",
		},
		{
			name:  "undefined var",
			input: "${UNDEFINED_VAR_FOR_TEST}",
			want:  "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := substituteEnvVars(tt.input); got != tt.want {
				t.Errorf("substituteEnvVars(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}
