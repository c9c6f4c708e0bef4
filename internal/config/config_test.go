package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestActionInput(t *testing.T) {
	t.Setenv("INPUT_DISCORD-WEBHOOK-URL", "  https://discord.com/api/webhooks/1/x  ")
	if got := ActionInput("discord-webhook-url"); got != "https://discord.com/api/webhooks/1/x" {
		t.Errorf("ActionInput = %q", got)
	}
	if got := ActionInput("missing-input"); got != "" {
		t.Errorf("expected empty for missing input, got %q", got)
	}
}

func TestLoadLayersEnvOverConfigFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := `
discord:
  webhook_url: https://discord.com/api/webhooks/file/x
linear:
  api_key: ${TEST_LINEAR_KEY}
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("RELAYNOTE_CONFIG", path)
	t.Setenv("TEST_LINEAR_KEY", "lin_api_expanded")
	t.Setenv("INPUT_DISCORD-WEBHOOK-URL", "https://discord.com/api/webhooks/input/y")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	// Action inputs win over the file.
	if cfg.Discord.WebhookURL != "https://discord.com/api/webhooks/input/y" {
		t.Errorf("webhook URL = %q", cfg.Discord.WebhookURL)
	}
	// ${VAR} references in the file are expanded.
	if cfg.Linear.APIKey != "lin_api_expanded" {
		t.Errorf("api key = %q", cfg.Linear.APIKey)
	}
	// Defaults survive partial files.
	if cfg.Linear.Endpoint != "https://api.linear.app/graphql" {
		t.Errorf("endpoint = %q", cfg.Linear.Endpoint)
	}
}

func TestValidateRequiresCredentials(t *testing.T) {
	cfg := DefaultConfig()
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected missing webhook URL to fail validation")
	}

	cfg.Discord.WebhookURL = "https://discord.com/api/webhooks/1/x"
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected missing API key to fail validation")
	}

	cfg.Linear.APIKey = "lin_api_x"
	if err := cfg.Validate(); err != nil {
		t.Fatalf("expected valid config, got %v", err)
	}
}
