package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadAppliesDefaults(t *testing.T) {
	path := writeConfig(t, "server:\n  listen: \":9000\"\n")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Server.Listen != ":9000" {
		t.Errorf("listen = %q", cfg.Server.Listen)
	}
	if cfg.Database.Path == "" {
		t.Error("database path default missing")
	}
	if cfg.Notify.Backend != "log" {
		t.Errorf("notify backend default = %q, want log", cfg.Notify.Backend)
	}
	if cfg.Notify.Interval != 2*time.Second {
		t.Errorf("notify interval default = %v", cfg.Notify.Interval)
	}
}

func TestLoadParsesDurations(t *testing.T) {
	path := writeConfig(t, `
notify:
  backend: webhook
  interval: 5s
  webhook:
    url: https://hooks.example.com/apis
    secret: s3cret
    timeout: 3s
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Notify.Interval != 5*time.Second {
		t.Errorf("interval = %v, want 5s", cfg.Notify.Interval)
	}
	if cfg.Notify.Webhook.Timeout != 3*time.Second {
		t.Errorf("timeout = %v, want 3s", cfg.Notify.Webhook.Timeout)
	}
}

func TestLoadRejectsWebhookWithoutURL(t *testing.T) {
	path := writeConfig(t, "notify:\n  backend: webhook\n")

	if _, err := Load(path); err == nil {
		t.Fatal("expected validation error for webhook backend without url")
	}
}

func TestLoadRejectsUnknownBackend(t *testing.T) {
	path := writeConfig(t, "notify:\n  backend: carrier-pigeon\n")

	if _, err := Load(path); err == nil {
		t.Fatal("expected validation error for unknown backend")
	}
}

func TestLoadRejectsBootstrapTokenWithoutUser(t *testing.T) {
	path := writeConfig(t, "bootstrap:\n  token: abc\n")

	if _, err := Load(path); err == nil {
		t.Fatal("expected validation error for bootstrap token without user id")
	}
}
