package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultValidates(t *testing.T) {
	cfg := Default()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config must validate: %v", err)
	}
	if cfg.Notifications.Mode != "log" {
		t.Fatalf("default notification mode must be log, got %q", cfg.Notifications.Mode)
	}
	if cfg.Organization.Currency == "" {
		t.Fatal("default currency missing")
	}
}

func TestGenerateDefaultRoundTrip(t *testing.T) {
	cfg, err := FromYAML([]byte(GenerateDefault()))
	if err != nil {
		t.Fatalf("generated default must parse: %v", err)
	}
	if cfg.Server.BasePath != "/v1" {
		t.Fatalf("unexpected base path %q", cfg.Server.BasePath)
	}
}

func TestValidateSMTPMode(t *testing.T) {
	cfg := Default()
	cfg.Notifications.Mode = "smtp"
	if err := cfg.Validate(); err == nil {
		t.Fatal("smtp mode without host must fail")
	}
	cfg.Notifications.SMTP.Host = "mail.example.com"
	cfg.Notifications.SMTP.From = "noreply@example.com"
	if err := cfg.Validate(); err != nil {
		t.Fatalf("smtp mode with host and from must pass: %v", err)
	}

	cfg.Notifications.Mode = "carrier-pigeon"
	if err := cfg.Validate(); err == nil {
		t.Fatal("unknown notification mode must fail")
	}
}

func TestValidateWebhooks(t *testing.T) {
	cfg := Default()
	cfg.Webhooks = []WebhookConfig{{URL: ""}}
	if err := cfg.Validate(); err == nil {
		t.Fatal("webhook without url must fail")
	}
	cfg.Webhooks = []WebhookConfig{{URL: "https://example.com/hook", Events: []string{"request.approved"}}}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("valid webhook must pass: %v", err)
	}
}

func TestLoadOptional(t *testing.T) {
	dir := t.TempDir()
	cfg, err := LoadOptional(dir)
	if err != nil {
		t.Fatalf("missing file must fall back to defaults: %v", err)
	}
	if cfg.Organization.Name == "" {
		t.Fatal("fallback config incomplete")
	}

	yml := `organization:
  name: Acme Translations
  email: office@acme.example
  currency: EUR
notifications:
  mode: log
`
	if err := os.WriteFile(filepath.Join(dir, "linguadesk.yml"), []byte(yml), 0o644); err != nil {
		t.Fatal(err)
	}
	cfg, err = LoadOptional(dir)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Organization.Name != "Acme Translations" {
		t.Fatalf("file config not used: %+v", cfg.Organization)
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(t.TempDir()); err == nil {
		t.Fatal("missing config must error for Load")
	}
}
