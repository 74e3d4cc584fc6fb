package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDefault(t *testing.T) {
	cfg := Default()
	if cfg.APIURL != DefaultAPIURL {
		t.Fatalf("expected default API URL, got %q", cfg.APIURL)
	}
	if cfg.DataDir != "" {
		t.Fatalf("expected empty data dir, got %q", cfg.DataDir)
	}
	if cfg.LogLevel != DefaultLogLevel {
		t.Fatalf("expected default log level %q, got %q", DefaultLogLevel, cfg.LogLevel)
	}
	if cfg.Storage.Backend != "sqlite" {
		t.Fatalf("expected sqlite backend, got %q", cfg.Storage.Backend)
	}
	if cfg.Webhook.QueueSize != DefaultWebhookQueueSize || cfg.Webhook.RatePerSecond != DefaultWebhookRatePerSecond {
		t.Fatalf("unexpected webhook defaults %+v", cfg.Webhook)
	}
	if cfg.PinningTimeout() != 60*time.Second {
		t.Fatalf("expected 60s pinning timeout, got %v", cfg.PinningTimeout())
	}
	if cfg.Deliveries.MaxUploadBytes != DefaultDeliveryMaxUploadBytes {
		t.Fatalf("expected delivery max upload default %d, got %d", DefaultDeliveryMaxUploadBytes, cfg.Deliveries.MaxUploadBytes)
	}
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".morphire.toml")
	if err := os.WriteFile(path, []byte(`api_url = "http://localhost:9999"
log_level = "warn"

[storage]
backend = "file"

[webhook]
url = "https://discord.example/hook"
queue_size = 8

[pinning]
api_key = "key"
secret = "secret"
timeout = "15s"
`), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg := Default()
	if err := loadFile(path, &cfg); err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.APIURL != "http://localhost:9999" || cfg.LogLevel != "warn" {
		t.Fatalf("unexpected top-level values %+v", cfg)
	}
	if cfg.Storage.Backend != "file" {
		t.Fatalf("expected file backend, got %q", cfg.Storage.Backend)
	}
	if cfg.Webhook.URL != "https://discord.example/hook" || cfg.Webhook.QueueSize != 8 {
		t.Fatalf("unexpected webhook %+v", cfg.Webhook)
	}
	if cfg.Webhook.RatePerSecond != DefaultWebhookRatePerSecond {
		t.Fatalf("expected unset rate to keep default, got %v", cfg.Webhook.RatePerSecond)
	}
	if cfg.Pinning.APIKey != "key" || cfg.PinningTimeout() != 15*time.Second {
		t.Fatalf("unexpected pinning %+v", cfg.Pinning)
	}
}

func TestLoadFileMissing(t *testing.T) {
	cfg := Default()
	if err := loadFile("/nonexistent/path/.morphire.toml", &cfg); err != nil {
		t.Fatalf("missing file should not error: %v", err)
	}
	if cfg.APIURL != DefaultAPIURL {
		t.Fatalf("defaults should be preserved")
	}
}

func TestIsAllowedKey(t *testing.T) {
	for _, key := range AllowedKeys() {
		if !IsAllowedKey(key) {
			t.Fatalf("expected %q to be allowed", key)
		}
		cfg := Default()
		if _, err := cfg.Get(key); err != nil {
			t.Fatalf("allowed key %q has no getter: %v", key, err)
		}
	}
	if IsAllowedKey("invalid") {
		t.Fatal("expected 'invalid' to not be allowed")
	}
}

func TestGetKey(t *testing.T) {
	cfg := Config{
		APIURL:   "http://test:1234",
		DataDir:  "/tmp/morphire",
		LogLevel: "warn",
		Storage:  StorageConfig{Backend: "file"},
		Webhook:  WebhookConfig{URL: "https://hook", QueueSize: 16, RatePerSecond: 0.5},
		Pinning:  PinningConfig{APIKey: "key", Secret: "s3cret", Timeout: "30s"},
		Deliveries: DeliveryConfig{
			MaxUploadBytes:     123,
			MultipartMaxMemory: 456,
		},
	}

	tests := map[string]string{
		"api_url":                         "http://test:1234",
		"data_dir":                        "/tmp/morphire",
		"log_level":                       "warn",
		"storage.backend":                 "file",
		"webhook.url":                     "https://hook",
		"webhook.queue_size":              "16",
		"webhook.rate_per_second":         "0.5",
		"pinning.api_key":                 "key",
		"pinning.secret":                  "(set)",
		"pinning.timeout":                 "30s",
		"deliveries.max_upload_bytes":     "123",
		"deliveries.multipart_max_memory": "456",
		"access.passphrase_hash":          "(unset)",
	}
	for key, want := range tests {
		got, err := cfg.Get(key)
		if err != nil || got != want {
			t.Fatalf("%s: expected %q, got %q (err: %v)", key, want, got, err)
		}
	}
	if _, err := cfg.Get("invalid"); err == nil {
		t.Fatal("expected error for invalid key")
	}
}

func TestSetKeyCreatesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "new.toml")
	if err := SetKey(path, "api_url", "http://127.0.0.1:9000"); err != nil {
		t.Fatalf("set: %v", err)
	}

	cfg := Default()
	if err := loadFile(path, &cfg); err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.APIURL != "http://127.0.0.1:9000" {
		t.Fatalf("expected api_url set, got %q", cfg.APIURL)
	}
}

func TestSetKeyUpdatesExisting(t *testing.T) {
	path := filepath.Join(t.TempDir(), "existing.toml")
	if err := os.WriteFile(path, []byte("log_level = \"info\"\napi_url = \"http://keep\"\n"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	if err := SetKey(path, "log_level", "error"); err != nil {
		t.Fatalf("set: %v", err)
	}

	cfg := Default()
	if err := loadFile(path, &cfg); err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.LogLevel != "error" {
		t.Fatalf("expected 'error', got %q", cfg.LogLevel)
	}
	if cfg.APIURL != "http://keep" {
		t.Fatalf("expected preserved api_url 'http://keep', got %q", cfg.APIURL)
	}
}

func TestSetNestedKeys(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested.toml")
	steps := [][2]string{
		{"webhook.queue_size", "32"},
		{"webhook.rate_per_second", "2.5"},
		{"pinning.timeout", "90"},
		{"storage.backend", "FILE"},
	}
	for _, step := range steps {
		if err := SetKey(path, step[0], step[1]); err != nil {
			t.Fatalf("set %s: %v", step[0], err)
		}
	}

	cfg := Default()
	if err := loadFile(path, &cfg); err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Webhook.QueueSize != 32 || cfg.Webhook.RatePerSecond != 2.5 {
		t.Fatalf("unexpected webhook %+v", cfg.Webhook)
	}
	if cfg.PinningTimeout() != 90*time.Second {
		t.Fatalf("expected 90s, got %v", cfg.PinningTimeout())
	}
	if cfg.Storage.Backend != "file" {
		t.Fatalf("expected normalized backend, got %q", cfg.Storage.Backend)
	}
}

func TestSetKeyRejectsInvalidValues(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.toml")
	cases := [][2]string{
		{"invalid_key", "value"},
		{"webhook.queue_size", "-1"},
		{"webhook.rate_per_second", "fast"},
		{"pinning.timeout", "soon"},
		{"storage.backend", "redis"},
		{"deliveries.max_upload_bytes", "0"},
	}
	for _, c := range cases {
		if err := SetKey(path, c[0], c[1]); err == nil {
			t.Fatalf("expected error for %s=%s", c[0], c[1])
		}
	}
}

func TestConfigDirOverridePath(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("MORPHIRE_CONFIG_DIR", dir)

	path, err := GlobalPath()
	if err != nil {
		t.Fatalf("global path: %v", err)
	}
	if path != filepath.Join(dir, ".morphire.toml") {
		t.Fatalf("unexpected global path: %s", path)
	}
}

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"MORPHIRE_API_URL", "MORPHIRE_DATA_DIR", "MORPHIRE_STORAGE_BACKEND",
		"MORPHIRE_DISCORD_WEBHOOK", "PINATA_API_KEY", "PINATA_SECRET", "MORPHIRE_ACCESS_HASH",
	} {
		t.Setenv(key, "")
	}
}

func TestLoadAppliesDefaultsForEmptyValues(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv("MORPHIRE_CONFIG_DIR", dir)
	if err := os.WriteFile(filepath.Join(dir, ".morphire.toml"), []byte("log_level = \"\"\n[webhook]\nqueue_size = 0\n"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.LogLevel != DefaultLogLevel {
		t.Fatalf("expected default log level %q, got %q", DefaultLogLevel, cfg.LogLevel)
	}
	if cfg.Webhook.QueueSize != DefaultWebhookQueueSize {
		t.Fatalf("expected default queue size, got %d", cfg.Webhook.QueueSize)
	}
	if cfg.DataDir != filepath.Join(home, DefaultDataDirName) {
		t.Fatalf("expected data dir under home, got %q", cfg.DataDir)
	}
}

func TestEnvOverrides(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	t.Setenv("MORPHIRE_CONFIG_DIR", dir)
	if err := os.WriteFile(filepath.Join(dir, ".morphire.toml"), []byte("[pinning]\napi_key = \"file-key\"\n"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Setenv("MORPHIRE_API_URL", "http://example.com:8080")
	t.Setenv("MORPHIRE_DATA_DIR", "/tmp/morphire-data")
	t.Setenv("MORPHIRE_STORAGE_BACKEND", "file")
	t.Setenv("MORPHIRE_DISCORD_WEBHOOK", "https://discord.example/hook")
	t.Setenv("PINATA_API_KEY", "env-key")
	t.Setenv("PINATA_SECRET", "env-secret")
	t.Setenv("MORPHIRE_ACCESS_HASH", "$2a$10$hash")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.APIURL != "http://example.com:8080" || cfg.DataDir != "/tmp/morphire-data" {
		t.Fatalf("unexpected overrides %+v", cfg)
	}
	if cfg.Storage.Backend != "file" || cfg.Webhook.URL != "https://discord.example/hook" {
		t.Fatalf("unexpected overrides %+v", cfg)
	}
	if cfg.Pinning.APIKey != "env-key" || cfg.Pinning.Secret != "env-secret" {
		t.Fatalf("expected env pinning credentials, got %+v", cfg.Pinning)
	}
	if cfg.Access.PassphraseHash != "$2a$10$hash" {
		t.Fatalf("expected access hash override, got %q", cfg.Access.PassphraseHash)
	}
}

func TestLoadRejectsMalformedFile(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	t.Setenv("MORPHIRE_CONFIG_DIR", dir)
	if err := os.WriteFile(filepath.Join(dir, ".morphire.toml"), []byte("api_url = [broken\n"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	if _, err := Load(); err == nil {
		t.Fatal("expected parse error")
	}
}
