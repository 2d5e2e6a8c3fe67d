package config

import "testing"

func TestLoadDefaults(t *testing.T) {
	setCoreEnvEmpty(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.BindAddr != ":8080" {
		t.Fatalf("BindAddr = %q, want %q", cfg.BindAddr, ":8080")
	}
	if cfg.MemoryMaxTurns != 20 {
		t.Fatalf("MemoryMaxTurns = %d, want 20", cfg.MemoryMaxTurns)
	}
	if cfg.ModelMode != "auto" {
		t.Fatalf("ModelMode = %q, want %q", cfg.ModelMode, "auto")
	}
	if cfg.ChannelProvider != "twilio" {
		t.Fatalf("ChannelProvider = %q, want %q", cfg.ChannelProvider, "twilio")
	}
}

func TestLoadExplicitValues(t *testing.T) {
	setCoreEnvEmpty(t)
	t.Setenv("MEMORY_DIR", "/data/memory")
	t.Setenv("MEMORY_MAX_TURNS", "8")
	t.Setenv("MODEL_ENDPOINT_URL", "https://workspace--llama.modal.run")
	t.Setenv("CHANNEL_PROVIDER", "meta")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.MemoryDir != "/data/memory" || cfg.MemoryMaxTurns != 8 {
		t.Fatalf("memory config = %q, %d", cfg.MemoryDir, cfg.MemoryMaxTurns)
	}
	if cfg.ModelEndpointURL != "https://workspace--llama.modal.run" {
		t.Fatalf("ModelEndpointURL = %q", cfg.ModelEndpointURL)
	}
	if cfg.ChannelProvider != "meta" {
		t.Fatalf("ChannelProvider = %q", cfg.ChannelProvider)
	}
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	setCoreEnvEmpty(t)
	t.Setenv("MEMORY_MAX_TURNS", "0")
	if _, err := Load(); err == nil {
		t.Fatalf("Load() should reject MEMORY_MAX_TURNS=0")
	}

	setCoreEnvEmpty(t)
	t.Setenv("CHANNEL_PROVIDER", "telegram")
	if _, err := Load(); err == nil {
		t.Fatalf("Load() should reject unknown channel provider")
	}

	setCoreEnvEmpty(t)
	t.Setenv("APP_SHUTDOWN_TIMEOUT", "not-a-duration")
	if _, err := Load(); err == nil {
		t.Fatalf("Load() should reject a malformed duration")
	}
}

func setCoreEnvEmpty(t *testing.T) {
	t.Helper()
	keys := []string{
		"APP_BIND_ADDR",
		"APP_SHUTDOWN_TIMEOUT",
		"APP_METRICS_NAMESPACE",
		"APP_ALLOW_ANY_ORIGIN",
		"MEMORY_DIR",
		"MEMORY_MAX_TURNS",
		"MODEL_MODE",
		"MODEL_ENDPOINT_URL",
		"MODEL_API_KEY",
		"MODEL_NAME",
		"CHANNEL_PROVIDER",
		"META_ACCESS_TOKEN",
		"META_VERIFY_TOKEN",
		"META_PHONE_NUMBER_ID",
		"SMTP_HOST",
		"SMTP_PORT",
		"SMTP_USERNAME",
		"SMTP_PASSWORD",
		"SMTP_FROM",
		"DATABASE_URL",
		"CLIENTS_CSV_PATH",
		"CALENDAR_PATH",
	}
	for _, key := range keys {
		t.Setenv(key, "")
	}
}
