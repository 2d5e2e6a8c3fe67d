package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config contains all runtime settings for the WhatsApp assistant service.
type Config struct {
	BindAddr         string
	ShutdownTimeout  time.Duration
	MetricsNamespace string
	AllowAnyOrigin   bool

	MemoryDir      string
	MemoryMaxTurns int

	ModelMode        string
	ModelEndpointURL string
	ModelAPIKey      string
	ModelName        string

	ChannelProvider string

	MetaAccessToken   string
	MetaVerifyToken   string
	MetaPhoneNumberID string

	SMTPHost     string
	SMTPPort     int
	SMTPUsername string
	SMTPPassword string
	SMTPFrom     string

	DatabaseURL    string
	ClientsCSVPath string
	CalendarPath   string
}

// Load reads environment variables and applies safe defaults.
func Load() (Config, error) {
	cfg := Config{
		BindAddr:         envOrDefault("APP_BIND_ADDR", ":8080"),
		MetricsNamespace: envOrDefault("APP_METRICS_NAMESPACE", "whatsup"),
		AllowAnyOrigin:   false,
		// Matches the persistent volume mount used in deployment.
		MemoryDir:         envOrDefault("MEMORY_DIR", "data/memory"),
		MemoryMaxTurns:    20,
		ModelMode:         envOrDefault("MODEL_MODE", "auto"),
		ModelEndpointURL:  stringsTrimSpace("MODEL_ENDPOINT_URL"),
		ModelAPIKey:       stringsTrimSpace("MODEL_API_KEY"),
		ModelName:         envOrDefault("MODEL_NAME", "meta-llama/Meta-Llama-3.1-8B-Instruct"),
		ChannelProvider:   envOrDefault("CHANNEL_PROVIDER", "twilio"),
		MetaAccessToken:   stringsTrimSpace("META_ACCESS_TOKEN"),
		MetaVerifyToken:   stringsTrimSpace("META_VERIFY_TOKEN"),
		MetaPhoneNumberID: stringsTrimSpace("META_PHONE_NUMBER_ID"),
		SMTPHost:          stringsTrimSpace("SMTP_HOST"),
		SMTPPort:          587,
		SMTPUsername:      stringsTrimSpace("SMTP_USERNAME"),
		SMTPPassword:      stringsTrimSpace("SMTP_PASSWORD"),
		SMTPFrom:          stringsTrimSpace("SMTP_FROM"),
		DatabaseURL:       stringsTrimSpace("DATABASE_URL"),
		ClientsCSVPath:    envOrDefault("CLIENTS_CSV_PATH", "data/clients.csv"),
		CalendarPath:      envOrDefault("CALENDAR_PATH", "data/events.json"),
		ShutdownTimeout:   15 * time.Second,
	}

	var err error
	cfg.ShutdownTimeout, err = durationFromEnv("APP_SHUTDOWN_TIMEOUT", cfg.ShutdownTimeout)
	if err != nil {
		return Config{}, err
	}
	cfg.MemoryMaxTurns, err = intFromEnv("MEMORY_MAX_TURNS", cfg.MemoryMaxTurns)
	if err != nil {
		return Config{}, err
	}
	cfg.SMTPPort, err = intFromEnv("SMTP_PORT", cfg.SMTPPort)
	if err != nil {
		return Config{}, err
	}
	cfg.AllowAnyOrigin, err = boolFromEnv("APP_ALLOW_ANY_ORIGIN", cfg.AllowAnyOrigin)
	if err != nil {
		return Config{}, err
	}

	if cfg.MemoryMaxTurns <= 0 {
		return Config{}, fmt.Errorf("MEMORY_MAX_TURNS must be positive")
	}
	if cfg.SMTPPort <= 0 || cfg.SMTPPort > 65535 {
		return Config{}, fmt.Errorf("SMTP_PORT must be a valid port")
	}
	switch strings.ToLower(cfg.ChannelProvider) {
	case "twilio", "meta":
	default:
		return Config{}, fmt.Errorf("invalid CHANNEL_PROVIDER: %q (expected twilio|meta)", cfg.ChannelProvider)
	}

	return cfg, nil
}

func envOrDefault(key, fallback string) string {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	return v
}

func stringsTrimSpace(key string) string {
	return strings.TrimSpace(os.Getenv(key))
}

func durationFromEnv(key string, fallback time.Duration) (time.Duration, error) {
	v := stringsTrimSpace(key)
	if v == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("%s parse error: %w", key, err)
	}
	return d, nil
}

func intFromEnv(key string, fallback int) (int, error) {
	v := stringsTrimSpace(key)
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%s parse error: %w", key, err)
	}
	return n, nil
}

func boolFromEnv(key string, fallback bool) (bool, error) {
	v := strings.ToLower(stringsTrimSpace(key))
	if v == "" {
		return fallback, nil
	}
	switch v {
	case "1", "true", "t", "yes", "y", "on":
		return true, nil
	case "0", "false", "f", "no", "n", "off":
		return false, nil
	default:
		return false, fmt.Errorf("%s parse error: expected bool", key)
	}
}
