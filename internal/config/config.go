package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/jivanlabs/jivanmitra/internal/language"
)

// Config contains all runtime settings for the companion voice service.
type Config struct {
	BindAddr                 string
	ShutdownTimeout          time.Duration
	SessionInactivityTimeout time.Duration
	MetricsNamespace         string

	AllowAnyOrigin  bool
	DefaultLanguage language.Preference

	GenAIAdapterMode string
	GeminiAPIKey     string
	GeminiBaseURL    string
	GeminiModel      string
	GenAITimeout     time.Duration

	TTSProvider string
	TTSBaseURL  string
	TTSTimeout  time.Duration
	TTSSlow     bool

	DatabaseURL string
}

// Load reads environment variables and applies safe defaults.
func Load() (Config, error) {
	cfg := Config{
		BindAddr:         envOrDefault("APP_BIND_ADDR", ":8080"),
		MetricsNamespace: envOrDefault("APP_METRICS_NAMESPACE", "jivanmitra"),
		AllowAnyOrigin:   false,
		GenAIAdapterMode: envOrDefault("GENAI_ADAPTER_MODE", "auto"),
		GeminiAPIKey:     envTrimmed("GEMINI_API_KEY"),
		GeminiBaseURL:    envOrDefault("GEMINI_BASE_URL", "https://generativelanguage.googleapis.com"),
		GeminiModel:      envOrDefault("GEMINI_MODEL", "gemini-1.5-flash"),
		TTSProvider:      envOrDefault("TTS_PROVIDER", "auto"),
		// The gTTS-compatible endpoint; overridable for tests and proxies.
		TTSBaseURL:               envOrDefault("TTS_BASE_URL", "https://translate.google.com"),
		TTSSlow:                  false,
		DatabaseURL:              envTrimmed("DATABASE_URL"),
		ShutdownTimeout:          15 * time.Second,
		SessionInactivityTimeout: 10 * time.Minute,
		GenAITimeout:             30 * time.Second,
		TTSTimeout:               15 * time.Second,
	}

	var err error
	cfg.ShutdownTimeout, err = durationFromEnv("APP_SHUTDOWN_TIMEOUT", cfg.ShutdownTimeout)
	if err != nil {
		return Config{}, err
	}
	cfg.SessionInactivityTimeout, err = durationFromEnv("APP_SESSION_INACTIVITY_TIMEOUT", cfg.SessionInactivityTimeout)
	if err != nil {
		return Config{}, err
	}
	cfg.GenAITimeout, err = durationFromEnv("GENAI_TIMEOUT", cfg.GenAITimeout)
	if err != nil {
		return Config{}, err
	}
	cfg.TTSTimeout, err = durationFromEnv("TTS_TIMEOUT", cfg.TTSTimeout)
	if err != nil {
		return Config{}, err
	}
	cfg.AllowAnyOrigin, err = boolFromEnv("APP_ALLOW_ANY_ORIGIN", cfg.AllowAnyOrigin)
	if err != nil {
		return Config{}, err
	}
	cfg.TTSSlow, err = boolFromEnv("TTS_SLOW", cfg.TTSSlow)
	if err != nil {
		return Config{}, err
	}

	cfg.DefaultLanguage, err = language.Parse(envOrDefault("APP_DEFAULT_LANGUAGE", string(language.CodeEnglish)))
	if err != nil {
		return Config{}, fmt.Errorf("APP_DEFAULT_LANGUAGE: %w", err)
	}

	if cfg.SessionInactivityTimeout < 5*time.Second {
		return Config{}, fmt.Errorf("APP_SESSION_INACTIVITY_TIMEOUT must be at least 5s")
	}
	if cfg.GenAITimeout <= 0 {
		return Config{}, fmt.Errorf("GENAI_TIMEOUT must be positive")
	}
	if cfg.TTSTimeout <= 0 {
		return Config{}, fmt.Errorf("TTS_TIMEOUT must be positive")
	}
	switch strings.ToLower(strings.TrimSpace(cfg.GenAIAdapterMode)) {
	case "auto", "gemini", "mock":
	default:
		return Config{}, fmt.Errorf("invalid GENAI_ADAPTER_MODE: %q (expected auto|gemini|mock)", cfg.GenAIAdapterMode)
	}
	switch strings.ToLower(strings.TrimSpace(cfg.TTSProvider)) {
	case "auto", "gtrans", "mock":
	default:
		return Config{}, fmt.Errorf("invalid TTS_PROVIDER: %q (expected auto|gtrans|mock)", cfg.TTSProvider)
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

func envTrimmed(key string) string {
	return strings.TrimSpace(os.Getenv(key))
}

func durationFromEnv(key string, fallback time.Duration) (time.Duration, error) {
	v := envTrimmed(key)
	if v == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("%s parse error: %w", key, err)
	}
	return d, nil
}

func boolFromEnv(key string, fallback bool) (bool, error) {
	v := strings.ToLower(envTrimmed(key))
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
