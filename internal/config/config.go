package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config contains all runtime settings for the chat service.
type Config struct {
	BindAddr         string
	ShutdownTimeout  time.Duration
	MetricsNamespace string
	AllowAnyOrigin   bool
	// DevMode marks the identity cookie as non-Secure so it works over plain HTTP.
	DevMode bool

	InferenceProvider string
	GroqAPIKey        string
	GroqBaseURL       string
	AnthropicAPIKey   string

	DefaultModel  string
	Temperature   float64
	MaxTokens     int
	TopP          float64
	Stream        bool
	HistoryWindow int

	MemoryBackend             string
	Mem0APIKey                string
	Mem0BaseURL               string
	DatabaseURL               string
	MemorySearchLimit         int
	RecordConversations       bool
	RedactConversationRecords bool
}

// Load reads environment variables and applies safe defaults.
func Load() (Config, error) {
	cfg := Config{
		BindAddr:          envOrDefault("APP_BIND_ADDR", ":8080"),
		MetricsNamespace:  envOrDefault("APP_METRICS_NAMESPACE", "chatmem"),
		InferenceProvider: envOrDefault("INFERENCE_PROVIDER", "auto"),
		GroqAPIKey:        stringsTrimSpace("GROQ_API_KEY"),
		GroqBaseURL:       envOrDefault("GROQ_BASE_URL", "https://api.groq.com/openai/v1"),
		AnthropicAPIKey:   stringsTrimSpace("ANTHROPIC_API_KEY"),
		DefaultModel:      envOrDefault("CHAT_DEFAULT_MODEL", "meta-llama/llama-4-scout-17b-16e-instruct"),
		MemoryBackend:     envOrDefault("MEMORY_BACKEND", "auto"),
		Mem0APIKey:        stringsTrimSpace("MEM0_API_KEY"),
		Mem0BaseURL:       envOrDefault("MEM0_BASE_URL", "https://api.mem0.ai"),
		DatabaseURL:       stringsTrimSpace("DATABASE_URL"),
		ShutdownTimeout:   15 * time.Second,
		Temperature:       0.7,
		MaxTokens:         1024,
		TopP:              1,
		Stream:            true,
		HistoryWindow:     6,
		MemorySearchLimit: 5,
		// Conversation records are only written when asked for.
		RecordConversations: false,
	}

	var err error
	if cfg.ShutdownTimeout, err = durationFromEnv("APP_SHUTDOWN_TIMEOUT", cfg.ShutdownTimeout); err != nil {
		return Config{}, err
	}
	if cfg.AllowAnyOrigin, err = boolFromEnv("APP_ALLOW_ANY_ORIGIN", cfg.AllowAnyOrigin); err != nil {
		return Config{}, err
	}
	if cfg.DevMode, err = boolFromEnv("APP_DEV_MODE", cfg.DevMode); err != nil {
		return Config{}, err
	}
	if cfg.Temperature, err = floatFromEnv("CHAT_TEMPERATURE", cfg.Temperature); err != nil {
		return Config{}, err
	}
	if cfg.MaxTokens, err = intFromEnv("CHAT_MAX_TOKENS", cfg.MaxTokens); err != nil {
		return Config{}, err
	}
	if cfg.TopP, err = floatFromEnv("CHAT_TOP_P", cfg.TopP); err != nil {
		return Config{}, err
	}
	if cfg.Stream, err = boolFromEnv("CHAT_STREAM", cfg.Stream); err != nil {
		return Config{}, err
	}
	if cfg.HistoryWindow, err = intFromEnv("CHAT_HISTORY_WINDOW", cfg.HistoryWindow); err != nil {
		return Config{}, err
	}
	if cfg.MemorySearchLimit, err = intFromEnv("MEMORY_SEARCH_LIMIT", cfg.MemorySearchLimit); err != nil {
		return Config{}, err
	}
	if cfg.RecordConversations, err = boolFromEnv("MEMORY_RECORD_CONVERSATIONS", cfg.RecordConversations); err != nil {
		return Config{}, err
	}
	if cfg.RedactConversationRecords, err = boolFromEnv("MEMORY_REDACT_PII", cfg.RedactConversationRecords); err != nil {
		return Config{}, err
	}

	if cfg.Temperature < 0 || cfg.Temperature > 2 {
		return Config{}, fmt.Errorf("CHAT_TEMPERATURE must be within [0, 2]")
	}
	if cfg.TopP <= 0 || cfg.TopP > 1 {
		return Config{}, fmt.Errorf("CHAT_TOP_P must be within (0, 1]")
	}
	if cfg.MaxTokens <= 0 {
		return Config{}, fmt.Errorf("CHAT_MAX_TOKENS must be positive")
	}
	if cfg.HistoryWindow < 0 {
		return Config{}, fmt.Errorf("CHAT_HISTORY_WINDOW must be >= 0")
	}
	if cfg.MemorySearchLimit <= 0 {
		return Config{}, fmt.Errorf("MEMORY_SEARCH_LIMIT must be positive")
	}
	switch strings.ToLower(cfg.MemoryBackend) {
	case "auto", "inmemory", "postgres", "mem0", "vector", "disabled":
	default:
		return Config{}, fmt.Errorf("MEMORY_BACKEND %q is not supported", cfg.MemoryBackend)
	}
	switch strings.ToLower(cfg.InferenceProvider) {
	case "auto", "groq", "anthropic", "mock":
	default:
		return Config{}, fmt.Errorf("INFERENCE_PROVIDER %q is not supported", cfg.InferenceProvider)
	}

	return cfg, nil
}

func envOrDefault(key, fallback string) string {
	v := stringsTrimSpace(key)
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

func floatFromEnv(key string, fallback float64) (float64, error) {
	v := stringsTrimSpace(key)
	if v == "" {
		return fallback, nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, fmt.Errorf("%s parse error: %w", key, err)
	}
	return f, nil
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
