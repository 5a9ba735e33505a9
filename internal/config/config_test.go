package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	setCoreEnvEmpty(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.BindAddr != ":8080" {
		t.Fatalf("BindAddr = %q, want :8080", cfg.BindAddr)
	}
	if cfg.Temperature != 0.7 || cfg.MaxTokens != 1024 || cfg.TopP != 1 || !cfg.Stream {
		t.Fatalf("sampling defaults = %v/%d/%v/%v", cfg.Temperature, cfg.MaxTokens, cfg.TopP, cfg.Stream)
	}
	if cfg.HistoryWindow != 6 {
		t.Fatalf("HistoryWindow = %d, want 6", cfg.HistoryWindow)
	}
	if cfg.MemorySearchLimit != 5 {
		t.Fatalf("MemorySearchLimit = %d, want 5", cfg.MemorySearchLimit)
	}
	if cfg.MemoryBackend != "auto" || cfg.InferenceProvider != "auto" {
		t.Fatalf("backend/provider = %q/%q, want auto/auto", cfg.MemoryBackend, cfg.InferenceProvider)
	}
	if cfg.DefaultModel != "meta-llama/llama-4-scout-17b-16e-instruct" {
		t.Fatalf("DefaultModel = %q", cfg.DefaultModel)
	}
	if cfg.ShutdownTimeout != 15*time.Second {
		t.Fatalf("ShutdownTimeout = %v, want 15s", cfg.ShutdownTimeout)
	}
}

func TestLoadExplicitValues(t *testing.T) {
	setCoreEnvEmpty(t)
	t.Setenv("APP_BIND_ADDR", ":9191")
	t.Setenv("CHAT_TEMPERATURE", "0.2")
	t.Setenv("CHAT_STREAM", "off")
	t.Setenv("CHAT_HISTORY_WINDOW", "0")
	t.Setenv("MEMORY_BACKEND", "vector")
	t.Setenv("GROQ_API_KEY", "  gsk_test  ")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.BindAddr != ":9191" || cfg.Temperature != 0.2 || cfg.Stream || cfg.HistoryWindow != 0 {
		t.Fatalf("cfg = %+v", cfg)
	}
	if cfg.MemoryBackend != "vector" {
		t.Fatalf("MemoryBackend = %q, want vector", cfg.MemoryBackend)
	}
	if cfg.GroqAPIKey != "gsk_test" {
		t.Fatalf("GroqAPIKey = %q, want trimmed key", cfg.GroqAPIKey)
	}
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	cases := map[string]string{
		"CHAT_TEMPERATURE":     "3",
		"CHAT_TOP_P":           "0",
		"CHAT_MAX_TOKENS":      "zero",
		"CHAT_HISTORY_WINDOW":  "-1",
		"MEMORY_SEARCH_LIMIT":  "0",
		"MEMORY_BACKEND":       "redis",
		"INFERENCE_PROVIDER":   "openrouter",
		"APP_SHUTDOWN_TIMEOUT": "soon",
		"APP_DEV_MODE":         "maybe",
	}
	for key, value := range cases {
		setCoreEnvEmpty(t)
		t.Setenv(key, value)
		if _, err := Load(); err == nil {
			t.Fatalf("Load() with %s=%q error = nil, want error", key, value)
		}
	}
}

func setCoreEnvEmpty(t *testing.T) {
	t.Helper()
	keys := []string{
		"APP_BIND_ADDR",
		"APP_SHUTDOWN_TIMEOUT",
		"APP_METRICS_NAMESPACE",
		"APP_ALLOW_ANY_ORIGIN",
		"APP_DEV_MODE",
		"INFERENCE_PROVIDER",
		"GROQ_API_KEY",
		"GROQ_BASE_URL",
		"ANTHROPIC_API_KEY",
		"CHAT_DEFAULT_MODEL",
		"CHAT_TEMPERATURE",
		"CHAT_MAX_TOKENS",
		"CHAT_TOP_P",
		"CHAT_STREAM",
		"CHAT_HISTORY_WINDOW",
		"MEMORY_BACKEND",
		"MEM0_API_KEY",
		"MEM0_BASE_URL",
		"DATABASE_URL",
		"MEMORY_SEARCH_LIMIT",
		"MEMORY_RECORD_CONVERSATIONS",
		"MEMORY_REDACT_PII",
	}
	for _, key := range keys {
		t.Setenv(key, "")
	}
}
