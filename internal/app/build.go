// Package app wires configuration into a ready-to-serve chat API.
package app

import (
	"context"
	"fmt"
	"log"

	"github.com/ent0n29/chatmem/internal/chat"
	"github.com/ent0n29/chatmem/internal/config"
	"github.com/ent0n29/chatmem/internal/conversation"
	"github.com/ent0n29/chatmem/internal/httpapi"
	"github.com/ent0n29/chatmem/internal/inference"
	"github.com/ent0n29/chatmem/internal/memory"
	"github.com/ent0n29/chatmem/internal/observability"
	"github.com/ent0n29/chatmem/internal/persona"
)

type BuildResult struct {
	Config  config.Config
	API     *httpapi.Server
	Chat    *chat.Service
	Metrics *observability.Metrics

	// Resolved backend and provider names, for startup logging.
	MemoryBackend string
	Provider      string

	// Cleanup should be called on shutdown to release the memory backend.
	Cleanup func() error
}

func Build(ctx context.Context, cfg config.Config) (*BuildResult, error) {
	metrics := observability.NewMetrics(cfg.MetricsNamespace)

	backend, backendName, err := memory.NewBackend(ctx, memory.Config{
		Backend:     cfg.MemoryBackend,
		DatabaseURL: cfg.DatabaseURL,
		Mem0APIKey:  cfg.Mem0APIKey,
		Mem0BaseURL: cfg.Mem0BaseURL,
	})
	if err != nil {
		return nil, fmt.Errorf("memory backend init failed: %w", err)
	}
	gateway := memory.NewGateway(backend,
		memory.WithMetrics(metrics),
		memory.WithRedaction(cfg.RedactConversationRecords),
	)

	client, err := inference.NewClient(inference.Config{
		Provider:        cfg.InferenceProvider,
		GroqAPIKey:      cfg.GroqAPIKey,
		GroqBaseURL:     cfg.GroqBaseURL,
		AnthropicAPIKey: cfg.AnthropicAPIKey,
	})
	if err != nil {
		_ = gateway.Close()
		return nil, fmt.Errorf("inference client init failed: %w", err)
	}
	if client.Name() == "mock" {
		log.Printf("inference provider: mock (no GROQ_API_KEY or ANTHROPIC_API_KEY set)")
	}

	svc := chat.NewService(chat.Config{
		DefaultModel:        cfg.DefaultModel,
		Temperature:         cfg.Temperature,
		MaxTokens:           cfg.MaxTokens,
		TopP:                cfg.TopP,
		Stream:              cfg.Stream,
		HistoryWindow:       cfg.HistoryWindow,
		MemorySearchLimit:   cfg.MemorySearchLimit,
		RecordConversations: cfg.RecordConversations,
	}, persona.Default(), conversation.NewStore(), gateway, client, metrics)

	// Report what was actually chosen rather than "auto".
	cfg.MemoryBackend = backendName
	cfg.InferenceProvider = client.Name()

	return &BuildResult{
		Config:        cfg,
		API:           httpapi.New(cfg, svc, metrics),
		Chat:          svc,
		Metrics:       metrics,
		MemoryBackend: backendName,
		Provider:      client.Name(),
		Cleanup:       gateway.Close,
	}, nil
}
