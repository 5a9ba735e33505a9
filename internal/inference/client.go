// Package inference adapts hosted chat-completion APIs to a single Client
// interface.
package inference

import (
	"context"
	"fmt"
	"strings"

	"github.com/ent0n29/chatmem/internal/prompt"
)

// Request is one chat completion call.
type Request struct {
	Model       string
	Messages    []prompt.Message
	Temperature float64
	MaxTokens   int
	TopP        float64
	Stream      bool
}

// Response is the complete reply after any streaming has finished.
type Response struct {
	Text  string
	Model string
}

// DeltaHandler receives streamed text fragments in order.
type DeltaHandler func(delta string) error

// Client sends a request to an inference provider. When req.Stream is set and
// onDelta is non-nil, fragments are delivered as they arrive and Response.Text
// holds their concatenation.
type Client interface {
	Complete(ctx context.Context, req Request, onDelta DeltaHandler) (Response, error)
	Name() string
}

// ModelLister is implemented by providers that can enumerate their models.
type ModelLister interface {
	ListModels(ctx context.Context) ([]string, error)
}

// Config controls client construction.
type Config struct {
	Provider        string
	GroqAPIKey      string
	GroqBaseURL     string
	AnthropicAPIKey string
}

// NewClient builds the configured provider. "auto" prefers Groq, then
// Anthropic, and falls back to the mock client when no key is set. With both
// keys present Anthropic backs up Groq.
func NewClient(cfg Config) (Client, error) {
	mode := strings.ToLower(strings.TrimSpace(cfg.Provider))
	if mode == "" {
		mode = "auto"
	}
	groqKey := strings.TrimSpace(cfg.GroqAPIKey)
	anthropicKey := strings.TrimSpace(cfg.AnthropicAPIKey)

	switch mode {
	case "auto":
		switch {
		case groqKey != "" && anthropicKey != "":
			return NewFallbackClient(NewGroqClient(groqKey, cfg.GroqBaseURL), NewAnthropicClient(anthropicKey)), nil
		case groqKey != "":
			return NewGroqClient(groqKey, cfg.GroqBaseURL), nil
		case anthropicKey != "":
			return NewAnthropicClient(anthropicKey), nil
		default:
			return NewMockClient(), nil
		}
	case "groq":
		if groqKey == "" {
			return nil, fmt.Errorf("groq provider requires GROQ_API_KEY")
		}
		return NewGroqClient(groqKey, cfg.GroqBaseURL), nil
	case "anthropic":
		if anthropicKey == "" {
			return nil, fmt.Errorf("anthropic provider requires ANTHROPIC_API_KEY")
		}
		return NewAnthropicClient(anthropicKey), nil
	case "mock":
		return NewMockClient(), nil
	default:
		return nil, fmt.Errorf("unsupported inference provider %q", cfg.Provider)
	}
}
