package inference

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sort"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"
)

const DefaultGroqBaseURL = "https://api.groq.com/openai/v1"

// GroqClient speaks Groq's OpenAI-compatible chat completions API.
type GroqClient struct {
	client *openai.Client
}

func NewGroqClient(apiKey, baseURL string) *GroqClient {
	cfg := openai.DefaultConfig(apiKey)
	cfg.BaseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultGroqBaseURL
	}
	cfg.HTTPClient = &http.Client{Timeout: 2 * time.Minute}
	return &GroqClient{client: openai.NewClientWithConfig(cfg)}
}

func (c *GroqClient) Name() string { return "groq" }

func (c *GroqClient) Complete(ctx context.Context, req Request, onDelta DeltaHandler) (Response, error) {
	creq := openai.ChatCompletionRequest{
		Model:       req.Model,
		Messages:    toOpenAIMessages(req),
		Temperature: float32(req.Temperature),
		MaxTokens:   req.MaxTokens,
		TopP:        float32(req.TopP),
	}

	if !req.Stream {
		resp, err := c.client.CreateChatCompletion(ctx, creq)
		if err != nil {
			return Response{}, fmt.Errorf("groq completion: %w", err)
		}
		if len(resp.Choices) == 0 {
			return Response{}, errors.New("groq completion: no choices returned")
		}
		text := resp.Choices[0].Message.Content
		if onDelta != nil && text != "" {
			if err := onDelta(text); err != nil {
				return Response{}, err
			}
		}
		return Response{Text: text, Model: resp.Model}, nil
	}

	creq.Stream = true
	stream, err := c.client.CreateChatCompletionStream(ctx, creq)
	if err != nil {
		return Response{}, fmt.Errorf("groq stream: %w", err)
	}
	defer stream.Close()

	var (
		b     strings.Builder
		model = req.Model
	)
	for {
		chunk, err := stream.Recv()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return Response{}, fmt.Errorf("groq stream recv: %w", err)
		}
		if chunk.Model != "" {
			model = chunk.Model
		}
		if len(chunk.Choices) == 0 {
			continue
		}
		delta := chunk.Choices[0].Delta.Content
		if delta == "" {
			continue
		}
		b.WriteString(delta)
		if onDelta != nil {
			if err := onDelta(delta); err != nil {
				return Response{}, err
			}
		}
	}
	return Response{Text: b.String(), Model: model}, nil
}

// ListModels returns the model IDs visible to the API key, sorted.
func (c *GroqClient) ListModels(ctx context.Context) ([]string, error) {
	list, err := c.client.ListModels(ctx)
	if err != nil {
		return nil, fmt.Errorf("groq list models: %w", err)
	}
	ids := make([]string, 0, len(list.Models))
	for _, m := range list.Models {
		ids = append(ids, m.ID)
	}
	sort.Strings(ids)
	return ids, nil
}

func toOpenAIMessages(req Request) []openai.ChatCompletionMessage {
	out := make([]openai.ChatCompletionMessage, 0, len(req.Messages))
	for _, m := range req.Messages {
		out = append(out, openai.ChatCompletionMessage{Role: m.Role, Content: m.Content})
	}
	return out
}
