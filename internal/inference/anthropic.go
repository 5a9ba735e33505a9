package inference

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
)

// AnthropicClient calls the Anthropic Messages API. Model names that are not
// Claude models are replaced with DefaultAnthropicModel.
type AnthropicClient struct {
	client anthropic.Client
}

const DefaultAnthropicModel = "claude-3-5-haiku-latest"

func NewAnthropicClient(apiKey string, opts ...option.RequestOption) *AnthropicClient {
	base := []option.RequestOption{
		option.WithAPIKey(apiKey),
		option.WithHTTPClient(&http.Client{Timeout: 2 * time.Minute}),
	}
	return &AnthropicClient{client: anthropic.NewClient(append(base, opts...)...)}
}

func (c *AnthropicClient) Name() string { return "anthropic" }

func (c *AnthropicClient) Complete(ctx context.Context, req Request, onDelta DeltaHandler) (Response, error) {
	params := c.params(req)

	if !req.Stream {
		msg, err := c.client.Messages.New(ctx, params)
		if err != nil {
			return Response{}, fmt.Errorf("anthropic message: %w", err)
		}
		var b strings.Builder
		for _, block := range msg.Content {
			if block.Type == "text" {
				b.WriteString(block.Text)
			}
		}
		text := b.String()
		if onDelta != nil && text != "" {
			if err := onDelta(text); err != nil {
				return Response{}, err
			}
		}
		return Response{Text: text, Model: string(params.Model)}, nil
	}

	stream := c.client.Messages.NewStreaming(ctx, params)
	defer stream.Close()

	var b strings.Builder
	for stream.Next() {
		event := stream.Current()
		ev, ok := event.AsAny().(anthropic.ContentBlockDeltaEvent)
		if !ok {
			continue
		}
		td, ok := ev.Delta.AsAny().(anthropic.TextDelta)
		if !ok || td.Text == "" {
			continue
		}
		b.WriteString(td.Text)
		if onDelta != nil {
			if err := onDelta(td.Text); err != nil {
				return Response{}, err
			}
		}
	}
	if err := stream.Err(); err != nil {
		return Response{}, fmt.Errorf("anthropic stream: %w", err)
	}
	return Response{Text: b.String(), Model: string(params.Model)}, nil
}

func (c *AnthropicClient) params(req Request) anthropic.MessageNewParams {
	model := req.Model
	if !strings.HasPrefix(model, "claude") {
		model = DefaultAnthropicModel
	}
	maxTokens := int64(req.MaxTokens)
	if maxTokens <= 0 {
		maxTokens = 1024
	}

	p := anthropic.MessageNewParams{
		Model:     anthropic.Model(model),
		MaxTokens: maxTokens,
	}
	if req.Temperature > 0 {
		p.Temperature = anthropic.Float(req.Temperature)
	}
	// The API rejects temperature and top_p together on newer models.
	if req.TopP > 0 && req.TopP < 1 && req.Temperature <= 0 {
		p.TopP = anthropic.Float(req.TopP)
	}

	for _, m := range req.Messages {
		switch m.Role {
		case "system":
			p.System = append(p.System, anthropic.TextBlockParam{Text: m.Content})
		case "assistant":
			p.Messages = append(p.Messages, anthropic.NewAssistantMessage(anthropic.NewTextBlock(m.Content)))
		default:
			p.Messages = append(p.Messages, anthropic.NewUserMessage(anthropic.NewTextBlock(m.Content)))
		}
	}
	return p
}
