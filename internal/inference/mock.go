package inference

import (
	"context"
	"fmt"
	"strings"

	"github.com/ent0n29/chatmem/internal/prompt"
)

// MockClient replies deterministically without any network access.
type MockClient struct{}

func NewMockClient() *MockClient { return &MockClient{} }

func (c *MockClient) Name() string { return "mock" }

func (c *MockClient) Complete(ctx context.Context, req Request, onDelta DeltaHandler) (Response, error) {
	select {
	case <-ctx.Done():
		return Response{}, ctx.Err()
	default:
	}

	text := buildMockReply(req.Messages)
	if req.Stream && onDelta != nil {
		for _, word := range strings.SplitAfter(text, " ") {
			if err := onDelta(word); err != nil {
				return Response{}, err
			}
		}
	}
	return Response{Text: text, Model: req.Model}, nil
}

func buildMockReply(msgs []prompt.Message) string {
	var input string
	if n := len(msgs); n > 0 {
		input = strings.TrimSpace(msgs[n-1].Content)
	}
	if input == "" {
		input = "nothing"
	}
	reply := fmt.Sprintf("I heard you: %s", input)

	if len(msgs) > 0 {
		if _, facts, ok := strings.Cut(msgs[0].Content, "Known facts about the user:\n- "); ok {
			first, _, _ := strings.Cut(facts, "\n")
			reply += "\nI also remember: " + first
		}
	}
	return reply
}
