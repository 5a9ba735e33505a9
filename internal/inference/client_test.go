package inference

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/ent0n29/chatmem/internal/prompt"
)

func TestNewClientAutoSelection(t *testing.T) {
	cases := []struct {
		cfg  Config
		want string
	}{
		{Config{}, "mock"},
		{Config{Provider: "auto", GroqAPIKey: "g"}, "groq"},
		{Config{Provider: "auto", AnthropicAPIKey: "a"}, "anthropic"},
		{Config{Provider: "auto", GroqAPIKey: "g", AnthropicAPIKey: "a"}, "groq+anthropic"},
		{Config{Provider: "MOCK"}, "mock"},
	}
	for _, tc := range cases {
		c, err := NewClient(tc.cfg)
		if err != nil {
			t.Fatalf("NewClient(%+v) error = %v", tc.cfg, err)
		}
		if c.Name() != tc.want {
			t.Fatalf("NewClient(%+v).Name() = %q, want %q", tc.cfg, c.Name(), tc.want)
		}
	}
}

func TestNewClientRejectsMissingKey(t *testing.T) {
	for _, cfg := range []Config{{Provider: "groq"}, {Provider: "anthropic"}, {Provider: "openrouter"}} {
		if _, err := NewClient(cfg); err == nil {
			t.Fatalf("NewClient(%+v) error = nil, want error", cfg)
		}
	}
}

func TestMockClientEchoesAndRemembers(t *testing.T) {
	msgs := prompt.BuildMessages(nil, "sys", "what's my name?", []string{"My name is Alex"}, prompt.DefaultWindow)
	var streamed strings.Builder
	resp, err := NewMockClient().Complete(context.Background(), Request{Messages: msgs, Stream: true}, func(d string) error {
		streamed.WriteString(d)
		return nil
	})
	if err != nil {
		t.Fatalf("Complete() error = %v", err)
	}
	want := "I heard you: what's my name?\nI also remember: My name is Alex"
	if resp.Text != want {
		t.Fatalf("resp.Text = %q, want %q", resp.Text, want)
	}
	if streamed.String() != want {
		t.Fatalf("streamed = %q, want %q", streamed.String(), want)
	}
}

func TestFallbackClientUsesFallback(t *testing.T) {
	c := NewFallbackClient(errClient{}, NewMockClient())
	resp, err := c.Complete(context.Background(), Request{Messages: []prompt.Message{{Role: "user", Content: "x"}}}, nil)
	if err != nil {
		t.Fatalf("Complete() error = %v", err)
	}
	if resp.Text != "I heard you: x" {
		t.Fatalf("resp.Text = %q", resp.Text)
	}
}

func TestFallbackClientSkipsFallbackAfterStreaming(t *testing.T) {
	fb := &countingClient{}
	c := NewFallbackClient(partialClient{}, fb)
	_, err := c.Complete(context.Background(), Request{Stream: true}, func(string) error { return nil })
	if err == nil {
		t.Fatalf("Complete() error = nil, want primary error")
	}
	if fb.calls != 0 {
		t.Fatalf("fallback calls = %d, want 0", fb.calls)
	}
}

func TestFallbackClientSkipsFallbackOnCanceledContext(t *testing.T) {
	fb := &countingClient{}
	c := NewFallbackClient(cancelClient{}, fb)
	_, err := c.Complete(context.Background(), Request{}, nil)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("error = %v, want context.Canceled", err)
	}
	if fb.calls != 0 {
		t.Fatalf("fallback calls = %d, want 0", fb.calls)
	}
}

func TestIsAvailable(t *testing.T) {
	if !IsAvailable(DefaultModel) || !IsAvailable("qwen/qwen3-32b") {
		t.Fatalf("expected listed models to be available")
	}
	if IsAvailable("gpt-2") {
		t.Fatalf("IsAvailable(gpt-2) = true")
	}
}

type errClient struct{}

func (errClient) Name() string { return "err" }
func (errClient) Complete(context.Context, Request, DeltaHandler) (Response, error) {
	return Response{}, errors.New("boom")
}

type partialClient struct{}

func (partialClient) Name() string { return "partial" }
func (partialClient) Complete(_ context.Context, _ Request, onDelta DeltaHandler) (Response, error) {
	_ = onDelta("half a sen")
	return Response{}, errors.New("connection reset")
}

type cancelClient struct{}

func (cancelClient) Name() string { return "cancel" }
func (cancelClient) Complete(context.Context, Request, DeltaHandler) (Response, error) {
	return Response{}, context.Canceled
}

type countingClient struct {
	calls int
}

func (c *countingClient) Name() string { return "counting" }
func (c *countingClient) Complete(context.Context, Request, DeltaHandler) (Response, error) {
	c.calls++
	return Response{Text: "ok"}, nil
}
