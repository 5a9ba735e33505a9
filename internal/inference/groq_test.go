package inference

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/ent0n29/chatmem/internal/prompt"
)

func TestGroqClientStreamsDeltas(t *testing.T) {
	var got map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chat/completions" {
			t.Errorf("path = %q, want /chat/completions", r.URL.Path)
		}
		if auth := r.Header.Get("Authorization"); auth != "Bearer gk" {
			t.Errorf("Authorization = %q", auth)
		}
		_ = json.NewDecoder(r.Body).Decode(&got)
		w.Header().Set("Content-Type", "text/event-stream")
		for _, part := range []string{"Hello", ", ", "Alex"} {
			fmt.Fprintf(w, "data: {\"id\":\"c1\",\"model\":\"llama-3.1-8b-instant\",\"choices\":[{\"index\":0,\"delta\":{\"content\":%q}}]}\n\n", part)
		}
		fmt.Fprint(w, "data: [DONE]\n\n")
	}))
	defer srv.Close()

	c := NewGroqClient("gk", srv.URL)
	var deltas []string
	resp, err := c.Complete(context.Background(), Request{
		Model:       "llama-3.1-8b-instant",
		Messages:    []prompt.Message{{Role: "system", Content: "sys"}, {Role: "user", Content: "hi"}},
		Temperature: 0.7,
		MaxTokens:   1024,
		TopP:        1,
		Stream:      true,
	}, func(d string) error {
		deltas = append(deltas, d)
		return nil
	})
	if err != nil {
		t.Fatalf("Complete() error = %v", err)
	}
	if resp.Text != "Hello, Alex" {
		t.Fatalf("resp.Text = %q, want %q", resp.Text, "Hello, Alex")
	}
	if len(deltas) != 3 {
		t.Fatalf("deltas = %v, want 3", deltas)
	}
	if got["stream"] != true || got["model"] != "llama-3.1-8b-instant" {
		t.Fatalf("request = %v", got)
	}
	msgs, _ := got["messages"].([]any)
	if len(msgs) != 2 {
		t.Fatalf("messages = %v, want 2", got["messages"])
	}
}

func TestGroqClientWholeResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"c1","object":"chat.completion","model":"qwen/qwen3-32b","choices":[{"index":0,"message":{"role":"assistant","content":"Bonjour"},"finish_reason":"stop"}]}`))
	}))
	defer srv.Close()

	c := NewGroqClient("gk", srv.URL)
	resp, err := c.Complete(context.Background(), Request{Model: "qwen/qwen3-32b", Messages: []prompt.Message{{Role: "user", Content: "hi"}}}, nil)
	if err != nil {
		t.Fatalf("Complete() error = %v", err)
	}
	if resp.Text != "Bonjour" || resp.Model != "qwen/qwen3-32b" {
		t.Fatalf("resp = %+v", resp)
	}
}

func TestGroqClientSurfacesAPIErrors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"error":{"message":"Invalid API Key","type":"invalid_request_error"}}`))
	}))
	defer srv.Close()

	c := NewGroqClient("bad", srv.URL)
	_, err := c.Complete(context.Background(), Request{Model: "m", Messages: []prompt.Message{{Role: "user", Content: "hi"}}, Stream: true}, nil)
	if err == nil || !strings.Contains(err.Error(), "Invalid API Key") {
		t.Fatalf("Complete() error = %v, want invalid key error", err)
	}
}

func TestGroqClientListModels(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/models" {
			t.Errorf("path = %q, want /models", r.URL.Path)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"object":"list","data":[{"id":"qwen/qwen3-32b"},{"id":"llama-3.1-8b-instant"}]}`))
	}))
	defer srv.Close()

	ids, err := NewGroqClient("gk", srv.URL).ListModels(context.Background())
	if err != nil {
		t.Fatalf("ListModels() error = %v", err)
	}
	if len(ids) != 2 || ids[0] != "llama-3.1-8b-instant" {
		t.Fatalf("ListModels() = %v", ids)
	}
}
