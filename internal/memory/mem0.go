package memory

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/ent0n29/chatmem/internal/reliability"
)

const DefaultMem0BaseURL = "https://api.mem0.ai"

// Mem0Store talks to the hosted Mem0 REST API. Mem0 infers memories from the
// submitted messages, so stored text may be a rewording of the input.
type Mem0Store struct {
	baseURL string
	apiKey  string
	client  *http.Client
	retry   reliability.Policy
}

func NewMem0Store(baseURL, apiKey string) *Mem0Store {
	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if baseURL == "" {
		baseURL = DefaultMem0BaseURL
	}
	return &Mem0Store{
		baseURL: baseURL,
		apiKey:  strings.TrimSpace(apiKey),
		client: &http.Client{
			Timeout: 20 * time.Second,
		},
		retry: reliability.DefaultPolicy,
	}
}

type mem0AddRequest struct {
	Messages []Message         `json:"messages"`
	UserID   string            `json:"user_id"`
	Metadata map[string]string `json:"metadata,omitempty"`
}

type mem0SearchRequest struct {
	Query   string         `json:"query"`
	Filters map[string]any `json:"filters"`
	TopK    int            `json:"top_k,omitempty"`
}

type mem0Memory struct {
	ID        string         `json:"id"`
	Memory    string         `json:"memory"`
	Text      string         `json:"text"`
	UserID    string         `json:"user_id"`
	Metadata  map[string]any `json:"metadata"`
	CreatedAt string         `json:"created_at"`
}

func (s *Mem0Store) Add(ctx context.Context, record Record) error {
	req := mem0AddRequest{
		Messages: record.messagesOrText(),
		UserID:   record.UserID,
		Metadata: map[string]string{"type": string(record.Kind)},
	}
	if err := s.do(ctx, http.MethodPost, "/v1/memories/", nil, req, nil); err != nil {
		return fmt.Errorf("mem0 add: %w", err)
	}
	return nil
}

func (s *Mem0Store) Search(ctx context.Context, q Query) ([]Record, error) {
	conds := []any{map[string]any{"user_id": q.UserID}}
	if q.Kind != "" {
		conds = append(conds, map[string]any{"metadata": map[string]any{"type": string(q.Kind)}})
	}
	req := mem0SearchRequest{
		Query:   q.Text,
		Filters: map[string]any{"AND": conds},
		TopK:    q.Limit,
	}

	var raw json.RawMessage
	if err := s.do(ctx, http.MethodPost, "/v2/memories/search/", nil, req, &raw); err != nil {
		return nil, fmt.Errorf("mem0 search: %w", err)
	}
	items, err := decodeMem0Results(raw)
	if err != nil {
		return nil, fmt.Errorf("mem0 search: %w", err)
	}

	out := make([]Record, 0, len(items))
	for _, m := range items {
		text := strings.TrimSpace(m.Memory)
		if text == "" {
			text = strings.TrimSpace(m.Text)
		}
		if text == "" {
			continue
		}
		rec := Record{ID: m.ID, UserID: m.UserID, Kind: q.Kind, Text: text}
		if kind, ok := m.Metadata["type"].(string); ok {
			rec.Kind = Kind(kind)
		}
		if ts, err := time.Parse(time.RFC3339, m.CreatedAt); err == nil {
			rec.CreatedAt = ts
		}
		out = append(out, rec)
	}
	if q.Limit > 0 && len(out) > q.Limit {
		out = out[:q.Limit]
	}
	return out, nil
}

func (s *Mem0Store) DeleteAll(ctx context.Context, userID string) error {
	query := url.Values{"user_id": []string{userID}}
	if err := s.do(ctx, http.MethodDelete, "/v1/memories/", query, nil, nil); err != nil {
		return fmt.Errorf("mem0 delete all: %w", err)
	}
	return nil
}

func (s *Mem0Store) Close() error { return nil }

// decodeMem0Results accepts either a bare array or {"results": [...]}.
func decodeMem0Results(raw json.RawMessage) ([]mem0Memory, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return nil, nil
	}
	if trimmed[0] == '[' {
		var items []mem0Memory
		if err := json.Unmarshal(trimmed, &items); err != nil {
			return nil, fmt.Errorf("decode results: %w", err)
		}
		return items, nil
	}
	var wrapped struct {
		Results []mem0Memory `json:"results"`
	}
	if err := json.Unmarshal(trimmed, &wrapped); err != nil {
		return nil, fmt.Errorf("decode results: %w", err)
	}
	return wrapped.Results, nil
}

func (s *Mem0Store) do(ctx context.Context, method, path string, query url.Values, body any, out any) error {
	var payload []byte
	if body != nil {
		var err error
		payload, err = json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
	}
	endpoint := s.baseURL + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	return reliability.Do(ctx, s.retry, func(ctx context.Context) error {
		var reader io.Reader
		if payload != nil {
			reader = bytes.NewReader(payload)
		}
		httpReq, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
		if err != nil {
			return fmt.Errorf("create request: %w", err)
		}
		httpReq.Header.Set("Authorization", "Token "+s.apiKey)
		httpReq.Header.Set("Accept", "application/json")
		if payload != nil {
			httpReq.Header.Set("Content-Type", "application/json")
		}

		res, err := s.client.Do(httpReq)
		if err != nil {
			return fmt.Errorf("send request: %w", err)
		}
		defer res.Body.Close()

		if res.StatusCode < 200 || res.StatusCode >= 300 {
			b, _ := io.ReadAll(io.LimitReader(res.Body, 4<<10))
			return &reliability.StatusError{Code: res.StatusCode, Body: strings.TrimSpace(string(b))}
		}
		if out == nil {
			_, _ = io.Copy(io.Discard, res.Body)
			return nil
		}
		if err := json.NewDecoder(res.Body).Decode(out); err != nil && err != io.EOF {
			return fmt.Errorf("decode response: %w", err)
		}
		return nil
	})
}
