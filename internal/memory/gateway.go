package memory

import (
	"context"
	"log"
	"strings"
	"time"

	"github.com/ent0n29/chatmem/internal/observability"
	"github.com/ent0n29/chatmem/internal/policy"
)

const DefaultSearchLimit = 5

// SearchResult is the outcome of a relevance search. Degraded is set when the
// backend failed and Facts is empty because of it.
type SearchResult struct {
	Facts    []string
	Degraded bool
}

// GatewayOption customises a Gateway.
type GatewayOption func(*Gateway)

// WithMetrics records operation outcomes.
func WithMetrics(m *observability.Metrics) GatewayOption {
	return func(g *Gateway) { g.metrics = m }
}

// WithRedaction masks PII in conversation records before they are stored.
// Facts are always stored verbatim.
func WithRedaction(enabled bool) GatewayOption {
	return func(g *Gateway) { g.redact = enabled }
}

// Gateway fronts a Backend and never lets its failures escape: errors are
// logged, counted and turned into empty results.
type Gateway struct {
	backend Backend
	metrics *observability.Metrics
	redact  bool
}

func NewGateway(backend Backend, opts ...GatewayOption) *Gateway {
	if backend == nil {
		backend = Disabled{}
	}
	g := &Gateway{backend: backend}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// SearchRelevant returns up to limit fact texts for the user, most relevant
// first. limit <= 0 uses DefaultSearchLimit.
func (g *Gateway) SearchRelevant(ctx context.Context, userID, query string, limit int) SearchResult {
	if limit <= 0 {
		limit = DefaultSearchLimit
	}
	start := time.Now()
	records, err := g.backend.Search(ctx, Query{UserID: userID, Text: query, Kind: KindFact, Limit: limit})
	g.metrics.ObserveMemoryOp("search", time.Since(start), err)
	if err != nil {
		log.Printf("memory search failed user=%s: %v", userID, err)
		return SearchResult{Degraded: true}
	}

	facts := make([]string, 0, len(records))
	for _, r := range records {
		// Some backends ignore the kind filter; drop anything that is not a fact.
		if r.Kind != "" && r.Kind != KindFact {
			continue
		}
		if text := strings.TrimSpace(r.Text); text != "" {
			facts = append(facts, text)
		}
		if len(facts) == limit {
			break
		}
	}
	return SearchResult{Facts: facts}
}

// StoreFact appends text as a fact record. It reports whether the backend
// accepted it.
func (g *Gateway) StoreFact(ctx context.Context, userID, text string) bool {
	return g.add(ctx, "store_fact", Record{UserID: userID, Kind: KindFact, Text: text})
}

// RecordConversationTurn stores one user/assistant exchange as an untagged
// conversation record.
func (g *Gateway) RecordConversationTurn(ctx context.Context, userID, userText, assistantText string) bool {
	msgs := []Message{
		{Role: "user", Content: userText},
		{Role: "assistant", Content: assistantText},
	}
	rec := Record{UserID: userID, Kind: KindConversation, Messages: msgs}
	if g.redact {
		for i := range rec.Messages {
			masked, hits := policy.Redact(rec.Messages[i].Content)
			if len(hits) > 0 {
				rec.Messages[i].Content = masked
				rec.PIIRedacted = true
			}
		}
	}
	rec.Text = conversationText(rec.Messages)
	return g.add(ctx, "record_conversation", rec)
}

// DeleteAll removes every record owned by the user.
func (g *Gateway) DeleteAll(ctx context.Context, userID string) bool {
	start := time.Now()
	err := g.backend.DeleteAll(ctx, userID)
	g.metrics.ObserveMemoryOp("delete_all", time.Since(start), err)
	if err != nil {
		log.Printf("memory delete failed user=%s: %v", userID, err)
		return false
	}
	return true
}

// Ping reports backend reachability when the backend supports it.
func (g *Gateway) Ping(ctx context.Context) error {
	if p, ok := g.backend.(Pinger); ok {
		return p.Ping(ctx)
	}
	return nil
}

func (g *Gateway) Close() error {
	return g.backend.Close()
}

func (g *Gateway) add(ctx context.Context, op string, rec Record) bool {
	start := time.Now()
	err := g.backend.Add(ctx, rec)
	g.metrics.ObserveMemoryOp(op, time.Since(start), err)
	if err != nil {
		log.Printf("memory %s failed user=%s: %v", op, rec.UserID, err)
		return false
	}
	return true
}
