package memory

import (
	"context"
	"strings"
	"time"
	"unicode"
)

// Kind tags a record for retrieval filtering.
type Kind string

const (
	KindFact         Kind = "fact"
	KindConversation Kind = "conversation"
)

// Message is one role/content pair attached to a conversation record.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Record is a single memory owned by a user.
type Record struct {
	ID          string    `json:"id"`
	UserID      string    `json:"user_id"`
	Kind        Kind      `json:"kind"`
	Text        string    `json:"text"`
	Messages    []Message `json:"messages,omitempty"`
	PIIRedacted bool      `json:"pii_redacted"`
	CreatedAt   time.Time `json:"created_at"`
}

// Query selects records of one kind for a user, ranked by relevance to Text.
type Query struct {
	UserID string
	Text   string
	Kind   Kind
	Limit  int
}

// Backend is the external fact store. Implementations rank Search results by
// their own relevance metric, highest first.
type Backend interface {
	Add(ctx context.Context, record Record) error
	Search(ctx context.Context, q Query) ([]Record, error)
	DeleteAll(ctx context.Context, userID string) error
	Close() error
}

// Pinger is implemented by backends that can report reachability.
type Pinger interface {
	Ping(ctx context.Context) error
}

func (r Record) messagesOrText() []Message {
	if len(r.Messages) > 0 {
		return r.Messages
	}
	return []Message{{Role: "user", Content: r.Text}}
}

func conversationText(msgs []Message) string {
	lines := make([]string, 0, len(msgs))
	for _, m := range msgs {
		lines = append(lines, m.Role+": "+m.Content)
	}
	return strings.Join(lines, "\n")
}

// tokenize lowercases text and splits it on anything that is not a letter or
// digit.
func tokenize(text string) []string {
	return strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}

func tokenSet(text string) map[string]struct{} {
	set := make(map[string]struct{})
	for _, tok := range tokenize(text) {
		set[tok] = struct{}{}
	}
	return set
}

// overlapScore counts distinct query tokens present in text.
func overlapScore(query map[string]struct{}, text string) int {
	score := 0
	for tok := range tokenSet(text) {
		if _, ok := query[tok]; ok {
			score++
		}
	}
	return score
}
