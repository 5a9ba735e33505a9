// Package prompt turns a conversation and retrieved memories into the message
// list sent to the inference provider.
package prompt

import (
	"strings"

	"github.com/ent0n29/chatmem/internal/conversation"
)

// DefaultWindow is how many recent non-system turns are replayed.
const DefaultWindow = 6

const factsHeader = "Known facts about the user:"

// Message is the wire shape of one chat message.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// BuildMessages assembles, in order: the system message (with a facts block
// when memories is non-empty), the last window non-system turns of conv, and
// the new user turn. window <= 0 replays no history.
func BuildMessages(conv []conversation.Turn, systemPrompt, newUserText string, memories []string, window int) []Message {
	history := recentTurns(conv, window)
	out := make([]Message, 0, len(history)+2)
	out = append(out, Message{Role: string(conversation.RoleSystem), Content: SystemContent(systemPrompt, memories)})
	for _, t := range history {
		out = append(out, Message{Role: string(t.Role()), Content: t.Content()})
	}
	out = append(out, Message{Role: string(conversation.RoleUser), Content: newUserText})
	return out
}

// SystemContent appends the known-facts block to base when there are facts.
func SystemContent(base string, memories []string) string {
	if len(memories) == 0 {
		return base
	}
	var b strings.Builder
	b.WriteString(base)
	b.WriteString("\n\n")
	b.WriteString(factsHeader)
	for _, m := range memories {
		b.WriteString("\n- ")
		b.WriteString(m)
	}
	return b.String()
}

func recentTurns(conv []conversation.Turn, window int) []conversation.Turn {
	if window <= 0 {
		return nil
	}
	nonSystem := make([]conversation.Turn, 0, len(conv))
	for _, t := range conv {
		if t.Role() != conversation.RoleSystem {
			nonSystem = append(nonSystem, t)
		}
	}
	if len(nonSystem) > window {
		nonSystem = nonSystem[len(nonSystem)-window:]
	}
	return nonSystem
}
