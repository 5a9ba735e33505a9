package prompt

import (
	"fmt"
	"testing"

	"github.com/ent0n29/chatmem/internal/conversation"
)

func sampleConversation(n int) []conversation.Turn {
	turns := []conversation.Turn{conversation.MustTurn(conversation.RoleSystem, "seed")}
	for i := 0; i < n; i++ {
		role := conversation.RoleUser
		if i%2 == 1 {
			role = conversation.RoleAssistant
		}
		turns = append(turns, conversation.MustTurn(role, fmt.Sprintf("turn-%d", i)))
	}
	return turns
}

func TestBuildMessagesWindow(t *testing.T) {
	msgs := BuildMessages(sampleConversation(10), "You are helpful.", "next", nil, DefaultWindow)
	if len(msgs) != 8 {
		t.Fatalf("len(msgs) = %d, want 8", len(msgs))
	}
	if msgs[0].Role != "system" || msgs[0].Content != "You are helpful." {
		t.Fatalf("msgs[0] = %+v", msgs[0])
	}
	for i, want := range []string{"turn-4", "turn-5", "turn-6", "turn-7", "turn-8", "turn-9"} {
		if got := msgs[i+1].Content; got != want {
			t.Fatalf("msgs[%d].Content = %q, want %q", i+1, got, want)
		}
	}
	if last := msgs[7]; last.Role != "user" || last.Content != "next" {
		t.Fatalf("last = %+v, want user/next", last)
	}
}

func TestBuildMessagesMemoriesInSystemPrompt(t *testing.T) {
	msgs := BuildMessages(nil, "Base.", "what's my name?", []string{"My name is Alex", "I live in Rome"}, DefaultWindow)
	want := "Base.\n\nKnown facts about the user:\n- My name is Alex\n- I live in Rome"
	if msgs[0].Content != want {
		t.Fatalf("system = %q, want %q", msgs[0].Content, want)
	}
	if len(msgs) != 2 {
		t.Fatalf("len(msgs) = %d, want 2", len(msgs))
	}
}

func TestBuildMessagesNoHistoryWhenWindowNotPositive(t *testing.T) {
	for _, window := range []int{0, -3} {
		msgs := BuildMessages(sampleConversation(4), "sys", "hi", nil, window)
		if len(msgs) != 2 {
			t.Fatalf("window=%d len(msgs) = %d, want 2", window, len(msgs))
		}
	}
}

func TestBuildMessagesShortHistoryAndSystemTurnsSkipped(t *testing.T) {
	conv := sampleConversation(3)
	conv = append(conv, conversation.MustTurn(conversation.RoleSystem, "late system"))
	msgs := BuildMessages(conv, "sys", "hi", nil, DefaultWindow)
	if len(msgs) != 5 {
		t.Fatalf("len(msgs) = %d, want 5", len(msgs))
	}
	for _, m := range msgs[1:4] {
		if m.Role == "system" {
			t.Fatalf("history contains a system turn: %+v", m)
		}
	}
}

func TestSystemContentWithoutMemories(t *testing.T) {
	if got := SystemContent("Base.", nil); got != "Base." {
		t.Fatalf("SystemContent() = %q, want unchanged base", got)
	}
}
