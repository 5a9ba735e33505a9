package conversation

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// Role identifies who authored a turn.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

var (
	ErrInvalidRole  = errors.New("invalid turn role")
	ErrEmptyContent = errors.New("turn content is empty")
)

// ParseRole validates a raw role string.
func ParseRole(v string) (Role, error) {
	switch r := Role(strings.ToLower(strings.TrimSpace(v))); r {
	case RoleSystem, RoleUser, RoleAssistant:
		return r, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidRole, v)
	}
}

// Turn is one immutable chat message.
type Turn struct {
	role      Role
	content   string
	timestamp time.Time
}

// NewTurn validates role and content and stamps the turn with the current time.
func NewTurn(role Role, content string) (Turn, error) {
	return newTurnAt(role, content, time.Now().UTC())
}

func newTurnAt(role Role, content string, at time.Time) (Turn, error) {
	if _, err := ParseRole(string(role)); err != nil {
		return Turn{}, err
	}
	if strings.TrimSpace(content) == "" {
		return Turn{}, ErrEmptyContent
	}
	return Turn{role: role, content: content, timestamp: at}, nil
}

// MustTurn is NewTurn for literals known to be valid.
func MustTurn(role Role, content string) Turn {
	t, err := NewTurn(role, content)
	if err != nil {
		panic(err)
	}
	return t
}

func (t Turn) Role() Role           { return t.role }
func (t Turn) Content() string      { return t.content }
func (t Turn) Timestamp() time.Time { return t.timestamp }

// TurnView is the JSON shape of a turn for API responses.
type TurnView struct {
	Role      Role      `json:"role"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
}

func (t Turn) View() TurnView {
	return TurnView{Role: t.role, Content: t.content, Timestamp: t.timestamp}
}

// ContextKey partitions stored conversations. Persona chats use Personality and
// Model; memory chats use UserID only.
type ContextKey struct {
	Personality string
	Model       string
	UserID      string
}

func PersonaKey(personality, model string) ContextKey {
	return ContextKey{Personality: personality, Model: model}
}

func UserKey(userID string) ContextKey {
	return ContextKey{UserID: userID}
}

func (k ContextKey) String() string {
	if k.UserID != "" {
		return "user:" + k.UserID
	}
	return k.Personality + "_" + k.Model
}

// Stats summarizes a conversation for display.
type Stats struct {
	UserMessages      int `json:"user_messages"`
	AssistantMessages int `json:"assistant_messages"`
	ApproxTokens      int `json:"approx_tokens"`
}
