package protocol

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// MessageType identifies websocket payload variants.
type MessageType string

const (
	TypeUserMessage        MessageType = "user_message"
	TypeResetConversation  MessageType = "reset_conversation"
	TypeAssistantTextDelta MessageType = "assistant_text_delta"
	TypeAssistantTurnEnd   MessageType = "assistant_turn_end"
	TypeSystemEvent        MessageType = "system_event"
	TypeErrorEvent         MessageType = "error_event"
)

var ErrUnsupportedType = errors.New("unsupported message type")

type Envelope struct {
	Type MessageType `json:"type"`
}

// UserMessage asks for one chat turn. Memory selects the per-user memory chat
// instead of the persona chat.
type UserMessage struct {
	Type    MessageType `json:"type"`
	Persona string      `json:"persona,omitempty"`
	Model   string      `json:"model,omitempty"`
	Text    string      `json:"text"`
	Memory  bool        `json:"memory,omitempty"`
}

type ResetConversation struct {
	Type    MessageType `json:"type"`
	Persona string      `json:"persona,omitempty"`
	Model   string      `json:"model,omitempty"`
	Memory  bool        `json:"memory,omitempty"`
}

type AssistantTextDelta struct {
	Type      MessageType `json:"type"`
	TurnID    string      `json:"turn_id"`
	TextDelta string      `json:"text_delta"`
}

type AssistantTurnEnd struct {
	Type           MessageType `json:"type"`
	TurnID         string      `json:"turn_id"`
	Reason         string      `json:"reason"`
	Text           string      `json:"text"`
	Model          string      `json:"model"`
	Persona        string      `json:"persona,omitempty"`
	Memories       []string    `json:"memories,omitempty"`
	MemoryDegraded bool        `json:"memory_degraded,omitempty"`
}

type SystemEvent struct {
	Type   MessageType `json:"type"`
	Code   string      `json:"code"`
	Detail string      `json:"detail,omitempty"`
}

type ErrorEvent struct {
	Type      MessageType `json:"type"`
	TurnID    string      `json:"turn_id,omitempty"`
	Code      string      `json:"code"`
	Source    string      `json:"source"`
	Retryable bool        `json:"retryable"`
	Detail    string      `json:"detail"`
}

func ParseClientMessage(raw []byte) (any, error) {
	var env Envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, fmt.Errorf("invalid envelope: %w", err)
	}

	switch env.Type {
	case TypeUserMessage:
		var msg UserMessage
		if err := json.Unmarshal(raw, &msg); err != nil {
			return nil, err
		}
		if strings.TrimSpace(msg.Text) == "" {
			return nil, errors.New("invalid user_message: text is required")
		}
		return msg, nil
	case TypeResetConversation:
		var msg ResetConversation
		if err := json.Unmarshal(raw, &msg); err != nil {
			return nil, err
		}
		return msg, nil
	default:
		return nil, ErrUnsupportedType
	}
}

// TypeOf returns the type tag of a known message value.
func TypeOf(v any) (MessageType, bool) {
	switch m := v.(type) {
	case UserMessage:
		return m.Type, true
	case ResetConversation:
		return m.Type, true
	case AssistantTextDelta:
		return m.Type, true
	case AssistantTurnEnd:
		return m.Type, true
	case SystemEvent:
		return m.Type, true
	case ErrorEvent:
		return m.Type, true
	default:
		return "", false
	}
}
