package httpapi

import (
	"context"
	"log"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/ent0n29/chatmem/internal/chat"
	"github.com/ent0n29/chatmem/internal/identity"
	"github.com/ent0n29/chatmem/internal/protocol"
)

const (
	wsReadTimeout  = 120 * time.Second
	wsWriteTimeout = 10 * time.Second
)

func (s *Server) handleChatWS(w http.ResponseWriter, r *http.Request) {
	userID := identity.UserIDFromContext(r.Context())

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	defer conn.Close()

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	inbound := make(chan any, 64)
	outbound := make(chan any, 256)
	runDone := make(chan struct{})

	go func() {
		defer close(runDone)
		defer close(outbound)
		s.runConnection(ctx, userID, inbound, outbound)
	}()

	writerDone := make(chan struct{})
	go func() {
		defer close(writerDone)
		for msg := range outbound {
			_ = conn.SetWriteDeadline(time.Now().Add(wsWriteTimeout))
			if err := conn.WriteJSON(msg); err != nil {
				log.Printf("websocket write failed user=%s: %v", userID, err)
				cancel()
				_ = conn.Close()
				// Keep draining so runConnection never blocks on a dead socket.
				for range outbound {
				}
				return
			}
		}
	}()

	conn.SetReadLimit(1 << 20)
	_ = conn.SetReadDeadline(time.Now().Add(wsReadTimeout))
	conn.SetPongHandler(func(string) error {
		_ = conn.SetReadDeadline(time.Now().Add(wsReadTimeout))
		return nil
	})

readLoop:
	for {
		msgType, data, err := conn.ReadMessage()
		if err != nil {
			break
		}
		_ = conn.SetReadDeadline(time.Now().Add(wsReadTimeout))
		if msgType != websocket.TextMessage {
			continue
		}
		parsed, err := protocol.ParseClientMessage(data)
		if err != nil {
			parsed = protocol.ErrorEvent{
				Type:      protocol.TypeErrorEvent,
				Code:      "invalid_client_message",
				Source:    "gateway",
				Retryable: false,
				Detail:    err.Error(),
			}
		}
		select {
		case <-ctx.Done():
			break readLoop
		case inbound <- parsed:
		}
	}

	cancel()
	close(inbound)
	<-runDone
	<-writerDone
}

// runConnection handles client messages one at a time, so a connection never
// has two turns in flight. Outbound is closed by the caller once it returns.
func (s *Server) runConnection(ctx context.Context, userID string, inbound <-chan any, outbound chan<- any) {
	send := func(msg any) bool {
		select {
		case <-ctx.Done():
			return false
		case outbound <- msg:
			return true
		}
	}

	send(protocol.SystemEvent{Type: protocol.TypeSystemEvent, Code: "connected", Detail: s.chat.DefaultModel()})

	for msg := range inbound {
		switch m := msg.(type) {
		case protocol.ErrorEvent:
			send(m)
		case protocol.UserMessage:
			s.runTurn(ctx, userID, m, send)
		case protocol.ResetConversation:
			if err := s.reset(userID, m); err != nil {
				send(protocol.ErrorEvent{
					Type:   protocol.TypeErrorEvent,
					Code:   chatErrorCode(err),
					Source: "gateway",
					Detail: err.Error(),
				})
				continue
			}
			send(protocol.SystemEvent{Type: protocol.TypeSystemEvent, Code: "conversation_reset"})
		}
	}
}

func (s *Server) reset(userID string, m protocol.ResetConversation) error {
	if m.Memory {
		s.chat.ResetUser(userID)
		return nil
	}
	return s.chat.ResetPersona(m.Persona, m.Model)
}

func (s *Server) runTurn(ctx context.Context, userID string, m protocol.UserMessage, send func(any) bool) {
	turnID := uuid.NewString()
	onDelta := func(delta string) error {
		if !send(protocol.AssistantTextDelta{Type: protocol.TypeAssistantTextDelta, TurnID: turnID, TextDelta: delta}) {
			return ctx.Err()
		}
		return nil
	}

	var (
		reply chat.Reply
		err   error
	)
	if m.Memory {
		reply, err = s.chat.MemoryChat(ctx, userID, m.Model, m.Text, onDelta)
	} else {
		reply, err = s.chat.PersonaChat(ctx, m.Persona, m.Model, m.Text, onDelta)
	}
	if err != nil {
		send(protocol.ErrorEvent{
			Type:   protocol.TypeErrorEvent,
			TurnID: turnID,
			Code:   chatErrorCode(err),
			Source: "gateway",
			Detail: err.Error(),
		})
		return
	}
	if reply.Failed {
		send(protocol.ErrorEvent{
			Type:      protocol.TypeErrorEvent,
			TurnID:    turnID,
			Code:      "inference_failed",
			Source:    "inference",
			Retryable: true,
			Detail:    reply.Text,
		})
	}

	reason := "completed"
	if reply.Failed {
		reason = "error"
	}
	send(protocol.AssistantTurnEnd{
		Type:           protocol.TypeAssistantTurnEnd,
		TurnID:         turnID,
		Reason:         reason,
		Text:           reply.Text,
		Model:          reply.Model,
		Persona:        reply.Persona,
		Memories:       reply.Memories,
		MemoryDegraded: reply.MemoryDegraded,
	})
}
