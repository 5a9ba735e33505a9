// Package chat runs one chat turn end to end: conversation bookkeeping, memory
// retrieval, prompt assembly, inference and fact capture.
package chat

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/ent0n29/chatmem/internal/conversation"
	"github.com/ent0n29/chatmem/internal/inference"
	"github.com/ent0n29/chatmem/internal/memory"
	"github.com/ent0n29/chatmem/internal/observability"
	"github.com/ent0n29/chatmem/internal/persona"
	"github.com/ent0n29/chatmem/internal/prompt"
)

var (
	ErrUnknownModel = errors.New("unknown model")
	ErrMissingUser  = errors.New("user id is required")
)

const failurePrefix = "Sorry, I encountered an error: "

// Config holds per-request inference defaults.
type Config struct {
	DefaultModel        string
	Temperature         float64
	MaxTokens           int
	TopP                float64
	Stream              bool
	HistoryWindow       int
	MemorySearchLimit   int
	RecordConversations bool
}

// DefaultConfig mirrors the sampling settings of the hosted chat app.
func DefaultConfig() Config {
	return Config{
		DefaultModel:      inference.DefaultModel,
		Temperature:       0.7,
		MaxTokens:         1024,
		TopP:              1,
		Stream:            true,
		HistoryWindow:     prompt.DefaultWindow,
		MemorySearchLimit: memory.DefaultSearchLimit,
	}
}

// Reply is the visible outcome of a turn. Failed replies carry a displayable
// error text in place of the assistant's answer.
type Reply struct {
	Text           string   `json:"text"`
	Failed         bool     `json:"failed"`
	Persona        string   `json:"persona,omitempty"`
	Model          string   `json:"model"`
	Memories       []string `json:"memories,omitempty"`
	MemoryDegraded bool     `json:"memory_degraded,omitempty"`
	FactCaptured   bool     `json:"fact_captured,omitempty"`
}

// History is a conversation view for display: non-system turns plus stats.
type History struct {
	Key   string                  `json:"key"`
	Turns []conversation.TurnView `json:"turns"`
	Stats conversation.Stats      `json:"stats"`
}

// Service owns the conversation store and talks to the memory gateway and the
// inference client. Turns for one key are serialized; different keys run in
// parallel.
type Service struct {
	cfg      Config
	personas *persona.Registry
	store    *conversation.Store
	memory   *memory.Gateway
	client   inference.Client
	metrics  *observability.Metrics

	locksMu sync.Mutex
	locks   map[conversation.ContextKey]*sync.Mutex
}

func NewService(
	cfg Config,
	personas *persona.Registry,
	store *conversation.Store,
	gateway *memory.Gateway,
	client inference.Client,
	metrics *observability.Metrics,
) *Service {
	if personas == nil {
		personas = persona.Default()
	}
	if store == nil {
		store = conversation.NewStore()
	}
	if gateway == nil {
		gateway = memory.NewGateway(nil)
	}
	if client == nil {
		client = inference.NewMockClient()
	}
	if cfg.DefaultModel == "" {
		cfg.DefaultModel = inference.DefaultModel
	}
	return &Service{
		cfg:      cfg,
		personas: personas,
		store:    store,
		memory:   gateway,
		client:   client,
		metrics:  metrics,
		locks:    make(map[conversation.ContextKey]*sync.Mutex),
	}
}

func (s *Service) Personas() []persona.Definition { return s.personas.List() }

func (s *Service) Models() []string {
	return append([]string(nil), inference.AvailableModels...)
}

func (s *Service) DefaultModel() string { return s.cfg.DefaultModel }

// ResolveModel returns the default model for an empty name and rejects models
// that are not offered.
func (s *Service) ResolveModel(name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return s.cfg.DefaultModel, nil
	}
	if name != s.cfg.DefaultModel && !inference.IsAvailable(name) {
		return "", fmt.Errorf("%w: %s", ErrUnknownModel, name)
	}
	return name, nil
}

// PersonaChat runs a turn against the (persona, model) conversation.
func (s *Service) PersonaChat(ctx context.Context, personaName, model, text string, onDelta inference.DeltaHandler) (Reply, error) {
	def, err := s.personas.Resolve(personaName)
	if err != nil {
		return Reply{}, err
	}
	model, err = s.ResolveModel(model)
	if err != nil {
		return Reply{}, err
	}
	userTurn, err := conversation.NewTurn(conversation.RoleUser, text)
	if err != nil {
		return Reply{}, err
	}

	key := conversation.PersonaKey(def.Name, model)
	unlock := s.lock(key)
	defer unlock()

	start := time.Now()
	conv := s.store.GetOrCreate(key, def.SystemPrompt)
	s.metrics.SetActiveConversations(s.store.Count())
	history := conv.Turns()
	if err := s.store.Append(key, userTurn); err != nil {
		return Reply{}, fmt.Errorf("append user turn: %w", err)
	}

	msgs := prompt.BuildMessages(history, def.SystemPrompt, text, nil, s.cfg.HistoryWindow)
	reply := s.complete(ctx, key, model, msgs, onDelta)
	reply.Persona = def.Name

	s.finishTurn("persona", reply, start)
	return reply, nil
}

// MemoryChat runs a turn for a user, injecting relevant facts into the system
// prompt and capturing fact-bearing input afterwards.
func (s *Service) MemoryChat(ctx context.Context, userID, model, text string, onDelta inference.DeltaHandler) (Reply, error) {
	if strings.TrimSpace(userID) == "" {
		return Reply{}, ErrMissingUser
	}
	model, err := s.ResolveModel(model)
	if err != nil {
		return Reply{}, err
	}
	userTurn, err := conversation.NewTurn(conversation.RoleUser, text)
	if err != nil {
		return Reply{}, err
	}

	key := conversation.UserKey(userID)
	unlock := s.lock(key)
	defer unlock()

	start := time.Now()
	conv := s.store.GetOrCreate(key, persona.AssistantPrompt)
	s.metrics.SetActiveConversations(s.store.Count())
	history := conv.Turns()

	found := s.memory.SearchRelevant(ctx, userID, text, s.cfg.MemorySearchLimit)
	if err := s.store.Append(key, userTurn); err != nil {
		return Reply{}, fmt.Errorf("append user turn: %w", err)
	}

	msgs := prompt.BuildMessages(history, persona.AssistantPrompt, text, found.Facts, s.cfg.HistoryWindow)
	reply := s.complete(ctx, key, model, msgs, onDelta)
	reply.Memories = found.Facts
	reply.MemoryDegraded = found.Degraded

	// The user's statement stands even when the provider failed.
	reply.FactCaptured = s.memory.CaptureFact(ctx, userID, text)
	if !reply.Failed && s.cfg.RecordConversations {
		s.memory.RecordConversationTurn(ctx, userID, text, reply.Text)
	}

	s.finishTurn("memory", reply, start)
	return reply, nil
}

func (s *Service) complete(ctx context.Context, key conversation.ContextKey, model string, msgs []prompt.Message, onDelta inference.DeltaHandler) Reply {
	req := inference.Request{
		Model:       model,
		Messages:    msgs,
		Temperature: s.cfg.Temperature,
		MaxTokens:   s.cfg.MaxTokens,
		TopP:        s.cfg.TopP,
		Stream:      s.cfg.Stream,
	}

	start := time.Now()
	var firstToken sync.Once
	handler := func(delta string) error {
		firstToken.Do(func() { s.metrics.ObserveStage("first_token", time.Since(start)) })
		if onDelta == nil {
			return nil
		}
		return onDelta(delta)
	}
	resp, err := s.client.Complete(ctx, req, handler)
	s.metrics.ObserveInference(s.client.Name(), time.Since(start), err)
	if err == nil && strings.TrimSpace(resp.Text) == "" {
		err = errors.New("empty response from model")
	}
	if err != nil {
		log.Printf("inference failed key=%s model=%s: %v", key, model, err)
		return Reply{Text: failurePrefix + err.Error(), Failed: true, Model: model}
	}

	assistantTurn, err := conversation.NewTurn(conversation.RoleAssistant, resp.Text)
	if err == nil {
		err = s.store.Append(key, assistantTurn)
	}
	if err != nil {
		log.Printf("append assistant turn failed key=%s: %v", key, err)
	}
	return Reply{Text: resp.Text, Model: model}
}

func (s *Service) finishTurn(variant string, reply Reply, start time.Time) {
	outcome := "ok"
	if reply.Failed {
		outcome = "inference_error"
	}
	s.metrics.ObserveChatTurn(variant, outcome)
	s.metrics.ObserveStage("turn_total", time.Since(start))
}

// PersonaHistory returns the visible turns of a persona conversation.
func (s *Service) PersonaHistory(personaName, model string) (History, error) {
	def, err := s.personas.Resolve(personaName)
	if err != nil {
		return History{}, err
	}
	model, err = s.ResolveModel(model)
	if err != nil {
		return History{}, err
	}
	return s.history(conversation.PersonaKey(def.Name, model)), nil
}

// UserHistory returns the visible turns of a user's memory conversation.
func (s *Service) UserHistory(userID string) History {
	return s.history(conversation.UserKey(userID))
}

func (s *Service) history(key conversation.ContextKey) History {
	turns := s.store.List(key)
	views := make([]conversation.TurnView, 0, len(turns))
	for _, t := range turns {
		if t.Role() == conversation.RoleSystem {
			continue
		}
		views = append(views, t.View())
	}
	return History{Key: key.String(), Turns: views, Stats: s.store.Stats(key)}
}

// ResetPersona clears a persona conversation back to its system prompt.
func (s *Service) ResetPersona(personaName, model string) error {
	def, err := s.personas.Resolve(personaName)
	if err != nil {
		return err
	}
	model, err = s.ResolveModel(model)
	if err != nil {
		return err
	}
	key := conversation.PersonaKey(def.Name, model)
	unlock := s.lock(key)
	defer unlock()
	s.store.Reset(key)
	return nil
}

// ResetUser clears a user's memory conversation but keeps stored facts.
func (s *Service) ResetUser(userID string) {
	key := conversation.UserKey(userID)
	unlock := s.lock(key)
	defer unlock()
	s.store.Reset(key)
}

// ForgetUser deletes every stored memory for the user and drops the
// in-process conversation. It reports whether the memory backend confirmed.
func (s *Service) ForgetUser(ctx context.Context, userID string) bool {
	key := conversation.UserKey(userID)
	unlock := s.lock(key)
	defer unlock()
	ok := s.memory.DeleteAll(ctx, userID)
	s.store.Delete(key)
	s.metrics.SetActiveConversations(s.store.Count())
	return ok
}

// SearchMemories exposes relevance search for a user.
func (s *Service) SearchMemories(ctx context.Context, userID, query string) memory.SearchResult {
	return s.memory.SearchRelevant(ctx, userID, query, s.cfg.MemorySearchLimit)
}

// Ready reports whether the memory backend is reachable.
func (s *Service) Ready(ctx context.Context) error {
	return s.memory.Ping(ctx)
}

func (s *Service) lock(key conversation.ContextKey) func() {
	s.locksMu.Lock()
	mu, ok := s.locks[key]
	if !ok {
		mu = &sync.Mutex{}
		s.locks[key] = mu
	}
	s.locksMu.Unlock()
	mu.Lock()
	return mu.Unlock
}
