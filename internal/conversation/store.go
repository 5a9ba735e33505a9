package conversation

import (
	"sort"
	"strings"
	"sync"
)

// Conversation is the ordered turn sequence for one context key. The store hands
// out the same *Conversation for a key on every lookup.
type Conversation struct {
	key   ContextKey
	mu    sync.RWMutex
	turns []Turn
}

func (c *Conversation) Key() ContextKey { return c.key }

// Turns returns a snapshot copy of the turn sequence.
func (c *Conversation) Turns() []Turn {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]Turn, len(c.turns))
	copy(out, c.turns)
	return out
}

func (c *Conversation) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.turns)
}

func (c *Conversation) append(t Turn) {
	c.mu.Lock()
	c.turns = append(c.turns, t)
	c.mu.Unlock()
}

// resetToSystem keeps only system turns. A conversation with no system turn is
// left untouched.
func (c *Conversation) resetToSystem() {
	c.mu.Lock()
	defer c.mu.Unlock()
	kept := make([]Turn, 0, 1)
	for _, t := range c.turns {
		if t.role == RoleSystem {
			kept = append(kept, t)
		}
	}
	if len(kept) == 0 {
		return
	}
	c.turns = kept
}

func (c *Conversation) stats() Stats {
	c.mu.RLock()
	defer c.mu.RUnlock()
	var s Stats
	for _, t := range c.turns {
		switch t.role {
		case RoleUser:
			s.UserMessages++
		case RoleAssistant:
			s.AssistantMessages++
		}
		s.ApproxTokens += len(strings.Fields(t.content))
	}
	return s
}

// Store holds conversations in process memory. The lock only guards the key map;
// appends within one key are expected from a single writer.
type Store struct {
	mu            sync.RWMutex
	conversations map[ContextKey]*Conversation
}

func NewStore() *Store {
	return &Store{conversations: make(map[ContextKey]*Conversation)}
}

// GetOrCreate returns the conversation for key, seeding a new one with a single
// system turn holding seedSystemPrompt.
func (s *Store) GetOrCreate(key ContextKey, seedSystemPrompt string) *Conversation {
	s.mu.RLock()
	c, ok := s.conversations[key]
	s.mu.RUnlock()
	if ok {
		return c
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if c, ok := s.conversations[key]; ok {
		return c
	}

	c = &Conversation{key: key}
	if seed, err := NewTurn(RoleSystem, seedSystemPrompt); err == nil {
		c.turns = []Turn{seed}
	}
	s.conversations[key] = c
	return c
}

func (s *Store) lookup(key ContextKey) (*Conversation, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.conversations[key]
	return c, ok
}

// Append adds a turn to an existing conversation.
func (s *Store) Append(key ContextKey, turn Turn) error {
	c, ok := s.lookup(key)
	if !ok {
		return ErrNotFound
	}
	if _, err := ParseRole(string(turn.role)); err != nil {
		return err
	}
	c.append(turn)
	return nil
}

// Reset drops every non-system turn. Unknown keys and conversations without a
// system turn are left as they are.
func (s *Store) Reset(key ContextKey) {
	if c, ok := s.lookup(key); ok {
		c.resetToSystem()
	}
}

// List returns the ordered turns for key, or nil when the key is unknown.
func (s *Store) List(key ContextKey) []Turn {
	c, ok := s.lookup(key)
	if !ok {
		return nil
	}
	return c.Turns()
}

func (s *Store) Stats(key ContextKey) Stats {
	c, ok := s.lookup(key)
	if !ok {
		return Stats{}
	}
	return c.stats()
}

// Delete forgets a conversation entirely.
func (s *Store) Delete(key ContextKey) {
	s.mu.Lock()
	delete(s.conversations, key)
	s.mu.Unlock()
}

func (s *Store) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.conversations)
}

// Keys lists known keys sorted by their string form.
func (s *Store) Keys() []ContextKey {
	s.mu.RLock()
	keys := make([]ContextKey, 0, len(s.conversations))
	for k := range s.conversations {
		keys = append(keys, k)
	}
	s.mu.RUnlock()
	sort.Slice(keys, func(i, j int) bool { return keys[i].String() < keys[j].String() })
	return keys
}
