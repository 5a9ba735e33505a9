package identity

import (
	"sync"
	"time"
)

// Visitor is what the service knows about one anonymous user.
type Visitor struct {
	UserID    string    `json:"user_id"`
	FirstSeen time.Time `json:"first_seen"`
	LastSeen  time.Time `json:"last_seen"`
	Requests  int       `json:"requests"`
}

// Tracker records visitors in process memory. A nil *Tracker ignores calls.
type Tracker struct {
	mu       sync.RWMutex
	visitors map[string]*Visitor
	now      func() time.Time
}

func NewTracker() *Tracker {
	return &Tracker{
		visitors: make(map[string]*Visitor),
		now:      func() time.Time { return time.Now().UTC() },
	}
}

func (t *Tracker) Touch(userID string) {
	if t == nil || userID == "" {
		return
	}
	now := t.now()
	t.mu.Lock()
	defer t.mu.Unlock()
	v, ok := t.visitors[userID]
	if !ok {
		v = &Visitor{UserID: userID, FirstSeen: now}
		t.visitors[userID] = v
	}
	v.LastSeen = now
	v.Requests++
}

func (t *Tracker) Get(userID string) (Visitor, bool) {
	if t == nil {
		return Visitor{}, false
	}
	t.mu.RLock()
	defer t.mu.RUnlock()
	v, ok := t.visitors[userID]
	if !ok {
		return Visitor{}, false
	}
	return *v, true
}

// Forget drops a visitor, for example after the user wiped their memories.
func (t *Tracker) Forget(userID string) {
	if t == nil {
		return
	}
	t.mu.Lock()
	delete(t.visitors, userID)
	t.mu.Unlock()
}

func (t *Tracker) Count() int {
	if t == nil {
		return 0
	}
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.visitors)
}
