package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// InMemoryStore is a simple in-process fact store for local/dev use. Search
// ranks by distinct token overlap with the query, newest first on ties.
type InMemoryStore struct {
	mu      sync.RWMutex
	records map[string][]Record
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{records: make(map[string][]Record)}
}

func (s *InMemoryStore) Add(_ context.Context, record Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if record.ID == "" {
		record.ID = uuid.NewString()
	}
	if record.CreatedAt.IsZero() {
		record.CreatedAt = time.Now().UTC()
	}
	s.records[record.UserID] = append(s.records[record.UserID], record)
	return nil
}

func (s *InMemoryStore) Search(_ context.Context, q Query) ([]Record, error) {
	s.mu.RLock()
	arr := s.records[q.UserID]
	type scored struct {
		rec   Record
		score int
		seq   int
	}
	query := tokenSet(q.Text)
	candidates := make([]scored, 0, len(arr))
	for i, r := range arr {
		if q.Kind != "" && r.Kind != q.Kind {
			continue
		}
		candidates = append(candidates, scored{rec: r, score: overlapScore(query, r.Text), seq: i})
	}
	s.mu.RUnlock()

	sort.SliceStable(candidates, func(i, j int) bool {
		if candidates[i].score != candidates[j].score {
			return candidates[i].score > candidates[j].score
		}
		return candidates[i].seq > candidates[j].seq
	})

	limit := q.Limit
	if limit <= 0 || limit > len(candidates) {
		limit = len(candidates)
	}
	out := make([]Record, 0, limit)
	for _, c := range candidates[:limit] {
		out = append(out, c.rec)
	}
	return out, nil
}

func (s *InMemoryStore) DeleteAll(_ context.Context, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.records, userID)
	return nil
}

// Count reports how many records a user owns.
func (s *InMemoryStore) Count(userID string) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records[userID])
}

func (s *InMemoryStore) Close() error { return nil }
