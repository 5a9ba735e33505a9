package memory

import (
	"context"
	"fmt"
	"hash/fnv"
	"sort"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"
	chromem "github.com/philippgille/chromem-go"
)

const hashDims = 256

// VectorStore keeps records in an embedded chromem-go database with one
// collection per user. Embeddings are feature-hashed bags of words, so it runs
// without an embedding API.
type VectorStore struct {
	db          *chromem.DB
	mu          sync.RWMutex
	collections map[string]*chromem.Collection
}

func NewVectorStore() *VectorStore {
	return &VectorStore{
		db:          chromem.NewDB(),
		collections: make(map[string]*chromem.Collection),
	}
}

func collectionName(userID string) string {
	return "user_" + userID
}

func (s *VectorStore) collection(userID string) (*chromem.Collection, error) {
	s.mu.RLock()
	col, ok := s.collections[userID]
	s.mu.RUnlock()
	if ok {
		return col, nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if col, ok := s.collections[userID]; ok {
		return col, nil
	}
	col, err := s.db.GetOrCreateCollection(collectionName(userID), map[string]string{"user_id": userID}, hashEmbedding)
	if err != nil {
		return nil, fmt.Errorf("create collection: %w", err)
	}
	s.collections[userID] = col
	return col, nil
}

func (s *VectorStore) Add(ctx context.Context, record Record) error {
	col, err := s.collection(record.UserID)
	if err != nil {
		return err
	}
	if record.ID == "" {
		record.ID = uuid.NewString()
	}
	if record.CreatedAt.IsZero() {
		record.CreatedAt = time.Now().UTC()
	}
	doc := chromem.Document{
		ID:      record.ID,
		Content: record.Text,
		Metadata: map[string]string{
			"kind":         string(record.Kind),
			"created_at":   record.CreatedAt.Format(time.RFC3339Nano),
			"pii_redacted": strconv.FormatBool(record.PIIRedacted),
		},
	}
	if err := col.AddDocument(ctx, doc); err != nil {
		return fmt.Errorf("add document: %w", err)
	}
	return nil
}

func (s *VectorStore) Search(ctx context.Context, q Query) ([]Record, error) {
	col, err := s.collection(q.UserID)
	if err != nil {
		return nil, err
	}
	// chromem rejects nResults above the collection size.
	n := col.Count()
	if n == 0 {
		return nil, nil
	}
	if q.Limit > 0 && q.Limit < n {
		n = q.Limit
	}
	var where map[string]string
	if q.Kind != "" {
		where = map[string]string{"kind": string(q.Kind)}
	}

	results, err := col.Query(ctx, q.Text, n, where, nil)
	if err != nil {
		return nil, fmt.Errorf("vector query: %w", err)
	}

	type scored struct {
		rec Record
		sim float32
	}
	hits := make([]scored, 0, len(results))
	for _, r := range results {
		rec := Record{
			ID:          r.ID,
			UserID:      q.UserID,
			Kind:        Kind(r.Metadata["kind"]),
			Text:        r.Content,
			PIIRedacted: r.Metadata["pii_redacted"] == "true",
		}
		if ts, err := time.Parse(time.RFC3339Nano, r.Metadata["created_at"]); err == nil {
			rec.CreatedAt = ts
		}
		hits = append(hits, scored{rec: rec, sim: r.Similarity})
	}
	// Equal similarity keeps the newest record first.
	sort.SliceStable(hits, func(i, j int) bool {
		if hits[i].sim != hits[j].sim {
			return hits[i].sim > hits[j].sim
		}
		return hits[i].rec.CreatedAt.After(hits[j].rec.CreatedAt)
	})

	out := make([]Record, 0, len(hits))
	for _, h := range hits {
		out = append(out, h.rec)
	}
	return out, nil
}

func (s *VectorStore) DeleteAll(_ context.Context, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.collections[userID]; !ok {
		return nil
	}
	if err := s.db.DeleteCollection(collectionName(userID)); err != nil {
		return fmt.Errorf("delete collection: %w", err)
	}
	delete(s.collections, userID)
	return nil
}

func (s *VectorStore) Close() error { return nil }

// hashEmbedding maps each token to one of hashDims buckets. The extra bias
// component keeps the vector non-zero for text without any tokens.
func hashEmbedding(_ context.Context, text string) ([]float32, error) {
	vec := make([]float32, hashDims+1)
	vec[hashDims] = 0.1
	for tok := range tokenSet(text) {
		h := fnv.New32a()
		_, _ = h.Write([]byte(tok))
		vec[h.Sum32()%hashDims]++
	}
	return vec, nil
}
