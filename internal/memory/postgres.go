package memory

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresStore persists memory records in PostgreSQL and ranks them with
// full-text search.
type PostgresStore struct {
	pool *pgxpool.Pool
}

func NewPostgresStore(ctx context.Context, databaseURL string) (*PostgresStore, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}

	if err := initSchema(ctx, pool); err != nil {
		pool.Close()
		return nil, err
	}

	return &PostgresStore{pool: pool}, nil
}

func initSchema(ctx context.Context, pool *pgxpool.Pool) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS memory_records (
			id TEXT PRIMARY KEY,
			user_id TEXT NOT NULL,
			kind TEXT NOT NULL,
			content TEXT NOT NULL,
			messages JSONB,
			pii_redacted BOOLEAN NOT NULL DEFAULT FALSE,
			created_at TIMESTAMPTZ NOT NULL DEFAULT now()
		);`,
		`CREATE INDEX IF NOT EXISTS idx_memory_records_user_kind ON memory_records (user_id, kind, created_at);`,
		`CREATE INDEX IF NOT EXISTS idx_memory_records_tsv ON memory_records USING GIN (to_tsvector('simple', content));`,
	}

	for _, stmt := range stmts {
		if _, err := pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("init schema failed on %q: %w", stmt, err)
		}
	}
	return nil
}

func (s *PostgresStore) Add(ctx context.Context, record Record) error {
	if record.ID == "" {
		record.ID = uuid.NewString()
	}
	if record.CreatedAt.IsZero() {
		record.CreatedAt = time.Now().UTC()
	}

	_, err := s.pool.Exec(ctx,
		`INSERT INTO memory_records (id, user_id, kind, content, messages, pii_redacted, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		record.ID,
		record.UserID,
		string(record.Kind),
		record.Text,
		record.Messages,
		record.PIIRedacted,
		record.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("add memory: %w", err)
	}
	return nil
}

func (s *PostgresStore) Search(ctx context.Context, q Query) ([]Record, error) {
	limit := q.Limit
	if limit <= 0 {
		limit = 10
	}

	var (
		rows pgx.Rows
		err  error
	)
	if tsq := orTSQuery(q.Text); tsq != "" {
		rows, err = s.pool.Query(ctx,
			`SELECT id, user_id, kind, content, pii_redacted, created_at
			 FROM memory_records
			 WHERE user_id=$1 AND ($2 = '' OR kind=$2)
			 ORDER BY ts_rank(to_tsvector('simple', content), to_tsquery('simple', $3)) DESC, created_at DESC
			 LIMIT $4`,
			q.UserID, string(q.Kind), tsq, limit,
		)
	} else {
		rows, err = s.pool.Query(ctx,
			`SELECT id, user_id, kind, content, pii_redacted, created_at
			 FROM memory_records
			 WHERE user_id=$1 AND ($2 = '' OR kind=$2)
			 ORDER BY created_at DESC
			 LIMIT $3`,
			q.UserID, string(q.Kind), limit,
		)
	}
	if err != nil {
		return nil, fmt.Errorf("query memories: %w", err)
	}
	defer rows.Close()

	items := make([]Record, 0, limit)
	for rows.Next() {
		var (
			r    Record
			kind string
		)
		if err := rows.Scan(&r.ID, &r.UserID, &kind, &r.Text, &r.PIIRedacted, &r.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan memory row: %w", err)
		}
		r.Kind = Kind(kind)
		items = append(items, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate memory rows: %w", err)
	}
	return items, nil
}

func (s *PostgresStore) DeleteAll(ctx context.Context, userID string) error {
	if _, err := s.pool.Exec(ctx, `DELETE FROM memory_records WHERE user_id=$1`, userID); err != nil {
		return fmt.Errorf("delete memories: %w", err)
	}
	return nil
}

func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}

// orTSQuery turns free text into "a | b | c" so any shared word contributes to
// the rank. Tokens are letters and digits only, which keeps the tsquery valid.
func orTSQuery(text string) string {
	seen := make(map[string]struct{})
	var parts []string
	for _, tok := range tokenize(text) {
		if _, ok := seen[tok]; ok {
			continue
		}
		seen[tok] = struct{}{}
		parts = append(parts, tok)
	}
	return strings.Join(parts, " | ")
}
