package memory

import (
	"context"
	"fmt"
	"strings"
)

// Config selects and configures a Backend.
type Config struct {
	Backend     string
	DatabaseURL string
	Mem0APIKey  string
	Mem0BaseURL string
}

// NewBackend builds the configured backend. "auto" prefers Mem0 when a key is
// set, then Postgres when a database URL is set, then the in-process store.
func NewBackend(ctx context.Context, cfg Config) (Backend, string, error) {
	mode := strings.ToLower(strings.TrimSpace(cfg.Backend))
	if mode == "" {
		mode = "auto"
	}
	if mode == "auto" {
		switch {
		case strings.TrimSpace(cfg.Mem0APIKey) != "":
			mode = "mem0"
		case strings.TrimSpace(cfg.DatabaseURL) != "":
			mode = "postgres"
		default:
			mode = "inmemory"
		}
	}

	switch mode {
	case "inmemory":
		return NewInMemoryStore(), mode, nil
	case "vector":
		return NewVectorStore(), mode, nil
	case "disabled":
		return Disabled{}, mode, nil
	case "mem0":
		if strings.TrimSpace(cfg.Mem0APIKey) == "" {
			return nil, mode, fmt.Errorf("mem0 backend requires MEM0_API_KEY")
		}
		return NewMem0Store(cfg.Mem0BaseURL, cfg.Mem0APIKey), mode, nil
	case "postgres":
		if strings.TrimSpace(cfg.DatabaseURL) == "" {
			return nil, mode, fmt.Errorf("postgres backend requires DATABASE_URL")
		}
		store, err := NewPostgresStore(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, mode, err
		}
		return store, mode, nil
	default:
		return nil, mode, fmt.Errorf("unknown memory backend %q", cfg.Backend)
	}
}

// Disabled stores nothing and finds nothing.
type Disabled struct{}

func (Disabled) Add(context.Context, Record) error               { return nil }
func (Disabled) Search(context.Context, Query) ([]Record, error) { return nil, nil }
func (Disabled) DeleteAll(context.Context, string) error         { return nil }
func (Disabled) Close() error                                    { return nil }
