package memory

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/ent0n29/chatmem/internal/reliability"
)

func TestMem0StoreAddWireFormat(t *testing.T) {
	var got map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/v1/memories/" {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		if auth := r.Header.Get("Authorization"); auth != "Token k1" {
			t.Errorf("Authorization = %q, want %q", auth, "Token k1")
		}
		_ = json.NewDecoder(r.Body).Decode(&got)
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`[]`))
	}))
	defer srv.Close()

	s := NewMem0Store(srv.URL, "k1")
	if err := s.Add(context.Background(), Record{UserID: "anon_1", Kind: KindFact, Text: "My name is Alex"}); err != nil {
		t.Fatalf("Add() error = %v", err)
	}
	if got["user_id"] != "anon_1" {
		t.Fatalf("user_id = %v, want anon_1", got["user_id"])
	}
	msgs, _ := got["messages"].([]any)
	if len(msgs) != 1 {
		t.Fatalf("messages = %v, want one message", got["messages"])
	}
	first, _ := msgs[0].(map[string]any)
	if first["role"] != "user" || first["content"] != "My name is Alex" {
		t.Fatalf("messages[0] = %v", first)
	}
	meta, _ := got["metadata"].(map[string]any)
	if meta["type"] != "fact" {
		t.Fatalf("metadata = %v, want type=fact", got["metadata"])
	}
}

func TestMem0StoreSearchAcceptsBothShapes(t *testing.T) {
	for name, body := range map[string]string{
		"array":   `[{"id":"m1","memory":"My name is Alex"},{"id":"m2","text":"I live in Rome"}]`,
		"wrapped": `{"results":[{"id":"m1","memory":"My name is Alex"},{"id":"m2","text":"I live in Rome"}]}`,
	} {
		t.Run(name, func(t *testing.T) {
			var req map[string]any
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if r.URL.Path != "/v2/memories/search/" {
					t.Errorf("path = %q", r.URL.Path)
				}
				_ = json.NewDecoder(r.Body).Decode(&req)
				_, _ = w.Write([]byte(body))
			}))
			defer srv.Close()

			s := NewMem0Store(srv.URL, "k")
			got, err := s.Search(context.Background(), Query{UserID: "u", Text: "name", Kind: KindFact, Limit: 5})
			if err != nil {
				t.Fatalf("Search() error = %v", err)
			}
			if len(got) != 2 || got[0].Text != "My name is Alex" || got[1].Text != "I live in Rome" {
				t.Fatalf("Search() = %+v", got)
			}
			if req["query"] != "name" {
				t.Fatalf("query = %v, want name", req["query"])
			}
			filters, _ := req["filters"].(map[string]any)
			and, _ := filters["AND"].([]any)
			if len(and) != 2 {
				t.Fatalf("filters = %v, want user and type conditions", req["filters"])
			}
		})
	}
}

func TestMem0StoreDeleteAllRetriesTransientErrors(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodDelete || r.URL.Query().Get("user_id") != "u" {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.String())
		}
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	s := NewMem0Store(srv.URL, "k")
	s.retry = reliability.Policy{Attempts: 3, Base: time.Millisecond, Cap: 5 * time.Millisecond}
	if err := s.DeleteAll(context.Background(), "u"); err != nil {
		t.Fatalf("DeleteAll() error = %v", err)
	}
	if got := calls.Load(); got != 2 {
		t.Fatalf("calls = %d, want 2", got)
	}
}

func TestMem0StoreUnauthorizedIsNotRetried(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		http.Error(w, "bad key", http.StatusUnauthorized)
	}))
	defer srv.Close()

	s := NewMem0Store(srv.URL, "bad")
	s.retry = reliability.Policy{Attempts: 3, Base: time.Millisecond, Cap: time.Millisecond}
	if _, err := s.Search(context.Background(), Query{UserID: "u", Text: "x"}); err == nil {
		t.Fatalf("Search() error = nil, want unauthorized error")
	}
	if got := calls.Load(); got != 1 {
		t.Fatalf("calls = %d, want 1", got)
	}
}
