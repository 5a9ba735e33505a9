package observability

import (
	"errors"
	"io"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func TestNilMetricsIsNoop(t *testing.T) {
	var m *Metrics
	m.ObserveChatTurn("persona", "ok")
	m.ObserveInference("mock", time.Millisecond, errors.New("boom"))
	m.ObserveMemoryOp("search", time.Millisecond, nil)
	m.IncFactsStored()
	m.SetActiveConversations(3)
	m.ObserveStage("turn_total", time.Millisecond)
	if snap := m.StageSnapshot(); len(snap.Stages) != 0 {
		t.Fatalf("nil snapshot stages = %d, want 0", len(snap.Stages))
	}
}

func TestHandlerExposesServiceMetrics(t *testing.T) {
	m := NewMetrics("test_obs")
	m.ObserveChatTurn("memory", "ok")
	m.ObserveMemoryOp("store_fact", 2*time.Millisecond, errors.New("backend down"))
	m.IncFactsStored()

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	body, _ := io.ReadAll(rec.Body)
	text := string(body)

	for _, want := range []string{
		`test_obs_chat_turns_total{outcome="ok",variant="memory"} 1`,
		`test_obs_memory_operations_total{op="store_fact",outcome="error"} 1`,
		`test_obs_facts_stored_total 1`,
	} {
		if !strings.Contains(text, want) {
			t.Fatalf("metrics output missing %q", want)
		}
	}
	if snap := m.StageSnapshot(); len(snap.Stages) == 0 {
		t.Fatalf("expected memory_store_fact stage sample")
	}
}
