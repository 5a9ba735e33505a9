package observability

import (
	"testing"
	"time"
)

func TestStageWindowSnapshot(t *testing.T) {
	w := newStageWindow(8)
	w.Observe("first_token", 500)
	w.Observe("first_token", 700)
	w.Observe("first_token", 900)

	snap := w.Snapshot()
	if snap.WindowSize != 8 {
		t.Fatalf("WindowSize = %d, want 8", snap.WindowSize)
	}
	if len(snap.Stages) != 1 {
		t.Fatalf("len(Stages) = %d, want 1", len(snap.Stages))
	}
	s := snap.Stages[0]
	if s.Samples != 3 {
		t.Fatalf("Samples = %d, want 3", s.Samples)
	}
	if s.LastMS != 900 {
		t.Fatalf("LastMS = %.2f, want 900", s.LastMS)
	}
	if s.P50MS != 700 {
		t.Fatalf("P50MS = %.2f, want 700", s.P50MS)
	}
	if s.P95MS <= 700 || s.P95MS > 900 {
		t.Fatalf("P95MS = %.2f, want (700,900]", s.P95MS)
	}
	if s.TargetP95MS != 800 {
		t.Fatalf("TargetP95MS = %.2f, want 800", s.TargetP95MS)
	}
}

func TestStageWindowWrapsAround(t *testing.T) {
	w := newStageWindow(2)
	w.Observe("inference", 10)
	w.Observe("inference", 20)
	w.Observe("inference", 30)

	s := w.Snapshot().Stages[0]
	if s.Samples != 2 {
		t.Fatalf("Samples = %d, want 2", s.Samples)
	}
	if s.AvgMS != 25 {
		t.Fatalf("AvgMS = %.2f, want 25", s.AvgMS)
	}
}

func TestNilMetricsIsSafe(t *testing.T) {
	var m *Metrics
	m.ObserveChatTurn("persona", "ok")
	m.ObserveMemoryOp("search", time.Millisecond, nil)
	m.ObserveStage("turn_total", time.Second)
	if got := len(m.StageSnapshot().Stages); got != 0 {
		t.Fatalf("len(Stages) = %d, want 0", got)
	}
}

func TestMetricsIndependentRegistries(t *testing.T) {
	a := NewMetrics("chatmem_a")
	b := NewMetrics("chatmem_a")
	a.ObserveStage("turn_total", 1500*time.Millisecond)
	if got := len(b.StageSnapshot().Stages); got != 0 {
		t.Fatalf("second Metrics saw %d stages, want 0", got)
	}
	if got := a.StageSnapshot().Stages[0].LastMS; got != 1500 {
		t.Fatalf("LastMS = %.2f, want 1500", got)
	}
}
