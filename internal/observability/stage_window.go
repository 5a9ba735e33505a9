package observability

import (
	"math"
	"sort"
	"sync"
	"time"
)

// StageStats summarises the recent samples of one chat turn stage.
type StageStats struct {
	Stage       string  `json:"stage"`
	Samples     int     `json:"samples"`
	LastMS      float64 `json:"last_ms"`
	AvgMS       float64 `json:"avg_ms"`
	P50MS       float64 `json:"p50_ms"`
	P95MS       float64 `json:"p95_ms"`
	TargetP95MS float64 `json:"target_p95_ms,omitempty"`
}

type StageSnapshot struct {
	GeneratedAt time.Time    `json:"generated_at"`
	WindowSize  int          `json:"window_size"`
	Stages      []StageStats `json:"stages"`
}

// stageWindow keeps a fixed ring of samples per stage.
type stageWindow struct {
	mu   sync.RWMutex
	size int
	ring map[string]*sampleRing
}

type sampleRing struct {
	values []float64
	next   int
	full   bool
	last   float64
}

func newStageWindow(size int) *stageWindow {
	if size <= 0 {
		size = 256
	}
	return &stageWindow{size: size, ring: make(map[string]*sampleRing)}
}

func (w *stageWindow) Observe(stage string, ms float64) {
	if stage == "" || ms < 0 {
		return
	}
	w.mu.Lock()
	defer w.mu.Unlock()

	r, ok := w.ring[stage]
	if !ok {
		r = &sampleRing{values: make([]float64, w.size)}
		w.ring[stage] = r
	}
	r.values[r.next] = ms
	r.last = ms
	r.next++
	if r.next == len(r.values) {
		r.next = 0
		r.full = true
	}
}

func (w *stageWindow) Snapshot() StageSnapshot {
	w.mu.RLock()
	defer w.mu.RUnlock()

	names := make([]string, 0, len(w.ring))
	for name := range w.ring {
		names = append(names, name)
	}
	sort.Strings(names)

	stages := make([]StageStats, 0, len(names))
	for _, name := range names {
		r := w.ring[name]
		n := r.next
		if r.full {
			n = len(r.values)
		}
		if n == 0 {
			continue
		}
		sorted := append([]float64(nil), r.values[:n]...)
		sort.Float64s(sorted)

		sum := 0.0
		for _, v := range sorted {
			sum += v
		}
		stages = append(stages, StageStats{
			Stage:       name,
			Samples:     n,
			LastMS:      round2(r.last),
			AvgMS:       round2(sum / float64(n)),
			P50MS:       round2(quantile(sorted, 0.50)),
			P95MS:       round2(quantile(sorted, 0.95)),
			TargetP95MS: stageTarget(name),
		})
	}
	return StageSnapshot{GeneratedAt: time.Now().UTC(), WindowSize: w.size, Stages: stages}
}

func (w *stageWindow) Reset() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.ring = make(map[string]*sampleRing)
}

func quantile(sorted []float64, q float64) float64 {
	if len(sorted) == 0 {
		return 0
	}
	if q <= 0 {
		return sorted[0]
	}
	if q >= 1 {
		return sorted[len(sorted)-1]
	}
	idx := q * float64(len(sorted)-1)
	lo, hi := int(math.Floor(idx)), int(math.Ceil(idx))
	if lo == hi {
		return sorted[lo]
	}
	frac := idx - float64(lo)
	return sorted[lo]*(1-frac) + sorted[hi]*frac
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

func stageTarget(stage string) float64 {
	switch stage {
	case "memory_search":
		return 300
	case "first_token":
		return 800
	case "inference":
		return 4000
	case "turn_total":
		return 5000
	default:
		return 0
	}
}
