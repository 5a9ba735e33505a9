package observability

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics groups all Prometheus instruments used by the service. A nil
// *Metrics is valid and records nothing.
type Metrics struct {
	registry *prometheus.Registry
	stages   *stageWindow

	ChatTurns           *prometheus.CounterVec
	InferenceErrors     *prometheus.CounterVec
	InferenceLatency    prometheus.Histogram
	MemoryOperations    *prometheus.CounterVec
	FactsStored         prometheus.Counter
	ActiveConversations prometheus.Gauge
}

func NewMetrics(namespace string) *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,
		stages:   newStageWindow(256),
		ChatTurns: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "chat_turns_total",
			Help:      "Chat turns by variant and outcome.",
		}, []string{"variant", "outcome"}),
		InferenceErrors: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "inference_errors_total",
			Help:      "Inference failures by provider.",
		}, []string{"provider"}),
		InferenceLatency: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "inference_latency_ms",
			Help:      "Inference call latency in milliseconds.",
			Buckets:   []float64{100, 250, 500, 1000, 2000, 4000, 8000, 16000},
		}),
		MemoryOperations: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "memory_operations_total",
			Help:      "Memory gateway operations by op and outcome.",
		}, []string{"op", "outcome"}),
		FactsStored: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "facts_stored_total",
			Help:      "User facts captured by the fact heuristic.",
		}),
		ActiveConversations: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "active_conversations",
			Help:      "Conversations held in process memory.",
		}),
	}
}

func (m *Metrics) ObserveChatTurn(variant, outcome string) {
	if m == nil {
		return
	}
	m.ChatTurns.WithLabelValues(variant, outcome).Inc()
}

func (m *Metrics) ObserveInference(provider string, d time.Duration, err error) {
	if m == nil {
		return
	}
	m.InferenceLatency.Observe(float64(d.Milliseconds()))
	m.stages.Observe("inference", float64(d.Milliseconds()))
	if err != nil {
		m.InferenceErrors.WithLabelValues(provider).Inc()
	}
}

func (m *Metrics) ObserveMemoryOp(op string, d time.Duration, err error) {
	if m == nil {
		return
	}
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	m.MemoryOperations.WithLabelValues(op, outcome).Inc()
	m.stages.Observe("memory_"+op, float64(d.Milliseconds()))
}

func (m *Metrics) IncFactsStored() {
	if m == nil {
		return
	}
	m.FactsStored.Inc()
}

func (m *Metrics) SetActiveConversations(n int) {
	if m == nil {
		return
	}
	m.ActiveConversations.Set(float64(n))
}

// ObserveStage records a latency sample for the rolling stage window.
func (m *Metrics) ObserveStage(stage string, d time.Duration) {
	if m == nil {
		return
	}
	m.stages.Observe(stage, float64(d.Microseconds())/1000)
}

func (m *Metrics) StageSnapshot() StageSnapshot {
	if m == nil {
		return StageSnapshot{GeneratedAt: time.Now().UTC()}
	}
	return m.stages.Snapshot()
}

func (m *Metrics) ResetStages() {
	if m == nil {
		return
	}
	m.stages.Reset()
}

func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return promhttp.Handler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
