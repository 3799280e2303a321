// Package telemetry provides request counting and model-call tracking
// for the assistant. Every turn and every outbound LLM call is recorded
// here; the registry is exposed on /metrics by the HTTP server.
package telemetry

import (
	"log"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/suyashnema0707/MedGraph-Navigator/config"
)

// Telemetry tracks turn and LLM usage metrics.
type Telemetry struct {
	cfg      config.TelemetryConfig
	logger   *log.Logger
	registry *prometheus.Registry

	turnsTotal  *prometheus.CounterVec
	llmRequests *prometheus.CounterVec
	llmLatency  *prometheus.HistogramVec

	mu         sync.RWMutex
	turnCounts map[string]int64
	llmErrors  int64
}

// NewTelemetry creates a telemetry instance with its own registry so
// independent instances (and tests) never collide on metric names.
func NewTelemetry(cfg config.TelemetryConfig) *Telemetry {
	t := &Telemetry{
		cfg:      cfg,
		logger:   log.New(log.Writer(), "[TELEMETRY] ", log.LstdFlags),
		registry: prometheus.NewRegistry(),
		turnsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "medgraph_turns_total",
			Help: "Conversational turns processed, by handler.",
		}, []string{"handler"}),
		llmRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "medgraph_llm_requests_total",
			Help: "Outbound model calls, by model and outcome.",
		}, []string{"model", "outcome"}),
		llmLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "medgraph_llm_latency_seconds",
			Help:    "Latency of outbound model calls.",
			Buckets: prometheus.DefBuckets,
		}, []string{"model"}),
		turnCounts: make(map[string]int64),
	}
	t.registry.MustRegister(t.turnsTotal, t.llmRequests, t.llmLatency)
	return t
}

// Registry returns the prometheus registry backing this instance.
func (t *Telemetry) Registry() *prometheus.Registry { return t.registry }

// RecordTurn records one processed turn for the named handler.
func (t *Telemetry) RecordTurn(handler string) {
	if t == nil || !t.cfg.Enabled {
		return
	}
	t.turnsTotal.WithLabelValues(handler).Inc()
	t.mu.Lock()
	t.turnCounts[handler]++
	t.mu.Unlock()
}

// RecordLLMRequest records one outbound model call.
func (t *Telemetry) RecordLLMRequest(model string, duration time.Duration, err error) {
	if t == nil || !t.cfg.Enabled {
		return
	}
	outcome := "success"
	if err != nil {
		outcome = "error"
		t.mu.Lock()
		t.llmErrors++
		t.mu.Unlock()
		t.logger.Printf("llm call failed (model=%s, took=%s): %v", model, duration.Round(time.Millisecond), err)
	}
	t.llmRequests.WithLabelValues(model, outcome).Inc()
	t.llmLatency.WithLabelValues(model).Observe(duration.Seconds())
}

// TurnCounts returns a copy of per-handler turn counts.
func (t *Telemetry) TurnCounts() map[string]int64 {
	t.mu.RLock()
	defer t.mu.RUnlock()
	out := make(map[string]int64, len(t.turnCounts))
	for k, v := range t.turnCounts {
		out[k] = v
	}
	return out
}
