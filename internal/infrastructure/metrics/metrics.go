package metrics

import (
	"log/slog"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Set holds the watcher's Prometheus collectors.
type Set struct {
	Cycles              prometheus.Counter
	CandidatesFound     prometheus.Counter
	PersistenceFailures prometheus.Counter
	TargetErrors        prometheus.Counter
	Summaries           prometheus.Counter
	SummaryFailures     prometheus.Counter
	CycleDuration       prometheus.Gauge

	registry *prometheus.Registry
}

// New registers the collectors on a fresh registry.
func New() *Set {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)
	return &Set{
		Cycles: factory.NewCounter(prometheus.CounterOpts{
			Name: "presswatch_cycles_total", Help: "Completed monitoring cycles.",
		}),
		CandidatesFound: factory.NewCounter(prometheus.CounterOpts{
			Name: "presswatch_candidates_total", Help: "New article candidates found.",
		}),
		PersistenceFailures: factory.NewCounter(prometheus.CounterOpts{
			Name: "presswatch_persistence_failures_total", Help: "Articles rejected by the store.",
		}),
		TargetErrors: factory.NewCounter(prometheus.CounterOpts{
			Name: "presswatch_target_errors_total", Help: "Targets abandoned during a cycle.",
		}),
		Summaries: factory.NewCounter(prometheus.CounterOpts{
			Name: "presswatch_summaries_total", Help: "Summaries persisted.",
		}),
		SummaryFailures: factory.NewCounter(prometheus.CounterOpts{
			Name: "presswatch_summary_failures_total", Help: "Queue items dropped on summarization failure.",
		}),
		CycleDuration: factory.NewGauge(prometheus.GaugeOpts{
			Name: "presswatch_cycle_duration_seconds", Help: "Duration of the last cycle.",
		}),
		registry: reg,
	}
}

// Serve exposes /metrics on addr. Runs until the process exits; errors are
// logged, never fatal.
func (s *Set) Serve(addr string, logger *slog.Logger) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{}))
	go func() {
		if err := http.ListenAndServe(addr, mux); err != nil {
			logger.Error("metrics listener stopped", "addr", addr, "error", err)
		}
	}()
}
