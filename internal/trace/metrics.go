package trace

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/roach88/transpiler/internal/engine"
)

// Metrics exports dispatch activity as Prometheus metrics.
type Metrics struct {
	dispatches *prometheus.CounterVec
	depth      prometheus.Histogram
	runs       *prometheus.CounterVec
}

var _ engine.Observer = (*Metrics)(nil)

// Run outcomes recorded by ObserveRun.
const (
	OutcomeOK    = "ok"
	OutcomeError = "error"
)

// NewMetrics creates the collectors and registers them with reg.
// Registration errors (duplicate collectors) are returned.
func NewMetrics(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		dispatches: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "transpiler_dispatches_total",
				Help: "Handler invocations by node type and handler layer.",
			},
			[]string{"node", "layer", "base_only"},
		),
		depth: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "transpiler_dispatch_depth",
				Help:    "Tree depth at which handlers were invoked.",
				Buckets: prometheus.LinearBuckets(0, 2, 8),
			},
		),
		runs: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "transpiler_runs_total",
				Help: "Completed transpile calls by language and outcome.",
			},
			[]string{"lang", "outcome"},
		),
	}

	for _, c := range []prometheus.Collector{m.dispatches, m.depth, m.runs} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

// Observe implements engine.Observer.
func (m *Metrics) Observe(d engine.Dispatch) {
	m.dispatches.WithLabelValues(d.Name, string(d.Layer), strconv.FormatBool(d.BaseOnly)).Inc()
	m.depth.Observe(float64(d.Depth))
}

// ObserveRun counts one finished transpile call.
func (m *Metrics) ObserveRun(lang string, err error) {
	outcome := OutcomeOK
	if err != nil {
		outcome = OutcomeError
	}
	m.runs.WithLabelValues(lang, outcome).Inc()
}
