package metrics

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/sony/gobreaker/v2"
)

// PipelineMetrics records classification pipeline outcomes. It implements
// ports.PipelineObserver and is safe for concurrent use.
type PipelineMetrics struct {
	service string

	expansionTerms    *prometheus.HistogramVec
	rankedCandidates  *prometheus.HistogramVec
	fallbackRankings  *prometheus.CounterVec
	lookupFallbacks   *prometheus.CounterVec
	generatorFailures *prometheus.CounterVec
	breakerState      *prometheus.GaugeVec
}

func NewPipelineMetrics(service string, registerer prometheus.Registerer) *PipelineMetrics {
	if registerer == nil {
		registerer = prometheus.NewRegistry()
	}

	expansionTerms := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "pipeline",
			Name:      "expansion_terms",
			Help:      "Search terms produced per expansion.",
			Buckets:   []float64{1, 2, 3, 4, 5, 6, 8, 10, 15},
		},
		[]string{"service", "from_model"},
	)
	rankedCandidates := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "pipeline",
			Name:      "ranked_candidates",
			Help:      "Candidates returned per ranking.",
			Buckets:   []float64{0, 1, 2, 3, 5, 8, 13, 21, 34},
		},
		[]string{"service"},
	)
	fallbackRankings := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "pipeline",
			Name:      "fallback_rankings_total",
			Help:      "Rankings made only of fallback records.",
		},
		[]string{"service"},
	)
	lookupFallbacks := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "lookup",
			Name:      "fallbacks_total",
			Help:      "Lookups degraded to a fallback record, by operation.",
		},
		[]string{"service", "operation"},
	)
	generatorFailures := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "llm",
			Name:      "failures_total",
			Help:      "Generator calls that degraded, by pipeline stage.",
		},
		[]string{"service", "stage"},
	)
	breakerState := prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "resilience",
			Name:      "breaker_state",
			Help:      "Circuit breaker state per operation (0 closed, 1 half-open, 2 open).",
		},
		[]string{"service", "operation"},
	)

	registerer.MustRegister(expansionTerms, rankedCandidates, fallbackRankings, lookupFallbacks, generatorFailures, breakerState)

	return &PipelineMetrics{
		service:           service,
		expansionTerms:    expansionTerms,
		rankedCandidates:  rankedCandidates,
		fallbackRankings:  fallbackRankings,
		lookupFallbacks:   lookupFallbacks,
		generatorFailures: generatorFailures,
		breakerState:      breakerState,
	}
}

func (m *PipelineMetrics) ObserveExpansion(terms int, fromModel bool) {
	m.expansionTerms.WithLabelValues(m.service, strconv.FormatBool(fromModel)).Observe(float64(terms))
}

func (m *PipelineMetrics) ObserveRanking(candidates int, fallback bool) {
	m.rankedCandidates.WithLabelValues(m.service).Observe(float64(candidates))
	if fallback {
		m.fallbackRankings.WithLabelValues(m.service).Inc()
	}
}

func (m *PipelineMetrics) ObserveGeneratorFailure(stage string) {
	if stage == "" {
		stage = "unknown"
	}
	m.generatorFailures.WithLabelValues(m.service, stage).Inc()
}

// ObserveLookupFallback matches the lookup client's fallback hook.
func (m *PipelineMetrics) ObserveLookupFallback(operation string) {
	m.lookupFallbacks.WithLabelValues(m.service, operation).Inc()
}

// ObserveBreakerState matches resilience.StateListener.
func (m *PipelineMetrics) ObserveBreakerState(operation string, _, to gobreaker.State) {
	m.breakerState.WithLabelValues(m.service, operation).Set(float64(to))
}
