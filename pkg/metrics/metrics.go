// Package metrics defines the Prometheus collectors used by the screener and
// exposes an HTTP handler for scraping.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus collectors for the screener.
type Metrics struct {
	ScreeningRunsTotal     *prometheus.CounterVec
	ScreeningLatency       prometheus.Histogram
	CandidatesScoredTotal  prometheus.Counter
	CandidateFailuresTotal *prometheus.CounterVec
	FinalScore             prometheus.Histogram
	DocumentsIngestedTotal *prometheus.CounterVec
	CorpusDocuments        prometheus.Gauge
	VocabularySize         prometheus.Gauge
	CacheHitsTotal         prometheus.Counter
	CacheMissesTotal       prometheus.Counter
	IntakeMessagesTotal    *prometheus.CounterVec
}

// New creates the collectors and registers them with reg. A nil reg
// registers with a fresh private registry.
func New(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.NewRegistry()
	}
	m := &Metrics{
		ScreeningRunsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "screening_runs_total",
				Help: "Total screening runs by outcome (completed, cached, cancelled, error).",
			},
			[]string{"outcome"},
		),
		ScreeningLatency: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "screening_run_duration_seconds",
				Help:    "Screening run latency in seconds.",
				Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
			},
		),
		CandidatesScoredTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "screening_candidates_scored_total",
				Help: "Total candidates that produced a match result.",
			},
		),
		CandidateFailuresTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "screening_candidate_failures_total",
				Help: "Total candidates excluded from scoring by failure kind.",
			},
			[]string{"kind"},
		),
		FinalScore: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "screening_final_score",
				Help:    "Distribution of final candidate scores.",
				Buckets: prometheus.LinearBuckets(0, 10, 11),
			},
		),
		DocumentsIngestedTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "corpus_documents_ingested_total",
				Help: "Documents ingested into the corpus by kind (job, resume).",
			},
			[]string{"kind"},
		),
		CorpusDocuments: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "corpus_documents",
				Help: "Number of documents in the corpus.",
			},
		),
		VocabularySize: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "corpus_vocabulary_size",
				Help: "Number of distinct tokens in the corpus vocabulary.",
			},
		),
		CacheHitsTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "screening_cache_hits_total",
				Help: "Total screening result cache hits.",
			},
		),
		CacheMissesTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "screening_cache_misses_total",
				Help: "Total screening result cache misses.",
			},
		),
		IntakeMessagesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "intake_messages_total",
				Help: "Intake messages processed by type and status.",
			},
			[]string{"type", "status"},
		),
	}

	reg.MustRegister(
		m.ScreeningRunsTotal,
		m.ScreeningLatency,
		m.CandidatesScoredTotal,
		m.CandidateFailuresTotal,
		m.FinalScore,
		m.DocumentsIngestedTotal,
		m.CorpusDocuments,
		m.VocabularySize,
		m.CacheHitsTotal,
		m.CacheMissesTotal,
		m.IntakeMessagesTotal,
	)

	return m
}

// Handler returns the scrape handler for the default gatherer.
func Handler() http.Handler {
	return promhttp.Handler()
}
