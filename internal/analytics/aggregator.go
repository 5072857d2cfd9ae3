package analytics

import (
	"context"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/Adithya-Monish-Kumar-K/resume-screener/pkg/kafka"
)

const maxLatencySamples = 10000

type Stats struct {
	TotalRuns         int64            `json:"total_runs"`
	CachedRuns        int64            `json:"cached_runs"`
	CancelledRuns     int64            `json:"cancelled_runs"`
	CandidatesScored  int64            `json:"candidates_scored"`
	CandidateFailures int64            `json:"candidate_failures"`
	FailuresByKind    map[string]int64 `json:"failures_by_kind"`
	MeanScore         float64          `json:"mean_score"`
	P50LatencyMs      int64            `json:"p50_latency_ms"`
	P95LatencyMs      int64            `json:"p95_latency_ms"`
	P99LatencyMs      int64            `json:"p99_latency_ms"`
	TopSkillGaps      []Count          `json:"top_skill_gaps"`
	TopDepartments    []Count          `json:"top_departments"`
	RunsPerMinute     float64          `json:"runs_per_minute"`
}

type Count struct {
	Name  string `json:"name"`
	Count int64  `json:"count"`
}

// Aggregator folds screening events into running statistics. Latency
// percentiles cover the most recent maxLatencySamples runs.
type Aggregator struct {
	mu            sync.RWMutex
	totalRuns     int64
	cachedRuns    int64
	cancelledRuns int64
	scored        int64
	failures      int64
	scoreSum      float64
	latencies     []int64
	failureKinds  map[string]int64
	skillGaps     map[string]int64
	departments   map[string]int64
	startTime     time.Time
	now           func() time.Time
	logger        *slog.Logger
}

func NewAggregator() *Aggregator {
	return &Aggregator{
		latencies:    make([]int64, 0, 1024),
		failureKinds: make(map[string]int64),
		skillGaps:    make(map[string]int64),
		departments:  make(map[string]int64),
		startTime:    time.Now(),
		now:          time.Now,
		logger:       slog.Default().With("component", "analytics-aggregator"),
	}
}

func (a *Aggregator) Record(e ScreeningEvent) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.totalRuns++
	if e.Cached {
		a.cachedRuns++
	}
	if e.Cancelled {
		a.cancelledRuns++
	}
	a.scored += int64(e.Scored)
	a.failures += int64(e.Failed)
	a.scoreSum += e.MeanScore * float64(e.Scored)

	if len(a.latencies) == maxLatencySamples {
		copy(a.latencies, a.latencies[1:])
		a.latencies = a.latencies[:maxLatencySamples-1]
	}
	a.latencies = append(a.latencies, e.LatencyMs)

	for kind, n := range e.Failures {
		a.failureKinds[kind] += int64(n)
	}
	for skill, n := range e.SkillGaps {
		a.skillGaps[skill] += int64(n)
	}
	if e.Department != "" {
		a.departments[e.Department]++
	}
}

func (a *Aggregator) Stats() Stats {
	a.mu.RLock()
	defer a.mu.RUnlock()

	stats := Stats{
		TotalRuns:         a.totalRuns,
		CachedRuns:        a.cachedRuns,
		CancelledRuns:     a.cancelledRuns,
		CandidatesScored:  a.scored,
		CandidateFailures: a.failures,
		FailuresByKind:    make(map[string]int64, len(a.failureKinds)),
		TopSkillGaps:      topN(a.skillGaps, 10),
		TopDepartments:    topN(a.departments, 10),
	}
	for k, v := range a.failureKinds {
		stats.FailuresByKind[k] = v
	}
	if a.scored > 0 {
		stats.MeanScore = a.scoreSum / float64(a.scored)
	}
	if len(a.latencies) > 0 {
		sorted := make([]int64, len(a.latencies))
		copy(sorted, a.latencies)
		sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })
		stats.P50LatencyMs = percentile(sorted, 50)
		stats.P95LatencyMs = percentile(sorted, 95)
		stats.P99LatencyMs = percentile(sorted, 99)
	}
	if elapsed := a.now().Sub(a.startTime).Minutes(); elapsed > 0 {
		stats.RunsPerMinute = float64(a.totalRuns) / elapsed
	}
	return stats
}

// HandleEvent decodes screening events from Kafka into agg. Undecodable
// messages and other event types are logged and skipped so they do not block
// the partition.
func HandleEvent(agg *Aggregator) kafka.MessageHandler {
	return func(_ context.Context, msg kafka.Message) error {
		if msg.Type != "" && msg.Type != string(EventScreeningCompleted) {
			agg.logger.Debug("skipping event", "type", msg.Type)
			return nil
		}
		event, err := kafka.DecodeJSON[ScreeningEvent](msg.Value)
		if err != nil {
			agg.logger.Error("failed to decode screening event", "key", string(msg.Key), "error", err)
			return nil
		}
		agg.Record(event)
		return nil
	}
}

func percentile(sorted []int64, pct int) int64 {
	if len(sorted) == 0 {
		return 0
	}
	idx := (pct * len(sorted)) / 100
	if idx >= len(sorted) {
		idx = len(sorted) - 1
	}
	return sorted[idx]
}

// topN orders by count descending, then name, and keeps the first n.
func topN(counts map[string]int64, n int) []Count {
	result := make([]Count, 0, len(counts))
	for name, count := range counts {
		result = append(result, Count{Name: name, Count: count})
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].Count != result[j].Count {
			return result[i].Count > result[j].Count
		}
		return result[i].Name < result[j].Name
	})
	if len(result) > n {
		result = result[:n]
	}
	return result
}
