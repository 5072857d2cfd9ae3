// Package analytics publishes one event per screening run to Kafka and
// aggregates those events into running statistics.
package analytics

import (
	"time"

	"github.com/Adithya-Monish-Kumar-K/resume-screener/internal/screening"
)

type EventType string

const EventScreeningCompleted EventType = "screening_completed"

// ScreeningEvent summarises a screening run without candidate text.
type ScreeningEvent struct {
	Type       EventType      `json:"type"`
	RunID      string         `json:"run_id"`
	JobID      string         `json:"job_id"`
	Department string         `json:"department,omitempty"`
	CorpusKey  string         `json:"corpus_key"`
	Scored     int            `json:"scored"`
	Failed     int            `json:"failed"`
	Cancelled  bool           `json:"cancelled"`
	Cached     bool           `json:"cached"`
	TopScore   int            `json:"top_score"`
	MeanScore  float64        `json:"mean_score"`
	Failures   map[string]int `json:"failures,omitempty"`
	// SkillGaps counts, per required skill, the scored candidates lacking it.
	SkillGaps map[string]int `json:"skill_gaps,omitempty"`
	LatencyMs int64          `json:"latency_ms"`
	Timestamp time.Time      `json:"timestamp"`
}

func NewScreeningEvent(job screening.Job, run *screening.Run) ScreeningEvent {
	e := ScreeningEvent{
		Type:       EventScreeningCompleted,
		RunID:      run.ID,
		JobID:      run.JobID,
		Department: job.Department,
		CorpusKey:  run.CorpusKey,
		Scored:     len(run.Results),
		Failed:     len(run.Failures),
		Cancelled:  run.Cancelled,
		Cached:     run.Cached,
		LatencyMs:  run.Duration.Milliseconds(),
		Timestamp:  time.Now().UTC(),
	}
	if len(run.Failures) > 0 {
		e.Failures = make(map[string]int)
		for _, f := range run.Failures {
			e.Failures[f.Kind]++
		}
	}

	required := job.RequiredSkills.Names()
	if len(required) > 0 && len(run.Results) > 0 {
		e.SkillGaps = make(map[string]int)
	}
	total := 0
	for _, r := range run.Results {
		total += r.FinalScore
		if r.FinalScore > e.TopScore {
			e.TopScore = r.FinalScore
		}
		matched := make(map[string]bool, len(r.MatchedSkills))
		for _, name := range r.MatchedSkills {
			matched[name] = true
		}
		for _, name := range required {
			if !matched[name] {
				e.SkillGaps[name]++
			}
		}
	}
	if len(run.Results) > 0 {
		e.MeanScore = float64(total) / float64(len(run.Results))
	}
	return e
}
