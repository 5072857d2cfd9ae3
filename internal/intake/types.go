// Package intake drives the screening service from Kafka. Producers submit
// jobs, resumes and screen requests under their own reference strings; the
// intake maps references to service IDs and publishes ranked results.
package intake

import (
	"time"

	"github.com/Adithya-Monish-Kumar-K/resume-screener/internal/screening"
)

const (
	TypeJob    = "job"
	TypeResume = "resume"
	TypeScreen = "screen"

	// TypeScreeningResult is the type of messages published back.
	TypeScreeningResult = "screening_result"
)

// Envelope is the JSON body of an intake message. Type may also be carried
// in the "type" header; the body wins when both are present.
type Envelope struct {
	Type   string                      `json:"type"`
	Ref    string                      `json:"ref,omitempty"`
	Job    *screening.JobRequest       `json:"job,omitempty"`
	Resume *screening.CandidateRequest `json:"resume,omitempty"`
	Screen *ScreenCommand              `json:"screen,omitempty"`
}

// ScreenCommand screens candidates against a job, both by reference. No
// CandidateRefs screens every candidate.
type ScreenCommand struct {
	JobRef        string   `json:"job_ref"`
	CandidateRefs []string `json:"candidate_refs,omitempty"`
}

type RankedCandidate struct {
	CandidateRef    string   `json:"candidate_ref,omitempty"`
	CandidateID     string   `json:"candidate_id"`
	DisplayName     string   `json:"display_name"`
	FinalScore      int      `json:"final_score"`
	Similarity      float64  `json:"similarity"`
	MatchedSkills   []string `json:"matched_skills"`
	DepartmentMatch bool     `json:"department_match"`
}

// ScreeningResult is published for every screen command.
type ScreeningResult struct {
	Type        string              `json:"type"`
	JobRef      string              `json:"job_ref"`
	JobID       string              `json:"job_id"`
	RunID       string              `json:"run_id"`
	Results     []RankedCandidate   `json:"results"`
	Failures    []screening.Failure `json:"failures,omitempty"`
	UnknownRefs []string            `json:"unknown_refs,omitempty"`
	Cancelled   bool                `json:"cancelled"`
	Timestamp   time.Time           `json:"timestamp"`
}
