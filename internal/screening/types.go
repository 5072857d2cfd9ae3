package screening

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/Adithya-Monish-Kumar-K/resume-screener/internal/matcher/skills"
	apperrors "github.com/Adithya-Monish-Kumar-K/resume-screener/pkg/errors"
)

// JobRequest describes a job opening to screen against.
type JobRequest struct {
	Description    string   `json:"description" yaml:"description"`
	RequiredSkills []string `json:"required_skills" yaml:"requiredSkills"`
	Department     string   `json:"department,omitempty" yaml:"department"`
}

// Job is an ingested query document. It is immutable once created.
type Job struct {
	ID             string     `json:"id"`
	Description    string     `json:"description"`
	Department     string     `json:"department,omitempty"`
	RequiredSkills skills.Set `json:"required_skills"`
	TokenCount     int        `json:"token_count"`
	CreatedAt      time.Time  `json:"created_at"`

	departmentPhrase []string
}

// CandidateRequest carries the already-extracted text of one resume.
type CandidateRequest struct {
	FileName string `json:"file_name"`
	Text     string `json:"text"`
}

// Candidate is an ingested resume. It is immutable once created.
type Candidate struct {
	ID          string     `json:"id"`
	FileName    string     `json:"file_name,omitempty"`
	DisplayName string     `json:"display_name"`
	Skills      skills.Set `json:"skills"`
	TokenCount  int        `json:"token_count"`
	UploadedAt  time.Time  `json:"uploaded_at"`

	tokens []string
}

// ScreenRequest selects the candidates to rank for a job. An empty
// CandidateIDs screens every uploaded candidate.
type ScreenRequest struct {
	JobID        string   `json:"job_id"`
	CandidateIDs []string `json:"candidate_ids,omitempty"`
}

// MatchResult is the scored outcome of one candidate against one job.
type MatchResult struct {
	JobID           string    `json:"job_id"`
	CandidateID     string    `json:"candidate_id"`
	DisplayName     string    `json:"display_name"`
	Department      string    `json:"department,omitempty"`
	Similarity      float64   `json:"similarity"`
	SkillCoverage   float64   `json:"skill_coverage"`
	MatchedSkills   []string  `json:"matched_skills"`
	DepartmentMatch bool      `json:"department_match"`
	FinalScore      int       `json:"final_score"`
	ScreenedAt      time.Time `json:"screened_at"`
}

// Failure records a candidate or file that produced no MatchResult.
type Failure struct {
	CandidateID string `json:"candidate_id,omitempty"`
	FileName    string `json:"file_name,omitempty"`
	Kind        string `json:"kind"`
	Message     string `json:"message"`

	Err error `json:"-"`
}

func (f Failure) Error() string {
	subject := f.CandidateID
	if f.FileName != "" {
		subject = f.FileName
	}
	return fmt.Sprintf("%s: %s", subject, f.Message)
}

func (f Failure) Unwrap() error {
	return f.Err
}

func newFailure(candidateID, fileName string, err error) Failure {
	return Failure{
		CandidateID: candidateID,
		FileName:    fileName,
		Kind:        apperrors.Kind(err),
		Message:     err.Error(),
		Err:         err,
	}
}

// Run is the outcome of one screening request. Results are ranked by score.
type Run struct {
	ID        string        `json:"id"`
	JobID     string        `json:"job_id"`
	CorpusKey string        `json:"corpus_key"`
	Results   []MatchResult `json:"results"`
	Failures  []Failure     `json:"failures"`
	Cancelled bool          `json:"cancelled"`
	Cached    bool          `json:"cached"`
	StartedAt time.Time     `json:"started_at"`
	Duration  time.Duration `json:"duration"`
}

// clone copies r so the copy's ID and slices can change independently.
func (r *Run) clone() *Run {
	c := *r
	c.Results = append([]MatchResult(nil), r.Results...)
	c.Failures = append([]Failure(nil), r.Failures...)
	return &c
}

// RunObserver is notified after every completed screening run.
type RunObserver interface {
	ObserveRun(ctx context.Context, job Job, run *Run)
}

// SortMode orders the dashboard.
type SortMode int

const (
	// SortByScore orders by final score descending, ties by candidate ID.
	SortByScore SortMode = iota
	// SortByName orders by display name ascending, ties by candidate ID.
	SortByName
)

func (m SortMode) String() string {
	switch m {
	case SortByScore:
		return "score"
	case SortByName:
		return "name"
	default:
		return fmt.Sprintf("SortMode(%d)", int(m))
	}
}

// ParseSortMode accepts "score" (or empty) and "name", case-insensitively.
func ParseSortMode(s string) (SortMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "score":
		return SortByScore, nil
	case "name":
		return SortByName, nil
	default:
		return 0, apperrors.Newf(apperrors.ErrInvalidInput, "unknown sort mode %q (want score or name)", s)
	}
}
