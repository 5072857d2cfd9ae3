package screening

import (
	"context"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/Adithya-Monish-Kumar-K/resume-screener/internal/matcher/index"
	"github.com/Adithya-Monish-Kumar-K/resume-screener/internal/matcher/scorer"
	"github.com/Adithya-Monish-Kumar-K/resume-screener/internal/matcher/skills"
	"github.com/Adithya-Monish-Kumar-K/resume-screener/internal/matcher/vector"
	apperrors "github.com/Adithya-Monish-Kumar-K/resume-screener/pkg/errors"
	"github.com/Adithya-Monish-Kumar-K/resume-screener/pkg/logger"
)

// Screen ranks the requested candidates against a job. Candidates that
// cannot be scored are reported in Run.Failures and never abort the run.
// Cancelling ctx drops the candidates not yet scored; the partial run is
// returned with Cancelled set. Only a missing job or an internal contract
// violation fails the call.
func (s *Service) Screen(ctx context.Context, req ScreenRequest) (*Run, error) {
	start := time.Now()
	job, err := s.Job(req.JobID)
	if err != nil {
		s.observeRunOutcome("error", start)
		return nil, err
	}

	runID := uuid.New().String()
	ctx = logger.WithRunID(ctx, runID)
	if s.runTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.runTimeout)
		defer cancel()
	}

	candidates, missing := s.selectCandidates(req.CandidateIDs)
	ids := make([]string, 0, len(candidates)+len(missing))
	for _, c := range candidates {
		ids = append(ids, c.ID)
	}
	for _, f := range missing {
		ids = append(ids, f.CandidateID)
	}
	snap := s.corpus.Snapshot()

	compute := func() (*Run, error) {
		return s.score(ctx, runID, job, candidates, missing, snap)
	}
	var run *Run
	if s.cache != nil {
		run, _, err = s.cache.GetOrCompute(ctx, RunKey(job.ID, ids, snap.Key()), compute)
	} else {
		run, err = compute()
	}
	if err != nil {
		s.observeRunOutcome("error", start)
		logger.FromContext(ctx).Error("screening run failed", "job_id", job.ID, "error", err)
		return nil, err
	}
	// Cached and shared runs were computed by another request.
	run.ID = runID

	s.record(run.Results)
	s.observeRun(ctx, job, run, start)
	return run, nil
}

// selectCandidates returns the candidates in request order, deduplicated,
// and a failure for every unknown ID. No IDs selects every candidate.
func (s *Service) selectCandidates(ids []string) ([]Candidate, []Failure) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if len(ids) == 0 {
		ids = s.order
	}
	seen := make(map[string]bool, len(ids))
	var found []Candidate
	var missing []Failure
	for _, id := range ids {
		if seen[id] {
			continue
		}
		seen[id] = true
		c, ok := s.candidates[id]
		if !ok {
			missing = append(missing, newFailure(id, "", apperrors.Newf(apperrors.ErrCandidateNotFound, "candidate %s", id)))
			continue
		}
		found = append(found, *c)
	}
	return found, missing
}

func (s *Service) score(ctx context.Context, runID string, job Job, candidates []Candidate, missing []Failure, snap *index.Snapshot) (*Run, error) {
	log := logger.FromContext(ctx)
	start := time.Now()

	jobVec, err := vector.Vectorize(snap, job.ID)
	if err != nil {
		return nil, err
	}

	results := make([]*MatchResult, len(candidates))
	cancelled := make([]bool, len(candidates))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.maxConcurrency)
	for i, c := range candidates {
		if gctx.Err() != nil {
			cancelled[i] = true
			continue
		}
		g.Go(func() error {
			if gctx.Err() != nil {
				cancelled[i] = true
				return nil
			}
			r, err := s.scoreOne(snap, job, jobVec, c)
			if err != nil {
				return err
			}
			results[i] = &r
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	run := &Run{
		ID:        runID,
		JobID:     job.ID,
		CorpusKey: snap.Key(),
		Results:   make([]MatchResult, 0, len(candidates)),
		Failures:  append(make([]Failure, 0, len(missing)), missing...),
		StartedAt: start.UTC(),
	}
	for i, c := range candidates {
		switch {
		case results[i] != nil:
			run.Results = append(run.Results, *results[i])
		case cancelled[i]:
			run.Cancelled = true
			run.Failures = append(run.Failures, newFailure(c.ID, c.FileName,
				apperrors.Newf(apperrors.ErrCancelled, "candidate %s not scored: %v", c.ID, context.Cause(ctx))))
		}
	}
	sortResults(run.Results, SortByScore)
	run.Duration = time.Since(start)

	log.Info("screening run scored",
		"job_id", job.ID,
		"corpus_key", run.CorpusKey,
		"scored", len(run.Results),
		"failed", len(run.Failures),
		"cancelled", run.Cancelled,
		"duration_ms", run.Duration.Milliseconds(),
	)
	return run, nil
}

func (s *Service) scoreOne(snap *index.Snapshot, job Job, jobVec vector.Vector, c Candidate) (MatchResult, error) {
	candVec, err := vector.Vectorize(snap, c.ID)
	if err != nil {
		return MatchResult{}, err
	}
	similarity := vector.Cosine(jobVec, candVec)

	departmentMatch := len(job.departmentPhrase) > 0 && skills.ContainsPhrase(c.tokens, job.departmentPhrase)
	boost := scorer.NoBoost
	if departmentMatch {
		boost = s.boost
	}

	comp, err := s.composer.Compose(similarity, job.RequiredSkills, c.Skills, boost)
	if err != nil {
		return MatchResult{}, err
	}
	return MatchResult{
		JobID:           job.ID,
		CandidateID:     c.ID,
		DisplayName:     c.DisplayName,
		Department:      job.Department,
		Similarity:      comp.Similarity,
		SkillCoverage:   comp.SkillCoverage,
		MatchedSkills:   comp.MatchedSkills.Names(),
		DepartmentMatch: departmentMatch,
		FinalScore:      comp.FinalScore,
		ScreenedAt:      time.Now().UTC(),
	}, nil
}

// record keeps the latest result per (job, candidate) for the dashboard.
func (s *Service) record(results []MatchResult) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, r := range results {
		key := resultKey{jobID: r.JobID, candidateID: r.CandidateID}
		if prev, ok := s.results[key]; ok && prev.ScreenedAt.After(r.ScreenedAt) {
			continue
		}
		s.results[key] = r
	}
}

func (s *Service) observeRunOutcome(outcome string, start time.Time) {
	if s.metrics == nil {
		return
	}
	s.metrics.ScreeningRunsTotal.WithLabelValues(outcome).Inc()
	s.metrics.ScreeningLatency.Observe(time.Since(start).Seconds())
}

func (s *Service) observeRun(ctx context.Context, job Job, run *Run, start time.Time) {
	if s.metrics != nil {
		outcome := "completed"
		switch {
		case run.Cancelled:
			outcome = "cancelled"
		case run.Cached:
			outcome = "cached"
		}
		s.observeRunOutcome(outcome, start)
		s.metrics.CandidatesScoredTotal.Add(float64(len(run.Results)))
		for _, f := range run.Failures {
			s.metrics.CandidateFailuresTotal.WithLabelValues(f.Kind).Inc()
		}
		for _, r := range run.Results {
			s.metrics.FinalScore.Observe(float64(r.FinalScore))
		}
	}
	for _, o := range s.observers {
		o.ObserveRun(ctx, job, run)
	}
}
