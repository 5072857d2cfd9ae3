// Package screening orchestrates the matching engine: it owns the corpus,
// the job and candidate records and the dashboard of latest results, and
// runs screening requests by scoring candidates in parallel against one
// corpus snapshot.
package screening

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/Adithya-Monish-Kumar-K/resume-screener/internal/extract"
	"github.com/Adithya-Monish-Kumar-K/resume-screener/internal/matcher/index"
	"github.com/Adithya-Monish-Kumar-K/resume-screener/internal/matcher/scorer"
	"github.com/Adithya-Monish-Kumar-K/resume-screener/internal/matcher/skills"
	"github.com/Adithya-Monish-Kumar-K/resume-screener/internal/matcher/tokenizer"
	apperrors "github.com/Adithya-Monish-Kumar-K/resume-screener/pkg/errors"
	"github.com/Adithya-Monish-Kumar-K/resume-screener/pkg/logger"
	"github.com/Adithya-Monish-Kumar-K/resume-screener/pkg/metrics"
)

const defaultMaxConcurrency = 8

// Options configures a Service. Zero values select defaults: the built-in
// taxonomy, default weights and boost, FileExtractor and no cache.
type Options struct {
	// Normalizer defaults to the taxonomy's normalizer, or the default
	// normalizer when no taxonomy is given either.
	Normalizer      *tokenizer.Normalizer
	Taxonomy        *skills.Taxonomy
	Weights         scorer.Weights
	DepartmentBoost float64
	MaxConcurrency  int
	RunTimeout      time.Duration
	Extractor       extract.Extractor
	Cache           *ResultCache
	Metrics         *metrics.Metrics
	Observers       []RunObserver
}

type resultKey struct {
	jobID       string
	candidateID string
}

// Service is safe for concurrent use.
type Service struct {
	normalizer     *tokenizer.Normalizer
	taxonomy       *skills.Taxonomy
	composer       *scorer.Composer
	boost          float64
	maxConcurrency int
	runTimeout     time.Duration
	extractor      extract.Extractor
	cache          *ResultCache
	metrics        *metrics.Metrics
	observers      []RunObserver
	corpus         *index.Corpus
	logger         *slog.Logger

	mu         sync.RWMutex
	jobs       map[string]*Job
	candidates map[string]*Candidate
	order      []string
	rawText    map[string]string
	results    map[resultKey]MatchResult
}

func New(opts Options) (*Service, error) {
	if opts.Taxonomy == nil {
		tax, err := skills.Builtin(opts.Normalizer)
		if err != nil {
			return nil, err
		}
		opts.Taxonomy = tax
	}
	if opts.Normalizer == nil {
		opts.Normalizer = opts.Taxonomy.Normalizer()
	}
	if opts.Weights == (scorer.Weights{}) {
		opts.Weights = scorer.DefaultWeights()
	}
	composer, err := scorer.NewComposer(opts.Weights)
	if err != nil {
		return nil, err
	}
	if opts.DepartmentBoost == 0 {
		opts.DepartmentBoost = scorer.DefaultDepartmentBoost
	}
	if opts.DepartmentBoost < scorer.NoBoost {
		return nil, apperrors.Newf(apperrors.ErrInvalidInput, "department boost must be >= 1, got %v", opts.DepartmentBoost)
	}
	if opts.MaxConcurrency <= 0 {
		opts.MaxConcurrency = defaultMaxConcurrency
	}
	if opts.Extractor == nil {
		opts.Extractor = extract.FileExtractor{}
	}

	return &Service{
		normalizer:     opts.Normalizer,
		taxonomy:       opts.Taxonomy,
		composer:       composer,
		boost:          opts.DepartmentBoost,
		maxConcurrency: opts.MaxConcurrency,
		runTimeout:     opts.RunTimeout,
		extractor:      opts.Extractor,
		cache:          opts.Cache,
		metrics:        opts.Metrics,
		observers:      opts.Observers,
		corpus:         index.NewCorpus(),
		logger:         slog.Default().With("component", "screening"),
		jobs:           make(map[string]*Job),
		candidates:     make(map[string]*Candidate),
		rawText:        make(map[string]string),
		results:        make(map[resultKey]MatchResult),
	}, nil
}

func (s *Service) Taxonomy() *skills.Taxonomy {
	return s.taxonomy
}

// Corpus exposes the shared corpus state for inspection.
func (s *Service) Corpus() *index.Corpus {
	return s.corpus
}

// CreateJob validates the required skills against the taxonomy and ingests
// the description. An unknown skill rejects the job before anything is
// ingested.
func (s *Service) CreateJob(ctx context.Context, req JobRequest) (Job, error) {
	required, err := s.taxonomy.Resolve(req.RequiredSkills)
	if err != nil {
		return Job{}, err
	}
	tokens := s.normalizer.Normalize(req.Description)
	job := &Job{
		ID:               uuid.New().String(),
		Description:      req.Description,
		Department:       req.Department,
		RequiredSkills:   required,
		TokenCount:       len(tokens),
		CreatedAt:        time.Now().UTC(),
		departmentPhrase: s.normalizer.Normalize(req.Department),
	}
	s.corpus.Ingest(job.ID, tokens)

	s.mu.Lock()
	s.jobs[job.ID] = job
	s.mu.Unlock()

	s.observeIngest("job")
	logger.FromContext(ctx).Info("job created",
		"job_id", job.ID,
		"required_skills", required.Len(),
		"department", job.Department,
		"token_count", job.TokenCount,
	)
	return *job, nil
}

// AddCandidate ingests a resume whose text has already been extracted.
func (s *Service) AddCandidate(ctx context.Context, req CandidateRequest) (Candidate, error) {
	if err := ctx.Err(); err != nil {
		return Candidate{}, apperrors.Newf(apperrors.ErrCancelled, "adding candidate %s: %v", req.FileName, err)
	}
	tokens := s.normalizer.Normalize(req.Text)
	c := &Candidate{
		ID:          uuid.New().String(),
		FileName:    req.FileName,
		DisplayName: extract.DisplayName(req.FileName),
		Skills:      s.taxonomy.Extract(tokens),
		TokenCount:  len(tokens),
		UploadedAt:  time.Now().UTC(),
		tokens:      tokens,
	}
	if c.DisplayName == "" {
		c.DisplayName = c.ID
	}
	// Ingest before publishing the record so every listed candidate is in
	// any snapshot taken afterwards.
	s.corpus.Ingest(c.ID, tokens)

	s.mu.Lock()
	s.candidates[c.ID] = c
	s.order = append(s.order, c.ID)
	s.rawText[c.ID] = req.Text
	s.mu.Unlock()

	s.observeIngest("resume")
	logger.FromContext(ctx).Debug("candidate added",
		"candidate_id", c.ID,
		"display_name", c.DisplayName,
		"skills", c.Skills.Len(),
		"token_count", c.TokenCount,
	)
	return *c, nil
}

// UploadCandidates extracts every path in parallel and ingests the texts in
// path order. Files that fail to extract are reported and skipped.
func (s *Service) UploadCandidates(ctx context.Context, paths []string) ([]Candidate, []Failure) {
	texts := make([]string, len(paths))
	errs := make([]error, len(paths))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.maxConcurrency)
	for i, path := range paths {
		g.Go(func() error {
			texts[i], errs[i] = s.extractor.Extract(gctx, path)
			return nil
		})
	}
	g.Wait()

	var added []Candidate
	var failures []Failure
	for i, path := range paths {
		if err := errs[i]; err != nil && apperrors.Kind(err) == "internal" {
			errs[i] = fmt.Errorf("%w: %w", apperrors.ErrExtractionFailed, err)
		}
		if errs[i] != nil {
			failures = append(failures, newFailure("", path, errs[i]))
			s.logger.Warn("resume extraction failed", "file", path, "error", errs[i])
			continue
		}
		c, err := s.AddCandidate(ctx, CandidateRequest{FileName: path, Text: texts[i]})
		if err != nil {
			failures = append(failures, newFailure("", path, err))
			continue
		}
		added = append(added, c)
	}
	return added, failures
}

func (s *Service) Job(id string) (Job, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	job, ok := s.jobs[id]
	if !ok {
		return Job{}, apperrors.Newf(apperrors.ErrJobNotFound, "job %s", id)
	}
	return *job, nil
}

func (s *Service) Candidate(id string) (Candidate, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.candidates[id]
	if !ok {
		return Candidate{}, apperrors.Newf(apperrors.ErrCandidateNotFound, "candidate %s", id)
	}
	return *c, nil
}

// Candidates lists every candidate in upload order.
func (s *Service) Candidates() []Candidate {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Candidate, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, *s.candidates[id])
	}
	return out
}

// RawText returns the text exactly as extracted, before normalization.
func (s *Service) RawText(candidateID string) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	text, ok := s.rawText[candidateID]
	if !ok {
		return "", apperrors.Newf(apperrors.ErrCandidateNotFound, "candidate %s", candidateID)
	}
	return text, nil
}

func (s *Service) observeIngest(kind string) {
	if s.metrics == nil {
		return
	}
	s.metrics.DocumentsIngestedTotal.WithLabelValues(kind).Inc()
	s.metrics.CorpusDocuments.Set(float64(s.corpus.TotalDocuments()))
	s.metrics.VocabularySize.Set(float64(s.corpus.VocabularySize()))
}

// sortResults orders by mode, then candidate ID, then job ID.
func sortResults(results []MatchResult, mode SortMode) {
	sort.Slice(results, func(i, j int) bool {
		a, b := results[i], results[j]
		if mode == SortByName && a.DisplayName != b.DisplayName {
			return a.DisplayName < b.DisplayName
		}
		if mode == SortByScore && a.FinalScore != b.FinalScore {
			return a.FinalScore > b.FinalScore
		}
		if a.CandidateID != b.CandidateID {
			return a.CandidateID < b.CandidateID
		}
		return a.JobID < b.JobID
	})
}
