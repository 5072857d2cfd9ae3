package intake

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/Adithya-Monish-Kumar-K/resume-screener/internal/screening"
	apperrors "github.com/Adithya-Monish-Kumar-K/resume-screener/pkg/errors"
	"github.com/Adithya-Monish-Kumar-K/resume-screener/pkg/kafka"
	"github.com/Adithya-Monish-Kumar-K/resume-screener/pkg/metrics"
	"github.com/Adithya-Monish-Kumar-K/resume-screener/pkg/resilience"
)

// errSkip marks a message that is acknowledged without effect.
var errSkip = errors.New("skipped")

type publishError struct {
	err error
}

func (e *publishError) Error() string { return e.err.Error() }
func (e *publishError) Unwrap() error { return e.err }

// Handler applies intake messages to a screening service. References are
// idempotent: a job or resume whose ref was already seen is acknowledged and
// ignored, so redelivered messages never create duplicate documents.
type Handler struct {
	svc     *screening.Service
	results kafka.Publisher
	retry   resilience.RetryConfig
	metrics *metrics.Metrics
	logger  *slog.Logger

	mu         sync.Mutex
	jobs       map[string]string
	candidates map[string]string
	refByID    map[string]string
}

// NewHandler creates a Handler. results may be nil to skip publishing; m
// may be nil.
func NewHandler(svc *screening.Service, results kafka.Publisher, m *metrics.Metrics) *Handler {
	return &Handler{
		svc:        svc,
		results:    results,
		metrics:    m,
		logger:     slog.Default().With("component", "intake"),
		jobs:       make(map[string]string),
		candidates: make(map[string]string),
		refByID:    make(map[string]string),
	}
}

// MessageHandler adapts h to the Kafka consumer.
func (h *Handler) MessageHandler() kafka.MessageHandler {
	return h.Handle
}

// Handle processes one message. Malformed or rejected messages are logged
// and acknowledged; only a failure to publish results is returned, leaving
// the message uncommitted.
func (h *Handler) Handle(ctx context.Context, msg kafka.Message) error {
	var env Envelope
	if err := json.Unmarshal(msg.Value, &env); err != nil {
		h.count(msg.Type, "invalid")
		h.logger.Error("failed to decode intake message", "key", string(msg.Key), "error", err)
		return nil
	}
	if env.Type == "" {
		env.Type = msg.Type
	}
	env.Type = strings.ToLower(env.Type)

	var err error
	switch env.Type {
	case TypeJob:
		err = h.handleJob(ctx, env)
	case TypeResume:
		err = h.handleResume(ctx, env)
	case TypeScreen:
		err = h.handleScreen(ctx, env)
	default:
		err = apperrors.Newf(apperrors.ErrInvalidInput, "unknown message type %q", env.Type)
	}

	var pubErr *publishError
	switch {
	case err == nil:
		h.count(env.Type, "ok")
		return nil
	case errors.Is(err, errSkip):
		h.count(env.Type, "duplicate")
		return nil
	case errors.As(err, &pubErr), apperrors.Kind(err) == "internal":
		h.count(env.Type, "error")
		return err
	default:
		h.count(env.Type, "rejected")
		h.logger.Warn("intake message rejected", "type", env.Type, "ref", env.Ref, "kind", apperrors.Kind(err), "error", err)
		return nil
	}
}

func (h *Handler) handleJob(ctx context.Context, env Envelope) error {
	if env.Job == nil || env.Ref == "" {
		return apperrors.New(apperrors.ErrInvalidInput, "job message needs ref and job")
	}
	if h.known(h.jobs, env.Ref) {
		return errSkip
	}
	job, err := h.svc.CreateJob(ctx, *env.Job)
	if err != nil {
		return err
	}
	h.remember(h.jobs, env.Ref, job.ID)
	h.logger.Info("job registered", "ref", env.Ref, "job_id", job.ID)
	return nil
}

func (h *Handler) handleResume(ctx context.Context, env Envelope) error {
	if env.Resume == nil || env.Ref == "" {
		return apperrors.New(apperrors.ErrInvalidInput, "resume message needs ref and resume")
	}
	if h.known(h.candidates, env.Ref) {
		return errSkip
	}
	c, err := h.svc.AddCandidate(ctx, *env.Resume)
	if err != nil {
		return err
	}
	h.remember(h.candidates, env.Ref, c.ID)
	h.logger.Info("resume registered", "ref", env.Ref, "candidate_id", c.ID, "skills", c.Skills.Len())
	return nil
}

func (h *Handler) handleScreen(ctx context.Context, env Envelope) error {
	if env.Screen == nil || env.Screen.JobRef == "" {
		return apperrors.New(apperrors.ErrInvalidInput, "screen message needs screen.job_ref")
	}
	h.mu.Lock()
	jobID, ok := h.jobs[env.Screen.JobRef]
	var ids, unknown []string
	for _, ref := range env.Screen.CandidateRefs {
		if id, ok := h.candidates[ref]; ok {
			ids = append(ids, id)
		} else {
			unknown = append(unknown, ref)
		}
	}
	h.mu.Unlock()
	if !ok {
		return apperrors.Newf(apperrors.ErrJobNotFound, "job ref %s", env.Screen.JobRef)
	}
	if len(env.Screen.CandidateRefs) > 0 && len(ids) == 0 {
		return apperrors.Newf(apperrors.ErrCandidateNotFound, "candidate refs %q", unknown)
	}

	run, err := h.svc.Screen(ctx, screening.ScreenRequest{JobID: jobID, CandidateIDs: ids})
	if err != nil {
		return err
	}
	return h.publish(ctx, h.result(env.Screen.JobRef, run, unknown))
}

func (h *Handler) result(jobRef string, run *screening.Run, unknown []string) ScreeningResult {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := ScreeningResult{
		Type:        TypeScreeningResult,
		JobRef:      jobRef,
		JobID:       run.JobID,
		RunID:       run.ID,
		Results:     make([]RankedCandidate, 0, len(run.Results)),
		Failures:    run.Failures,
		UnknownRefs: unknown,
		Cancelled:   run.Cancelled,
		Timestamp:   time.Now().UTC(),
	}
	for _, r := range run.Results {
		out.Results = append(out.Results, RankedCandidate{
			CandidateRef:    h.refByID[r.CandidateID],
			CandidateID:     r.CandidateID,
			DisplayName:     r.DisplayName,
			FinalScore:      r.FinalScore,
			Similarity:      r.Similarity,
			MatchedSkills:   r.MatchedSkills,
			DepartmentMatch: r.DepartmentMatch,
		})
	}
	return out
}

func (h *Handler) publish(ctx context.Context, res ScreeningResult) error {
	if h.results == nil {
		return nil
	}
	err := resilience.Retry(ctx, "publish screening result", h.retry, func() error {
		return h.results.Publish(ctx, kafka.Event{Key: res.JobRef, Type: res.Type, Value: res})
	})
	if err != nil {
		return &publishError{err: fmt.Errorf("publishing result of run %s: %w", res.RunID, err)}
	}
	return nil
}

func (h *Handler) known(refs map[string]string, ref string) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	_, ok := refs[ref]
	return ok
}

func (h *Handler) remember(refs map[string]string, ref, id string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	refs[ref] = id
	h.refByID[id] = ref
}

func (h *Handler) count(msgType, status string) {
	if h.metrics == nil {
		return
	}
	if msgType == "" {
		msgType = "unknown"
	}
	h.metrics.IntakeMessagesTotal.WithLabelValues(msgType, status).Inc()
}
