// Package scorer composes textual similarity, skill coverage and the
// department signal into one integer score per candidate.
//
// The composition runs in a fixed order so results are reproducible:
//
//	matched  = required ∩ candidate
//	coverage = |matched| / |required|   (1 when required is empty)
//	base     = (w_sim*similarity + w_skill*coverage) * 100
//	boosted  = base * boost
//	final    = round(boosted) clamped to [0,100]
package scorer

import (
	"math"

	"github.com/Adithya-Monish-Kumar-K/resume-screener/internal/matcher/skills"
	apperrors "github.com/Adithya-Monish-Kumar-K/resume-screener/pkg/errors"
)

const (
	DefaultSimilarityWeight = 0.6
	DefaultSkillWeight      = 0.4
	// DefaultDepartmentBoost multiplies the base score when the job's
	// department appears in the resume.
	DefaultDepartmentBoost = 1.05
	// NoBoost leaves the base score unchanged.
	NoBoost = 1.0

	weightTolerance = 1e-9
)

type Weights struct {
	Similarity float64
	Skills     float64
}

func DefaultWeights() Weights {
	return Weights{Similarity: DefaultSimilarityWeight, Skills: DefaultSkillWeight}
}

// Composition is the outcome for one candidate. Every intermediate value is
// kept so a score can be explained.
type Composition struct {
	Similarity    float64
	SkillCoverage float64
	BaseScore     float64
	Boost         float64
	BoostedScore  float64
	FinalScore    int
	MatchedSkills skills.Set
}

type Composer struct {
	weights Weights
}

// NewComposer rejects negative weights and weights that do not sum to 1.
func NewComposer(w Weights) (*Composer, error) {
	if w.Similarity < 0 || w.Skills < 0 || math.IsNaN(w.Similarity) || math.IsNaN(w.Skills) {
		return nil, apperrors.Newf(apperrors.ErrInvalidInput, "weights must be non-negative, got %v/%v", w.Similarity, w.Skills)
	}
	if math.Abs(w.Similarity+w.Skills-1) > weightTolerance {
		return nil, apperrors.Newf(apperrors.ErrInvalidInput, "weights must sum to 1, got %v", w.Similarity+w.Skills)
	}
	return &Composer{weights: w}, nil
}

func (c *Composer) Weights() Weights {
	return c.weights
}

// Compose scores one candidate. required and candidate must come from the
// same taxonomy; a mismatch is reported as ErrUnknownSkill. boost must be at
// least 1.
func (c *Composer) Compose(similarity float64, required, candidate skills.Set, boost float64) (Composition, error) {
	if math.IsNaN(boost) || boost < 1 {
		return Composition{}, apperrors.Newf(apperrors.ErrInvalidInput, "boost must be >= 1, got %v", boost)
	}
	if math.IsNaN(similarity) {
		return Composition{}, apperrors.New(apperrors.ErrInvalidInput, "similarity is NaN")
	}
	if required.Len() > 0 && candidate.Len() > 0 && required.Taxonomy() != candidate.Taxonomy() {
		return Composition{}, apperrors.New(apperrors.ErrUnknownSkill, "required and candidate skills come from different taxonomies")
	}
	similarity = clamp(similarity, 0, 1)

	matched := required.Intersect(candidate)
	coverage := 1.0
	if required.Len() > 0 {
		coverage = float64(matched.Len()) / float64(required.Len())
	}
	base := (c.weights.Similarity*similarity + c.weights.Skills*coverage) * 100
	boosted := base * boost
	final := int(clamp(math.Round(boosted), 0, 100))

	return Composition{
		Similarity:    similarity,
		SkillCoverage: coverage,
		BaseScore:     base,
		Boost:         boost,
		BoostedScore:  boosted,
		FinalScore:    final,
		MatchedSkills: matched,
	}, nil
}

// ComposeChecked validates both skill sets against tax before composing.
func (c *Composer) ComposeChecked(tax *skills.Taxonomy, similarity float64, required, candidate skills.Set, boost float64) (Composition, error) {
	if err := tax.Validate(required); err != nil {
		return Composition{}, err
	}
	if err := tax.Validate(candidate); err != nil {
		return Composition{}, err
	}
	return c.Compose(similarity, required, candidate, boost)
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
