package scorer

import (
	"errors"
	"math"
	"math/rand"
	"reflect"
	"testing"

	"github.com/Adithya-Monish-Kumar-K/resume-screener/internal/matcher/skills"
	"github.com/Adithya-Monish-Kumar-K/resume-screener/internal/matcher/tokenizer"
	apperrors "github.com/Adithya-Monish-Kumar-K/resume-screener/pkg/errors"
)

func taxonomy(t *testing.T) *skills.Taxonomy {
	t.Helper()
	tax, err := skills.NewTaxonomy([]skills.Entry{
		{Name: "Python"}, {Name: "SQL"}, {Name: "Go"}, {Name: "Docker"},
	}, tokenizer.New(tokenizer.Options{}))
	if err != nil {
		t.Fatal(err)
	}
	return tax
}

func resolve(t *testing.T, tax *skills.Taxonomy, names ...string) skills.Set {
	t.Helper()
	s, err := tax.Resolve(names)
	if err != nil {
		t.Fatal(err)
	}
	return s
}

func defaultComposer(t *testing.T) *Composer {
	t.Helper()
	c, err := NewComposer(DefaultWeights())
	if err != nil {
		t.Fatal(err)
	}
	return c
}

func TestComposePartialSkillsNoBoost(t *testing.T) {
	tax := taxonomy(t)
	c := defaultComposer(t)
	got, err := c.Compose(0.5, resolve(t, tax, "Python", "SQL"), resolve(t, tax, "Python"), NoBoost)
	if err != nil {
		t.Fatal(err)
	}
	if got.SkillCoverage != 0.5 {
		t.Errorf("coverage = %v, want 0.5", got.SkillCoverage)
	}
	if math.Abs(got.BaseScore-50) > 1e-9 {
		t.Errorf("base = %v, want 50", got.BaseScore)
	}
	if got.FinalScore != 50 {
		t.Errorf("final = %d, want 50", got.FinalScore)
	}
	if names := got.MatchedSkills.Names(); !reflect.DeepEqual(names, []string{"Python"}) {
		t.Errorf("matched = %q", names)
	}
}

func TestComposeEmptyRequiredWithDepartmentBoost(t *testing.T) {
	tax := taxonomy(t)
	c := defaultComposer(t)
	got, err := c.Compose(0.8, skills.Set{}, resolve(t, tax, "Go"), DefaultDepartmentBoost)
	if err != nil {
		t.Fatal(err)
	}
	if got.SkillCoverage != 1 {
		t.Errorf("coverage = %v, want 1", got.SkillCoverage)
	}
	if math.Abs(got.BaseScore-88) > 1e-9 {
		t.Errorf("base = %v, want 88", got.BaseScore)
	}
	if math.Abs(got.BoostedScore-92.4) > 1e-9 {
		t.Errorf("boosted = %v, want 92.4", got.BoostedScore)
	}
	if got.FinalScore != 92 {
		t.Errorf("final = %d, want 92", got.FinalScore)
	}
	if got.MatchedSkills.Len() != 0 {
		t.Errorf("matched = %q, want none", got.MatchedSkills.Names())
	}
}

func TestComposeClampsToHundred(t *testing.T) {
	tax := taxonomy(t)
	c := defaultComposer(t)
	req := resolve(t, tax, "Go")
	got, err := c.Compose(1, req, req, 1.5)
	if err != nil {
		t.Fatal(err)
	}
	if got.FinalScore != 100 {
		t.Errorf("final = %d, want 100", got.FinalScore)
	}
}

func TestComposeZeroSimilarityNoSkills(t *testing.T) {
	tax := taxonomy(t)
	c := defaultComposer(t)
	got, err := c.Compose(0, resolve(t, tax, "Go", "SQL"), skills.Set{}, NoBoost)
	if err != nil {
		t.Fatal(err)
	}
	if got.FinalScore != 0 || got.SkillCoverage != 0 {
		t.Errorf("got %+v, want zero score and coverage", got)
	}
}

func TestComposeBounds(t *testing.T) {
	tax := taxonomy(t)
	all := tax.Names()
	c := defaultComposer(t)
	rng := rand.New(rand.NewSource(7))
	pick := func() skills.Set {
		var names []string
		for _, n := range all {
			if rng.Intn(2) == 0 {
				names = append(names, n)
			}
		}
		return resolve(t, tax, names...)
	}
	for i := 0; i < 2000; i++ {
		required, candidate := pick(), pick()
		sim := rng.Float64()*1.2 - 0.1
		boost := 1 + rng.Float64()
		got, err := c.Compose(sim, required, candidate, boost)
		if err != nil {
			t.Fatal(err)
		}
		if got.FinalScore < 0 || got.FinalScore > 100 {
			t.Fatalf("final %d out of range", got.FinalScore)
		}
		if got.SkillCoverage < 0 || got.SkillCoverage > 1 {
			t.Fatalf("coverage %v out of range", got.SkillCoverage)
		}
		if candidate.Intersect(required).Len() == required.Len() && got.SkillCoverage != 1 {
			t.Fatalf("superset candidate has coverage %v", got.SkillCoverage)
		}
	}
}

func TestComposeRejects(t *testing.T) {
	tax := taxonomy(t)
	other := taxonomy(t)
	c := defaultComposer(t)
	req := resolve(t, tax, "Go")

	if _, err := c.Compose(0.5, req, req, 0.9); !errors.Is(err, apperrors.ErrInvalidInput) {
		t.Errorf("boost < 1 err = %v", err)
	}
	if _, err := c.Compose(math.NaN(), req, req, 1); !errors.Is(err, apperrors.ErrInvalidInput) {
		t.Errorf("NaN similarity err = %v", err)
	}
	if _, err := c.Compose(0.5, req, resolve(t, other, "Go"), 1); !errors.Is(err, apperrors.ErrUnknownSkill) {
		t.Errorf("foreign taxonomy err = %v", err)
	}
	if _, err := c.ComposeChecked(other, 0.5, req, skills.Set{}, 1); !errors.Is(err, apperrors.ErrUnknownSkill) {
		t.Errorf("ComposeChecked err = %v", err)
	}
}

func TestNewComposerValidatesWeights(t *testing.T) {
	for _, w := range []Weights{{0.7, 0.4}, {-0.1, 1.1}, {math.NaN(), 1}} {
		if _, err := NewComposer(w); !errors.Is(err, apperrors.ErrInvalidInput) {
			t.Errorf("NewComposer(%v) err = %v", w, err)
		}
	}
	if _, err := NewComposer(Weights{Similarity: 1}); err != nil {
		t.Errorf("similarity-only weights rejected: %v", err)
	}
}
