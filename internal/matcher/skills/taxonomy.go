// Package skills matches normalized token sequences against a controlled
// skill taxonomy. A taxonomy entry matches a document only when one of its
// normalized phrases occurs as a contiguous run of tokens; there is no
// partial or fuzzy matching.
package skills

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/Adithya-Monish-Kumar-K/resume-screener/internal/matcher/tokenizer"
	apperrors "github.com/Adithya-Monish-Kumar-K/resume-screener/pkg/errors"
)

// Entry is one canonical skill and its lexical variants as supplied by the
// taxonomy owner.
type Entry struct {
	Name     string   `yaml:"name" json:"name"`
	Variants []string `yaml:"variants,omitempty" json:"variants,omitempty"`
}

type file struct {
	Skills []Entry `yaml:"skills"`
}

type compiled struct {
	name    string
	phrases [][]string
}

// Taxonomy is read-only after construction and safe for concurrent use.
type Taxonomy struct {
	entries    []compiled
	byName     map[string]int
	byPhrase   map[string]int
	normalizer *tokenizer.Normalizer
}

// NewTaxonomy normalizes every entry with n so that phrases line up with
// document tokens produced by the same normalizer. Entries keep their input
// order, which is also the order of every Set built from this taxonomy.
func NewTaxonomy(entries []Entry, n *tokenizer.Normalizer) (*Taxonomy, error) {
	if n == nil {
		n = tokenizer.New(tokenizer.Options{})
	}
	t := &Taxonomy{
		entries:    make([]compiled, 0, len(entries)),
		byName:     make(map[string]int, len(entries)),
		byPhrase:   make(map[string]int, len(entries)),
		normalizer: n,
	}
	for _, e := range entries {
		name := strings.TrimSpace(e.Name)
		if name == "" {
			return nil, apperrors.New(apperrors.ErrInvalidInput, "taxonomy entry with empty name")
		}
		key := strings.ToLower(name)
		if _, dup := t.byName[key]; dup {
			return nil, apperrors.Newf(apperrors.ErrInvalidInput, "duplicate taxonomy entry %q", name)
		}
		c := compiled{name: name}
		seen := make(map[string]struct{})
		for _, form := range append([]string{name}, e.Variants...) {
			phrase := n.Normalize(form)
			if len(phrase) == 0 {
				continue
			}
			pk := strings.Join(phrase, " ")
			if _, ok := seen[pk]; ok {
				continue
			}
			seen[pk] = struct{}{}
			if owner, taken := t.byPhrase[pk]; taken {
				return nil, apperrors.Newf(apperrors.ErrInvalidInput,
					"taxonomy form %q of %q collides with %q", form, name, t.entries[owner].name)
			}
			c.phrases = append(c.phrases, phrase)
		}
		if len(c.phrases) == 0 {
			return nil, apperrors.Newf(apperrors.ErrInvalidInput, "taxonomy entry %q normalizes to no tokens", name)
		}
		idx := len(t.entries)
		t.entries = append(t.entries, c)
		t.byName[key] = idx
		for _, p := range c.phrases {
			t.byPhrase[strings.Join(p, " ")] = idx
		}
	}
	return t, nil
}

// LoadTaxonomy reads a YAML document of the form
//
//	skills:
//	  - name: Go
//	    variants: [golang]
func LoadTaxonomy(path string, n *tokenizer.Normalizer) (*Taxonomy, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading taxonomy %s: %w", path, err)
	}
	var f file
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parsing taxonomy %s: %w", path, err)
	}
	t, err := NewTaxonomy(f.Skills, n)
	if err != nil {
		return nil, fmt.Errorf("building taxonomy from %s: %w", path, err)
	}
	return t, nil
}

func (t *Taxonomy) Len() int {
	return len(t.entries)
}

// Names returns the canonical names in taxonomy order.
func (t *Taxonomy) Names() []string {
	names := make([]string, len(t.entries))
	for i, e := range t.entries {
		names[i] = e.name
	}
	return names
}

// Normalizer returns the normalizer the taxonomy phrases were built with.
func (t *Taxonomy) Normalizer() *tokenizer.Normalizer {
	return t.normalizer
}

// Extract returns every entry with at least one phrase occurring as a
// contiguous subsequence of tokens. It never fails; no match yields an empty
// Set.
func (t *Taxonomy) Extract(tokens []string) Set {
	var ids []int
	for i, e := range t.entries {
		for _, p := range e.phrases {
			if ContainsPhrase(tokens, p) {
				ids = append(ids, i)
				break
			}
		}
	}
	return Set{tax: t, ids: ids}
}

// Resolve maps caller-supplied skill names to canonical entries. A name is
// accepted when it is a canonical name in any casing or when it normalizes
// to one of an entry's phrases. Anything else fails with
// ErrUnknownSkill. Duplicates collapse.
func (t *Taxonomy) Resolve(names []string) (Set, error) {
	ids := make([]int, 0, len(names))
	var unknown []string
	for _, raw := range names {
		idx, ok := t.lookup(raw)
		if !ok {
			unknown = append(unknown, raw)
			continue
		}
		ids = append(ids, idx)
	}
	if len(unknown) > 0 {
		return Set{}, apperrors.Newf(apperrors.ErrUnknownSkill, "%q not in taxonomy", unknown)
	}
	return newSet(t, ids), nil
}

// Validate reports ErrUnknownSkill when s was not built from t.
func (t *Taxonomy) Validate(s Set) error {
	if s.Len() == 0 || s.tax == t {
		return nil
	}
	return apperrors.Newf(apperrors.ErrUnknownSkill, "skill set %q belongs to a different taxonomy", s.Names())
}

func (t *Taxonomy) lookup(raw string) (int, bool) {
	name := strings.TrimSpace(raw)
	if idx, ok := t.byName[strings.ToLower(name)]; ok {
		return idx, true
	}
	phrase := t.normalizer.Normalize(name)
	if len(phrase) == 0 {
		return 0, false
	}
	idx, ok := t.byPhrase[strings.Join(phrase, " ")]
	return idx, ok
}

// ContainsPhrase reports whether phrase occurs in tokens as a contiguous run.
// An empty phrase never matches.
func ContainsPhrase(tokens, phrase []string) bool {
	if len(phrase) == 0 || len(phrase) > len(tokens) {
		return false
	}
outer:
	for i := 0; i+len(phrase) <= len(tokens); i++ {
		if tokens[i] != phrase[0] {
			continue
		}
		for j := 1; j < len(phrase); j++ {
			if tokens[i+j] != phrase[j] {
				continue outer
			}
		}
		return true
	}
	return false
}
