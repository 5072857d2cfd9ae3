package skills

import (
	"encoding/json"
	"sort"
)

// Set is an immutable, taxonomy-ordered set of skills. The zero value is the
// empty set and belongs to no taxonomy.
type Set struct {
	tax *Taxonomy
	ids []int
}

func newSet(t *Taxonomy, ids []int) Set {
	if len(ids) == 0 {
		return Set{tax: t}
	}
	sorted := append([]int(nil), ids...)
	sort.Ints(sorted)
	out := sorted[:1]
	for _, id := range sorted[1:] {
		if id != out[len(out)-1] {
			out = append(out, id)
		}
	}
	return Set{tax: t, ids: out}
}

func (s Set) Len() int {
	return len(s.ids)
}

// Names returns canonical names in taxonomy order. The result is never nil.
func (s Set) Names() []string {
	names := make([]string, len(s.ids))
	for i, id := range s.ids {
		names[i] = s.tax.entries[id].name
	}
	return names
}

func (s Set) Contains(name string) bool {
	if s.tax == nil {
		return false
	}
	idx, ok := s.tax.lookup(name)
	if !ok {
		return false
	}
	i := sort.SearchInts(s.ids, idx)
	return i < len(s.ids) && s.ids[i] == idx
}

// Intersect returns the skills present in both sets. Sets from different
// taxonomies share nothing.
func (s Set) Intersect(other Set) Set {
	if s.tax != other.tax {
		return Set{tax: s.tax}
	}
	var ids []int
	i, j := 0, 0
	for i < len(s.ids) && j < len(other.ids) {
		switch {
		case s.ids[i] == other.ids[j]:
			ids = append(ids, s.ids[i])
			i++
			j++
		case s.ids[i] < other.ids[j]:
			i++
		default:
			j++
		}
	}
	return Set{tax: s.tax, ids: ids}
}

// Taxonomy returns the taxonomy the set was built from, or nil for the zero
// value.
func (s Set) Taxonomy() *Taxonomy {
	return s.tax
}

func (s Set) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.Names())
}
