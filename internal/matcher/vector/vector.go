// Package vector builds L2-normalized TF-IDF vectors from corpus snapshots
// and scores them with cosine similarity.
package vector

import (
	"math"

	"github.com/Adithya-Monish-Kumar-K/resume-screener/internal/matcher/index"
)

// Vector is a sparse TF-IDF vector. Indices are strictly increasing and
// Weights runs parallel to them. A vector with no components is the zero
// vector.
type Vector struct {
	Indices []int
	Weights []float64
}

func (v Vector) IsZero() bool {
	return len(v.Indices) == 0
}

func (v Vector) Len() int {
	return len(v.Indices)
}

// Norm returns the Euclidean norm, summed in index order.
func (v Vector) Norm() float64 {
	var sum float64
	for _, w := range v.Weights {
		sum += w * w
	}
	return math.Sqrt(sum)
}

// Vectorize builds the vector of an ingested document against snap. A
// document unknown to the snapshot fails with ErrNotIngested.
func Vectorize(snap *index.Snapshot, docID string) (Vector, error) {
	stats, err := snap.Stats(docID)
	if err != nil {
		return Vector{}, err
	}
	return FromStats(snap, stats)
}

// FromStats weights raw term counts by the snapshot IDF and divides by the
// Euclidean norm. Zero-length documents produce the zero vector.
func FromStats(snap *index.Snapshot, stats index.DocumentStats) (Vector, error) {
	if len(stats.Terms) == 0 {
		return Vector{}, nil
	}
	v := Vector{
		Indices: make([]int, len(stats.Terms)),
		Weights: make([]float64, len(stats.Terms)),
	}
	for i, tc := range stats.Terms {
		idf, err := snap.IDF(tc.Index)
		if err != nil {
			return Vector{}, err
		}
		v.Indices[i] = tc.Index
		v.Weights[i] = float64(tc.Count) * idf
	}
	norm := v.Norm()
	if norm == 0 {
		return Vector{}, nil
	}
	for i := range v.Weights {
		v.Weights[i] /= norm
	}
	return v, nil
}

// Cosine returns the dot product of two normalized vectors, clamped to
// [0,1]. Either vector being zero yields 0.
func Cosine(a, b Vector) float64 {
	if a.IsZero() || b.IsZero() {
		return 0
	}
	var dot float64
	i, j := 0, 0
	for i < len(a.Indices) && j < len(b.Indices) {
		switch {
		case a.Indices[i] == b.Indices[j]:
			dot += a.Weights[i] * b.Weights[j]
			i++
			j++
		case a.Indices[i] < b.Indices[j]:
			i++
		default:
			j++
		}
	}
	switch {
	case math.IsNaN(dot), dot < 0:
		return 0
	case dot > 1:
		return 1
	}
	return dot
}
