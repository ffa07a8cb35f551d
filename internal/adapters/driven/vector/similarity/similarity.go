// Package similarity provides brute-force cosine ranking shared by the
// vector stores that keep raw vectors.
package similarity

import (
	"math"
	"sort"
)

// Cosine returns the cosine similarity of a and b. Mismatched lengths or
// zero vectors score 0.
func Cosine(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot, na, nb float64
	for i := range a {
		x, y := float64(a[i]), float64(b[i])
		dot += x * y
		na += x * x
		nb += y * y
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}

// Normalize scales v to unit length in place and returns it.
func Normalize(v []float32) []float32 {
	var sum float64
	for _, x := range v {
		sum += float64(x) * float64(x)
	}
	if sum == 0 {
		return v
	}
	inv := 1 / math.Sqrt(sum)
	for i := range v {
		v[i] = float32(float64(v[i]) * inv)
	}
	return v
}

// Scored pairs an item index with its score.
type Scored struct {
	Index int
	Score float64
}

// TopK returns the k highest scores, highest first. Ties keep input order.
func TopK(scores []float64, k int) []Scored {
	out := make([]Scored, len(scores))
	for i, s := range scores {
		out[i] = Scored{Index: i, Score: s}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Score > out[j].Score
	})
	if k >= 0 && k < len(out) {
		out = out[:k]
	}
	return out
}
