package domain

import (
	"math"
	"sort"
)

// CosineSimilarity returns dot(a,b) / (|a| * |b|), clamped to [-1, 1].
// Vectors of different length, empty vectors and zero-norm vectors
// score 0.
func CosineSimilarity(a, b []float32) float64 {
	if len(a) == 0 || len(a) != len(b) {
		return 0
	}

	var dot, normA, normB float64
	for i := range a {
		x, y := float64(a[i]), float64(b[i])
		dot += x * y
		normA += x * x
		normB += y * y
	}

	if normA == 0 || normB == 0 {
		return 0
	}

	sim := dot / (math.Sqrt(normA) * math.Sqrt(normB))
	switch {
	case math.IsNaN(sim):
		return 0
	case sim > 1:
		return 1
	case sim < -1:
		return -1
	}
	return sim
}

// RankFragments scores every fragment against query and returns the topK
// best, highest first. Input order breaks ties, so callers pass fragments
// in insertion order. A topK <= 0 returns every fragment.
func RankFragments(query []float32, fragments []Fragment, topK int) []ScoredFragment {
	scored := make([]ScoredFragment, 0, len(fragments))
	for _, f := range fragments {
		scored = append(scored, ScoredFragment{
			Fragment: f,
			Score:    CosineSimilarity(query, f.Embedding),
		})
	}

	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].Score > scored[j].Score
	})

	if topK > 0 && len(scored) > topK {
		scored = scored[:topK]
	}
	return scored
}
