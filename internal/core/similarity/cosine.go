// Package similarity scores embeddings against each other.
package similarity

import (
	"fmt"
	"math"
)

// Cosine computes the cosine similarity between two vectors.
// The result lies in [-1, 1]; 1 means identical direction.
// Sums are accumulated in float64 and the norms share one square root, so
// parallel vectors score exactly 1. If either vector has zero norm the
// result is exactly 0.
//
// Vectors of different length are a programming error and panic.
func Cosine(a, b []float32) float64 {
	if len(a) != len(b) {
		panic(fmt.Sprintf("similarity: dimension mismatch: %d != %d", len(a), len(b)))
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

	return dot / math.Sqrt(normA*normB)
}
