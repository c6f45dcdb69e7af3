package services

import "math"

// CosineSimilarity returns the cosine similarity of two vectors. Vectors of
// unequal length are truncated to the shorter one. Returns -1 when either
// vector is empty or has zero magnitude, the engine's "no signal" value.
func CosineSimilarity(a, b []float32) float64 {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	if n == 0 {
		return -1
	}

	var dot, normA, normB float64
	for i := 0; i < n; i++ {
		av := float64(a[i])
		bv := float64(b[i])
		dot += av * bv
		normA += av * av
		normB += bv * bv
	}

	if normA == 0 || normB == 0 {
		return -1
	}

	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}
