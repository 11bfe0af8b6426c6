package database

import "math"

// CosineSimilarity returns the cosine similarity of a and b in [-1, 1].
// Mismatched, empty or zero vectors yield -1 so they always rank last.
func CosineSimilarity(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return -1
	}

	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return -1
	}

	// Clamp to handle floating point errors
	return max(-1, min(1, dot/(math.Sqrt(normA)*math.Sqrt(normB))))
}

// CosineDistance is 1 - CosineSimilarity: 0 for identical direction, 2 for opposite.
// This is the value pgvector's <=> operator returns.
func CosineDistance(a, b []float32) float64 {
	return 1 - CosineSimilarity(a, b)
}

// SimilarityFromDistance converts a cosine distance back to a similarity score.
func SimilarityFromDistance(distance float64) float64 {
	return 1 - distance
}
