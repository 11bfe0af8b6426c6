package retrieval

import (
	"context"
	"fmt"

	"github.com/kozaktomas/facebank/internal/database"
	"github.com/kozaktomas/facebank/internal/identity"
)

// FaceBank retrieves candidates from the enrolled face bank (PostgreSQL or its HNSW index).
type FaceBank struct {
	faces database.FaceReader
}

// NewFaceBank creates a retriever over the given face reader.
func NewFaceBank(faces database.FaceReader) *FaceBank {
	return &FaceBank{faces: faces}
}

// Retrieve finds the k nearest enrolled faces. Score is cosine similarity, 1 - distance.
func (r *FaceBank) Retrieve(ctx context.Context, embedding []float32, k int) ([]identity.CandidateMatch, error) {
	if err := validate(embedding, k); err != nil {
		return nil, err
	}

	faces, distances, err := r.faces.FindSimilarWithDistance(ctx, embedding, k)
	if err != nil {
		return nil, fmt.Errorf("face bank search: %w", err)
	}
	if len(faces) != len(distances) {
		return nil, fmt.Errorf("face bank returned %d faces but %d distances", len(faces), len(distances))
	}

	candidates := make([]identity.CandidateMatch, 0, len(faces))
	for i, f := range faces {
		candidates = append(candidates, identity.CandidateMatch{
			PersonID: f.PersonID,
			Score:    database.SimilarityFromDistance(distances[i]),
		})
	}
	sortByScore(candidates)
	if len(candidates) > k {
		candidates = candidates[:k]
	}
	return candidates, nil
}
