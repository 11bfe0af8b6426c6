// Package retrieval turns a face embedding into a ranked list of candidate matches.
package retrieval

import (
	"context"
	"errors"
	"sort"

	"github.com/kozaktomas/facebank/internal/identity"
)

// MaxK is the largest k a retriever accepts. It matches Pinecone's top_k limit.
const MaxK = 10000

// ErrInvalidQuery is returned for an empty embedding or k outside 1..MaxK.
var ErrInvalidQuery = errors.New("retrieval needs a non-empty embedding and 0 < k <= 10000")

// Retriever returns up to k candidates ordered by descending similarity score.
type Retriever interface {
	Retrieve(ctx context.Context, embedding []float32, k int) ([]identity.CandidateMatch, error)
}

// sortByScore orders candidates by descending score, keeping backend order for equal scores.
func sortByScore(candidates []identity.CandidateMatch) {
	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].Score > candidates[j].Score
	})
}

func validate(embedding []float32, k int) error {
	if len(embedding) == 0 || k <= 0 || k > MaxK {
		return ErrInvalidQuery
	}
	return nil
}
