package retrieval

import (
	"context"
	"errors"
	"fmt"

	"github.com/kozaktomas/facebank/internal/config"
	"github.com/kozaktomas/facebank/internal/identity"
	"github.com/pinecone-io/go-pinecone/pinecone"
)

// PersonIDField is the vector metadata key holding the enrolled person's ID.
const PersonIDField = "person_id"

// vectorQuerier is the part of *pinecone.IndexConnection used here.
type vectorQuerier interface {
	QueryByVectorValues(ctx context.Context, in *pinecone.QueryByVectorValuesRequest) (*pinecone.QueryVectorsResponse, error)
}

// Pinecone retrieves candidates from a Pinecone index built with the cosine metric.
type Pinecone struct {
	index vectorQuerier
}

// NewPinecone connects to the index host from cfg.
func NewPinecone(cfg config.PineconeConfig) (*Pinecone, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("PINECONE_API_KEY is required")
	}
	if cfg.Host == "" {
		return nil, errors.New("PINECONE_HOST is required")
	}

	client, err := pinecone.NewClient(pinecone.NewClientParams{ApiKey: cfg.APIKey})
	if err != nil {
		return nil, fmt.Errorf("failed to create Pinecone client: %w", err)
	}

	index, err := client.Index(pinecone.NewIndexConnParams{
		Host:      cfg.Host,
		Namespace: cfg.Namespace,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to Pinecone index: %w", err)
	}
	return &Pinecone{index: index}, nil
}

// Retrieve queries the k most similar vectors. A match without a person_id
// keeps its rank but is ignored by voting.
func (r *Pinecone) Retrieve(ctx context.Context, embedding []float32, k int) ([]identity.CandidateMatch, error) {
	if err := validate(embedding, k); err != nil {
		return nil, err
	}

	resp, err := r.index.QueryByVectorValues(ctx, &pinecone.QueryByVectorValuesRequest{
		Vector:          embedding,
		TopK:            uint32(k),
		IncludeValues:   false,
		IncludeMetadata: true,
	})
	if err != nil {
		return nil, fmt.Errorf("pinecone query: %w", err)
	}

	candidates := make([]identity.CandidateMatch, 0, len(resp.Matches))
	for _, match := range resp.Matches {
		if match == nil {
			continue
		}
		candidates = append(candidates, identity.CandidateMatch{
			PersonID: personID(match.Vector),
			Score:    float64(match.Score),
		})
	}
	sortByScore(candidates)
	if len(candidates) > k {
		candidates = candidates[:k]
	}
	return candidates, nil
}

func personID(v *pinecone.Vector) string {
	if v == nil || v.Metadata == nil {
		return ""
	}
	field, ok := v.Metadata.GetFields()[PersonIDField]
	if !ok {
		return ""
	}
	return field.GetStringValue()
}
