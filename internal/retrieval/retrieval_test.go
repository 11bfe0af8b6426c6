package retrieval

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/kozaktomas/facebank/internal/config"
	"github.com/kozaktomas/facebank/internal/database/mock"
	"github.com/kozaktomas/facebank/internal/identity"
	"github.com/pinecone-io/go-pinecone/pinecone"
	"google.golang.org/protobuf/types/known/structpb"
)

func TestFaceBank_Retrieve(t *testing.T) {
	faces := mock.NewMockFaceReader()
	faces.AddFace("bob", []float32{0, 1, 0})
	faces.AddFace("alice", []float32{1, 0, 0})
	faces.AddFace("alice", []float32{1, 0.2, 0})

	r := NewFaceBank(faces)
	got, err := r.Retrieve(context.Background(), []float32{1, 0, 0}, 2)
	if err != nil {
		t.Fatalf("Retrieve failed: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("got %d candidates, want 2", len(got))
	}
	if got[0].PersonID != "alice" || math.Abs(got[0].Score-1) > 1e-9 {
		t.Errorf("first candidate = %+v, want alice with score 1", got[0])
	}
	if got[1].PersonID != "alice" || got[1].Score >= got[0].Score {
		t.Errorf("second candidate = %+v, want lower-scored alice", got[1])
	}
}

func TestFaceBank_RetrieveError(t *testing.T) {
	faces := mock.NewMockFaceReader()
	faces.FindSimilarWDError = errors.New("connection refused")

	_, err := NewFaceBank(faces).Retrieve(context.Background(), []float32{1}, 5)
	if err == nil {
		t.Fatal("expected error")
	}
}

func TestFaceBank_InvalidQuery(t *testing.T) {
	r := NewFaceBank(mock.NewMockFaceReader())

	if _, err := r.Retrieve(context.Background(), nil, 5); !errors.Is(err, ErrInvalidQuery) {
		t.Errorf("empty embedding: got %v, want ErrInvalidQuery", err)
	}
	if _, err := r.Retrieve(context.Background(), []float32{1}, 0); !errors.Is(err, ErrInvalidQuery) {
		t.Errorf("k=0: got %v, want ErrInvalidQuery", err)
	}
	if _, err := r.Retrieve(context.Background(), []float32{1}, MaxK+1); !errors.Is(err, ErrInvalidQuery) {
		t.Errorf("k above MaxK: got %v, want ErrInvalidQuery", err)
	}
}

func TestFaceBank_EmptyBank(t *testing.T) {
	got, err := NewFaceBank(mock.NewMockFaceReader()).Retrieve(context.Background(), []float32{1, 0}, 5)
	if err != nil {
		t.Fatalf("Retrieve failed: %v", err)
	}
	if len(got) != 0 {
		t.Errorf("expected no candidates, got %v", got)
	}
}

type fakeQuerier struct {
	resp *pinecone.QueryVectorsResponse
	err  error
	last *pinecone.QueryByVectorValuesRequest
}

func (f *fakeQuerier) QueryByVectorValues(ctx context.Context, in *pinecone.QueryByVectorValuesRequest) (*pinecone.QueryVectorsResponse, error) {
	f.last = in
	return f.resp, f.err
}

func scoredVector(t *testing.T, id string, score float32, metadata map[string]any) *pinecone.ScoredVector {
	t.Helper()
	v := &pinecone.Vector{Id: id}
	if metadata != nil {
		md, err := structpb.NewStruct(metadata)
		if err != nil {
			t.Fatalf("NewStruct: %v", err)
		}
		v.Metadata = md
	}
	return &pinecone.ScoredVector{Vector: v, Score: score}
}

func TestPinecone_Retrieve(t *testing.T) {
	q := &fakeQuerier{resp: &pinecone.QueryVectorsResponse{
		Matches: []*pinecone.ScoredVector{
			scoredVector(t, "f1", 0.75, map[string]any{"person_id": "B"}),
			scoredVector(t, "f2", 0.9, map[string]any{"person_id": "A"}),
			scoredVector(t, "f3", 0.5, nil),
		},
	}}
	r := &Pinecone{index: q}

	got, err := r.Retrieve(context.Background(), []float32{0.1, 0.2}, 3)
	if err != nil {
		t.Fatalf("Retrieve failed: %v", err)
	}

	want := []identity.CandidateMatch{
		{PersonID: "A", Score: float64(float32(0.9))},
		{PersonID: "B", Score: float64(float32(0.75))},
		{PersonID: "", Score: float64(float32(0.5))},
	}
	if len(got) != len(want) {
		t.Fatalf("got %d candidates, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("candidate %d = %+v, want %+v", i, got[i], want[i])
		}
	}

	if q.last.TopK != 3 || !q.last.IncludeMetadata {
		t.Errorf("unexpected request: TopK=%d IncludeMetadata=%v", q.last.TopK, q.last.IncludeMetadata)
	}
}

func TestPinecone_RetrieveError(t *testing.T) {
	r := &Pinecone{index: &fakeQuerier{err: errors.New("503 unavailable")}}
	if _, err := r.Retrieve(context.Background(), []float32{1}, 1); err == nil {
		t.Fatal("expected error")
	}
}

func TestPinecone_TopKOutOfRange(t *testing.T) {
	q := &fakeQuerier{resp: &pinecone.QueryVectorsResponse{}}
	r := &Pinecone{index: q}

	for _, k := range []int{MaxK + 1, 1 << 33} {
		if _, err := r.Retrieve(context.Background(), []float32{1}, k); !errors.Is(err, ErrInvalidQuery) {
			t.Errorf("k=%d: got %v, want ErrInvalidQuery", k, err)
		}
	}
	if q.last != nil {
		t.Error("out-of-range k must not reach the index")
	}

	if _, err := r.Retrieve(context.Background(), []float32{1}, MaxK); err != nil {
		t.Fatalf("k=MaxK: unexpected error %v", err)
	}
	if q.last.TopK != MaxK {
		t.Errorf("TopK = %d, want %d", q.last.TopK, MaxK)
	}
}

func TestNewPinecone_MissingConfig(t *testing.T) {
	if _, err := NewPinecone(config.PineconeConfig{Host: "idx.svc.pinecone.io"}); err == nil {
		t.Error("expected error without API key")
	}
	if _, err := NewPinecone(config.PineconeConfig{APIKey: "key"}); err == nil {
		t.Error("expected error without host")
	}
}
