package identity

import (
	"math"
	"testing"
)

func TestPolicy_Accept(t *testing.T) {
	tests := []struct {
		name      string
		threshold float64
		result    VotingResult
		expected  bool
	}{
		{"above threshold", 0.7, VotingResult{PersonID: "A", Confidence: 0.85}, true},
		{"equal to threshold", 0.7, VotingResult{PersonID: "A", Confidence: 0.7}, false},
		{"below threshold", 0.7, VotingResult{PersonID: "A", Confidence: 0.69}, false},
		{"no winner", 0.7, VotingResult{}, false},
		{"no winner with low threshold", -1, VotingResult{}, false},
		{"custom threshold", 0.4, VotingResult{PersonID: "A", Confidence: 0.45}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := Policy{Threshold: tt.threshold}
			if got := p.Accept(tt.result); got != tt.expected {
				t.Errorf("Accept(%+v) with threshold %v = %v, want %v", tt.result, tt.threshold, got, tt.expected)
			}
		})
	}
}

func TestDefaultPolicy(t *testing.T) {
	if DefaultPolicy().Threshold != 0.7 {
		t.Errorf("expected default threshold 0.7, got %v", DefaultPolicy().Threshold)
	}
}

func TestPolicy_Decide(t *testing.T) {
	p := DefaultPolicy()

	t.Run("identified", func(t *testing.T) {
		d := p.Decide([]CandidateMatch{
			{PersonID: "A", Score: 0.9},
			{PersonID: "B", Score: 0.85},
			{PersonID: "A", Score: 0.8},
		})
		if !d.Identified {
			t.Fatal("expected A to be identified")
		}
		if d.Vote.PersonID != "A" {
			t.Errorf("expected winner A, got %q", d.Vote.PersonID)
		}
		if math.Abs(d.Vote.Confidence-0.85) > epsilon {
			t.Errorf("expected confidence 0.85, got %v", d.Vote.Confidence)
		}
		if d.Threshold != 0.7 {
			t.Errorf("expected threshold 0.7 in decision, got %v", d.Threshold)
		}
	})

	t.Run("winner below threshold", func(t *testing.T) {
		d := p.Decide([]CandidateMatch{{PersonID: "A", Score: 0.6}})
		if d.Identified {
			t.Error("expected unidentified")
		}
		if d.Vote.PersonID != "A" {
			t.Errorf("expected vote winner A to be reported, got %q", d.Vote.PersonID)
		}
	})

	t.Run("empty", func(t *testing.T) {
		d := p.Decide(nil)
		if d.Identified || d.Vote.HasWinner() {
			t.Errorf("expected no winner, got %+v", d)
		}
	})
}
