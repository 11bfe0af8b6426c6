package cmd

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/kozaktomas/facebank/internal/config"
	"github.com/kozaktomas/facebank/internal/identity"
	"github.com/kozaktomas/facebank/internal/retrieval"
	"github.com/spf13/cobra"
)

func TestReadCandidates(t *testing.T) {
	candidates, err := readCandidates(strings.NewReader(`[{"person_id":"A","score":0.9},{"person_id":"B","score":0.8}]`))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(candidates) != 2 || candidates[0].PersonID != "A" || candidates[1].Score != 0.8 {
		t.Errorf("unexpected candidates: %+v", candidates)
	}

	if _, err := readCandidates(strings.NewReader(`{"person_id":"A"}`)); err == nil {
		t.Error("expected error for non-array input")
	}
}

func TestRunVote_Stdin(t *testing.T) {
	t.Setenv("IDENTIFY_THRESHOLD", "")

	cmd := &cobra.Command{}
	cmd.Flags().Float64("threshold", 0, "")
	var out bytes.Buffer
	cmd.SetIn(strings.NewReader(`[{"person_id":"C","score":0.95}]`))
	cmd.SetOut(&out)

	if err := runVote(cmd, nil); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var decision identity.Decision
	if err := json.Unmarshal(out.Bytes(), &decision); err != nil {
		t.Fatalf("failed to decode output: %v", err)
	}
	if !decision.Identified || decision.Vote.PersonID != "C" {
		t.Errorf("expected C identified, got %+v", decision)
	}
	if decision.Threshold != identity.DefaultThreshold {
		t.Errorf("expected default threshold, got %v", decision.Threshold)
	}
}

func TestRunVote_ThresholdFlag(t *testing.T) {
	cmd := &cobra.Command{}
	cmd.Flags().Float64("threshold", 0, "")
	if err := cmd.Flags().Set("threshold", "0.95"); err != nil {
		t.Fatal(err)
	}
	var out bytes.Buffer
	cmd.SetIn(strings.NewReader(`[{"person_id":"C","score":0.95}]`))
	cmd.SetOut(&out)

	if err := runVote(cmd, []string{"-"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var decision identity.Decision
	if err := json.Unmarshal(out.Bytes(), &decision); err != nil {
		t.Fatalf("failed to decode output: %v", err)
	}
	// Confidence equal to the threshold is rejected.
	if decision.Identified {
		t.Errorf("expected rejection at threshold, got %+v", decision)
	}
}

func TestApplyPolicyFlags(t *testing.T) {
	cmd := &cobra.Command{}
	addPolicyFlags(cmd)
	cfg := &config.Config{Identify: config.IdentifyConfig{Threshold: 0.7, TopK: 20, Concurrency: 4}}

	applyPolicyFlags(cmd, cfg)
	if cfg.Identify.Threshold != 0.7 || cfg.Identify.TopK != 20 || cfg.Identify.Concurrency != 4 {
		t.Errorf("unset flags must not change config: %+v", cfg.Identify)
	}

	_ = cmd.Flags().Set("threshold", "0")
	_ = cmd.Flags().Set("top-k", "5")
	applyPolicyFlags(cmd, cfg)
	if cfg.Identify.Threshold != 0 {
		t.Errorf("expected explicit zero threshold, got %v", cfg.Identify.Threshold)
	}
	if cfg.Identify.TopK != 5 || cfg.Identify.Concurrency != 4 {
		t.Errorf("unexpected config: %+v", cfg.Identify)
	}
}

func TestNewPipeline_RejectsTopKAboveMax(t *testing.T) {
	cfg := &config.Config{Identify: config.IdentifyConfig{TopK: retrieval.MaxK + 1}}
	if _, _, err := newPipeline(context.Background(), cfg); err == nil {
		t.Fatal("expected error for top-k above the retrieval maximum")
	}
}
