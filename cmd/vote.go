package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/kozaktomas/facebank/internal/config"
	"github.com/kozaktomas/facebank/internal/constants"
	"github.com/kozaktomas/facebank/internal/identity"
	"github.com/spf13/cobra"
)

var voteCmd = &cobra.Command{
	Use:   "vote [candidates.json]",
	Short: "Run the identity vote over a candidate list",
	Long: `Read a JSON array of {"person_id", "score"} candidates, most similar first,
and print the voting result with the acceptance decision.
Reads standard input when no file (or "-") is given.

Examples:
  echo '[{"person_id":"A","score":0.9},{"person_id":"B","score":0.8}]' | facebank vote
  facebank vote matches.json --threshold 0.75`,
	Args: cobra.MaximumNArgs(1),
	RunE: runVote,
}

func init() {
	rootCmd.AddCommand(voteCmd)

	voteCmd.Flags().Float64("threshold", 0, "Acceptance threshold override (0 = use IDENTIFY_THRESHOLD)")
}

// readCandidates decodes a candidate list from r.
func readCandidates(r io.Reader) ([]identity.CandidateMatch, error) {
	var candidates []identity.CandidateMatch
	if err := json.NewDecoder(io.LimitReader(r, constants.MaxVoteBodySize)).Decode(&candidates); err != nil {
		return nil, fmt.Errorf("failed to parse candidates: %w", err)
	}
	if len(candidates) > constants.MaxVoteCandidates {
		return nil, fmt.Errorf("too many candidates: %d (max %d)", len(candidates), constants.MaxVoteCandidates)
	}
	return candidates, nil
}

func runVote(cmd *cobra.Command, args []string) error {
	cfg := config.Load()
	policy := identity.Policy{Threshold: cfg.Identify.Threshold}
	if cmd.Flags().Changed("threshold") {
		policy.Threshold = mustGetFloat64(cmd, "threshold")
	}

	in := cmd.InOrStdin()
	if len(args) == 1 && args[0] != "-" {
		f, err := os.Open(args[0])
		if err != nil {
			return fmt.Errorf("failed to open candidates: %w", err)
		}
		defer f.Close()
		in = f
	}

	candidates, err := readCandidates(in)
	if err != nil {
		return err
	}

	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	if err := enc.Encode(policy.Decide(candidates)); err != nil {
		return fmt.Errorf("failed to encode decision: %w", err)
	}
	return nil
}
