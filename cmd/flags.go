package cmd

import (
	"fmt"

	"github.com/kozaktomas/facebank/internal/config"
	"github.com/spf13/cobra"
)

// mustGetBool gets a bool flag value or panics if the flag doesn't exist.
// This is appropriate for flags defined in init() - errors indicate programming bugs.
func mustGetBool(cmd *cobra.Command, name string) bool {
	val, err := cmd.Flags().GetBool(name)
	if err != nil {
		panic(fmt.Sprintf("flag error for --%s: %v", name, err))
	}
	return val
}

// mustGetInt gets an int flag value or panics if the flag doesn't exist.
func mustGetInt(cmd *cobra.Command, name string) int {
	val, err := cmd.Flags().GetInt(name)
	if err != nil {
		panic(fmt.Sprintf("flag error for --%s: %v", name, err))
	}
	return val
}

// mustGetString gets a string flag value or panics if the flag doesn't exist.
func mustGetString(cmd *cobra.Command, name string) string {
	val, err := cmd.Flags().GetString(name)
	if err != nil {
		panic(fmt.Sprintf("flag error for --%s: %v", name, err))
	}
	return val
}

// mustGetFloat64 gets a float64 flag value or panics if the flag doesn't exist.
func mustGetFloat64(cmd *cobra.Command, name string) float64 {
	val, err := cmd.Flags().GetFloat64(name)
	if err != nil {
		panic(fmt.Sprintf("flag error for --%s: %v", name, err))
	}
	return val
}

// addPolicyFlags registers the identification overrides shared by serve and identify.
func addPolicyFlags(cmd *cobra.Command) {
	cmd.Flags().Float64("threshold", 0, "Acceptance threshold override (0 = use IDENTIFY_THRESHOLD)")
	cmd.Flags().Int("top-k", 0, "Enrolled faces retrieved per detected face (0 = use IDENTIFY_TOP_K)")
	cmd.Flags().Int("concurrency", 0, "Faces processed in parallel per image (0 = use IDENTIFY_CONCURRENCY)")
}

// applyPolicyFlags copies explicitly set overrides into cfg.
func applyPolicyFlags(cmd *cobra.Command, cfg *config.Config) {
	if cmd.Flags().Changed("threshold") {
		cfg.Identify.Threshold = mustGetFloat64(cmd, "threshold")
	}
	if topK := mustGetInt(cmd, "top-k"); topK > 0 {
		cfg.Identify.TopK = topK
	}
	if concurrency := mustGetInt(cmd, "concurrency"); concurrency > 0 {
		cfg.Identify.Concurrency = concurrency
	}
}
