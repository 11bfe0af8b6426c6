package cmd

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "facebank",
	Short: "Identify people in photos against an enrolled face bank",
	Long: `Facebank detects faces in an image, retrieves the most similar enrolled
faces for each one and resolves the person by rank-weighted voting.
A face is identified only when the winner's mean similarity is strictly
above the acceptance threshold.`,
	SilenceUsage: true,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)
}

func initConfig() {
	// .env file is optional, don't fail if not found
	_ = godotenv.Load()
}
