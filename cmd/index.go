package cmd

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/kozaktomas/facebank/internal/config"
	"github.com/spf13/cobra"
)

var indexCmd = &cobra.Command{
	Use:   "index",
	Short: "Manage the face HNSW index",
}

var indexBuildCmd = &cobra.Command{
	Use:   "build",
	Short: "Rebuild the face HNSW index from PostgreSQL and save it to disk",
	Long: `Rebuild the in-memory face index from every enrolled face and persist it
to HNSW_INDEX_PATH (or --path), so the server can load it at startup.`,
	RunE: runIndexBuild,
}

var indexInfoCmd = &cobra.Command{
	Use:   "info",
	Short: "Show face bank counts and schema migrations",
	RunE:  runIndexInfo,
}

func init() {
	rootCmd.AddCommand(indexCmd)
	indexCmd.AddCommand(indexBuildCmd)
	indexCmd.AddCommand(indexInfoCmd)

	indexBuildCmd.Flags().String("path", "", "Where to save the index (default HNSW_INDEX_PATH)")
}

func runIndexBuild(cmd *cobra.Command, args []string) error {
	cfg := config.Load()
	path := mustGetString(cmd, "path")
	if path == "" {
		path = cfg.Database.HNSWIndexPath
	}
	if path == "" {
		return errors.New("no index path: set HNSW_INDEX_PATH or --path")
	}

	ctx := context.Background()
	cfg.Identify.RetrievalBackend = config.BackendFaceBank
	b, err := openBackends(ctx, cfg, false)
	if err != nil {
		return err
	}
	defer b.Close()

	start := time.Now()
	fmt.Println("Building face HNSW index...")
	if err := b.faceRepo.RebuildHNSW(ctx); err != nil {
		return fmt.Errorf("failed to build index: %w", err)
	}
	b.faceRepo.SetHNSWIndexPath(path)
	if err := b.faceRepo.SaveHNSWIndex(ctx); err != nil {
		return fmt.Errorf("failed to save index: %w", err)
	}

	fmt.Printf("Indexed %d faces in %s, saved to %s\n",
		b.faceRepo.HNSWCount(), time.Since(start).Round(time.Millisecond), path)
	return nil
}

func runIndexInfo(cmd *cobra.Command, args []string) error {
	cfg := config.Load()
	ctx := context.Background()
	cfg.Identify.RetrievalBackend = config.BackendFaceBank
	b, err := openBackends(ctx, cfg, false)
	if err != nil {
		return err
	}
	defer b.Close()

	faces, err := b.faceRepo.Count(ctx)
	if err != nil {
		return fmt.Errorf("failed to count faces: %w", err)
	}
	persons, err := b.faceRepo.CountPersons(ctx)
	if err != nil {
		return fmt.Errorf("failed to count persons: %w", err)
	}
	fmt.Printf("Faces in bank:      %d\n", faces)
	fmt.Printf("Persons with faces: %d\n", persons)

	migrations, err := b.pool.MigrationStatus(ctx)
	if err != nil {
		return fmt.Errorf("failed to read migrations: %w", err)
	}
	fmt.Println("Migrations:")
	for _, m := range migrations {
		if m.Applied() {
			fmt.Printf("  %s applied %s\n", m.Version, m.AppliedAt.Format(time.RFC3339))
		} else {
			fmt.Printf("  %s pending\n", m.Version)
		}
	}
	return nil
}
