package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/kozaktomas/facebank/internal/config"
	"github.com/kozaktomas/facebank/internal/constants"
	"github.com/kozaktomas/facebank/internal/database"
	"github.com/kozaktomas/facebank/internal/identity"
	"github.com/kozaktomas/facebank/internal/web"
	"github.com/kozaktomas/facebank/internal/web/handlers"
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the identification API server",
	Long: `Start the Facebank HTTP API.
The server identifies faces in uploaded images, evaluates candidate lists
and exposes the person directory.`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().Int("port", constants.DefaultPort, "Port to listen on")
	serveCmd.Flags().String("host", "0.0.0.0", "Host to bind to")
	addPolicyFlags(serveCmd)
}

// resolveServeHostPort resolves port and host from flags and environment variables.
func resolveServeHostPort(cmd *cobra.Command) (int, string) {
	port := mustGetInt(cmd, "port")
	host := mustGetString(cmd, "host")

	if envPort := os.Getenv("WEB_PORT"); envPort != "" && !cmd.Flags().Changed("port") {
		fmt.Sscanf(envPort, "%d", &port)
	}
	if envHost := os.Getenv("WEB_HOST"); envHost != "" && !cmd.Flags().Changed("host") {
		host = envHost
	}
	return port, host
}

// saveHNSWIndex saves the face HNSW index to disk during shutdown.
func saveHNSWIndex(ctx context.Context) {
	rebuilder := database.GetFaceHNSWRebuilder()
	if rebuilder == nil || !rebuilder.IsHNSWEnabled() {
		return
	}
	if err := rebuilder.SaveHNSWIndex(ctx); err != nil {
		fmt.Printf("Warning: failed to save face HNSW index: %v\n", err)
	} else {
		fmt.Println("Face HNSW index saved to disk")
	}
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg := config.Load()
	applyPolicyFlags(cmd, cfg)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	b, err := openBackends(ctx, cfg, true)
	if err != nil {
		return err
	}
	defer b.Close()

	// A missing recognizer or retriever degrades only the identify endpoint.
	var identifier handlers.Identifier
	p, closeRecognizer, err := newPipeline(ctx, cfg)
	if err != nil {
		fmt.Printf("Warning: identification disabled: %v\n", err)
	} else {
		defer closeRecognizer()
		identifier = p
	}

	port, host := resolveServeHostPort(cmd)
	server := web.NewServer(cfg, identity.Policy{Threshold: cfg.Identify.Threshold}, identifier, port, host)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		<-sigChan
		fmt.Println("\nShutting down...")

		shutdownCtx, shutdownCancel := context.WithTimeout(ctx, 30*time.Second)
		defer shutdownCancel()

		saveHNSWIndex(shutdownCtx)
		if err := server.Shutdown(shutdownCtx); err != nil {
			fmt.Printf("Error during shutdown: %v\n", err)
		}
	}()

	fmt.Printf("Starting Facebank API on http://%s:%d\n", host, port)
	fmt.Printf("Acceptance threshold: %.2f (retrieval: %s, embedding: %s)\n",
		cfg.Identify.Threshold, cfg.Identify.RetrievalBackend, cfg.Embedding.Backend)
	fmt.Println("Press Ctrl+C to stop")

	if err := server.Start(); err != nil {
		return fmt.Errorf("starting server: %w", err)
	}
	return nil
}
