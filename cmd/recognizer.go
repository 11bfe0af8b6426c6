//go:build !dlib

package cmd

import (
	"fmt"

	"github.com/kozaktomas/facebank/internal/config"
	"github.com/kozaktomas/facebank/internal/embedding"
	"github.com/kozaktomas/facebank/internal/pipeline"
)

// newRecognizer returns the detector and embedder for the configured backend.
func newRecognizer(cfg *config.Config) (pipeline.Detector, pipeline.Embedder, func(), error) {
	switch cfg.Embedding.Backend {
	case config.EmbeddingHTTP:
		client := embedding.NewClient(cfg.Embedding.URL, cfg.Embedding.Dim, cfg.Embedding.Timeout())
		return client, client, func() {}, nil
	case config.EmbeddingDlib:
		return nil, nil, nil, fmt.Errorf("embedding backend %q requires a binary built with -tags dlib", cfg.Embedding.Backend)
	default:
		return nil, nil, nil, fmt.Errorf("unknown embedding backend %q", cfg.Embedding.Backend)
	}
}
