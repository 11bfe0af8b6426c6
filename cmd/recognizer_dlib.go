//go:build dlib

package cmd

import (
	"fmt"

	"github.com/kozaktomas/facebank/internal/config"
	"github.com/kozaktomas/facebank/internal/embedding"
	"github.com/kozaktomas/facebank/internal/embedding/dlib"
	"github.com/kozaktomas/facebank/internal/pipeline"
)

// newRecognizer returns the detector and embedder for the configured backend.
func newRecognizer(cfg *config.Config) (pipeline.Detector, pipeline.Embedder, func(), error) {
	switch cfg.Embedding.Backend {
	case config.EmbeddingHTTP:
		client := embedding.NewClient(cfg.Embedding.URL, cfg.Embedding.Dim, cfg.Embedding.Timeout())
		return client, client, func() {}, nil
	case config.EmbeddingDlib:
		if cfg.Embedding.Dim != dlib.DescriptorDim {
			fmt.Printf("Warning: EMBEDDING_DIM is %d but dlib descriptors have %d dimensions\n",
				cfg.Embedding.Dim, dlib.DescriptorDim)
		}
		fmt.Printf("Loading dlib models from %s...\n", cfg.Embedding.DlibModelsDir)
		rec, err := dlib.NewRecognizer(cfg.Embedding.DlibModelsDir)
		if err != nil {
			return nil, nil, nil, err
		}
		return rec, rec, rec.Close, nil
	default:
		return nil, nil, nil, fmt.Errorf("unknown embedding backend %q", cfg.Embedding.Backend)
	}
}
