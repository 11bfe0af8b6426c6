package handlers

import (
	"net/http"

	"github.com/kozaktomas/facebank/internal/config"
	"github.com/kozaktomas/facebank/internal/database"
	"github.com/kozaktomas/facebank/internal/identity"
)

// ConfigHandler handles configuration endpoints
type ConfigHandler struct {
	config *config.Config
	policy identity.Policy
}

// NewConfigHandler creates a new config handler
func NewConfigHandler(cfg *config.Config, policy identity.Policy) *ConfigHandler {
	return &ConfigHandler{
		config: cfg,
		policy: policy,
	}
}

// ConfigResponse represents the configuration response
type ConfigResponse struct {
	Threshold        float64 `json:"threshold"`
	TopK             int     `json:"top_k"`
	Concurrency      int     `json:"concurrency"`
	RetrievalBackend string  `json:"retrieval_backend"`
	EmbeddingBackend string  `json:"embedding_backend"`
	EmbeddingDim     int     `json:"embedding_dim"`
	Directory        string  `json:"directory"`
	HNSWEnabled      bool    `json:"hnsw_enabled"`
}

// Get returns the effective identification configuration
func (h *ConfigHandler) Get(w http.ResponseWriter, r *http.Request) {
	directory := "postgres"
	if h.config.Directory.MariaDBDSN != "" {
		directory = "mariadb"
	}

	hnswEnabled := false
	if rebuilder := database.GetFaceHNSWRebuilder(); rebuilder != nil {
		hnswEnabled = rebuilder.IsHNSWEnabled()
	}

	respondJSON(w, http.StatusOK, ConfigResponse{
		Threshold:        h.policy.Threshold,
		TopK:             h.config.Identify.TopK,
		Concurrency:      h.config.Identify.Concurrency,
		RetrievalBackend: h.config.Identify.RetrievalBackend,
		EmbeddingBackend: h.config.Embedding.Backend,
		EmbeddingDim:     h.config.Embedding.Dim,
		Directory:        directory,
		HNSWEnabled:      hnswEnabled,
	})
}
