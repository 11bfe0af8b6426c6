package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/kozaktomas/facebank/internal/config"
	"github.com/kozaktomas/facebank/internal/identity"
)

func TestConfigHandler_Get(t *testing.T) {
	_, _, rebuilder := registerMockBackends(t)
	rebuilder.Enabled = true

	cfg := &config.Config{
		Identify:  config.IdentifyConfig{TopK: 20, Concurrency: 4, RetrievalBackend: config.BackendFaceBank},
		Embedding: config.EmbeddingConfig{Backend: config.EmbeddingHTTP, Dim: 512},
		Directory: config.DirectoryConfig{MariaDBDSN: "user:pass@tcp(db)/dir"},
	}
	handler := NewConfigHandler(cfg, identity.Policy{Threshold: 0.65})

	recorder := httptest.NewRecorder()
	handler.Get(recorder, httptest.NewRequest(http.MethodGet, "/api/v1/config", nil))

	if recorder.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", recorder.Code)
	}
	var resp ConfigResponse
	if err := json.Unmarshal(recorder.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to unmarshal response: %v", err)
	}

	if resp.Threshold != 0.65 {
		t.Errorf("threshold = %v, want 0.65", resp.Threshold)
	}
	if resp.TopK != 20 || resp.Concurrency != 4 {
		t.Errorf("top_k/concurrency = %d/%d", resp.TopK, resp.Concurrency)
	}
	if resp.Directory != "mariadb" {
		t.Errorf("directory = %q, want mariadb", resp.Directory)
	}
	if !resp.HNSWEnabled {
		t.Error("expected hnsw_enabled")
	}
}

func TestConfigHandler_DefaultDirectory(t *testing.T) {
	unregisterBackends()
	handler := NewConfigHandler(&config.Config{}, identity.DefaultPolicy())

	recorder := httptest.NewRecorder()
	handler.Get(recorder, httptest.NewRequest(http.MethodGet, "/api/v1/config", nil))

	var resp ConfigResponse
	if err := json.Unmarshal(recorder.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to unmarshal response: %v", err)
	}
	if resp.Directory != "postgres" || resp.HNSWEnabled {
		t.Errorf("unexpected response %+v", resp)
	}
}
