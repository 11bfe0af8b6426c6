package config

import (
	"testing"
	"time"
)

func TestLoad_DefaultIdentifyPolicy(t *testing.T) {
	t.Setenv("IDENTIFY_THRESHOLD", "")
	t.Setenv("IDENTIFY_TOP_K", "")
	t.Setenv("IDENTIFY_CONCURRENCY", "")
	t.Setenv("RETRIEVAL_BACKEND", "")

	cfg := Load()

	if cfg.Identify.Threshold != 0.7 {
		t.Errorf("expected default threshold 0.7, got %v", cfg.Identify.Threshold)
	}
	if cfg.Identify.TopK != 20 {
		t.Errorf("expected default top_k 20, got %d", cfg.Identify.TopK)
	}
	if cfg.Identify.Concurrency != 4 {
		t.Errorf("expected default concurrency 4, got %d", cfg.Identify.Concurrency)
	}
	if cfg.Identify.RetrievalBackend != BackendFaceBank {
		t.Errorf("expected default backend %q, got %q", BackendFaceBank, cfg.Identify.RetrievalBackend)
	}
}

func TestLoad_CustomThreshold(t *testing.T) {
	t.Setenv("IDENTIFY_THRESHOLD", "0.55")

	cfg := Load()

	if cfg.Identify.Threshold != 0.55 {
		t.Errorf("expected threshold 0.55, got %v", cfg.Identify.Threshold)
	}
}

func TestLoad_InvalidThreshold(t *testing.T) {
	t.Setenv("IDENTIFY_THRESHOLD", "high")

	cfg := Load()

	// Should fall back to default
	if cfg.Identify.Threshold != 0.7 {
		t.Errorf("expected default threshold 0.7 for invalid input, got %v", cfg.Identify.Threshold)
	}
}

func TestLoad_NegativeThresholdAllowed(t *testing.T) {
	// Distance-style metrics can produce negative similarity scales.
	t.Setenv("IDENTIFY_THRESHOLD", "-0.2")

	cfg := Load()

	if cfg.Identify.Threshold != -0.2 {
		t.Errorf("expected threshold -0.2, got %v", cfg.Identify.Threshold)
	}
}

func TestLoad_InvalidTopK(t *testing.T) {
	tests := []struct {
		name  string
		value string
	}{
		{"non-numeric", "many"},
		{"zero", "0"},
		{"negative", "-5"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("IDENTIFY_TOP_K", tt.value)

			cfg := Load()

			if cfg.Identify.TopK != 20 {
				t.Errorf("expected default top_k 20 for %q, got %d", tt.value, cfg.Identify.TopK)
			}
		})
	}
}

func TestLoad_PineconeBackend(t *testing.T) {
	t.Setenv("RETRIEVAL_BACKEND", "pinecone")
	t.Setenv("PINECONE_API_KEY", "key")
	t.Setenv("PINECONE_HOST", "faces-abc.svc.pinecone.io")
	t.Setenv("PINECONE_NAMESPACE", "prod")

	cfg := Load()

	if cfg.Identify.RetrievalBackend != BackendPinecone {
		t.Errorf("expected backend %q, got %q", BackendPinecone, cfg.Identify.RetrievalBackend)
	}
	if cfg.Pinecone.Host != "faces-abc.svc.pinecone.io" {
		t.Errorf("unexpected pinecone host %q", cfg.Pinecone.Host)
	}
	if cfg.Pinecone.Namespace != "prod" {
		t.Errorf("unexpected pinecone namespace %q", cfg.Pinecone.Namespace)
	}
}

func TestLoad_DefaultEmbedding(t *testing.T) {
	t.Setenv("EMBEDDING_URL", "")
	t.Setenv("EMBEDDING_DIM", "")
	t.Setenv("EMBEDDING_TIMEOUT_SEC", "")
	t.Setenv("EMBEDDING_BACKEND", "")

	cfg := Load()

	if cfg.Embedding.Backend != EmbeddingHTTP {
		t.Errorf("expected http embedding backend, got %q", cfg.Embedding.Backend)
	}
	if cfg.Embedding.URL != "http://localhost:8000" {
		t.Errorf("expected default embedding URL, got %q", cfg.Embedding.URL)
	}
	if cfg.Embedding.Dim != 512 {
		t.Errorf("expected default embedding dim 512, got %d", cfg.Embedding.Dim)
	}
	if cfg.Embedding.Timeout() != 30*time.Second {
		t.Errorf("expected 30s timeout, got %v", cfg.Embedding.Timeout())
	}
}

func TestLoad_DlibBackend(t *testing.T) {
	t.Setenv("EMBEDDING_BACKEND", "dlib")
	t.Setenv("DLIB_MODELS_DIR", "/opt/dlib")

	cfg := Load()

	if cfg.Embedding.Backend != EmbeddingDlib {
		t.Errorf("expected dlib backend, got %q", cfg.Embedding.Backend)
	}
	if cfg.Embedding.DlibModelsDir != "/opt/dlib" {
		t.Errorf("unexpected models dir %q", cfg.Embedding.DlibModelsDir)
	}
}

func TestLoad_DatabaseDefaults(t *testing.T) {
	t.Setenv("DATABASE_MAX_OPEN_CONNS", "")
	t.Setenv("DATABASE_MAX_IDLE_CONNS", "abc")

	cfg := Load()

	if cfg.Database.MaxOpenConns != 25 {
		t.Errorf("expected 25 max open conns, got %d", cfg.Database.MaxOpenConns)
	}
	if cfg.Database.MaxIdleConns != 5 {
		t.Errorf("expected 5 max idle conns, got %d", cfg.Database.MaxIdleConns)
	}
}

func TestLoad_DirectoryDSN(t *testing.T) {
	t.Setenv("DIRECTORY_MARIADB_DSN", "hr:secret@tcp(mariadb:3306)/hr")

	cfg := Load()

	if cfg.Directory.MariaDBDSN != "hr:secret@tcp(mariadb:3306)/hr" {
		t.Errorf("unexpected directory DSN %q", cfg.Directory.MariaDBDSN)
	}
}
