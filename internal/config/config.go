package config

import (
	_ "embed"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

//go:embed defaults.yaml
var defaultsYAML []byte

// Retrieval backends.
const (
	BackendFaceBank = "facebank"
	BackendPinecone = "pinecone"
)

// Detection/embedding backends.
const (
	EmbeddingHTTP = "http"
	EmbeddingDlib = "dlib"
)

type Config struct {
	Identify  IdentifyConfig  `yaml:"identify"`
	Embedding EmbeddingConfig `yaml:"embedding"`
	Database  DatabaseConfig  `yaml:"-"`
	Directory DirectoryConfig `yaml:"-"`
	Pinecone  PineconeConfig  `yaml:"-"`
}

// IdentifyConfig is the identification policy. Threshold is on the same scale as the
// similarity scores returned by the retrieval backend (cosine similarity).
type IdentifyConfig struct {
	Threshold        float64 `yaml:"threshold"`
	TopK             int     `yaml:"top_k"`
	Concurrency      int     `yaml:"concurrency"`
	RetrievalBackend string  `yaml:"retrieval_backend"`
}

type EmbeddingConfig struct {
	Backend    string `yaml:"backend"`
	URL        string `yaml:"url"`
	Dim        int    `yaml:"dim"`
	TimeoutSec int    `yaml:"timeout_sec"`
	// DlibModelsDir holds the dlib model files when Backend is dlib
	DlibModelsDir string `yaml:"dlib_models_dir"`
}

// Timeout returns the per-request budget for the detection/embedding server.
func (c *EmbeddingConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSec) * time.Second
}

type DatabaseConfig struct {
	URL           string // PostgreSQL connection URL
	MaxOpenConns  int    // Maximum open connections (default 25)
	MaxIdleConns  int    // Maximum idle connections (default 5)
	HNSWIndexPath string // Path to persist face HNSW index (optional, if empty index is rebuilt on startup)
}

// DirectoryConfig selects where person records are looked up.
// An empty MariaDBDSN means the PostgreSQL persons table is used.
type DirectoryConfig struct {
	MariaDBDSN string
}

type PineconeConfig struct {
	APIKey    string
	Host      string
	Namespace string
}

// envInt reads an environment variable and parses it as a positive integer.
// Returns the default value if the env var is unset, empty, or invalid.
func envInt(key string, defaultVal int) int {
	s := os.Getenv(key)
	if s == "" {
		return defaultVal
	}
	if n, err := strconv.Atoi(s); err == nil && n > 0 {
		return n
	}
	return defaultVal
}

// envFloat reads an environment variable and parses it as a float.
// Returns the default value if the env var is unset, empty, or invalid.
func envFloat(key string, defaultVal float64) float64 {
	s := os.Getenv(key)
	if s == "" {
		return defaultVal
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return f
	}
	return defaultVal
}

func envString(key, defaultVal string) string {
	if s := os.Getenv(key); s != "" {
		return s
	}
	return defaultVal
}

// defaults returns the embedded policy defaults.
func defaults() Config {
	var cfg Config
	if err := yaml.Unmarshal(defaultsYAML, &cfg); err != nil {
		// This is an embedded file so this error should never happen in practice
		panic("failed to unmarshal embedded defaults.yaml: " + err.Error())
	}
	return cfg
}

func Load() *Config {
	d := defaults()

	return &Config{
		Identify: IdentifyConfig{
			Threshold:        envFloat("IDENTIFY_THRESHOLD", d.Identify.Threshold),
			TopK:             envInt("IDENTIFY_TOP_K", d.Identify.TopK),
			Concurrency:      envInt("IDENTIFY_CONCURRENCY", d.Identify.Concurrency),
			RetrievalBackend: envString("RETRIEVAL_BACKEND", d.Identify.RetrievalBackend),
		},
		Embedding: EmbeddingConfig{
			Backend:       envString("EMBEDDING_BACKEND", d.Embedding.Backend),
			URL:           envString("EMBEDDING_URL", d.Embedding.URL),
			Dim:           envInt("EMBEDDING_DIM", d.Embedding.Dim),
			TimeoutSec:    envInt("EMBEDDING_TIMEOUT_SEC", d.Embedding.TimeoutSec),
			DlibModelsDir: envString("DLIB_MODELS_DIR", d.Embedding.DlibModelsDir),
		},
		Database: DatabaseConfig{
			URL:           os.Getenv("DATABASE_URL"),
			MaxOpenConns:  envInt("DATABASE_MAX_OPEN_CONNS", 25),
			MaxIdleConns:  envInt("DATABASE_MAX_IDLE_CONNS", 5),
			HNSWIndexPath: os.Getenv("HNSW_INDEX_PATH"),
		},
		Directory: DirectoryConfig{
			MariaDBDSN: os.Getenv("DIRECTORY_MARIADB_DSN"),
		},
		Pinecone: PineconeConfig{
			APIKey:    os.Getenv("PINECONE_API_KEY"),
			Host:      os.Getenv("PINECONE_HOST"),
			Namespace: os.Getenv("PINECONE_NAMESPACE"),
		},
	}
}
