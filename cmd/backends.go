package cmd

import (
	"context"
	"errors"
	"fmt"

	"github.com/kozaktomas/facebank/internal/config"
	"github.com/kozaktomas/facebank/internal/database"
	"github.com/kozaktomas/facebank/internal/database/mariadb"
	"github.com/kozaktomas/facebank/internal/database/postgres"
	"github.com/kozaktomas/facebank/internal/identity"
	"github.com/kozaktomas/facebank/internal/pipeline"
	"github.com/kozaktomas/facebank/internal/retrieval"
)

// backends holds the storage connections opened for one command.
type backends struct {
	pool     *postgres.Pool
	maria    *mariadb.Pool
	faceRepo *postgres.FaceRepository
}

// Close releases every open connection.
func (b *backends) Close() {
	if b.pool != nil {
		if err := b.pool.Close(); err != nil {
			fmt.Printf("Warning: %v\n", err)
		}
	}
	if b.maria != nil {
		if err := b.maria.Close(); err != nil {
			fmt.Printf("Warning: %v\n", err)
		}
	}
}

// initFaceHNSW builds or loads the face HNSW index for fast similarity search.
func initFaceHNSW(ctx context.Context, faceRepo *postgres.FaceRepository, indexPath string) {
	if indexPath != "" {
		fmt.Printf("Loading face HNSW index from %s...\n", indexPath)
	} else {
		fmt.Printf("Building in-memory HNSW index for face matching...\n")
	}
	if err := faceRepo.EnableHNSW(ctx, indexPath); err != nil {
		fmt.Printf("Warning: Failed to build face HNSW index: %v\n", err)
		fmt.Printf("Face matching will use PostgreSQL queries (slower)\n")
	} else if indexPath != "" {
		fmt.Printf("Face HNSW index ready with %d faces (persisted to %s)\n", faceRepo.HNSWCount(), indexPath)
	} else {
		fmt.Printf("Face HNSW index built with %d faces (in-memory only)\n", faceRepo.HNSWCount())
	}
}

// openBackends connects the face bank and the person directory and registers them.
// PostgreSQL is optional only when both retrieval (Pinecone) and the directory
// (MariaDB) live elsewhere.
func openBackends(ctx context.Context, cfg *config.Config, withHNSW bool) (*backends, error) {
	b := &backends{}
	needPostgres := cfg.Identify.RetrievalBackend != config.BackendPinecone || cfg.Directory.MariaDBDSN == ""

	if cfg.Database.URL == "" {
		if needPostgres {
			return nil, errors.New("DATABASE_URL environment variable is required")
		}
	} else {
		fmt.Printf("Connecting to PostgreSQL database...\n")
		pool, err := postgres.Open(ctx, &cfg.Database)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize PostgreSQL: %w", err)
		}
		b.pool = pool
		b.faceRepo = postgres.NewFaceRepository(pool)
		if withHNSW && cfg.Identify.RetrievalBackend == config.BackendFaceBank {
			initFaceHNSW(ctx, b.faceRepo, cfg.Database.HNSWIndexPath)
		}

		personRepo := postgres.NewPersonRepository(pool)
		database.RegisterFaceReader(func() database.FaceReader { return b.faceRepo })
		database.RegisterPersonReader(func() database.PersonReader { return personRepo })
		database.RegisterFaceHNSWRebuilder(b.faceRepo)
		fmt.Printf("Using PostgreSQL backend\n")
	}

	if cfg.Directory.MariaDBDSN != "" {
		fmt.Printf("Connecting to MariaDB person directory...\n")
		maria, err := mariadb.NewPool(cfg.Directory.MariaDBDSN)
		if err != nil {
			b.Close()
			return nil, fmt.Errorf("failed to initialize MariaDB: %w", err)
		}
		b.maria = maria
		personRepo := mariadb.NewPersonRepository(maria)
		database.RegisterPersonReader(func() database.PersonReader { return personRepo })
		fmt.Printf("Person directory served from MariaDB\n")
	}

	return b, nil
}

// newRetriever selects the similarity-retrieval backend.
func newRetriever(ctx context.Context, cfg *config.Config) (retrieval.Retriever, error) {
	switch cfg.Identify.RetrievalBackend {
	case config.BackendFaceBank:
		faces, err := database.GetFaceReader(ctx)
		if err != nil {
			return nil, err
		}
		return retrieval.NewFaceBank(faces), nil
	case config.BackendPinecone:
		return retrieval.NewPinecone(cfg.Pinecone)
	default:
		return nil, fmt.Errorf("unknown retrieval backend %q", cfg.Identify.RetrievalBackend)
	}
}

// newPipeline assembles the identification pipeline from the registered backends.
// The returned func releases the recognizer.
func newPipeline(ctx context.Context, cfg *config.Config) (*pipeline.Pipeline, func(), error) {
	if cfg.Identify.TopK > retrieval.MaxK {
		return nil, nil, fmt.Errorf("IDENTIFY_TOP_K %d exceeds the maximum of %d", cfg.Identify.TopK, retrieval.MaxK)
	}
	retriever, err := newRetriever(ctx, cfg)
	if err != nil {
		return nil, nil, err
	}
	directory, err := database.GetPersonReader(ctx)
	if err != nil {
		return nil, nil, err
	}
	detector, embedder, closeRecognizer, err := newRecognizer(cfg)
	if err != nil {
		return nil, nil, err
	}

	p := pipeline.New(detector, embedder, retriever, directory, pipeline.Options{
		TopK:        cfg.Identify.TopK,
		Concurrency: cfg.Identify.Concurrency,
		Policy:      identity.Policy{Threshold: cfg.Identify.Threshold},
	})
	return p, closeRecognizer, nil
}
