package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"sync"

	"github.com/kozaktomas/facebank/internal/database"
	"github.com/pgvector/pgvector-go"
)

const faceColumns = "id, person_id, embedding, model, dim, created_at"

// FaceRepository provides PostgreSQL-backed face bank reads with an optional in-memory HNSW index.
type FaceRepository struct {
	pool          *Pool
	hnswIndex     *database.HNSWIndex
	hnswEnabled   bool
	hnswIndexPath string // Path to persist HNSW index (optional)
	hnswMu        sync.RWMutex
}

// NewFaceRepository creates a new PostgreSQL face repository.
func NewFaceRepository(pool *Pool) *FaceRepository {
	return &FaceRepository{pool: pool}
}

// GetFacesByPerson retrieves all enrolled faces of a person.
func (r *FaceRepository) GetFacesByPerson(ctx context.Context, personID string) ([]database.StoredFace, error) {
	rows, err := r.pool.Query(ctx, "SELECT "+faceColumns+" FROM faces WHERE person_id = $1 ORDER BY id", personID)
	if err != nil {
		return nil, fmt.Errorf("query faces by person: %w", err)
	}
	defer rows.Close()

	faces, _, err := scanFaces(rows, false)
	return faces, err
}

// Count returns the total number of enrolled faces.
func (r *FaceRepository) Count(ctx context.Context) (int, error) {
	var count int
	if err := r.pool.QueryRow(ctx, "SELECT COUNT(*) FROM faces").Scan(&count); err != nil {
		return 0, fmt.Errorf("count faces: %w", err)
	}
	return count, nil
}

// CountPersons returns the number of distinct persons with at least one face.
func (r *FaceRepository) CountPersons(ctx context.Context) (int, error) {
	var count int
	if err := r.pool.QueryRow(ctx, "SELECT COUNT(DISTINCT person_id) FROM faces").Scan(&count); err != nil {
		return 0, fmt.Errorf("count persons: %w", err)
	}
	return count, nil
}

// FindSimilarWithDistance finds the nearest enrolled faces by cosine distance.
// Uses the in-memory HNSW index if enabled, otherwise falls back to PostgreSQL.
func (r *FaceRepository) FindSimilarWithDistance(
	ctx context.Context, embedding []float32, limit int,
) ([]database.StoredFace, []float64, error) {
	r.hnswMu.RLock()
	index := r.hnswIndex
	enabled := r.hnswEnabled && index != nil
	r.hnswMu.RUnlock()

	if enabled {
		faces, distances, err := index.Search(embedding, limit)
		if err != nil {
			return nil, nil, fmt.Errorf("HNSW search: %w", err)
		}
		return faces, distances, nil
	}
	return r.findSimilarPostgres(ctx, embedding, limit)
}

// findSimilarPostgres uses the pgvector HNSW index with ef_search matching the in-memory index.
func (r *FaceRepository) findSimilarPostgres(
	ctx context.Context, embedding []float32, limit int,
) ([]database.StoredFace, []float64, error) {
	tx, err := r.pool.BeginTx(ctx, &sql.TxOptions{ReadOnly: true})
	if err != nil {
		return nil, nil, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, fmt.Sprintf("SET LOCAL hnsw.ef_search = %d", database.HNSWEfSearch)); err != nil {
		return nil, nil, fmt.Errorf("set ef_search: %w", err)
	}

	query := `
		SELECT ` + faceColumns + `, embedding <=> $1::vector AS distance
		FROM faces
		ORDER BY distance
		LIMIT $2
	`
	rows, err := tx.QueryContext(ctx, query, pgvector.NewVector(embedding), limit)
	if err != nil {
		return nil, nil, fmt.Errorf("query similar faces: %w", err)
	}
	defer rows.Close()

	return scanFaces(rows, true)
}

// scanFaces reads face rows, with a trailing distance column when withDistance is set.
func scanFaces(rows *sql.Rows, withDistance bool) ([]database.StoredFace, []float64, error) {
	var faces []database.StoredFace
	var distances []float64

	for rows.Next() {
		var face database.StoredFace
		var vec pgvector.Vector
		dest := []any{&face.ID, &face.PersonID, &vec, &face.Model, &face.Dim, &face.CreatedAt}
		var distance float64
		if withDistance {
			dest = append(dest, &distance)
		}
		if err := rows.Scan(dest...); err != nil {
			return nil, nil, fmt.Errorf("scan face: %w", err)
		}
		face.Embedding = vec.Slice()
		faces = append(faces, face)
		if withDistance {
			distances = append(distances, distance)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, nil, fmt.Errorf("iterate faces: %w", err)
	}
	return faces, distances, nil
}

// GetAllFaces returns every enrolled face, used to build the HNSW index.
func (r *FaceRepository) GetAllFaces(ctx context.Context) ([]database.StoredFace, error) {
	rows, err := r.pool.Query(ctx, "SELECT "+faceColumns+" FROM faces ORDER BY id")
	if err != nil {
		return nil, fmt.Errorf("query all faces: %w", err)
	}
	defer rows.Close()

	faces, _, err := scanFaces(rows, false)
	return faces, err
}

// faceStats returns the face count and highest face ID, used to detect stale cached indexes.
func (r *FaceRepository) faceStats(ctx context.Context) (int64, int64, error) {
	var count, maxID int64
	err := r.pool.QueryRow(ctx, "SELECT COUNT(*), COALESCE(MAX(id), 0) FROM faces").Scan(&count, &maxID)
	if err != nil {
		return 0, 0, fmt.Errorf("failed to get face stats: %w", err)
	}
	return count, maxID, nil
}

// tryLoadFaceIndex loads a cached index from disk if its metadata matches the face table.
func tryLoadFaceIndex(indexPath string, faceCount, maxFaceID int64) *database.HNSWIndex {
	metadata, err := database.LoadHNSWMetadata(indexPath)
	if err != nil {
		log.Printf("Face index: no usable metadata (%v), rebuilding", err)
		return nil
	}
	if !metadata.IsFresh(faceCount, maxFaceID) {
		log.Printf("Face index: stale (cached %d faces / max id %d, database %d / %d), rebuilding",
			metadata.FaceCount, metadata.MaxFaceID, faceCount, maxFaceID)
		return nil
	}

	index := database.NewHNSWIndex()
	if err := index.Load(indexPath); err != nil {
		log.Printf("Face index: load failed: %v (will rebuild)", err)
		return nil
	}
	if index.IsEmpty() {
		return nil
	}
	return index
}

// EnableHNSW loads or builds an in-memory HNSW index for O(log N) similarity search.
// If indexPath is provided, it will try to load from disk first and save after building.
func (r *FaceRepository) EnableHNSW(ctx context.Context, indexPath string) error {
	faceCount, maxFaceID, err := r.faceStats(ctx)
	if err != nil {
		return err
	}

	var index *database.HNSWIndex
	if indexPath != "" {
		index = tryLoadFaceIndex(indexPath, faceCount, maxFaceID)
	}

	if index == nil {
		faces, err := r.GetAllFaces(ctx)
		if err != nil {
			return fmt.Errorf("failed to load faces: %w", err)
		}
		index = database.NewHNSWIndex()
		index.BuildFromFaces(faces)

		if indexPath != "" && len(faces) > 0 {
			metadata := database.HNSWIndexMetadata{FaceCount: faceCount, MaxFaceID: maxFaceID}
			if err := index.Save(indexPath, metadata); err != nil {
				log.Printf("Warning: failed to save HNSW index to disk: %v", err)
			}
		}
	}

	r.hnswMu.Lock()
	defer r.hnswMu.Unlock()
	r.hnswIndexPath = indexPath
	r.hnswIndex = index
	r.hnswEnabled = true
	return nil
}

// DisableHNSW disables the in-memory HNSW index, falling back to PostgreSQL queries.
func (r *FaceRepository) DisableHNSW() {
	r.hnswMu.Lock()
	defer r.hnswMu.Unlock()
	r.hnswEnabled = false
	r.hnswIndex = nil
}

// IsHNSWEnabled returns whether the in-memory HNSW index is enabled.
func (r *FaceRepository) IsHNSWEnabled() bool {
	r.hnswMu.RLock()
	defer r.hnswMu.RUnlock()
	return r.hnswEnabled && r.hnswIndex != nil
}

// HNSWCount returns the number of faces in the HNSW index.
func (r *FaceRepository) HNSWCount() int {
	r.hnswMu.RLock()
	defer r.hnswMu.RUnlock()
	if r.hnswIndex == nil {
		return 0
	}
	return r.hnswIndex.Count()
}

// RebuildHNSW rebuilds the HNSW index from PostgreSQL data, ignoring any cached copy.
func (r *FaceRepository) RebuildHNSW(ctx context.Context) error {
	faces, err := r.GetAllFaces(ctx)
	if err != nil {
		return fmt.Errorf("failed to load faces: %w", err)
	}
	index := database.NewHNSWIndex()
	index.BuildFromFaces(faces)

	r.hnswMu.Lock()
	r.hnswIndex = index
	r.hnswEnabled = true
	r.hnswMu.Unlock()
	return nil
}

// SaveHNSWIndex saves the current HNSW index to disk (if path configured).
func (r *FaceRepository) SaveHNSWIndex(ctx context.Context) error {
	r.hnswMu.RLock()
	path, index := r.hnswIndexPath, r.hnswIndex
	r.hnswMu.RUnlock()

	if path == "" || index == nil {
		return nil
	}
	if index.IsEmpty() {
		return errors.New("face index is empty")
	}

	faceCount, maxFaceID, err := r.faceStats(ctx)
	if err != nil {
		return err
	}
	metadata := database.HNSWIndexMetadata{FaceCount: faceCount, MaxFaceID: maxFaceID}
	if err := index.Save(path, metadata); err != nil {
		return fmt.Errorf("saving HNSW face index: %w", err)
	}
	return nil
}

// SetHNSWIndexPath sets where SaveHNSWIndex writes the index.
func (r *FaceRepository) SetHNSWIndexPath(path string) {
	r.hnswMu.Lock()
	defer r.hnswMu.Unlock()
	r.hnswIndexPath = path
}
