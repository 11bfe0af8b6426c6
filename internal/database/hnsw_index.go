package database

import (
	"bytes"
	"encoding/gob"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sort"
	"sync"
	"time"

	"github.com/coder/hnsw"
)

// ErrIndexNotInitialized is returned when searching an index that has no graph.
var ErrIndexNotInitialized = errors.New("index not initialized")

// HNSWIndexMetadata stores metadata for validating cached HNSW indexes.
type HNSWIndexMetadata struct {
	FaceCount int64     `json:"face_count"`
	MaxFaceID int64     `json:"max_face_id"`
	BuildTime time.Time `json:"build_time"`
	Version   int       `json:"version"`
}

const hnswMetadataVersion = 2

// IsFresh reports whether the cached index was built from the given face table state.
func (m HNSWIndexMetadata) IsFresh(faceCount, maxFaceID int64) bool {
	return m.Version == hnswMetadataVersion && m.FaceCount == faceCount && m.MaxFaceID == maxFaceID
}

// HNSWIndex wraps the HNSW graph for face bank search.
type HNSWIndex struct {
	graph    *hnsw.Graph[int64]
	idToFace map[int64]*StoredFace // Maps HNSW node ID to face
	mu       sync.RWMutex
}

// NewHNSWIndex creates a new empty HNSW index.
func NewHNSWIndex() *HNSWIndex {
	return &HNSWIndex{
		idToFace: make(map[int64]*StoredFace),
	}
}

func newFaceGraph() *hnsw.Graph[int64] {
	g := hnsw.NewGraph[int64]()
	g.M = HNSWMaxNeighbors
	g.Ml = 1.0 / float64(HNSWMaxNeighbors) // Standard HNSW formula
	g.EfSearch = HNSWEfSearch
	g.Distance = hnsw.CosineDistance
	return g
}

// BuildFromFaces builds the index from a slice of faces. Faces without an embedding are skipped.
func (h *HNSWIndex) BuildFromFaces(faces []StoredFace) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.idToFace = make(map[int64]*StoredFace, len(faces))
	if len(faces) == 0 {
		h.graph = nil
		return
	}

	g := newFaceGraph()
	for i := range faces {
		face := &faces[i]
		if len(face.Embedding) == 0 {
			continue
		}
		g.Add(hnsw.MakeNode(face.ID, face.Embedding))
		h.idToFace[face.ID] = face
	}
	h.graph = g
}

// Search finds up to k faces nearest to the query embedding.
// Results are ordered by ascending cosine distance.
func (h *HNSWIndex) Search(query []float32, k int) ([]StoredFace, []float64, error) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	if h.graph == nil {
		return nil, nil, ErrIndexNotInitialized
	}

	neighbors := h.graph.Search(query, max(k, HNSWMinSearchK))

	faces := make([]StoredFace, 0, len(neighbors))
	distances := make([]float64, 0, len(neighbors))
	for _, n := range neighbors {
		face, ok := h.idToFace[n.Key]
		if !ok {
			continue // deleted
		}
		faces = append(faces, *face)
		// Recompute in float64, the graph distance is float32.
		distances = append(distances, CosineDistance(query, n.Value))
	}

	// The graph returns approximate order; callers rely on strict ranking.
	sort.Stable(byDistance{faces: faces, distances: distances})
	if len(faces) > k {
		faces, distances = faces[:k], distances[:k]
	}
	return faces, distances, nil
}

type byDistance struct {
	faces     []StoredFace
	distances []float64
}

func (b byDistance) Len() int           { return len(b.faces) }
func (b byDistance) Less(i, j int) bool { return b.distances[i] < b.distances[j] }
func (b byDistance) Swap(i, j int) {
	b.faces[i], b.faces[j] = b.faces[j], b.faces[i]
	b.distances[i], b.distances[j] = b.distances[j], b.distances[i]
}

// Add adds a single face to the index.
func (h *HNSWIndex) Add(face StoredFace) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if len(face.Embedding) == 0 {
		return
	}
	if h.graph == nil {
		h.graph = newFaceGraph()
	}
	h.graph.Add(hnsw.MakeNode(face.ID, face.Embedding))
	h.idToFace[face.ID] = &face
}

// Delete removes a face from search results.
func (h *HNSWIndex) Delete(id int64) {
	h.mu.Lock()
	defer h.mu.Unlock()
	// Graph nodes stay in place, Search skips IDs missing from idToFace.
	delete(h.idToFace, id)
}

// Count returns the number of indexed faces.
func (h *HNSWIndex) Count() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.idToFace)
}

// IsEmpty returns true if the index has no graph data loaded.
func (h *HNSWIndex) IsEmpty() bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.graph == nil
}

// Save persists the graph to path, metadata to path+".meta" and faces to path+".faces".
func (h *HNSWIndex) Save(path string, metadata HNSWIndexMetadata) error {
	h.mu.RLock()
	defer h.mu.RUnlock()

	if h.graph == nil {
		// Remove existing files if index is empty (best-effort cleanup).
		_ = os.Remove(path)
		_ = os.Remove(path + ".meta")
		_ = os.Remove(path + ".faces")
		return nil
	}

	f, err := os.Create(path) //nolint:gosec // path is from trusted config
	if err != nil {
		return fmt.Errorf("failed to create HNSW index file: %w", err)
	}
	if err := h.graph.Export(f); err != nil {
		_ = f.Close()
		return fmt.Errorf("failed to export HNSW graph: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("closing HNSW index file: %w", err)
	}

	metadata.Version = hnswMetadataVersion
	if metadata.BuildTime.IsZero() {
		metadata.BuildTime = time.Now()
	}
	metaData, err := json.Marshal(metadata)
	if err != nil {
		return fmt.Errorf("failed to marshal metadata: %w", err)
	}
	if err := os.WriteFile(path+".meta", metaData, 0600); err != nil {
		return fmt.Errorf("failed to write metadata file: %w", err)
	}

	faces := make([]StoredFace, 0, len(h.idToFace))
	for _, face := range h.idToFace {
		faces = append(faces, *face)
	}
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(faces); err != nil {
		return fmt.Errorf("failed to encode faces: %w", err)
	}
	if err := os.WriteFile(path+".faces", buf.Bytes(), 0600); err != nil {
		return fmt.Errorf("failed to write faces file: %w", err)
	}
	return nil
}

// LoadHNSWMetadata loads metadata from a separate .meta file.
func LoadHNSWMetadata(path string) (HNSWIndexMetadata, error) {
	var metadata HNSWIndexMetadata

	data, err := os.ReadFile(path + ".meta") //nolint:gosec // path is from trusted config
	if err != nil {
		return metadata, fmt.Errorf("failed to read metadata file: %w", err)
	}
	if err := json.Unmarshal(data, &metadata); err != nil {
		return metadata, fmt.Errorf("failed to unmarshal metadata: %w", err)
	}
	return metadata, nil
}

// Load replaces the index with the graph and faces saved at path.
func (h *HNSWIndex) Load(path string) error {
	f, err := os.Open(path) //nolint:gosec // path is from trusted config
	if err != nil {
		return fmt.Errorf("failed to open HNSW index: %w", err)
	}
	defer f.Close()

	g := newFaceGraph()
	if err := g.Import(f); err != nil {
		return fmt.Errorf("failed to import HNSW graph: %w", err)
	}

	data, err := os.ReadFile(path + ".faces") //nolint:gosec // path is from trusted config
	if err != nil {
		return fmt.Errorf("failed to read faces file: %w", err)
	}
	var faces []StoredFace
	if err := gob.NewDecoder(bytes.NewReader(data)).Decode(&faces); err != nil {
		return fmt.Errorf("failed to decode faces: %w", err)
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	h.graph = g
	h.idToFace = make(map[int64]*StoredFace, len(faces))
	for i := range faces {
		h.idToFace[faces[i].ID] = &faces[i]
	}
	return nil
}
