package database

// HNSW index parameters for 512-dim face embeddings
const (
	// HNSWMaxNeighbors (M) is the maximum number of neighbors per node.
	// Higher values improve recall but increase memory and build time.
	HNSWMaxNeighbors = 16

	// HNSWEfSearch is the search candidate pool size.
	// Higher values improve recall but slow down search.
	HNSWEfSearch = 100

	// HNSWMinSearchK is the minimum number of neighbours requested from the graph.
	// Small k values hurt HNSW recall, results are truncated afterwards.
	HNSWMinSearchK = 50
)
