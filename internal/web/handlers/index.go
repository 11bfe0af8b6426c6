package handlers

import (
	"log"
	"net/http"
	"time"

	"github.com/kozaktomas/facebank/internal/database"
)

// IndexHandler manages the in-memory face index
type IndexHandler struct {
	stats *StatsHandler
}

// NewIndexHandler creates a new index handler. Rebuilds invalidate the stats cache.
func NewIndexHandler(stats *StatsHandler) *IndexHandler {
	return &IndexHandler{stats: stats}
}

// RebuildResponse reports a finished index rebuild
type RebuildResponse struct {
	Faces      int   `json:"faces"`
	DurationMs int64 `json:"duration_ms"`
	Saved      bool  `json:"saved"`
}

// Rebuild reloads the HNSW index from the face bank and persists it if a path is configured.
func (h *IndexHandler) Rebuild(w http.ResponseWriter, r *http.Request) {
	rebuilder := database.GetFaceHNSWRebuilder()
	if rebuilder == nil {
		respondError(w, http.StatusServiceUnavailable, "face index not available")
		return
	}

	start := time.Now()
	if err := rebuilder.RebuildHNSW(r.Context()); err != nil {
		log.Printf("rebuild face index: %v", err)
		respondError(w, http.StatusInternalServerError, "failed to rebuild face index")
		return
	}

	saved := true
	if err := rebuilder.SaveHNSWIndex(r.Context()); err != nil {
		log.Printf("Warning: failed to save face index: %v", err)
		saved = false
	}

	if h.stats != nil {
		h.stats.InvalidateCache()
	}

	respondJSON(w, http.StatusOK, RebuildResponse{
		Faces:      rebuilder.HNSWCount(),
		DurationMs: time.Since(start).Milliseconds(),
		Saved:      saved,
	})
}
