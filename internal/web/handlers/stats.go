package handlers

import (
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/kozaktomas/facebank/internal/database"
)

const statsCacheTTL = time.Minute

// statsCache holds cached stats with expiry
type statsCache struct {
	mu        sync.RWMutex
	data      *StatsResponse
	expiresAt time.Time
}

func (c *statsCache) get() (*StatsResponse, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.data == nil || time.Now().After(c.expiresAt) {
		return nil, false
	}
	return c.data, true
}

func (c *statsCache) set(data *StatsResponse) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data = data
	c.expiresAt = time.Now().Add(statsCacheTTL)
}

func (c *statsCache) invalidate() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data = nil
}

// StatsHandler reports face bank statistics
type StatsHandler struct {
	cache statsCache
}

// NewStatsHandler creates a new stats handler
func NewStatsHandler() *StatsHandler {
	return &StatsHandler{}
}

// InvalidateCache clears the cached stats so the next request fetches fresh data
func (h *StatsHandler) InvalidateCache() {
	h.cache.invalidate()
}

// StatsResponse represents the statistics response
type StatsResponse struct {
	TotalFaces   int `json:"total_faces"`
	TotalPersons int `json:"total_persons"`
	HNSWFaces    int `json:"hnsw_faces"`
}

// Get returns enrolled face and person counts
func (h *StatsHandler) Get(w http.ResponseWriter, r *http.Request) {
	if cached, ok := h.cache.get(); ok {
		respondJSON(w, http.StatusOK, cached)
		return
	}

	faces, err := database.GetFaceReader(r.Context())
	if err != nil {
		respondError(w, http.StatusServiceUnavailable, err.Error())
		return
	}

	totalFaces, err := faces.Count(r.Context())
	if err != nil {
		log.Printf("count faces: %v", err)
		respondError(w, http.StatusInternalServerError, "failed to count faces")
		return
	}
	totalPersons, err := faces.CountPersons(r.Context())
	if err != nil {
		log.Printf("count persons: %v", err)
		respondError(w, http.StatusInternalServerError, "failed to count persons")
		return
	}

	stats := &StatsResponse{TotalFaces: totalFaces, TotalPersons: totalPersons}
	if rebuilder := database.GetFaceHNSWRebuilder(); rebuilder != nil {
		stats.HNSWFaces = rebuilder.HNSWCount()
	}

	h.cache.set(stats)
	respondJSON(w, http.StatusOK, stats)
}
