package handlers

import (
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/kozaktomas/facebank/internal/constants"
	"github.com/kozaktomas/facebank/internal/database"
)

// PeopleHandler serves person directory lookups
type PeopleHandler struct{}

// NewPeopleHandler creates a new people handler
func NewPeopleHandler() *PeopleHandler {
	return &PeopleHandler{}
}

// PeopleResponse is a person listing
type PeopleResponse struct {
	People    []database.Person `json:"people"`
	Truncated bool              `json:"truncated"`
}

// Get returns one person by ID
func (h *PeopleHandler) Get(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		respondError(w, http.StatusBadRequest, "missing person id")
		return
	}

	repo, err := database.GetPersonReader(r.Context())
	if err != nil {
		respondError(w, http.StatusServiceUnavailable, err.Error())
		return
	}

	person, err := repo.Get(r.Context(), id)
	if err != nil {
		log.Printf("get person %s: %v", sanitizeForLog(id), err)
		respondError(w, http.StatusInternalServerError, "failed to get person")
		return
	}
	if person == nil {
		respondError(w, http.StatusNotFound, "person not found")
		return
	}
	respondJSON(w, http.StatusOK, person)
}

// List returns all persons, or those matching ?name= (case and diacritics insensitive)
func (h *PeopleHandler) List(w http.ResponseWriter, r *http.Request) {
	repo, err := database.GetPersonReader(r.Context())
	if err != nil {
		respondError(w, http.StatusServiceUnavailable, err.Error())
		return
	}

	var people []database.Person
	if name := r.URL.Query().Get("name"); name != "" {
		people, err = repo.FindByName(r.Context(), name)
	} else {
		people, err = repo.List(r.Context())
	}
	if err != nil {
		log.Printf("list people: %v", err)
		respondError(w, http.StatusInternalServerError, "failed to list people")
		return
	}

	resp := PeopleResponse{People: people}
	if resp.People == nil {
		resp.People = []database.Person{}
	}
	if len(resp.People) > constants.MaxPeopleResults {
		resp.People = resp.People[:constants.MaxPeopleResults]
		resp.Truncated = true
	}
	respondJSON(w, http.StatusOK, resp)
}

// FaceInfo describes one enrolled face without its embedding
type FaceInfo struct {
	ID        int64     `json:"id"`
	Model     string    `json:"model"`
	Dim       int       `json:"dim"`
	CreatedAt time.Time `json:"created_at"`
}

// PersonFacesResponse lists the enrolled faces of one person
type PersonFacesResponse struct {
	PersonID string     `json:"person_id"`
	Faces    []FaceInfo `json:"faces"`
}

// Faces returns the enrolled faces of a person
func (h *PeopleHandler) Faces(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		respondError(w, http.StatusBadRequest, "missing person id")
		return
	}

	persons, err := database.GetPersonReader(r.Context())
	if err != nil {
		respondError(w, http.StatusServiceUnavailable, err.Error())
		return
	}
	faceReader, err := database.GetFaceReader(r.Context())
	if err != nil {
		respondError(w, http.StatusServiceUnavailable, err.Error())
		return
	}

	person, err := persons.Get(r.Context(), id)
	if err != nil {
		log.Printf("get person %s: %v", sanitizeForLog(id), err)
		respondError(w, http.StatusInternalServerError, "failed to get person")
		return
	}
	if person == nil {
		respondError(w, http.StatusNotFound, "person not found")
		return
	}

	faces, err := faceReader.GetFacesByPerson(r.Context(), id)
	if err != nil {
		log.Printf("get faces of %s: %v", sanitizeForLog(id), err)
		respondError(w, http.StatusInternalServerError, "failed to get faces")
		return
	}

	resp := PersonFacesResponse{PersonID: id, Faces: make([]FaceInfo, 0, len(faces))}
	for _, f := range faces {
		resp.Faces = append(resp.Faces, FaceInfo{
			ID:        f.ID,
			Model:     f.Model,
			Dim:       f.Dim,
			CreatedAt: f.CreatedAt,
		})
	}
	respondJSON(w, http.StatusOK, resp)
}
