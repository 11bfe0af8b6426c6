package handlers

import (
	"context"
	"io"
	"log"
	"net/http"
	"strconv"

	"github.com/google/uuid"
	"github.com/kozaktomas/facebank/internal/constants"
	"github.com/kozaktomas/facebank/internal/pipeline"
)

// RequestIDHeader carries the identification request ID in responses.
const RequestIDHeader = "X-Request-Id"

// Identifier runs face identification over one image.
type Identifier interface {
	Identify(ctx context.Context, imageData []byte) (*pipeline.Result, error)
	IdentifySingle(ctx context.Context, imageData []byte) (*pipeline.Result, error)
}

// IdentifyHandler handles image identification uploads
type IdentifyHandler struct {
	identifier Identifier
}

// NewIdentifyHandler creates a new identify handler. A nil identifier answers 503.
func NewIdentifyHandler(identifier Identifier) *IdentifyHandler {
	return &IdentifyHandler{identifier: identifier}
}

// Identify accepts a multipart "file" upload and returns per-face results.
// With ?single=true only the largest face is identified.
func (h *IdentifyHandler) Identify(w http.ResponseWriter, r *http.Request) {
	if h.identifier == nil {
		respondError(w, http.StatusServiceUnavailable, "identification pipeline not configured")
		return
	}

	single := false
	if s := r.URL.Query().Get("single"); s != "" {
		v, err := strconv.ParseBool(s)
		if err != nil {
			respondError(w, http.StatusBadRequest, "invalid single parameter")
			return
		}
		single = v
	}

	r.Body = http.MaxBytesReader(w, r.Body, constants.MaxUploadSize)
	if err := r.ParseMultipartForm(constants.MaxUploadSize); err != nil {
		respondError(w, http.StatusBadRequest, "failed to parse multipart form")
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		respondError(w, http.StatusBadRequest, "missing file field")
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		respondError(w, http.StatusBadRequest, "failed to read upload")
		return
	}

	requestID := uuid.NewString()
	w.Header().Set(RequestIDHeader, requestID)
	ctx := pipeline.WithRequestID(r.Context(), requestID)

	var result *pipeline.Result
	if single {
		result, err = h.identifier.IdentifySingle(ctx, data)
	} else {
		result, err = h.identifier.Identify(ctx, data)
	}
	if err != nil {
		status := statusForError(err)
		if status != http.StatusBadRequest {
			log.Printf("[%s] identify %s failed: %v", requestID, sanitizeForLog(header.Filename), err)
		}
		respondError(w, status, err.Error())
		return
	}

	log.Printf("[%s] identify %s: %d faces, %d identified, %d failed",
		requestID, sanitizeForLog(header.Filename), len(result.Faces), result.Identified(), result.Failed())
	respondJSON(w, http.StatusOK, result)
}
