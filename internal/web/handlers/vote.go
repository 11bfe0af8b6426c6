package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"net/http"

	"github.com/kozaktomas/facebank/internal/constants"
	"github.com/kozaktomas/facebank/internal/identity"
)

// VoteHandler exposes the voting decision over an externally retrieved candidate list
type VoteHandler struct {
	policy identity.Policy
}

// NewVoteHandler creates a new vote handler
func NewVoteHandler(policy identity.Policy) *VoteHandler {
	return &VoteHandler{policy: policy}
}

// VoteRequest is a ranked candidate list, best match first. Threshold
// overrides the configured policy for this request only.
type VoteRequest struct {
	Candidates []identity.CandidateMatch `json:"candidates"`
	Threshold  *float64                  `json:"threshold,omitempty"`
}

// Vote returns the voting result and acceptance decision for the candidates.
func (h *VoteHandler) Vote(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, constants.MaxVoteBodySize)

	var req VoteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			respondError(w, http.StatusRequestEntityTooLarge,
				fmt.Sprintf("request body too large (max %d bytes)", constants.MaxVoteBodySize))
			return
		}
		respondError(w, http.StatusBadRequest, errInvalidRequestBody)
		return
	}

	if len(req.Candidates) > constants.MaxVoteCandidates {
		respondError(w, http.StatusBadRequest,
			fmt.Sprintf("too many candidates (max %d)", constants.MaxVoteCandidates))
		return
	}

	policy := h.policy
	if req.Threshold != nil {
		if math.IsNaN(*req.Threshold) || math.IsInf(*req.Threshold, 0) {
			respondError(w, http.StatusBadRequest, "invalid threshold")
			return
		}
		policy.Threshold = *req.Threshold
	}

	respondJSON(w, http.StatusOK, policy.Decide(req.Candidates))
}
