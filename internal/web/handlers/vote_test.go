package handlers

import (
	"encoding/json"
	"math"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/kozaktomas/facebank/internal/constants"
	"github.com/kozaktomas/facebank/internal/identity"
)

func postVote(t *testing.T, handler *VoteHandler, body string) (*httptest.ResponseRecorder, identity.Decision) {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/vote", strings.NewReader(body))
	recorder := httptest.NewRecorder()
	handler.Vote(recorder, req)

	var decision identity.Decision
	if recorder.Code == http.StatusOK {
		if err := json.Unmarshal(recorder.Body.Bytes(), &decision); err != nil {
			t.Fatalf("failed to unmarshal response: %v", err)
		}
	}
	return recorder, decision
}

func TestVoteHandler_Scenario(t *testing.T) {
	handler := NewVoteHandler(identity.DefaultPolicy())

	recorder, decision := postVote(t, handler, `{"candidates": [
		{"person_id": "A", "score": 0.9},
		{"person_id": "B", "score": 0.85},
		{"person_id": "A", "score": 0.8}
	]}`)

	if recorder.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", recorder.Code)
	}
	if decision.Vote.PersonID != "A" || !decision.Identified {
		t.Errorf("decision = %+v, want A identified", decision)
	}
	if math.Abs(decision.Vote.Confidence-0.85) > 1e-9 {
		t.Errorf("confidence = %v, want 0.85", decision.Vote.Confidence)
	}
}

func TestVoteHandler_Empty(t *testing.T) {
	handler := NewVoteHandler(identity.DefaultPolicy())

	recorder, decision := postVote(t, handler, `{"candidates": []}`)

	if recorder.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", recorder.Code)
	}
	if decision.Identified || decision.Vote.PersonID != "" {
		t.Errorf("decision = %+v, want unidentified", decision)
	}
}

func TestVoteHandler_ThresholdOverride(t *testing.T) {
	handler := NewVoteHandler(identity.DefaultPolicy())

	_, decision := postVote(t, handler, `{"candidates": [{"person_id": "C", "score": 0.95}], "threshold": 0.95}`)

	if decision.Identified {
		t.Error("confidence equal to threshold must be rejected")
	}
	if decision.Threshold != 0.95 {
		t.Errorf("threshold = %v, want 0.95", decision.Threshold)
	}
}

func TestVoteHandler_InvalidBody(t *testing.T) {
	handler := NewVoteHandler(identity.DefaultPolicy())

	recorder, _ := postVote(t, handler, `{"candidates": "nope"}`)
	if recorder.Code != http.StatusBadRequest {
		t.Errorf("expected status 400, got %d", recorder.Code)
	}
}

func TestVoteHandler_BodyTooLarge(t *testing.T) {
	handler := NewVoteHandler(identity.DefaultPolicy())

	var body strings.Builder
	body.WriteString(`{"candidates": [`)
	for i := 0; body.Len() <= constants.MaxVoteBodySize; i++ {
		if i > 0 {
			body.WriteString(",")
		}
		body.WriteString(`{"person_id": "person-with-a-rather-long-identifier", "score": 0.5}`)
	}
	body.WriteString("]}")

	recorder, _ := postVote(t, handler, body.String())

	if recorder.Code != http.StatusRequestEntityTooLarge {
		t.Errorf("expected status 413, got %d", recorder.Code)
	}
}
