package web

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/kozaktomas/facebank/internal/config"
	"github.com/kozaktomas/facebank/internal/identity"
)

func TestServerRoutes(t *testing.T) {
	s := NewServer(&config.Config{}, identity.DefaultPolicy(), nil, 0, "127.0.0.1")

	tests := []struct {
		name   string
		method string
		path   string
		body   string
		want   int
	}{
		{"health", http.MethodGet, "/api/v1/health", "", http.StatusOK},
		{"config", http.MethodGet, "/api/v1/config", "", http.StatusOK},
		{"vote", http.MethodPost, "/api/v1/vote", `{"candidates":[{"person_id":"C","score":0.95}]}`, http.StatusOK},
		{"identify without pipeline", http.MethodPost, "/api/v1/identify", "", http.StatusServiceUnavailable},
		{"person faces without directory", http.MethodGet, "/api/v1/people/p1/faces", "", http.StatusServiceUnavailable},
		{"unknown route", http.MethodGet, "/api/v1/nope", "", http.StatusNotFound},
		{"wrong method", http.MethodGet, "/api/v1/vote", "", http.StatusMethodNotAllowed},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(tc.method, tc.path, strings.NewReader(tc.body))
			recorder := httptest.NewRecorder()
			s.Router().ServeHTTP(recorder, req)

			if recorder.Code != tc.want {
				t.Errorf("%s %s: expected status %d, got %d", tc.method, tc.path, tc.want, recorder.Code)
			}
		})
	}
}
