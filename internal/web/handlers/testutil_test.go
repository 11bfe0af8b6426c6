package handlers

import (
	"bytes"
	"context"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/kozaktomas/facebank/internal/database"
	"github.com/kozaktomas/facebank/internal/database/mock"
)

// requestWithChiParams creates a request with chi URL parameters
func requestWithChiParams(r *http.Request, params map[string]string) *http.Request {
	rctx := chi.NewRouteContext()
	for key, value := range params {
		rctx.URLParams.Add(key, value)
	}
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
}

// mockBackends groups the registered doubles for table setups
type mockBackends struct {
	faces   *mock.MockFaceReader
	persons *mock.MockPersonReader
}

// registerMockBackends registers mock readers and unregisters them when the test ends
func registerMockBackends(t *testing.T) (*mock.MockFaceReader, *mock.MockPersonReader, *mock.MockHNSWRebuilder) {
	t.Helper()

	faces := mock.NewMockFaceReader()
	persons := mock.NewMockPersonReader()
	rebuilder := &mock.MockHNSWRebuilder{}

	database.RegisterFaceReader(func() database.FaceReader { return faces })
	database.RegisterPersonReader(func() database.PersonReader { return persons })
	database.RegisterFaceHNSWRebuilder(rebuilder)

	t.Cleanup(unregisterBackends)
	return faces, persons, rebuilder
}

func unregisterBackends() {
	database.RegisterFaceReader(nil)
	database.RegisterPersonReader(nil)
	database.RegisterFaceHNSWRebuilder(nil)
}

// multipartRequest builds a POST request uploading data as the given form field
func multipartRequest(t *testing.T, path, field string, data []byte) *http.Request {
	t.Helper()

	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	part, err := writer.CreateFormFile(field, "photo.jpg")
	if err != nil {
		t.Fatalf("create form file: %v", err)
	}
	part.Write(data)
	writer.Close()

	req := httptest.NewRequest(http.MethodPost, path, &buf)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	return req
}
