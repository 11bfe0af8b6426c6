package embedding

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/kozaktomas/facebank/internal/facematch"
)

var jpegHeader = []byte{0xFF, 0xD8, 0xFF, 0xE0, 0x00, 0x10, 0x4A, 0x46, 0x49, 0x46}

func TestDetectFaces(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/detect" || r.Method != http.MethodPost {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		file, header, err := r.FormFile("file")
		if err != nil {
			t.Errorf("missing file field: %v", err)
			http.Error(w, "no file", http.StatusBadRequest)
			return
		}
		defer file.Close()
		if ct := header.Header.Get("Content-Type"); ct != "image/jpeg" {
			t.Errorf("part Content-Type = %q, want image/jpeg", ct)
		}
		data, _ := io.ReadAll(file)
		if len(data) != len(jpegHeader) {
			t.Errorf("uploaded %d bytes, want %d", len(data), len(jpegHeader))
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{
			"faces_count": 3,
			"faces": []map[string]any{
				{"bbox": []float64{10, 20, 30, 40}, "det_score": 0.99},
				{"bbox": []float64{1, 2, 3}, "det_score": 0.5},
				{"bbox": []float64{50, 60, 70, 80}, "det_score": 0.8},
			},
		})
	}))
	defer server.Close()

	client := NewClient(server.URL, 0, 5*time.Second)
	detections, err := client.DetectFaces(context.Background(), jpegHeader)
	if err != nil {
		t.Fatalf("DetectFaces failed: %v", err)
	}

	want := []facematch.Detection{
		{BBox: facematch.BBox{10, 20, 30, 40}, DetScore: 0.99},
		{BBox: facematch.BBox{50, 60, 70, 80}, DetScore: 0.8},
	}
	if len(detections) != len(want) {
		t.Fatalf("got %d detections, want %d", len(detections), len(want))
	}
	for i := range want {
		if detections[i] != want[i] {
			t.Errorf("detection %d = %+v, want %+v", i, detections[i], want[i])
		}
	}
}

func TestDetectFaces_ServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "model not loaded", http.StatusInternalServerError)
	}))
	defer server.Close()

	client := NewClient(server.URL, 0, 5*time.Second)
	_, err := client.DetectFaces(context.Background(), jpegHeader)
	if err == nil {
		t.Fatal("expected error")
	}
	if !strings.Contains(err.Error(), "status 500") {
		t.Errorf("error = %v, want status 500", err)
	}
}

func TestEmbedFace(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/embed/face" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		json.NewEncoder(w).Encode(map[string]any{
			"embedding": []float32{0.1, 0.2, 0.3, 0.4},
			"dim":       4,
			"model":     "buffalo_l",
		})
	}))
	defer server.Close()

	client := NewClient(server.URL+"/", 4, 5*time.Second)
	emb, err := client.EmbedFace(context.Background(), jpegHeader)
	if err != nil {
		t.Fatalf("EmbedFace failed: %v", err)
	}
	if len(emb) != 4 || emb[3] != 0.4 {
		t.Errorf("unexpected embedding %v", emb)
	}
}

func TestEmbedFace_DimensionMismatchNamesModel(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"embedding": [0.1, 0.2], "dim": 2, "model": "buffalo_s"}`))
	}))
	defer server.Close()

	client := NewClient(server.URL, 512, 5*time.Second)
	_, err := client.EmbedFace(context.Background(), jpegHeader)
	if !errors.Is(err, ErrDimensionMismatch) {
		t.Fatalf("error = %v, want ErrDimensionMismatch", err)
	}
	if !strings.Contains(err.Error(), "buffalo_s") {
		t.Errorf("error %q does not name the model", err)
	}
}

func TestEmbedFace_Errors(t *testing.T) {
	tests := []struct {
		name string
		body string
		dim  int
		want error
	}{
		{"empty embedding", `{"embedding": [], "dim": 0}`, 0, ErrEmptyEmbedding},
		{"dimension mismatch", `{"embedding": [0.1, 0.2], "dim": 2}`, 512, ErrDimensionMismatch},
		{"invalid json", `{`, 0, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.Write([]byte(tt.body))
			}))
			defer server.Close()

			client := NewClient(server.URL, tt.dim, 5*time.Second)
			_, err := client.EmbedFace(context.Background(), jpegHeader)
			if err == nil {
				t.Fatal("expected error")
			}
			if tt.want != nil && !errors.Is(err, tt.want) {
				t.Errorf("error = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestEmbedFace_ContextCanceled(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	}))
	defer server.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	client := NewClient(server.URL, 0, 5*time.Second)
	if _, err := client.EmbedFace(ctx, jpegHeader); !errors.Is(err, context.Canceled) {
		t.Errorf("error = %v, want context.Canceled", err)
	}
}

func TestDetectMIMEType(t *testing.T) {
	tests := []struct {
		name string
		data []byte
		want string
	}{
		{"jpeg", jpegHeader, "image/jpeg"},
		{"png", []byte{0x89, 0x50, 0x4E, 0x47, 0x0D, 0x0A, 0x1A, 0x0A}, "image/png"},
		{"gif", []byte("GIF89a\x00\x00"), "image/gif"},
		{"webp", []byte("RIFF\x00\x00\x00\x00WEBPVP8 "), "image/webp"},
		{"short", []byte{0xFF}, "application/octet-stream"},
		{"unknown", []byte("hello world"), "application/octet-stream"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := DetectMIMEType(tt.data); got != tt.want {
				t.Errorf("DetectMIMEType = %q, want %q", got, tt.want)
			}
		})
	}
}
