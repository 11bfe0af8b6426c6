// Package embedding talks to the face detection and embedding server.
package embedding

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"strings"
	"time"

	"github.com/kozaktomas/facebank/internal/facematch"
)

const defaultEmbeddingURL = "http://localhost:8000"

// ErrEmptyEmbedding is returned when the server answers without a vector.
var ErrEmptyEmbedding = errors.New("empty embedding returned")

// ErrDimensionMismatch is returned when the server's model produces vectors of
// another length than the face bank holds.
var ErrDimensionMismatch = errors.New("embedding dimension mismatch")

// Client detects faces and computes face embeddings via the embedding server.
type Client struct {
	baseURL string
	dim     int
	client  *http.Client
}

// NewClient creates a new embedding server client. A dim of 0 disables dimension checks.
func NewClient(baseURL string, dim int, timeout time.Duration) *Client {
	if baseURL == "" {
		baseURL = defaultEmbeddingURL
	}
	return &Client{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		dim:     dim,
		client:  &http.Client{Timeout: timeout},
	}
}

// embeddingResponse represents the response from the face embedding endpoint
type embeddingResponse struct {
	Dim       int       `json:"dim"`
	Embedding []float32 `json:"embedding"`
	Model     string    `json:"model"`
}

// detectedFace is one entry of the detection response
type detectedFace struct {
	BBox     []float64 `json:"bbox"` // [x1, y1, x2, y2]
	DetScore float64   `json:"det_score"`
}

// detectResponse represents the response from the detection endpoint
type detectResponse struct {
	FacesCount int            `json:"faces_count"`
	Faces      []detectedFace `json:"faces"`
	Model      string         `json:"model"`
}


// postMultipartImage posts the image as the "file" form field and returns the response body.
func (c *Client) postMultipartImage(ctx context.Context, endpoint string, imageData []byte) ([]byte, error) {
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)

	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", `form-data; name="file"; filename="image.jpg"`)
	h.Set("Content-Type", DetectMIMEType(imageData))
	part, err := writer.CreatePart(h)
	if err != nil {
		return nil, fmt.Errorf("failed to create form file: %w", err)
	}

	if _, err := part.Write(imageData); err != nil {
		return nil, fmt.Errorf("failed to write image data: %w", err)
	}

	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("failed to close multipart writer: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+endpoint, &buf)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("API error (status %d): %s", resp.StatusCode, string(body))
	}

	return body, nil
}

// DetectFaces locates all faces in an image. Boxes with other than four
// coordinates are dropped.
func (c *Client) DetectFaces(ctx context.Context, imageData []byte) ([]facematch.Detection, error) {
	body, err := c.postMultipartImage(ctx, "/detect", imageData)
	if err != nil {
		return nil, err
	}

	var detResp detectResponse
	if err := json.Unmarshal(body, &detResp); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}

	detections := make([]facematch.Detection, 0, len(detResp.Faces))
	for _, f := range detResp.Faces {
		box, ok := facematch.BBoxFromSlice(f.BBox)
		if !ok {
			continue
		}
		detections = append(detections, facematch.Detection{BBox: box, DetScore: f.DetScore})
	}
	return detections, nil
}

// EmbedFace computes the embedding vector of a cropped face.
func (c *Client) EmbedFace(ctx context.Context, faceData []byte) ([]float32, error) {
	body, err := c.postMultipartImage(ctx, "/embed/face", faceData)
	if err != nil {
		return nil, err
	}

	var embResp embeddingResponse
	if err := json.Unmarshal(body, &embResp); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}

	if len(embResp.Embedding) == 0 {
		return nil, ErrEmptyEmbedding
	}
	if c.dim > 0 && len(embResp.Embedding) != c.dim {
		return nil, fmt.Errorf("%w: model %q returned %d, expected %d",
			ErrDimensionMismatch, embResp.Model, len(embResp.Embedding), c.dim)
	}
	return embResp.Embedding, nil
}

// DetectMIMEType detects the MIME type from image magic bytes
func DetectMIMEType(data []byte) string {
	if len(data) < 8 {
		return "application/octet-stream"
	}
	// JPEG: FF D8 FF
	if data[0] == 0xFF && data[1] == 0xD8 && data[2] == 0xFF {
		return "image/jpeg"
	}
	// PNG: 89 50 4E 47
	if data[0] == 0x89 && data[1] == 0x50 && data[2] == 0x4E && data[3] == 0x47 {
		return "image/png"
	}
	// GIF: 47 49 46 38
	if data[0] == 0x47 && data[1] == 0x49 && data[2] == 0x46 && data[3] == 0x38 {
		return "image/gif"
	}
	// WebP: RIFF....WEBP
	if len(data) >= 12 && string(data[0:4]) == "RIFF" && string(data[8:12]) == "WEBP" {
		return "image/webp"
	}
	return "application/octet-stream"
}
