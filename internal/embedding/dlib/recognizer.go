//go:build dlib

// Package dlib runs face detection and embedding in-process with dlib via go-face.
// Descriptors are 128-dimensional, so the face bank must be enrolled with the same models.
package dlib

import (
	"context"
	"errors"
	"fmt"
	"image"
	"sync"

	"github.com/Kagami/go-face"
	"github.com/kozaktomas/facebank/internal/embedding"
	"github.com/kozaktomas/facebank/internal/facematch"
)

// DescriptorDim is the length of a dlib face descriptor.
const DescriptorDim = 128

// ErrNoFace is returned by EmbedFace when the crop contains no detectable face.
var ErrNoFace = errors.New("no face found in crop")

// Recognizer wraps a go-face recognizer. Calls are serialized because dlib
// state is shared between them.
type Recognizer struct {
	mu  sync.Mutex
	rec *face.Recognizer
}

// NewRecognizer loads the dlib models from modelsDir.
func NewRecognizer(modelsDir string) (*Recognizer, error) {
	rec, err := face.NewRecognizer(modelsDir)
	if err != nil {
		return nil, fmt.Errorf("failed to load dlib models from %s: %w", modelsDir, err)
	}
	return &Recognizer{rec: rec}, nil
}

// Close releases the dlib models.
func (r *Recognizer) Close() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rec.Close()
}

// toJPEG re-encodes non-JPEG input since dlib only decodes JPEG from memory.
func toJPEG(data []byte) ([]byte, error) {
	if embedding.DetectMIMEType(data) == "image/jpeg" {
		return data, nil
	}
	img, _, err := facematch.DecodeImage(data)
	if err != nil {
		return nil, err
	}
	return facematch.EncodeJPEG(img)
}

func rectToBBox(r image.Rectangle) facematch.BBox {
	return facematch.BBox{float64(r.Min.X), float64(r.Min.Y), float64(r.Max.X), float64(r.Max.Y)}
}

// DetectFaces locates all faces in an image. dlib reports no detection score, so DetScore is 1.
func (r *Recognizer) DetectFaces(ctx context.Context, imageData []byte) ([]facematch.Detection, error) {
	data, err := toJPEG(imageData)
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.mu.Lock()
	faces, err := r.rec.Recognize(data)
	r.mu.Unlock()
	if err != nil {
		return nil, fmt.Errorf("dlib detection failed: %w", err)
	}

	detections := make([]facematch.Detection, len(faces))
	for i, f := range faces {
		detections[i] = facematch.Detection{BBox: rectToBBox(f.Rectangle), DetScore: 1}
	}
	return detections, nil
}

// EmbedFace computes the descriptor of the single face in a cropped face image.
func (r *Recognizer) EmbedFace(ctx context.Context, faceData []byte) ([]float32, error) {
	data, err := toJPEG(faceData)
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.mu.Lock()
	f, err := r.rec.RecognizeSingle(data)
	r.mu.Unlock()
	if err != nil {
		return nil, fmt.Errorf("dlib embedding failed: %w", err)
	}
	if f == nil {
		return nil, ErrNoFace
	}

	out := make([]float32, DescriptorDim)
	copy(out, f.Descriptor[:])
	return out, nil
}
