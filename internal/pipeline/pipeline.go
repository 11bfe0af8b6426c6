// Package pipeline identifies every face in one image: detect, crop, embed,
// retrieve, vote and threshold, independently per face.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"image"
	"log"
	"sync"

	"github.com/google/uuid"
	"github.com/kozaktomas/facebank/internal/database"
	"github.com/kozaktomas/facebank/internal/facematch"
	"github.com/kozaktomas/facebank/internal/identity"
	"github.com/kozaktomas/facebank/internal/retrieval"
)

var (
	// ErrNoImage is returned for empty image input.
	ErrNoImage = errors.New("no image data")
	// ErrInvalidImage is returned when the image cannot be decoded.
	ErrInvalidImage = errors.New("invalid image")
	// ErrDetection is returned when face detection fails for the whole image.
	ErrDetection = errors.New("face detection failed")
	// ErrRetrievalUnavailable is returned when similarity retrieval fails for any face.
	// The image has no usable result in that case.
	ErrRetrievalUnavailable = errors.New("similarity retrieval unavailable")
	// ErrDirectoryUnavailable is returned when the person directory cannot be queried.
	ErrDirectoryUnavailable = errors.New("person directory unavailable")
)

const (
	DefaultTopK        = 20
	DefaultConcurrency = 4
)

// Detector locates faces in an encoded image.
type Detector interface {
	DetectFaces(ctx context.Context, imageData []byte) ([]facematch.Detection, error)
}

// Embedder maps an encoded face crop to its embedding vector.
type Embedder interface {
	EmbedFace(ctx context.Context, faceData []byte) ([]float32, error)
}

// Directory resolves a person ID to a person record, nil when unknown.
type Directory interface {
	Get(ctx context.Context, id string) (*database.Person, error)
}

// Options tune one pipeline. Zero values take the defaults.
type Options struct {
	TopK        int
	Concurrency int
	Policy      identity.Policy
	CropMargin  float64
}

// Identity is an accepted identification: the person and the confidence of the vote.
type Identity struct {
	Person     database.Person `json:"person"`
	Confidence float64         `json:"confidence"`
}

// FaceResult is the outcome for one detected face. Identity is nil for
// unidentified faces; Error is set when this face alone failed.
type FaceResult struct {
	Index    int                   `json:"index"`
	BBox     facematch.BBox        `json:"bbox"`
	DetScore float64               `json:"det_score"`
	Vote     identity.VotingResult `json:"vote"`
	Identity *Identity             `json:"identity"`
	Error    string                `json:"error,omitempty"`
}

// Identified reports whether the face carries an identity.
func (f *FaceResult) Identified() bool {
	return f.Identity != nil
}

// Result holds the per-face results of one image in detection order.
type Result struct {
	RequestID string       `json:"request_id"`
	Threshold float64      `json:"threshold"`
	Faces     []FaceResult `json:"faces"`
}

// Identified counts faces with an accepted identity.
func (r *Result) Identified() int {
	n := 0
	for i := range r.Faces {
		if r.Faces[i].Identified() {
			n++
		}
	}
	return n
}

// Failed counts faces that failed individually.
func (r *Result) Failed() int {
	n := 0
	for i := range r.Faces {
		if r.Faces[i].Error != "" {
			n++
		}
	}
	return n
}

// Pipeline wires the collaborators used to identify faces.
type Pipeline struct {
	detector  Detector
	embedder  Embedder
	retriever retrieval.Retriever
	directory Directory
	opts      Options
}

// New creates a pipeline. A zero Policy threshold keeps zero; use identity.DefaultPolicy for 0.7.
func New(detector Detector, embedder Embedder, retriever retrieval.Retriever, directory Directory, opts Options) *Pipeline {
	if opts.TopK <= 0 {
		opts.TopK = DefaultTopK
	}
	if opts.Concurrency <= 0 {
		opts.Concurrency = DefaultConcurrency
	}
	if opts.CropMargin <= 0 {
		opts.CropMargin = facematch.DefaultCropMargin
	}
	return &Pipeline{
		detector:  detector,
		embedder:  embedder,
		retriever: retriever,
		directory: directory,
		opts:      opts,
	}
}

// Policy returns the acceptance policy in use.
func (p *Pipeline) Policy() identity.Policy {
	return p.opts.Policy
}

// Identify processes every detected face. Faces are returned in detection
// order and never dropped.
func (p *Pipeline) Identify(ctx context.Context, imageData []byte) (*Result, error) {
	return p.run(ctx, imageData, false)
}

// IdentifySingle processes only the largest detected face. The result holds
// zero faces when none were detected.
func (p *Pipeline) IdentifySingle(ctx context.Context, imageData []byte) (*Result, error) {
	return p.run(ctx, imageData, true)
}

func (p *Pipeline) run(ctx context.Context, imageData []byte, single bool) (*Result, error) {
	requestID := RequestIDFrom(ctx)
	if requestID == "" {
		requestID = uuid.NewString()
		ctx = WithRequestID(ctx, requestID)
	}

	if len(imageData) == 0 {
		return nil, ErrNoImage
	}
	img, _, err := facematch.DecodeImage(imageData)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidImage, err)
	}

	detections, err := p.detector.DetectFaces(ctx, imageData)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrDetection, err)
	}

	faces := make([]FaceResult, len(detections))
	for i, d := range detections {
		faces[i] = FaceResult{Index: i, BBox: d.BBox, DetScore: d.DetScore}
	}

	if single && len(faces) > 0 {
		boxes := make([]facematch.BBox, len(detections))
		for i, d := range detections {
			boxes[i] = d.BBox
		}
		faces = []FaceResult{faces[facematch.Largest(boxes)]}
	}

	if err := p.processFaces(ctx, requestID, img, faces); err != nil {
		return nil, err
	}

	return &Result{
		RequestID: requestID,
		Threshold: p.opts.Policy.Threshold,
		Faces:     faces,
	}, nil
}

// processFaces fills in faces concurrently. Each worker writes only its own
// slot so order is preserved. A hard failure cancels the remaining faces.
func (p *Pipeline) processFaces(ctx context.Context, requestID string, img image.Image, faces []FaceResult) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var (
		hardErr error
		once    sync.Once
	)
	fail := func(err error) {
		once.Do(func() {
			hardErr = err
			cancel()
		})
	}

	sem := make(chan struct{}, p.opts.Concurrency)
	var wg sync.WaitGroup

	for i := range faces {
		wg.Add(1)
		go func(face *FaceResult) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()

			if ctx.Err() != nil {
				return
			}
			if err := p.processFace(ctx, img, face); err != nil {
				fail(err)
				return
			}
			if face.Error != "" {
				log.Printf("[%s] face %d: %s", requestID, face.Index, face.Error)
			}
		}(&faces[i])
	}

	wg.Wait()

	if hardErr != nil {
		log.Printf("[%s] identification aborted: %v", requestID, hardErr)
		return hardErr
	}
	// Caller cancellation with nothing else failing.
	return ctx.Err()
}

// processFace runs one face through the pipeline. Per-face failures are
// recorded on face; only image-level failures are returned.
func (p *Pipeline) processFace(ctx context.Context, img image.Image, face *FaceResult) error {
	crop, err := facematch.CropFaceJPEG(img, face.BBox, p.opts.CropMargin)
	if err != nil {
		face.Error = fmt.Sprintf("crop: %v", err)
		return nil
	}

	embedding, err := p.embedder.EmbedFace(ctx, crop)
	if err != nil {
		if ctx.Err() != nil {
			return nil
		}
		face.Error = fmt.Sprintf("embed: %v", err)
		return nil
	}

	candidates, err := p.retriever.Retrieve(ctx, embedding, p.opts.TopK)
	if err != nil {
		if ctx.Err() != nil {
			return nil
		}
		return fmt.Errorf("%w: face %d: %w", ErrRetrievalUnavailable, face.Index, err)
	}

	decision := p.opts.Policy.Decide(candidates)
	face.Vote = decision.Vote
	if !decision.Identified {
		return nil
	}

	person, err := p.directory.Get(ctx, decision.Vote.PersonID)
	if err != nil {
		if ctx.Err() != nil {
			return nil
		}
		return fmt.Errorf("%w: %w", ErrDirectoryUnavailable, err)
	}
	if person == nil {
		face.Error = fmt.Sprintf("person %q not found in directory", decision.Vote.PersonID)
		return nil
	}

	face.Identity = &Identity{Person: *person, Confidence: decision.Vote.Confidence}
	return nil
}
