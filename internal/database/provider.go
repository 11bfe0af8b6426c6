package database

import (
	"context"
	"errors"
)

// ErrBackendNotInitialized is returned by the getters before a backend registered itself.
var ErrBackendNotInitialized = errors.New("database backend not initialized: DATABASE_URL is required")

// HNSWRebuilder is an interface for repositories that support HNSW index rebuilding
type HNSWRebuilder interface {
	// RebuildHNSW rebuilds the in-memory HNSW index
	RebuildHNSW(ctx context.Context) error
	// HNSWCount returns the number of items in the HNSW index
	HNSWCount() int
	// IsHNSWEnabled returns whether HNSW is enabled
	IsHNSWEnabled() bool
	// SaveHNSWIndex saves the current index to disk (if path configured)
	SaveHNSWIndex(ctx context.Context) error
}

var (
	faceReader   func() FaceReader
	personReader func() PersonReader
	faceHNSW     HNSWRebuilder
)

// RegisterFaceReader registers the face bank backend.
// This is called by the backend packages to avoid import cycles.
func RegisterFaceReader(reader func() FaceReader) {
	faceReader = reader
}

// RegisterPersonReader registers the person directory backend. A later registration wins,
// which lets a MariaDB directory replace the PostgreSQL persons table.
func RegisterPersonReader(reader func() PersonReader) {
	personReader = reader
}

// RegisterFaceHNSWRebuilder registers the HNSW rebuilder for the face repository.
func RegisterFaceHNSWRebuilder(rebuilder HNSWRebuilder) {
	faceHNSW = rebuilder
}

// GetFaceHNSWRebuilder returns the registered face HNSW rebuilder, or nil if not registered.
func GetFaceHNSWRebuilder() HNSWRebuilder {
	return faceHNSW
}

// GetFaceReader returns the registered FaceReader
func GetFaceReader(ctx context.Context) (FaceReader, error) {
	if faceReader == nil {
		return nil, ErrBackendNotInitialized
	}
	return faceReader(), nil
}

// GetPersonReader returns the registered PersonReader
func GetPersonReader(ctx context.Context) (PersonReader, error) {
	if personReader == nil {
		return nil, ErrBackendNotInitialized
	}
	return personReader(), nil
}
