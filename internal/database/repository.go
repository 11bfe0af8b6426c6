package database

import (
	"context"
)

// FaceReader provides read-only access to the face bank
type FaceReader interface {
	// GetFacesByPerson retrieves all enrolled faces of a person
	GetFacesByPerson(ctx context.Context, personID string) ([]StoredFace, error)
	// Count returns the total number of enrolled faces
	Count(ctx context.Context) (int, error)
	// CountPersons returns the number of distinct persons with at least one face
	CountPersons(ctx context.Context) (int, error)
	// FindSimilarWithDistance returns up to limit faces ordered by ascending cosine distance,
	// together with those distances
	FindSimilarWithDistance(ctx context.Context, embedding []float32, limit int) ([]StoredFace, []float64, error)
}

// PersonReader provides read-only access to person records
type PersonReader interface {
	// Get retrieves a person by ID, returns nil if not found
	Get(ctx context.Context, id string) (*Person, error)
	// List returns all persons ordered by name
	List(ctx context.Context) ([]Person, error)
	// FindByName returns persons whose normalized name contains the normalized query
	// (case and diacritics insensitive, dashes treated as spaces)
	FindByName(ctx context.Context, name string) ([]Person, error)
}
