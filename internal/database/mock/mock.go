// Package mock provides mock implementations of database interfaces for testing.
package mock

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/kozaktomas/facebank/internal/database"
	"github.com/kozaktomas/facebank/internal/facematch"
)

// MockFaceReader is a mock implementation of database.FaceReader.
// FindSimilarWithDistance ranks faces by real cosine distance.
type MockFaceReader struct {
	mu    sync.RWMutex
	faces []database.StoredFace

	// Error injection
	GetFacesByPersonError error
	CountError            error
	CountPersonsError     error
	FindSimilarWDError    error

	// SearchCalls counts FindSimilarWithDistance invocations
	SearchCalls int
}

// NewMockFaceReader creates a new mock face reader
func NewMockFaceReader() *MockFaceReader {
	return &MockFaceReader{}
}

// AddFace enrolls a face embedding for a person, assigning sequential IDs
func (m *MockFaceReader) AddFace(personID string, embedding []float32) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.faces = append(m.faces, database.StoredFace{
		ID:        int64(len(m.faces) + 1),
		PersonID:  personID,
		Embedding: embedding,
		Dim:       len(embedding),
	})
}

// GetFacesByPerson retrieves all faces of a person
func (m *MockFaceReader) GetFacesByPerson(ctx context.Context, personID string) ([]database.StoredFace, error) {
	if m.GetFacesByPersonError != nil {
		return nil, m.GetFacesByPersonError
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	var results []database.StoredFace
	for _, f := range m.faces {
		if f.PersonID == personID {
			results = append(results, f)
		}
	}
	return results, nil
}

// Count returns the total number of faces
func (m *MockFaceReader) Count(ctx context.Context) (int, error) {
	if m.CountError != nil {
		return 0, m.CountError
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.faces), nil
}

// CountPersons returns the number of distinct persons with faces
func (m *MockFaceReader) CountPersons(ctx context.Context) (int, error) {
	if m.CountPersonsError != nil {
		return 0, m.CountPersonsError
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	seen := make(map[string]struct{})
	for _, f := range m.faces {
		seen[f.PersonID] = struct{}{}
	}
	return len(seen), nil
}

// FindSimilarWithDistance returns the limit nearest faces by cosine distance
func (m *MockFaceReader) FindSimilarWithDistance(ctx context.Context, embedding []float32, limit int) ([]database.StoredFace, []float64, error) {
	m.mu.Lock()
	m.SearchCalls++
	m.mu.Unlock()

	if m.FindSimilarWDError != nil {
		return nil, nil, m.FindSimilarWDError
	}
	if err := ctx.Err(); err != nil {
		return nil, nil, err
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	type scored struct {
		face     database.StoredFace
		distance float64
	}
	all := make([]scored, 0, len(m.faces))
	for _, f := range m.faces {
		all = append(all, scored{face: f, distance: database.CosineDistance(embedding, f.Embedding)})
	}
	sort.SliceStable(all, func(i, j int) bool { return all[i].distance < all[j].distance })

	if limit < len(all) {
		all = all[:limit]
	}
	faces := make([]database.StoredFace, len(all))
	distances := make([]float64, len(all))
	for i, s := range all {
		faces[i] = s.face
		distances[i] = s.distance
	}
	return faces, distances, nil
}

// MockPersonReader is a mock implementation of database.PersonReader
type MockPersonReader struct {
	mu      sync.RWMutex
	persons map[string]database.Person

	// Error injection
	GetError        error
	ListError       error
	FindByNameError error
}

// NewMockPersonReader creates a new mock person reader
func NewMockPersonReader() *MockPersonReader {
	return &MockPersonReader{
		persons: make(map[string]database.Person),
	}
}

// AddPerson adds a person to the mock directory
func (m *MockPersonReader) AddPerson(p database.Person) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.persons[p.ID] = p
}

// Get retrieves a person by ID, returns nil if not found
func (m *MockPersonReader) Get(ctx context.Context, id string) (*database.Person, error) {
	if m.GetError != nil {
		return nil, m.GetError
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	p, ok := m.persons[id]
	if !ok {
		return nil, nil
	}
	return &p, nil
}

// List returns all persons ordered by name
func (m *MockPersonReader) List(ctx context.Context) ([]database.Person, error) {
	if m.ListError != nil {
		return nil, m.ListError
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	persons := make([]database.Person, 0, len(m.persons))
	for _, p := range m.persons {
		persons = append(persons, p)
	}
	sortPersons(persons)
	return persons, nil
}

// FindByName returns persons whose normalized name contains the normalized query
func (m *MockPersonReader) FindByName(ctx context.Context, name string) ([]database.Person, error) {
	if m.FindByNameError != nil {
		return nil, m.FindByNameError
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	needle := facematch.NormalizePersonName(name)
	var results []database.Person
	for _, p := range m.persons {
		if strings.Contains(facematch.NormalizePersonName(p.Name), needle) {
			results = append(results, p)
		}
	}
	sortPersons(results)
	return results, nil
}

func sortPersons(persons []database.Person) {
	sort.Slice(persons, func(i, j int) bool {
		if persons[i].Name != persons[j].Name {
			return persons[i].Name < persons[j].Name
		}
		return persons[i].ID < persons[j].ID
	})
}

// MockHNSWRebuilder is a mock implementation of database.HNSWRebuilder
type MockHNSWRebuilder struct {
	mu           sync.Mutex
	Enabled      bool
	Items        int
	RebuildCalls int
	SaveCalls    int

	// Error injection
	RebuildError error
	SaveError    error
}

// RebuildHNSW records a rebuild call
func (m *MockHNSWRebuilder) RebuildHNSW(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.RebuildCalls++
	if m.RebuildError != nil {
		return m.RebuildError
	}
	m.Enabled = true
	return nil
}

// HNSWCount returns the configured item count
func (m *MockHNSWRebuilder) HNSWCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.Items
}

// IsHNSWEnabled returns whether the mock index is enabled
func (m *MockHNSWRebuilder) IsHNSWEnabled() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.Enabled
}

// SaveHNSWIndex records a save call
func (m *MockHNSWRebuilder) SaveHNSWIndex(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.SaveCalls++
	return m.SaveError
}
