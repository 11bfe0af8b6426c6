package database

import (
	"time"
)

// Person is an enrolled person as recorded in the person directory.
type Person struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
}

// StoredFace is one enrolled face embedding in the face bank. A person usually has several.
type StoredFace struct {
	ID        int64
	PersonID  string
	Embedding []float32
	Model     string
	Dim       int
	CreatedAt time.Time
}
