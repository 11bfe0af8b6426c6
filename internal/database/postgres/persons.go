package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/kozaktomas/facebank/internal/database"
	"github.com/kozaktomas/facebank/internal/facematch"
)

// PersonRepository reads person records from the persons table.
type PersonRepository struct {
	pool *Pool
}

// NewPersonRepository creates a new PostgreSQL person repository.
func NewPersonRepository(pool *Pool) *PersonRepository {
	return &PersonRepository{pool: pool}
}

// Get retrieves a person by ID, returns nil if not found.
func (r *PersonRepository) Get(ctx context.Context, id string) (*database.Person, error) {
	var p database.Person
	err := r.pool.QueryRow(ctx, "SELECT id, name, created_at FROM persons WHERE id = $1", id).
		Scan(&p.ID, &p.Name, &p.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get person: %w", err)
	}
	return &p, nil
}

// List returns all persons ordered by name.
func (r *PersonRepository) List(ctx context.Context) ([]database.Person, error) {
	rows, err := r.pool.Query(ctx, "SELECT id, name, created_at FROM persons ORDER BY name, id")
	if err != nil {
		return nil, fmt.Errorf("list persons: %w", err)
	}
	defer rows.Close()
	return scanPersons(rows)
}

// FindByName matches the normalized query against normalized names.
// PostgreSQL unaccent + LOWER + REPLACE mirrors facematch.NormalizePersonName.
func (r *PersonRepository) FindByName(ctx context.Context, name string) ([]database.Person, error) {
	query := `
		SELECT id, name, created_at
		FROM persons
		WHERE LOWER(REPLACE(unaccent(name), '-', ' ')) LIKE '%' || $1 || '%'
		ORDER BY name, id
	`
	rows, err := r.pool.Query(ctx, query, facematch.NormalizePersonName(name))
	if err != nil {
		return nil, fmt.Errorf("find persons by name: %w", err)
	}
	defer rows.Close()
	return scanPersons(rows)
}

func scanPersons(rows *sql.Rows) ([]database.Person, error) {
	var persons []database.Person
	for rows.Next() {
		var p database.Person
		if err := rows.Scan(&p.ID, &p.Name, &p.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan person: %w", err)
		}
		persons = append(persons, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate persons: %w", err)
	}
	return persons, nil
}
