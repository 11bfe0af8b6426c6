package mariadb

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/kozaktomas/facebank/internal/database"
	"github.com/kozaktomas/facebank/internal/facematch"
)

// PersonRepository reads persons from the directory's persons table.
type PersonRepository struct {
	pool *Pool
}

// NewPersonRepository creates a MariaDB-backed person directory.
func NewPersonRepository(pool *Pool) *PersonRepository {
	return &PersonRepository{pool: pool}
}

// Get retrieves a person by ID, returns nil if not found.
func (r *PersonRepository) Get(ctx context.Context, id string) (*database.Person, error) {
	var p database.Person
	err := r.pool.db.QueryRowContext(ctx, `SELECT id, name, created_at FROM persons WHERE id = ?`, id).
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
	rows, err := r.pool.db.QueryContext(ctx, `SELECT id, name, created_at FROM persons ORDER BY name, id`)
	if err != nil {
		return nil, fmt.Errorf("list persons: %w", err)
	}
	defer rows.Close()
	return scanPersons(rows)
}

// FindByName returns persons whose normalized name contains the normalized query.
// utf8mb4 general collations are accent-insensitive, so the LIKE narrows
// candidates and the final match runs through facematch.NormalizePersonName.
func (r *PersonRepository) FindByName(ctx context.Context, name string) ([]database.Person, error) {
	needle := facematch.NormalizePersonName(name)
	pattern := "%" + strings.ReplaceAll(needle, " ", "%") + "%"

	rows, err := r.pool.db.QueryContext(ctx,
		`SELECT id, name, created_at FROM persons WHERE REPLACE(name, '-', ' ') LIKE ? ORDER BY name, id`, pattern)
	if err != nil {
		return nil, fmt.Errorf("find persons by name: %w", err)
	}
	defer rows.Close()

	candidates, err := scanPersons(rows)
	if err != nil {
		return nil, err
	}

	var matched []database.Person
	for _, p := range candidates {
		if strings.Contains(facematch.NormalizePersonName(p.Name), needle) {
			matched = append(matched, p)
		}
	}
	return matched, nil
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
