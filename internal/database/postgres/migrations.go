package postgres

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"log"
	"slices"
	"strings"
	"time"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// migrationLockKey is the pg_advisory_lock key held while migrating, so
// a server and a CLI starting together do not apply the same file twice.
const migrationLockKey = 0x66616365 // "face"

// Migration is one embedded schema file and when it was applied.
type Migration struct {
	Version   string
	AppliedAt *time.Time
}

// Applied reports whether the migration has run against the database.
func (m Migration) Applied() bool {
	return m.AppliedAt != nil
}

type queryer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

func embeddedMigrations() ([]string, error) {
	entries, err := migrationsFS.ReadDir("migrations")
	if err != nil {
		return nil, fmt.Errorf("read migrations directory: %w", err)
	}
	var files []string
	for _, e := range entries {
		if strings.HasSuffix(e.Name(), ".sql") {
			files = append(files, e.Name())
		}
	}
	slices.Sort(files)
	return files, nil
}

// appliedMigrations creates the bookkeeping table if needed and returns applied versions.
func appliedMigrations(ctx context.Context, q queryer) (map[string]time.Time, error) {
	if _, err := q.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version VARCHAR(255) PRIMARY KEY,
			applied_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)
	`); err != nil {
		return nil, fmt.Errorf("create migrations table: %w", err)
	}

	rows, err := q.QueryContext(ctx, "SELECT version, applied_at FROM schema_migrations")
	if err != nil {
		return nil, fmt.Errorf("query applied migrations: %w", err)
	}
	defer rows.Close()

	applied := make(map[string]time.Time)
	for rows.Next() {
		var (
			version string
			at      time.Time
		)
		if err := rows.Scan(&version, &at); err != nil {
			return nil, fmt.Errorf("scan migration version: %w", err)
		}
		applied[version] = at
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate applied migrations: %w", err)
	}
	return applied, nil
}

// Migrate applies pending embedded migrations in filename order, one transaction
// per file, while holding an advisory lock.
func (p *Pool) Migrate(ctx context.Context) error {
	conn, err := p.db.Conn(ctx)
	if err != nil {
		return fmt.Errorf("acquire migration connection: %w", err)
	}
	defer conn.Close()

	if _, err := conn.ExecContext(ctx, "SELECT pg_advisory_lock($1)", migrationLockKey); err != nil {
		return fmt.Errorf("acquire migration lock: %w", err)
	}
	defer func() {
		if _, err := conn.ExecContext(context.Background(), "SELECT pg_advisory_unlock($1)", migrationLockKey); err != nil {
			log.Printf("Warning: failed to release migration lock: %v", err)
		}
	}()

	applied, err := appliedMigrations(ctx, conn)
	if err != nil {
		return err
	}
	files, err := embeddedMigrations()
	if err != nil {
		return err
	}

	for _, file := range files {
		if _, ok := applied[file]; ok {
			continue
		}
		if err := applyMigration(ctx, conn, file); err != nil {
			return err
		}
		log.Printf("Applied migration: %s", file)
	}
	return nil
}

func applyMigration(ctx context.Context, conn *sql.Conn, file string) error {
	content, err := migrationsFS.ReadFile("migrations/" + file)
	if err != nil {
		return fmt.Errorf("read migration %s: %w", file, err)
	}

	tx, err := conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction for %s: %w", file, err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, string(content)); err != nil {
		return fmt.Errorf("execute migration %s: %w", file, err)
	}
	if _, err := tx.ExecContext(ctx, "INSERT INTO schema_migrations (version) VALUES ($1)", file); err != nil {
		return fmt.Errorf("record migration %s: %w", file, err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit migration %s: %w", file, err)
	}
	return nil
}

// MigrationStatus lists every embedded migration with its applied time, if any.
func (p *Pool) MigrationStatus(ctx context.Context) ([]Migration, error) {
	applied, err := appliedMigrations(ctx, p.db)
	if err != nil {
		return nil, err
	}
	files, err := embeddedMigrations()
	if err != nil {
		return nil, err
	}

	status := make([]Migration, 0, len(files))
	for _, file := range files {
		m := Migration{Version: file}
		if at, ok := applied[file]; ok {
			m.AppliedAt = &at
		}
		status = append(status, m)
	}
	return status, nil
}
