package storage

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"io/fs"
	"sort"
	"strings"
)

//go:embed migrations/*.sql
var migrationFiles embed.FS

// Migrator applies the embedded schema migrations in version order and
// records each one in schema_migrations.
type Migrator struct {
	db     *sql.DB
	driver string
	files  fs.FS
}

func NewMigrator(db *sql.DB, driver string) *Migrator {
	sub, _ := fs.Sub(migrationFiles, "migrations")
	return &Migrator{db: db, driver: driver, files: sub}
}

// MigrationStatus describes what Migrate would do.
type MigrationStatus struct {
	Applied []string
	Pending []string
}

// Status lists applied and pending migration versions.
func (m *Migrator) Status(ctx context.Context) (*MigrationStatus, error) {
	if err := m.ensureSchemaMigrationsTable(ctx); err != nil {
		return nil, err
	}
	applied, err := m.appliedVersions(ctx)
	if err != nil {
		return nil, err
	}
	versions, err := m.listMigrations()
	if err != nil {
		return nil, err
	}

	status := &MigrationStatus{}
	for _, v := range versions {
		if applied[v.version] {
			status.Applied = append(status.Applied, v.version)
		} else {
			status.Pending = append(status.Pending, v.version)
		}
	}
	return status, nil
}

// Migrate applies every pending migration and returns their versions.
func (m *Migrator) Migrate(ctx context.Context) ([]string, error) {
	status, err := m.Status(ctx)
	if err != nil {
		return nil, err
	}
	versions, err := m.listMigrations()
	if err != nil {
		return nil, err
	}
	pending := make(map[string]bool, len(status.Pending))
	for _, v := range status.Pending {
		pending[v] = true
	}

	var ran []string
	for _, v := range versions {
		if !pending[v.version] {
			continue
		}
		if err := m.runMigration(ctx, v); err != nil {
			return ran, fmt.Errorf("migration %s: %w", v.version, err)
		}
		ran = append(ran, v.version)
	}
	return ran, nil
}

func (m *Migrator) ensureSchemaMigrationsTable(ctx context.Context) error {
	var query string
	switch m.driver {
	case DriverPostgres:
		query = `
			CREATE TABLE IF NOT EXISTS schema_migrations (
				id SERIAL PRIMARY KEY,
				version TEXT UNIQUE NOT NULL,
				applied_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
			)
		`
	default:
		query = `
			CREATE TABLE IF NOT EXISTS schema_migrations (
				id INTEGER PRIMARY KEY AUTOINCREMENT,
				version TEXT UNIQUE NOT NULL,
				applied_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
			)
		`
	}
	if _, err := m.db.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("create schema_migrations: %w", err)
	}
	return nil
}

func (m *Migrator) appliedVersions(ctx context.Context) (map[string]bool, error) {
	rows, err := m.db.QueryContext(ctx, "SELECT version FROM schema_migrations")
	if err != nil {
		return nil, fmt.Errorf("list applied migrations: %w", err)
	}
	defer rows.Close()

	applied := make(map[string]bool)
	for rows.Next() {
		var v string
		if err := rows.Scan(&v); err != nil {
			return nil, err
		}
		applied[v] = true
	}
	return applied, rows.Err()
}

type migration struct {
	version string
	file    string
}

// listMigrations picks one file per version: the _sqlite.sql variant on
// SQLite when it exists, the plain .sql file otherwise.
func (m *Migrator) listMigrations() ([]migration, error) {
	entries, err := fs.ReadDir(m.files, ".")
	if err != nil {
		return nil, fmt.Errorf("read migrations: %w", err)
	}

	plain := make(map[string]string)
	sqlite := make(map[string]string)
	for _, e := range entries {
		name := e.Name()
		switch {
		case e.IsDir() || !strings.HasSuffix(name, ".sql"):
			continue
		case strings.HasSuffix(name, "_sqlite.sql"):
			sqlite[strings.TrimSuffix(name, "_sqlite.sql")] = name
		default:
			plain[strings.TrimSuffix(name, ".sql")] = name
		}
	}

	var out []migration
	for version, file := range plain {
		if m.driver != DriverPostgres {
			if alt, ok := sqlite[version]; ok {
				file = alt
			}
		}
		out = append(out, migration{version: version, file: file})
	}
	for version, file := range sqlite {
		if _, ok := plain[version]; !ok && m.driver != DriverPostgres {
			out = append(out, migration{version: version, file: file})
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].version < out[j].version })
	return out, nil
}

func (m *Migrator) runMigration(ctx context.Context, mig migration) error {
	data, err := fs.ReadFile(m.files, mig.file)
	if err != nil {
		return fmt.Errorf("read migration file: %w", err)
	}

	tx, err := m.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for _, stmt := range splitStatements(string(data)) {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("execute migration: %w", err)
		}
	}
	if _, err := tx.ExecContext(ctx, "INSERT INTO schema_migrations (version) VALUES ($1)", mig.version); err != nil {
		return fmt.Errorf("record migration: %w", err)
	}
	return tx.Commit()
}

// splitStatements splits a migration on semicolons and drops comment-only
// chunks. The embedded migrations contain no string literals with semicolons.
func splitStatements(sql string) []string {
	var out []string
	for _, part := range strings.Split(sql, ";") {
		var lines []string
		for _, line := range strings.Split(part, "\n") {
			if t := strings.TrimSpace(line); t != "" && !strings.HasPrefix(t, "--") {
				lines = append(lines, line)
			}
		}
		if len(lines) > 0 {
			out = append(out, strings.TrimSpace(strings.Join(lines, "\n")))
		}
	}
	return out
}
