// Package migrations embeds and applies the schema for each database driver.
package migrations

import (
	"context"
	"embed"
	"fmt"
	"io/fs"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/felixgeelhaar/layoutrack/internal/shared/infrastructure/database"
)

//go:embed sqlite/*.sql postgres/*.sql
var migrationFS embed.FS

const createVersionTable = `CREATE TABLE IF NOT EXISTS schema_migrations (
    name       TEXT PRIMARY KEY,
    applied_at TEXT NOT NULL
)`

// Files returns the ordered .up.sql file names for driver.
func Files(driver database.Driver) ([]string, error) {
	dir, err := dirFor(driver)
	if err != nil {
		return nil, err
	}
	entries, err := fs.ReadDir(migrationFS, dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read migrations directory: %w", err)
	}

	var files []string
	for _, entry := range entries {
		if strings.HasSuffix(entry.Name(), ".up.sql") {
			files = append(files, entry.Name())
		}
	}
	sort.Strings(files)
	return files, nil
}

// Run applies every migration not yet recorded in schema_migrations, each in
// its own transaction. It returns the names that were applied.
func Run(ctx context.Context, conn database.Connection, logger *slog.Logger) ([]string, error) {
	if logger == nil {
		logger = slog.Default()
	}
	driver := conn.Driver()
	dir, err := dirFor(driver)
	if err != nil {
		return nil, err
	}
	files, err := Files(driver)
	if err != nil {
		return nil, err
	}

	if _, err := conn.Exec(ctx, createVersionTable); err != nil {
		return nil, fmt.Errorf("failed to create schema_migrations: %w", err)
	}

	var applied []string
	for _, file := range files {
		done, err := isApplied(ctx, conn, file)
		if err != nil {
			return applied, err
		}
		if done {
			continue
		}

		body, err := migrationFS.ReadFile(dir + "/" + file)
		if err != nil {
			return applied, fmt.Errorf("failed to read migration %s: %w", file, err)
		}
		if err := apply(ctx, conn, file, string(body)); err != nil {
			return applied, err
		}
		logger.Info("migration applied", "driver", driver, "migration", file)
		applied = append(applied, file)
	}
	return applied, nil
}

func dirFor(driver database.Driver) (string, error) {
	switch driver {
	case database.DriverSQLite:
		return "sqlite", nil
	case database.DriverPostgres:
		return "postgres", nil
	}
	return "", fmt.Errorf("no migrations for driver %q", driver)
}

func isApplied(ctx context.Context, conn database.Connection, name string) (bool, error) {
	var n int
	q := conn.Driver().Rebind(`SELECT COUNT(*) FROM schema_migrations WHERE name = ?`)
	if err := conn.QueryRow(ctx, q, name).Scan(&n); err != nil {
		return false, fmt.Errorf("failed to check migration %s: %w", name, err)
	}
	return n > 0, nil
}

func apply(ctx context.Context, conn database.Connection, name, body string) error {
	tx, err := conn.BeginTx(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin migration %s: %w", name, err)
	}
	for _, stmt := range splitStatements(body) {
		if _, err := tx.Exec(ctx, stmt); err != nil {
			_ = tx.Rollback(ctx)
			return fmt.Errorf("failed to execute migration %s: %w", name, err)
		}
	}
	q := conn.Driver().Rebind(`INSERT INTO schema_migrations (name, applied_at) VALUES (?, ?)`)
	if _, err := tx.Exec(ctx, q, name, time.Now().UTC().Format(time.RFC3339)); err != nil {
		_ = tx.Rollback(ctx)
		return fmt.Errorf("failed to record migration %s: %w", name, err)
	}
	return tx.Commit(ctx)
}

// splitStatements splits a migration on ';' line endings. The embedded files
// contain no procedural bodies, so a plain split is enough.
func splitStatements(body string) []string {
	var out []string
	for _, part := range strings.Split(body, ";") {
		if s := strings.TrimSpace(part); s != "" {
			out = append(out, s)
		}
	}
	return out
}
