// Package database abstracts the PostgreSQL and SQLite backends behind one
// executor interface. Queries are written with '?' placeholders and passed
// through Driver.Rebind.
package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/jackc/pgx/v5"
)

// Driver names a database backend.
type Driver string

const (
	DriverPostgres Driver = "postgres"
	DriverSQLite   Driver = "sqlite"
)

func (d Driver) String() string { return string(d) }

// DetectDriver guesses the backend from a connection string. An empty URL
// selects SQLite so the CLI works without configuration; anything that does
// not look like a SQLite file is treated as PostgreSQL.
func DetectDriver(url string) Driver {
	switch {
	case url == "":
		return DriverSQLite
	case strings.HasPrefix(url, "sqlite://"), strings.HasPrefix(url, "file:"):
		return DriverSQLite
	}
	switch filepath.Ext(url) {
	case ".db", ".sqlite", ".sqlite3":
		return DriverSQLite
	}
	return DriverPostgres
}

// Rebind rewrites '?' placeholders to $1..$n for PostgreSQL. Question marks
// inside single-quoted literals are kept.
func (d Driver) Rebind(query string) string {
	if d != DriverPostgres || !strings.Contains(query, "?") {
		return query
	}
	var b strings.Builder
	b.Grow(len(query) + 8)
	n, quoted := 0, false
	for _, c := range []byte(query) {
		switch {
		case c == '\'':
			quoted = !quoted
		case c == '?' && !quoted:
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteByte(c)
	}
	return b.String()
}

// Row is satisfied by pgx.Row and *sql.Row.
type Row interface {
	Scan(dest ...any) error
}

// Rows is satisfied by *sql.Rows and the pgx adapter.
type Rows interface {
	Next() bool
	Scan(dest ...any) error
	Close() error
	Err() error
}

// Result is satisfied by sql.Result and the pgx adapter.
type Result interface {
	RowsAffected() (int64, error)
	LastInsertId() (int64, error)
}

// Executor runs queries on a connection or inside a transaction.
type Executor interface {
	Exec(ctx context.Context, query string, args ...any) (Result, error)
	QueryRow(ctx context.Context, query string, args ...any) Row
	Query(ctx context.Context, query string, args ...any) (Rows, error)
}

// Transaction is an Executor that can be committed or rolled back.
type Transaction interface {
	Executor
	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error
}

// Connection is a pooled database handle.
type Connection interface {
	Executor
	BeginTx(ctx context.Context) (Transaction, error)
	Ping(ctx context.Context) error
	Close() error
	Driver() Driver
}

// ErrNoRows is returned when a statement expected to touch a row touched none.
var ErrNoRows = errors.New("no rows in result set")

// IsNoRows reports whether err means "not found" for either backend.
func IsNoRows(err error) bool {
	return errors.Is(err, ErrNoRows) || errors.Is(err, sql.ErrNoRows) || errors.Is(err, pgx.ErrNoRows)
}

// Config selects and configures a backend.
type Config struct {
	// Driver is detected from URL when empty or "auto".
	Driver Driver
	// URL is the PostgreSQL connection string.
	URL string
	// SQLitePath defaults to DefaultSQLitePath.
	SQLitePath string
	// MaxConns caps the PostgreSQL pool.
	MaxConns int
}

// Factory opens a connection for one backend.
type Factory func(ctx context.Context, cfg Config) (Connection, error)

// Backend packages register themselves from init; callers import them for
// side effects.
var factories = map[Driver]Factory{}

// Register installs the factory for d.
func Register(d Driver, f Factory) {
	factories[d] = f
}

// NewConnection opens a connection with the registered factory for cfg's driver.
func NewConnection(ctx context.Context, cfg Config) (Connection, error) {
	d := cfg.Driver
	if d == "" || d == "auto" {
		d = DetectDriver(cfg.URL)
	}
	f, ok := factories[d]
	if !ok {
		return nil, fmt.Errorf("database driver %q not registered", d)
	}
	return f(ctx, cfg)
}

// DefaultSQLitePath is ~/.layoutrack/layouts.db.
func DefaultSQLitePath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		home = "."
	}
	return filepath.Join(home, ".layoutrack", "layouts.db")
}
