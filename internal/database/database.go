package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/xo/dburl"
	_ "modernc.org/sqlite"
)

// Dialect identifies the SQL flavour spoken by a connection.
type Dialect string

const (
	SQLite   Dialect = "sqlite"
	Postgres Dialect = "postgres"
)

// ErrConnection is returned when the database cannot be reached.
var ErrConnection = errors.New("database connection failed")

// DB is a database session together with the dialect it speaks. It is
// opened once by the caller and passed to everything that needs it.
type DB struct {
	*sql.DB
	Dialect Dialect
}

// Open opens a SQLite database at the given DSN and configures it for
// production use: WAL mode, foreign keys enabled, busy timeout of 5s.
func Open(dsn string) (*DB, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	// Single connection for SQLite to avoid locking issues.
	db.SetMaxOpenConns(1)

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA foreign_keys=ON",
		"PRAGMA busy_timeout=5000",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("exec %q: %w: %w", p, ErrConnection, err)
		}
	}

	return &DB{DB: db, Dialect: SQLite}, nil
}

// OpenPostgres opens a PostgreSQL database through lib/pq and verifies the
// server is reachable.
func OpenPostgres(ctx context.Context, dsn string) (*DB, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping postgres: %w: %w", ErrConnection, err)
	}

	return &DB{DB: db, Dialect: Postgres}, nil
}

// Target is a parsed connection string.
type Target struct {
	Dialect Dialect
	DSN     string
}

// ParseURL resolves a connection URL such as "postgres://u:p@host/db" or
// "sqlite:seed.db" to a dialect and a driver DSN.
func ParseURL(rawURL string) (Target, error) {
	u, err := dburl.Parse(rawURL)
	if err != nil {
		return Target{}, fmt.Errorf("parse database url: %w", err)
	}

	switch u.Driver {
	case "sqlite3", "sqlite":
		return Target{Dialect: SQLite, DSN: u.DSN}, nil
	case "postgres":
		return Target{Dialect: Postgres, DSN: u.DSN}, nil
	default:
		return Target{}, fmt.Errorf("unsupported database driver %q", u.Driver)
	}
}

// OpenURL parses rawURL and opens a session for the matching dialect.
func OpenURL(ctx context.Context, rawURL string) (*DB, error) {
	target, err := ParseURL(rawURL)
	if err != nil {
		return nil, err
	}

	if target.Dialect == Postgres {
		return OpenPostgres(ctx, target.DSN)
	}
	return Open(target.DSN)
}

// Rebind rewrites "?" placeholders into the form the dialect expects.
// PostgreSQL uses positional "$1", "$2", ... parameters.
func (db *DB) Rebind(query string) string {
	return Rebind(db.Dialect, query)
}

// Rebind rewrites "?" placeholders for the given dialect.
func Rebind(d Dialect, query string) string {
	if d != Postgres {
		return query
	}
	return sqlx.Rebind(sqlx.DOLLAR, query)
}
