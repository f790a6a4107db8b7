package store

import (
	"database/sql"
	"database/sql/driver"
	"errors"
	"fmt"
	"strings"

	"github.com/lib/pq"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"github.com/johnwards/classroom-seed/internal/database"
)

var (
	// ErrNotFound is returned when a requested row does not exist.
	ErrNotFound = errors.New("not found")

	// ErrForeignKey is returned when a write would break a reference between
	// rows, e.g. deleting a course that still has tests.
	ErrForeignKey = errors.New("referential integrity violation")

	// ErrUniqueViolation is returned when a write duplicates a unique value
	// such as a user email.
	ErrUniqueViolation = errors.New("uniqueness violation")

	// ErrConnection is returned when the database session is unusable:
	// the server went away or the session was already closed.
	ErrConnection = database.ErrConnection
)

// PostgreSQL SQLSTATE codes.
const (
	pqForeignKeyViolation = "23503"
	pqUniqueViolation     = "23505"
)

// database/sql does not export the error returned by a closed *sql.DB.
const errDBClosedMsg = "sql: database is closed"

// classify tags driver errors with the sentinel matching their cause. The
// original error stays in the chain.
func classify(err error) error {
	if err == nil {
		return nil
	}

	var se *sqlite.Error
	if errors.As(err, &se) {
		switch se.Code() {
		case sqlite3.SQLITE_CONSTRAINT_FOREIGNKEY:
			return fmt.Errorf("%w: %w", ErrForeignKey, err)
		case sqlite3.SQLITE_CONSTRAINT_UNIQUE, sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY:
			return fmt.Errorf("%w: %w", ErrUniqueViolation, err)
		}
		return err
	}

	var pe *pq.Error
	if errors.As(err, &pe) {
		switch pe.Code {
		case pqForeignKeyViolation:
			return fmt.Errorf("%w: %w", ErrForeignKey, err)
		case pqUniqueViolation:
			return fmt.Errorf("%w: %w", ErrUniqueViolation, err)
		}
		return err
	}

	if errors.Is(err, ErrConnection) {
		return err
	}
	if errors.Is(err, driver.ErrBadConn) || errors.Is(err, sql.ErrConnDone) ||
		strings.Contains(err.Error(), errDBClosedMsg) {
		return fmt.Errorf("%w: %w", ErrConnection, err)
	}

	return err
}
