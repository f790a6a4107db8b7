package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/johnwards/classroom-seed/internal/database"
)

// Store holds all sub-stores used by the seeder. It wraps a single session
// that the caller opens and closes.
type Store struct {
	DB      *database.DB
	Users   UserStore
	Courses CourseStore
	Results ResultStore
}

// New creates a Store with all sub-stores initialized.
func New(db *database.DB) *Store {
	return &Store{
		DB:      db,
		Users:   NewSQLUserStore(db),
		Courses: NewSQLCourseStore(db),
		Results: NewSQLResultStore(db),
	}
}

// querier is satisfied by both *sql.DB and *sql.Tx.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// withTx runs fn inside a transaction, committing on success and rolling
// back on any error.
func withTx(ctx context.Context, db *database.DB, fn func(tx *sql.Tx) error) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", classify(err))
	}

	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", classify(err))
	}
	return nil
}

// now returns the current UTC time truncated to the precision every
// supported dialect can store.
func now() time.Time {
	return time.Now().UTC().Truncate(time.Microsecond)
}
