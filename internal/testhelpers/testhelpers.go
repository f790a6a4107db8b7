package testhelpers

import (
	"context"
	"os"
	"testing"

	"github.com/johnwards/classroom-seed/internal/database"
)

// NewTestDB returns an in-memory SQLite database configured the same way as
// production. The database is automatically closed when the test completes.
func NewTestDB(t *testing.T) *database.DB {
	t.Helper()

	db, err := database.Open(":memory:")
	if err != nil {
		t.Fatalf("open test database: %v", err)
	}

	t.Cleanup(func() {
		_ = db.Close()
	})

	return db
}

// NewMigratedDB returns an in-memory database with the classroom schema
// applied.
func NewMigratedDB(t *testing.T) *database.DB {
	t.Helper()

	db := NewTestDB(t)
	if err := database.Migrate(context.Background(), db); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

// NewPostgresDB opens the PostgreSQL database named by TEST_DATABASE_URL and
// applies the classroom schema. The test is skipped when the variable is
// unset. The database is shared, so callers must not assume it starts empty.
func NewPostgresDB(t *testing.T) *database.DB {
	t.Helper()

	url := os.Getenv("TEST_DATABASE_URL")
	if url == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}

	ctx := context.Background()
	db, err := database.OpenURL(ctx, url)
	if err != nil {
		t.Fatalf("open postgres: %v", err)
	}
	t.Cleanup(func() {
		_ = db.Close()
	})

	if db.Dialect != database.Postgres {
		t.Fatalf("TEST_DATABASE_URL dialect = %q, want postgres", db.Dialect)
	}
	if err := database.Migrate(ctx, db); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}
