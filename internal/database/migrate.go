package database

import (
	"context"
	"fmt"
)

// Migrate runs all pending schema migrations for the session's dialect,
// each inside a transaction. Migrations are tracked in the
// schema_migrations table by version number.
func Migrate(ctx context.Context, db *DB) error {
	groups, ok := migrations[db.Dialect]
	if !ok {
		return fmt.Errorf("no migrations for dialect %q", db.Dialect)
	}

	// Ensure schema_migrations table exists (outside transaction so it's always
	// available for version checks).
	if _, err := db.ExecContext(ctx, schemaMigrationsDDL[db.Dialect]); err != nil {
		return fmt.Errorf("create schema_migrations: %w", err)
	}

	for i, stmts := range groups {
		version := i + 1

		var exists int
		if err := db.QueryRowContext(ctx, db.Rebind("SELECT COUNT(*) FROM schema_migrations WHERE version = ?"), version).Scan(&exists); err != nil {
			return fmt.Errorf("check migration %d: %w", version, err)
		}
		if exists > 0 {
			continue
		}

		tx, err := db.BeginTx(ctx, nil)
		if err != nil {
			return fmt.Errorf("begin migration %d: %w", version, err)
		}

		for _, stmt := range stmts {
			if _, err := tx.ExecContext(ctx, stmt); err != nil {
				_ = tx.Rollback()
				return fmt.Errorf("migration %d: %w", version, err)
			}
		}

		if _, err := tx.ExecContext(ctx, db.Rebind("INSERT INTO schema_migrations (version) VALUES (?)"), version); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("record migration %d: %w", version, err)
		}

		if err := tx.Commit(); err != nil {
			return fmt.Errorf("commit migration %d: %w", version, err)
		}
	}

	return nil
}
