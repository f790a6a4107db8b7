package store

import (
	"context"
	"database/sql"
	"fmt"
	"slices"
)

// Table names a fixture table.
type Table string

const (
	TableTestResults Table = "test_results"
	TableMemberships Table = "memberships"
	TableTests       Table = "tests"
	TableCourses     Table = "courses"
	TableUsers       Table = "users"
)

// ClearOrder lists the fixture tables with dependents before the rows they
// reference. Deleting in any other order hits a foreign key.
var ClearOrder = []Table{
	TableTestResults,
	TableMemberships,
	TableTests,
	TableCourses,
	TableUsers,
}

func (t Table) valid() error {
	if !slices.Contains(ClearOrder, t) {
		return fmt.Errorf("unknown table %q", string(t))
	}
	return nil
}

// DeleteAll removes every row of one table. Deleting a table whose rows are
// still referenced fails with ErrForeignKey and removes nothing.
func (s *Store) DeleteAll(ctx context.Context, table Table) (int64, error) {
	return deleteAll(ctx, s.DB, table)
}

// Clear wipes all fixture tables in ClearOrder inside one transaction.
// It returns the number of rows removed per table.
func (s *Store) Clear(ctx context.Context) (map[Table]int64, error) {
	removed := make(map[Table]int64, len(ClearOrder))

	err := withTx(ctx, s.DB, func(tx *sql.Tx) error {
		for _, table := range ClearOrder {
			n, err := deleteAll(ctx, tx, table)
			if err != nil {
				return err
			}
			removed[table] = n
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return removed, nil
}

// Count returns the number of rows in a table.
func (s *Store) Count(ctx context.Context, table Table) (int, error) {
	if err := table.valid(); err != nil {
		return 0, err
	}

	var n int
	if err := s.DB.QueryRowContext(ctx, `SELECT COUNT(*) FROM `+string(table)).Scan(&n); err != nil {
		return 0, fmt.Errorf("count %s: %w", table, classify(err))
	}
	return n, nil
}

// Counts returns the row count of every fixture table.
func (s *Store) Counts(ctx context.Context) (map[Table]int, error) {
	counts := make(map[Table]int, len(ClearOrder))
	for _, table := range ClearOrder {
		n, err := s.Count(ctx, table)
		if err != nil {
			return nil, err
		}
		counts[table] = n
	}
	return counts, nil
}

func deleteAll(ctx context.Context, q querier, table Table) (int64, error) {
	if err := table.valid(); err != nil {
		return 0, err
	}

	res, err := q.ExecContext(ctx, `DELETE FROM `+string(table))
	if err != nil {
		return 0, fmt.Errorf("delete %s: %w", table, classify(err))
	}

	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("rows affected: %w", err)
	}
	return n, nil
}
