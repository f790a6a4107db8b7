package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/johnwards/classroom-seed/internal/database"
	"github.com/johnwards/classroom-seed/internal/domain"
)

// CourseStore defines the interface for course persistence.
type CourseStore interface {
	CreateWithChildren(ctx context.Context, in domain.NewCourse) (*domain.Course, error)
	Get(ctx context.Context, id string) (*domain.Course, error)
	ListTests(ctx context.Context, courseID string) ([]domain.Test, error)
	ListMemberships(ctx context.Context, courseID string) ([]domain.Membership, error)
}

// SQLCourseStore implements CourseStore on a database session.
type SQLCourseStore struct {
	db *database.DB
}

// NewSQLCourseStore creates a new SQLCourseStore.
func NewSQLCourseStore(db *database.DB) *SQLCourseStore {
	return &SQLCourseStore{db: db}
}

// CreateWithChildren inserts a course, its tests in the given order and its
// memberships in a single transaction. Either every row commits or none do.
// Test positions follow the order of in.Tests, starting at 1.
func (s *SQLCourseStore) CreateWithChildren(ctx context.Context, in domain.NewCourse) (*domain.Course, error) {
	c := &domain.Course{
		ID:          uuid.NewString(),
		Name:        in.Name,
		Tests:       make([]domain.Test, 0, len(in.Tests)),
		Memberships: make([]domain.Membership, 0, len(in.Members)),
		CreatedAt:   now(),
	}

	err := withTx(ctx, s.db, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, s.db.Rebind(
			`INSERT INTO courses (id, name, created_at) VALUES (?, ?, ?)`),
			c.ID, c.Name, c.CreatedAt,
		); err != nil {
			return fmt.Errorf("insert course: %w", classify(err))
		}

		for i, nt := range in.Tests {
			t := domain.Test{
				ID:       uuid.NewString(),
				CourseID: c.ID,
				Name:     nt.Name,
				Date:     nt.Date.UTC(),
				Position: i + 1,
			}
			if _, err := tx.ExecContext(ctx, s.db.Rebind(
				`INSERT INTO tests (id, course_id, name, scheduled_at, position) VALUES (?, ?, ?, ?, ?)`),
				t.ID, t.CourseID, t.Name, t.Date, t.Position,
			); err != nil {
				return fmt.Errorf("insert test %q: %w", t.Name, classify(err))
			}
			c.Tests = append(c.Tests, t)
		}

		for _, nm := range in.Members {
			m, err := insertMembership(ctx, s.db, tx, nm.UserID, c.ID, nm.Role)
			if err != nil {
				return err
			}
			c.Memberships = append(c.Memberships, *m)
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	return c, nil
}

// Get retrieves a course with its tests and memberships populated.
func (s *SQLCourseStore) Get(ctx context.Context, id string) (*domain.Course, error) {
	var c domain.Course
	err := s.db.QueryRowContext(ctx,
		s.db.Rebind(`SELECT id, name, created_at FROM courses WHERE id = ?`), id,
	).Scan(&c.ID, &c.Name, &c.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("course %s: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("get course: %w", classify(err))
	}

	if c.Tests, err = s.ListTests(ctx, id); err != nil {
		return nil, err
	}
	if c.Memberships, err = s.ListMemberships(ctx, id); err != nil {
		return nil, err
	}

	return &c, nil
}

// ListTests returns a course's tests in creation order.
func (s *SQLCourseStore) ListTests(ctx context.Context, courseID string) ([]domain.Test, error) {
	rows, err := s.db.QueryContext(ctx, s.db.Rebind(
		`SELECT id, course_id, name, scheduled_at, position FROM tests
		 WHERE course_id = ? ORDER BY position ASC`), courseID)
	if err != nil {
		return nil, fmt.Errorf("list tests: %w", classify(err))
	}
	defer func() { _ = rows.Close() }()

	tests := []domain.Test{}
	for rows.Next() {
		var t domain.Test
		if err := rows.Scan(&t.ID, &t.CourseID, &t.Name, &t.Date, &t.Position); err != nil {
			return nil, fmt.Errorf("scan test: %w", err)
		}
		t.Date = t.Date.UTC()
		tests = append(tests, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration: %w", classify(err))
	}

	return tests, nil
}

// ListMemberships returns a course's memberships, teachers first.
func (s *SQLCourseStore) ListMemberships(ctx context.Context, courseID string) ([]domain.Membership, error) {
	rows, err := s.db.QueryContext(ctx, s.db.Rebind(
		`SELECT id, role, user_id, course_id, created_at FROM memberships
		 WHERE course_id = ?
		 ORDER BY CASE WHEN role = 'TEACHER' THEN 0 ELSE 1 END, created_at ASC, id ASC`), courseID)
	if err != nil {
		return nil, fmt.Errorf("list memberships: %w", classify(err))
	}
	defer func() { _ = rows.Close() }()

	memberships := []domain.Membership{}
	for rows.Next() {
		var (
			m    domain.Membership
			role string
		)
		if err := rows.Scan(&m.ID, &role, &m.UserID, &m.CourseID, &m.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan membership: %w", err)
		}
		if m.Role, err = domain.ParseRole(role); err != nil {
			return nil, fmt.Errorf("membership %s: %w", m.ID, err)
		}
		memberships = append(memberships, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration: %w", classify(err))
	}

	return memberships, nil
}

func insertMembership(ctx context.Context, db *database.DB, q querier, userID, courseID string, role domain.Role) (*domain.Membership, error) {
	if _, err := domain.ParseRole(string(role)); err != nil {
		return nil, fmt.Errorf("insert membership: %w", err)
	}

	m := &domain.Membership{
		ID:        uuid.NewString(),
		Role:      role,
		UserID:    userID,
		CourseID:  courseID,
		CreatedAt: now(),
	}

	if _, err := q.ExecContext(ctx, db.Rebind(
		`INSERT INTO memberships (id, role, user_id, course_id, created_at) VALUES (?, ?, ?, ?, ?)`),
		m.ID, string(m.Role), m.UserID, m.CourseID, m.CreatedAt,
	); err != nil {
		return nil, fmt.Errorf("insert %s membership for user %s: %w", role, userID, classify(err))
	}

	return m, nil
}
