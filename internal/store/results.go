package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"github.com/johnwards/classroom-seed/internal/database"
	"github.com/johnwards/classroom-seed/internal/domain"
)

// ResultStore defines the interface for test result persistence.
type ResultStore interface {
	Create(ctx context.Context, in domain.NewTestResult) (*domain.TestResult, error)
	ListByStudent(ctx context.Context, studentID string) ([]*domain.TestResult, error)
	Summarize(ctx context.Context, studentID string) (*domain.ScoreSummary, error)
}

// SQLResultStore implements ResultStore on a database session.
type SQLResultStore struct {
	db *database.DB
}

// NewSQLResultStore creates a new SQLResultStore.
func NewSQLResultStore(db *database.DB) *SQLResultStore {
	return &SQLResultStore{db: db}
}

// Create inserts a new test result.
func (s *SQLResultStore) Create(ctx context.Context, in domain.NewTestResult) (*domain.TestResult, error) {
	r := &domain.TestResult{
		ID:         uuid.NewString(),
		TestID:     in.TestID,
		StudentID:  in.StudentID,
		GradedByID: in.GradedByID,
		Score:      in.Score,
		CreatedAt:  now(),
	}

	if _, err := s.db.ExecContext(ctx, s.db.Rebind(
		`INSERT INTO test_results (id, test_id, student_id, graded_by_id, score, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)`),
		r.ID, r.TestID, r.StudentID, r.GradedByID, r.Score, r.CreatedAt,
	); err != nil {
		return nil, fmt.Errorf("insert test result: %w", classify(err))
	}

	return r, nil
}

// ListByStudent returns a student's results in the order of the course tests.
func (s *SQLResultStore) ListByStudent(ctx context.Context, studentID string) ([]*domain.TestResult, error) {
	rows, err := s.db.QueryContext(ctx, s.db.Rebind(
		`SELECT r.id, r.test_id, r.student_id, r.graded_by_id, r.score, r.created_at
		 FROM test_results r
		 JOIN tests t ON t.id = r.test_id
		 WHERE r.student_id = ?
		 ORDER BY t.course_id ASC, t.position ASC`), studentID)
	if err != nil {
		return nil, fmt.Errorf("list test results: %w", classify(err))
	}
	defer func() { _ = rows.Close() }()

	var results []*domain.TestResult
	for rows.Next() {
		var r domain.TestResult
		if err := rows.Scan(&r.ID, &r.TestID, &r.StudentID, &r.GradedByID, &r.Score, &r.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan test result: %w", err)
		}
		results = append(results, &r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration: %w", classify(err))
	}

	return results, nil
}

// Summarize computes the average, maximum, minimum and count of a student's
// scores. A student without results gets a zero summary.
func (s *SQLResultStore) Summarize(ctx context.Context, studentID string) (*domain.ScoreSummary, error) {
	var (
		avg, maxScore, minScore sql.NullFloat64
		count                   int
	)
	err := s.db.QueryRowContext(ctx, s.db.Rebind(
		`SELECT AVG(score), MAX(score), MIN(score), COUNT(*) FROM test_results WHERE student_id = ?`),
		studentID,
	).Scan(&avg, &maxScore, &minScore, &count)
	if err != nil {
		return nil, fmt.Errorf("summarize test results: %w", classify(err))
	}

	return &domain.ScoreSummary{
		Average: avg.Float64,
		Max:     maxScore.Float64,
		Min:     minScore.Float64,
		Count:   count,
	}, nil
}
