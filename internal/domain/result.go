package domain

import "time"

// TestResult is a graded score for one student on one test.
type TestResult struct {
	ID         string    `json:"id"`
	TestID     string    `json:"testId"`
	StudentID  string    `json:"studentId"`
	GradedByID string    `json:"gradedById"`
	Score      float64   `json:"score"`
	CreatedAt  time.Time `json:"createdAt"`
}

// NewTestResult holds the fields supplied when recording a result.
type NewTestResult struct {
	TestID     string
	StudentID  string
	GradedByID string
	Score      float64
}

// ScoreSummary aggregates a student's results.
type ScoreSummary struct {
	Average float64 `json:"average"`
	Max     float64 `json:"max"`
	Min     float64 `json:"min"`
	Count   int     `json:"count"`
}
