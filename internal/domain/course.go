package domain

import (
	"fmt"
	"time"
)

// Role is a user's role within a course.
type Role string

const (
	RoleTeacher Role = "TEACHER"
	RoleStudent Role = "STUDENT"
)

// ParseRole converts a stored role string into a Role.
func ParseRole(s string) (Role, error) {
	switch r := Role(s); r {
	case RoleTeacher, RoleStudent:
		return r, nil
	default:
		return "", fmt.Errorf("unknown role %q", s)
	}
}

// Course groups an ordered set of tests and the users enrolled in it.
type Course struct {
	ID          string       `json:"id"`
	Name        string       `json:"name"`
	Tests       []Test       `json:"tests"`
	Memberships []Membership `json:"memberships"`
	CreatedAt   time.Time    `json:"createdAt"`
}

// Test is a scheduled assessment belonging to exactly one course.
type Test struct {
	ID       string    `json:"id"`
	CourseID string    `json:"courseId"`
	Name     string    `json:"name"`
	Date     time.Time `json:"date"`
	Position int       `json:"position"`
}

// Membership links a user to a course with a role.
type Membership struct {
	ID        string    `json:"id"`
	Role      Role      `json:"role"`
	UserID    string    `json:"userId"`
	CourseID  string    `json:"courseId"`
	CreatedAt time.Time `json:"createdAt"`
}

// NewTest describes a test created together with its course.
type NewTest struct {
	Name string
	Date time.Time
}

// NewMember describes a membership created together with its course.
type NewMember struct {
	UserID string
	Role   Role
}

// NewCourse is a course with the children inserted in the same unit of work.
type NewCourse struct {
	Name    string
	Tests   []NewTest
	Members []NewMember
}
