package store_test

import (
	"context"
	"testing"
	"time"

	"github.com/johnwards/classroom-seed/internal/domain"
	"github.com/johnwards/classroom-seed/internal/store"
	"github.com/johnwards/classroom-seed/internal/testhelpers"
)

var (
	_ store.UserStore   = (*store.SQLUserStore)(nil)
	_ store.CourseStore = (*store.SQLCourseStore)(nil)
	_ store.ResultStore = (*store.SQLResultStore)(nil)
)

func setupStore(t *testing.T) *store.Store {
	t.Helper()
	return store.New(testhelpers.NewMigratedDB(t))
}

func mustCreateUser(t *testing.T, s *store.Store, email string) *domain.User {
	t.Helper()
	u, err := s.Users.Create(context.Background(), domain.NewUser{
		Email:     email,
		FirstName: "Test",
		LastName:  "User",
		Social:    map[string]string{"twitter": "t_" + email},
	})
	if err != nil {
		t.Fatalf("create user %s: %v", email, err)
	}
	return u
}

func mustCreateCourse(t *testing.T, s *store.Store, teacherID string) *domain.Course {
	t.Helper()
	base := time.Date(2026, 1, 5, 9, 0, 0, 0, time.UTC)
	c, err := s.Courses.CreateWithChildren(context.Background(), domain.NewCourse{
		Name: "Databases 101",
		Tests: []domain.NewTest{
			{Name: "Quiz", Date: base.AddDate(0, 0, 7)},
			{Name: "Midterm", Date: base.AddDate(0, 0, 14)},
		},
		Members: []domain.NewMember{{UserID: teacherID, Role: domain.RoleTeacher}},
	})
	if err != nil {
		t.Fatalf("create course: %v", err)
	}
	return c
}
