package seed_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"math"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/johnwards/classroom-seed/internal/domain"
	"github.com/johnwards/classroom-seed/internal/seed"
	"github.com/johnwards/classroom-seed/internal/store"
	"github.com/johnwards/classroom-seed/internal/testhelpers"
)

var runAt = time.Date(2026, 3, 2, 10, 30, 0, 0, time.UTC)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func setupSeeder(t *testing.T, opts seed.Options) (*seed.Seeder, *store.Store) {
	t.Helper()

	s := store.New(testhelpers.NewMigratedDB(t))
	if opts.Now == nil {
		opts.Now = func() time.Time { return runAt }
	}

	sd, err := seed.New(s, discardLogger(), seed.DefaultFixture(), opts)
	if err != nil {
		t.Fatalf("new seeder: %v", err)
	}
	return sd, s
}

func wantCounts() map[store.Table]int {
	return map[store.Table]int{
		store.TableUsers:       3,
		store.TableCourses:     1,
		store.TableTests:       3,
		store.TableMemberships: 3,
		store.TableTestResults: 3,
	}
}

func TestRun(t *testing.T) {
	sd, s := setupSeeder(t, seed.Options{})
	ctx := context.Background()

	rep, err := sd.Run(ctx)
	if err != nil {
		t.Fatalf("run: %v", err)
	}

	counts, err := s.Counts(ctx)
	if err != nil {
		t.Fatalf("counts: %v", err)
	}
	if diff := cmp.Diff(wantCounts(), counts); diff != "" {
		t.Errorf("row counts mismatch (-want +got):\n%s", diff)
	}

	course, err := s.Courses.Get(ctx, rep.Course.ID)
	if err != nil {
		t.Fatalf("get course: %v", err)
	}

	// Test dates follow the run time by 7, 14 and 28 days.
	wantDates := []time.Time{runAt.AddDate(0, 0, 7), runAt.AddDate(0, 0, 14), runAt.AddDate(0, 0, 28)}
	if len(course.Tests) != len(wantDates) {
		t.Fatalf("expected %d tests, got %d", len(wantDates), len(course.Tests))
	}
	for i, tt := range course.Tests {
		if !tt.Date.Equal(wantDates[i]) {
			t.Errorf("test %q: Date = %v, want %v", tt.Name, tt.Date, wantDates[i])
		}
		if i > 0 && !tt.Date.After(course.Tests[i-1].Date) {
			t.Errorf("test %q is not after %q", tt.Name, course.Tests[i-1].Name)
		}
	}

	roles := map[domain.Role]int{}
	for _, m := range course.Memberships {
		roles[m.Role]++
	}
	if diff := cmp.Diff(map[domain.Role]int{domain.RoleTeacher: 1, domain.RoleStudent: 2}, roles); diff != "" {
		t.Errorf("membership roles mismatch (-want +got):\n%s", diff)
	}
	if course.Memberships[0].UserID != rep.Root.ID {
		t.Errorf("teacher = %s, want root user %s", course.Memberships[0].UserID, rep.Root.ID)
	}

	users, err := s.Users.ListByCourse(ctx, course.ID)
	if err != nil {
		t.Fatalf("list course users: %v", err)
	}
	if len(users) != 3 {
		t.Errorf("course users = %d, want 3", len(users))
	}

	root, err := s.Users.GetByEmail(ctx, "teste@email.com")
	if err != nil {
		t.Fatalf("get root: %v", err)
	}
	if diff := cmp.Diff(map[string]string{"facebook": "jonhbell", "twitter": "thejonh"}, root.Social); diff != "" {
		t.Errorf("root social mismatch (-want +got):\n%s", diff)
	}
}

func TestRunSummary(t *testing.T) {
	sd, s := setupSeeder(t, seed.Options{})
	ctx := context.Background()

	rep, err := sd.Run(ctx)
	if err != nil {
		t.Fatalf("run: %v", err)
	}

	if rep.Student != "ada@email.com" {
		t.Errorf("Student = %q, want ada@email.com", rep.Student)
	}
	if rep.Summary.Count != 3 {
		t.Errorf("Count = %d, want 3", rep.Summary.Count)
	}
	if want := (800.0 + 950.0 + 700.0) / 3; math.Abs(rep.Summary.Average-want) > 1e-9 {
		t.Errorf("Average = %v, want %v", rep.Summary.Average, want)
	}
	if rep.Summary.Max != 950 {
		t.Errorf("Max = %v, want 950", rep.Summary.Max)
	}
	if rep.Summary.Min != 700 {
		t.Errorf("Min = %v, want 700", rep.Summary.Min)
	}

	// Scores are paired with tests by name, graded by the root user.
	want := map[string]float64{"First test": 800, "Second test": 950, "Final exam": 700}
	names := map[string]string{}
	for _, tt := range rep.Course.Tests {
		names[tt.ID] = tt.Name
	}
	results, err := s.Results.ListByStudent(ctx, rep.Results[0].StudentID)
	if err != nil {
		t.Fatalf("list results: %v", err)
	}
	got := map[string]float64{}
	for _, r := range results {
		got[names[r.TestID]] = r.Score
		if r.GradedByID != rep.Root.ID {
			t.Errorf("result %s graded by %s, want root %s", r.ID, r.GradedByID, rep.Root.ID)
		}
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("scores mismatch (-want +got):\n%s", diff)
	}
}

func TestRunTwice(t *testing.T) {
	sd, s := setupSeeder(t, seed.Options{})
	ctx := context.Background()

	first, err := sd.Run(ctx)
	if err != nil {
		t.Fatalf("first run: %v", err)
	}
	second, err := sd.Run(ctx)
	if err != nil {
		t.Fatalf("second run: %v", err)
	}

	counts, err := s.Counts(ctx)
	if err != nil {
		t.Fatalf("counts: %v", err)
	}
	if diff := cmp.Diff(wantCounts(), counts); diff != "" {
		t.Errorf("row counts after second run mismatch (-want +got):\n%s", diff)
	}

	if first.Course.ID == second.Course.ID {
		t.Error("expected a fresh course ID on the second run")
	}
	if second.Removed[store.TableTestResults] != 3 || second.Removed[store.TableUsers] != 3 {
		t.Errorf("second run removed %v", second.Removed)
	}
	if *first.Summary != *second.Summary {
		t.Errorf("summary changed between runs: %+v vs %+v", first.Summary, second.Summary)
	}
}

func TestRunParallelEnroll(t *testing.T) {
	sd, s := setupSeeder(t, seed.Options{ParallelEnroll: true})
	ctx := context.Background()

	rep, err := sd.Run(ctx)
	if err != nil {
		t.Fatalf("run: %v", err)
	}

	if len(rep.Students) != 2 || rep.Students[0].Email != "ada@email.com" || rep.Students[1].Email != "caio@email.com" {
		t.Errorf("students not in fixture order: %+v", rep.Students)
	}

	counts, err := s.Counts(ctx)
	if err != nil {
		t.Fatalf("counts: %v", err)
	}
	if diff := cmp.Diff(wantCounts(), counts); diff != "" {
		t.Errorf("row counts mismatch (-want +got):\n%s", diff)
	}
}

func TestRunWithoutClearFailsOnDuplicateEmail(t *testing.T) {
	sd, _ := setupSeeder(t, seed.Options{})
	ctx := context.Background()

	if _, err := sd.Run(ctx); err != nil {
		t.Fatalf("run: %v", err)
	}

	// Skipping the clear phase leaves the root user in place.
	_, err := sd.CreateRoot(ctx)
	if !errors.Is(err, store.ErrUniqueViolation) {
		t.Fatalf("expected ErrUniqueViolation, got %v", err)
	}
}

func TestRunUsers(t *testing.T) {
	sd, s := setupSeeder(t, seed.Options{})
	ctx := context.Background()

	if _, err := sd.Run(ctx); err != nil {
		t.Fatalf("full run: %v", err)
	}

	rep, err := sd.RunUsers(ctx)
	if err != nil {
		t.Fatalf("users run: %v", err)
	}
	if rep.Root == nil || rep.Root.Email != "teste@email.com" {
		t.Fatalf("unexpected root %+v", rep.Root)
	}
	if rep.Summary != nil || rep.Course != nil {
		t.Error("users run should not create a course or summary")
	}

	counts, err := s.Counts(ctx)
	if err != nil {
		t.Fatalf("counts: %v", err)
	}
	want := map[store.Table]int{
		store.TableUsers:       1,
		store.TableCourses:     0,
		store.TableTests:       0,
		store.TableMemberships: 0,
		store.TableTestResults: 0,
	}
	if diff := cmp.Diff(want, counts); diff != "" {
		t.Errorf("row counts mismatch (-want +got):\n%s", diff)
	}
}

func TestRecordResultsMissingScore(t *testing.T) {
	sd, s := setupSeeder(t, seed.Options{})
	ctx := context.Background()

	root, err := sd.CreateRoot(ctx)
	if err != nil {
		t.Fatalf("create root: %v", err)
	}
	course, err := s.Courses.CreateWithChildren(ctx, domain.NewCourse{
		Name: "Extra",
		Tests: []domain.NewTest{
			{Name: "First test", Date: runAt},
			{Name: "Bonus round", Date: runAt.AddDate(0, 0, 1)},
		},
	})
	if err != nil {
		t.Fatalf("create course: %v", err)
	}

	_, err = sd.RecordResults(ctx, course, root, root)
	if !errors.Is(err, seed.ErrMissingScore) {
		t.Fatalf("expected ErrMissingScore, got %v", err)
	}

	n, err := s.Count(ctx, store.TableTestResults)
	if err != nil {
		t.Fatalf("count: %v", err)
	}
	if n != 0 {
		t.Errorf("test_results = %d, want 0", n)
	}
}

func TestRunFailsOnClosedDatabase(t *testing.T) {
	sd, s := setupSeeder(t, seed.Options{})

	_ = s.DB.Close()

	_, err := sd.Run(context.Background())
	if err == nil {
		t.Fatal("expected error on closed database")
	}
	if !errors.Is(err, store.ErrConnection) {
		t.Errorf("expected ErrConnection, got: %v", err)
	}
}
