package seed

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/johnwards/classroom-seed/internal/domain"
	"github.com/johnwards/classroom-seed/internal/store"
)

// Options tune a Seeder.
type Options struct {
	// ParallelEnroll creates the students concurrently. Each enrollment only
	// depends on the committed course.
	ParallelEnroll bool

	// Now returns the run time that test dates are offset from. Defaults to
	// time.Now.
	Now func() time.Time
}

// Seeder wipes the fixture tables and writes the fixture data set.
type Seeder struct {
	store   *store.Store
	log     *slog.Logger
	fixture Fixture
	opts    Options
}

// Report describes what a run wrote.
type Report struct {
	RunAt    time.Time             `json:"runAt"`
	Removed  map[store.Table]int64 `json:"removed"`
	Root     *domain.User          `json:"root"`
	Course   *domain.Course        `json:"course,omitempty"`
	Students []*domain.User        `json:"students,omitempty"`
	Results  []*domain.TestResult  `json:"results,omitempty"`
	Student  string                `json:"student,omitempty"`
	Summary  *domain.ScoreSummary  `json:"summary,omitempty"`
}

// New validates the fixture and returns a Seeder writing through s.
func New(s *store.Store, logger *slog.Logger, fixture Fixture, opts Options) (*Seeder, error) {
	if err := fixture.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = slog.Default()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Seeder{store: s, log: logger, fixture: fixture, opts: opts}, nil
}

// Run performs the full workflow: clear, root user, course with tests and
// teacher membership, enrolled students, results for one student and the
// score summary. Any failure stops the run and is returned.
func (sd *Seeder) Run(ctx context.Context) (*Report, error) {
	rep := &Report{RunAt: sd.runAt()}

	var err error
	if rep.Removed, err = sd.Clear(ctx); err != nil {
		return nil, err
	}
	if rep.Root, err = sd.CreateRoot(ctx); err != nil {
		return nil, err
	}
	if rep.Course, err = sd.CreateCourse(ctx, rep.Root, rep.RunAt); err != nil {
		return nil, err
	}
	if rep.Students, err = sd.EnrollStudents(ctx, rep.Course); err != nil {
		return nil, err
	}

	student, err := sd.resultsStudent(rep.Students)
	if err != nil {
		return nil, err
	}
	rep.Student = student.Email

	if rep.Results, err = sd.RecordResults(ctx, rep.Course, rep.Root, student); err != nil {
		return nil, err
	}
	if rep.Summary, err = sd.Summarize(ctx, student); err != nil {
		return nil, err
	}

	return rep, nil
}

// RunUsers clears the fixture tables and creates only the root user.
func (sd *Seeder) RunUsers(ctx context.Context) (*Report, error) {
	rep := &Report{RunAt: sd.runAt()}

	var err error
	if rep.Removed, err = sd.Clear(ctx); err != nil {
		return nil, err
	}
	if rep.Root, err = sd.CreateRoot(ctx); err != nil {
		return nil, err
	}

	return rep, nil
}

// Clear deletes every fixture row, dependents first.
func (sd *Seeder) Clear(ctx context.Context) (map[store.Table]int64, error) {
	removed, err := sd.store.Clear(ctx)
	if err != nil {
		return nil, fmt.Errorf("clear fixture tables: %w", err)
	}

	attrs := make([]any, 0, 2*len(removed))
	for _, table := range store.ClearOrder {
		attrs = append(attrs, string(table), removed[table])
	}
	sd.log.Info("cleared fixture tables", attrs...)
	return removed, nil
}

// CreateRoot inserts the root user.
func (sd *Seeder) CreateRoot(ctx context.Context) (*domain.User, error) {
	root, err := sd.store.Users.Create(ctx, sd.fixture.Root)
	if err != nil {
		return nil, fmt.Errorf("create root user: %w", err)
	}

	sd.log.Info("created root user", "id", root.ID, "email", root.Email, "social", store.SocialKeys(root))
	return root, nil
}

// CreateCourse inserts the course, its tests dated relative to runAt and the
// teacher membership of the root user as one unit.
func (sd *Seeder) CreateCourse(ctx context.Context, root *domain.User, runAt time.Time) (*domain.Course, error) {
	in := domain.NewCourse{
		Name:    sd.fixture.Course.Name,
		Tests:   make([]domain.NewTest, 0, len(sd.fixture.Course.Tests)),
		Members: []domain.NewMember{{UserID: root.ID, Role: domain.RoleTeacher}},
	}
	for _, t := range sd.fixture.Course.Tests {
		in.Tests = append(in.Tests, domain.NewTest{
			Name: t.Name,
			Date: runAt.AddDate(0, 0, t.OffsetDays),
		})
	}

	course, err := sd.store.Courses.CreateWithChildren(ctx, in)
	if err != nil {
		return nil, fmt.Errorf("create course: %w", err)
	}

	sd.log.Info("created course", "id", course.ID, "name", course.Name, "tests", len(course.Tests))
	return course, nil
}

// EnrollStudents creates the students, each with a STUDENT membership of
// the course. Students are returned in fixture order.
func (sd *Seeder) EnrollStudents(ctx context.Context, course *domain.Course) ([]*domain.User, error) {
	students := make([]*domain.User, len(sd.fixture.Students))

	enroll := func(ctx context.Context, i int) error {
		in := sd.fixture.Students[i]
		u, _, err := sd.store.Users.CreateEnrolled(ctx, in, course.ID, domain.RoleStudent)
		if err != nil {
			return fmt.Errorf("enroll student %s: %w", in.Email, err)
		}
		students[i] = u
		sd.log.Info("enrolled student", "id", u.ID, "email", u.Email, "course", course.ID)
		return nil
	}

	if !sd.opts.ParallelEnroll {
		for i := range students {
			if err := enroll(ctx, i); err != nil {
				return nil, err
			}
		}
		return students, nil
	}

	g, gctx := errgroup.WithContext(ctx)
	for i := range students {
		g.Go(func() error { return enroll(gctx, i) })
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return students, nil
}

// RecordResults writes one result per course test for student, graded by
// grader. Scores are looked up by test name; every test must have one
// before anything is written.
func (sd *Seeder) RecordResults(ctx context.Context, course *domain.Course, grader, student *domain.User) ([]*domain.TestResult, error) {
	for _, t := range course.Tests {
		if _, ok := sd.fixture.Scores[t.Name]; !ok {
			return nil, fmt.Errorf("record results: %w: %q", ErrMissingScore, t.Name)
		}
	}

	results := make([]*domain.TestResult, 0, len(course.Tests))
	for _, t := range course.Tests {
		r, err := sd.store.Results.Create(ctx, domain.NewTestResult{
			TestID:     t.ID,
			StudentID:  student.ID,
			GradedByID: grader.ID,
			Score:      sd.fixture.Scores[t.Name],
		})
		if err != nil {
			return nil, fmt.Errorf("record result for %q: %w", t.Name, err)
		}
		results = append(results, r)
	}

	sd.log.Info("recorded test results", "student", student.Email, "grader", grader.Email, "count", len(results))
	return results, nil
}

// Summarize aggregates the student's scores and logs the summary.
func (sd *Seeder) Summarize(ctx context.Context, student *domain.User) (*domain.ScoreSummary, error) {
	sum, err := sd.store.Results.Summarize(ctx, student.ID)
	if err != nil {
		return nil, fmt.Errorf("summarize results: %w", err)
	}

	sd.log.Info("score summary",
		"student", student.Email,
		"average", sum.Average,
		"max", sum.Max,
		"min", sum.Min,
		"count", sum.Count,
	)
	return sum, nil
}

func (sd *Seeder) runAt() time.Time {
	return sd.opts.Now().UTC().Truncate(time.Microsecond)
}

func (sd *Seeder) resultsStudent(students []*domain.User) (*domain.User, error) {
	for _, s := range students {
		if s.Email == sd.fixture.ResultsFor {
			return s, nil
		}
	}
	return nil, fmt.Errorf("%w: results student %q was not created", ErrInvalidFixture, sd.fixture.ResultsFor)
}
