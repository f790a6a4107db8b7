package seed

import (
	"errors"
	"fmt"
	"slices"

	"github.com/go-playground/validator/v10"

	"github.com/johnwards/classroom-seed/internal/domain"
)

var (
	// ErrInvalidFixture is returned when fixture data fails validation.
	ErrInvalidFixture = errors.New("invalid fixture")

	// ErrMissingScore is returned when a course test has no score paired
	// with it by name.
	ErrMissingScore = errors.New("missing score for test")
)

// TestFixture is a test scheduled OffsetDays after the seed run.
type TestFixture struct {
	Name       string `validate:"required"`
	OffsetDays int    `validate:"gt=0"`
}

// CourseFixture is the course created with its tests.
type CourseFixture struct {
	Name  string        `validate:"required"`
	Tests []TestFixture `validate:"required,min=1,unique=Name,dive"`
}

// Fixture is the complete data set written by a seed run.
type Fixture struct {
	Root     domain.NewUser
	Course   CourseFixture
	Students []domain.NewUser `validate:"required,min=1,dive"`

	// ResultsFor is the email of the student whose results are recorded.
	ResultsFor string `validate:"required,email"`

	// Scores pairs each course test, by name, with the score recorded for it.
	Scores map[string]float64 `validate:"required,dive,keys,required,endkeys,gte=0"`
}

// DefaultFixture returns the standard development data set.
func DefaultFixture() Fixture {
	return Fixture{
		Root: domain.NewUser{
			Email:     "teste@email.com",
			FirstName: "Jonh",
			LastName:  "Bell",
			Social: map[string]string{
				"facebook": "jonhbell",
				"twitter":  "thejonh",
			},
		},
		Course: CourseFixture{
			Name: "Relational Data Modeling",
			Tests: []TestFixture{
				{Name: "First test", OffsetDays: 7},
				{Name: "Second test", OffsetDays: 14},
				{Name: "Final exam", OffsetDays: 28},
			},
		},
		Students: []domain.NewUser{
			{
				Email:     "ada@email.com",
				FirstName: "Ada",
				LastName:  "Moreira",
				Social: map[string]string{
					"linkedin": "adamoreira",
				},
			},
			{
				Email:     "caio@email.com",
				FirstName: "Caio",
				LastName:  "Souza",
				Social: map[string]string{
					"twitter":  "caiosouza",
					"linkedin": "caio-souza",
				},
			},
		},
		ResultsFor: "ada@email.com",
		Scores: map[string]float64{
			"First test":  800,
			"Second test": 950,
			"Final exam":  700,
		},
	}
}

var validate = validator.New()

// Validate checks field constraints and the cross references between
// fixture parts: unique emails, a results student that is enrolled, test
// dates in strictly increasing order and exactly one score per test.
func (f Fixture) Validate() error {
	if err := validate.Struct(f); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidFixture, err)
	}

	emails := []string{f.Root.Email}
	for _, s := range f.Students {
		if slices.Contains(emails, s.Email) {
			return fmt.Errorf("%w: duplicate email %q", ErrInvalidFixture, s.Email)
		}
		emails = append(emails, s.Email)
	}
	if !slices.Contains(emails[1:], f.ResultsFor) {
		return fmt.Errorf("%w: results student %q is not enrolled", ErrInvalidFixture, f.ResultsFor)
	}

	prev := 0
	for _, t := range f.Course.Tests {
		if t.OffsetDays <= prev {
			return fmt.Errorf("%w: test %q is not scheduled after the previous test", ErrInvalidFixture, t.Name)
		}
		prev = t.OffsetDays

		if _, ok := f.Scores[t.Name]; !ok {
			return fmt.Errorf("%w: %q", ErrMissingScore, t.Name)
		}
	}
	for name := range f.Scores {
		if !slices.ContainsFunc(f.Course.Tests, func(t TestFixture) bool { return t.Name == name }) {
			return fmt.Errorf("%w: score for unknown test %q", ErrInvalidFixture, name)
		}
	}

	return nil
}
