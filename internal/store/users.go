package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"maps"
	"slices"

	"github.com/google/uuid"
	"gorm.io/datatypes"

	"github.com/johnwards/classroom-seed/internal/database"
	"github.com/johnwards/classroom-seed/internal/domain"
)

// UserStore defines the interface for user persistence.
type UserStore interface {
	Create(ctx context.Context, in domain.NewUser) (*domain.User, error)
	CreateEnrolled(ctx context.Context, in domain.NewUser, courseID string, role domain.Role) (*domain.User, *domain.Membership, error)
	Get(ctx context.Context, id string) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	ListByCourse(ctx context.Context, courseID string) ([]*domain.User, error)
}

// SQLUserStore implements UserStore on a database session.
type SQLUserStore struct {
	db *database.DB
}

// NewSQLUserStore creates a new SQLUserStore.
func NewSQLUserStore(db *database.DB) *SQLUserStore {
	return &SQLUserStore{db: db}
}

const userColumns = `u.id, u.email, u.first_name, u.last_name, u.social, u.created_at`

// Create inserts a new user.
func (s *SQLUserStore) Create(ctx context.Context, in domain.NewUser) (*domain.User, error) {
	return insertUser(ctx, s.db, s.db, in)
}

// CreateEnrolled inserts a user and its membership of an existing course in
// one transaction.
func (s *SQLUserStore) CreateEnrolled(ctx context.Context, in domain.NewUser, courseID string, role domain.Role) (*domain.User, *domain.Membership, error) {
	var (
		u *domain.User
		m *domain.Membership
	)

	err := withTx(ctx, s.db, func(tx *sql.Tx) error {
		var err error
		if u, err = insertUser(ctx, s.db, tx, in); err != nil {
			return err
		}
		m, err = insertMembership(ctx, s.db, tx, u.ID, courseID, role)
		return err
	})
	if err != nil {
		return nil, nil, err
	}

	return u, m, nil
}

// Get retrieves a single user by ID.
func (s *SQLUserStore) Get(ctx context.Context, id string) (*domain.User, error) {
	row := s.db.QueryRowContext(ctx,
		s.db.Rebind(`SELECT `+userColumns+` FROM users u WHERE u.id = ?`), id)

	u, err := scanUser(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("user %s: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("get user: %w", classify(err))
	}
	return u, nil
}

// GetByEmail retrieves a single user by email.
func (s *SQLUserStore) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	row := s.db.QueryRowContext(ctx,
		s.db.Rebind(`SELECT `+userColumns+` FROM users u WHERE u.email = ?`), email)

	u, err := scanUser(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("user %s: %w", email, ErrNotFound)
		}
		return nil, fmt.Errorf("get user by email: %w", classify(err))
	}
	return u, nil
}

// ListByCourse returns every user holding a membership of the course,
// ordered by email.
func (s *SQLUserStore) ListByCourse(ctx context.Context, courseID string) ([]*domain.User, error) {
	rows, err := s.db.QueryContext(ctx, s.db.Rebind(
		`SELECT `+userColumns+` FROM users u
		 JOIN memberships m ON m.user_id = u.id
		 WHERE m.course_id = ?
		 ORDER BY u.email ASC`), courseID)
	if err != nil {
		return nil, fmt.Errorf("list users by course: %w", classify(err))
	}
	defer func() { _ = rows.Close() }()

	var users []*domain.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("scan user: %w", err)
		}
		users = append(users, u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration: %w", classify(err))
	}

	return users, nil
}

func insertUser(ctx context.Context, db *database.DB, q querier, in domain.NewUser) (*domain.User, error) {
	u := &domain.User{
		ID:        uuid.NewString(),
		Email:     in.Email,
		FirstName: in.FirstName,
		LastName:  in.LastName,
		Social:    copySocial(in.Social),
		CreatedAt: now(),
	}

	if _, err := q.ExecContext(ctx, db.Rebind(
		`INSERT INTO users (id, email, first_name, last_name, social, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)`),
		u.ID, u.Email, u.FirstName, u.LastName, socialToJSON(u.Social), u.CreatedAt,
	); err != nil {
		return nil, fmt.Errorf("insert user %s: %w", u.Email, classify(err))
	}

	return u, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanUser(r rowScanner) (*domain.User, error) {
	var (
		u      domain.User
		social datatypes.JSONMap
	)
	if err := r.Scan(&u.ID, &u.Email, &u.FirstName, &u.LastName, &social, &u.CreatedAt); err != nil {
		return nil, err
	}
	u.Social = socialFromJSON(social)
	return &u, nil
}

func socialToJSON(social map[string]string) datatypes.JSONMap {
	m := make(datatypes.JSONMap, len(social))
	for k, v := range social {
		m[k] = v
	}
	return m
}

func socialFromJSON(m datatypes.JSONMap) map[string]string {
	social := make(map[string]string, len(m))
	for k, v := range m {
		if s, ok := v.(string); ok {
			social[k] = s
			continue
		}
		social[k] = fmt.Sprint(v)
	}
	return social
}

func copySocial(social map[string]string) map[string]string {
	out := make(map[string]string, len(social))
	maps.Copy(out, social)
	return out
}

// SocialKeys returns the user's social network names in sorted order.
func SocialKeys(u *domain.User) []string {
	return slices.Sorted(maps.Keys(u.Social))
}
