package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/shelfwise/shelfwise/pkg/catalog"
)

const userColumns = `id, username, email, password_hash, is_active, role, created_at, updated_at`

// UserStore implements storage.UserRepository over PostgreSQL.
type UserStore struct {
	db *sql.DB
}

// NewUserStore creates a user repository.
func NewUserStore(db *sql.DB) *UserStore {
	return &UserStore{db: db}
}

func scanUser(scanner interface{ Scan(dest ...interface{}) error }) (*catalog.User, error) {
	var u catalog.User
	err := scanner.Scan(
		&u.ID,
		&u.Username,
		&u.Email,
		&u.PasswordHash,
		&u.IsActive,
		&u.Role,
		&u.CreatedAt,
		&u.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// isUniqueViolation reports whether err is a PostgreSQL unique
// constraint failure (class 23505).
func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == "23505"
}

func (s *UserStore) GetByID(ctx context.Context, id uuid.UUID) (*catalog.User, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE id = $1`, id)
	u, err := scanUser(row)
	if err == sql.ErrNoRows {
		return nil, catalog.NotFoundf("user %s", id)
	}
	if err != nil {
		return nil, fmt.Errorf("querying user %s: %w", id, err)
	}
	return u, nil
}

func (s *UserStore) GetByUsername(ctx context.Context, username string) (*catalog.User, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE username = $1`, username)
	u, err := scanUser(row)
	if err == sql.ErrNoRows {
		return nil, catalog.NotFoundf("user %q", username)
	}
	if err != nil {
		return nil, fmt.Errorf("querying user %q: %w", username, err)
	}
	return u, nil
}

func (s *UserStore) List(ctx context.Context, limit, offset int) ([]catalog.User, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+userColumns+` FROM users ORDER BY created_at LIMIT $1 OFFSET $2`,
		limit, offset)
	if err != nil {
		return nil, fmt.Errorf("listing users: %w", err)
	}
	defer rows.Close()

	var users []catalog.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning user: %w", err)
		}
		users = append(users, *u)
	}
	return users, rows.Err()
}

func (s *UserStore) ExistsByUsernameOrEmail(ctx context.Context, username, email string) (bool, error) {
	var exists bool
	err := s.db.QueryRowContext(ctx,
		`SELECT EXISTS(SELECT 1 FROM users WHERE username = $1 OR email = $2)`,
		username, email).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("checking user existence: %w", err)
	}
	return exists, nil
}

func (s *UserStore) Create(ctx context.Context, user *catalog.User) error {
	if user.ID == uuid.Nil {
		user.ID = uuid.New()
	}
	err := s.db.QueryRowContext(ctx,
		`INSERT INTO users (id, username, email, password_hash, is_active, role)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 RETURNING created_at, updated_at`,
		user.ID, user.Username, user.Email, user.PasswordHash, user.IsActive, user.Role,
	).Scan(&user.CreatedAt, &user.UpdatedAt)
	if isUniqueViolation(err) {
		return catalog.Conflictf("username or email already registered")
	}
	if err != nil {
		return fmt.Errorf("inserting user: %w", err)
	}
	return nil
}

func (s *UserStore) Update(ctx context.Context, id uuid.UUID, patch catalog.UserPatch) (*catalog.User, error) {
	if patch.IsZero() {
		return nil, catalog.InvalidInputf("no fields to update")
	}

	set := make([]string, 0, 6)
	args := make([]interface{}, 0, 7)
	add := func(column string, value interface{}) {
		args = append(args, value)
		set = append(set, fmt.Sprintf("%s = $%d", column, len(args)))
	}

	if patch.Username != nil {
		add("username", *patch.Username)
	}
	if patch.Email != nil {
		add("email", *patch.Email)
	}
	if patch.PasswordHash != nil {
		add("password_hash", *patch.PasswordHash)
	}
	if patch.IsActive != nil {
		add("is_active", *patch.IsActive)
	}
	if patch.Role != nil {
		add("role", *patch.Role)
	}

	args = append(args, id)
	query := fmt.Sprintf(
		`UPDATE users SET %s, updated_at = NOW() WHERE id = $%d RETURNING `+userColumns,
		strings.Join(set, ", "), len(args))

	row := s.db.QueryRowContext(ctx, query, args...)
	u, err := scanUser(row)
	if err == sql.ErrNoRows {
		return nil, catalog.NotFoundf("user %s", id)
	}
	if isUniqueViolation(err) {
		return nil, catalog.Conflictf("username or email already registered")
	}
	if err != nil {
		return nil, fmt.Errorf("updating user %s: %w", id, err)
	}
	return u, nil
}

func (s *UserStore) Delete(ctx context.Context, id uuid.UUID) (bool, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM users WHERE id = $1`, id)
	if err != nil {
		return false, fmt.Errorf("deleting user %s: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("deleting user %s: %w", id, err)
	}
	return n > 0, nil
}
