package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/shelfwise/shelfwise/pkg/catalog"
)

const authorColumns = `id, user_id, bio, profile_picture, created_at`

// AuthorStore implements storage.AuthorRepository over PostgreSQL.
type AuthorStore struct {
	db *sql.DB
}

// NewAuthorStore creates an author repository.
func NewAuthorStore(db *sql.DB) *AuthorStore {
	return &AuthorStore{db: db}
}

func scanAuthor(scanner interface{ Scan(dest ...interface{}) error }) (*catalog.Author, error) {
	var a catalog.Author
	err := scanner.Scan(&a.ID, &a.UserID, &a.Bio, &a.ProfilePicture, &a.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &a, nil
}

func (s *AuthorStore) GetByID(ctx context.Context, id uuid.UUID) (*catalog.Author, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+authorColumns+` FROM authors WHERE id = $1`, id)
	a, err := scanAuthor(row)
	if err == sql.ErrNoRows {
		return nil, catalog.NotFoundf("author %s", id)
	}
	if err != nil {
		return nil, fmt.Errorf("querying author %s: %w", id, err)
	}
	return a, nil
}

func (s *AuthorStore) GetByUserID(ctx context.Context, userID uuid.UUID) (*catalog.Author, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+authorColumns+` FROM authors WHERE user_id = $1`, userID)
	a, err := scanAuthor(row)
	if err == sql.ErrNoRows {
		return nil, catalog.NotFoundf("author profile for user %s", userID)
	}
	if err != nil {
		return nil, fmt.Errorf("querying author profile for user %s: %w", userID, err)
	}
	return a, nil
}

func (s *AuthorStore) List(ctx context.Context, limit, offset int) ([]catalog.Author, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+authorColumns+` FROM authors ORDER BY created_at LIMIT $1 OFFSET $2`,
		limit, offset)
	if err != nil {
		return nil, fmt.Errorf("listing authors: %w", err)
	}
	defer rows.Close()

	var authors []catalog.Author
	for rows.Next() {
		a, err := scanAuthor(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning author: %w", err)
		}
		authors = append(authors, *a)
	}
	return authors, rows.Err()
}

func (s *AuthorStore) ExistsForUser(ctx context.Context, userID uuid.UUID) (bool, error) {
	var exists bool
	err := s.db.QueryRowContext(ctx,
		`SELECT EXISTS(SELECT 1 FROM authors WHERE user_id = $1)`, userID).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("checking author existence: %w", err)
	}
	return exists, nil
}

// CreatePromoting inserts the profile and promotes the owning user from
// user to author in one transaction. Admins keep their role.
func (s *AuthorStore) CreatePromoting(ctx context.Context, author *catalog.Author) error {
	if author.ID == uuid.Nil {
		author.ID = uuid.New()
	}
	return withTx(ctx, s.db, func(tx *sql.Tx) error {
		err := tx.QueryRowContext(ctx,
			`INSERT INTO authors (id, user_id, bio, profile_picture)
			 VALUES ($1, $2, $3, $4)
			 RETURNING created_at`,
			author.ID, author.UserID, author.Bio, author.ProfilePicture,
		).Scan(&author.CreatedAt)
		if isUniqueViolation(err) {
			return catalog.Conflictf("user %s already has an author profile", author.UserID)
		}
		if err != nil {
			return fmt.Errorf("inserting author: %w", err)
		}

		_, err = tx.ExecContext(ctx,
			`UPDATE users SET role = 'author', updated_at = NOW() WHERE id = $1 AND role = 'user'`,
			author.UserID)
		if err != nil {
			return fmt.Errorf("promoting user %s: %w", author.UserID, err)
		}
		return nil
	})
}

func (s *AuthorStore) Update(ctx context.Context, id uuid.UUID, patch catalog.AuthorPatch) (*catalog.Author, error) {
	if patch.IsZero() {
		return nil, catalog.InvalidInputf("no fields to update")
	}

	set := make([]string, 0, 2)
	args := make([]interface{}, 0, 3)
	add := func(column string, value interface{}) {
		args = append(args, value)
		set = append(set, fmt.Sprintf("%s = $%d", column, len(args)))
	}

	if patch.Bio != nil {
		add("bio", *patch.Bio)
	}
	if patch.ProfilePicture != nil {
		add("profile_picture", *patch.ProfilePicture)
	}

	args = append(args, id)
	query := fmt.Sprintf(
		`UPDATE authors SET %s WHERE id = $%d RETURNING `+authorColumns,
		strings.Join(set, ", "), len(args))

	row := s.db.QueryRowContext(ctx, query, args...)
	a, err := scanAuthor(row)
	if err == sql.ErrNoRows {
		return nil, catalog.NotFoundf("author %s", id)
	}
	if err != nil {
		return nil, fmt.Errorf("updating author %s: %w", id, err)
	}
	return a, nil
}

// DeleteDemoting removes the profile and lowers the owner back to the
// user role in one transaction. Admins keep their role. Books owned by
// the profile go with it via the FK cascade.
func (s *AuthorStore) DeleteDemoting(ctx context.Context, id uuid.UUID) (bool, error) {
	deleted := false
	err := withTx(ctx, s.db, func(tx *sql.Tx) error {
		var userID uuid.UUID
		err := tx.QueryRowContext(ctx,
			`DELETE FROM authors WHERE id = $1 RETURNING user_id`, id).Scan(&userID)
		if err == sql.ErrNoRows {
			return nil
		}
		if err != nil {
			return fmt.Errorf("deleting author %s: %w", id, err)
		}
		deleted = true

		_, err = tx.ExecContext(ctx,
			`UPDATE users SET role = 'user', updated_at = NOW() WHERE id = $1 AND role = 'author'`,
			userID)
		if err != nil {
			return fmt.Errorf("demoting user %s: %w", userID, err)
		}
		return nil
	})
	return deleted, err
}
