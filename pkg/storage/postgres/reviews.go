package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/shelfwise/shelfwise/pkg/catalog"
)

const reviewColumns = `user_id, book_id, review_text, rating, created_at`

// ReviewStore implements storage.ReviewRepository over PostgreSQL.
type ReviewStore struct {
	db *sql.DB
}

// NewReviewStore creates a review repository.
func NewReviewStore(db *sql.DB) *ReviewStore {
	return &ReviewStore{db: db}
}

func scanReview(scanner interface{ Scan(dest ...interface{}) error }) (*catalog.Review, error) {
	var r catalog.Review
	err := scanner.Scan(&r.UserID, &r.BookID, &r.Text, &r.Rating, &r.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &r, nil
}

func (s *ReviewStore) Get(ctx context.Context, userID, bookID uuid.UUID) (*catalog.Review, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+reviewColumns+` FROM reviews WHERE user_id = $1 AND book_id = $2`,
		userID, bookID)
	r, err := scanReview(row)
	if err == sql.ErrNoRows {
		return nil, catalog.NotFoundf("review by user %s for book %s", userID, bookID)
	}
	if err != nil {
		return nil, fmt.Errorf("querying review: %w", err)
	}
	return r, nil
}

func (s *ReviewStore) ListByBook(ctx context.Context, bookID uuid.UUID) ([]catalog.Review, error) {
	return s.list(ctx,
		`SELECT `+reviewColumns+` FROM reviews WHERE book_id = $1 ORDER BY created_at DESC`,
		bookID)
}

func (s *ReviewStore) ListByUser(ctx context.Context, userID uuid.UUID) ([]catalog.Review, error) {
	return s.list(ctx,
		`SELECT `+reviewColumns+` FROM reviews WHERE user_id = $1 ORDER BY created_at DESC`,
		userID)
}

func (s *ReviewStore) list(ctx context.Context, query string, arg interface{}) ([]catalog.Review, error) {
	rows, err := s.db.QueryContext(ctx, query, arg)
	if err != nil {
		return nil, fmt.Errorf("listing reviews: %w", err)
	}
	defer rows.Close()

	var reviews []catalog.Review
	for rows.Next() {
		r, err := scanReview(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning review: %w", err)
		}
		reviews = append(reviews, *r)
	}
	return reviews, rows.Err()
}

func (s *ReviewStore) Exists(ctx context.Context, userID, bookID uuid.UUID) (bool, error) {
	var exists bool
	err := s.db.QueryRowContext(ctx,
		`SELECT EXISTS(SELECT 1 FROM reviews WHERE user_id = $1 AND book_id = $2)`,
		userID, bookID).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("checking review existence: %w", err)
	}
	return exists, nil
}

// Create is a check-then-insert inside one transaction. The composite
// primary key backs the check up against concurrent creates.
func (s *ReviewStore) Create(ctx context.Context, review *catalog.Review) error {
	return withTx(ctx, s.db, func(tx *sql.Tx) error {
		var exists bool
		err := tx.QueryRowContext(ctx,
			`SELECT EXISTS(SELECT 1 FROM reviews WHERE user_id = $1 AND book_id = $2)`,
			review.UserID, review.BookID).Scan(&exists)
		if err != nil {
			return fmt.Errorf("checking review existence: %w", err)
		}
		if exists {
			return catalog.Conflictf("user %s already reviewed book %s", review.UserID, review.BookID)
		}

		err = tx.QueryRowContext(ctx,
			`INSERT INTO reviews (user_id, book_id, review_text, rating)
			 VALUES ($1, $2, $3, $4)
			 RETURNING created_at`,
			review.UserID, review.BookID, review.Text, review.Rating,
		).Scan(&review.CreatedAt)
		if isUniqueViolation(err) {
			return catalog.Conflictf("user %s already reviewed book %s", review.UserID, review.BookID)
		}
		if err != nil {
			return fmt.Errorf("inserting review: %w", err)
		}
		return nil
	})
}

func (s *ReviewStore) Update(ctx context.Context, userID, bookID uuid.UUID, patch catalog.ReviewPatch) (*catalog.Review, error) {
	if patch.IsZero() {
		return nil, catalog.InvalidInputf("no fields to update")
	}

	set := make([]string, 0, 2)
	args := make([]interface{}, 0, 4)
	add := func(column string, value interface{}) {
		args = append(args, value)
		set = append(set, fmt.Sprintf("%s = $%d", column, len(args)))
	}

	if patch.Text != nil {
		add("review_text", *patch.Text)
	}
	if patch.Rating != nil {
		add("rating", *patch.Rating)
	}

	args = append(args, userID, bookID)
	query := fmt.Sprintf(
		`UPDATE reviews SET %s WHERE user_id = $%d AND book_id = $%d RETURNING `+reviewColumns,
		strings.Join(set, ", "), len(args)-1, len(args))

	row := s.db.QueryRowContext(ctx, query, args...)
	r, err := scanReview(row)
	if err == sql.ErrNoRows {
		return nil, catalog.NotFoundf("review by user %s for book %s", userID, bookID)
	}
	if err != nil {
		return nil, fmt.Errorf("updating review: %w", err)
	}
	return r, nil
}

func (s *ReviewStore) Delete(ctx context.Context, userID, bookID uuid.UUID) (bool, error) {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM reviews WHERE user_id = $1 AND book_id = $2`, userID, bookID)
	if err != nil {
		return false, fmt.Errorf("deleting review: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("deleting review: %w", err)
	}
	return n > 0, nil
}
