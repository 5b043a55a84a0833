package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"github.com/shelfwise/shelfwise/pkg/catalog"
)

// FavouriteStore implements storage.FavouriteRepository over PostgreSQL.
type FavouriteStore struct {
	db *sql.DB
}

// NewFavouriteStore creates a favourite repository.
func NewFavouriteStore(db *sql.DB) *FavouriteStore {
	return &FavouriteStore{db: db}
}

func (s *FavouriteStore) ListByUser(ctx context.Context, userID uuid.UUID) ([]catalog.Favourite, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT user_id, book_id FROM favourites WHERE user_id = $1`, userID)
	if err != nil {
		return nil, fmt.Errorf("listing favourites: %w", err)
	}
	defer rows.Close()

	var favs []catalog.Favourite
	for rows.Next() {
		var f catalog.Favourite
		if err := rows.Scan(&f.UserID, &f.BookID); err != nil {
			return nil, fmt.Errorf("scanning favourite: %w", err)
		}
		favs = append(favs, f)
	}
	return favs, rows.Err()
}

func (s *FavouriteStore) Exists(ctx context.Context, userID, bookID uuid.UUID) (bool, error) {
	var exists bool
	err := s.db.QueryRowContext(ctx,
		`SELECT EXISTS(SELECT 1 FROM favourites WHERE user_id = $1 AND book_id = $2)`,
		userID, bookID).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("checking favourite existence: %w", err)
	}
	return exists, nil
}

// Create is a check-then-insert inside one transaction, with the
// composite primary key as the backstop.
func (s *FavouriteStore) Create(ctx context.Context, fav *catalog.Favourite) error {
	return withTx(ctx, s.db, func(tx *sql.Tx) error {
		var exists bool
		err := tx.QueryRowContext(ctx,
			`SELECT EXISTS(SELECT 1 FROM favourites WHERE user_id = $1 AND book_id = $2)`,
			fav.UserID, fav.BookID).Scan(&exists)
		if err != nil {
			return fmt.Errorf("checking favourite existence: %w", err)
		}
		if exists {
			return catalog.Conflictf("book %s is already a favourite of user %s", fav.BookID, fav.UserID)
		}

		_, err = tx.ExecContext(ctx,
			`INSERT INTO favourites (user_id, book_id) VALUES ($1, $2)`,
			fav.UserID, fav.BookID)
		if isUniqueViolation(err) {
			return catalog.Conflictf("book %s is already a favourite of user %s", fav.BookID, fav.UserID)
		}
		if err != nil {
			return fmt.Errorf("inserting favourite: %w", err)
		}
		return nil
	})
}

func (s *FavouriteStore) Delete(ctx context.Context, userID, bookID uuid.UUID) (bool, error) {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM favourites WHERE user_id = $1 AND book_id = $2`, userID, bookID)
	if err != nil {
		return false, fmt.Errorf("deleting favourite: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("deleting favourite: %w", err)
	}
	return n > 0, nil
}
