package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"github.com/shelfwise/shelfwise/pkg/catalog"
)

// GenreStore implements storage.GenreRepository over PostgreSQL.
type GenreStore struct {
	db *sql.DB
}

// NewGenreStore creates a genre repository.
func NewGenreStore(db *sql.DB) *GenreStore {
	return &GenreStore{db: db}
}

func (s *GenreStore) GetByID(ctx context.Context, id uuid.UUID) (*catalog.Genre, error) {
	var g catalog.Genre
	err := s.db.QueryRowContext(ctx,
		`SELECT id, name FROM genres WHERE id = $1`, id).Scan(&g.ID, &g.Name)
	if err == sql.ErrNoRows {
		return nil, catalog.NotFoundf("genre %s", id)
	}
	if err != nil {
		return nil, fmt.Errorf("querying genre %s: %w", id, err)
	}
	return &g, nil
}

func (s *GenreStore) List(ctx context.Context) ([]catalog.Genre, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, name FROM genres ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("listing genres: %w", err)
	}
	defer rows.Close()

	var genres []catalog.Genre
	for rows.Next() {
		var g catalog.Genre
		if err := rows.Scan(&g.ID, &g.Name); err != nil {
			return nil, fmt.Errorf("scanning genre: %w", err)
		}
		genres = append(genres, g)
	}
	return genres, rows.Err()
}

func (s *GenreStore) Create(ctx context.Context, genre *catalog.Genre) error {
	if genre.ID == uuid.Nil {
		genre.ID = uuid.New()
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO genres (id, name) VALUES ($1, $2)`, genre.ID, genre.Name)
	if isUniqueViolation(err) {
		return catalog.Conflictf("genre %q already exists", genre.Name)
	}
	if err != nil {
		return fmt.Errorf("inserting genre: %w", err)
	}
	return nil
}

func (s *GenreStore) Update(ctx context.Context, id uuid.UUID, name string) (*catalog.Genre, error) {
	var g catalog.Genre
	err := s.db.QueryRowContext(ctx,
		`UPDATE genres SET name = $1 WHERE id = $2 RETURNING id, name`,
		name, id).Scan(&g.ID, &g.Name)
	if err == sql.ErrNoRows {
		return nil, catalog.NotFoundf("genre %s", id)
	}
	if isUniqueViolation(err) {
		return nil, catalog.Conflictf("genre %q already exists", name)
	}
	if err != nil {
		return nil, fmt.Errorf("updating genre %s: %w", id, err)
	}
	return &g, nil
}

func (s *GenreStore) Delete(ctx context.Context, id uuid.UUID) (bool, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM genres WHERE id = $1`, id)
	if err != nil {
		return false, fmt.Errorf("deleting genre %s: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("deleting genre %s: %w", id, err)
	}
	return n > 0, nil
}
