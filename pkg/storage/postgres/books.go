package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/shelfwise/shelfwise/pkg/catalog"
)

const bookColumns = `id, title, description, cover_image, file_path, upload_date, rating, author_id`

// BookStore implements storage.BookRepository over PostgreSQL.
type BookStore struct {
	db *sql.DB
}

// NewBookStore creates a book repository.
func NewBookStore(db *sql.DB) *BookStore {
	return &BookStore{db: db}
}

func scanBook(scanner interface{ Scan(dest ...interface{}) error }) (*catalog.Book, error) {
	var b catalog.Book
	err := scanner.Scan(
		&b.ID,
		&b.Title,
		&b.Description,
		&b.CoverImage,
		&b.FilePath,
		&b.UploadDate,
		&b.Rating,
		&b.AuthorID,
	)
	if err != nil {
		return nil, err
	}
	return &b, nil
}

func (s *BookStore) GetByID(ctx context.Context, id uuid.UUID) (*catalog.Book, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+bookColumns+` FROM books WHERE id = $1`, id)
	b, err := scanBook(row)
	if err == sql.ErrNoRows {
		return nil, catalog.NotFoundf("book %s", id)
	}
	if err != nil {
		return nil, fmt.Errorf("querying book %s: %w", id, err)
	}
	if err := s.loadGenres(ctx, b); err != nil {
		return nil, err
	}
	return b, nil
}

func (s *BookStore) List(ctx context.Context, limit, offset int) ([]catalog.Book, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+bookColumns+` FROM books ORDER BY upload_date DESC LIMIT $1 OFFSET $2`,
		limit, offset)
	if err != nil {
		return nil, fmt.Errorf("listing books: %w", err)
	}
	defer rows.Close()

	var books []catalog.Book
	for rows.Next() {
		b, err := scanBook(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning book: %w", err)
		}
		books = append(books, *b)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range books {
		if err := s.loadGenres(ctx, &books[i]); err != nil {
			return nil, err
		}
	}
	return books, nil
}

func (s *BookStore) loadGenres(ctx context.Context, book *catalog.Book) error {
	rows, err := s.db.QueryContext(ctx,
		`SELECT g.id, g.name FROM genres g
		 JOIN book_genre bg ON bg.genre_id = g.id
		 WHERE bg.book_id = $1
		 ORDER BY g.name`, book.ID)
	if err != nil {
		return fmt.Errorf("loading genres for book %s: %w", book.ID, err)
	}
	defer rows.Close()

	book.Genres = book.Genres[:0]
	for rows.Next() {
		var g catalog.Genre
		if err := rows.Scan(&g.ID, &g.Name); err != nil {
			return fmt.Errorf("scanning genre: %w", err)
		}
		book.Genres = append(book.Genres, g)
	}
	return rows.Err()
}

// CreateWithGenres inserts the book and all genre links in one
// transaction. Any missing genre id rolls the whole insert back and is
// reported as NotFound, so a failed create leaves no partial links.
func (s *BookStore) CreateWithGenres(ctx context.Context, book *catalog.Book, genreIDs []uuid.UUID) error {
	if book.ID == uuid.Nil {
		book.ID = uuid.New()
	}
	err := withTx(ctx, s.db, func(tx *sql.Tx) error {
		err := tx.QueryRowContext(ctx,
			`INSERT INTO books (id, title, description, cover_image, file_path, author_id)
			 VALUES ($1, $2, $3, $4, $5, $6)
			 RETURNING upload_date, rating`,
			book.ID, book.Title, book.Description, book.CoverImage, book.FilePath, book.AuthorID,
		).Scan(&book.UploadDate, &book.Rating)
		if err != nil {
			return fmt.Errorf("inserting book: %w", err)
		}

		for _, genreID := range genreIDs {
			var exists bool
			if err := tx.QueryRowContext(ctx,
				`SELECT EXISTS(SELECT 1 FROM genres WHERE id = $1)`, genreID).Scan(&exists); err != nil {
				return fmt.Errorf("checking genre %s: %w", genreID, err)
			}
			if !exists {
				return catalog.NotFoundf("genre %s", genreID)
			}
			if _, err := tx.ExecContext(ctx,
				`INSERT INTO book_genre (book_id, genre_id) VALUES ($1, $2)`,
				book.ID, genreID); err != nil {
				return fmt.Errorf("linking genre %s: %w", genreID, err)
			}
		}
		return nil
	})
	if err != nil {
		return err
	}
	return s.loadGenres(ctx, book)
}

func (s *BookStore) Update(ctx context.Context, id uuid.UUID, patch catalog.BookPatch) (*catalog.Book, error) {
	if patch.IsZero() {
		return nil, catalog.InvalidInputf("no fields to update")
	}

	var book *catalog.Book
	err := withTx(ctx, s.db, func(tx *sql.Tx) error {
		set := make([]string, 0, 4)
		args := make([]interface{}, 0, 5)
		add := func(column string, value interface{}) {
			args = append(args, value)
			set = append(set, fmt.Sprintf("%s = $%d", column, len(args)))
		}

		if patch.Title != nil {
			add("title", *patch.Title)
		}
		if patch.Description != nil {
			add("description", *patch.Description)
		}
		if patch.CoverImage != nil {
			add("cover_image", *patch.CoverImage)
		}
		if patch.FilePath != nil {
			add("file_path", *patch.FilePath)
		}

		if len(set) > 0 {
			args = append(args, id)
			query := fmt.Sprintf(
				`UPDATE books SET %s WHERE id = $%d RETURNING `+bookColumns,
				strings.Join(set, ", "), len(args))
			b, err := scanBook(tx.QueryRowContext(ctx, query, args...))
			if err == sql.ErrNoRows {
				return catalog.NotFoundf("book %s", id)
			}
			if err != nil {
				return fmt.Errorf("updating book %s: %w", id, err)
			}
			book = b
		} else {
			b, err := scanBook(tx.QueryRowContext(ctx,
				`SELECT `+bookColumns+` FROM books WHERE id = $1`, id))
			if err == sql.ErrNoRows {
				return catalog.NotFoundf("book %s", id)
			}
			if err != nil {
				return fmt.Errorf("querying book %s: %w", id, err)
			}
			book = b
		}

		if patch.GenreIDs != nil {
			if _, err := tx.ExecContext(ctx,
				`DELETE FROM book_genre WHERE book_id = $1`, id); err != nil {
				return fmt.Errorf("clearing genre links for book %s: %w", id, err)
			}
			for _, genreID := range *patch.GenreIDs {
				var exists bool
				if err := tx.QueryRowContext(ctx,
					`SELECT EXISTS(SELECT 1 FROM genres WHERE id = $1)`, genreID).Scan(&exists); err != nil {
					return fmt.Errorf("checking genre %s: %w", genreID, err)
				}
				if !exists {
					return catalog.NotFoundf("genre %s", genreID)
				}
				if _, err := tx.ExecContext(ctx,
					`INSERT INTO book_genre (book_id, genre_id) VALUES ($1, $2)`,
					id, genreID); err != nil {
					return fmt.Errorf("linking genre %s: %w", genreID, err)
				}
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	if err := s.loadGenres(ctx, book); err != nil {
		return nil, err
	}
	return book, nil
}

func (s *BookStore) Delete(ctx context.Context, id uuid.UUID) (bool, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM books WHERE id = $1`, id)
	if err != nil {
		return false, fmt.Errorf("deleting book %s: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("deleting book %s: %w", id, err)
	}
	return n > 0, nil
}
