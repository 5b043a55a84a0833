package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"
)

var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id UUID PRIMARY KEY,
		username TEXT NOT NULL UNIQUE,
		email TEXT NOT NULL UNIQUE,
		password_hash TEXT NOT NULL,
		is_active BOOLEAN NOT NULL DEFAULT TRUE,
		role TEXT NOT NULL DEFAULT 'user' CHECK (role IN ('admin', 'author', 'user')),
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,

	`CREATE TABLE IF NOT EXISTS roles (
		id UUID PRIMARY KEY,
		name TEXT NOT NULL UNIQUE,
		permissions JSONB NOT NULL DEFAULT '{}'
	)`,

	`CREATE TABLE IF NOT EXISTS authors (
		id UUID PRIMARY KEY,
		user_id UUID NOT NULL UNIQUE REFERENCES users(id) ON DELETE CASCADE,
		bio TEXT NOT NULL DEFAULT '',
		profile_picture TEXT NOT NULL DEFAULT '',
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,

	`CREATE TABLE IF NOT EXISTS books (
		id UUID PRIMARY KEY,
		title TEXT NOT NULL,
		description TEXT NOT NULL DEFAULT '',
		cover_image TEXT NOT NULL DEFAULT '',
		file_path TEXT NOT NULL,
		upload_date TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		rating DOUBLE PRECISION NOT NULL DEFAULT 0,
		author_id UUID NOT NULL REFERENCES authors(id) ON DELETE CASCADE
	)`,

	`CREATE INDEX IF NOT EXISTS idx_books_author_id ON books(author_id)`,

	`CREATE TABLE IF NOT EXISTS genres (
		id UUID PRIMARY KEY,
		name TEXT NOT NULL UNIQUE
	)`,

	`CREATE TABLE IF NOT EXISTS book_genre (
		book_id UUID NOT NULL REFERENCES books(id) ON DELETE CASCADE,
		genre_id UUID NOT NULL REFERENCES genres(id) ON DELETE CASCADE,
		PRIMARY KEY (book_id, genre_id)
	)`,

	`CREATE TABLE IF NOT EXISTS reviews (
		user_id UUID NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		book_id UUID NOT NULL REFERENCES books(id) ON DELETE CASCADE,
		review_text TEXT NOT NULL DEFAULT '',
		rating INTEGER NOT NULL CHECK (rating BETWEEN 1 AND 5),
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		PRIMARY KEY (user_id, book_id)
	)`,

	`CREATE INDEX IF NOT EXISTS idx_reviews_book_id ON reviews(book_id)`,

	`CREATE TABLE IF NOT EXISTS favourites (
		user_id UUID NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		book_id UUID NOT NULL REFERENCES books(id) ON DELETE CASCADE,
		PRIMARY KEY (user_id, book_id)
	)`,

	// Unique indexes so the views can be refreshed CONCURRENTLY.
	`CREATE MATERIALIZED VIEW IF NOT EXISTS book_stats AS
		SELECT b.id AS book_id,
		       COUNT(r.book_id) AS review_count,
		       COALESCE(AVG(r.rating), 0) AS avg_rating
		FROM books b
		LEFT JOIN reviews r ON r.book_id = b.id
		GROUP BY b.id`,

	`CREATE UNIQUE INDEX IF NOT EXISTS idx_book_stats_book_id ON book_stats(book_id)`,

	`CREATE MATERIALIZED VIEW IF NOT EXISTS top_authors AS
		SELECT a.id AS author_id,
		       COUNT(b.id) AS book_count,
		       COALESCE(AVG(b.rating), 0) AS avg_rating
		FROM authors a
		LEFT JOIN books b ON b.author_id = a.id
		GROUP BY a.id
		ORDER BY avg_rating DESC`,

	`CREATE UNIQUE INDEX IF NOT EXISTS idx_top_authors_author_id ON top_authors(author_id)`,
}

// EnsureSchema creates the catalog tables, indexes, and materialized
// views if they do not exist, then seeds the built-in role rows. Safe to
// run at every startup.
func EnsureSchema(ctx context.Context, db *sql.DB) error {
	for _, stmt := range schemaStatements {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("applying schema statement: %w", err)
		}
	}
	return seedRoles(ctx, db)
}

func seedRoles(ctx context.Context, db *sql.DB) error {
	for _, name := range []string{"admin", "author", "user"} {
		_, err := db.ExecContext(ctx,
			`INSERT INTO roles (id, name) VALUES ($1, $2) ON CONFLICT (name) DO NOTHING`,
			uuid.New(), name,
		)
		if err != nil {
			return fmt.Errorf("seeding role %q: %w", name, err)
		}
	}
	return nil
}
