package postgres

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shelfwise/shelfwise/pkg/catalog"
)

func TestBookStoreCreateWithGenresAtomicRollback(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	book := catalog.Book{
		Title:    "Dune",
		FilePath: "books/dune.epub",
		AuthorID: uuid.New(),
	}
	goodGenre := uuid.New()
	missingGenre := uuid.New()

	mock.ExpectBegin()
	mock.ExpectQuery(`INSERT INTO books`).
		WithArgs(sqlmock.AnyArg(), book.Title, "", "", book.FilePath, book.AuthorID).
		WillReturnRows(sqlmock.NewRows([]string{"upload_date", "rating"}).AddRow(time.Now(), 0.0))
	mock.ExpectQuery(`SELECT EXISTS\(SELECT 1 FROM genres`).
		WithArgs(goodGenre).
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))
	mock.ExpectExec(`INSERT INTO book_genre`).
		WithArgs(sqlmock.AnyArg(), goodGenre).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(`SELECT EXISTS\(SELECT 1 FROM genres`).
		WithArgs(missingGenre).
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(false))
	mock.ExpectRollback()

	err = NewBookStore(db).CreateWithGenres(context.Background(), &book, []uuid.UUID{goodGenre, missingGenre})
	require.Error(t, err)
	assert.True(t, errors.Is(err, catalog.ErrNotFound))
	assert.Contains(t, err.Error(), missingGenre.String())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestBookStoreCreateWithGenresSuccess(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	book := catalog.Book{
		Title:    "Dune",
		FilePath: "books/dune.epub",
		AuthorID: uuid.New(),
	}
	genre := uuid.New()

	mock.ExpectBegin()
	mock.ExpectQuery(`INSERT INTO books`).
		WithArgs(sqlmock.AnyArg(), book.Title, "", "", book.FilePath, book.AuthorID).
		WillReturnRows(sqlmock.NewRows([]string{"upload_date", "rating"}).AddRow(time.Now(), 0.0))
	mock.ExpectQuery(`SELECT EXISTS\(SELECT 1 FROM genres`).
		WithArgs(genre).
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))
	mock.ExpectExec(`INSERT INTO book_genre`).
		WithArgs(sqlmock.AnyArg(), genre).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()
	mock.ExpectQuery(`SELECT g.id, g.name FROM genres`).
		WithArgs(sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name"}).AddRow(genre, "sci-fi"))

	require.NoError(t, NewBookStore(db).CreateWithGenres(context.Background(), &book, []uuid.UUID{genre}))
	assert.NotEqual(t, uuid.Nil, book.ID)
	require.Len(t, book.Genres, 1)
	assert.Equal(t, "sci-fi", book.Genres[0].Name)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestBookStoreGetByIDNotFound(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	id := uuid.New()
	mock.ExpectQuery(`SELECT .+ FROM books WHERE id = \$1`).
		WithArgs(id).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	_, err = NewBookStore(db).GetByID(context.Background(), id)
	assert.True(t, errors.Is(err, catalog.ErrNotFound))
}

func TestBookStoreUpdateEmptyPatch(t *testing.T) {
	db, _, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	_, err = NewBookStore(db).Update(context.Background(), uuid.New(), catalog.BookPatch{})
	assert.True(t, errors.Is(err, catalog.ErrInvalidInput))
}

func TestBookStoreDelete(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	id := uuid.New()
	mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM books WHERE id = $1`)).
		WithArgs(id).
		WillReturnResult(sqlmock.NewResult(0, 1))

	deleted, err := NewBookStore(db).Delete(context.Background(), id)
	require.NoError(t, err)
	assert.True(t, deleted)
}
