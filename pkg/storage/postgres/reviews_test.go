package postgres

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shelfwise/shelfwise/pkg/catalog"
)

func TestReviewStoreCreateDuplicateConflict(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	review := catalog.Review{UserID: uuid.New(), BookID: uuid.New(), Text: "great", Rating: 5}

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT EXISTS\(SELECT 1 FROM reviews`).
		WithArgs(review.UserID, review.BookID).
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))
	mock.ExpectRollback()

	err = NewReviewStore(db).Create(context.Background(), &review)
	require.Error(t, err)
	assert.True(t, errors.Is(err, catalog.ErrConflict))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestReviewStoreCreateInsertsInTransaction(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	review := catalog.Review{UserID: uuid.New(), BookID: uuid.New(), Text: "great", Rating: 4}

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT EXISTS\(SELECT 1 FROM reviews`).
		WithArgs(review.UserID, review.BookID).
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(false))
	mock.ExpectQuery(`INSERT INTO reviews`).
		WithArgs(review.UserID, review.BookID, review.Text, review.Rating).
		WillReturnRows(sqlmock.NewRows([]string{"created_at"}).AddRow(time.Now()))
	mock.ExpectCommit()

	require.NoError(t, NewReviewStore(db).Create(context.Background(), &review))
	assert.False(t, review.CreatedAt.IsZero())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestReviewStoreGetNotFound(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	userID, bookID := uuid.New(), uuid.New()
	mock.ExpectQuery(`SELECT .+ FROM reviews WHERE user_id = \$1 AND book_id = \$2`).
		WithArgs(userID, bookID).
		WillReturnRows(sqlmock.NewRows([]string{"user_id"}))

	_, err = NewReviewStore(db).Get(context.Background(), userID, bookID)
	assert.True(t, errors.Is(err, catalog.ErrNotFound))
}

func TestReviewStoreDeleteReportsMiss(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	userID, bookID := uuid.New(), uuid.New()
	mock.ExpectExec(`DELETE FROM reviews`).
		WithArgs(userID, bookID).
		WillReturnResult(sqlmock.NewResult(0, 0))

	deleted, err := NewReviewStore(db).Delete(context.Background(), userID, bookID)
	require.NoError(t, err)
	assert.False(t, deleted)
}

func TestReviewStoreUpdateEmptyPatch(t *testing.T) {
	db, _, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	_, err = NewReviewStore(db).Update(context.Background(), uuid.New(), uuid.New(), catalog.ReviewPatch{})
	assert.True(t, errors.Is(err, catalog.ErrInvalidInput))
}

func TestAuthorStoreDeleteDemotes(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	authorID, userID := uuid.New(), uuid.New()

	mock.ExpectBegin()
	mock.ExpectQuery(`DELETE FROM authors WHERE id = \$1 RETURNING user_id`).
		WithArgs(authorID).
		WillReturnRows(sqlmock.NewRows([]string{"user_id"}).AddRow(userID))
	mock.ExpectExec(`UPDATE users SET role = 'user'`).
		WithArgs(userID).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	deleted, err := NewAuthorStore(db).DeleteDemoting(context.Background(), authorID)
	require.NoError(t, err)
	assert.True(t, deleted)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAuthorStoreDeleteMissingRow(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectQuery(`DELETE FROM authors`).
		WithArgs(sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"user_id"}))
	mock.ExpectCommit()

	deleted, err := NewAuthorStore(db).DeleteDemoting(context.Background(), uuid.New())
	require.NoError(t, err)
	assert.False(t, deleted)
}

func TestAuthorStoreCreatePromotes(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	author := catalog.Author{UserID: uuid.New(), Bio: "writes books"}

	mock.ExpectBegin()
	mock.ExpectQuery(`INSERT INTO authors`).
		WithArgs(sqlmock.AnyArg(), author.UserID, author.Bio, "").
		WillReturnRows(sqlmock.NewRows([]string{"created_at"}).AddRow(time.Now()))
	mock.ExpectExec(`UPDATE users SET role = 'author'`).
		WithArgs(author.UserID).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	require.NoError(t, NewAuthorStore(db).CreatePromoting(context.Background(), &author))
	assert.NotEqual(t, uuid.Nil, author.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}
