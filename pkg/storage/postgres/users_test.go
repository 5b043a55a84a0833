package postgres

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shelfwise/shelfwise/pkg/catalog"
)

func userRows(u catalog.User) *sqlmock.Rows {
	return sqlmock.NewRows([]string{
		"id", "username", "email", "password_hash", "is_active", "role", "created_at", "updated_at",
	}).AddRow(u.ID, u.Username, u.Email, u.PasswordHash, u.IsActive, string(u.Role), u.CreatedAt, u.UpdatedAt)
}

func testUser() catalog.User {
	now := time.Now().UTC().Truncate(time.Second)
	return catalog.User{
		ID:           uuid.New(),
		Username:     "alice",
		Email:        "alice@example.com",
		PasswordHash: "hash",
		IsActive:     true,
		Role:         catalog.RoleUser,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

func TestUserStoreGetByID(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	u := testUser()
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT id, username, email, password_hash, is_active, role, created_at, updated_at FROM users WHERE id = $1`)).
		WithArgs(u.ID).
		WillReturnRows(userRows(u))

	store := NewUserStore(db)
	got, err := store.GetByID(context.Background(), u.ID)
	require.NoError(t, err)
	assert.Equal(t, u.Username, got.Username)
	assert.Equal(t, catalog.RoleUser, got.Role)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserStoreGetByIDNotFound(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	id := uuid.New()
	mock.ExpectQuery(`SELECT .+ FROM users WHERE id = \$1`).
		WithArgs(id).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	_, err = NewUserStore(db).GetByID(context.Background(), id)
	require.Error(t, err)
	assert.True(t, errors.Is(err, catalog.ErrNotFound))
}

func TestUserStoreCreateConflict(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	u := testUser()
	mock.ExpectQuery(`INSERT INTO users`).
		WithArgs(u.ID, u.Username, u.Email, u.PasswordHash, u.IsActive, string(u.Role)).
		WillReturnError(&pq.Error{Code: "23505"})

	err = NewUserStore(db).Create(context.Background(), &u)
	require.Error(t, err)
	assert.True(t, errors.Is(err, catalog.ErrConflict))
}

func TestUserStoreCreateAssignsID(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	u := testUser()
	u.ID = uuid.Nil
	now := time.Now()
	mock.ExpectQuery(`INSERT INTO users`).
		WithArgs(sqlmock.AnyArg(), u.Username, u.Email, u.PasswordHash, u.IsActive, string(u.Role)).
		WillReturnRows(sqlmock.NewRows([]string{"created_at", "updated_at"}).AddRow(now, now))

	require.NoError(t, NewUserStore(db).Create(context.Background(), &u))
	assert.NotEqual(t, uuid.Nil, u.ID)
	assert.False(t, u.CreatedAt.IsZero())
}

func TestUserStoreUpdateEmptyPatch(t *testing.T) {
	db, _, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	_, err = NewUserStore(db).Update(context.Background(), uuid.New(), catalog.UserPatch{})
	require.Error(t, err)
	assert.True(t, errors.Is(err, catalog.ErrInvalidInput))
}

func TestUserStoreUpdatePatchSemantics(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	u := testUser()
	email := "new@example.com"
	u.Email = email

	mock.ExpectQuery(regexp.QuoteMeta(`UPDATE users SET email = $1, updated_at = NOW() WHERE id = $2`)).
		WithArgs(email, u.ID).
		WillReturnRows(userRows(u))

	got, err := NewUserStore(db).Update(context.Background(), u.ID, catalog.UserPatch{Email: &email})
	require.NoError(t, err)
	assert.Equal(t, email, got.Email)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserStoreDelete(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	id := uuid.New()
	mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM users WHERE id = $1`)).
		WithArgs(id).
		WillReturnResult(sqlmock.NewResult(0, 1))

	deleted, err := NewUserStore(db).Delete(context.Background(), id)
	require.NoError(t, err)
	assert.True(t, deleted)
}

func TestUserStoreDeleteMissingRow(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	id := uuid.New()
	mock.ExpectExec(`DELETE FROM users`).
		WithArgs(id).
		WillReturnResult(sqlmock.NewResult(0, 0))

	deleted, err := NewUserStore(db).Delete(context.Background(), id)
	require.NoError(t, err)
	assert.False(t, deleted)
}

func TestUserStoreExistsByUsernameOrEmail(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery(`SELECT EXISTS`).
		WithArgs("alice", "alice@example.com").
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))

	exists, err := NewUserStore(db).ExistsByUsernameOrEmail(context.Background(), "alice", "alice@example.com")
	require.NoError(t, err)
	assert.True(t, exists)
}
