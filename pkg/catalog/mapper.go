package catalog

import (
	"time"

	"github.com/google/uuid"
)

// UserView is the external representation of a User. It is a separate type
// with no credential field: the password hash cannot reach a response body
// even through reflection-based encoders.
type UserView struct {
	ID        uuid.UUID `json:"id"`
	Username  string    `json:"username"`
	Email     string    `json:"email"`
	IsActive  bool      `json:"is_active"`
	Role      Role      `json:"role"`
	CreatedAt time.Time `json:"created_at"`
}

// UserMapper translates between persisted users and their external view.
type UserMapper struct{}

// External shapes a user record for API consumers, dropping the credential.
// Applying it to a view that was already produced by External is a no-op by
// construction: UserView has no internal-only fields to strip.
func (UserMapper) External(u User) UserView {
	return UserView{
		ID:        u.ID,
		Username:  u.Username,
		Email:     u.Email,
		IsActive:  u.IsActive,
		Role:      u.Role,
		CreatedAt: u.CreatedAt,
	}
}

// ExternalAll maps a slice of records.
func (m UserMapper) ExternalAll(users []User) []UserView {
	views := make([]UserView, 0, len(users))
	for _, u := range users {
		views = append(views, m.External(u))
	}
	return views
}

// Record rebuilds the persisted shape from an external view. The credential
// hash is not part of the view and must be supplied by the caller.
func (UserMapper) Record(v UserView, passwordHash string) User {
	return User{
		ID:           v.ID,
		Username:     v.Username,
		Email:        v.Email,
		PasswordHash: passwordHash,
		IsActive:     v.IsActive,
		Role:         v.Role,
		CreatedAt:    v.CreatedAt,
	}
}

// BookView is the external representation of a Book. Genres are flattened to
// their views so storage-side association rows never leak.
type BookView struct {
	ID          uuid.UUID   `json:"id"`
	Title       string      `json:"title"`
	Description string      `json:"description,omitempty"`
	CoverImage  string      `json:"cover_image,omitempty"`
	FilePath    string      `json:"file_path"`
	UploadDate  time.Time   `json:"upload_date"`
	Rating      float64     `json:"rating"`
	AuthorID    uuid.UUID   `json:"author_id"`
	Genres      []GenreView `json:"genres"`
}

// GenreView is the external representation of a Genre.
type GenreView struct {
	ID   uuid.UUID `json:"id"`
	Name string    `json:"name"`
}

// BookMapper translates between persisted books and their external view.
type BookMapper struct{}

func (BookMapper) External(b Book) BookView {
	genres := make([]GenreView, 0, len(b.Genres))
	for _, g := range b.Genres {
		genres = append(genres, GenreView(g))
	}
	return BookView{
		ID:          b.ID,
		Title:       b.Title,
		Description: b.Description,
		CoverImage:  b.CoverImage,
		FilePath:    b.FilePath,
		UploadDate:  b.UploadDate,
		Rating:      b.Rating,
		AuthorID:    b.AuthorID,
		Genres:      genres,
	}
}

func (m BookMapper) ExternalAll(books []Book) []BookView {
	views := make([]BookView, 0, len(books))
	for _, b := range books {
		views = append(views, m.External(b))
	}
	return views
}

func (BookMapper) Record(v BookView) Book {
	genres := make([]Genre, 0, len(v.Genres))
	for _, g := range v.Genres {
		genres = append(genres, Genre(g))
	}
	return Book{
		ID:          v.ID,
		Title:       v.Title,
		Description: v.Description,
		CoverImage:  v.CoverImage,
		FilePath:    v.FilePath,
		UploadDate:  v.UploadDate,
		Rating:      v.Rating,
		AuthorID:    v.AuthorID,
		Genres:      genres,
	}
}

// GenreMapper translates between persisted genres and their external view.
// The shapes are identical; the distinct type keeps the external contract
// decoupled from the storage record.
type GenreMapper struct{}

func (GenreMapper) External(g Genre) GenreView { return GenreView(g) }

func (m GenreMapper) ExternalAll(genres []Genre) []GenreView {
	views := make([]GenreView, 0, len(genres))
	for _, g := range genres {
		views = append(views, m.External(g))
	}
	return views
}

func (GenreMapper) Record(v GenreView) Genre { return Genre(v) }
