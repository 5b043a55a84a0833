package catalog

import (
	"time"

	"github.com/google/uuid"
)

// Role is the coarse capability tier attached to a user.
type Role string

const (
	RoleAdmin  Role = "admin"
	RoleAuthor Role = "author"
	RoleUser   Role = "user"
)

// roleLevels orders roles for the static hierarchy: admin ⊇ author ⊇ user.
var roleLevels = map[Role]int{
	RoleUser:   1,
	RoleAuthor: 2,
	RoleAdmin:  3,
}

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	_, ok := roleLevels[r]
	return ok
}

// Covers reports whether r sits at or above other in the role hierarchy.
// An unknown role covers nothing.
func (r Role) Covers(other Role) bool {
	return roleLevels[r] != 0 && roleLevels[r] >= roleLevels[other]
}

// User is the persisted account record. PasswordHash never leaves the
// process; the external representation is UserView.
type User struct {
	ID           uuid.UUID `json:"id"`
	Username     string    `json:"username"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	IsActive     bool      `json:"is_active"`
	Role         Role      `json:"role"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Author is a user's publishing profile. One per user; deleting it demotes
// the owning user back to RoleUser.
type Author struct {
	ID             uuid.UUID `json:"id"`
	UserID         uuid.UUID `json:"user_id"`
	Bio            string    `json:"bio,omitempty"`
	ProfilePicture string    `json:"profile_picture,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
}

// Book is an uploaded work. Rating is a derived aggregate recomputed
// out-of-band from reviews; request handlers never write it.
type Book struct {
	ID          uuid.UUID `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description,omitempty"`
	CoverImage  string    `json:"cover_image,omitempty"`
	FilePath    string    `json:"file_path"`
	UploadDate  time.Time `json:"upload_date"`
	Rating      float64   `json:"rating"`
	AuthorID    uuid.UUID `json:"author_id"`
	Genres      []Genre   `json:"genres,omitempty"`
}

// Genre is a unique named category.
type Genre struct {
	ID   uuid.UUID `json:"id"`
	Name string    `json:"name"`
}

// Review is keyed by (user, book); at most one per pair. CreatedAt is
// immutable after creation.
type Review struct {
	UserID    uuid.UUID `json:"user_id"`
	BookID    uuid.UUID `json:"book_id"`
	Text      string    `json:"text"`
	Rating    int       `json:"rating"`
	CreatedAt time.Time `json:"created_at"`
}

// Favourite is keyed by (user, book); at most one per pair.
type Favourite struct {
	UserID uuid.UUID `json:"user_id"`
	BookID uuid.UUID `json:"book_id"`
}

// RoleRecord is the administrative role entity (admin-managed capability
// map). Permission resolution itself uses the static Role hierarchy; this
// record survives only for role administration.
type RoleRecord struct {
	ID          uuid.UUID       `json:"id"`
	Name        Role            `json:"name"`
	Permissions map[string]bool `json:"permissions"`
}

// Patch types carry partial updates. Nil fields are left untouched.

// UserPatch updates a user. Password is the plain secret; the repository
// layer only ever sees PasswordHash set by the caller.
type UserPatch struct {
	Username     *string
	Email        *string
	PasswordHash *string
	IsActive     *bool
	Role         *Role
}

// IsZero reports whether no fields are set.
func (p UserPatch) IsZero() bool {
	return p.Username == nil && p.Email == nil && p.PasswordHash == nil &&
		p.IsActive == nil && p.Role == nil
}

// AuthorPatch updates an author profile.
type AuthorPatch struct {
	Bio            *string
	ProfilePicture *string
}

func (p AuthorPatch) IsZero() bool {
	return p.Bio == nil && p.ProfilePicture == nil
}

// BookPatch updates a book. GenreIDs, when non-nil, replaces the full genre
// set (an empty slice clears it).
type BookPatch struct {
	Title       *string
	Description *string
	CoverImage  *string
	FilePath    *string
	GenreIDs    *[]uuid.UUID
}

func (p BookPatch) IsZero() bool {
	return p.Title == nil && p.Description == nil && p.CoverImage == nil &&
		p.FilePath == nil && p.GenreIDs == nil
}

// ReviewPatch updates a review's mutable fields. The creation timestamp and
// the identifying pair are immutable.
type ReviewPatch struct {
	Text   *string
	Rating *int
}

func (p ReviewPatch) IsZero() bool {
	return p.Text == nil && p.Rating == nil
}

const (
	// RatingMin and RatingMax bound review ratings, mirrored by a CHECK
	// constraint in the schema.
	RatingMin = 1
	RatingMax = 5
)

// ValidRating reports whether a review rating is in [RatingMin, RatingMax].
func ValidRating(r int) bool {
	return r >= RatingMin && r <= RatingMax
}
