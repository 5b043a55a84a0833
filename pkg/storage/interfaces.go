package storage

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/shelfwise/shelfwise/pkg/catalog"
)

// UserRepository persists user accounts.
type UserRepository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*catalog.User, error)
	GetByUsername(ctx context.Context, username string) (*catalog.User, error)
	List(ctx context.Context, limit, offset int) ([]catalog.User, error)
	ExistsByUsernameOrEmail(ctx context.Context, username, email string) (bool, error)
	Create(ctx context.Context, user *catalog.User) error
	Update(ctx context.Context, id uuid.UUID, patch catalog.UserPatch) (*catalog.User, error)
	Delete(ctx context.Context, id uuid.UUID) (bool, error)
}

// AuthorRepository persists author profiles. Deleting an author demotes
// the owning user's role in the same transaction.
type AuthorRepository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*catalog.Author, error)
	GetByUserID(ctx context.Context, userID uuid.UUID) (*catalog.Author, error)
	List(ctx context.Context, limit, offset int) ([]catalog.Author, error)
	ExistsForUser(ctx context.Context, userID uuid.UUID) (bool, error)
	// CreatePromoting inserts the profile and raises the owning user's
	// role to author when it is currently user, in one transaction.
	CreatePromoting(ctx context.Context, author *catalog.Author) error
	Update(ctx context.Context, id uuid.UUID, patch catalog.AuthorPatch) (*catalog.Author, error)
	// DeleteDemoting removes the profile and lowers the owning user's
	// role back to user, in one transaction.
	DeleteDemoting(ctx context.Context, id uuid.UUID) (bool, error)
}

// BookRepository persists books and their genre links.
type BookRepository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*catalog.Book, error)
	List(ctx context.Context, limit, offset int) ([]catalog.Book, error)
	// CreateWithGenres inserts the book and links every listed genre, or
	// nothing at all. A missing genre id aborts the transaction and is
	// reported as catalog.ErrNotFound naming that id.
	CreateWithGenres(ctx context.Context, book *catalog.Book, genreIDs []uuid.UUID) error
	Update(ctx context.Context, id uuid.UUID, patch catalog.BookPatch) (*catalog.Book, error)
	Delete(ctx context.Context, id uuid.UUID) (bool, error)
}

// GenreRepository persists genres. Names are unique.
type GenreRepository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*catalog.Genre, error)
	List(ctx context.Context) ([]catalog.Genre, error)
	Create(ctx context.Context, genre *catalog.Genre) error
	Update(ctx context.Context, id uuid.UUID, name string) (*catalog.Genre, error)
	Delete(ctx context.Context, id uuid.UUID) (bool, error)
}

// ReviewRepository persists reviews, keyed by (user, book).
type ReviewRepository interface {
	Get(ctx context.Context, userID, bookID uuid.UUID) (*catalog.Review, error)
	ListByBook(ctx context.Context, bookID uuid.UUID) ([]catalog.Review, error)
	ListByUser(ctx context.Context, userID uuid.UUID) ([]catalog.Review, error)
	Exists(ctx context.Context, userID, bookID uuid.UUID) (bool, error)
	// Create is a check-then-insert in one transaction; a present key
	// pair is reported as catalog.ErrConflict.
	Create(ctx context.Context, review *catalog.Review) error
	Update(ctx context.Context, userID, bookID uuid.UUID, patch catalog.ReviewPatch) (*catalog.Review, error)
	Delete(ctx context.Context, userID, bookID uuid.UUID) (bool, error)
}

// FavouriteRepository persists favourites, keyed by (user, book).
type FavouriteRepository interface {
	ListByUser(ctx context.Context, userID uuid.UUID) ([]catalog.Favourite, error)
	Exists(ctx context.Context, userID, bookID uuid.UUID) (bool, error)
	Create(ctx context.Context, fav *catalog.Favourite) error
	Delete(ctx context.Context, userID, bookID uuid.UUID) (bool, error)
}

// RoleRepository persists the role administration entity.
type RoleRepository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*catalog.RoleRecord, error)
	List(ctx context.Context) ([]catalog.RoleRecord, error)
	Create(ctx context.Context, role *catalog.RoleRecord) error
	Update(ctx context.Context, id uuid.UUID, permissions map[string]bool) (*catalog.RoleRecord, error)
	Delete(ctx context.Context, id uuid.UUID) (bool, error)
}

// MaintenanceStore exposes the out-of-band aggregate maintenance the
// worker runs on a schedule.
type MaintenanceStore interface {
	RefreshMaterializedViews(ctx context.Context) error
	RecomputeBookRatings(ctx context.Context) (int64, error)
}

// KeyPurger deletes ephemeral keys matching a pattern. Implemented by
// the Redis client; the cache purge job runs on top of it.
type KeyPurger interface {
	PurgePattern(ctx context.Context, pattern string) (int, error)
}

// Config for the storage backends.
type Config struct {
	// PostgreSQL config
	PostgresURL      string
	PostgresMaxConns int
	PostgresMinConns int
	PostgresTimeout  time.Duration

	// Redis config
	RedisAddr       string
	RedisPassword   string
	RedisDB         int
	RedisMaxRetries int
	RedisPoolSize   int

	// Cache config
	CacheEnabled bool
	CacheTTL     time.Duration
	L1CacheSize  int
}

// DefaultConfig returns sensible default configuration
func DefaultConfig() Config {
	return Config{
		PostgresMaxConns: 20,
		PostgresMinConns: 2,
		PostgresTimeout:  30 * time.Second,
		RedisMaxRetries:  3,
		RedisPoolSize:    10,
		CacheEnabled:     true,
		CacheTTL:         5 * time.Minute,
		L1CacheSize:      1024,
	}
}
