package postgres

import (
	"context"
	"fmt"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/google/uuid"

	"github.com/shelfwise/shelfwise/pkg/catalog"
	"github.com/shelfwise/shelfwise/pkg/storage"
)

const bookListKeyPattern = "search:books:*"

// CachedBookStore layers an in-process LRU and Redis in front of a book
// repository. Reads check L1, then Redis, then the database; mutations
// write through and invalidate both levels. The hourly purge job clears
// the search:books:* keys independently.
type CachedBookStore struct {
	inner storage.BookRepository
	redis *RedisClient
	l1    *lru.Cache[string, *catalog.Book]
	ttl   time.Duration
}

// NewCachedBookStore wraps a book repository with the two cache levels.
func NewCachedBookStore(inner storage.BookRepository, redis *RedisClient, cfg storage.Config) (*CachedBookStore, error) {
	size := cfg.L1CacheSize
	if size <= 0 {
		size = 1024
	}
	l1, err := lru.New[string, *catalog.Book](size)
	if err != nil {
		return nil, fmt.Errorf("creating l1 cache: %w", err)
	}
	ttl := cfg.CacheTTL
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &CachedBookStore{inner: inner, redis: redis, l1: l1, ttl: ttl}, nil
}

func bookKey(id uuid.UUID) string {
	return "book:" + id.String()
}

func bookListKey(limit, offset int) string {
	return fmt.Sprintf("search:books:%d:%d", limit, offset)
}

func (s *CachedBookStore) GetByID(ctx context.Context, id uuid.UUID) (*catalog.Book, error) {
	key := bookKey(id)

	if book, ok := s.l1.Get(key); ok {
		return book, nil
	}

	var cached catalog.Book
	hit, err := s.redis.GetJSON(ctx, key, &cached)
	if err == nil && hit {
		s.l1.Add(key, &cached)
		return &cached, nil
	}

	book, err := s.inner.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	s.l1.Add(key, book)
	// Best effort; a failed cache write must not fail the read.
	_ = s.redis.SetJSON(ctx, key, book, s.ttl)
	return book, nil
}

func (s *CachedBookStore) List(ctx context.Context, limit, offset int) ([]catalog.Book, error) {
	key := bookListKey(limit, offset)

	var cached []catalog.Book
	hit, err := s.redis.GetJSON(ctx, key, &cached)
	if err == nil && hit {
		return cached, nil
	}

	books, err := s.inner.List(ctx, limit, offset)
	if err != nil {
		return nil, err
	}
	_ = s.redis.SetJSON(ctx, key, books, s.ttl)
	return books, nil
}

func (s *CachedBookStore) CreateWithGenres(ctx context.Context, book *catalog.Book, genreIDs []uuid.UUID) error {
	if err := s.inner.CreateWithGenres(ctx, book, genreIDs); err != nil {
		return err
	}
	s.invalidateLists(ctx)
	return nil
}

func (s *CachedBookStore) Update(ctx context.Context, id uuid.UUID, patch catalog.BookPatch) (*catalog.Book, error) {
	book, err := s.inner.Update(ctx, id, patch)
	if err != nil {
		return nil, err
	}
	s.invalidate(ctx, id)
	return book, nil
}

func (s *CachedBookStore) Delete(ctx context.Context, id uuid.UUID) (bool, error) {
	deleted, err := s.inner.Delete(ctx, id)
	if err != nil {
		return false, err
	}
	if deleted {
		s.invalidate(ctx, id)
	}
	return deleted, nil
}

func (s *CachedBookStore) invalidate(ctx context.Context, id uuid.UUID) {
	s.l1.Remove(bookKey(id))
	_ = s.redis.Delete(ctx, bookKey(id))
	s.invalidateLists(ctx)
}

func (s *CachedBookStore) invalidateLists(ctx context.Context) {
	_, _ = s.redis.PurgePattern(ctx, bookListKeyPattern)
}

// PurgeL1 drops every in-process cache entry. The worker's cache purge
// job clears Redis; API instances call this on the same schedule if they
// share the process.
func (s *CachedBookStore) PurgeL1() {
	s.l1.Purge()
}
