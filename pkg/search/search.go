package search

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/shelfwise/shelfwise/pkg/catalog"
)

var tracer = otel.Tracer("shelfwise/search")

// CacheKeyPrefix is the namespace for cached search results. The cache
// purge job deletes everything under it, so stale results never outlive
// a purge cycle.
const CacheKeyPrefix = "search:books:"

// DefaultCacheTTL bounds how long a cached result set is served when no
// TTL is configured.
const DefaultCacheTTL = 5 * time.Minute

const defaultLimit = 25

// ResultCache stores marshaled result sets. Implemented by the Redis
// client; a nil cache disables caching.
type ResultCache interface {
	GetJSON(ctx context.Context, key string, dest interface{}) (bool, error)
	SetJSON(ctx context.Context, key string, value interface{}, ttl time.Duration) error
}

// Query is a catalog search request.
type Query struct {
	Text    string     `json:"query"`              // Free-text over title and description
	GenreID *uuid.UUID `json:"genre_id,omitempty"` // Restrict to one genre
	Limit   int        `json:"limit"`              // Max results
}

// Result is one matching book.
type Result struct {
	BookID      uuid.UUID `json:"book_id"`
	Title       string    `json:"title"`
	Description string    `json:"description,omitempty"`
	AuthorID    uuid.UUID `json:"author_id"`
	Rating      float64   `json:"rating"`
	Score       float64   `json:"score"`
}

// Results contains search results and metadata.
type Results struct {
	Results    []Result `json:"results"`
	TotalCount int      `json:"total_count"`
	Query      string   `json:"query"`
}

// Engine searches the book catalog. Result sets are cached under
// CacheKeyPrefix so repeated queries skip the database.
type Engine struct {
	db    *sql.DB
	cache ResultCache
	ttl   time.Duration
}

// NewEngine creates a search engine. cache may be nil.
func NewEngine(db *sql.DB, cache ResultCache, ttl time.Duration) *Engine {
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	return &Engine{db: db, cache: cache, ttl: ttl}
}

// Search finds books whose title or description matches the query text,
// scored by where the match lands. An empty query returns no results.
func (e *Engine) Search(ctx context.Context, q Query) (*Results, error) {
	ctx, span := tracer.Start(ctx, "search.books")
	defer span.End()
	span.SetAttributes(attribute.String("search.query", q.Text))

	q.Text = strings.TrimSpace(q.Text)
	if q.Text == "" {
		return nil, catalog.InvalidInputf("search query is required")
	}
	if q.Limit <= 0 {
		q.Limit = defaultLimit
	}

	key := cacheKey(q)
	if e.cache != nil {
		var cached Results
		if hit, err := e.cache.GetJSON(ctx, key, &cached); err == nil && hit {
			span.SetAttributes(attribute.Bool("search.cache_hit", true))
			return &cached, nil
		}
	}

	results, err := e.query(ctx, q)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "search query failed")
		return nil, err
	}

	if e.cache != nil {
		// Cache write failure only costs the next caller a database hit
		_ = e.cache.SetJSON(ctx, key, results, e.ttl)
	}

	span.SetAttributes(attribute.Int("search.result_count", results.TotalCount))
	return results, nil
}

func (e *Engine) query(ctx context.Context, q Query) (*Results, error) {
	pattern := "%" + escapeLike(q.Text) + "%"
	args := []interface{}{pattern}

	sqlQuery := `
		SELECT b.id, b.title, b.description, b.author_id, b.rating
		FROM books b
		WHERE (b.title ILIKE $1 OR b.description ILIKE $1)`
	if q.GenreID != nil {
		args = append(args, *q.GenreID)
		sqlQuery += `
		AND EXISTS (
			SELECT 1 FROM book_genre bg
			WHERE bg.book_id = b.id AND bg.genre_id = $2
		)`
	}
	args = append(args, q.Limit)
	sqlQuery += fmt.Sprintf(`
		ORDER BY b.rating DESC
		LIMIT $%d`, len(args))

	rows, err := e.db.QueryContext(ctx, sqlQuery, args...)
	if err != nil {
		return nil, fmt.Errorf("searching books: %w", err)
	}
	defer rows.Close()

	results := &Results{Results: make([]Result, 0), Query: q.Text}
	for rows.Next() {
		var r Result
		if err := rows.Scan(&r.BookID, &r.Title, &r.Description, &r.AuthorID, &r.Rating); err != nil {
			return nil, fmt.Errorf("scanning search result: %w", err)
		}
		r.Score = score(r, q.Text)
		results.Results = append(results.Results, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating search results: %w", err)
	}

	sortByScore(results.Results)
	results.TotalCount = len(results.Results)
	return results, nil
}

// score ranks a match by where the query lands: an exact title match
// beats a title prefix, which beats a title substring, which beats a
// description-only hit.
func score(r Result, query string) float64 {
	title := strings.ToLower(r.Title)
	q := strings.ToLower(query)
	switch {
	case title == q:
		return 100
	case strings.HasPrefix(title, q):
		return 80
	case strings.Contains(title, q):
		return 60
	default:
		return 30
	}
}

func sortByScore(results []Result) {
	// Insertion sort keeps equal-score results in rating order from the
	// database
	for i := 1; i < len(results); i++ {
		for j := i; j > 0 && results[j].Score > results[j-1].Score; j-- {
			results[j], results[j-1] = results[j-1], results[j]
		}
	}
}

// cacheKey normalizes a query into its cache slot.
func cacheKey(q Query) string {
	var b strings.Builder
	b.WriteString(CacheKeyPrefix)
	b.WriteString(strings.ToLower(strings.Join(strings.Fields(q.Text), " ")))
	if q.GenreID != nil {
		b.WriteString(":g:")
		b.WriteString(q.GenreID.String())
	}
	fmt.Fprintf(&b, ":l:%d", q.Limit)
	return b.String()
}

// escapeLike neutralizes LIKE metacharacters in user input.
func escapeLike(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, "%", `\%`)
	s = strings.ReplaceAll(s, "_", `\_`)
	return s
}
