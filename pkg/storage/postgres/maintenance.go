package postgres

import (
	"context"
	"database/sql"
	"fmt"
)

// MaintenanceStore implements the scheduled aggregate maintenance the
// worker drives: materialized view refreshes and the rating rollup.
type MaintenanceStore struct {
	db *sql.DB
}

// NewMaintenanceStore creates a maintenance store.
func NewMaintenanceStore(db *sql.DB) *MaintenanceStore {
	return &MaintenanceStore{db: db}
}

// RefreshMaterializedViews refreshes book_stats and top_authors.
// CONCURRENTLY keeps readers unblocked while the views rebuild.
func (s *MaintenanceStore) RefreshMaterializedViews(ctx context.Context) error {
	for _, view := range []string{"book_stats", "top_authors"} {
		query := fmt.Sprintf("REFRESH MATERIALIZED VIEW CONCURRENTLY %s", view)
		if _, err := s.db.ExecContext(ctx, query); err != nil {
			return fmt.Errorf("refreshing %s: %w", view, err)
		}
	}
	return nil
}

// RecomputeBookRatings rolls review ratings up into books.rating.
// Returns the number of book rows touched.
func (s *MaintenanceStore) RecomputeBookRatings(ctx context.Context) (int64, error) {
	res, err := s.db.ExecContext(ctx, `
		UPDATE books b
		SET rating = COALESCE(agg.avg_rating, 0)
		FROM (
			SELECT book_id, AVG(rating)::double precision AS avg_rating
			FROM reviews
			GROUP BY book_id
		) agg
		WHERE agg.book_id = b.id AND b.rating IS DISTINCT FROM COALESCE(agg.avg_rating, 0)`)
	if err != nil {
		return 0, fmt.Errorf("recomputing book ratings: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("recomputing book ratings: %w", err)
	}
	return n, nil
}
