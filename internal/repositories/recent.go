package repositories

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/desertthunder/festa/internal/models"
	"github.com/desertthunder/festa/internal/shared"
)

const (
	// RecentLimit is the number of recently viewed festivals kept.
	RecentLimit = 10
	// RecentTTL is how long a viewed festival stays in the list.
	RecentTTL = 7 * 24 * time.Hour
)

// RecentFestivalRepository keeps the recently viewed festivals.
type RecentFestivalRepository struct {
	db  *sql.DB
	now func() time.Time
}

// NewRecentFestivalRepository creates a new [RecentFestivalRepository] with the given database connection
func NewRecentFestivalRepository(db *sql.DB) *RecentFestivalRepository {
	return &RecentFestivalRepository{db: db, now: time.Now}
}

// Record moves f to the front of the list, dropping entries beyond [RecentLimit].
func (r *RecentFestivalRepository) Record(ctx context.Context, f models.FestivalSummary) error {
	if f.ID == 0 || f.Name == "" {
		return fmt.Errorf("%w: recent festival needs an id and a name", shared.ErrInvalidInput)
	}
	viewed := r.now().UTC()

	return withTx(ctx, r.db, func(tx *sql.Tx) error {
		query := `
			INSERT INTO recent_festivals (festival_id, name, image_url, region, viewed_at) VALUES (?, ?, ?, ?, ?)
			ON CONFLICT (festival_id) DO UPDATE SET
				name = excluded.name, image_url = excluded.image_url, region = excluded.region, viewed_at = excluded.viewed_at
		`
		if _, err := tx.ExecContext(ctx, query, f.ID, f.Name, f.ImageURL, f.Region, viewed); err != nil {
			return fmt.Errorf("%w: failed to record festival %d: %w", shared.ErrStorage, f.ID, err)
		}

		prune := `
			DELETE FROM recent_festivals WHERE festival_id NOT IN (
				SELECT festival_id FROM recent_festivals ORDER BY viewed_at DESC, festival_id DESC LIMIT ?
			)
		`
		if _, err := tx.ExecContext(ctx, prune, RecentLimit); err != nil {
			return fmt.Errorf("%w: failed to prune recent festivals: %w", shared.ErrStorage, err)
		}
		return nil
	})
}

// List returns the recently viewed festivals newest first, skipping entries older than [RecentTTL].
func (r *RecentFestivalRepository) List(ctx context.Context) ([]models.FestivalSummary, error) {
	cutoff := r.now().UTC().Add(-RecentTTL)
	query := `
		SELECT festival_id, name, image_url, region, viewed_at
		FROM recent_festivals
		WHERE viewed_at >= ?
		ORDER BY viewed_at DESC, festival_id DESC
		LIMIT ?
	`
	rows, err := r.db.QueryContext(ctx, query, cutoff, RecentLimit)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to query recent festivals: %w", shared.ErrStorage, err)
	}
	defer rows.Close()

	out := []models.FestivalSummary{}
	for rows.Next() {
		var f models.FestivalSummary
		if err := rows.Scan(&f.ID, &f.Name, &f.ImageURL, &f.Region, &f.ViewedAt); err != nil {
			return nil, fmt.Errorf("%w: failed to scan recent festival: %w", shared.ErrStorage, err)
		}
		out = append(out, f)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: failed to read recent festivals: %w", shared.ErrStorage, err)
	}
	return out, nil
}

// Clear empties the list.
func (r *RecentFestivalRepository) Clear(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM recent_festivals`); err != nil {
		return fmt.Errorf("%w: failed to clear recent festivals: %w", shared.ErrStorage, err)
	}
	return nil
}
