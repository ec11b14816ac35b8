package seasons

import (
	"context"
	"fmt"
	"time"

	"github.com/breakawayhl/breakaway/internal/models"
	"github.com/breakawayhl/breakaway/internal/store"
	"github.com/google/uuid"
)

type Repository struct {
	db store.DBTX
}

func NewRepository(db store.DBTX) *Repository {
	return &Repository{db: db}
}

func (r *Repository) q(q store.DBTX) store.DBTX {
	if q != nil {
		return q
	}
	return r.db
}

const seasonColumns = `id, name, start_date, end_date, is_active, playoff_start_date, created_at`

func scanSeason(row interface{ Scan(...any) error }) (*models.Season, error) {
	var s models.Season
	err := row.Scan(&s.ID, &s.Name, &s.StartDate, &s.EndDate, &s.IsActive, &s.PlayoffStartDate, &s.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *Repository) Create(ctx context.Context, q store.DBTX, name string, startDate time.Time) (*models.Season, error) {
	row := r.q(q).QueryRow(ctx, `
		INSERT INTO seasons (id, name, start_date)
		VALUES ($1, $2, $3)
		RETURNING `+seasonColumns,
		uuid.New(), name, startDate)
	season, err := scanSeason(row)
	if err != nil {
		return nil, fmt.Errorf("failed to create season: %w", err)
	}
	return season, nil
}

func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (*models.Season, error) {
	row := r.db.QueryRow(ctx, `SELECT `+seasonColumns+` FROM seasons WHERE id = $1`, id)
	season, err := scanSeason(row)
	if err != nil {
		return nil, store.MapNotFound(err)
	}
	return season, nil
}

// GetActive returns the single active season, or store.ErrNotFound.
func (r *Repository) GetActive(ctx context.Context) (*models.Season, error) {
	row := r.db.QueryRow(ctx, `SELECT `+seasonColumns+` FROM seasons WHERE is_active LIMIT 1`)
	season, err := scanSeason(row)
	if err != nil {
		return nil, store.MapNotFound(err)
	}
	return season, nil
}

func (r *Repository) End(ctx context.Context, q store.DBTX, id uuid.UUID) error {
	tag, err := r.q(q).Exec(ctx, `
		UPDATE seasons SET is_active = false, end_date = CURRENT_DATE WHERE id = $1 AND is_active
	`, id)
	if err != nil {
		return fmt.Errorf("failed to end season: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return store.ErrNotFound
	}
	return nil
}
