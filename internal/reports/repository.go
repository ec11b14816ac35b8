package reports

import (
	"context"
	"encoding/json"
	"fmt"

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

const reportColumns = `id, game_id, external_game_id, home_team_id, away_team_id,
	home_score, away_score, overtime, shootout, player_stats, reported_at,
	status, reviewed_by, reviewed_at`

func scanReport(row interface{ Scan(...any) error }) (*models.PendingReport, error) {
	var p models.PendingReport
	err := row.Scan(&p.ID, &p.GameID, &p.ExternalGameID, &p.HomeTeamID, &p.AwayTeamID,
		&p.HomeScore, &p.AwayScore, &p.Overtime, &p.Shootout, &p.PlayerStats,
		&p.ReportedAt, &p.Status, &p.ReviewedBy, &p.ReviewedAt)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

type CreateReportParams struct {
	GameID         *uuid.UUID
	ExternalGameID string
	HomeTeamID     uuid.UUID
	AwayTeamID     uuid.UUID
	HomeScore      int
	AwayScore      int
	Overtime       bool
	Shootout       bool
	PlayerStats    json.RawMessage
}

func (r *Repository) Create(ctx context.Context, q store.DBTX, p CreateReportParams) (*models.PendingReport, error) {
	row := r.q(q).QueryRow(ctx, `
		INSERT INTO pending_game_reports (id, game_id, external_game_id, home_team_id, away_team_id,
			home_score, away_score, overtime, shootout, player_stats)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING `+reportColumns,
		uuid.New(), p.GameID, p.ExternalGameID, p.HomeTeamID, p.AwayTeamID,
		p.HomeScore, p.AwayScore, p.Overtime, p.Shootout, p.PlayerStats)
	report, err := scanReport(row)
	if err != nil {
		return nil, fmt.Errorf("failed to create report: %w", err)
	}
	return report, nil
}

func (r *Repository) GetByID(ctx context.Context, q store.DBTX, id uuid.UUID) (*models.PendingReport, error) {
	row := r.q(q).QueryRow(ctx, `SELECT `+reportColumns+` FROM pending_game_reports WHERE id = $1`, id)
	report, err := scanReport(row)
	if err != nil {
		return nil, store.MapNotFound(err)
	}
	return report, nil
}

// Resolve moves a pending report to approved or rejected exactly once.
func (r *Repository) Resolve(ctx context.Context, q store.DBTX, id uuid.UUID, status models.ReportStatus, reviewedBy string) error {
	tag, err := r.q(q).Exec(ctx, `
		UPDATE pending_game_reports
		SET status = $1, reviewed_by = $2, reviewed_at = now()
		WHERE id = $3 AND status = 'pending'
	`, status, reviewedBy, id)
	if err != nil {
		return fmt.Errorf("failed to resolve report: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return store.ErrNotFound
	}
	return nil
}

// ListPending returns unreviewed reports, oldest first.
func (r *Repository) ListPending(ctx context.Context) ([]models.PendingReport, error) {
	rows, err := r.db.Query(ctx, `
		SELECT `+reportColumns+` FROM pending_game_reports
		WHERE status = 'pending'
		ORDER BY reported_at
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to list pending reports: %w", err)
	}
	defer rows.Close()

	var reports []models.PendingReport
	for rows.Next() {
		p, err := scanReport(rows)
		if err != nil {
			return nil, err
		}
		reports = append(reports, *p)
	}
	return reports, rows.Err()
}
