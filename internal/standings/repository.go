package standings

import (
	"context"
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

// RowDelta is the increment a completed game contributes to one team's row.
type RowDelta struct {
	Wins           int
	Losses         int
	OvertimeLosses int
	Points         int
	GoalsFor       int
	GoalsAgainst   int
}

// ApplyDelta upserts the team's row, adding the delta to the existing
// counters. Games played always advances by one.
func (r *Repository) ApplyDelta(ctx context.Context, q store.DBTX, seasonID, teamID uuid.UUID, d RowDelta) error {
	_, err := r.q(q).Exec(ctx, `
		INSERT INTO standings (id, season_id, team_id, games_played, wins, losses, overtime_losses,
			points, goals_for, goals_against, goal_differential, last_updated)
		VALUES ($1, $2, $3, 1, $4, $5, $6, $7, $8, $9, $8 - $9, now())
		ON CONFLICT (season_id, team_id) DO UPDATE SET
			games_played      = standings.games_played + 1,
			wins              = standings.wins + EXCLUDED.wins,
			losses            = standings.losses + EXCLUDED.losses,
			overtime_losses   = standings.overtime_losses + EXCLUDED.overtime_losses,
			points            = standings.points + EXCLUDED.points,
			goals_for         = standings.goals_for + EXCLUDED.goals_for,
			goals_against     = standings.goals_against + EXCLUDED.goals_against,
			goal_differential = standings.goal_differential + EXCLUDED.goal_differential,
			last_updated      = now()
	`, uuid.New(), seasonID, teamID,
		d.Wins, d.Losses, d.OvertimeLosses, d.Points, d.GoalsFor, d.GoalsAgainst)
	if err != nil {
		return fmt.Errorf("failed to apply standings delta: %w", err)
	}
	return nil
}

// List returns the season table ordered by points, then wins, then goal
// differential, all descending.
func (r *Repository) List(ctx context.Context, seasonID uuid.UUID) ([]models.StandingsRow, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, season_id, team_id, games_played, wins, losses, overtime_losses,
			points, goals_for, goals_against, goal_differential, last_updated
		FROM standings
		WHERE season_id = $1
		ORDER BY points DESC, wins DESC, goal_differential DESC
	`, seasonID)
	if err != nil {
		return nil, fmt.Errorf("failed to list standings: %w", err)
	}
	defer rows.Close()

	var table []models.StandingsRow
	for rows.Next() {
		var s models.StandingsRow
		if err := rows.Scan(&s.ID, &s.SeasonID, &s.TeamID, &s.GamesPlayed, &s.Wins,
			&s.Losses, &s.OvertimeLosses, &s.Points, &s.GoalsFor, &s.GoalsAgainst,
			&s.GoalDifferential, &s.LastUpdated); err != nil {
			return nil, err
		}
		table = append(table, s)
	}
	return table, rows.Err()
}

// GetTeam returns one team's row.
func (r *Repository) GetTeam(ctx context.Context, seasonID, teamID uuid.UUID) (*models.StandingsRow, error) {
	var s models.StandingsRow
	err := r.db.QueryRow(ctx, `
		SELECT id, season_id, team_id, games_played, wins, losses, overtime_losses,
			points, goals_for, goals_against, goal_differential, last_updated
		FROM standings WHERE season_id = $1 AND team_id = $2
	`, seasonID, teamID).Scan(&s.ID, &s.SeasonID, &s.TeamID, &s.GamesPlayed, &s.Wins,
		&s.Losses, &s.OvertimeLosses, &s.Points, &s.GoalsFor, &s.GoalsAgainst,
		&s.GoalDifferential, &s.LastUpdated)
	if err != nil {
		return nil, store.MapNotFound(err)
	}
	return &s, nil
}
