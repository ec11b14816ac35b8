package games

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

const gameColumns = `id, season_id, game_number, home_team_id, away_team_id, scheduled_time,
	game_type, playoff_round, playoff_series, playoff_game, status,
	home_score, away_score, overtime, shootout, completed_at, external_game_id, created_at`

func scanGame(row interface{ Scan(...any) error }) (*models.Game, error) {
	var g models.Game
	err := row.Scan(&g.ID, &g.SeasonID, &g.GameNumber, &g.HomeTeamID, &g.AwayTeamID,
		&g.ScheduledTime, &g.GameType, &g.PlayoffRound, &g.PlayoffSeries, &g.PlayoffGame,
		&g.Status, &g.HomeScore, &g.AwayScore, &g.Overtime, &g.Shootout,
		&g.CompletedAt, &g.ExternalGameID, &g.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &g, nil
}

type ScheduleGameParams struct {
	SeasonID      uuid.UUID
	GameNumber    *int
	HomeTeamID    uuid.UUID
	AwayTeamID    uuid.UUID
	ScheduledTime time.Time
	GameType      models.GameType
	PlayoffRound  *int
	PlayoffSeries *int
	PlayoffGame   *int
}

func (r *Repository) Create(ctx context.Context, q store.DBTX, p ScheduleGameParams) (*models.Game, error) {
	row := r.q(q).QueryRow(ctx, `
		INSERT INTO games (id, season_id, game_number, home_team_id, away_team_id, scheduled_time,
			game_type, playoff_round, playoff_series, playoff_game)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING `+gameColumns,
		uuid.New(), p.SeasonID, p.GameNumber, p.HomeTeamID, p.AwayTeamID, p.ScheduledTime,
		p.GameType, p.PlayoffRound, p.PlayoffSeries, p.PlayoffGame)
	game, err := scanGame(row)
	if err != nil {
		return nil, fmt.Errorf("failed to create game: %w", err)
	}
	return game, nil
}

func (r *Repository) GetByID(ctx context.Context, q store.DBTX, id uuid.UUID) (*models.Game, error) {
	row := r.q(q).QueryRow(ctx, `SELECT `+gameColumns+` FROM games WHERE id = $1`, id)
	game, err := scanGame(row)
	if err != nil {
		return nil, store.MapNotFound(err)
	}
	return game, nil
}

// FindScheduledMatch returns the earliest scheduled game between the two
// teams with the given home and away orientation.
func (r *Repository) FindScheduledMatch(ctx context.Context, q store.DBTX, seasonID, homeTeamID, awayTeamID uuid.UUID) (*models.Game, error) {
	row := r.q(q).QueryRow(ctx, `
		SELECT `+gameColumns+` FROM games
		WHERE season_id = $1 AND home_team_id = $2 AND away_team_id = $3 AND status = 'scheduled'
		ORDER BY scheduled_time, id
		LIMIT 1
	`, seasonID, homeTeamID, awayTeamID)
	game, err := scanGame(row)
	if err != nil {
		return nil, store.MapNotFound(err)
	}
	return game, nil
}

// SetStatus moves a game between non-completed statuses.
func (r *Repository) SetStatus(ctx context.Context, q store.DBTX, id uuid.UUID, status models.GameStatus) error {
	tag, err := r.q(q).Exec(ctx, `
		UPDATE games SET status = $1 WHERE id = $2 AND status <> 'completed'
	`, status, id)
	if err != nil {
		return fmt.Errorf("failed to set game status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return store.ErrNotFound
	}
	return nil
}

// Complete writes the final score and completes the game. Guarded against
// double completion; scores never change once set.
func (r *Repository) Complete(ctx context.Context, q store.DBTX, id uuid.UUID, homeScore, awayScore int, overtime, shootout bool, externalGameID *string) (*models.Game, error) {
	row := r.q(q).QueryRow(ctx, `
		UPDATE games
		SET status = 'completed', home_score = $1, away_score = $2,
		    overtime = $3, shootout = $4, completed_at = now(),
		    external_game_id = COALESCE($5, external_game_id)
		WHERE id = $6 AND status <> 'completed'
		RETURNING `+gameColumns,
		homeScore, awayScore, overtime, shootout, externalGameID, id)
	game, err := scanGame(row)
	if err != nil {
		return nil, store.MapNotFound(err)
	}
	return game, nil
}

// Upcoming returns scheduled games ordered by time.
func (r *Repository) Upcoming(ctx context.Context, seasonID uuid.UUID, limit int) ([]models.Game, error) {
	rows, err := r.db.Query(ctx, `
		SELECT `+gameColumns+` FROM games
		WHERE season_id = $1 AND status = 'scheduled'
		ORDER BY scheduled_time, id
		LIMIT $2
	`, seasonID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list upcoming games: %w", err)
	}
	defer rows.Close()

	var games []models.Game
	for rows.Next() {
		g, err := scanGame(rows)
		if err != nil {
			return nil, err
		}
		games = append(games, *g)
	}
	return games, rows.Err()
}

// Recent returns completed games, newest first.
func (r *Repository) Recent(ctx context.Context, seasonID uuid.UUID, limit int) ([]models.Game, error) {
	rows, err := r.db.Query(ctx, `
		SELECT `+gameColumns+` FROM games
		WHERE season_id = $1 AND status = 'completed'
		ORDER BY completed_at DESC
		LIMIT $2
	`, seasonID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list recent games: %w", err)
	}
	defer rows.Close()

	var games []models.Game
	for rows.Next() {
		g, err := scanGame(rows)
		if err != nil {
			return nil, err
		}
		games = append(games, *g)
	}
	return games, rows.Err()
}

// InsertPlayerStats writes one player's box-score line for a game.
func (r *Repository) InsertPlayerStats(ctx context.Context, q store.DBTX, s models.PlayerGameStats) error {
	_, err := r.q(q).Exec(ctx, `
		INSERT INTO player_game_stats (id, game_id, player_id, team_id, goals, assists,
			plus_minus, shots, saves, goals_against)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (game_id, player_id) DO UPDATE SET
			goals = EXCLUDED.goals, assists = EXCLUDED.assists,
			plus_minus = EXCLUDED.plus_minus, shots = EXCLUDED.shots,
			saves = EXCLUDED.saves, goals_against = EXCLUDED.goals_against
	`, uuid.New(), s.GameID, s.PlayerID, s.TeamID, s.Goals, s.Assists,
		s.PlusMinus, s.Shots, s.Saves, s.GoalsAgainst)
	if err != nil {
		return fmt.Errorf("failed to insert player stats: %w", err)
	}
	return nil
}

// PlayerStats returns the box score for a game.
func (r *Repository) PlayerStats(ctx context.Context, gameID uuid.UUID) ([]models.PlayerGameStats, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, game_id, player_id, team_id, goals, assists, plus_minus, shots, saves, goals_against
		FROM player_game_stats WHERE game_id = $1
	`, gameID)
	if err != nil {
		return nil, fmt.Errorf("failed to list player stats: %w", err)
	}
	defer rows.Close()

	var stats []models.PlayerGameStats
	for rows.Next() {
		var s models.PlayerGameStats
		if err := rows.Scan(&s.ID, &s.GameID, &s.PlayerID, &s.TeamID, &s.Goals, &s.Assists,
			&s.PlusMinus, &s.Shots, &s.Saves, &s.GoalsAgainst); err != nil {
			return nil, err
		}
		stats = append(stats, s)
	}
	return stats, rows.Err()
}
