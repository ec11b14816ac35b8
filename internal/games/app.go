package games

import (
	"context"
	"errors"

	"github.com/breakawayhl/breakaway/internal/models"
	"github.com/breakawayhl/breakaway/internal/store"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"
)

var (
	// ErrAlreadyCompleted means a completed game's score is immutable.
	ErrAlreadyCompleted = errors.New("game already completed")

	// ErrSameTeam means a team cannot play itself.
	ErrSameTeam = errors.New("home and away team must differ")

	// ErrTiedScore means a completed game cannot end level.
	ErrTiedScore = errors.New("completed game cannot be tied")
)

type GameRepository interface {
	Create(ctx context.Context, q store.DBTX, p ScheduleGameParams) (*models.Game, error)
	GetByID(ctx context.Context, q store.DBTX, id uuid.UUID) (*models.Game, error)
	FindScheduledMatch(ctx context.Context, q store.DBTX, seasonID, homeTeamID, awayTeamID uuid.UUID) (*models.Game, error)
	SetStatus(ctx context.Context, q store.DBTX, id uuid.UUID, status models.GameStatus) error
	Complete(ctx context.Context, q store.DBTX, id uuid.UUID, homeScore, awayScore int, overtime, shootout bool, externalGameID *string) (*models.Game, error)
	Upcoming(ctx context.Context, seasonID uuid.UUID, limit int) ([]models.Game, error)
	Recent(ctx context.Context, seasonID uuid.UUID, limit int) ([]models.Game, error)
	InsertPlayerStats(ctx context.Context, q store.DBTX, s models.PlayerGameStats) error
	PlayerStats(ctx context.Context, gameID uuid.UUID) ([]models.PlayerGameStats, error)
}

// StandingsApplier folds a completed game into the standings inside the
// completion transaction.
type StandingsApplier interface {
	ApplyGameInTx(ctx context.Context, tx pgx.Tx, game *models.Game) error
}

type OutboxRepository interface {
	Insert(ctx context.Context, q store.DBTX, eventType string, aggregateID uuid.UUID, payload any) error
}

type AuditRepository interface {
	Append(ctx context.Context, q store.DBTX, entityType, action string, entityID *string, actor string, oldValues, newValues any) error
}

// App manages the game schedule and completion. Completion is the only
// write path into standings.
type App struct {
	txr       store.TxRunner
	repo      GameRepository
	standings StandingsApplier
	outbox    OutboxRepository
	audit     AuditRepository
	log       zerolog.Logger
}

func NewApp(
	txr store.TxRunner,
	repo GameRepository,
	standings StandingsApplier,
	outbox OutboxRepository,
	audit AuditRepository,
	log zerolog.Logger,
) *App {
	return &App{
		txr:       txr,
		repo:      repo,
		standings: standings,
		outbox:    outbox,
		audit:     audit,
		log:       log.With().Str("component", "games").Logger(),
	}
}

// Schedule creates a game.
func (a *App) Schedule(ctx context.Context, p ScheduleGameParams, actor string) (*models.Game, error) {
	if p.HomeTeamID == p.AwayTeamID {
		return nil, ErrSameTeam
	}
	if p.GameType == "" {
		p.GameType = models.GameTypeRegular
	}

	var game *models.Game
	err := a.txr.WithTx(ctx, func(tx pgx.Tx) error {
		var txErr error
		game, txErr = a.repo.Create(ctx, tx, p)
		if txErr != nil {
			return txErr
		}
		eid := game.ID.String()
		return a.audit.Append(ctx, tx, "game", "schedule", &eid, actor, nil, game)
	})
	if err != nil {
		return nil, err
	}
	return game, nil
}

// CompleteParams carries a final score into CompleteInTx.
type CompleteParams struct {
	HomeScore      int
	AwayScore      int
	Overtime       bool
	Shootout       bool
	ExternalGameID *string
	PlayerStats    []models.PlayerGameStats
}

// CompleteInTx finalizes a game inside an existing transaction: score,
// player stats, standings, and the completion event all land together.
func (a *App) CompleteInTx(ctx context.Context, tx pgx.Tx, gameID uuid.UUID, p CompleteParams, actor string) (*models.Game, error) {
	current, err := a.repo.GetByID(ctx, tx, gameID)
	if err != nil {
		return nil, err
	}
	if current.Status == models.GameStatusCompleted {
		return nil, ErrAlreadyCompleted
	}
	if p.HomeScore == p.AwayScore {
		return nil, ErrTiedScore
	}

	game, err := a.repo.Complete(ctx, tx, gameID, p.HomeScore, p.AwayScore, p.Overtime, p.Shootout, p.ExternalGameID)
	if err != nil {
		return nil, err
	}

	for _, s := range p.PlayerStats {
		s.GameID = game.ID
		if err := a.repo.InsertPlayerStats(ctx, tx, s); err != nil {
			return nil, err
		}
	}

	if err := a.standings.ApplyGameInTx(ctx, tx, game); err != nil {
		return nil, err
	}

	if err := a.outbox.Insert(ctx, tx, models.EventGameCompleted, game.ID, map[string]any{
		"game_id":      game.ID,
		"season_id":    game.SeasonID,
		"home_team_id": game.HomeTeamID,
		"away_team_id": game.AwayTeamID,
		"home_score":   p.HomeScore,
		"away_score":   p.AwayScore,
		"overtime":     p.Overtime,
		"shootout":     p.Shootout,
	}); err != nil {
		return nil, err
	}

	eid := game.ID.String()
	if err := a.audit.Append(ctx, tx, "game", "complete", &eid, actor, nil, game); err != nil {
		return nil, err
	}
	return game, nil
}

// Complete finalizes a game directly, for staff-entered scores.
func (a *App) Complete(ctx context.Context, gameID uuid.UUID, p CompleteParams, actor string) (*models.Game, error) {
	var game *models.Game
	err := a.txr.WithTx(ctx, func(tx pgx.Tx) error {
		var txErr error
		game, txErr = a.CompleteInTx(ctx, tx, gameID, p, actor)
		return txErr
	})
	if err != nil {
		return nil, err
	}

	a.log.Info().
		Str("game_id", gameID.String()).
		Int("home", p.HomeScore).
		Int("away", p.AwayScore).
		Msg("game completed")
	return game, nil
}

// SetStatus moves a game between non-terminal states, for postponements
// and cancellations.
func (a *App) SetStatus(ctx context.Context, gameID uuid.UUID, status models.GameStatus, actor string) error {
	if status == models.GameStatusCompleted {
		return ErrAlreadyCompleted
	}
	return a.txr.WithTx(ctx, func(tx pgx.Tx) error {
		if err := a.repo.SetStatus(ctx, tx, gameID, status); err != nil {
			return err
		}
		eid := gameID.String()
		return a.audit.Append(ctx, tx, "game", "set_status", &eid, actor, nil,
			map[string]any{"status": status})
	})
}

// Get returns a game.
func (a *App) Get(ctx context.Context, gameID uuid.UUID) (*models.Game, error) {
	return a.repo.GetByID(ctx, nil, gameID)
}

// FindScheduledMatch returns the earliest scheduled game for a home and
// away pairing.
func (a *App) FindScheduledMatch(ctx context.Context, q store.DBTX, seasonID, homeTeamID, awayTeamID uuid.UUID) (*models.Game, error) {
	return a.repo.FindScheduledMatch(ctx, q, seasonID, homeTeamID, awayTeamID)
}

// Upcoming returns the next scheduled games.
func (a *App) Upcoming(ctx context.Context, seasonID uuid.UUID, limit int) ([]models.Game, error) {
	return a.repo.Upcoming(ctx, seasonID, limit)
}

// Recent returns recently completed games.
func (a *App) Recent(ctx context.Context, seasonID uuid.UUID, limit int) ([]models.Game, error) {
	return a.repo.Recent(ctx, seasonID, limit)
}

// BoxScore returns per-player stats for a game.
func (a *App) BoxScore(ctx context.Context, gameID uuid.UUID) ([]models.PlayerGameStats, error) {
	return a.repo.PlayerStats(ctx, gameID)
}
