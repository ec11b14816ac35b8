package standings

import (
	"context"
	"errors"

	"github.com/breakawayhl/breakaway/internal/leagueconfig"
	"github.com/breakawayhl/breakaway/internal/models"
	"github.com/breakawayhl/breakaway/internal/store"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"
)

var (
	// ErrGameNotCompleted means only completed games feed standings.
	ErrGameNotCompleted = errors.New("game is not completed")

	// ErrTiedScore means a completed game cannot end level; overtime or a
	// shootout must break it.
	ErrTiedScore = errors.New("completed game cannot be tied")
)

const (
	defaultPointsWin  = 2
	defaultPointsOTL  = 1
	defaultPointsLoss = 0
)

type StandingsRepository interface {
	ApplyDelta(ctx context.Context, q store.DBTX, seasonID, teamID uuid.UUID, d RowDelta) error
	List(ctx context.Context, seasonID uuid.UUID) ([]models.StandingsRow, error)
	GetTeam(ctx context.Context, seasonID, teamID uuid.UUID) (*models.StandingsRow, error)
}

type ConfigReader interface {
	Int(ctx context.Context, q store.DBTX, key string, def int) int
}

// App is the standings aggregator. Rows are derived state: they change only
// through ApplyGameInTx, inside the transaction that completes the game, so
// a game is never counted without being completed or vice versa.
type App struct {
	repo   StandingsRepository
	config ConfigReader
	log    zerolog.Logger
}

func NewApp(repo StandingsRepository, config ConfigReader, log zerolog.Logger) *App {
	return &App{
		repo:   repo,
		config: config,
		log:    log.With().Str("component", "standings").Logger(),
	}
}

// ApplyGameInTx folds a completed regular-season game into both teams'
// rows. Playoff games never touch standings. Point values come from league
// config so mid-season rule changes apply from that game onward.
func (a *App) ApplyGameInTx(ctx context.Context, tx pgx.Tx, game *models.Game) error {
	if game.Status != models.GameStatusCompleted || game.HomeScore == nil || game.AwayScore == nil {
		return ErrGameNotCompleted
	}
	if game.GameType != models.GameTypeRegular {
		return nil
	}

	home, away := *game.HomeScore, *game.AwayScore
	if home == away {
		return ErrTiedScore
	}

	pointsWin := a.config.Int(ctx, tx, leagueconfig.KeyPointsWin, defaultPointsWin)
	pointsOTL := a.config.Int(ctx, tx, leagueconfig.KeyPointsOTL, defaultPointsOTL)
	pointsLoss := a.config.Int(ctx, tx, leagueconfig.KeyPointsLoss, defaultPointsLoss)

	winDelta := func(gf, ga int) RowDelta {
		return RowDelta{Wins: 1, Points: pointsWin, GoalsFor: gf, GoalsAgainst: ga}
	}
	lossDelta := func(gf, ga int) RowDelta {
		d := RowDelta{GoalsFor: gf, GoalsAgainst: ga}
		if game.Overtime || game.Shootout {
			d.OvertimeLosses = 1
			d.Points = pointsOTL
		} else {
			d.Losses = 1
			d.Points = pointsLoss
		}
		return d
	}

	var homeDelta, awayDelta RowDelta
	if home > away {
		homeDelta = winDelta(home, away)
		awayDelta = lossDelta(away, home)
	} else {
		homeDelta = lossDelta(home, away)
		awayDelta = winDelta(away, home)
	}

	if err := a.repo.ApplyDelta(ctx, tx, game.SeasonID, game.HomeTeamID, homeDelta); err != nil {
		return err
	}
	if err := a.repo.ApplyDelta(ctx, tx, game.SeasonID, game.AwayTeamID, awayDelta); err != nil {
		return err
	}

	a.log.Debug().
		Str("game_id", game.ID.String()).
		Int("home", home).
		Int("away", away).
		Msg("standings updated")
	return nil
}

// Table returns the season standings in display order.
func (a *App) Table(ctx context.Context, seasonID uuid.UUID) ([]models.StandingsRow, error) {
	return a.repo.List(ctx, seasonID)
}

// TeamRecord returns one team's row.
func (a *App) TeamRecord(ctx context.Context, seasonID, teamID uuid.UUID) (*models.StandingsRow, error) {
	return a.repo.GetTeam(ctx, seasonID, teamID)
}
