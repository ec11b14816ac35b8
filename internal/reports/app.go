package reports

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/breakawayhl/breakaway/internal/authz"
	"github.com/breakawayhl/breakaway/internal/games"
	"github.com/breakawayhl/breakaway/internal/leagueconfig"
	"github.com/breakawayhl/breakaway/internal/models"
	"github.com/breakawayhl/breakaway/internal/store"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"
)

var (
	// ErrReportingDisabled means in-game score reporting is switched off.
	ErrReportingDisabled = errors.New("in-game reporting is disabled")

	// ErrNoMatchingGame means no scheduled game matches the reported
	// matchup.
	ErrNoMatchingGame = errors.New("no scheduled game matches the report")

	// ErrAlreadyResolved means the report left the pending state already.
	ErrAlreadyResolved = errors.New("report already resolved")

	// ErrUnknownTeam means a reported team abbreviation is not registered.
	ErrUnknownTeam = errors.New("unknown team abbreviation")
)

type ReportRepository interface {
	Create(ctx context.Context, q store.DBTX, p CreateReportParams) (*models.PendingReport, error)
	GetByID(ctx context.Context, q store.DBTX, id uuid.UUID) (*models.PendingReport, error)
	Resolve(ctx context.Context, q store.DBTX, id uuid.UUID, status models.ReportStatus, reviewedBy string) error
	ListPending(ctx context.Context) ([]models.PendingReport, error)
}

type TeamRepository interface {
	GetByAbbreviation(ctx context.Context, abbr string) (*models.Team, error)
}

type PlayerRepository interface {
	GetByRobloxUser(ctx context.Context, robloxUserID string) (*models.Player, error)
}

// GameEngine finds the target game and finalizes it on approval.
type GameEngine interface {
	FindScheduledMatch(ctx context.Context, q store.DBTX, seasonID, homeTeamID, awayTeamID uuid.UUID) (*models.Game, error)
	CompleteInTx(ctx context.Context, tx pgx.Tx, gameID uuid.UUID, p games.CompleteParams, actor string) (*models.Game, error)
}

type ConfigReader interface {
	Bool(ctx context.Context, q store.DBTX, key string, def bool) bool
}

type AuditRepository interface {
	Append(ctx context.Context, q store.DBTX, entityType, action string, entityID *string, actor string, oldValues, newValues any) error
}

// SubmitParams is a score submission as it arrives from the game server,
// with teams identified by abbreviation.
type SubmitParams struct {
	SeasonID       uuid.UUID
	ExternalGameID string
	HomeTeamAbbr   string
	AwayTeamAbbr   string
	HomeScore      int
	AwayScore      int
	Overtime       bool
	Shootout       bool
	PlayerStats    json.RawMessage
}

// ReportedPlayerStats is one player's line inside a submission, keyed by
// Roblox user id since the game server knows nothing about chat users.
type ReportedPlayerStats struct {
	RobloxUserID string `json:"roblox_user_id"`
	TeamAbbr     string `json:"team_abbr"`
	Goals        int    `json:"goals"`
	Assists      int    `json:"assists"`
	PlusMinus    int    `json:"plus_minus"`
	Shots        int    `json:"shots"`
	Saves        int    `json:"saves"`
	GoalsAgainst int    `json:"goals_against"`
}

// App is the score submission gate. Submissions from the game server are
// untrusted: they stage a pending report, and only staff approval (or the
// auto-approve config) turns a report into game and standings state.
type App struct {
	txr     store.TxRunner
	repo    ReportRepository
	teams   TeamRepository
	players PlayerRepository
	games   GameEngine
	config  ConfigReader
	auth    authz.Authorizer
	audit   AuditRepository
	log     zerolog.Logger
}

func NewApp(
	txr store.TxRunner,
	repo ReportRepository,
	teams TeamRepository,
	players PlayerRepository,
	gameEngine GameEngine,
	config ConfigReader,
	auth authz.Authorizer,
	audit AuditRepository,
	log zerolog.Logger,
) *App {
	return &App{
		txr:     txr,
		repo:    repo,
		teams:   teams,
		players: players,
		games:   gameEngine,
		config:  config,
		auth:    auth,
		audit:   audit,
		log:     log.With().Str("component", "reports").Logger(),
	}
}

// Submit stages a score report. The matchup is matched to the earliest
// scheduled game with the same home and away teams; a report that matches
// nothing is still staged and can match later at approval. When staff
// approval is not required the report approves itself immediately.
func (a *App) Submit(ctx context.Context, p SubmitParams) (*models.PendingReport, error) {
	home, err := a.teams.GetByAbbreviation(ctx, p.HomeTeamAbbr)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, fmt.Errorf("%w: %s", ErrUnknownTeam, p.HomeTeamAbbr)
		}
		return nil, err
	}
	away, err := a.teams.GetByAbbreviation(ctx, p.AwayTeamAbbr)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, fmt.Errorf("%w: %s", ErrUnknownTeam, p.AwayTeamAbbr)
		}
		return nil, err
	}

	var report *models.PendingReport
	err = a.txr.WithTx(ctx, func(tx pgx.Tx) error {
		if !a.config.Bool(ctx, tx, leagueconfig.KeyIngameReporting, true) {
			return ErrReportingDisabled
		}

		var gameID *uuid.UUID
		if game, err := a.games.FindScheduledMatch(ctx, tx, p.SeasonID, home.ID, away.ID); err == nil {
			gameID = &game.ID
		} else if !errors.Is(err, store.ErrNotFound) {
			return err
		}

		var txErr error
		report, txErr = a.repo.Create(ctx, tx, CreateReportParams{
			GameID:         gameID,
			ExternalGameID: p.ExternalGameID,
			HomeTeamID:     home.ID,
			AwayTeamID:     away.ID,
			HomeScore:      p.HomeScore,
			AwayScore:      p.AwayScore,
			Overtime:       p.Overtime,
			Shootout:       p.Shootout,
			PlayerStats:    p.PlayerStats,
		})
		return txErr
	})
	if err != nil {
		return nil, err
	}

	a.log.Info().
		Str("report_id", report.ID.String()).
		Str("matchup", p.HomeTeamAbbr+" vs "+p.AwayTeamAbbr).
		Msg("game report staged")

	if !a.config.Bool(ctx, nil, leagueconfig.KeyRequireApproval, true) {
		if _, err := a.approve(ctx, report.ID, p.SeasonID, "system"); err != nil {
			a.log.Warn().Err(err).Str("report_id", report.ID.String()).Msg("auto-approval failed, report stays pending")
			return report, nil
		}
	}
	return report, nil
}

// Approve finalizes the reported game. Requires the approve capability.
func (a *App) Approve(ctx context.Context, reportID uuid.UUID, seasonID uuid.UUID, reviewer string) (*models.Game, error) {
	if !a.auth.Can(reviewer, authz.CapApproveReports, nil) {
		return nil, authz.ErrUnauthorized
	}
	return a.approve(ctx, reportID, seasonID, reviewer)
}

func (a *App) approve(ctx context.Context, reportID uuid.UUID, seasonID uuid.UUID, reviewer string) (*models.Game, error) {
	var game *models.Game
	err := a.txr.WithTx(ctx, func(tx pgx.Tx) error {
		report, err := a.repo.GetByID(ctx, tx, reportID)
		if err != nil {
			return err
		}
		if report.Status != models.ReportStatusPending {
			return ErrAlreadyResolved
		}

		gameID := report.GameID
		if gameID == nil {
			match, err := a.games.FindScheduledMatch(ctx, tx, seasonID, report.HomeTeamID, report.AwayTeamID)
			if err != nil {
				if errors.Is(err, store.ErrNotFound) {
					return ErrNoMatchingGame
				}
				return err
			}
			gameID = &match.ID
		}

		stats, err := a.resolvePlayerStats(ctx, *gameID, report)
		if err != nil {
			return err
		}

		if err := a.repo.Resolve(ctx, tx, reportID, models.ReportStatusApproved, reviewer); err != nil {
			return err
		}

		game, err = a.games.CompleteInTx(ctx, tx, *gameID, games.CompleteParams{
			HomeScore:      report.HomeScore,
			AwayScore:      report.AwayScore,
			Overtime:       report.Overtime,
			Shootout:       report.Shootout,
			ExternalGameID: &report.ExternalGameID,
			PlayerStats:    stats,
		}, reviewer)
		if err != nil {
			return err
		}

		eid := reportID.String()
		return a.audit.Append(ctx, tx, "report", "approve", &eid, reviewer, nil,
			map[string]any{"game_id": gameID})
	})
	if err != nil {
		return nil, err
	}

	a.log.Info().
		Str("report_id", reportID.String()).
		Str("game_id", game.ID.String()).
		Str("reviewer", reviewer).
		Msg("report approved")
	return game, nil
}

// Reject discards a pending report. The game stays scheduled.
func (a *App) Reject(ctx context.Context, reportID uuid.UUID, reviewer string, reason string) error {
	if !a.auth.Can(reviewer, authz.CapApproveReports, nil) {
		return authz.ErrUnauthorized
	}

	err := a.txr.WithTx(ctx, func(tx pgx.Tx) error {
		report, err := a.repo.GetByID(ctx, tx, reportID)
		if err != nil {
			return err
		}
		if report.Status != models.ReportStatusPending {
			return ErrAlreadyResolved
		}
		if err := a.repo.Resolve(ctx, tx, reportID, models.ReportStatusRejected, reviewer); err != nil {
			return err
		}
		eid := reportID.String()
		return a.audit.Append(ctx, tx, "report", "reject", &eid, reviewer, nil,
			map[string]any{"reason": reason})
	})
	if err != nil {
		return err
	}

	a.log.Info().Str("report_id", reportID.String()).Str("reviewer", reviewer).Msg("report rejected")
	return nil
}

// Pending returns the moderation queue, oldest first.
func (a *App) Pending(ctx context.Context) ([]models.PendingReport, error) {
	return a.repo.ListPending(ctx)
}

// Get returns one report.
func (a *App) Get(ctx context.Context, reportID uuid.UUID) (*models.PendingReport, error) {
	return a.repo.GetByID(ctx, nil, reportID)
}

// resolvePlayerStats maps reported Roblox ids onto registered players.
// Lines for unregistered players are skipped with a warning rather than
// failing the approval.
func (a *App) resolvePlayerStats(ctx context.Context, gameID uuid.UUID, report *models.PendingReport) ([]models.PlayerGameStats, error) {
	if len(report.PlayerStats) == 0 {
		return nil, nil
	}

	var reported []ReportedPlayerStats
	if err := json.Unmarshal(report.PlayerStats, &reported); err != nil {
		return nil, fmt.Errorf("failed to parse player stats: %w", err)
	}

	var stats []models.PlayerGameStats
	for _, line := range reported {
		player, err := a.players.GetByRobloxUser(ctx, line.RobloxUserID)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				a.log.Warn().Str("roblox_user_id", line.RobloxUserID).Msg("stats for unregistered player skipped")
				continue
			}
			return nil, err
		}

		teamID := report.HomeTeamID
		if team, err := a.teams.GetByAbbreviation(ctx, line.TeamAbbr); err == nil {
			teamID = team.ID
		}

		stats = append(stats, models.PlayerGameStats{
			GameID:       gameID,
			PlayerID:     player.ID,
			TeamID:       teamID,
			Goals:        line.Goals,
			Assists:      line.Assists,
			PlusMinus:    line.PlusMinus,
			Shots:        line.Shots,
			Saves:        line.Saves,
			GoalsAgainst: line.GoalsAgainst,
		})
	}
	return stats, nil
}
