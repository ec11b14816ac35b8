package roster

import (
	"context"
	"errors"

	"github.com/breakawayhl/breakaway/internal/leagueconfig"
	"github.com/breakawayhl/breakaway/internal/models"
	"github.com/breakawayhl/breakaway/internal/store"
	"github.com/breakawayhl/breakaway/internal/translog"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"
)

const defaultRosterSizeMax = 15

type RosterRepository interface {
	Insert(ctx context.Context, q store.DBTX, playerID, teamID, seasonID uuid.UUID) (*models.RosterEntry, error)
	GetActive(ctx context.Context, q store.DBTX, playerID, seasonID uuid.UUID) (*models.RosterEntry, error)
	Deactivate(ctx context.Context, q store.DBTX, entryID uuid.UUID) error
	CountActive(ctx context.Context, q store.DBTX, teamID, seasonID uuid.UUID) (int, error)
	ListTeam(ctx context.Context, teamID, seasonID uuid.UUID) ([]models.RosterEntry, error)
	ListFreeAgents(ctx context.Context, seasonID uuid.UUID) ([]models.Player, error)
}

type PlayerRepository interface {
	GetByID(ctx context.Context, q store.DBTX, id uuid.UUID) (*models.Player, error)
}

type TeamRepository interface {
	GetByID(ctx context.Context, q store.DBTX, id uuid.UUID) (*models.Team, error)
}

type TransactionLog interface {
	Log(ctx context.Context, q store.DBTX, p translog.LogParams) error
}

type OutboxRepository interface {
	Insert(ctx context.Context, q store.DBTX, eventType string, aggregateID uuid.UUID, payload any) error
}

type ConfigReader interface {
	Int(ctx context.Context, q store.DBTX, key string, def int) int
	Bool(ctx context.Context, q store.DBTX, key string, def bool) bool
}

type AuditRepository interface {
	Append(ctx context.Context, q store.DBTX, entityType, action string, entityID *string, actor string, oldValues, newValues any) error
}

// App is the roster engine. Every mutation runs in a transaction that also
// appends the transaction-log record and, when role sync is on, stages the
// chat-role outbox event, so ledger and roster can never drift apart.
type App struct {
	txr     store.TxRunner
	repo    RosterRepository
	players PlayerRepository
	teams   TeamRepository
	tlog    TransactionLog
	outbox  OutboxRepository
	config  ConfigReader
	audit   AuditRepository
	log     zerolog.Logger
}

func NewApp(
	txr store.TxRunner,
	repo RosterRepository,
	players PlayerRepository,
	teams TeamRepository,
	tlog TransactionLog,
	outbox OutboxRepository,
	config ConfigReader,
	audit AuditRepository,
	log zerolog.Logger,
) *App {
	return &App{
		txr:     txr,
		repo:    repo,
		players: players,
		teams:   teams,
		tlog:    tlog,
		outbox:  outbox,
		config:  config,
		audit:   audit,
		log:     log.With().Str("component", "roster").Logger(),
	}
}

// Sign adds a free agent to a team. Fails when signings are disabled, the
// player is unverified or already rostered, or the team is at the cap.
func (a *App) Sign(ctx context.Context, seasonID, playerID, teamID uuid.UUID, actor string) (*models.RosterEntry, error) {
	var entry *models.RosterEntry
	err := a.txr.WithTx(ctx, func(tx pgx.Tx) error {
		if !a.config.Bool(ctx, tx, leagueconfig.KeySigningsEnabled, true) {
			return ErrSigningsDisabled
		}
		var txErr error
		entry, txErr = a.SignInTx(ctx, tx, seasonID, playerID, teamID, models.TransactionSigning, actor, nil)
		if txErr != nil {
			return txErr
		}
		eid := entry.ID.String()
		return a.audit.Append(ctx, tx, "roster", "sign", &eid, actor, nil, entry)
	})
	if err != nil {
		return nil, err
	}

	a.log.Info().
		Str("player_id", playerID.String()).
		Str("team_id", teamID.String()).
		Str("actor", actor).
		Msg("player signed")
	return entry, nil
}

// SignInTx adds a player to a team inside an existing transaction. The
// roster cap applies only to free-agent signings; trade and draft
// acquisitions bypass it because the outgoing side of the move frees the
// space. Identity verification always applies.
func (a *App) SignInTx(ctx context.Context, tx pgx.Tx, seasonID, playerID, teamID uuid.UUID, origin models.TransactionType, executedBy string, notes *string) (*models.RosterEntry, error) {
	player, err := a.players.GetByID(ctx, tx, playerID)
	if err != nil {
		return nil, err
	}
	if !player.Verified {
		return nil, ErrNotVerified
	}

	if _, err := a.repo.GetActive(ctx, tx, playerID, seasonID); err == nil {
		return nil, ErrAlreadyRostered
	} else if !errors.Is(err, store.ErrNotFound) {
		return nil, err
	}

	if origin == models.TransactionSigning {
		n, err := a.repo.CountActive(ctx, tx, teamID, seasonID)
		if err != nil {
			return nil, err
		}
		if n >= a.config.Int(ctx, tx, leagueconfig.KeyRosterSizeMax, defaultRosterSizeMax) {
			return nil, ErrRosterFull
		}
	}

	entry, err := a.repo.Insert(ctx, tx, playerID, teamID, seasonID)
	if err != nil {
		return nil, err
	}

	if err := a.tlog.Log(ctx, tx, translog.LogParams{
		SeasonID:   seasonID,
		Type:       origin,
		PlayerID:   playerID,
		ToTeamID:   &teamID,
		ExecutedBy: executedBy,
		Notes:      notes,
	}); err != nil {
		return nil, err
	}

	if err := a.stageRoleEvent(ctx, tx, models.EventRoleGrant, player, teamID); err != nil {
		return nil, err
	}
	return entry, nil
}

// Cut releases a player from a team back to free agency.
func (a *App) Cut(ctx context.Context, seasonID, playerID, teamID uuid.UUID, actor string) error {
	err := a.txr.WithTx(ctx, func(tx pgx.Tx) error {
		if err := a.CutInTx(ctx, tx, seasonID, playerID, teamID, models.TransactionCut, actor, nil); err != nil {
			return err
		}
		pid := playerID.String()
		return a.audit.Append(ctx, tx, "roster", "cut", &pid, actor,
			map[string]any{"team_id": teamID}, nil)
	})
	if err != nil {
		return err
	}

	a.log.Info().
		Str("player_id", playerID.String()).
		Str("team_id", teamID.String()).
		Str("actor", actor).
		Msg("player cut")
	return nil
}

// CutInTx releases a player inside an existing transaction. Fails with
// ErrNotOnRoster when the player has no active entry with the given team.
func (a *App) CutInTx(ctx context.Context, tx pgx.Tx, seasonID, playerID, teamID uuid.UUID, origin models.TransactionType, executedBy string, notes *string) error {
	entry, err := a.repo.GetActive(ctx, tx, playerID, seasonID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ErrNotOnRoster
		}
		return err
	}
	if entry.TeamID != teamID {
		return ErrNotOnRoster
	}

	if err := a.repo.Deactivate(ctx, tx, entry.ID); err != nil {
		return err
	}

	if err := a.tlog.Log(ctx, tx, translog.LogParams{
		SeasonID:   seasonID,
		Type:       origin,
		PlayerID:   playerID,
		FromTeamID: &teamID,
		ExecutedBy: executedBy,
		Notes:      notes,
	}); err != nil {
		return err
	}

	player, err := a.players.GetByID(ctx, tx, playerID)
	if err != nil {
		return err
	}
	return a.stageRoleEvent(ctx, tx, models.EventRoleRevoke, player, teamID)
}

// TeamRoster returns the active roster for a team.
func (a *App) TeamRoster(ctx context.Context, teamID, seasonID uuid.UUID) ([]models.RosterEntry, error) {
	return a.repo.ListTeam(ctx, teamID, seasonID)
}

// FreeAgents returns verified players available to sign.
func (a *App) FreeAgents(ctx context.Context, seasonID uuid.UUID) ([]models.Player, error) {
	return a.repo.ListFreeAgents(ctx, seasonID)
}

// stageRoleEvent records a chat-role grant or revoke in the outbox when
// role sync is enabled. Delivery happens after commit via the worker.
func (a *App) stageRoleEvent(ctx context.Context, tx pgx.Tx, eventType string, player *models.Player, teamID uuid.UUID) error {
	if !a.config.Bool(ctx, tx, leagueconfig.KeyAutoAssignRoles, true) {
		return nil
	}
	team, err := a.teams.GetByID(ctx, tx, teamID)
	if err != nil {
		return err
	}
	return a.outbox.Insert(ctx, tx, eventType, player.ID, map[string]any{
		"player_id":    player.ID,
		"chat_user_id": player.ChatUserID,
		"team_id":      teamID,
		"chat_role_id": team.ChatRoleID,
	})
}
