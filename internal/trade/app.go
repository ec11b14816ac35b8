package trade

import (
	"context"
	"errors"
	"fmt"

	"github.com/breakawayhl/breakaway/internal/authz"
	"github.com/breakawayhl/breakaway/internal/leagueconfig"
	"github.com/breakawayhl/breakaway/internal/models"
	"github.com/breakawayhl/breakaway/internal/store"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"
)

type TradeRepository interface {
	Create(ctx context.Context, q store.DBTX, p CreateTradeParams) (*models.Trade, error)
	GetByID(ctx context.Context, q store.DBTX, id uuid.UUID) (*models.Trade, error)
	Legs(ctx context.Context, q store.DBTX, tradeID uuid.UUID) ([]models.TradeLeg, error)
	SetAccepted(ctx context.Context, q store.DBTX, tradeID uuid.UUID, sideA bool) error
	SetStatus(ctx context.Context, q store.DBTX, tradeID uuid.UUID, status models.TradeStatus) error
	ListByStatus(ctx context.Context, seasonID uuid.UUID, status models.TradeStatus) ([]models.Trade, error)
}

// RosterEngine moves players inside the trade's transaction so all legs
// commit or none do.
type RosterEngine interface {
	SignInTx(ctx context.Context, tx pgx.Tx, seasonID, playerID, teamID uuid.UUID, origin models.TransactionType, executedBy string, notes *string) (*models.RosterEntry, error)
	CutInTx(ctx context.Context, tx pgx.Tx, seasonID, playerID, teamID uuid.UUID, origin models.TransactionType, executedBy string, notes *string) error
}

type RosterReader interface {
	GetActive(ctx context.Context, q store.DBTX, playerID, seasonID uuid.UUID) (*models.RosterEntry, error)
}

type OutboxRepository interface {
	Insert(ctx context.Context, q store.DBTX, eventType string, aggregateID uuid.UUID, payload any) error
}

type ConfigReader interface {
	Bool(ctx context.Context, q store.DBTX, key string, def bool) bool
}

type AuditRepository interface {
	Append(ctx context.Context, q store.DBTX, entityType, action string, entityID *string, actor string, oldValues, newValues any) error
}

// App is the trade engine. A trade is proposed by one team, accepted or
// declined by the other, and on mutual acceptance executes every leg in a
// single transaction.
type App struct {
	txr    store.TxRunner
	repo   TradeRepository
	roster RosterEngine
	active RosterReader
	outbox OutboxRepository
	config ConfigReader
	auth   authz.Authorizer
	audit  AuditRepository
	log    zerolog.Logger
}

func NewApp(
	txr store.TxRunner,
	repo TradeRepository,
	roster RosterEngine,
	active RosterReader,
	outbox OutboxRepository,
	config ConfigReader,
	auth authz.Authorizer,
	audit AuditRepository,
	log zerolog.Logger,
) *App {
	return &App{
		txr:    txr,
		repo:   repo,
		roster: roster,
		active: active,
		outbox: outbox,
		config: config,
		auth:   auth,
		audit:  audit,
		log:    log.With().Str("component", "trade").Logger(),
	}
}

// LegParams is one proposed player movement.
type LegParams struct {
	PlayerID   uuid.UUID
	FromTeamID uuid.UUID
	ToTeamID   uuid.UUID
}

// Propose creates a pending trade with both acceptance flags false; each
// team, the proposer included, must accept explicitly. Legs are validated
// against current rosters but players only move at execution.
func (a *App) Propose(ctx context.Context, seasonID, teamAID, teamBID, proposedByTeam uuid.UUID, proposedByUser string, legs []LegParams, notes *string) (*models.Trade, error) {
	if teamAID == teamBID {
		return nil, ErrSameTeam
	}
	if len(legs) == 0 {
		return nil, ErrEmptyTrade
	}
	if proposedByTeam != teamAID && proposedByTeam != teamBID {
		return nil, ErrNotParticipant
	}

	seen := make(map[uuid.UUID]bool, len(legs))
	modelLegs := make([]models.TradeLeg, 0, len(legs))
	for _, leg := range legs {
		if leg.FromTeamID == leg.ToTeamID {
			return nil, fmt.Errorf("%w: player %s moves within one team", ErrInvalidLeg, leg.PlayerID)
		}
		inTrade := func(id uuid.UUID) bool { return id == teamAID || id == teamBID }
		if !inTrade(leg.FromTeamID) || !inTrade(leg.ToTeamID) {
			return nil, fmt.Errorf("%w: leg references a team outside the trade", ErrInvalidLeg)
		}
		if seen[leg.PlayerID] {
			return nil, fmt.Errorf("%w: player %s appears twice", ErrInvalidLeg, leg.PlayerID)
		}
		seen[leg.PlayerID] = true
		modelLegs = append(modelLegs, models.TradeLeg{
			PlayerID:   leg.PlayerID,
			FromTeamID: leg.FromTeamID,
			ToTeamID:   leg.ToTeamID,
		})
	}

	var trade *models.Trade
	err := a.txr.WithTx(ctx, func(tx pgx.Tx) error {
		if !a.config.Bool(ctx, tx, leagueconfig.KeyTradesEnabled, true) {
			return ErrTradesDisabled
		}
		if err := a.validateLegs(ctx, tx, seasonID, modelLegs); err != nil {
			return err
		}
		var txErr error
		trade, txErr = a.repo.Create(ctx, tx, CreateTradeParams{
			SeasonID:       seasonID,
			TeamAID:        teamAID,
			TeamBID:        teamBID,
			ProposedByTeam: proposedByTeam,
			ProposedByUser: proposedByUser,
			Notes:          notes,
			Legs:           modelLegs,
		})
		if txErr != nil {
			return txErr
		}
		eid := trade.ID.String()
		return a.audit.Append(ctx, tx, "trade", "propose", &eid, proposedByUser, nil, trade)
	})
	if err != nil {
		return nil, err
	}

	a.log.Info().
		Str("trade_id", trade.ID.String()).
		Int("legs", len(legs)).
		Msg("trade proposed")
	return trade, nil
}

// Accept records a team's acceptance. When both sides have accepted the
// trade executes: every leg moves in one transaction, or the trade stays
// pending untouched. Re-accepting a fully accepted pending trade retries
// execution.
func (a *App) Accept(ctx context.Context, tradeID, teamID uuid.UUID, actor string) (*models.Trade, error) {
	trade, err := a.repo.GetByID(ctx, nil, tradeID)
	if err != nil {
		return nil, err
	}
	if trade.Status != models.TradeStatusPending {
		return nil, ErrNotPending
	}

	var sideA bool
	switch teamID {
	case trade.TeamAID:
		sideA = true
	case trade.TeamBID:
		sideA = false
	default:
		return nil, ErrNotParticipant
	}

	alreadyAccepted := (sideA && trade.TeamAAccepted) || (!sideA && trade.TeamBAccepted)
	if !alreadyAccepted {
		err = a.txr.WithTx(ctx, func(tx pgx.Tx) error {
			if err := a.repo.SetAccepted(ctx, tx, tradeID, sideA); err != nil {
				return err
			}
			eid := tradeID.String()
			return a.audit.Append(ctx, tx, "trade", "accept", &eid, actor, nil,
				map[string]any{"team_id": teamID})
		})
		if err != nil {
			return nil, err
		}
		if sideA {
			trade.TeamAAccepted = true
		} else {
			trade.TeamBAccepted = true
		}
	}

	if trade.TeamAAccepted && trade.TeamBAccepted {
		if err := a.execute(ctx, trade, actor); err != nil {
			return nil, err
		}
	}
	return a.repo.GetByID(ctx, nil, tradeID)
}

// execute moves every leg between rosters and completes the trade, all in
// one transaction. A failed leg rolls the whole trade back to pending with
// both acceptance flags intact.
func (a *App) execute(ctx context.Context, trade *models.Trade, actor string) error {
	err := a.txr.WithTx(ctx, func(tx pgx.Tx) error {
		legs, err := a.repo.Legs(ctx, tx, trade.ID)
		if err != nil {
			return err
		}

		note := fmt.Sprintf("trade %s", trade.ID)
		for _, leg := range legs {
			if err := a.roster.CutInTx(ctx, tx, trade.SeasonID, leg.PlayerID, leg.FromTeamID, models.TransactionTrade, actor, &note); err != nil {
				return fmt.Errorf("leg %s: %w", leg.PlayerID, err)
			}
		}
		for _, leg := range legs {
			if _, err := a.roster.SignInTx(ctx, tx, trade.SeasonID, leg.PlayerID, leg.ToTeamID, models.TransactionTrade, actor, &note); err != nil {
				return fmt.Errorf("leg %s: %w", leg.PlayerID, err)
			}
		}

		if err := a.repo.SetStatus(ctx, tx, trade.ID, models.TradeStatusCompleted); err != nil {
			return err
		}

		if err := a.outbox.Insert(ctx, tx, models.EventTradeCompleted, trade.ID, map[string]any{
			"trade_id":  trade.ID,
			"season_id": trade.SeasonID,
			"team_a_id": trade.TeamAID,
			"team_b_id": trade.TeamBID,
			"legs":      legs,
		}); err != nil {
			return err
		}

		eid := trade.ID.String()
		return a.audit.Append(ctx, tx, "trade", "complete", &eid, actor, nil, nil)
	})
	if err != nil {
		a.log.Warn().Err(err).Str("trade_id", trade.ID.String()).Msg("trade execution failed")
		return err
	}

	a.log.Info().Str("trade_id", trade.ID.String()).Msg("trade completed")
	return nil
}

// Decline lets a participating team reject a pending trade.
func (a *App) Decline(ctx context.Context, tradeID, teamID uuid.UUID, actor string) error {
	trade, err := a.repo.GetByID(ctx, nil, tradeID)
	if err != nil {
		return err
	}
	if trade.Status != models.TradeStatusPending {
		return ErrNotPending
	}
	if teamID != trade.TeamAID && teamID != trade.TeamBID {
		return ErrNotParticipant
	}

	return a.txr.WithTx(ctx, func(tx pgx.Tx) error {
		if err := a.repo.SetStatus(ctx, tx, tradeID, models.TradeStatusDeclined); err != nil {
			return err
		}
		eid := tradeID.String()
		return a.audit.Append(ctx, tx, "trade", "decline", &eid, actor, nil,
			map[string]any{"team_id": teamID})
	})
}

// Cancel withdraws a pending trade. The proposing team may cancel, as may
// anyone holding league management authority.
func (a *App) Cancel(ctx context.Context, tradeID, teamID uuid.UUID, actor string) error {
	trade, err := a.repo.GetByID(ctx, nil, tradeID)
	if err != nil {
		return err
	}
	if trade.Status != models.TradeStatusPending {
		return ErrNotPending
	}
	if teamID != trade.ProposedByTeam && !a.auth.Can(actor, authz.CapManageLeague, nil) {
		return ErrNotParticipant
	}

	return a.txr.WithTx(ctx, func(tx pgx.Tx) error {
		if err := a.repo.SetStatus(ctx, tx, tradeID, models.TradeStatusCancelled); err != nil {
			return err
		}
		eid := tradeID.String()
		return a.audit.Append(ctx, tx, "trade", "cancel", &eid, actor, nil, nil)
	})
}

// Get returns a trade with its legs.
func (a *App) Get(ctx context.Context, tradeID uuid.UUID) (*models.Trade, []models.TradeLeg, error) {
	trade, err := a.repo.GetByID(ctx, nil, tradeID)
	if err != nil {
		return nil, nil, err
	}
	legs, err := a.repo.Legs(ctx, nil, tradeID)
	if err != nil {
		return nil, nil, err
	}
	return trade, legs, nil
}

// ListPending returns a season's open trades.
func (a *App) ListPending(ctx context.Context, seasonID uuid.UUID) ([]models.Trade, error) {
	return a.repo.ListByStatus(ctx, seasonID, models.TradeStatusPending)
}

// validateLegs checks each moved player is actively rostered with the
// sending team.
func (a *App) validateLegs(ctx context.Context, tx pgx.Tx, seasonID uuid.UUID, legs []models.TradeLeg) error {
	for _, leg := range legs {
		entry, err := a.active.GetActive(ctx, tx, leg.PlayerID, seasonID)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return fmt.Errorf("%w: player %s is not rostered", ErrInvalidLeg, leg.PlayerID)
			}
			return err
		}
		if entry.TeamID != leg.FromTeamID {
			return fmt.Errorf("%w: player %s is not on the sending team", ErrInvalidLeg, leg.PlayerID)
		}
	}
	return nil
}
