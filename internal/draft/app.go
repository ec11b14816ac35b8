package draft

import (
	"context"
	"time"

	"github.com/breakawayhl/breakaway/internal/leagueconfig"
	"github.com/breakawayhl/breakaway/internal/models"
	"github.com/breakawayhl/breakaway/internal/store"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog"
)

const defaultPickTimeLimitSec = 120

type DraftRepository interface {
	Create(ctx context.Context, q store.DBTX, seasonID uuid.UUID, scheduledAt time.Time, totalRounds, pickTimeLimitSec int) (*models.Draft, error)
	GetByID(ctx context.Context, q store.DBTX, id uuid.UUID) (*models.Draft, error)
	SetStatus(ctx context.Context, q store.DBTX, id uuid.UUID, status models.DraftStatus) error
	AdvancePick(ctx context.Context, q store.DBTX, id uuid.UUID) error
	ReplaceOrder(ctx context.Context, q store.DBTX, draftID uuid.UUID, slots []models.DraftOrderSlot) error
	Order(ctx context.Context, q store.DBTX, draftID uuid.UUID) ([]models.DraftOrderSlot, error)
	SlotAt(ctx context.Context, q store.DBTX, draftID uuid.UUID, pickNumber int) (*models.DraftOrderSlot, error)
	CountPicks(ctx context.Context, q store.DBTX, draftID uuid.UUID) (int, error)
	InsertPick(ctx context.Context, q store.DBTX, draftID uuid.UUID, slot models.DraftOrderSlot, playerID uuid.UUID, pickedBy string) (*models.DraftPick, error)
	Picks(ctx context.Context, draftID uuid.UUID) ([]models.DraftPick, error)
	AddEligible(ctx context.Context, q store.DBTX, draftID, playerID uuid.UUID) error
	RemoveEligible(ctx context.Context, q store.DBTX, draftID, playerID uuid.UUID) error
	ListEligible(ctx context.Context, draftID uuid.UUID) ([]uuid.UUID, error)
}

// RosterEngine places drafted players on rosters inside the pick's
// transaction.
type RosterEngine interface {
	SignInTx(ctx context.Context, tx pgx.Tx, seasonID, playerID, teamID uuid.UUID, origin models.TransactionType, executedBy string, notes *string) (*models.RosterEntry, error)
}

type OutboxRepository interface {
	Insert(ctx context.Context, q store.DBTX, eventType string, aggregateID uuid.UUID, payload any) error
}

type ConfigReader interface {
	Int(ctx context.Context, q store.DBTX, key string, def int) int
}

type AuditRepository interface {
	Append(ctx context.Context, q store.DBTX, entityType, action string, entityID *string, actor string, oldValues, newValues any) error
}

// App is the draft engine. Picks consume a fixed order strictly in
// sequence; each accepted pick signs the player and advances the clock, and
// the last pick completes the draft.
type App struct {
	txr    store.TxRunner
	repo   DraftRepository
	roster RosterEngine
	outbox OutboxRepository
	config ConfigReader
	audit  AuditRepository
	clock  clockwork.Clock
	log    zerolog.Logger
}

func NewApp(
	txr store.TxRunner,
	repo DraftRepository,
	roster RosterEngine,
	outbox OutboxRepository,
	config ConfigReader,
	audit AuditRepository,
	clock clockwork.Clock,
	log zerolog.Logger,
) *App {
	return &App{
		txr:    txr,
		repo:   repo,
		roster: roster,
		outbox: outbox,
		config: config,
		audit:  audit,
		clock:  clock,
		log:    log.With().Str("component", "draft").Logger(),
	}
}

// Create schedules a draft. The pick time limit comes from league config at
// creation time.
func (a *App) Create(ctx context.Context, seasonID uuid.UUID, scheduledAt time.Time, totalRounds int, actor string) (*models.Draft, error) {
	var draft *models.Draft
	err := a.txr.WithTx(ctx, func(tx pgx.Tx) error {
		limit := a.config.Int(ctx, tx, leagueconfig.KeyDraftPickTime, defaultPickTimeLimitSec)
		var txErr error
		draft, txErr = a.repo.Create(ctx, tx, seasonID, scheduledAt, totalRounds, limit)
		if txErr != nil {
			return txErr
		}
		eid := draft.ID.String()
		return a.audit.Append(ctx, tx, "draft", "create", &eid, actor, nil, draft)
	})
	if err != nil {
		return nil, err
	}

	a.log.Info().Str("draft_id", draft.ID.String()).Int("rounds", totalRounds).Msg("draft created")
	return draft, nil
}

// SetOrder writes the full pick sequence from per-round team lists. Each
// inner list is one round in picking order, so snake or custom round
// orders are expressed directly. Round 1 runs entirely before round 2 and
// so on; pick numbers are assigned sequentially across the rounds. The
// order locks once any pick has been made.
func (a *App) SetOrder(ctx context.Context, draftID uuid.UUID, rounds [][]uuid.UUID, actor string) error {
	draft, err := a.repo.GetByID(ctx, nil, draftID)
	if err != nil {
		return err
	}
	if draft.Status == models.DraftStatusCompleted {
		return ErrInvalidTransition
	}

	return a.txr.WithTx(ctx, func(tx pgx.Tx) error {
		made, err := a.repo.CountPicks(ctx, tx, draftID)
		if err != nil {
			return err
		}
		if made > 0 {
			return ErrOrderLocked
		}

		var slots []models.DraftOrderSlot
		pick := 1
		for i, teamOrder := range rounds {
			for _, teamID := range teamOrder {
				slots = append(slots, models.DraftOrderSlot{
					PickNumber: pick,
					Round:      i + 1,
					TeamID:     teamID,
				})
				pick++
			}
		}
		if err := a.repo.ReplaceOrder(ctx, tx, draftID, slots); err != nil {
			return err
		}
		eid := draftID.String()
		return a.audit.Append(ctx, tx, "draft", "set_order", &eid, actor, nil,
			map[string]any{"rounds": rounds})
	})
}

// Start begins the draft. Requires an order and a scheduled draft.
func (a *App) Start(ctx context.Context, draftID uuid.UUID, actor string) error {
	return a.transition(ctx, draftID, models.DraftStatusScheduled, models.DraftStatusInProgress, "start", actor, true)
}

// Pause suspends an in-progress draft, keeping the clock position.
func (a *App) Pause(ctx context.Context, draftID uuid.UUID, actor string) error {
	return a.transition(ctx, draftID, models.DraftStatusInProgress, models.DraftStatusPaused, "pause", actor, false)
}

// Resume continues a paused draft at the same pick.
func (a *App) Resume(ctx context.Context, draftID uuid.UUID, actor string) error {
	return a.transition(ctx, draftID, models.DraftStatusPaused, models.DraftStatusInProgress, "resume", actor, false)
}

func (a *App) transition(ctx context.Context, draftID uuid.UUID, from, to models.DraftStatus, action, actor string, requireOrder bool) error {
	draft, err := a.repo.GetByID(ctx, nil, draftID)
	if err != nil {
		return err
	}
	if draft.Status != from {
		return ErrInvalidTransition
	}

	err = a.txr.WithTx(ctx, func(tx pgx.Tx) error {
		if requireOrder {
			slots, err := a.repo.Order(ctx, tx, draftID)
			if err != nil {
				return err
			}
			if len(slots) == 0 {
				return ErrNoOrder
			}
		}
		if err := a.repo.SetStatus(ctx, tx, draftID, to); err != nil {
			return err
		}
		if err := a.outbox.Insert(ctx, tx, models.EventDraftStatus, draftID, map[string]any{
			"draft_id": draftID,
			"status":   to,
		}); err != nil {
			return err
		}
		eid := draftID.String()
		return a.audit.Append(ctx, tx, "draft", action, &eid, actor,
			map[string]any{"status": from}, map[string]any{"status": to})
	})
	if err != nil {
		return err
	}

	a.log.Info().Str("draft_id", draftID.String()).Str("status", string(to)).Msg("draft status changed")
	return nil
}

// Pick records the current slot's selection. The slot must belong to the
// picking team; the eligible pool is advisory and not checked here, so a
// pick of an already-rostered player fails in the roster engine instead.
// The pick, the roster entry, the clock advance, and (for the last slot)
// the completion all commit together.
func (a *App) Pick(ctx context.Context, draftID, teamID, playerID uuid.UUID, pickedBy string) (*models.DraftPick, error) {
	var pick *models.DraftPick
	err := a.txr.WithTx(ctx, func(tx pgx.Tx) error {
		draft, err := a.repo.GetByID(ctx, tx, draftID)
		if err != nil {
			return err
		}
		if draft.Status != models.DraftStatusInProgress {
			return ErrNotInProgress
		}

		slot, err := a.repo.SlotAt(ctx, tx, draftID, draft.CurrentPick)
		if err != nil {
			return err
		}
		if slot.TeamID != teamID {
			return ErrWrongTeam
		}

		pick, err = a.repo.InsertPick(ctx, tx, draftID, *slot, playerID, pickedBy)
		if err != nil {
			return err
		}
		if err := a.repo.RemoveEligible(ctx, tx, draftID, playerID); err != nil {
			return err
		}

		note := "draft selection"
		if _, err := a.roster.SignInTx(ctx, tx, draft.SeasonID, playerID, teamID, models.TransactionDraft, pickedBy, &note); err != nil {
			return err
		}

		if err := a.repo.AdvancePick(ctx, tx, draftID); err != nil {
			return err
		}

		order, err := a.repo.Order(ctx, tx, draftID)
		if err != nil {
			return err
		}
		if draft.CurrentPick >= len(order) {
			if err := a.repo.SetStatus(ctx, tx, draftID, models.DraftStatusCompleted); err != nil {
				return err
			}
			if err := a.outbox.Insert(ctx, tx, models.EventDraftStatus, draftID, map[string]any{
				"draft_id": draftID,
				"status":   models.DraftStatusCompleted,
			}); err != nil {
				return err
			}
		} else {
			next := order[draft.CurrentPick]
			deadline := a.clock.Now().Add(time.Duration(draft.PickTimeLimitSec) * time.Second)
			if err := a.outbox.Insert(ctx, tx, models.EventDraftPick, draftID, map[string]any{
				"draft_id":      draftID,
				"pick_number":   pick.PickNumber,
				"player_id":     playerID,
				"team_id":       teamID,
				"next_pick":     next.PickNumber,
				"next_team_id":  next.TeamID,
				"pick_deadline": deadline,
			}); err != nil {
				return err
			}
		}

		eid := draftID.String()
		return a.audit.Append(ctx, tx, "draft", "pick", &eid, pickedBy, nil, pick)
	})
	if err != nil {
		return nil, err
	}

	a.log.Info().
		Str("draft_id", draftID.String()).
		Int("pick", pick.PickNumber).
		Str("player_id", playerID.String()).
		Msg("draft pick made")
	return pick, nil
}

// AddEligible puts a player into the draft pool.
func (a *App) AddEligible(ctx context.Context, draftID, playerID uuid.UUID, actor string) error {
	return a.txr.WithTx(ctx, func(tx pgx.Tx) error {
		if err := a.repo.AddEligible(ctx, tx, draftID, playerID); err != nil {
			return err
		}
		eid := draftID.String()
		return a.audit.Append(ctx, tx, "draft", "add_eligible", &eid, actor, nil,
			map[string]any{"player_id": playerID})
	})
}

// RemoveEligible drops a player from the pool.
func (a *App) RemoveEligible(ctx context.Context, draftID, playerID uuid.UUID, actor string) error {
	return a.txr.WithTx(ctx, func(tx pgx.Tx) error {
		if err := a.repo.RemoveEligible(ctx, tx, draftID, playerID); err != nil {
			return err
		}
		eid := draftID.String()
		return a.audit.Append(ctx, tx, "draft", "remove_eligible", &eid, actor,
			map[string]any{"player_id": playerID}, nil)
	})
}

// Eligible returns the remaining draft pool, for display and filtering.
func (a *App) Eligible(ctx context.Context, draftID uuid.UUID) ([]uuid.UUID, error) {
	return a.repo.ListEligible(ctx, draftID)
}

// Get returns the draft.
func (a *App) Get(ctx context.Context, draftID uuid.UUID) (*models.Draft, error) {
	return a.repo.GetByID(ctx, nil, draftID)
}

// Order returns the pick sequence.
func (a *App) Order(ctx context.Context, draftID uuid.UUID) ([]models.DraftOrderSlot, error) {
	return a.repo.Order(ctx, nil, draftID)
}

// Picks returns the picks made so far.
func (a *App) Picks(ctx context.Context, draftID uuid.UUID) ([]models.DraftPick, error) {
	return a.repo.Picks(ctx, draftID)
}
