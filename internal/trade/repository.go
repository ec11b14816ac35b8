package trade

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

const tradeColumns = `id, season_id, team_a_id, team_b_id, proposed_by_team, proposed_by_user,
	status, team_a_accepted, team_b_accepted, proposed_at, completed_at, notes`

func scanTrade(row interface{ Scan(...any) error }) (*models.Trade, error) {
	var t models.Trade
	err := row.Scan(&t.ID, &t.SeasonID, &t.TeamAID, &t.TeamBID, &t.ProposedByTeam,
		&t.ProposedByUser, &t.Status, &t.TeamAAccepted, &t.TeamBAccepted,
		&t.ProposedAt, &t.CompletedAt, &t.Notes)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

type CreateTradeParams struct {
	SeasonID       uuid.UUID
	TeamAID        uuid.UUID
	TeamBID        uuid.UUID
	ProposedByTeam uuid.UUID
	ProposedByUser string
	Notes          *string
	Legs           []models.TradeLeg
}

// Create inserts the trade and its legs. Both acceptance flags start
// false; the proposer accepts like any other party.
func (r *Repository) Create(ctx context.Context, q store.DBTX, p CreateTradeParams) (*models.Trade, error) {
	tradeID := uuid.New()
	row := r.q(q).QueryRow(ctx, `
		INSERT INTO trades (id, season_id, team_a_id, team_b_id, proposed_by_team, proposed_by_user, notes)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING `+tradeColumns,
		tradeID, p.SeasonID, p.TeamAID, p.TeamBID, p.ProposedByTeam, p.ProposedByUser, p.Notes)
	trade, err := scanTrade(row)
	if err != nil {
		return nil, fmt.Errorf("failed to create trade: %w", err)
	}

	for i, leg := range p.Legs {
		_, err := r.q(q).Exec(ctx, `
			INSERT INTO trade_players (id, trade_id, player_id, from_team_id, to_team_id, leg_order)
			VALUES ($1, $2, $3, $4, $5, $6)
		`, uuid.New(), tradeID, leg.PlayerID, leg.FromTeamID, leg.ToTeamID, i)
		if err != nil {
			return nil, fmt.Errorf("failed to insert trade leg: %w", err)
		}
	}
	return trade, nil
}

func (r *Repository) GetByID(ctx context.Context, q store.DBTX, id uuid.UUID) (*models.Trade, error) {
	row := r.q(q).QueryRow(ctx, `SELECT `+tradeColumns+` FROM trades WHERE id = $1`, id)
	trade, err := scanTrade(row)
	if err != nil {
		return nil, store.MapNotFound(err)
	}
	return trade, nil
}

// Legs returns the trade's legs in insertion order.
func (r *Repository) Legs(ctx context.Context, q store.DBTX, tradeID uuid.UUID) ([]models.TradeLeg, error) {
	rows, err := r.q(q).Query(ctx, `
		SELECT id, trade_id, player_id, from_team_id, to_team_id
		FROM trade_players WHERE trade_id = $1 ORDER BY leg_order
	`, tradeID)
	if err != nil {
		return nil, fmt.Errorf("failed to list trade legs: %w", err)
	}
	defer rows.Close()

	var legs []models.TradeLeg
	for rows.Next() {
		var l models.TradeLeg
		if err := rows.Scan(&l.ID, &l.TradeID, &l.PlayerID, &l.FromTeamID, &l.ToTeamID); err != nil {
			return nil, err
		}
		legs = append(legs, l)
	}
	return legs, rows.Err()
}

// SetAccepted flips one side's acceptance flag on a pending trade.
func (r *Repository) SetAccepted(ctx context.Context, q store.DBTX, tradeID uuid.UUID, sideA bool) error {
	col := "team_b_accepted"
	if sideA {
		col = "team_a_accepted"
	}
	tag, err := r.q(q).Exec(ctx,
		fmt.Sprintf(`UPDATE trades SET %s = true WHERE id = $1 AND status = 'pending'`, col), tradeID)
	if err != nil {
		return fmt.Errorf("failed to set trade acceptance: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return r.notPendingErr(ctx, q, tradeID)
	}
	return nil
}

// notPendingErr distinguishes a trade that left the pending state from one
// that does not exist, for guarded updates that matched no row.
func (r *Repository) notPendingErr(ctx context.Context, q store.DBTX, tradeID uuid.UUID) error {
	var exists bool
	if err := r.q(q).QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM trades WHERE id = $1)`, tradeID).Scan(&exists); err != nil {
		return err
	}
	if exists {
		return ErrNotPending
	}
	return store.ErrNotFound
}

// SetStatus moves a pending trade to a terminal status, stamping
// completed_at for completions.
func (r *Repository) SetStatus(ctx context.Context, q store.DBTX, tradeID uuid.UUID, status models.TradeStatus) error {
	tag, err := r.q(q).Exec(ctx, `
		UPDATE trades
		SET status = $1,
		    completed_at = CASE WHEN $1 = 'completed' THEN now() ELSE completed_at END
		WHERE id = $2 AND status = 'pending'
	`, status, tradeID)
	if err != nil {
		return fmt.Errorf("failed to set trade status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return r.notPendingErr(ctx, q, tradeID)
	}
	return nil
}

// ListByStatus returns a season's trades with the given status, newest
// first.
func (r *Repository) ListByStatus(ctx context.Context, seasonID uuid.UUID, status models.TradeStatus) ([]models.Trade, error) {
	rows, err := r.db.Query(ctx, `
		SELECT `+tradeColumns+` FROM trades
		WHERE season_id = $1 AND status = $2
		ORDER BY proposed_at DESC
	`, seasonID, status)
	if err != nil {
		return nil, fmt.Errorf("failed to list trades: %w", err)
	}
	defer rows.Close()

	var trades []models.Trade
	for rows.Next() {
		t, err := scanTrade(rows)
		if err != nil {
			return nil, err
		}
		trades = append(trades, *t)
	}
	return trades, rows.Err()
}
