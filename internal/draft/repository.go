package draft

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

const draftColumns = `id, season_id, scheduled_at, total_rounds, status, current_pick, pick_time_limit_sec, created_at`

func scanDraft(row interface{ Scan(...any) error }) (*models.Draft, error) {
	var d models.Draft
	err := row.Scan(&d.ID, &d.SeasonID, &d.ScheduledAt, &d.TotalRounds, &d.Status,
		&d.CurrentPick, &d.PickTimeLimitSec, &d.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &d, nil
}

func (r *Repository) Create(ctx context.Context, q store.DBTX, seasonID uuid.UUID, scheduledAt time.Time, totalRounds, pickTimeLimitSec int) (*models.Draft, error) {
	row := r.q(q).QueryRow(ctx, `
		INSERT INTO drafts (id, season_id, scheduled_at, total_rounds, pick_time_limit_sec)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING `+draftColumns,
		uuid.New(), seasonID, scheduledAt, totalRounds, pickTimeLimitSec)
	draft, err := scanDraft(row)
	if err != nil {
		return nil, fmt.Errorf("failed to create draft: %w", err)
	}
	return draft, nil
}

func (r *Repository) GetByID(ctx context.Context, q store.DBTX, id uuid.UUID) (*models.Draft, error) {
	row := r.q(q).QueryRow(ctx, `SELECT `+draftColumns+` FROM drafts WHERE id = $1`, id)
	draft, err := scanDraft(row)
	if err != nil {
		return nil, store.MapNotFound(err)
	}
	return draft, nil
}

// SetStatus updates the draft status.
func (r *Repository) SetStatus(ctx context.Context, q store.DBTX, id uuid.UUID, status models.DraftStatus) error {
	tag, err := r.q(q).Exec(ctx, `UPDATE drafts SET status = $1 WHERE id = $2`, status, id)
	if err != nil {
		return fmt.Errorf("failed to set draft status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return store.ErrNotFound
	}
	return nil
}

// AdvancePick moves current_pick forward by one.
func (r *Repository) AdvancePick(ctx context.Context, q store.DBTX, id uuid.UUID) error {
	tag, err := r.q(q).Exec(ctx, `UPDATE drafts SET current_pick = current_pick + 1 WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to advance pick: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return store.ErrNotFound
	}
	return nil
}

// ReplaceOrder deletes any existing order rows and writes the new sequence.
func (r *Repository) ReplaceOrder(ctx context.Context, q store.DBTX, draftID uuid.UUID, slots []models.DraftOrderSlot) error {
	if _, err := r.q(q).Exec(ctx, `DELETE FROM draft_order WHERE draft_id = $1`, draftID); err != nil {
		return fmt.Errorf("failed to clear draft order: %w", err)
	}
	for _, s := range slots {
		_, err := r.q(q).Exec(ctx, `
			INSERT INTO draft_order (id, draft_id, pick_number, round, team_id)
			VALUES ($1, $2, $3, $4, $5)
		`, uuid.New(), draftID, s.PickNumber, s.Round, s.TeamID)
		if err != nil {
			return fmt.Errorf("failed to insert draft order slot: %w", err)
		}
	}
	return nil
}

// Order returns the full pick sequence sorted by pick number.
func (r *Repository) Order(ctx context.Context, q store.DBTX, draftID uuid.UUID) ([]models.DraftOrderSlot, error) {
	rows, err := r.q(q).Query(ctx, `
		SELECT id, draft_id, pick_number, round, team_id
		FROM draft_order WHERE draft_id = $1 ORDER BY pick_number
	`, draftID)
	if err != nil {
		return nil, fmt.Errorf("failed to load draft order: %w", err)
	}
	defer rows.Close()

	var slots []models.DraftOrderSlot
	for rows.Next() {
		var s models.DraftOrderSlot
		if err := rows.Scan(&s.ID, &s.DraftID, &s.PickNumber, &s.Round, &s.TeamID); err != nil {
			return nil, err
		}
		slots = append(slots, s)
	}
	return slots, rows.Err()
}

// SlotAt returns the order slot for one pick number.
func (r *Repository) SlotAt(ctx context.Context, q store.DBTX, draftID uuid.UUID, pickNumber int) (*models.DraftOrderSlot, error) {
	var s models.DraftOrderSlot
	err := r.q(q).QueryRow(ctx, `
		SELECT id, draft_id, pick_number, round, team_id
		FROM draft_order WHERE draft_id = $1 AND pick_number = $2
	`, draftID, pickNumber).Scan(&s.ID, &s.DraftID, &s.PickNumber, &s.Round, &s.TeamID)
	if err != nil {
		return nil, store.MapNotFound(err)
	}
	return &s, nil
}

// CountPicks returns how many picks have been made.
func (r *Repository) CountPicks(ctx context.Context, q store.DBTX, draftID uuid.UUID) (int, error) {
	var n int
	err := r.q(q).QueryRow(ctx, `SELECT count(*) FROM draft_picks WHERE draft_id = $1`, draftID).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("failed to count picks: %w", err)
	}
	return n, nil
}

// InsertPick records a pick. The unique (draft_id, pick_number) constraint
// is the backstop against double picks.
func (r *Repository) InsertPick(ctx context.Context, q store.DBTX, draftID uuid.UUID, slot models.DraftOrderSlot, playerID uuid.UUID, pickedBy string) (*models.DraftPick, error) {
	var p models.DraftPick
	err := r.q(q).QueryRow(ctx, `
		INSERT INTO draft_picks (id, draft_id, pick_number, round, team_id, player_id, picked_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, draft_id, pick_number, round, team_id, player_id, picked_at, picked_by
	`, uuid.New(), draftID, slot.PickNumber, slot.Round, slot.TeamID, playerID, pickedBy).
		Scan(&p.ID, &p.DraftID, &p.PickNumber, &p.Round, &p.TeamID, &p.PlayerID, &p.PickedAt, &p.PickedBy)
	if err != nil {
		return nil, fmt.Errorf("failed to insert pick: %w", err)
	}
	return &p, nil
}

// Picks returns made picks in pick order.
func (r *Repository) Picks(ctx context.Context, draftID uuid.UUID) ([]models.DraftPick, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, draft_id, pick_number, round, team_id, player_id, picked_at, picked_by
		FROM draft_picks WHERE draft_id = $1 ORDER BY pick_number
	`, draftID)
	if err != nil {
		return nil, fmt.Errorf("failed to list picks: %w", err)
	}
	defer rows.Close()

	var picks []models.DraftPick
	for rows.Next() {
		var p models.DraftPick
		if err := rows.Scan(&p.ID, &p.DraftID, &p.PickNumber, &p.Round, &p.TeamID,
			&p.PlayerID, &p.PickedAt, &p.PickedBy); err != nil {
			return nil, err
		}
		picks = append(picks, p)
	}
	return picks, rows.Err()
}

// AddEligible adds a player to the draft pool.
func (r *Repository) AddEligible(ctx context.Context, q store.DBTX, draftID, playerID uuid.UUID) error {
	_, err := r.q(q).Exec(ctx, `
		INSERT INTO draft_eligible (id, draft_id, player_id)
		VALUES ($1, $2, $3)
		ON CONFLICT (draft_id, player_id) DO NOTHING
	`, uuid.New(), draftID, playerID)
	if err != nil {
		return fmt.Errorf("failed to add eligible player: %w", err)
	}
	return nil
}

// RemoveEligible removes a player from the pool.
func (r *Repository) RemoveEligible(ctx context.Context, q store.DBTX, draftID, playerID uuid.UUID) error {
	_, err := r.q(q).Exec(ctx, `
		DELETE FROM draft_eligible WHERE draft_id = $1 AND player_id = $2
	`, draftID, playerID)
	if err != nil {
		return fmt.Errorf("failed to remove eligible player: %w", err)
	}
	return nil
}

// ListEligible returns the player ids still in the pool.
func (r *Repository) ListEligible(ctx context.Context, draftID uuid.UUID) ([]uuid.UUID, error) {
	rows, err := r.db.Query(ctx, `
		SELECT player_id FROM draft_eligible WHERE draft_id = $1
	`, draftID)
	if err != nil {
		return nil, fmt.Errorf("failed to list eligible players: %w", err)
	}
	defer rows.Close()

	var ids []uuid.UUID
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}
