// Package translog is the append-only roster transaction log: one row per
// signing, cut, trade leg, draft selection, or waiver claim.
package translog

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

// LogParams describes one roster-affecting event.
type LogParams struct {
	SeasonID   uuid.UUID
	Type       models.TransactionType
	PlayerID   uuid.UUID
	FromTeamID *uuid.UUID
	ToTeamID   *uuid.UUID
	ExecutedBy string
	Notes      *string
}

// Log appends one transaction record.
func (r *Repository) Log(ctx context.Context, q store.DBTX, p LogParams) error {
	_, err := r.q(q).Exec(ctx, `
		INSERT INTO transactions (id, season_id, transaction_type, player_id, from_team_id, to_team_id, executed_by, notes)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`, uuid.New(), p.SeasonID, p.Type, p.PlayerID, p.FromTeamID, p.ToTeamID, p.ExecutedBy, p.Notes)
	if err != nil {
		return fmt.Errorf("failed to log transaction: %w", err)
	}
	return nil
}

// Recent returns the newest transactions for a season, most recent first.
func (r *Repository) Recent(ctx context.Context, seasonID uuid.UUID, limit int) ([]models.TransactionLogEntry, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, season_id, transaction_type, player_id, from_team_id, to_team_id, executed_by, notes, created_at
		FROM transactions
		WHERE season_id = $1
		ORDER BY created_at DESC
		LIMIT $2
	`, seasonID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list transactions: %w", err)
	}
	defer rows.Close()

	var entries []models.TransactionLogEntry
	for rows.Next() {
		var e models.TransactionLogEntry
		if err := rows.Scan(&e.ID, &e.SeasonID, &e.Type, &e.PlayerID, &e.FromTeamID, &e.ToTeamID, &e.ExecutedBy, &e.Notes, &e.CreatedAt); err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// ByPlayer returns a player's full transaction history for a season in
// chronological order.
func (r *Repository) ByPlayer(ctx context.Context, seasonID, playerID uuid.UUID) ([]models.TransactionLogEntry, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, season_id, transaction_type, player_id, from_team_id, to_team_id, executed_by, notes, created_at
		FROM transactions
		WHERE season_id = $1 AND player_id = $2
		ORDER BY created_at
	`, seasonID, playerID)
	if err != nil {
		return nil, fmt.Errorf("failed to list player transactions: %w", err)
	}
	defer rows.Close()

	var entries []models.TransactionLogEntry
	for rows.Next() {
		var e models.TransactionLogEntry
		if err := rows.Scan(&e.ID, &e.SeasonID, &e.Type, &e.PlayerID, &e.FromTeamID, &e.ToTeamID, &e.ExecutedBy, &e.Notes, &e.CreatedAt); err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
