package roster

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

const rosterColumns = `id, player_id, team_id, season_id, position, jersey_number, signed_at, released_at, is_active`

func scanEntry(row interface{ Scan(...any) error }) (*models.RosterEntry, error) {
	var e models.RosterEntry
	err := row.Scan(&e.ID, &e.PlayerID, &e.TeamID, &e.SeasonID, &e.Position,
		&e.JerseyNumber, &e.SignedAt, &e.ReleasedAt, &e.IsActive)
	if err != nil {
		return nil, err
	}
	return &e, nil
}

func (r *Repository) Insert(ctx context.Context, q store.DBTX, playerID, teamID, seasonID uuid.UUID) (*models.RosterEntry, error) {
	row := r.q(q).QueryRow(ctx, `
		INSERT INTO rosters (id, player_id, team_id, season_id)
		VALUES ($1, $2, $3, $4)
		RETURNING `+rosterColumns,
		uuid.New(), playerID, teamID, seasonID)
	entry, err := scanEntry(row)
	if err != nil {
		return nil, fmt.Errorf("failed to insert roster entry: %w", err)
	}
	return entry, nil
}

// GetActive returns the player's active entry for the season, if any.
func (r *Repository) GetActive(ctx context.Context, q store.DBTX, playerID, seasonID uuid.UUID) (*models.RosterEntry, error) {
	row := r.q(q).QueryRow(ctx, `
		SELECT `+rosterColumns+` FROM rosters
		WHERE player_id = $1 AND season_id = $2 AND is_active
	`, playerID, seasonID)
	entry, err := scanEntry(row)
	if err != nil {
		return nil, store.MapNotFound(err)
	}
	return entry, nil
}

// Deactivate releases the entry, stamping released_at. The row stays for
// history.
func (r *Repository) Deactivate(ctx context.Context, q store.DBTX, entryID uuid.UUID) error {
	tag, err := r.q(q).Exec(ctx, `
		UPDATE rosters SET is_active = false, released_at = now()
		WHERE id = $1 AND is_active
	`, entryID)
	if err != nil {
		return fmt.Errorf("failed to deactivate roster entry: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return store.ErrNotFound
	}
	return nil
}

// CountActive returns the team's active roster size for the season.
func (r *Repository) CountActive(ctx context.Context, q store.DBTX, teamID, seasonID uuid.UUID) (int, error) {
	var n int
	err := r.q(q).QueryRow(ctx, `
		SELECT count(*) FROM rosters
		WHERE team_id = $1 AND season_id = $2 AND is_active
	`, teamID, seasonID).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("failed to count roster: %w", err)
	}
	return n, nil
}

// ListTeam returns the team's active roster for the season.
func (r *Repository) ListTeam(ctx context.Context, teamID, seasonID uuid.UUID) ([]models.RosterEntry, error) {
	rows, err := r.db.Query(ctx, `
		SELECT `+rosterColumns+` FROM rosters
		WHERE team_id = $1 AND season_id = $2 AND is_active
		ORDER BY signed_at
	`, teamID, seasonID)
	if err != nil {
		return nil, fmt.Errorf("failed to list roster: %w", err)
	}
	defer rows.Close()

	var entries []models.RosterEntry
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, *e)
	}
	return entries, rows.Err()
}

// ListFreeAgents returns verified players with no active roster entry for
// the season.
func (r *Repository) ListFreeAgents(ctx context.Context, seasonID uuid.UUID) ([]models.Player, error) {
	rows, err := r.db.Query(ctx, `
		SELECT p.id, p.chat_user_id, p.roblox_user_id, p.roblox_username, p.verified, p.created_at, p.updated_at
		FROM players p
		WHERE p.verified
		  AND NOT EXISTS (
			SELECT 1 FROM rosters r
			WHERE r.player_id = p.id AND r.season_id = $1 AND r.is_active
		  )
		ORDER BY p.roblox_username NULLS LAST
	`, seasonID)
	if err != nil {
		return nil, fmt.Errorf("failed to list free agents: %w", err)
	}
	defer rows.Close()

	var players []models.Player
	for rows.Next() {
		var p models.Player
		if err := rows.Scan(&p.ID, &p.ChatUserID, &p.RobloxUserID, &p.RobloxUsername,
			&p.Verified, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, err
		}
		players = append(players, p)
	}
	return players, rows.Err()
}
