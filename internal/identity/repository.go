package identity

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

const playerColumns = `id, chat_user_id, roblox_user_id, roblox_username, verified, created_at, updated_at`

func scanPlayer(row interface{ Scan(...any) error }) (*models.Player, error) {
	var p models.Player
	err := row.Scan(&p.ID, &p.ChatUserID, &p.RobloxUserID, &p.RobloxUsername,
		&p.Verified, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *Repository) Create(ctx context.Context, q store.DBTX, chatUserID string) (*models.Player, error) {
	row := r.q(q).QueryRow(ctx, `
		INSERT INTO players (id, chat_user_id)
		VALUES ($1, $2)
		RETURNING `+playerColumns,
		uuid.New(), chatUserID)
	player, err := scanPlayer(row)
	if err != nil {
		return nil, fmt.Errorf("failed to create player: %w", err)
	}
	return player, nil
}

func (r *Repository) GetByID(ctx context.Context, q store.DBTX, id uuid.UUID) (*models.Player, error) {
	row := r.q(q).QueryRow(ctx, `SELECT `+playerColumns+` FROM players WHERE id = $1`, id)
	player, err := scanPlayer(row)
	if err != nil {
		return nil, store.MapNotFound(err)
	}
	return player, nil
}

func (r *Repository) GetByChatUser(ctx context.Context, chatUserID string) (*models.Player, error) {
	row := r.db.QueryRow(ctx, `SELECT `+playerColumns+` FROM players WHERE chat_user_id = $1`, chatUserID)
	player, err := scanPlayer(row)
	if err != nil {
		return nil, store.MapNotFound(err)
	}
	return player, nil
}

func (r *Repository) GetByRobloxUser(ctx context.Context, robloxUserID string) (*models.Player, error) {
	row := r.db.QueryRow(ctx, `SELECT `+playerColumns+` FROM players WHERE roblox_user_id = $1`, robloxUserID)
	player, err := scanPlayer(row)
	if err != nil {
		return nil, store.MapNotFound(err)
	}
	return player, nil
}

// SetRobloxAccount binds a Roblox account to the player and resets the
// verified flag. The unique index on roblox_user_id keeps one binding per
// account.
func (r *Repository) SetRobloxAccount(ctx context.Context, q store.DBTX, id uuid.UUID, robloxUserID, robloxUsername string) error {
	tag, err := r.q(q).Exec(ctx, `
		UPDATE players
		SET roblox_user_id = $1, roblox_username = $2, verified = false, updated_at = now()
		WHERE id = $3
	`, robloxUserID, robloxUsername, id)
	if err != nil {
		return fmt.Errorf("failed to set roblox account: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (r *Repository) ClearRobloxAccount(ctx context.Context, q store.DBTX, id uuid.UUID) error {
	tag, err := r.q(q).Exec(ctx, `
		UPDATE players
		SET roblox_user_id = NULL, roblox_username = NULL, verified = false, updated_at = now()
		WHERE id = $1
	`, id)
	if err != nil {
		return fmt.Errorf("failed to clear roblox account: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (r *Repository) SetVerified(ctx context.Context, q store.DBTX, id uuid.UUID, verified bool) error {
	tag, err := r.q(q).Exec(ctx, `
		UPDATE players SET verified = $1, updated_at = now() WHERE id = $2
	`, verified, id)
	if err != nil {
		return fmt.Errorf("failed to set verified: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return store.ErrNotFound
	}
	return nil
}
