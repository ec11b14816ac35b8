package identity

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/breakawayhl/breakaway/clients"
	"github.com/breakawayhl/breakaway/internal/models"
	"github.com/breakawayhl/breakaway/internal/store"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"
)

var (
	// ErrAccountTaken means the Roblox account is already bound to a
	// different chat user.
	ErrAccountTaken = errors.New("roblox account already linked to another user")

	// ErrNotLinked means the player has no Roblox account bound yet.
	ErrNotLinked = errors.New("no roblox account linked")

	// ErrPhraseNotFound means the verification phrase is absent from the
	// Roblox profile description.
	ErrPhraseNotFound = errors.New("verification phrase not found in profile")
)

type PlayerRepository interface {
	Create(ctx context.Context, q store.DBTX, chatUserID string) (*models.Player, error)
	GetByID(ctx context.Context, q store.DBTX, id uuid.UUID) (*models.Player, error)
	GetByChatUser(ctx context.Context, chatUserID string) (*models.Player, error)
	GetByRobloxUser(ctx context.Context, robloxUserID string) (*models.Player, error)
	SetRobloxAccount(ctx context.Context, q store.DBTX, id uuid.UUID, robloxUserID, robloxUsername string) error
	ClearRobloxAccount(ctx context.Context, q store.DBTX, id uuid.UUID) error
	SetVerified(ctx context.Context, q store.DBTX, id uuid.UUID, verified bool) error
}

// RobloxLookup is the slice of the Roblox users API the verification flow
// needs.
type RobloxLookup interface {
	LookupUsername(ctx context.Context, username string) (*clients.RobloxAccount, error)
	GetUser(ctx context.Context, userID string) (*clients.RobloxAccount, error)
}

type AuditRepository interface {
	Append(ctx context.Context, q store.DBTX, entityType, action string, entityID *string, actor string, oldValues, newValues any) error
}

// App manages the chat-user to Roblox-account identity binding. A player
// must complete verification before any roster operation will accept them.
type App struct {
	txr    store.TxRunner
	repo   PlayerRepository
	roblox RobloxLookup
	audit  AuditRepository
	log    zerolog.Logger
}

func NewApp(txr store.TxRunner, repo PlayerRepository, roblox RobloxLookup, audit AuditRepository, log zerolog.Logger) *App {
	return &App{
		txr:    txr,
		repo:   repo,
		roblox: roblox,
		audit:  audit,
		log:    log.With().Str("component", "identity").Logger(),
	}
}

// GetOrCreate returns the player record for a chat user, creating one on
// first contact.
func (a *App) GetOrCreate(ctx context.Context, chatUserID string) (*models.Player, error) {
	player, err := a.repo.GetByChatUser(ctx, chatUserID)
	if err == nil {
		return player, nil
	}
	if !errors.Is(err, store.ErrNotFound) {
		return nil, err
	}

	err = a.txr.WithTx(ctx, func(tx pgx.Tx) error {
		var txErr error
		player, txErr = a.repo.Create(ctx, tx, chatUserID)
		return txErr
	})
	if err != nil {
		return nil, err
	}
	return player, nil
}

func (a *App) GetByChatUser(ctx context.Context, chatUserID string) (*models.Player, error) {
	return a.repo.GetByChatUser(ctx, chatUserID)
}

func (a *App) Get(ctx context.Context, id uuid.UUID) (*models.Player, error) {
	return a.repo.GetByID(ctx, nil, id)
}

// Link resolves a Roblox username and binds the account to the chat user,
// returning the player and the phrase they must place in their Roblox
// profile description before calling Verify.
func (a *App) Link(ctx context.Context, chatUserID, robloxUsername string) (*models.Player, string, error) {
	account, err := a.roblox.LookupUsername(ctx, robloxUsername)
	if err != nil {
		return nil, "", fmt.Errorf("roblox lookup: %w", err)
	}

	if existing, err := a.repo.GetByRobloxUser(ctx, account.UserID); err == nil {
		if existing.ChatUserID != chatUserID {
			return nil, "", ErrAccountTaken
		}
	} else if !errors.Is(err, store.ErrNotFound) {
		return nil, "", err
	}

	player, err := a.GetOrCreate(ctx, chatUserID)
	if err != nil {
		return nil, "", err
	}

	err = a.txr.WithTx(ctx, func(tx pgx.Tx) error {
		if err := a.repo.SetRobloxAccount(ctx, tx, player.ID, account.UserID, account.Username); err != nil {
			return err
		}
		eid := player.ID.String()
		return a.audit.Append(ctx, tx, "player", "link", &eid, chatUserID, nil,
			map[string]any{"roblox_user_id": account.UserID, "roblox_username": account.Username})
	})
	if err != nil {
		return nil, "", err
	}

	player.RobloxUserID = &account.UserID
	player.RobloxUsername = &account.Username
	player.Verified = false

	a.log.Info().Str("chat_user", chatUserID).Str("roblox_user", account.Username).Msg("roblox account linked")
	return player, VerificationPhrase(player.ID), nil
}

// Verify checks the player's Roblox profile description for their
// verification phrase and marks them verified when present.
func (a *App) Verify(ctx context.Context, chatUserID string) (*models.Player, error) {
	player, err := a.repo.GetByChatUser(ctx, chatUserID)
	if err != nil {
		return nil, err
	}
	if player.RobloxUserID == nil {
		return nil, ErrNotLinked
	}

	account, err := a.roblox.GetUser(ctx, *player.RobloxUserID)
	if err != nil {
		return nil, fmt.Errorf("roblox profile fetch: %w", err)
	}

	phrase := VerificationPhrase(player.ID)
	if !strings.Contains(account.Description, phrase) {
		return nil, ErrPhraseNotFound
	}

	err = a.txr.WithTx(ctx, func(tx pgx.Tx) error {
		if err := a.repo.SetVerified(ctx, tx, player.ID, true); err != nil {
			return err
		}
		eid := player.ID.String()
		return a.audit.Append(ctx, tx, "player", "verify", &eid, chatUserID,
			map[string]any{"verified": false}, map[string]any{"verified": true})
	})
	if err != nil {
		return nil, err
	}

	player.Verified = true
	a.log.Info().Str("chat_user", chatUserID).Msg("player verified")
	return player, nil
}

// Unlink removes the Roblox binding and verified status.
func (a *App) Unlink(ctx context.Context, chatUserID, actor string) error {
	player, err := a.repo.GetByChatUser(ctx, chatUserID)
	if err != nil {
		return err
	}

	return a.txr.WithTx(ctx, func(tx pgx.Tx) error {
		if err := a.repo.ClearRobloxAccount(ctx, tx, player.ID); err != nil {
			return err
		}
		eid := player.ID.String()
		return a.audit.Append(ctx, tx, "player", "unlink", &eid, actor,
			map[string]any{"roblox_user_id": player.RobloxUserID, "roblox_username": player.RobloxUsername}, nil)
	})
}

// VerificationPhrase derives the profile phrase for a player. Deterministic
// so the phrase survives restarts without extra state.
func VerificationPhrase(playerID uuid.UUID) string {
	return "BHL-VERIFY-" + strings.ToUpper(playerID.String()[:8])
}
