package leagueconfig

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"

	"github.com/breakawayhl/breakaway/internal/store"
	"github.com/rs/zerolog"
)

// Config keys read by the engines. Values are read fresh at call time, so a
// change takes effect for operations after the write, never retroactively.
const (
	KeyRosterSizeMax    = "roster_size_max"
	KeyRosterSizeMin    = "roster_size_min"
	KeyTradesEnabled    = "trades_enabled"
	KeySigningsEnabled  = "signings_enabled"
	KeyDraftPickTime    = "draft_pick_time"
	KeyPointsWin        = "points_win"
	KeyPointsOTL        = "points_otl"
	KeyPointsLoss       = "points_loss"
	KeyAutoAssignRoles  = "auto_assign_roles"
	KeyRequireApproval  = "require_staff_approval"
	KeyIngameReporting  = "ingame_reporting_enabled"
)

// ConfigRepository defines what the app layer needs from the repository.
type ConfigRepository interface {
	Get(ctx context.Context, q store.DBTX, key string) (string, error)
	Set(ctx context.Context, q store.DBTX, key, value string) error
	All(ctx context.Context) ([]Entry, error)
}

// AuditRepository appends a config-change audit record.
type AuditRepository interface {
	Append(ctx context.Context, q store.DBTX, entityType, action string, entityID *string, actor string, oldValues, newValues any) error
}

// App is the league configuration surface: a flat key -> string mapping with
// typed accessors and audited, commissioner-gated writes.
type App struct {
	repo  ConfigRepository
	audit AuditRepository
	log   zerolog.Logger
}

func NewApp(repo ConfigRepository, audit AuditRepository, log zerolog.Logger) *App {
	return &App{repo: repo, audit: audit, log: log.With().Str("component", "leagueconfig").Logger()}
}

// Int reads key as an integer, falling back to def when the key is absent
// or malformed.
func (a *App) Int(ctx context.Context, q store.DBTX, key string, def int) int {
	raw, err := a.repo.Get(ctx, q, key)
	if err != nil {
		if !errors.Is(err, store.ErrNotFound) {
			a.log.Warn().Err(err).Str("key", key).Msg("config read failed, using default")
		}
		return def
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return def
	}
	return n
}

// Bool reads key as a boolean ("true"/"false"), falling back to def.
func (a *App) Bool(ctx context.Context, q store.DBTX, key string, def bool) bool {
	raw, err := a.repo.Get(ctx, q, key)
	if err != nil {
		if !errors.Is(err, store.ErrNotFound) {
			a.log.Warn().Err(err).Str("key", key).Msg("config read failed, using default")
		}
		return def
	}
	return raw == "true"
}

// Get returns the raw string value for key.
func (a *App) Get(ctx context.Context, key string) (string, error) {
	return a.repo.Get(ctx, nil, key)
}

// Set writes a config key and audits the change. The caller is responsible
// for commissioner gating.
func (a *App) Set(ctx context.Context, key, value, actor string) error {
	old, err := a.repo.Get(ctx, nil, key)
	if err != nil && !errors.Is(err, store.ErrNotFound) {
		return fmt.Errorf("failed to read config %s: %w", key, err)
	}
	if err := a.repo.Set(ctx, nil, key, value); err != nil {
		return err
	}
	oldJSON, _ := json.Marshal(map[string]string{"key": key, "value": old})
	newJSON, _ := json.Marshal(map[string]string{"key": key, "value": value})
	if err := a.audit.Append(ctx, nil, "config", "update", &key, actor, json.RawMessage(oldJSON), json.RawMessage(newJSON)); err != nil {
		return err
	}
	a.log.Info().Str("key", key).Str("actor", actor).Msg("config updated")
	return nil
}

// All lists every config entry.
func (a *App) All(ctx context.Context) ([]Entry, error) {
	return a.repo.All(ctx)
}
