package seasons

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/breakawayhl/breakaway/internal/models"
	"github.com/breakawayhl/breakaway/internal/store"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"
)

// ErrActiveSeasonExists is returned when creating a season while another is
// still active.
var ErrActiveSeasonExists = errors.New("an active season already exists")

// SeasonRepository defines what the app layer needs from the repository.
type SeasonRepository interface {
	Create(ctx context.Context, q store.DBTX, name string, startDate time.Time) (*models.Season, error)
	GetByID(ctx context.Context, id uuid.UUID) (*models.Season, error)
	GetActive(ctx context.Context) (*models.Season, error)
	End(ctx context.Context, q store.DBTX, id uuid.UUID) error
}

// AuditRepository appends season audit records.
type AuditRepository interface {
	Append(ctx context.Context, q store.DBTX, entityType, action string, entityID *string, actor string, oldValues, newValues any) error
}

// App handles season lifecycle. Seasons scope everything else; exactly one
// may be active.
type App struct {
	txr   store.TxRunner
	repo  SeasonRepository
	audit AuditRepository
	log   zerolog.Logger
}

func NewApp(txr store.TxRunner, repo SeasonRepository, audit AuditRepository, log zerolog.Logger) *App {
	return &App{txr: txr, repo: repo, audit: audit, log: log.With().Str("component", "seasons").Logger()}
}

// Create starts a new season. Fails with ErrActiveSeasonExists while a
// season is active; end it first.
func (a *App) Create(ctx context.Context, name string, startDate time.Time, actor string) (*models.Season, error) {
	if _, err := a.repo.GetActive(ctx); err == nil {
		return nil, ErrActiveSeasonExists
	} else if !errors.Is(err, store.ErrNotFound) {
		return nil, err
	}

	var season *models.Season
	err := a.txr.WithTx(ctx, func(tx pgx.Tx) error {
		var err error
		season, err = a.repo.Create(ctx, tx, name, startDate)
		if err != nil {
			return err
		}
		id := season.ID.String()
		return a.audit.Append(ctx, tx, "season", "create", &id, actor, nil, season)
	})
	if err != nil {
		return nil, err
	}

	a.log.Info().Str("season", season.Name).Str("actor", actor).Msg("season created")
	return season, nil
}

// End deactivates a season and stamps its end date.
func (a *App) End(ctx context.Context, seasonID uuid.UUID, actor string) error {
	err := a.txr.WithTx(ctx, func(tx pgx.Tx) error {
		if err := a.repo.End(ctx, tx, seasonID); err != nil {
			return err
		}
		id := seasonID.String()
		return a.audit.Append(ctx, tx, "season", "end", &id, actor, nil, nil)
	})
	if err != nil {
		return fmt.Errorf("failed to end season: %w", err)
	}
	a.log.Info().Str("season_id", seasonID.String()).Str("actor", actor).Msg("season ended")
	return nil
}

// GetActive returns the single active season.
func (a *App) GetActive(ctx context.Context) (*models.Season, error) {
	return a.repo.GetActive(ctx)
}

// Get returns a season by id.
func (a *App) Get(ctx context.Context, id uuid.UUID) (*models.Season, error) {
	return a.repo.GetByID(ctx, id)
}
