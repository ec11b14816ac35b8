package teams

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/breakawayhl/breakaway/internal/models"
	"github.com/breakawayhl/breakaway/internal/store"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"
)

var (
	ErrInvalidAbbreviation = errors.New("abbreviation must be 2-4 letters")
	ErrInvalidField        = errors.New("unknown team field")
)

// Mutable fields accepted by Update.
var updatableFields = map[string]bool{
	"name":            true,
	"abbreviation":    true,
	"chat_role_id":    true,
	"logo_url":        true,
	"primary_color":   true,
	"secondary_color": true,
	"conference":      true,
	"division":        true,
}

type TeamRepository interface {
	Create(ctx context.Context, q store.DBTX, p CreateTeamParams) (*models.Team, error)
	GetByID(ctx context.Context, q store.DBTX, id uuid.UUID) (*models.Team, error)
	GetByAbbreviation(ctx context.Context, abbr string) (*models.Team, error)
	GetByChatRole(ctx context.Context, roleID string) (*models.Team, error)
	List(ctx context.Context) ([]models.Team, error)
	UpdateField(ctx context.Context, q store.DBTX, id uuid.UUID, field string, value any) error
	Delete(ctx context.Context, q store.DBTX, id uuid.UUID) error
	AddStaff(ctx context.Context, q store.DBTX, teamID uuid.UUID, chatUserID string, role models.StaffRole) error
	RemoveStaff(ctx context.Context, q store.DBTX, teamID uuid.UUID, chatUserID string, role models.StaffRole) error
	ListStaff(ctx context.Context, teamID uuid.UUID) ([]models.TeamStaff, error)
}

type AuditRepository interface {
	Append(ctx context.Context, q store.DBTX, entityType, action string, entityID *string, actor string, oldValues, newValues any) error
}

type App struct {
	txr   store.TxRunner
	repo  TeamRepository
	audit AuditRepository
	log   zerolog.Logger
}

func NewApp(txr store.TxRunner, repo TeamRepository, audit AuditRepository, log zerolog.Logger) *App {
	return &App{
		txr:   txr,
		repo:  repo,
		audit: audit,
		log:   log.With().Str("component", "teams").Logger(),
	}
}

func (a *App) Create(ctx context.Context, p CreateTeamParams, actor string) (*models.Team, error) {
	p.Abbreviation = strings.ToUpper(strings.TrimSpace(p.Abbreviation))
	if n := len(p.Abbreviation); n < 2 || n > 4 {
		return nil, ErrInvalidAbbreviation
	}

	var team *models.Team
	err := a.txr.WithTx(ctx, func(tx pgx.Tx) error {
		var err error
		team, err = a.repo.Create(ctx, tx, p)
		if err != nil {
			return err
		}
		id := team.ID.String()
		return a.audit.Append(ctx, tx, "team", "create", &id, actor, nil, team)
	})
	if err != nil {
		return nil, err
	}

	a.log.Info().Str("team", team.Abbreviation).Str("actor", actor).Msg("team created")
	return team, nil
}

func (a *App) Get(ctx context.Context, id uuid.UUID) (*models.Team, error) {
	return a.repo.GetByID(ctx, nil, id)
}

func (a *App) GetByAbbreviation(ctx context.Context, abbr string) (*models.Team, error) {
	return a.repo.GetByAbbreviation(ctx, strings.ToUpper(strings.TrimSpace(abbr)))
}

func (a *App) GetByChatRole(ctx context.Context, roleID string) (*models.Team, error) {
	return a.repo.GetByChatRole(ctx, roleID)
}

func (a *App) List(ctx context.Context) ([]models.Team, error) {
	return a.repo.List(ctx)
}

func (a *App) Update(ctx context.Context, id uuid.UUID, field string, value any, actor string) error {
	if !updatableFields[field] {
		return fmt.Errorf("%w: %s", ErrInvalidField, field)
	}

	before, err := a.repo.GetByID(ctx, nil, id)
	if err != nil {
		return err
	}

	err = a.txr.WithTx(ctx, func(tx pgx.Tx) error {
		if err := a.repo.UpdateField(ctx, tx, id, field, value); err != nil {
			return err
		}
		eid := id.String()
		return a.audit.Append(ctx, tx, "team", "update", &eid, actor,
			map[string]any{field: fieldValue(before, field)},
			map[string]any{field: value})
	})
	if err != nil {
		return err
	}

	a.log.Info().Str("team", before.Abbreviation).Str("field", field).Msg("team updated")
	return nil
}

func (a *App) Delete(ctx context.Context, id uuid.UUID, actor string) error {
	team, err := a.repo.GetByID(ctx, nil, id)
	if err != nil {
		return err
	}

	err = a.txr.WithTx(ctx, func(tx pgx.Tx) error {
		if err := a.repo.Delete(ctx, tx, id); err != nil {
			return err
		}
		eid := id.String()
		return a.audit.Append(ctx, tx, "team", "delete", &eid, actor, team, nil)
	})
	if err != nil {
		return err
	}

	a.log.Info().Str("team", team.Abbreviation).Str("actor", actor).Msg("team deleted")
	return nil
}

func (a *App) AddStaff(ctx context.Context, teamID uuid.UUID, chatUserID string, role models.StaffRole, actor string) error {
	if _, err := a.repo.GetByID(ctx, nil, teamID); err != nil {
		return err
	}
	return a.txr.WithTx(ctx, func(tx pgx.Tx) error {
		if err := a.repo.AddStaff(ctx, tx, teamID, chatUserID, role); err != nil {
			return err
		}
		eid := teamID.String()
		return a.audit.Append(ctx, tx, "team_staff", "add", &eid, actor, nil,
			map[string]any{"chat_user_id": chatUserID, "role": role})
	})
}

func (a *App) RemoveStaff(ctx context.Context, teamID uuid.UUID, chatUserID string, role models.StaffRole, actor string) error {
	return a.txr.WithTx(ctx, func(tx pgx.Tx) error {
		if err := a.repo.RemoveStaff(ctx, tx, teamID, chatUserID, role); err != nil {
			return err
		}
		eid := teamID.String()
		return a.audit.Append(ctx, tx, "team_staff", "remove", &eid, actor,
			map[string]any{"chat_user_id": chatUserID, "role": role}, nil)
	})
}

func (a *App) ListStaff(ctx context.Context, teamID uuid.UUID) ([]models.TeamStaff, error) {
	return a.repo.ListStaff(ctx, teamID)
}

func fieldValue(t *models.Team, field string) any {
	switch field {
	case "name":
		return t.Name
	case "abbreviation":
		return t.Abbreviation
	case "chat_role_id":
		return t.ChatRoleID
	case "logo_url":
		return t.LogoURL
	case "primary_color":
		return t.PrimaryColor
	case "secondary_color":
		return t.SecondaryColor
	case "conference":
		return t.Conference
	case "division":
		return t.Division
	default:
		return nil
	}
}
