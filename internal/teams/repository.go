package teams

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

const teamColumns = `id, name, abbreviation, chat_role_id, logo_url, primary_color, secondary_color, conference, division, created_at`

func scanTeam(row interface{ Scan(...any) error }) (*models.Team, error) {
	var t models.Team
	err := row.Scan(&t.ID, &t.Name, &t.Abbreviation, &t.ChatRoleID, &t.LogoURL,
		&t.PrimaryColor, &t.SecondaryColor, &t.Conference, &t.Division, &t.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// CreateTeamParams are the commissioner-supplied team attributes.
type CreateTeamParams struct {
	Name         string
	Abbreviation string
	ChatRoleID   string
}

func (r *Repository) Create(ctx context.Context, q store.DBTX, p CreateTeamParams) (*models.Team, error) {
	row := r.q(q).QueryRow(ctx, `
		INSERT INTO teams (id, name, abbreviation, chat_role_id)
		VALUES ($1, $2, $3, $4)
		RETURNING `+teamColumns,
		uuid.New(), p.Name, p.Abbreviation, p.ChatRoleID)
	team, err := scanTeam(row)
	if err != nil {
		return nil, fmt.Errorf("failed to create team: %w", err)
	}
	return team, nil
}

func (r *Repository) GetByID(ctx context.Context, q store.DBTX, id uuid.UUID) (*models.Team, error) {
	row := r.q(q).QueryRow(ctx, `SELECT `+teamColumns+` FROM teams WHERE id = $1`, id)
	team, err := scanTeam(row)
	if err != nil {
		return nil, store.MapNotFound(err)
	}
	return team, nil
}

func (r *Repository) GetByAbbreviation(ctx context.Context, abbr string) (*models.Team, error) {
	row := r.db.QueryRow(ctx, `SELECT `+teamColumns+` FROM teams WHERE abbreviation = $1`, abbr)
	team, err := scanTeam(row)
	if err != nil {
		return nil, store.MapNotFound(err)
	}
	return team, nil
}

func (r *Repository) GetByChatRole(ctx context.Context, roleID string) (*models.Team, error) {
	row := r.db.QueryRow(ctx, `SELECT `+teamColumns+` FROM teams WHERE chat_role_id = $1`, roleID)
	team, err := scanTeam(row)
	if err != nil {
		return nil, store.MapNotFound(err)
	}
	return team, nil
}

func (r *Repository) List(ctx context.Context) ([]models.Team, error) {
	rows, err := r.db.Query(ctx, `SELECT `+teamColumns+` FROM teams ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("failed to list teams: %w", err)
	}
	defer rows.Close()

	var teams []models.Team
	for rows.Next() {
		t, err := scanTeam(rows)
		if err != nil {
			return nil, err
		}
		teams = append(teams, *t)
	}
	return teams, rows.Err()
}

// UpdateField sets one mutable column. The app layer restricts field to a
// known set before calling.
func (r *Repository) UpdateField(ctx context.Context, q store.DBTX, id uuid.UUID, field string, value any) error {
	tag, err := r.q(q).Exec(ctx, fmt.Sprintf(`UPDATE teams SET %s = $1 WHERE id = $2`, field), value, id)
	if err != nil {
		return fmt.Errorf("failed to update team %s: %w", field, err)
	}
	if tag.RowsAffected() == 0 {
		return store.ErrNotFound
	}
	return nil
}

// Delete removes a team. Roster rows cascade away with it.
func (r *Repository) Delete(ctx context.Context, q store.DBTX, id uuid.UUID) error {
	tag, err := r.q(q).Exec(ctx, `DELETE FROM teams WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete team: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return store.ErrNotFound
	}
	return nil
}

// AddStaff appoints a chat user to a team staff role.
func (r *Repository) AddStaff(ctx context.Context, q store.DBTX, teamID uuid.UUID, chatUserID string, role models.StaffRole) error {
	_, err := r.q(q).Exec(ctx, `
		INSERT INTO team_staff (id, team_id, chat_user_id, role)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (team_id, chat_user_id, role) DO NOTHING
	`, uuid.New(), teamID, chatUserID, role)
	if err != nil {
		return fmt.Errorf("failed to add team staff: %w", err)
	}
	return nil
}

// RemoveStaff removes a staff appointment.
func (r *Repository) RemoveStaff(ctx context.Context, q store.DBTX, teamID uuid.UUID, chatUserID string, role models.StaffRole) error {
	_, err := r.q(q).Exec(ctx, `
		DELETE FROM team_staff WHERE team_id = $1 AND chat_user_id = $2 AND role = $3
	`, teamID, chatUserID, role)
	if err != nil {
		return fmt.Errorf("failed to remove team staff: %w", err)
	}
	return nil
}

// ListStaff returns a team's staff appointments.
func (r *Repository) ListStaff(ctx context.Context, teamID uuid.UUID) ([]models.TeamStaff, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, team_id, chat_user_id, role, appointed_at
		FROM team_staff WHERE team_id = $1 ORDER BY role, appointed_at
	`, teamID)
	if err != nil {
		return nil, fmt.Errorf("failed to list team staff: %w", err)
	}
	defer rows.Close()

	var staff []models.TeamStaff
	for rows.Next() {
		var s models.TeamStaff
		if err := rows.Scan(&s.ID, &s.TeamID, &s.ChatUserID, &s.Role, &s.AppointedAt); err != nil {
			return nil, err
		}
		staff = append(staff, s)
	}
	return staff, rows.Err()
}
