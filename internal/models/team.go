package models

import (
	"time"

	"github.com/google/uuid"
)

// Team is a franchise in the league. ChatRoleID binds the team to its
// chat-platform role, which is how members are granted team access.
type Team struct {
	ID             uuid.UUID `json:"id"`
	Name           string    `json:"name"`
	Abbreviation   string    `json:"abbreviation"`
	ChatRoleID     string    `json:"chat_role_id"`
	LogoURL        *string   `json:"logo_url,omitempty"`
	PrimaryColor   string    `json:"primary_color"`
	SecondaryColor string    `json:"secondary_color"`
	Conference     *string   `json:"conference,omitempty"`
	Division       *string   `json:"division,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
}

// StaffRole is a front-office or leadership role on a team.
type StaffRole string

const (
	StaffRoleGM        StaffRole = "gm"
	StaffRoleAGM       StaffRole = "agm"
	StaffRoleCaptain   StaffRole = "captain"
	StaffRoleAlternate StaffRole = "alternate"
)

// TeamStaff records a chat user holding a staff role on a team.
type TeamStaff struct {
	ID          uuid.UUID `json:"id"`
	TeamID      uuid.UUID `json:"team_id"`
	ChatUserID  string    `json:"chat_user_id"`
	Role        StaffRole `json:"role"`
	AppointedAt time.Time `json:"appointed_at"`
}
