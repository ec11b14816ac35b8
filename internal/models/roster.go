package models

import (
	"time"

	"github.com/google/uuid"
)

// RosterEntry is point-in-time roster membership. A cut deactivates the row
// and stamps ReleasedAt rather than deleting; history is append-only. For a
// given (player, season) at most one entry is active.
type RosterEntry struct {
	ID           uuid.UUID  `json:"id"`
	PlayerID     uuid.UUID  `json:"player_id"`
	TeamID       uuid.UUID  `json:"team_id"`
	SeasonID     uuid.UUID  `json:"season_id"`
	Position     *string    `json:"position,omitempty"`
	JerseyNumber *int       `json:"jersey_number,omitempty"`
	SignedAt     time.Time  `json:"signed_at"`
	ReleasedAt   *time.Time `json:"released_at,omitempty"`
	IsActive     bool       `json:"is_active"`
}
