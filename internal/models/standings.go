package models

import (
	"time"

	"github.com/google/uuid"
)

// StandingsRow is the aggregated record for one team in one season. It is
// strictly derived: only the standings aggregator writes it, in reaction to
// a game becoming completed.
type StandingsRow struct {
	ID               uuid.UUID `json:"id"`
	SeasonID         uuid.UUID `json:"season_id"`
	TeamID           uuid.UUID `json:"team_id"`
	GamesPlayed      int       `json:"games_played"`
	Wins             int       `json:"wins"`
	Losses           int       `json:"losses"`
	OvertimeLosses   int       `json:"overtime_losses"`
	Points           int       `json:"points"`
	GoalsFor         int       `json:"goals_for"`
	GoalsAgainst     int       `json:"goals_against"`
	GoalDifferential int       `json:"goal_differential"`
	LastUpdated      time.Time `json:"last_updated"`
}
