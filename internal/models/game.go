package models

import (
	"time"

	"github.com/google/uuid"
)

// GameStatus defines the status of a scheduled game.
type GameStatus string

const (
	GameStatusScheduled  GameStatus = "scheduled"
	GameStatusInProgress GameStatus = "in_progress"
	GameStatusCompleted  GameStatus = "completed"
	GameStatusCancelled  GameStatus = "cancelled"
	GameStatusPostponed  GameStatus = "postponed"
)

// GameType distinguishes regular-season from playoff games.
type GameType string

const (
	GameTypeRegular GameType = "regular"
	GameTypePlayoff GameType = "playoff"
)

// Game is a scheduled matchup. Score fields are nil until the game is
// completed; once completed they are immutable.
type Game struct {
	ID             uuid.UUID  `json:"id"`
	SeasonID       uuid.UUID  `json:"season_id"`
	GameNumber     *int       `json:"game_number,omitempty"`
	HomeTeamID     uuid.UUID  `json:"home_team_id"`
	AwayTeamID     uuid.UUID  `json:"away_team_id"`
	ScheduledTime  time.Time  `json:"scheduled_time"`
	GameType       GameType   `json:"game_type"`
	PlayoffRound   *int       `json:"playoff_round,omitempty"`
	PlayoffSeries  *int       `json:"playoff_series,omitempty"`
	PlayoffGame    *int       `json:"playoff_game,omitempty"`
	Status         GameStatus `json:"status"`
	HomeScore      *int       `json:"home_score,omitempty"`
	AwayScore      *int       `json:"away_score,omitempty"`
	Overtime       bool       `json:"overtime"`
	Shootout       bool       `json:"shootout"`
	CompletedAt    *time.Time `json:"completed_at,omitempty"`
	ExternalGameID *string    `json:"external_game_id,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
}

// PlayerGameStats holds per-player box-score numbers for one game.
type PlayerGameStats struct {
	ID           uuid.UUID `json:"id"`
	GameID       uuid.UUID `json:"game_id"`
	PlayerID     uuid.UUID `json:"player_id"`
	TeamID       uuid.UUID `json:"team_id"`
	Goals        int       `json:"goals"`
	Assists      int       `json:"assists"`
	PlusMinus    int       `json:"plus_minus"`
	Shots        int       `json:"shots"`
	Saves        int       `json:"saves"`
	GoalsAgainst int       `json:"goals_against"`
}
