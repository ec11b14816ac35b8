package models

import (
	"time"

	"github.com/google/uuid"
)

// TradeStatus is the lifecycle state of a trade. Transitions are monotone:
// pending is the only non-terminal status.
type TradeStatus string

const (
	TradeStatusPending   TradeStatus = "pending"
	TradeStatusDeclined  TradeStatus = "declined"
	TradeStatusCancelled TradeStatus = "cancelled"
	TradeStatusCompleted TradeStatus = "completed"
)

// Trade is a two-party player swap. Completion requires both acceptance
// flags and atomically moves every leg between the rosters.
type Trade struct {
	ID             uuid.UUID   `json:"id"`
	SeasonID       uuid.UUID   `json:"season_id"`
	TeamAID        uuid.UUID   `json:"team_a_id"`
	TeamBID        uuid.UUID   `json:"team_b_id"`
	ProposedByTeam uuid.UUID   `json:"proposed_by_team"`
	ProposedByUser string      `json:"proposed_by_user"`
	Status         TradeStatus `json:"status"`
	TeamAAccepted  bool        `json:"team_a_accepted"`
	TeamBAccepted  bool        `json:"team_b_accepted"`
	ProposedAt     time.Time   `json:"proposed_at"`
	CompletedAt    *time.Time  `json:"completed_at,omitempty"`
	Notes          *string     `json:"notes,omitempty"`
}

// TradeLeg is one player's movement within a trade. Legs are immutable once
// the parent trade is created and execute in insertion order.
type TradeLeg struct {
	ID         uuid.UUID `json:"id"`
	TradeID    uuid.UUID `json:"trade_id"`
	PlayerID   uuid.UUID `json:"player_id"`
	FromTeamID uuid.UUID `json:"from_team_id"`
	ToTeamID   uuid.UUID `json:"to_team_id"`
}
