package models

import (
	"time"

	"github.com/google/uuid"
)

// TransactionType classifies a roster-affecting event.
type TransactionType string

const (
	TransactionSigning TransactionType = "signing"
	TransactionCut     TransactionType = "cut"
	TransactionTrade   TransactionType = "trade"
	TransactionDraft   TransactionType = "draft"
	TransactionWaiver  TransactionType = "waiver"
)

// TransactionLogEntry is the append-only record of a roster move. Never
// mutated or deleted.
type TransactionLogEntry struct {
	ID         uuid.UUID       `json:"id"`
	SeasonID   uuid.UUID       `json:"season_id"`
	Type       TransactionType `json:"transaction_type"`
	PlayerID   uuid.UUID       `json:"player_id"`
	FromTeamID *uuid.UUID      `json:"from_team_id,omitempty"`
	ToTeamID   *uuid.UUID      `json:"to_team_id,omitempty"`
	ExecutedBy string          `json:"executed_by"`
	Notes      *string         `json:"notes,omitempty"`
	CreatedAt  time.Time       `json:"created_at"`
}
