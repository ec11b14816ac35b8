package models

import (
	"time"

	"github.com/google/uuid"
)

// DraftStatus defines the status of a draft.
type DraftStatus string

const (
	DraftStatusScheduled  DraftStatus = "scheduled"
	DraftStatusInProgress DraftStatus = "in_progress"
	DraftStatusPaused     DraftStatus = "paused"
	DraftStatusCompleted  DraftStatus = "completed"
)

// Draft represents a draft instance. CurrentPick is 1-based into the draft
// order and only moves forward.
type Draft struct {
	ID               uuid.UUID   `json:"id"`
	SeasonID         uuid.UUID   `json:"season_id"`
	ScheduledAt      time.Time   `json:"scheduled_at"`
	TotalRounds      int         `json:"total_rounds"`
	Status           DraftStatus `json:"status"`
	CurrentPick      int         `json:"current_pick"`
	PickTimeLimitSec int         `json:"pick_time_limit_sec"`
	CreatedAt        time.Time   `json:"created_at"`
}

// DraftOrderSlot is one slot of the fixed pick sequence. PickNumber is
// unique per draft and strictly increasing across rounds.
type DraftOrderSlot struct {
	ID         uuid.UUID `json:"id"`
	DraftID    uuid.UUID `json:"draft_id"`
	PickNumber int       `json:"pick_number"`
	Round      int       `json:"round"`
	TeamID     uuid.UUID `json:"team_id"`
}

// DraftPick is the immutable record of a slot being used. One row per order
// slot, created in pick-number order only.
type DraftPick struct {
	ID         uuid.UUID `json:"id"`
	DraftID    uuid.UUID `json:"draft_id"`
	PickNumber int       `json:"pick_number"`
	Round      int       `json:"round"`
	TeamID     uuid.UUID `json:"team_id"`
	PlayerID   uuid.UUID `json:"player_id"`
	PickedAt   time.Time `json:"picked_at"`
	PickedBy   string    `json:"picked_by"`
}
