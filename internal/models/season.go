package models

import (
	"time"

	"github.com/google/uuid"
)

// Season is the bounded period that scopes rosters, games, and standings.
// At most one season is active at a time.
type Season struct {
	ID               uuid.UUID  `json:"id"`
	Name             string     `json:"name"`
	StartDate        time.Time  `json:"start_date"`
	EndDate          *time.Time `json:"end_date,omitempty"`
	IsActive         bool       `json:"is_active"`
	PlayoffStartDate *time.Time `json:"playoff_start_date,omitempty"`
	CreatedAt        time.Time  `json:"created_at"`
}
