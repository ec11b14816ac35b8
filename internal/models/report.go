package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// ReportStatus is the moderation state of a pending game report. A report
// transitions out of pending exactly once.
type ReportStatus string

const (
	ReportStatusPending  ReportStatus = "pending"
	ReportStatusApproved ReportStatus = "approved"
	ReportStatusRejected ReportStatus = "rejected"
)

// PendingReport is an externally-submitted game result staged for
// moderation. Only the untrusted submission path creates these; approval is
// the sole route from a report to authoritative game and standings state.
type PendingReport struct {
	ID             uuid.UUID       `json:"id"`
	GameID         *uuid.UUID      `json:"game_id,omitempty"`
	ExternalGameID string          `json:"external_game_id"`
	HomeTeamID     uuid.UUID       `json:"home_team_id"`
	AwayTeamID     uuid.UUID       `json:"away_team_id"`
	HomeScore      int             `json:"home_score"`
	AwayScore      int             `json:"away_score"`
	Overtime       bool            `json:"overtime"`
	Shootout       bool            `json:"shootout"`
	PlayerStats    json.RawMessage `json:"player_stats,omitempty"`
	ReportedAt     time.Time       `json:"reported_at"`
	Status         ReportStatus    `json:"status"`
	ReviewedBy     *string         `json:"reviewed_by,omitempty"`
	ReviewedAt     *time.Time      `json:"reviewed_at,omitempty"`
}
