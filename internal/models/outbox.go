package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Event types written to the transactional outbox. The worker publishes
// each under the subject "league.<event_type>".
const (
	EventRoleGrant      = "roster.role_grant"
	EventRoleRevoke     = "roster.role_revoke"
	EventTradeCompleted = "trade.completed"
	EventDraftStatus    = "draft.status"
	EventDraftPick      = "draft.pick"
	EventGameCompleted  = "game.completed"
)

// OutboxEvent is a domain event staged in the same transaction as the state
// change it describes, delivered asynchronously by the outbox worker.
type OutboxEvent struct {
	ID          uuid.UUID       `json:"id"`
	EventType   string          `json:"event_type"`
	AggregateID uuid.UUID       `json:"aggregate_id"`
	Payload     json.RawMessage `json:"payload"`
	CreatedAt   time.Time       `json:"created_at"`
	SentAt      *time.Time      `json:"sent_at,omitempty"`
}
