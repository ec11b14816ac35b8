package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// AuditEntry is a write-only observability record. Business logic never
// reads it back.
type AuditEntry struct {
	ID         uuid.UUID       `json:"id"`
	EntityType string          `json:"entity_type"`
	Action     string          `json:"action"`
	EntityID   *string         `json:"entity_id,omitempty"`
	Actor      string          `json:"actor"`
	OldValues  json.RawMessage `json:"old_values,omitempty"`
	NewValues  json.RawMessage `json:"new_values,omitempty"`
	CreatedAt  time.Time       `json:"created_at"`
}
