package models

import (
	"time"

	"github.com/google/uuid"
)

// Player links a chat-platform user to a Roblox game account. A Roblox
// account binds to at most one chat user and vice versa. Verified must be
// true before the player can appear on a roster.
type Player struct {
	ID             uuid.UUID `json:"id"`
	ChatUserID     string    `json:"chat_user_id"`
	RobloxUserID   *string   `json:"roblox_user_id,omitempty"`
	RobloxUsername *string   `json:"roblox_username,omitempty"`
	Verified       bool      `json:"verified"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}
