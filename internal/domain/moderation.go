package domain

import "time"

// Moderation log action types.
const (
	ModActionRoleUpdate = "role_update"
)

// ModerationLogEntry is one row in a guild's moderation log. LogNumber is a
// per-guild auto-incrementing case number.
type ModerationLogEntry struct {
	GuildID     string    `json:"guild_id"`
	LogNumber   int64     `json:"log_number"`
	Action      string    `json:"action"`
	ModeratorID string    `json:"moderator_id"`
	UserID      string    `json:"user_id"`
	Reason      string    `json:"reason"`
	CreatedAt   time.Time `json:"created_at"`
}
