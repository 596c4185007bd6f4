package repository

import (
	"context"

	"github.com/rolewarden/rolewarden/internal/domain"
)

// Moderation defines data access for the guild moderation log.
type Moderation interface {
	// Record inserts an entry and returns it with the assigned per-guild
	// log number.
	Record(ctx context.Context, entry domain.ModerationLogEntry) (*domain.ModerationLogEntry, error)

	// Recent returns the most recent entries for a guild, newest first.
	Recent(ctx context.Context, guildID string, limit int) ([]domain.ModerationLogEntry, error)
}
