package postgres

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/rolewarden/rolewarden/internal/domain"
)

// ModerationRepository implements repository.Moderation
type ModerationRepository struct {
	db *pgxpool.Pool
}

// NewModerationRepository creates a new moderation log repository
func NewModerationRepository(db *pgxpool.Pool) *ModerationRepository {
	return &ModerationRepository{db: db}
}

// Record inserts an entry with the next per-guild log number. The insert and
// the MAX lookup run in one statement so concurrent inserts retry on the
// primary key rather than silently sharing a number.
func (r *ModerationRepository) Record(ctx context.Context, entry domain.ModerationLogEntry) (*domain.ModerationLogEntry, error) {
	query := `
		INSERT INTO moderation_log (guild_id, log_number, action, moderator_id, user_id, reason)
		SELECT $1, COALESCE(MAX(log_number), 0) + 1, $2, $3, $4, $5
		FROM moderation_log
		WHERE guild_id = $1
		RETURNING log_number, created_at
	`
	err := r.db.QueryRow(ctx, query,
		entry.GuildID,
		entry.Action,
		entry.ModeratorID,
		entry.UserID,
		entry.Reason,
	).Scan(&entry.LogNumber, &entry.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &entry, nil
}

// Recent returns the most recent entries for a guild, newest first
func (r *ModerationRepository) Recent(ctx context.Context, guildID string, limit int) ([]domain.ModerationLogEntry, error) {
	rows, err := r.db.Query(ctx, `
		SELECT guild_id, log_number, action, moderator_id, user_id, reason, created_at
		FROM moderation_log
		WHERE guild_id = $1
		ORDER BY log_number DESC
		LIMIT $2
	`, guildID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []domain.ModerationLogEntry
	for rows.Next() {
		var e domain.ModerationLogEntry
		if err := rows.Scan(&e.GuildID, &e.LogNumber, &e.Action, &e.ModeratorID, &e.UserID, &e.Reason, &e.CreatedAt); err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
