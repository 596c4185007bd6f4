package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/rolewarden/rolewarden/internal/domain"
)

// uniqueViolation is the postgres error code for unique constraint violations.
const uniqueViolation = "23505"

// TiersRepository implements repository.Tiers
type TiersRepository struct {
	db *pgxpool.Pool
}

// NewTiersRepository creates a new subscriber tier repository
func NewTiersRepository(db *pgxpool.Pool) *TiersRepository {
	return &TiersRepository{db: db}
}

// GetConfig returns the full tier configuration for a guild, tiers sorted by
// threshold ascending.
func (r *TiersRepository) GetConfig(ctx context.Context, guildID string) (*domain.GuildTierConfig, error) {
	rows, err := r.db.Query(ctx, `
		SELECT min_subscribers, role_id, tier_name
		FROM subscriber_tiers
		WHERE guild_id = $1
		ORDER BY min_subscribers ASC
	`, guildID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	cfg := &domain.GuildTierConfig{GuildID: guildID}
	for rows.Next() {
		var tier domain.SubscriberTier
		if err := rows.Scan(&tier.MinSubscribers, &tier.RoleID, &tier.TierName); err != nil {
			return nil, err
		}
		cfg.Tiers = append(cfg.Tiers, tier)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	if len(cfg.Tiers) == 0 {
		return nil, domain.ErrTierConfigNotFound
	}

	err = r.db.QueryRow(ctx, `
		SELECT enabled, updated_by, updated_at
		FROM guild_tier_settings
		WHERE guild_id = $1
	`, guildID).Scan(&cfg.Enabled, &cfg.UpdatedBy, &cfg.UpdatedAt)
	if err != nil && !errors.Is(err, pgx.ErrNoRows) {
		return nil, err
	}

	return cfg, nil
}

// AddTier inserts a tier for a guild
func (r *TiersRepository) AddTier(ctx context.Context, guildID string, tier domain.SubscriberTier, updatedBy string) error {
	_, err := r.db.Exec(ctx, `
		INSERT INTO subscriber_tiers (guild_id, min_subscribers, role_id, tier_name)
		VALUES ($1, $2, $3, $4)
	`, guildID, tier.MinSubscribers, tier.RoleID, tier.TierName)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return domain.ErrDuplicateThreshold
		}
		return err
	}

	return r.touchSettings(ctx, guildID, updatedBy)
}

// RemoveTier deletes the tier with the given threshold
func (r *TiersRepository) RemoveTier(ctx context.Context, guildID string, minSubscribers int64) error {
	tag, err := r.db.Exec(ctx, `
		DELETE FROM subscriber_tiers
		WHERE guild_id = $1 AND min_subscribers = $2
	`, guildID, minSubscribers)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrTierNotFound
	}
	return nil
}

// SetEnabled toggles the verification feature for a guild
func (r *TiersRepository) SetEnabled(ctx context.Context, guildID string, enabled bool, updatedBy string) error {
	_, err := r.db.Exec(ctx, `
		INSERT INTO guild_tier_settings (guild_id, enabled, updated_by, updated_at)
		VALUES ($1, $2, $3, NOW())
		ON CONFLICT (guild_id) DO UPDATE SET
			enabled = EXCLUDED.enabled,
			updated_by = EXCLUDED.updated_by,
			updated_at = NOW()
	`, guildID, enabled, updatedBy)
	return err
}

// touchSettings records who last changed the config without toggling enabled.
func (r *TiersRepository) touchSettings(ctx context.Context, guildID, updatedBy string) error {
	_, err := r.db.Exec(ctx, `
		INSERT INTO guild_tier_settings (guild_id, updated_by, updated_at)
		VALUES ($1, $2, NOW())
		ON CONFLICT (guild_id) DO UPDATE SET
			updated_by = EXCLUDED.updated_by,
			updated_at = NOW()
	`, guildID, updatedBy)
	return err
}
