package repository

import (
	"context"

	"github.com/rolewarden/rolewarden/internal/domain"
)

// Tiers defines data access for per-guild subscriber tier configuration.
type Tiers interface {
	// GetConfig returns the full tier configuration for a guild. Returns
	// domain.ErrTierConfigNotFound if the guild has no tiers configured.
	GetConfig(ctx context.Context, guildID string) (*domain.GuildTierConfig, error)

	// AddTier inserts a tier. Returns domain.ErrDuplicateThreshold if the
	// guild already has a tier with the same MinSubscribers.
	AddTier(ctx context.Context, guildID string, tier domain.SubscriberTier, updatedBy string) error

	// RemoveTier deletes the tier with the given threshold. Returns
	// domain.ErrTierNotFound if no such tier exists.
	RemoveTier(ctx context.Context, guildID string, minSubscribers int64) error

	// SetEnabled toggles the verification feature for a guild.
	SetEnabled(ctx context.Context, guildID string, enabled bool, updatedBy string) error
}
