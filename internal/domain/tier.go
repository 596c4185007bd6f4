package domain

import "time"

// SubscriberTier is a single (threshold, role) pair within a guild's config.
// A subscriber count belongs to the tier with the largest MinSubscribers that
// is less than or equal to it.
type SubscriberTier struct {
	MinSubscribers int64  `json:"min_subscribers" validate:"gte=0"`
	RoleID         string `json:"role_id" validate:"required"`
	TierName       string `json:"tier_name" validate:"required,max=64"`
}

// GuildTierConfig is the per-guild subscriber tier configuration. Tiers are
// kept sorted by MinSubscribers ascending; thresholds are unique per guild.
type GuildTierConfig struct {
	GuildID   string           `json:"guild_id"`
	Tiers     []SubscriberTier `json:"tiers"`
	Enabled   bool             `json:"enabled"`
	UpdatedBy string           `json:"updated_by"`
	UpdatedAt time.Time        `json:"updated_at"`
}

// RoleIDs returns the role ids of every configured tier, in threshold order.
func (c *GuildTierConfig) RoleIDs() []string {
	ids := make([]string, 0, len(c.Tiers))
	for _, t := range c.Tiers {
		ids = append(ids, t.RoleID)
	}
	return ids
}
