package tiers

import (
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"

	"github.com/rolewarden/rolewarden/internal/domain"
)

// configCache holds per-guild tier configs. The config is read on every
// verification but changes rarely, so a short TTL keeps reads off the
// database without admins noticing stale data.
type configCache struct {
	lru *expirable.LRU[string, *domain.GuildTierConfig]
}

func newConfigCache(size int, ttl time.Duration) *configCache {
	return &configCache{
		lru: expirable.NewLRU[string, *domain.GuildTierConfig](size, nil, ttl),
	}
}

func (c *configCache) get(guildID string) (*domain.GuildTierConfig, bool) {
	return c.lru.Get(guildID)
}

func (c *configCache) put(guildID string, cfg *domain.GuildTierConfig) {
	c.lru.Add(guildID, cfg)
}

func (c *configCache) invalidate(guildID string) {
	c.lru.Remove(guildID)
}
