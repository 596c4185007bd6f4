package tiers

import (
	"context"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/rolewarden/rolewarden/internal/domain"
	"github.com/rolewarden/rolewarden/internal/logger"
	"github.com/rolewarden/rolewarden/internal/repository"
)

const (
	// MaxTiersPerGuild bounds how many tiers an admin can configure.
	MaxTiersPerGuild = 25

	configCacheTTL  = 5 * time.Minute
	configCacheSize = 256
)

// Service defines subscriber tier configuration operations
type Service interface {
	// GetConfig returns a guild's tier configuration, served from cache when
	// fresh.
	GetConfig(ctx context.Context, guildID string) (*domain.GuildTierConfig, error)

	// AddTier validates and inserts a tier.
	AddTier(ctx context.Context, guildID string, tier domain.SubscriberTier, updatedBy string) error

	// RemoveTier deletes the tier with the given threshold.
	RemoveTier(ctx context.Context, guildID string, minSubscribers int64) error

	// SetEnabled toggles verification for a guild.
	SetEnabled(ctx context.Context, guildID string, enabled bool, updatedBy string) error
}

type service struct {
	repo     repository.Tiers
	cache    *configCache
	validate *validator.Validate
}

// NewService creates a new tier configuration service
func NewService(repo repository.Tiers) Service {
	return &service{
		repo:     repo,
		cache:    newConfigCache(configCacheSize, configCacheTTL),
		validate: validator.New(),
	}
}

func (s *service) GetConfig(ctx context.Context, guildID string) (*domain.GuildTierConfig, error) {
	if cfg, ok := s.cache.get(guildID); ok {
		return cfg, nil
	}

	cfg, err := s.repo.GetConfig(ctx, guildID)
	if err != nil {
		return nil, err
	}

	s.cache.put(guildID, cfg)
	return cfg, nil
}

func (s *service) AddTier(ctx context.Context, guildID string, tier domain.SubscriberTier, updatedBy string) error {
	log := logger.FromContext(ctx)

	if err := s.validate.Struct(tier); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrInvalidInput, err)
	}

	cfg, err := s.repo.GetConfig(ctx, guildID)
	if err == nil && len(cfg.Tiers) >= MaxTiersPerGuild {
		return fmt.Errorf("%w: at most %d tiers per guild", domain.ErrInvalidInput, MaxTiersPerGuild)
	}

	if err := s.repo.AddTier(ctx, guildID, tier, updatedBy); err != nil {
		return err
	}

	s.cache.invalidate(guildID)
	log.Info("Subscriber tier added",
		"guild_id", guildID,
		"min_subscribers", tier.MinSubscribers,
		"tier_name", tier.TierName,
	)
	return nil
}

func (s *service) RemoveTier(ctx context.Context, guildID string, minSubscribers int64) error {
	log := logger.FromContext(ctx)

	if err := s.repo.RemoveTier(ctx, guildID, minSubscribers); err != nil {
		return err
	}

	s.cache.invalidate(guildID)
	log.Info("Subscriber tier removed", "guild_id", guildID, "min_subscribers", minSubscribers)
	return nil
}

func (s *service) SetEnabled(ctx context.Context, guildID string, enabled bool, updatedBy string) error {
	log := logger.FromContext(ctx)

	if err := s.repo.SetEnabled(ctx, guildID, enabled, updatedBy); err != nil {
		return err
	}

	s.cache.invalidate(guildID)
	log.Info("Subscriber verification toggled", "guild_id", guildID, "enabled", enabled)
	return nil
}
