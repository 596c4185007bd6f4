package moderation

import (
	"context"
	"fmt"

	"github.com/rolewarden/rolewarden/internal/domain"
	"github.com/rolewarden/rolewarden/internal/logger"
	"github.com/rolewarden/rolewarden/internal/repository"
)

// Service records and reads the per-guild moderation log.
type Service interface {
	Record(ctx context.Context, entry domain.ModerationLogEntry) (*domain.ModerationLogEntry, error)
	Recent(ctx context.Context, guildID string, limit int) ([]domain.ModerationLogEntry, error)
}

type service struct {
	repo repository.Moderation
}

// NewService creates a new moderation service
func NewService(repo repository.Moderation) Service {
	return &service{repo: repo}
}

func (s *service) Record(ctx context.Context, entry domain.ModerationLogEntry) (*domain.ModerationLogEntry, error) {
	log := logger.FromContext(ctx)

	if entry.GuildID == "" || entry.UserID == "" || entry.Action == "" {
		return nil, fmt.Errorf("%w: guild id, user id and action are required", domain.ErrInvalidInput)
	}

	stored, err := s.repo.Record(ctx, entry)
	if err != nil {
		return nil, fmt.Errorf("recording moderation entry: %w", err)
	}

	log.Info("Moderation entry recorded",
		"guild_id", stored.GuildID,
		"log_number", stored.LogNumber,
		"action", stored.Action,
	)
	return stored, nil
}

func (s *service) Recent(ctx context.Context, guildID string, limit int) ([]domain.ModerationLogEntry, error) {
	if limit <= 0 || limit > 100 {
		limit = 25
	}
	return s.repo.Recent(ctx, guildID, limit)
}
