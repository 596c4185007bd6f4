package roles

import (
	"context"
	"fmt"

	"github.com/bwmarrin/discordgo"

	"github.com/rolewarden/rolewarden/internal/domain"
	"github.com/rolewarden/rolewarden/internal/logger"
)

// Session is the subset of discordgo.Session the assigner needs.
type Session interface {
	GuildMember(guildID, userID string, options ...discordgo.RequestOption) (*discordgo.Member, error)
	GuildRoles(guildID string, options ...discordgo.RequestOption) ([]*discordgo.Role, error)
	GuildMemberRoleAdd(guildID, userID, roleID string, options ...discordgo.RequestOption) error
	GuildMemberRoleRemove(guildID, userID, roleID string, options ...discordgo.RequestOption) error
}

// Result describes what a call to Apply changed.
type Result struct {
	Added          string
	Removed        []string
	AlreadyCorrect bool
}

// Assigner performs minimal tier-role changes on guild members.
type Assigner struct {
	session   Session
	botUserID string
}

// NewAssigner creates an assigner acting as the given bot user.
func NewAssigner(session Session, botUserID string) *Assigner {
	return &Assigner{session: session, botUserID: botUserID}
}

// Apply makes the member hold exactly targetRoleID among the configured tier
// roles: every other tier role the member has is removed, then the target is
// added. Roles outside tierRoleIDs are never touched. The hierarchy check
// runs before any mutation so a misconfigured role surfaces as
// domain.ErrRoleHierarchy instead of a provider error mid-change.
func (a *Assigner) Apply(ctx context.Context, guildID, userID, targetRoleID string, tierRoleIDs []string) (*Result, error) {
	log := logger.FromContext(ctx)

	if err := a.checkHierarchy(guildID, targetRoleID); err != nil {
		return nil, err
	}

	member, err := a.session.GuildMember(guildID, userID)
	if err != nil {
		return nil, fmt.Errorf("fetching member: %w", err)
	}

	tierSet := make(map[string]struct{}, len(tierRoleIDs))
	for _, id := range tierRoleIDs {
		tierSet[id] = struct{}{}
	}

	var toRemove []string
	hasTarget := false
	for _, roleID := range member.Roles {
		if roleID == targetRoleID {
			hasTarget = true
			continue
		}
		if _, ok := tierSet[roleID]; ok {
			toRemove = append(toRemove, roleID)
		}
	}

	if hasTarget && len(toRemove) == 0 {
		log.Debug("Member already holds the correct tier role", "user_id", userID, "role_id", targetRoleID)
		return &Result{Added: targetRoleID, AlreadyCorrect: true}, nil
	}

	for _, roleID := range toRemove {
		if err := a.session.GuildMemberRoleRemove(guildID, userID, roleID); err != nil {
			return nil, fmt.Errorf("removing role %s: %w", roleID, err)
		}
	}

	if !hasTarget {
		if err := a.session.GuildMemberRoleAdd(guildID, userID, targetRoleID); err != nil {
			return nil, fmt.Errorf("adding role %s: %w", targetRoleID, err)
		}
	}

	log.Info("Tier role applied",
		"guild_id", guildID,
		"user_id", userID,
		"added", targetRoleID,
		"removed", toRemove,
	)
	return &Result{Added: targetRoleID, Removed: toRemove}, nil
}

// checkHierarchy verifies the bot's highest role sits above the target role.
func (a *Assigner) checkHierarchy(guildID, targetRoleID string) error {
	roles, err := a.session.GuildRoles(guildID)
	if err != nil {
		return fmt.Errorf("fetching guild roles: %w", err)
	}

	positions := make(map[string]int, len(roles))
	for _, role := range roles {
		positions[role.ID] = role.Position
	}

	targetPos, ok := positions[targetRoleID]
	if !ok {
		return fmt.Errorf("%w: %s", domain.ErrRoleNotFound, targetRoleID)
	}

	bot, err := a.session.GuildMember(guildID, a.botUserID)
	if err != nil {
		return fmt.Errorf("fetching bot member: %w", err)
	}

	botHighest := -1
	for _, roleID := range bot.Roles {
		if pos, ok := positions[roleID]; ok && pos > botHighest {
			botHighest = pos
		}
	}

	if targetPos >= botHighest {
		return fmt.Errorf("%w: role %s", domain.ErrRoleHierarchy, targetRoleID)
	}
	return nil
}
