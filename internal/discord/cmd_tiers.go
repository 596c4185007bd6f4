package discord

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/bwmarrin/discordgo"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/rolewarden/rolewarden/internal/domain"
	"github.com/rolewarden/rolewarden/internal/logger"
)

var tierNameCaser = cases.Title(language.English)

// TiersCommand returns the subscriber tier admin command and handler.
// Restricted to members who can manage roles.
func TiersCommand() (*discordgo.ApplicationCommand, CommandHandler) {
	manageRoles := int64(discordgo.PermissionManageRoles)

	cmd := &discordgo.ApplicationCommand{
		Name:                     "subscribertiers",
		Description:              "Configure subscriber tier roles",
		DefaultMemberPermissions: &manageRoles,
		Options: []*discordgo.ApplicationCommandOption{
			{
				Type:        discordgo.ApplicationCommandOptionSubCommand,
				Name:        "add",
				Description: "Add a subscriber tier",
				Options: []*discordgo.ApplicationCommandOption{
					{
						Type:        discordgo.ApplicationCommandOptionInteger,
						Name:        "threshold",
						Description: "Minimum subscriber count for this tier",
						Required:    true,
					},
					{
						Type:        discordgo.ApplicationCommandOptionRole,
						Name:        "role",
						Description: "Role granted at this tier",
						Required:    true,
					},
					{
						Type:        discordgo.ApplicationCommandOptionString,
						Name:        "name",
						Description: "Display name for this tier",
						Required:    true,
					},
				},
			},
			{
				Type:        discordgo.ApplicationCommandOptionSubCommand,
				Name:        "remove",
				Description: "Remove a subscriber tier",
				Options: []*discordgo.ApplicationCommandOption{
					{
						Type:        discordgo.ApplicationCommandOptionInteger,
						Name:        "threshold",
						Description: "Threshold of the tier to remove",
						Required:    true,
					},
				},
			},
			{
				Type:        discordgo.ApplicationCommandOptionSubCommand,
				Name:        "list",
				Description: "List configured subscriber tiers",
			},
			{
				Type:        discordgo.ApplicationCommandOptionSubCommand,
				Name:        "enable",
				Description: "Enable subscriber verification",
			},
			{
				Type:        discordgo.ApplicationCommandOptionSubCommand,
				Name:        "disable",
				Description: "Disable subscriber verification",
			},
		},
	}

	handler := func(s *discordgo.Session, i *discordgo.InteractionCreate, svc *Services) {
		if !deferResponse(s, i, true) {
			return
		}

		options := getOptions(i)
		if len(options) == 0 {
			respondError(s, i, MsgGenericError)
			return
		}

		ctx := logger.WithCorrelationID(context.Background(), logger.NewCorrelationID())
		admin := getInteractionUser(i)
		sub := options[0]

		switch sub.Name {
		case "add":
			handleTierAdd(ctx, s, i, svc, sub, admin)
		case "remove":
			handleTierRemove(ctx, s, i, svc, sub)
		case "list":
			handleTierList(ctx, s, i, svc)
		case "enable":
			handleTierToggle(ctx, s, i, svc, admin, true)
		case "disable":
			handleTierToggle(ctx, s, i, svc, admin, false)
		default:
			respondError(s, i, MsgGenericError)
		}
	}

	return cmd, handler
}

func handleTierAdd(ctx context.Context, s *discordgo.Session, i *discordgo.InteractionCreate, svc *Services, sub *discordgo.ApplicationCommandInteractionDataOption, admin *discordgo.User) {
	var threshold int64
	var roleID, name string
	for _, opt := range sub.Options {
		switch opt.Name {
		case "threshold":
			threshold = opt.IntValue()
		case "role":
			roleID = opt.RoleValue(s, i.GuildID).ID
		case "name":
			name = tierNameCaser.String(strings.TrimSpace(opt.StringValue()))
		}
	}

	tier := domain.SubscriberTier{
		MinSubscribers: threshold,
		RoleID:         roleID,
		TierName:       name,
	}

	if err := svc.Tiers.AddTier(ctx, i.GuildID, tier, admin.ID); err != nil {
		slog.Error("Failed to add tier", "error", err, "guild_id", i.GuildID)
		respondFriendlyError(s, i, err)
		return
	}

	notice := Notice{
		Title: "Tier added",
		Body:  fmt.Sprintf("**%s** — <@&%s> at **%d** subscribers.", name, roleID, threshold),
		Kind:  NoticeSuccess,
	}
	sendEmbed(s, i, notice.render(FooterRolewardenAdmin))
}

func handleTierRemove(ctx context.Context, s *discordgo.Session, i *discordgo.InteractionCreate, svc *Services, sub *discordgo.ApplicationCommandInteractionDataOption) {
	var threshold int64
	for _, opt := range sub.Options {
		if opt.Name == "threshold" {
			threshold = opt.IntValue()
		}
	}

	if err := svc.Tiers.RemoveTier(ctx, i.GuildID, threshold); err != nil {
		slog.Error("Failed to remove tier", "error", err, "guild_id", i.GuildID)
		respondFriendlyError(s, i, err)
		return
	}

	notice := Notice{
		Title: "Tier removed",
		Body:  fmt.Sprintf("Removed the tier at **%d** subscribers.", threshold),
		Kind:  NoticeSuccess,
	}
	sendEmbed(s, i, notice.render(FooterRolewardenAdmin))
}

func handleTierList(ctx context.Context, s *discordgo.Session, i *discordgo.InteractionCreate, svc *Services) {
	cfg, err := svc.Tiers.GetConfig(ctx, i.GuildID)
	if err != nil {
		slog.Error("Failed to load tier config", "error", err, "guild_id", i.GuildID)
		respondFriendlyError(s, i, err)
		return
	}

	var b strings.Builder
	for _, tier := range cfg.Tiers {
		fmt.Fprintf(&b, "**%s** — <@&%s> at **%d**+ subscribers\n", tier.TierName, tier.RoleID, tier.MinSubscribers)
	}
	if b.Len() == 0 {
		b.WriteString("No tiers configured yet.")
	}

	status := "disabled"
	if cfg.Enabled {
		status = "enabled"
	}

	notice := Notice{
		Title: "Subscriber tiers",
		Body:  fmt.Sprintf("%s\nVerification is **%s**.", b.String(), status),
		Kind:  NoticeInfo,
	}
	sendEmbed(s, i, notice.render(FooterRolewardenAdmin))
}

func handleTierToggle(ctx context.Context, s *discordgo.Session, i *discordgo.InteractionCreate, svc *Services, admin *discordgo.User, enabled bool) {
	if err := svc.Tiers.SetEnabled(ctx, i.GuildID, enabled, admin.ID); err != nil {
		slog.Error("Failed to toggle verification", "error", err, "guild_id", i.GuildID)
		respondFriendlyError(s, i, err)
		return
	}

	verb := "disabled"
	if enabled {
		verb = "enabled"
	}
	notice := Notice{
		Title: "Verification " + verb,
		Body:  fmt.Sprintf("Subscriber verification is now **%s** on this server.", verb),
		Kind:  NoticeSuccess,
	}
	sendEmbed(s, i, notice.render(FooterRolewardenAdmin))
}
