package discord

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/bwmarrin/discordgo"

	"github.com/rolewarden/rolewarden/internal/domain"
	"github.com/rolewarden/rolewarden/internal/logger"
)

// VerifyCommand returns the verify command definition and handler.
// The handler hands the user an authorization link, then blocks in its own
// goroutine until the browser flow completes or the wait budget runs out,
// and finally edits the ephemeral response with the result.
func VerifyCommand() (*discordgo.ApplicationCommand, CommandHandler) {
	cmd := &discordgo.ApplicationCommand{
		Name:        "verify",
		Description: "Link your YouTube channel and claim your subscriber tier role",
	}

	handler := func(s *discordgo.Session, i *discordgo.InteractionCreate, svc *Services) {
		if i.GuildID == "" {
			respondEphemeral(s, i, "This command only works inside a server.")
			return
		}

		if !deferResponse(s, i, true) {
			return
		}

		user := getInteractionUser(i)
		ctx := logger.WithCorrelationID(context.Background(), logger.NewCorrelationID())

		init, err := svc.Verification.Begin(ctx, user.ID)
		if err != nil {
			slog.Error("Failed to start verification", "error", err, "user_id", user.ID)
			respondError(s, i, MsgGenericError)
			return
		}

		notice := Notice{
			Title: "Verify your YouTube channel",
			Body: fmt.Sprintf("[Click here to authorize](%s)\n\nAuthorize with the same Discord account, "+
				"then come back — I'll update this message when you're done.", init.AuthorizationURL),
			Kind: NoticeInfo,
		}
		sendEmbed(s, i, notice.render(""))

		waitCtx, cancel := context.WithTimeout(ctx, svc.WaitTimeout+svc.WaitTimeout/2)
		defer cancel()

		outcome, err := svc.Verification.Verify(waitCtx, i.GuildID, user.ID, init.CorrelationID)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				err = domain.ErrVerificationTimeout
			}
			slog.Warn("Verification did not complete", "error", err, "user_id", user.ID)
			respondFriendlyError(s, i, err)
			return
		}

		body := fmt.Sprintf("Channel **%s** has **%d** subscribers.\nYou now hold the **%s** role.",
			outcome.ChannelName, outcome.Subscribers, outcome.Tier.TierName)
		if outcome.Role.AlreadyCorrect {
			body = fmt.Sprintf("Channel **%s** has **%d** subscribers.\nYou already hold the **%s** role.",
				outcome.ChannelName, outcome.Subscribers, outcome.Tier.TierName)
		}

		result := Notice{Title: "✅ Verification complete", Body: body, Kind: NoticeSuccess}
		sendEmbed(s, i, result.render(""))
	}

	return cmd, handler
}

// respondEphemeral sends an immediate ephemeral reply without deferring.
func respondEphemeral(s *discordgo.Session, i *discordgo.InteractionCreate, message string) {
	if err := s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Content: message,
			Flags:   discordgo.MessageFlagsEphemeral,
		},
	}); err != nil {
		slog.Error("Failed to respond to interaction", "error", err)
	}
}
