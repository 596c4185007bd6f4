package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/bwmarrin/discordgo"

	"github.com/rolewarden/rolewarden/internal/config"
	"github.com/rolewarden/rolewarden/internal/database"
	"github.com/rolewarden/rolewarden/internal/database/postgres"
	"github.com/rolewarden/rolewarden/internal/discord"
	"github.com/rolewarden/rolewarden/internal/moderation"
	"github.com/rolewarden/rolewarden/internal/oauth"
	"github.com/rolewarden/rolewarden/internal/roles"
	"github.com/rolewarden/rolewarden/internal/scheduler"
	"github.com/rolewarden/rolewarden/internal/server"
	"github.com/rolewarden/rolewarden/internal/statetoken"
	"github.com/rolewarden/rolewarden/internal/tiers"
	"github.com/rolewarden/rolewarden/internal/verification"
	"github.com/rolewarden/rolewarden/internal/worker"
	"github.com/rolewarden/rolewarden/internal/youtube"
)

const (
	dbMaxConns   = 10
	dbMaxIdle    = 5 * time.Minute
	dbMaxLife    = time.Hour
	cleanupEvery = 5 * time.Minute

	shutdownTimeout = 10 * time.Second
)

// CommandFactory creates a Discord command and its handler.
type CommandFactory func() (*discordgo.ApplicationCommand, discord.CommandHandler)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("Configuration failed", "error", err)
		os.Exit(1)
	}

	initLogger(cfg)

	if err := run(cfg); err != nil {
		slog.Error("Application failed", "error", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config) error {
	connString := cfg.GetDBConnString()

	if err := database.Migrate(connString); err != nil {
		return err
	}

	pool, err := database.NewPool(connString, dbMaxConns, dbMaxIdle, dbMaxLife)
	if err != nil {
		return err
	}
	defer pool.Close()

	// Repositories
	pendingAuthRepo := postgres.NewPendingAuthRepository(pool)
	tiersRepo := postgres.NewTiersRepository(pool)
	moderationRepo := postgres.NewModerationRepository(pool)

	// Discord session; opened below, but the role assigner needs it up front
	session, err := discordgo.New("Bot " + cfg.DiscordToken)
	if err != nil {
		return err
	}

	// Services
	tierService := tiers.NewService(tiersRepo)
	moderationService := moderation.NewService(moderationRepo)
	provider := oauth.NewClient(cfg.OAuthClientID, cfg.OAuthClientSecret, cfg.OAuthRedirectURI)
	subscriberSource := youtube.NewClient(cfg.YouTubeAPIKey)
	assigner := roles.NewAssigner(session, cfg.DiscordAppID)

	verificationService := verification.NewService(verification.Config{
		Codec:        statetoken.New(cfg.StateSecret),
		Provider:     provider,
		Repo:         pendingAuthRepo,
		TierSource:   tierService,
		Subscribers:  subscriberSource,
		Assigner:     assigner,
		Modlog:       moderationService,
		WaitTimeout:  cfg.WaitTimeout,
		PollInterval: cfg.PollInterval,
	})

	// HTTP server for the OAuth callback, health, and metrics
	srv := server.NewServer(cfg.Port, nil, pool, verificationService)
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("Server failed", "error", err)
		}
	}()

	// Background sweep of abandoned authorization records
	pool1 := worker.NewPool(1, 4)
	pool1.Start()
	sched := scheduler.New(pool1)
	sched.Schedule(cleanupEvery, worker.NewCleanupJob(pendingAuthRepo, cfg.PendingTTL))

	// Discord bot
	bot := &discord.Bot{
		Session: session,
		AppID:   cfg.DiscordAppID,
		Services: &discord.Services{
			Verification: verificationService,
			Tiers:        tierService,
			Moderation:   moderationService,
			WaitTimeout:  cfg.WaitTimeout,
		},
		Registry: discord.NewCommandRegistry(),
	}

	for _, factory := range commandFactories() {
		cmd, handler := factory()
		bot.Registry.Register(cmd, handler)
	}

	if err := bot.Start(); err != nil {
		return err
	}
	defer bot.Stop()

	forceUpdate := os.Getenv("DISCORD_FORCE_COMMAND_UPDATE") == "true"
	if err := bot.RegisterCommands(bot.Registry, forceUpdate); err != nil {
		// The bot can still serve already-registered commands
		slog.Error("Failed to register commands", "error", err)
	}

	// Block until a termination signal arrives
	sc := make(chan os.Signal, 1)
	signal.Notify(sc, syscall.SIGINT, syscall.SIGTERM)
	<-sc

	slog.Info("Shutting down")

	sched.Stop()
	pool1.Stop()

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return srv.Stop(ctx)
}

// commandFactories returns every Discord command this bot registers.
func commandFactories() []CommandFactory {
	return []CommandFactory{
		discord.PingCommand,
		discord.VerifyCommand,
		discord.TiersCommand,
	}
}
