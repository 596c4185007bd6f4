package verification

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"golang.org/x/oauth2"

	"github.com/rolewarden/rolewarden/internal/domain"
	"github.com/rolewarden/rolewarden/internal/logger"
	"github.com/rolewarden/rolewarden/internal/metrics"
	"github.com/rolewarden/rolewarden/internal/oauth"
	"github.com/rolewarden/rolewarden/internal/repository"
	"github.com/rolewarden/rolewarden/internal/roles"
	"github.com/rolewarden/rolewarden/internal/statetoken"
	"github.com/rolewarden/rolewarden/internal/tiers"
)

// Terminal states of one callback delivery.
const (
	CallbackStored       = "stored"
	CallbackNoChannels   = "stored_no_channels"
	CallbackBadState     = "rejected_bad_state"
	CallbackUserMismatch = "rejected_user_mismatch"
	CallbackProviderErr  = "provider_error"
)

// Verification outcome labels for metrics.
const (
	outcomeSuccess   = "success"
	outcomeTimeout   = "timeout"
	outcomeNoTier    = "below_minimum"
	outcomeNoChannel = "no_channels"
	outcomeError     = "error"
)

// Provider abstracts the OAuth provider for this service.
type Provider interface {
	AuthorizationURL(state string) string
	Exchange(ctx context.Context, code string) (*oauth2.Token, error)
	FetchIdentity(ctx context.Context, accessToken string) (*oauth.Identity, error)
	FetchConnections(ctx context.Context, accessToken string) ([]oauth.Connection, error)
}

// SubscriberSource reports subscriber counts per channel id.
type SubscriberSource interface {
	SubscriberCounts(ctx context.Context, channelIDs []string) (map[string]int64, error)
}

// TierSource provides per-guild tier configuration.
type TierSource interface {
	GetConfig(ctx context.Context, guildID string) (*domain.GuildTierConfig, error)
}

// RoleAssigner applies a tier role to a member.
type RoleAssigner interface {
	Apply(ctx context.Context, guildID, userID, targetRoleID string, tierRoleIDs []string) (*roles.Result, error)
}

// ModerationRecorder writes entries to the guild moderation log.
type ModerationRecorder interface {
	Record(ctx context.Context, entry domain.ModerationLogEntry) (*domain.ModerationLogEntry, error)
}

// Initiation is what the command layer needs to hand the user a link.
type Initiation struct {
	CorrelationID    string
	AuthorizationURL string
}

// CallbackParams are the query parameters of one provider redirect.
type CallbackParams struct {
	Code  string
	State string
	Error string
}

// CallbackOutcome is the terminal result of processing one callback.
type CallbackOutcome struct {
	State    string
	Accounts []domain.LinkedAccount
	Err      error
}

// Outcome describes a completed verification.
type Outcome struct {
	ChannelID   string
	ChannelName string
	Subscribers int64
	Tier        domain.SubscriberTier
	Role        *roles.Result
}

// Service runs the OAuth2 verification and tier role assignment flow.
type Service interface {
	// Begin builds an authorization URL for a requester and returns it with
	// the correlation id the rest of the flow is keyed on.
	Begin(ctx context.Context, requesterID string) (*Initiation, error)

	// HandleCallback processes one provider redirect end to end.
	HandleCallback(ctx context.Context, params CallbackParams) *CallbackOutcome

	// Await polls for the authorization data belonging to a correlation id
	// until it arrives, the wait budget runs out, or ctx is cancelled.
	Await(ctx context.Context, correlationID string) (*domain.PendingAuthorization, error)

	// Verify waits for authorization data, picks the linked channel with the
	// highest subscriber count, resolves the tier, and applies the role.
	Verify(ctx context.Context, guildID, memberID, correlationID string) (*Outcome, error)
}

type service struct {
	codec       *statetoken.Codec
	provider    Provider
	repo        repository.PendingAuth
	tierSource  TierSource
	subscribers SubscriberSource
	assigner    RoleAssigner
	modlog      ModerationRecorder

	waitTimeout  time.Duration
	pollInterval time.Duration
	now          func() time.Time
}

// Config carries the service's collaborators and tuning.
type Config struct {
	Codec        *statetoken.Codec
	Provider     Provider
	Repo         repository.PendingAuth
	TierSource   TierSource
	Subscribers  SubscriberSource
	Assigner     RoleAssigner
	Modlog       ModerationRecorder
	WaitTimeout  time.Duration
	PollInterval time.Duration
}

// NewService creates a new verification service
func NewService(cfg Config) Service {
	return &service{
		codec:        cfg.Codec,
		provider:     cfg.Provider,
		repo:         cfg.Repo,
		tierSource:   cfg.TierSource,
		subscribers:  cfg.Subscribers,
		assigner:     cfg.Assigner,
		modlog:       cfg.Modlog,
		waitTimeout:  cfg.WaitTimeout,
		pollInterval: cfg.PollInterval,
		now:          time.Now,
	}
}

func (s *service) Begin(ctx context.Context, requesterID string) (*Initiation, error) {
	log := logger.FromContext(ctx)

	correlationID := uuid.NewString()
	token, err := s.codec.Encode(requesterID, correlationID)
	if err != nil {
		return nil, fmt.Errorf("encoding state token: %w", err)
	}

	metrics.VerificationsStarted.Inc()
	log.Info("Verification initiated", "requester_id", requesterID, "correlation_id", correlationID)

	return &Initiation{
		CorrelationID:    correlationID,
		AuthorizationURL: s.provider.AuthorizationURL(token),
	}, nil
}

// HandleCallback walks one authorization attempt through its states:
// parse → state valid → token exchanged → identity fetched → connections
// fetched → stored. Every failure path is terminal; nothing is persisted
// unless the identity cross-check passed.
func (s *service) HandleCallback(ctx context.Context, params CallbackParams) *CallbackOutcome {
	outcome := s.handleCallback(ctx, params)
	metrics.CallbacksTotal.WithLabelValues(outcome.State).Inc()
	return outcome
}

func (s *service) handleCallback(ctx context.Context, params CallbackParams) *CallbackOutcome {
	log := logger.FromContext(ctx)

	if params.Error != "" {
		log.Warn("Provider returned an error on callback", "error", params.Error)
		return &CallbackOutcome{
			State: CallbackProviderErr,
			Err:   fmt.Errorf("%w: %s", domain.ErrProviderFailure, params.Error),
		}
	}

	if params.Code == "" || params.State == "" {
		return &CallbackOutcome{State: CallbackBadState, Err: domain.ErrInvalidState}
	}

	payload := s.codec.Decode(params.State)
	if payload == nil {
		log.Warn("Rejected callback with invalid state token")
		return &CallbackOutcome{State: CallbackBadState, Err: domain.ErrInvalidState}
	}

	ctx = logger.WithCorrelationID(ctx, payload.CorrelationID)
	log = logger.FromContext(ctx)

	// Authorization codes are single-use; a replayed callback fails here and
	// surfaces as a provider error rather than a crash.
	token, err := s.provider.Exchange(ctx, params.Code)
	if err != nil {
		log.Warn("Token exchange failed", "error", err)
		return &CallbackOutcome{State: CallbackProviderErr, Err: err}
	}

	identity, err := s.provider.FetchIdentity(ctx, token.AccessToken)
	if err != nil {
		log.Warn("Identity fetch failed", "error", err)
		return &CallbackOutcome{State: CallbackProviderErr, Err: err}
	}

	// The authorizing account must be the one that started the flow;
	// otherwise someone is completing another user's verification.
	if identity.ID != payload.RequesterID {
		log.Warn("Identity mismatch on callback",
			"expected", payload.RequesterID,
			"got", identity.ID,
		)
		return &CallbackOutcome{State: CallbackUserMismatch, Err: domain.ErrUserMismatch}
	}

	connections, err := s.provider.FetchConnections(ctx, token.AccessToken)
	if err != nil {
		log.Warn("Connections fetch failed", "error", err)
		return &CallbackOutcome{State: CallbackProviderErr, Err: err}
	}

	accounts := oauth.FilterConnections(connections, oauth.ConnectionTypeYouTube)

	now := s.now()
	rec := &domain.PendingAuthorization{
		CorrelationID:  payload.CorrelationID,
		AccessToken:    token.AccessToken,
		LinkedAccounts: accounts,
		Identity: &domain.IdentitySnapshot{
			ID:            identity.ID,
			Username:      identity.Username,
			Avatar:        identity.Avatar,
			Discriminator: identity.Discriminator,
		},
		Status:      domain.AuthStatusCompleted,
		CreatedAt:   now,
		CompletedAt: &now,
	}

	if err := s.repo.Upsert(ctx, rec); err != nil {
		log.Error("Failed to store authorization record", "error", err)
		return &CallbackOutcome{State: CallbackProviderErr, Err: err}
	}

	state := CallbackStored
	if len(accounts) == 0 {
		state = CallbackNoChannels
	}

	log.Info("Authorization stored", "linked_accounts", len(accounts))
	return &CallbackOutcome{State: state, Accounts: accounts}
}

func (s *service) Await(ctx context.Context, correlationID string) (*domain.PendingAuthorization, error) {
	start := s.now()

	timeout := time.NewTimer(s.waitTimeout)
	defer timeout.Stop()
	ticker := time.NewTicker(s.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-timeout.C:
			return nil, domain.ErrVerificationTimeout
		case <-ticker.C:
			rec, err := s.repo.Consume(ctx, correlationID)
			if errors.Is(err, domain.ErrRecordNotFound) {
				continue
			}
			if err != nil {
				return nil, err
			}
			metrics.WaitDuration.Observe(time.Since(start).Seconds())
			return rec, nil
		}
	}
}

func (s *service) Verify(ctx context.Context, guildID, memberID, correlationID string) (*Outcome, error) {
	ctx = logger.WithCorrelationID(ctx, correlationID)
	log := logger.FromContext(ctx)

	rec, err := s.Await(ctx, correlationID)
	if err != nil {
		s.finish(outcomeFor(err))
		return nil, err
	}

	cfg, err := s.tierSource.GetConfig(ctx, guildID)
	if err != nil {
		s.finish(outcomeError)
		return nil, err
	}
	if !cfg.Enabled {
		s.finish(outcomeError)
		return nil, domain.ErrVerificationDisabled
	}

	if len(rec.LinkedAccounts) == 0 {
		s.finish(outcomeNoChannel)
		return nil, domain.ErrNoLinkedChannels
	}

	best, count, err := s.bestChannel(ctx, rec.LinkedAccounts)
	if err != nil {
		s.finish(outcomeError)
		return nil, err
	}

	tier := tiers.Resolve(count, cfg.Tiers)
	if tier == nil {
		s.finish(outcomeNoTier)
		return nil, fmt.Errorf("%w: the lowest tier requires %d subscribers, channel %q has %d",
			domain.ErrBelowMinimumTier, tiers.MinimumThreshold(cfg.Tiers), best.DisplayName, count)
	}

	result, err := s.assigner.Apply(ctx, guildID, memberID, tier.RoleID, cfg.RoleIDs())
	if err != nil {
		s.finish(outcomeError)
		return nil, err
	}

	if !result.AlreadyCorrect {
		metrics.RoleChanges.WithLabelValues("assigned").Inc()
		s.recordModlog(ctx, guildID, memberID, tier, count)
	}

	s.finish(outcomeSuccess)
	log.Info("Verification complete",
		"guild_id", guildID,
		"member_id", memberID,
		"channel", best.DisplayName,
		"subscribers", count,
		"tier", tier.TierName,
	)

	return &Outcome{
		ChannelID:   best.ExternalID,
		ChannelName: best.DisplayName,
		Subscribers: count,
		Tier:        *tier,
		Role:        result,
	}, nil
}

// bestChannel fetches subscriber counts for every linked account and returns
// the one with the globally highest count. Ties keep provider order; accounts
// the metrics API does not know are skipped.
func (s *service) bestChannel(ctx context.Context, accounts []domain.LinkedAccount) (domain.LinkedAccount, int64, error) {
	log := logger.FromContext(ctx)

	ids := make([]string, 0, len(accounts))
	for _, a := range accounts {
		ids = append(ids, a.ExternalID)
	}

	counts, err := s.subscribers.SubscriberCounts(ctx, ids)
	if err != nil {
		return domain.LinkedAccount{}, 0, err
	}

	var best domain.LinkedAccount
	var bestCount int64 = -1
	for _, a := range accounts {
		count, ok := counts[a.ExternalID]
		if !ok {
			log.Warn("No subscriber count for linked channel", "channel_id", a.ExternalID)
			continue
		}
		if count > bestCount {
			best = a
			bestCount = count
		}
	}

	if bestCount < 0 {
		return domain.LinkedAccount{}, 0, fmt.Errorf("%w: none of the linked channels were found", domain.ErrNoLinkedChannels)
	}
	return best, bestCount, nil
}

func (s *service) recordModlog(ctx context.Context, guildID, memberID string, tier *domain.SubscriberTier, count int64) {
	log := logger.FromContext(ctx)

	_, err := s.modlog.Record(ctx, domain.ModerationLogEntry{
		GuildID:     guildID,
		Action:      domain.ModActionRoleUpdate,
		ModeratorID: "rolewarden",
		UserID:      memberID,
		Reason:      fmt.Sprintf("verified %s tier (%d subscribers)", tier.TierName, count),
	})
	if err != nil {
		// The role change already happened; a failed audit write is logged,
		// not surfaced.
		log.Error("Failed to record moderation log entry", "error", err)
	}
}

func (s *service) finish(outcome string) {
	metrics.VerificationsCompleted.WithLabelValues(outcome).Inc()
}

func outcomeFor(err error) string {
	if errors.Is(err, domain.ErrVerificationTimeout) {
		return outcomeTimeout
	}
	return outcomeError
}
