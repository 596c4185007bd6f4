package verification

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"

	"github.com/rolewarden/rolewarden/internal/domain"
	"github.com/rolewarden/rolewarden/internal/oauth"
	"github.com/rolewarden/rolewarden/internal/roles"
	"github.com/rolewarden/rolewarden/internal/statetoken"
)

type mockProvider struct {
	mock.Mock
}

func (m *mockProvider) AuthorizationURL(state string) string {
	args := m.Called(state)
	return args.String(0)
}

func (m *mockProvider) Exchange(ctx context.Context, code string) (*oauth2.Token, error) {
	args := m.Called(ctx, code)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*oauth2.Token), args.Error(1)
}

func (m *mockProvider) FetchIdentity(ctx context.Context, accessToken string) (*oauth.Identity, error) {
	args := m.Called(ctx, accessToken)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*oauth.Identity), args.Error(1)
}

func (m *mockProvider) FetchConnections(ctx context.Context, accessToken string) ([]oauth.Connection, error) {
	args := m.Called(ctx, accessToken)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]oauth.Connection), args.Error(1)
}

type mockPendingAuthRepo struct {
	mock.Mock
}

func (m *mockPendingAuthRepo) Upsert(ctx context.Context, rec *domain.PendingAuthorization) error {
	args := m.Called(ctx, rec)
	return args.Error(0)
}

func (m *mockPendingAuthRepo) Get(ctx context.Context, correlationID string) (*domain.PendingAuthorization, error) {
	args := m.Called(ctx, correlationID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.PendingAuthorization), args.Error(1)
}

func (m *mockPendingAuthRepo) Consume(ctx context.Context, correlationID string) (*domain.PendingAuthorization, error) {
	args := m.Called(ctx, correlationID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.PendingAuthorization), args.Error(1)
}

func (m *mockPendingAuthRepo) Delete(ctx context.Context, correlationID string) error {
	args := m.Called(ctx, correlationID)
	return args.Error(0)
}

func (m *mockPendingAuthRepo) DeleteExpired(ctx context.Context, ttl time.Duration) (int64, error) {
	args := m.Called(ctx, ttl)
	return args.Get(0).(int64), args.Error(1)
}

type mockTierSource struct {
	mock.Mock
}

func (m *mockTierSource) GetConfig(ctx context.Context, guildID string) (*domain.GuildTierConfig, error) {
	args := m.Called(ctx, guildID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.GuildTierConfig), args.Error(1)
}

type mockSubscriberSource struct {
	mock.Mock
}

func (m *mockSubscriberSource) SubscriberCounts(ctx context.Context, channelIDs []string) (map[string]int64, error) {
	args := m.Called(ctx, channelIDs)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[string]int64), args.Error(1)
}

type mockRoleAssigner struct {
	mock.Mock
}

func (m *mockRoleAssigner) Apply(ctx context.Context, guildID, userID, targetRoleID string, tierRoleIDs []string) (*roles.Result, error) {
	args := m.Called(ctx, guildID, userID, targetRoleID, tierRoleIDs)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*roles.Result), args.Error(1)
}

type mockModlog struct {
	mock.Mock
}

func (m *mockModlog) Record(ctx context.Context, entry domain.ModerationLogEntry) (*domain.ModerationLogEntry, error) {
	args := m.Called(ctx, entry)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.ModerationLogEntry), args.Error(1)
}

// memoryAuthStore is a minimal in-memory pending auth store used to exercise
// the waiter's single-consumption guarantee without a database.
type memoryAuthStore struct {
	mu      sync.Mutex
	records map[string]*domain.PendingAuthorization
}

func newMemoryAuthStore() *memoryAuthStore {
	return &memoryAuthStore{records: make(map[string]*domain.PendingAuthorization)}
}

func (s *memoryAuthStore) Upsert(_ context.Context, rec *domain.PendingAuthorization) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records[rec.CorrelationID] = rec
	return nil
}

func (s *memoryAuthStore) Get(_ context.Context, correlationID string) (*domain.PendingAuthorization, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.records[correlationID]
	if !ok {
		return nil, domain.ErrRecordNotFound
	}
	return rec, nil
}

func (s *memoryAuthStore) Consume(_ context.Context, correlationID string) (*domain.PendingAuthorization, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.records[correlationID]
	if !ok || rec.Status != domain.AuthStatusCompleted {
		return nil, domain.ErrRecordNotFound
	}
	rec.Status = domain.AuthStatusConsumed
	return rec, nil
}

func (s *memoryAuthStore) Delete(_ context.Context, correlationID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.records, correlationID)
	return nil
}

func (s *memoryAuthStore) DeleteExpired(_ context.Context, _ time.Duration) (int64, error) {
	return 0, nil
}

const (
	testSecret    = "test-secret-0123456789abcdef"
	testRequester = "user-123"
	testGuild     = "guild-1"
)

func newTestService(t *testing.T, cfg Config) (*service, *statetoken.Codec) {
	t.Helper()
	codec := statetoken.New(testSecret)
	cfg.Codec = codec
	if cfg.WaitTimeout == 0 {
		cfg.WaitTimeout = 200 * time.Millisecond
	}
	if cfg.PollInterval == 0 {
		cfg.PollInterval = 5 * time.Millisecond
	}
	return NewService(cfg).(*service), codec
}

func TestBegin_BuildsAuthorizationURL(t *testing.T) {
	provider := new(mockProvider)
	provider.On("AuthorizationURL", mock.AnythingOfType("string")).Return("https://discord.com/authorize?state=x")

	svc, codec := newTestService(t, Config{Provider: provider})

	init, err := svc.Begin(context.Background(), testRequester)
	require.NoError(t, err)
	assert.NotEmpty(t, init.CorrelationID)
	assert.Equal(t, "https://discord.com/authorize?state=x", init.AuthorizationURL)

	// The state handed to the provider must decode back to the requester.
	state := provider.Calls[0].Arguments.String(0)
	payload := codec.Decode(state)
	require.NotNil(t, payload)
	assert.Equal(t, testRequester, payload.RequesterID)
	assert.Equal(t, init.CorrelationID, payload.CorrelationID)
}

func TestHandleCallback_StoresCompletedRecord(t *testing.T) {
	provider := new(mockProvider)
	repo := new(mockPendingAuthRepo)
	svc, codec := newTestService(t, Config{Provider: provider, Repo: repo})

	state, err := codec.Encode(testRequester, "corr-1")
	require.NoError(t, err)

	provider.On("Exchange", mock.Anything, "auth-code").
		Return(&oauth2.Token{AccessToken: "at-1"}, nil)
	provider.On("FetchIdentity", mock.Anything, "at-1").
		Return(&oauth.Identity{ID: testRequester, Username: "tester"}, nil)
	provider.On("FetchConnections", mock.Anything, "at-1").
		Return([]oauth.Connection{
			{ID: "chan-1", Name: "My Channel", Type: "youtube", Verified: true},
			{ID: "steam-1", Name: "ignored", Type: "steam"},
		}, nil)
	repo.On("Upsert", mock.Anything, mock.MatchedBy(func(rec *domain.PendingAuthorization) bool {
		return rec.CorrelationID == "corr-1" &&
			rec.Status == domain.AuthStatusCompleted &&
			rec.CompletedAt != nil &&
			len(rec.LinkedAccounts) == 1 &&
			rec.LinkedAccounts[0].ExternalID == "chan-1"
	})).Return(nil)

	outcome := svc.HandleCallback(context.Background(), CallbackParams{Code: "auth-code", State: state})

	require.NoError(t, outcome.Err)
	assert.Equal(t, CallbackStored, outcome.State)
	require.Len(t, outcome.Accounts, 1)
	assert.Equal(t, "My Channel", outcome.Accounts[0].DisplayName)
	repo.AssertExpectations(t)
}

func TestHandleCallback_NoYouTubeConnections(t *testing.T) {
	provider := new(mockProvider)
	repo := new(mockPendingAuthRepo)
	svc, codec := newTestService(t, Config{Provider: provider, Repo: repo})

	state, err := codec.Encode(testRequester, "corr-2")
	require.NoError(t, err)

	provider.On("Exchange", mock.Anything, mock.Anything).
		Return(&oauth2.Token{AccessToken: "at-2"}, nil)
	provider.On("FetchIdentity", mock.Anything, "at-2").
		Return(&oauth.Identity{ID: testRequester}, nil)
	provider.On("FetchConnections", mock.Anything, "at-2").
		Return([]oauth.Connection{{ID: "tw-1", Type: "twitch"}}, nil)
	repo.On("Upsert", mock.Anything, mock.Anything).Return(nil)

	outcome := svc.HandleCallback(context.Background(), CallbackParams{Code: "c", State: state})

	require.NoError(t, outcome.Err)
	assert.Equal(t, CallbackNoChannels, outcome.State)
	assert.Empty(t, outcome.Accounts)
}

func TestHandleCallback_RejectsInvalidState(t *testing.T) {
	provider := new(mockProvider)
	repo := new(mockPendingAuthRepo)
	svc, _ := newTestService(t, Config{Provider: provider, Repo: repo})

	tests := []struct {
		name   string
		params CallbackParams
	}{
		{"missing state", CallbackParams{Code: "c"}},
		{"missing code", CallbackParams{State: "x.y"}},
		{"garbage state", CallbackParams{Code: "c", State: "not-a-token"}},
		{"wrong signature", CallbackParams{Code: "c", State: "eyJmYWtlIjp0cnVlfQ.Zm9yZ2Vk"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			outcome := svc.HandleCallback(context.Background(), tt.params)
			assert.Equal(t, CallbackBadState, outcome.State)
			assert.ErrorIs(t, outcome.Err, domain.ErrInvalidState)
		})
	}

	// No provider call and no persistence on any rejected state.
	provider.AssertNotCalled(t, "Exchange", mock.Anything, mock.Anything)
	repo.AssertNotCalled(t, "Upsert", mock.Anything, mock.Anything)
}

func TestHandleCallback_RejectsIdentityMismatch(t *testing.T) {
	provider := new(mockProvider)
	repo := new(mockPendingAuthRepo)
	svc, codec := newTestService(t, Config{Provider: provider, Repo: repo})

	state, err := codec.Encode(testRequester, "corr-3")
	require.NoError(t, err)

	provider.On("Exchange", mock.Anything, mock.Anything).
		Return(&oauth2.Token{AccessToken: "at-3"}, nil)
	provider.On("FetchIdentity", mock.Anything, "at-3").
		Return(&oauth.Identity{ID: "someone-else"}, nil)

	outcome := svc.HandleCallback(context.Background(), CallbackParams{Code: "c", State: state})

	assert.Equal(t, CallbackUserMismatch, outcome.State)
	assert.ErrorIs(t, outcome.Err, domain.ErrUserMismatch)
	provider.AssertNotCalled(t, "FetchConnections", mock.Anything, mock.Anything)
	repo.AssertNotCalled(t, "Upsert", mock.Anything, mock.Anything)
}

func TestHandleCallback_ProviderDeniedAuthorization(t *testing.T) {
	svc, _ := newTestService(t, Config{Provider: new(mockProvider), Repo: new(mockPendingAuthRepo)})

	outcome := svc.HandleCallback(context.Background(), CallbackParams{Error: "access_denied"})

	assert.Equal(t, CallbackProviderErr, outcome.State)
	assert.ErrorIs(t, outcome.Err, domain.ErrProviderFailure)
}

func TestVerify_AssignsTierRole(t *testing.T) {
	repo := newMemoryAuthStore()
	tierSource := new(mockTierSource)
	subs := new(mockSubscriberSource)
	assigner := new(mockRoleAssigner)
	modlog := new(mockModlog)

	svc, _ := newTestService(t, Config{
		Provider:    new(mockProvider),
		Repo:        repo,
		TierSource:  tierSource,
		Subscribers: subs,
		Assigner:    assigner,
		Modlog:      modlog,
	})

	require.NoError(t, repo.Upsert(context.Background(), &domain.PendingAuthorization{
		CorrelationID: "corr-ok",
		Status:        domain.AuthStatusCompleted,
		LinkedAccounts: []domain.LinkedAccount{
			{ExternalID: "chan-small", DisplayName: "Side Channel"},
			{ExternalID: "chan-big", DisplayName: "Main Channel"},
		},
	}))

	cfg := &domain.GuildTierConfig{
		GuildID: testGuild,
		Enabled: true,
		Tiers: []domain.SubscriberTier{
			{MinSubscribers: 100, RoleID: "role-bronze", TierName: "Bronze"},
			{MinSubscribers: 1000, RoleID: "role-silver", TierName: "Silver"},
			{MinSubscribers: 10000, RoleID: "role-gold", TierName: "Gold"},
		},
	}
	tierSource.On("GetConfig", mock.Anything, testGuild).Return(cfg, nil)
	subs.On("SubscriberCounts", mock.Anything, []string{"chan-small", "chan-big"}).
		Return(map[string]int64{"chan-small": 40, "chan-big": 2500}, nil)
	assigner.On("Apply", mock.Anything, testGuild, "member-1", "role-silver",
		[]string{"role-bronze", "role-silver", "role-gold"}).
		Return(&roles.Result{Added: "role-silver", Removed: []string{"role-bronze"}}, nil)
	modlog.On("Record", mock.Anything, mock.MatchedBy(func(e domain.ModerationLogEntry) bool {
		return e.GuildID == testGuild && e.UserID == "member-1" && e.Action == domain.ModActionRoleUpdate
	})).Return(&domain.ModerationLogEntry{LogNumber: 1}, nil)

	outcome, err := svc.Verify(context.Background(), testGuild, "member-1", "corr-ok")

	require.NoError(t, err)
	assert.Equal(t, "chan-big", outcome.ChannelID)
	assert.Equal(t, "Main Channel", outcome.ChannelName)
	assert.Equal(t, int64(2500), outcome.Subscribers)
	assert.Equal(t, "Silver", outcome.Tier.TierName)
	assert.Equal(t, "role-silver", outcome.Role.Added)
	assigner.AssertExpectations(t)
	modlog.AssertExpectations(t)
}

func TestVerify_BelowMinimumTier(t *testing.T) {
	repo := newMemoryAuthStore()
	tierSource := new(mockTierSource)
	subs := new(mockSubscriberSource)

	svc, _ := newTestService(t, Config{
		Repo:        repo,
		TierSource:  tierSource,
		Subscribers: subs,
	})

	require.NoError(t, repo.Upsert(context.Background(), &domain.PendingAuthorization{
		CorrelationID:  "corr-low",
		Status:         domain.AuthStatusCompleted,
		LinkedAccounts: []domain.LinkedAccount{{ExternalID: "chan-1", DisplayName: "Tiny"}},
	}))

	tierSource.On("GetConfig", mock.Anything, testGuild).Return(&domain.GuildTierConfig{
		GuildID: testGuild,
		Enabled: true,
		Tiers:   []domain.SubscriberTier{{MinSubscribers: 500, RoleID: "r", TierName: "Bronze"}},
	}, nil)
	subs.On("SubscriberCounts", mock.Anything, mock.Anything).
		Return(map[string]int64{"chan-1": 12}, nil)

	_, err := svc.Verify(context.Background(), testGuild, "member-1", "corr-low")

	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrBelowMinimumTier)
	assert.Contains(t, err.Error(), "500")
}

func TestVerify_NoLinkedChannels(t *testing.T) {
	repo := newMemoryAuthStore()
	tierSource := new(mockTierSource)

	svc, _ := newTestService(t, Config{Repo: repo, TierSource: tierSource})

	require.NoError(t, repo.Upsert(context.Background(), &domain.PendingAuthorization{
		CorrelationID: "corr-empty",
		Status:        domain.AuthStatusCompleted,
	}))
	tierSource.On("GetConfig", mock.Anything, testGuild).Return(&domain.GuildTierConfig{
		GuildID: testGuild,
		Enabled: true,
		Tiers:   []domain.SubscriberTier{{MinSubscribers: 0, RoleID: "r", TierName: "Member"}},
	}, nil)

	_, err := svc.Verify(context.Background(), testGuild, "member-1", "corr-empty")

	assert.ErrorIs(t, err, domain.ErrNoLinkedChannels)
}

func TestVerify_DisabledGuild(t *testing.T) {
	repo := newMemoryAuthStore()
	tierSource := new(mockTierSource)

	svc, _ := newTestService(t, Config{Repo: repo, TierSource: tierSource})

	require.NoError(t, repo.Upsert(context.Background(), &domain.PendingAuthorization{
		CorrelationID:  "corr-off",
		Status:         domain.AuthStatusCompleted,
		LinkedAccounts: []domain.LinkedAccount{{ExternalID: "chan-1"}},
	}))
	tierSource.On("GetConfig", mock.Anything, testGuild).
		Return(&domain.GuildTierConfig{GuildID: testGuild, Enabled: false}, nil)

	_, err := svc.Verify(context.Background(), testGuild, "member-1", "corr-off")

	assert.ErrorIs(t, err, domain.ErrVerificationDisabled)
}
