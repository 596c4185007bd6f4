package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rolewarden/rolewarden/internal/domain"
)

func setRequiredEnv(t *testing.T) {
	t.Helper()
	t.Setenv("DISCORD_TOKEN", "token")
	t.Setenv("DISCORD_APP_ID", "12345")
	t.Setenv("OAUTH_CLIENT_ID", "client")
	t.Setenv("OAUTH_CLIENT_SECRET", "secret")
	t.Setenv("OAUTH_REDIRECT_URI", "https://example.com/oauth/callback")
	t.Setenv("STATE_SECRET", "signing-secret")
	t.Setenv("YOUTUBE_API_KEY", "yt-key")
}

func TestLoadDefaults(t *testing.T) {
	setRequiredEnv(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Port)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "rolewarden", cfg.DBName)
	assert.Equal(t, DefaultWaitTimeout, cfg.WaitTimeout)
	assert.Equal(t, DefaultPollInterval, cfg.PollInterval)
	assert.Equal(t, DefaultPendingTTL, cfg.PendingTTL)
}

func TestLoadMissingSecrets(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("STATE_SECRET", "")
	t.Setenv("YOUTUBE_API_KEY", "")

	_, err := Load()
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrMissingConfiguration)
	assert.Contains(t, err.Error(), "STATE_SECRET")
	assert.Contains(t, err.Error(), "YOUTUBE_API_KEY")
}

func TestLoadInvalidPort(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("PORT", "not-a-port")

	_, err := Load()
	assert.Error(t, err)
}

func TestLoadDurationOverride(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("VERIFY_WAIT_TIMEOUT", "90s")
	t.Setenv("VERIFY_POLL_INTERVAL", "5s")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 90*time.Second, cfg.WaitTimeout)
	assert.Equal(t, 5*time.Second, cfg.PollInterval)
}

func TestLoadInvalidDuration(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("PENDING_AUTH_TTL", "soon")

	_, err := Load()
	assert.Error(t, err)
}

func TestGetDBConnString(t *testing.T) {
	cfg := &Config{
		DBUser:     "user",
		DBPassword: "pass",
		DBHost:     "db",
		DBPort:     "5432",
		DBName:     "rolewarden",
	}

	assert.Equal(t, "postgres://user:pass@db:5432/rolewarden?sslmode=disable", cfg.GetDBConnString())
}
