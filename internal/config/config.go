package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/rolewarden/rolewarden/internal/domain"
)

// Config holds the application configuration
type Config struct {
	Port        int
	LogLevel    string
	LogFormat   string
	Environment string
	Version     string

	DBUser     string
	DBPassword string
	DBHost     string
	DBPort     string
	DBName     string

	DiscordToken string
	DiscordAppID string

	// OAuth2 settings for the verification flow
	OAuthClientID     string
	OAuthClientSecret string
	OAuthRedirectURI  string
	StateSecret       string

	YouTubeAPIKey string

	// Verification flow tuning
	WaitTimeout  time.Duration
	PollInterval time.Duration
	PendingTTL   time.Duration
}

// Load loads the configuration from environment variables
func Load() (*Config, error) {
	// Load .env file if it exists, but don't fail if it doesn't (could be real env vars)
	_ = godotenv.Load()

	cfg := &Config{
		LogLevel:    getEnv("LOG_LEVEL", "info"),
		LogFormat:   getEnv("LOG_FORMAT", "text"),
		Environment: getEnv("ENVIRONMENT", "dev"),
		Version:     getEnv("VERSION", "dev"),

		DBUser:     getEnv("DB_USER", "postgres"),
		DBPassword: getEnv("DB_PASSWORD", "postgres"),
		DBHost:     getEnv("DB_HOST", "localhost"),
		DBPort:     getEnv("DB_PORT", "5432"),
		DBName:     getEnv("DB_NAME", "rolewarden"),

		DiscordToken: os.Getenv("DISCORD_TOKEN"),
		DiscordAppID: os.Getenv("DISCORD_APP_ID"),

		OAuthClientID:     os.Getenv("OAUTH_CLIENT_ID"),
		OAuthClientSecret: os.Getenv("OAUTH_CLIENT_SECRET"),
		OAuthRedirectURI:  os.Getenv("OAUTH_REDIRECT_URI"),
		StateSecret:       os.Getenv("STATE_SECRET"),

		YouTubeAPIKey: os.Getenv("YOUTUBE_API_KEY"),
	}

	portStr := getEnv("PORT", "8080")
	port, err := strconv.Atoi(portStr)
	if err != nil {
		return nil, fmt.Errorf("invalid PORT value: %w", err)
	}
	cfg.Port = port

	cfg.WaitTimeout, err = getDurationEnv("VERIFY_WAIT_TIMEOUT", DefaultWaitTimeout)
	if err != nil {
		return nil, err
	}
	cfg.PollInterval, err = getDurationEnv("VERIFY_POLL_INTERVAL", DefaultPollInterval)
	if err != nil {
		return nil, err
	}
	cfg.PendingTTL, err = getDurationEnv("PENDING_AUTH_TTL", DefaultPendingTTL)
	if err != nil {
		return nil, err
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// validate ensures every secret the verification flow depends on is present.
// A missing secret is a configuration error, reported before any user-facing
// work starts.
func (c *Config) validate() error {
	var missing []string

	required := []struct {
		name, value string
	}{
		{"DISCORD_TOKEN", c.DiscordToken},
		{"DISCORD_APP_ID", c.DiscordAppID},
		{"OAUTH_CLIENT_ID", c.OAuthClientID},
		{"OAUTH_CLIENT_SECRET", c.OAuthClientSecret},
		{"OAUTH_REDIRECT_URI", c.OAuthRedirectURI},
		{"STATE_SECRET", c.StateSecret},
		{"YOUTUBE_API_KEY", c.YouTubeAPIKey},
	}
	for _, r := range required {
		if r.value == "" {
			missing = append(missing, r.name)
		}
	}

	if len(missing) > 0 {
		return fmt.Errorf("%w: %s", domain.ErrMissingConfiguration, strings.Join(missing, ", "))
	}
	return nil
}

// getEnv retrieves an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

// getDurationEnv retrieves a duration environment variable or returns a default
func getDurationEnv(key string, defaultValue time.Duration) (time.Duration, error) {
	value, exists := os.LookupEnv(key)
	if !exists {
		return defaultValue, nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s value: %w", key, err)
	}
	return d, nil
}

// GetDBConnString returns the PostgreSQL connection string
func (c *Config) GetDBConnString() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=disable",
		c.DBUser,
		c.DBPassword,
		c.DBHost,
		c.DBPort,
		c.DBName,
	)
}
