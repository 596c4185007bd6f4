package oauth

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"golang.org/x/oauth2"

	"github.com/rolewarden/rolewarden/internal/domain"
)

const (
	defaultAPIBase = "https://discord.com/api/v10"
	authURL        = "https://discord.com/api/oauth2/authorize"
	tokenURL       = "https://discord.com/api/oauth2/token"

	// ConnectionTypeYouTube is the provider connection type the verification
	// flow filters for.
	ConnectionTypeYouTube = "youtube"

	requestTimeout = 5 * time.Second
)

// Identity is the authenticated user returned by the provider's /users/@me.
type Identity struct {
	ID            string `json:"id"`
	Username      string `json:"username"`
	Avatar        string `json:"avatar"`
	Discriminator string `json:"discriminator"`
}

// Connection is one linked external account from /users/@me/connections.
type Connection struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Type     string `json:"type"`
	Verified bool   `json:"verified"`
}

// Provider abstracts the OAuth2 provider for the verification flow.
type Provider interface {
	AuthorizationURL(state string) string
	Exchange(ctx context.Context, code string) (*oauth2.Token, error)
	FetchIdentity(ctx context.Context, accessToken string) (*Identity, error)
	FetchConnections(ctx context.Context, accessToken string) ([]Connection, error)
}

// Client implements Provider against Discord's OAuth2 and REST endpoints.
type Client struct {
	conf    *oauth2.Config
	apiBase string
	http    *http.Client
}

// Option customizes a Client.
type Option func(*Client)

// WithAPIBase overrides the REST API base URL. Used by tests.
func WithAPIBase(base string) Option {
	return func(c *Client) { c.apiBase = base }
}

// WithHTTPClient overrides the HTTP client used for identity and connection
// fetches.
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) { c.http = h }
}

// NewClient creates a provider client for the given application credentials.
func NewClient(clientID, clientSecret, redirectURI string, opts ...Option) *Client {
	c := &Client{
		conf: &oauth2.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			RedirectURL:  redirectURI,
			Scopes:       []string{"identify", "connections"},
			Endpoint: oauth2.Endpoint{
				AuthURL:   authURL,
				TokenURL:  tokenURL,
				AuthStyle: oauth2.AuthStyleInParams,
			},
		},
		apiBase: defaultAPIBase,
		http:    &http.Client{Timeout: requestTimeout},
	}

	for _, opt := range opts {
		opt(c)
	}
	return c
}

// AuthorizationURL builds the provider authorize URL carrying the signed
// state token. Pure construction, no network call.
func (c *Client) AuthorizationURL(state string) string {
	return c.conf.AuthCodeURL(state)
}

// Exchange trades an authorization code for a token pair. Codes are
// single-use; a failed exchange is never retried here.
func (c *Client) Exchange(ctx context.Context, code string) (*oauth2.Token, error) {
	ctx, cancel := context.WithTimeout(ctx, requestTimeout)
	defer cancel()

	tok, err := c.conf.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("%w: token exchange: %v", domain.ErrProviderFailure, err)
	}
	return tok, nil
}

// FetchIdentity returns the authenticated user for the given access token.
func (c *Client) FetchIdentity(ctx context.Context, accessToken string) (*Identity, error) {
	var identity Identity
	if err := c.getJSON(ctx, "/users/@me", accessToken, &identity); err != nil {
		return nil, err
	}
	return &identity, nil
}

// FetchConnections returns every linked external account for the given access
// token. Filtering to a connection type is the caller's concern.
func (c *Client) FetchConnections(ctx context.Context, accessToken string) ([]Connection, error) {
	var connections []Connection
	if err := c.getJSON(ctx, "/users/@me/connections", accessToken, &connections); err != nil {
		return nil, err
	}
	return connections, nil
}

func (c *Client) getJSON(ctx context.Context, path, accessToken string, out interface{}) error {
	ctx, cancel := context.WithTimeout(ctx, requestTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.apiBase+path, nil)
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrProviderFailure, err)
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrProviderFailure, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		// Drain so the connection can be reused; the body is not surfaced to
		// avoid leaking provider payloads into user-visible errors.
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("%w: GET %s returned %d", domain.ErrProviderFailure, path, resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%w: decoding %s response: %v", domain.ErrProviderFailure, path, err)
	}
	return nil
}

// FilterConnections returns the connections matching the given type, ordered
// as the provider returned them.
func FilterConnections(connections []Connection, connType string) []domain.LinkedAccount {
	var accounts []domain.LinkedAccount
	for _, conn := range connections {
		if conn.Type == connType {
			accounts = append(accounts, domain.LinkedAccount{
				ExternalID:  conn.ID,
				DisplayName: conn.Name,
			})
		}
	}
	return accounts
}
