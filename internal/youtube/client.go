package youtube

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/rolewarden/rolewarden/internal/domain"
)

const (
	defaultAPIBase = "https://www.googleapis.com/youtube/v3"

	// maxIDsPerRequest is the channels.list batch limit.
	maxIDsPerRequest = 50

	requestTimeout = 5 * time.Second
)

// MetricsSource reports subscriber counts for YouTube channels.
type MetricsSource interface {
	SubscriberCounts(ctx context.Context, channelIDs []string) (map[string]int64, error)
}

// Client implements MetricsSource against the YouTube Data API v3.
type Client struct {
	apiKey  string
	apiBase string
	http    *http.Client
}

// Option customizes a Client.
type Option func(*Client)

// WithAPIBase overrides the API base URL. Used by tests.
func WithAPIBase(base string) Option {
	return func(c *Client) { c.apiBase = base }
}

// NewClient creates a YouTube Data API client.
func NewClient(apiKey string, opts ...Option) *Client {
	c := &Client{
		apiKey:  apiKey,
		apiBase: defaultAPIBase,
		http:    &http.Client{Timeout: requestTimeout},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type channelListResponse struct {
	Items []struct {
		ID         string `json:"id"`
		Statistics struct {
			SubscriberCount       string `json:"subscriberCount"`
			HiddenSubscriberCount bool   `json:"hiddenSubscriberCount"`
		} `json:"statistics"`
	} `json:"items"`
}

// SubscriberCounts fetches subscriber counts for the given channel ids in one
// channels.list call per batch of 50. Channels hiding their count are
// reported as 0; ids the API does not return are absent from the result.
func (c *Client) SubscriberCounts(ctx context.Context, channelIDs []string) (map[string]int64, error) {
	counts := make(map[string]int64, len(channelIDs))

	for start := 0; start < len(channelIDs); start += maxIDsPerRequest {
		end := start + maxIDsPerRequest
		if end > len(channelIDs) {
			end = len(channelIDs)
		}
		if err := c.fetchBatch(ctx, channelIDs[start:end], counts); err != nil {
			return nil, err
		}
	}

	return counts, nil
}

func (c *Client) fetchBatch(ctx context.Context, ids []string, counts map[string]int64) error {
	log := slog.Default()

	ctx, cancel := context.WithTimeout(ctx, requestTimeout)
	defer cancel()

	q := url.Values{}
	q.Set("part", "statistics")
	q.Set("id", strings.Join(ids, ","))
	q.Set("key", c.apiKey)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.apiBase+"/channels?"+q.Encode(), nil)
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrProviderFailure, err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrProviderFailure, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("%w: channels.list returned %d", domain.ErrProviderFailure, resp.StatusCode)
	}

	var list channelListResponse
	if err := json.NewDecoder(resp.Body).Decode(&list); err != nil {
		return fmt.Errorf("%w: decoding channels.list response: %v", domain.ErrProviderFailure, err)
	}

	for _, item := range list.Items {
		if item.Statistics.HiddenSubscriberCount {
			log.Warn("Channel hides subscriber count, treating as 0", "channel_id", item.ID)
			counts[item.ID] = 0
			continue
		}

		n, err := strconv.ParseInt(item.Statistics.SubscriberCount, 10, 64)
		if err != nil {
			log.Warn("Unparseable subscriber count", "channel_id", item.ID, "value", item.Statistics.SubscriberCount)
			continue
		}
		counts[item.ID] = n
	}

	return nil
}
