// Package discord implements read access to Discord's REST API for
// archival: guild and channel discovery and paginated message history,
// with rate-limit obedience built in.
package discord

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

	"github.com/sankethshetty99/discord-archiver/internal/retry"
)

const (
	defaultBaseURL = "https://discord.com/api/v10"

	// pageLimit is the maximum message count the history endpoint returns
	// per request.
	pageLimit = 100

	// maxAttempts bounds retries for failures other than rate limiting.
	maxAttempts = 3
)

// Client is a Discord REST API client authenticated as a bot.
type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
	log        *slog.Logger
	sleep      func(ctx context.Context, d time.Duration) error
}

// Option customizes a Client.
type Option func(*Client)

// WithBaseURL overrides the API base URL. Used by tests.
func WithBaseURL(baseURL string) Option {
	return func(c *Client) {
		c.baseURL = strings.TrimSuffix(baseURL, "/")
	}
}

// WithHTTPClient substitutes the underlying HTTP client.
func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *Client) {
		c.httpClient = httpClient
	}
}

// WithSleep substitutes the wait function used for rate-limit pauses and
// retry backoff. Tests record waits instead of sleeping.
func WithSleep(sleep func(ctx context.Context, d time.Duration) error) Option {
	return func(c *Client) {
		c.sleep = sleep
	}
}

// NewClient creates a Discord client for the given bot token.
func NewClient(token string, log *slog.Logger, opts ...Option) (*Client, error) {
	if token == "" {
		return nil, fmt.Errorf("discord bot token is required")
	}
	if log == nil {
		log = slog.Default()
	}

	c := &Client{
		baseURL: defaultBaseURL,
		token:   token,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		log:   log.With("component", "discord_client"),
		sleep: retry.Wait,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// ListGuilds returns the guilds the bot belongs to, with the Direct
// Messages pseudo-guild appended last.
func (c *Client) ListGuilds(ctx context.Context) ([]Guild, error) {
	var guilds []Guild
	if err := c.get(ctx, "/users/@me/guilds", nil, &guilds); err != nil {
		return nil, fmt.Errorf("list guilds: %w", err)
	}

	guilds = append(guilds, Guild{ID: DirectMessagesGuildID, Name: "Direct Messages"})
	return guilds, nil
}

// ListChannels returns a guild's text and announcement channels in source
// order, each labeled with its parent category's name or "Uncategorized"
// when the parent is absent or unknown.
//
// Listing the Direct Messages pseudo-guild returns no channels; DM
// archiving is not implemented yet.
func (c *Client) ListChannels(ctx context.Context, guildID string) ([]Channel, error) {
	if guildID == DirectMessagesGuildID {
		c.log.DebugContext(ctx, "Direct message listing requested, returning empty set")
		return nil, nil
	}

	var raw []apiChannel
	if err := c.get(ctx, "/guilds/"+guildID+"/channels", nil, &raw); err != nil {
		return nil, fmt.Errorf("list channels for guild %s: %w", guildID, err)
	}

	categories := make(map[string]string)
	for _, ch := range raw {
		if ch.Type == channelTypeCategory {
			categories[ch.ID] = ch.Name
		}
	}

	var channels []Channel
	for _, ch := range raw {
		if ch.Type != channelTypeText && ch.Type != channelTypeAnnouncement {
			continue
		}
		category, ok := categories[ch.ParentID]
		if !ok {
			category = "Uncategorized"
		}
		channels = append(channels, Channel{ID: ch.ID, Name: ch.Name, Category: category})
	}

	c.log.DebugContext(ctx, "Listed guild channels", "guild_id", guildID, "count", len(channels))
	return channels, nil
}

// ChannelMessages fetches one page of a channel's history: up to limit
// messages strictly older than beforeID (or the newest messages when
// beforeID is empty), newest first.
func (c *Client) ChannelMessages(ctx context.Context, channelID string, limit int, beforeID string) ([]Message, error) {
	params := url.Values{}
	params.Set("limit", strconv.Itoa(limit))
	if beforeID != "" {
		params.Set("before", beforeID)
	}

	var msgs []Message
	if err := c.get(ctx, "/channels/"+channelID+"/messages", params, &msgs); err != nil {
		return nil, fmt.Errorf("fetch messages for channel %s: %w", channelID, err)
	}
	return msgs, nil
}

// AllChannelMessages walks a channel's entire history and returns it
// newest-first. Pages are fetched lazily: each request passes the last
// message id of the previous batch as the "before" cursor, and the walk
// stops at the first empty batch.
func (c *Client) AllChannelMessages(ctx context.Context, channelID string) ([]Message, error) {
	var all []Message
	beforeID := ""

	for {
		batch, err := c.ChannelMessages(ctx, channelID, pageLimit, beforeID)
		if err != nil {
			return nil, err
		}
		if len(batch) == 0 {
			break
		}

		all = append(all, batch...)
		beforeID = batch[len(batch)-1].ID

		c.log.DebugContext(ctx, "Fetched message batch",
			"channel_id", channelID, "batch_size", len(batch), "total", len(all))
	}

	return all, nil
}

// get performs a GET request with bounded retries. Rate-limit responses are
// handled inside a single attempt and never consume the retry budget.
func (c *Client) get(ctx context.Context, path string, params url.Values, out any) error {
	cfg := retry.Config{
		MaxAttempts: maxAttempts,
		Backoff:     retry.ExponentialBackoff,
		Sleep:       c.sleep,
	}

	return retry.Do(ctx, cfg, func(ctx context.Context) error {
		return c.getOnce(ctx, path, params, out)
	})
}

// getOnce performs one logical request. On a 429 it sleeps for the
// server-declared duration and reissues the same request, without limit.
func (c *Client) getOnce(ctx context.Context, path string, params url.Values, out any) error {
	for {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
		if err != nil {
			return fmt.Errorf("create request: %w", err)
		}
		if len(params) > 0 {
			req.URL.RawQuery = params.Encode()
		}
		req.Header.Set("Authorization", "Bot "+c.token)
		req.Header.Set("Content-Type", "application/json")

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return fmt.Errorf("do request: %w", err)
		}

		body, err := io.ReadAll(resp.Body)
		closeErr := resp.Body.Close()
		if err != nil {
			return fmt.Errorf("read response: %w", err)
		}
		if closeErr != nil {
			c.log.WarnContext(ctx, "Error closing response body", "error", closeErr)
		}

		if resp.StatusCode == http.StatusTooManyRequests {
			wait := parseRetryAfter(body)
			c.log.WarnContext(ctx, "Rate limited, waiting before retry", "path", path, "retry_after", wait)
			if err := c.sleep(ctx, wait); err != nil {
				return fmt.Errorf("rate limit wait: %w", err)
			}
			continue
		}

		if resp.StatusCode != http.StatusOK {
			return fmt.Errorf("unexpected status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
		}

		if out != nil {
			if err := json.Unmarshal(body, out); err != nil {
				return fmt.Errorf("unmarshal response: %w", err)
			}
		}
		return nil
	}
}

// parseRetryAfter reads the wait duration from a 429 body. The server sends
// fractional seconds; a missing or malformed value falls back to one second.
func parseRetryAfter(body []byte) time.Duration {
	var payload struct {
		RetryAfter float64 `json:"retry_after"`
	}
	if err := json.Unmarshal(body, &payload); err != nil || payload.RetryAfter <= 0 {
		return time.Second
	}
	return time.Duration(payload.RetryAfter * float64(time.Second))
}
