package client

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"
)

// Client provides HTTP client functionality to communicate with the
// time-wise daemon.
type Client struct {
	baseURL string
	client  *http.Client
	logger  *slog.Logger
}

// Config holds client configuration
type Config struct {
	BaseURL string
	Timeout time.Duration
	Logger  *slog.Logger // Optional logger for client operations
}

// DefaultConfig returns default client configuration
func DefaultConfig() Config {
	return Config{
		BaseURL: "http://127.0.0.1:8090/api",
		Timeout: 10 * time.Second,
	}
}

// New creates a new time-wise API client
func New(config Config) *Client {
	if config.BaseURL == "" {
		config.BaseURL = "http://127.0.0.1:8090/api"
	}
	if config.Timeout == 0 {
		config.Timeout = 10 * time.Second
	}
	if config.Logger == nil {
		config.Logger = slog.Default()
	}

	return &Client{
		baseURL: config.BaseURL,
		logger:  config.Logger,
		client:  &http.Client{Timeout: config.Timeout},
	}
}

// IsReachable checks if the daemon is running and reachable. The liveness
// probe lives at the server root, outside the API base path.
func (c *Client) IsReachable(ctx context.Context) bool {
	u, err := url.Parse(c.baseURL)
	if err != nil {
		c.logger.Debug("Invalid base URL for reachability check", "error", err)
		return false
	}
	u.Path = "/healthz"
	u.RawQuery = ""

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		c.logger.Debug("Failed to create request for reachability check", "error", err)
		return false
	}

	resp, err := c.client.Do(req)
	if err != nil {
		c.logger.Debug("Daemon unreachable", "error", err)
		return false
	}
	defer func() { _ = resp.Body.Close() }()

	isReachable := resp.StatusCode == http.StatusOK
	c.logger.Debug("Daemon reachability check", "reachable", isReachable, "status", resp.StatusCode)
	return isReachable
}

// Usage returns the current usage records, most used first.
func (c *Client) Usage(ctx context.Context) ([]UsageRecord, error) {
	var records []UsageRecord
	if err := c.getJSON(ctx, c.baseURL+"/usage", &records); err != nil {
		return nil, err
	}
	return records, nil
}

// Startups returns recorded startup durations, newest first.
// limit <= 0 fetches all retained records.
func (c *Client) Startups(ctx context.Context, limit int) ([]StartupRecord, error) {
	u := c.baseURL + "/startups"
	if limit > 0 {
		u += "?limit=" + strconv.Itoa(limit)
	}
	var records []StartupRecord
	if err := c.getJSON(ctx, u, &records); err != nil {
		return nil, err
	}
	return records, nil
}

// Summary returns the assembled dashboard summary.
func (c *Client) Summary(ctx context.Context) (*Summary, error) {
	var summary Summary
	if err := c.getJSON(ctx, c.baseURL+"/summary", &summary); err != nil {
		return nil, err
	}
	return &summary, nil
}

// getJSON performs a GET request and decodes the JSON response into out.
func (c *Client) getJSON(ctx context.Context, url string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		c.logger.Error("HTTP request failed", "error", err, "url", url)
		return fmt.Errorf("do request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		var errorResp ErrorResponse
		if err := json.NewDecoder(resp.Body).Decode(&errorResp); err != nil {
			c.logger.Error("Failed to decode error response", "status", resp.StatusCode)
			return fmt.Errorf("HTTP %d", resp.StatusCode)
		}
		c.logger.Error("API request failed", "error", errorResp.Error, "status", resp.StatusCode)
		return fmt.Errorf("API error: %s", errorResp.Error)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
