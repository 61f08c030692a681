package main

import (
	"context"
	"fmt"
	"time"

	"github.com/9renpoto/time-wise/pkg/client"
)

// defaultAPIUrl matches the daemon's default [server] listen address.
const defaultAPIUrl = "http://127.0.0.1:8090/api"

// command bundles the query handlers behind the cobra constructors.
type command struct{}

// dial builds a client for apiUrl and verifies the daemon answers.
func (c command) dial(ctx context.Context, apiUrl string, timeout time.Duration) (*client.Client, error) {
	// Always use API - default to local daemon if not specified
	if apiUrl == "" {
		apiUrl = defaultAPIUrl
	}

	apiClient := client.New(client.Config{BaseURL: apiUrl, Timeout: timeout})
	if !apiClient.IsReachable(ctx) {
		return nil, fmt.Errorf("daemon not reachable at %s - please start daemon first with 'timewise serve'", apiUrl)
	}
	return apiClient, nil
}

// Usage prints accumulated active time per application.
func (c command) Usage(f UsageFlags) error {
	ctx := context.Background()
	apiClient, err := c.dial(ctx, f.APIUrl, f.APITimeout)
	if err != nil {
		return err
	}

	records, err := apiClient.Usage(ctx)
	if err != nil {
		return err
	}
	printJSON(records)
	return nil
}

// Startups prints stored startup measurements, newest first.
func (c command) Startups(f StartupsFlags) error {
	if f.Limit < 0 {
		return fmt.Errorf("--limit must not be negative")
	}

	ctx := context.Background()
	apiClient, err := c.dial(ctx, f.APIUrl, f.APITimeout)
	if err != nil {
		return err
	}

	records, err := apiClient.Startups(ctx, f.Limit)
	if err != nil {
		return err
	}
	printJSON(records)
	return nil
}

// Summary prints the dashboard summary.
func (c command) Summary(f SummaryFlags) error {
	ctx := context.Background()
	apiClient, err := c.dial(ctx, f.APIUrl, f.APITimeout)
	if err != nil {
		return err
	}

	summary, err := apiClient.Summary(ctx)
	if err != nil {
		return err
	}
	printJSON(summary)
	return nil
}
