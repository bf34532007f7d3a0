// Package client talks to The Odds API v4.
package client

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/crops004/supercontest/internal/feed"
	"github.com/crops004/supercontest/internal/metrics"
)

// Options configures an odds fetch.
type Options struct {
	Regions    string
	Bookmakers string
	OddsFormat string
}

// Client is The Odds API client
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	maxRetries int
	retryDelay time.Duration
}

// NewClient creates a new Odds API client with a bounded request timeout
func NewClient(baseURL, apiKey string, timeout time.Duration) *Client {
	return &Client{
		baseURL:    baseURL,
		apiKey:     apiKey,
		maxRetries: 3,
		retryDelay: 1 * time.Second,
		httpClient: &http.Client{
			Timeout: timeout,
			Transport: &http.Transport{
				MaxIdleConns:        20,
				MaxIdleConnsPerHost: 5,
				IdleConnTimeout:     90 * time.Second,
			},
		},
	}
}

// get performs a GET request with retry on transient failures. The API
// key always travels as a query parameter, per The Odds API contract.
func (c *Client) get(ctx context.Context, path string, params map[string]string) ([]byte, error) {
	url := fmt.Sprintf("%s%s", c.baseURL, path)

	var lastErr error
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if attempt > 0 {
			backoff := c.retryDelay * time.Duration(1<<uint(attempt-1))
			log.Info().
				Str("url", url).
				Int("attempt", attempt).
				Dur("backoff", backoff).
				Msg("Retrying API request after backoff")

			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(backoff):
			}
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return nil, fmt.Errorf("failed to create request: %w", err)
		}

		q := req.URL.Query()
		q.Set("apiKey", c.apiKey)
		for key, value := range params {
			q.Set(key, value)
		}
		req.URL.RawQuery = q.Encode()
		req.Header.Set("Accept", "application/json")

		start := time.Now()
		resp, err := c.httpClient.Do(req)
		if err != nil {
			metrics.RecordAPICall(path, "error", time.Since(start).Seconds())
			lastErr = fmt.Errorf("API request failed: %w", err)
			if attempt < c.maxRetries {
				continue
			}
			return nil, lastErr
		}

		body, err := io.ReadAll(resp.Body)
		resp.Body.Close()
		if err != nil {
			lastErr = fmt.Errorf("failed to read response body: %w", err)
			if attempt < c.maxRetries {
				continue
			}
			return nil, lastErr
		}

		// The Odds API bills per request; keep an eye on remaining quota.
		if rem := resp.Header.Get("x-requests-remaining"); rem != "" {
			log.Debug().Str("remaining", rem).Str("path", path).Msg("Odds API quota")
		}

		metrics.RecordAPICall(path, fmt.Sprintf("%d", resp.StatusCode), time.Since(start).Seconds())

		switch resp.StatusCode {
		case http.StatusOK:
			return body, nil

		case http.StatusTooManyRequests, http.StatusServiceUnavailable, http.StatusGatewayTimeout:
			lastErr = fmt.Errorf("API returned retryable status %d: %s", resp.StatusCode, string(body))
			if attempt < c.maxRetries {
				log.Warn().
					Str("url", url).
					Int("status", resp.StatusCode).
					Int("attempt", attempt+1).
					Msg("Received retryable error, will retry")
				continue
			}
			return nil, lastErr

		case http.StatusUnauthorized, http.StatusForbidden:
			return nil, fmt.Errorf("API authentication failed (status %d): %s", resp.StatusCode, string(body))

		default:
			return nil, fmt.Errorf("API returned status %d: %s", resp.StatusCode, string(body))
		}
	}

	return nil, lastErr
}

// FetchOdds fetches current spread quotes for a sport
func (c *Client) FetchOdds(ctx context.Context, sportKey string, opts Options) ([]feed.OddsEvent, error) {
	params := map[string]string{
		"markets": "spreads",
	}
	if opts.Regions != "" {
		params["regions"] = opts.Regions
	}
	if opts.Bookmakers != "" {
		params["bookmakers"] = opts.Bookmakers
	}
	if opts.OddsFormat != "" {
		params["oddsFormat"] = opts.OddsFormat
	}

	body, err := c.get(ctx, fmt.Sprintf("/sports/%s/odds", sportKey), params)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch odds: %w", err)
	}

	var events []feed.OddsEvent
	if err := json.Unmarshal(body, &events); err != nil {
		return nil, fmt.Errorf("failed to unmarshal odds: %w", err)
	}
	return events, nil
}

// FetchScores fetches recent scores for a sport. The endpoint supports
// only daysFrom in 1..3, so the value is clamped.
func (c *Client) FetchScores(ctx context.Context, sportKey string, daysFrom int) ([]feed.ScoreEvent, error) {
	if daysFrom < 1 {
		daysFrom = 1
	}
	if daysFrom > 3 {
		daysFrom = 3
	}

	params := map[string]string{
		"daysFrom":   fmt.Sprintf("%d", daysFrom),
		"dateFormat": "iso",
	}

	body, err := c.get(ctx, fmt.Sprintf("/sports/%s/scores", sportKey), params)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch scores: %w", err)
	}

	var events []feed.ScoreEvent
	if err := json.Unmarshal(body, &events); err != nil {
		return nil, fmt.Errorf("failed to unmarshal scores: %w", err)
	}
	return events, nil
}
