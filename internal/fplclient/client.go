// Package fplclient fetches player, club, fixture, and per-player history
// data from the fantasy league API. The per-player history endpoint is hit
// once per candidate, so those calls run as a bounded-parallel fan-out with
// per-request retry and backoff.
package fplclient

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/fplopt/squad-optimizer/pkg/constants"
)

// Element is one player record from the bootstrap endpoint.
type Element struct {
	ID          int    `json:"id"`
	WebName     string `json:"web_name"`
	Team        int    `json:"team"`
	ElementType int    `json:"element_type"`
	NowCost     int    `json:"now_cost"`
	TotalPoints int    `json:"total_points"`
	Minutes     int    `json:"minutes"`
}

// Team is one club record from the bootstrap endpoint.
type Team struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

// Bootstrap is the static league snapshot: all players and clubs.
type Bootstrap struct {
	Elements []Element `json:"elements"`
	Teams    []Team    `json:"teams"`
}

// Fixture is one upcoming match with the league's difficulty ratings.
type Fixture struct {
	TeamA           int `json:"team_a"`
	TeamH           int `json:"team_h"`
	TeamADifficulty int `json:"team_a_difficulty"`
	TeamHDifficulty int `json:"team_h_difficulty"`
}

// GameweekPoints is one past gameweek's score for a player.
type GameweekPoints struct {
	TotalPoints int `json:"total_points"`
}

type elementSummary struct {
	History []GameweekPoints `json:"history"`
}

// Client talks to the fantasy league API.
type Client struct {
	httpClient  *http.Client
	baseURL     string
	logger      *zap.Logger
	concurrency int
	retries     int
	backoff     time.Duration
}

// Option adjusts a Client.
type Option func(*Client)

// WithBaseURL points the client at a different API root, e.g. a test server.
func WithBaseURL(url string) Option {
	return func(c *Client) { c.baseURL = url }
}

// WithHTTPClient swaps the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithConcurrency bounds the history fan-out worker count.
func WithConcurrency(n int) Option {
	return func(c *Client) {
		if n > 0 {
			c.concurrency = n
		}
	}
}

// WithRetries sets the attempts per request.
func WithRetries(n int) Option {
	return func(c *Client) {
		if n > 0 {
			c.retries = n
		}
	}
}

// WithBackoff sets the base delay between retry attempts.
func WithBackoff(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.backoff = d
		}
	}
}

// New constructs a Client with league defaults.
func New(logger *zap.Logger, opts ...Option) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	c := &Client{
		httpClient:  &http.Client{Timeout: 30 * time.Second},
		baseURL:     constants.DefaultAPIBaseURL,
		logger:      logger,
		concurrency: constants.DefaultAPIConcurrency,
		retries:     constants.DefaultAPIRetries,
		backoff:     500 * time.Millisecond,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Bootstrap fetches the static league snapshot.
func (c *Client) Bootstrap(ctx context.Context) (*Bootstrap, error) {
	var boot Bootstrap
	if err := c.getJSON(ctx, "/bootstrap-static/", &boot); err != nil {
		return nil, fmt.Errorf("failed to fetch bootstrap data: %w", err)
	}
	return &boot, nil
}

// Fixtures fetches the fixture list with difficulty ratings.
func (c *Client) Fixtures(ctx context.Context) ([]Fixture, error) {
	var fixtures []Fixture
	if err := c.getJSON(ctx, "/fixtures/", &fixtures); err != nil {
		return nil, fmt.Errorf("failed to fetch fixtures: %w", err)
	}
	return fixtures, nil
}

// PlayerHistory fetches one player's past gameweek scores.
func (c *Client) PlayerHistory(ctx context.Context, playerID int) ([]GameweekPoints, error) {
	var summary elementSummary
	path := fmt.Sprintf("/element-summary/%d/", playerID)
	if err := c.getJSON(ctx, path, &summary); err != nil {
		return nil, fmt.Errorf("failed to fetch history for player %d: %w", playerID, err)
	}
	return summary.History, nil
}

// Histories fetches gameweek history for every given player ID with a
// bounded worker pool. The first hard failure cancels the remaining fetches.
func (c *Client) Histories(ctx context.Context, playerIDs []int) (map[int][]GameweekPoints, error) {
	results := make(map[int][]GameweekPoints, len(playerIDs))
	var mu sync.Mutex

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(c.concurrency)

	c.logger.Debug("fetching player histories",
		zap.String("op", "fplclient.Histories"),
		zap.Int("players", len(playerIDs)),
		zap.Int("workers", c.concurrency),
	)

	for _, id := range playerIDs {
		id := id
		g.Go(func() error {
			history, err := c.PlayerHistory(ctx, id)
			if err != nil {
				return err
			}
			mu.Lock()
			results[id] = history
			mu.Unlock()
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

// getJSON performs a GET with retry and exponential backoff, decoding the
// response body as JSON into out.
func (c *Client) getJSON(ctx context.Context, path string, out interface{}) error {
	var lastErr error
	for attempt := 0; attempt < c.retries; attempt++ {
		if attempt > 0 {
			delay := c.backoff << (attempt - 1)
			c.logger.Debug("retrying request",
				zap.String("op", "fplclient.getJSON"),
				zap.String("path", path),
				zap.Int("attempt", attempt+1),
				zap.Duration("delay", delay),
			)
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(delay):
			}
		}

		lastErr = c.attempt(ctx, path, out)
		if lastErr == nil {
			return nil
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
	}
	return fmt.Errorf("request %s failed after %d attempts: %w", path, c.retries, lastErr)
}

func (c *Client) attempt(ctx context.Context, path string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return err
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer func() {
		_, _ = io.Copy(io.Discard, resp.Body)
		_ = resp.Body.Close()
	}()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status %d", resp.StatusCode)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
