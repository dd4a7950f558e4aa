// Package provider implements the HTTP client for the upstream sports-data
// API: upcoming fixtures, team rosters and per-entity season game logs.
package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	gocache "github.com/patrickmn/go-cache"
	"github.com/sirupsen/logrus"
	"github.com/yourusername/prop-scout/internal/metrics"
	"github.com/yourusername/prop-scout/internal/models"
)

// maxPages caps cursor-following so a misbehaving upstream cannot loop a
// refresh forever.
const maxPages = 20

// Config holds client configuration for the sports-data API.
type Config struct {
	BaseURL   string
	APIKey    string
	Transport TransportConfig
	CacheTTL  time.Duration
}

// Client talks to the sports-data API. Roster and game-log responses are
// memoized in a TTL cache because the same teams and players recur across
// the fixtures of one refresh and across closely spaced refreshes.
type Client struct {
	baseURL   string
	apiKey    string
	transport *Transport
	memo      *gocache.Cache
	logger    *logrus.Logger
}

// NewClient creates a sports-data API client.
func NewClient(cfg Config, logger *logrus.Logger) *Client {
	ttl := cfg.CacheTTL
	if ttl <= 0 {
		ttl = 15 * time.Minute
	}
	return &Client{
		baseURL:   cfg.BaseURL,
		apiKey:    cfg.APIKey,
		transport: NewTransport(cfg.Transport, logger),
		memo:      gocache.New(ttl, 2*ttl),
		logger:    logger,
	}
}

// FetchUpcomingFixtures returns up to limit upcoming fixtures for a sport.
func (c *Client) FetchUpcomingFixtures(ctx context.Context, sport models.Sport, limit int) ([]Fixture, error) {
	path := fmt.Sprintf("/v1/%s/fixtures/upcoming", sport)
	query := url.Values{}
	if limit > 0 {
		query.Set("limit", fmt.Sprintf("%d", limit))
	}

	var fixtures []Fixture
	err := c.paginate(ctx, path, query, func(body []byte) (string, error) {
		var page fixturesResponse
		if err := json.Unmarshal(body, &page); err != nil {
			return "", fmt.Errorf("failed to decode fixtures page: %w", err)
		}
		fixtures = append(fixtures, page.Data...)
		return page.Meta.NextCursor, nil
	})
	if err != nil {
		return nil, err
	}
	if limit > 0 && len(fixtures) > limit {
		fixtures = fixtures[:limit]
	}
	return fixtures, nil
}

// FetchRoster returns the active roster for a team.
func (c *Client) FetchRoster(ctx context.Context, sport models.Sport, teamID string) ([]Player, error) {
	memoKey := fmt.Sprintf("roster:%s:%s", sport, teamID)
	if cached, found := c.memo.Get(memoKey); found {
		return cached.([]Player), nil
	}

	path := fmt.Sprintf("/v1/%s/teams/%s/roster", sport, teamID)
	var players []Player
	err := c.paginate(ctx, path, url.Values{}, func(body []byte) (string, error) {
		var page rosterResponse
		if err := json.Unmarshal(body, &page); err != nil {
			return "", fmt.Errorf("failed to decode roster page: %w", err)
		}
		players = append(players, page.Data...)
		return page.Meta.NextCursor, nil
	})
	if err != nil {
		return nil, err
	}

	c.memo.SetDefault(memoKey, players)
	return players, nil
}

// FetchSeasonObservations returns every completed-game log for one entity
// (player or team) in a season.
func (c *Client) FetchSeasonObservations(ctx context.Context, sport models.Sport, entityID, season string) ([]models.GameLog, error) {
	memoKey := fmt.Sprintf("gamelogs:%s:%s:%s", sport, entityID, season)
	if cached, found := c.memo.Get(memoKey); found {
		return cached.([]models.GameLog), nil
	}

	path := fmt.Sprintf("/v1/%s/entities/%s/game-logs", sport, entityID)
	query := url.Values{}
	if season != "" {
		query.Set("season", season)
	}

	var logs []models.GameLog
	err := c.paginate(ctx, path, query, func(body []byte) (string, error) {
		var page gameLogsResponse
		if err := json.Unmarshal(body, &page); err != nil {
			return "", fmt.Errorf("failed to decode game logs page: %w", err)
		}
		for _, rec := range page.Data {
			logs = append(logs, rec.toModel())
		}
		return page.Meta.NextCursor, nil
	})
	if err != nil {
		return nil, err
	}

	c.memo.SetDefault(memoKey, logs)
	return logs, nil
}

// Close releases transport resources.
func (c *Client) Close() error {
	return c.transport.Close()
}

// paginate fetches path repeatedly, threading the opaque next_cursor token
// until the upstream stops returning one.
func (c *Client) paginate(ctx context.Context, path string, query url.Values, consume func(body []byte) (next string, err error)) error {
	cursor := ""
	for page := 0; page < maxPages; page++ {
		q := url.Values{}
		for k, vs := range query {
			q[k] = vs
		}
		if cursor != "" {
			q.Set("cursor", cursor)
		}

		body, err := c.get(ctx, path, q)
		if err != nil {
			return err
		}

		next, err := consume(body)
		if err != nil {
			return err
		}
		if next == "" {
			return nil
		}
		cursor = next
	}
	return fmt.Errorf("pagination for %s exceeded %d pages", path, maxPages)
}

func (c *Client) get(ctx context.Context, path string, query url.Values) ([]byte, error) {
	endpoint := c.baseURL + path
	if encoded := query.Encode(); encoded != "" {
		endpoint += "?" + encoded
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", c.apiKey)
	}

	resp, err := c.transport.Do(ctx, req)
	if err != nil {
		metrics.RecordUpstreamRequest(path, "error")
		return nil, err
	}
	defer resp.Body.Close()

	metrics.RecordUpstreamRequest(path, fmt.Sprintf("%d", resp.StatusCode))

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, NewUpstreamError(resp.StatusCode, string(body), endpoint)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}
	return body, nil
}
