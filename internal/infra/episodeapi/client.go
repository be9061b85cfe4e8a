// Package episodeapi provides a client for the podcast episode REST API.
package episodeapi

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	zlog "github.com/rs/zerolog/log"

	"github.com/osa030/podcastr/internal/domain/episode"
)

// ErrNotFound is returned when the API has no episode with the requested ID.
var ErrNotFound = errors.New("episode not found")

// Client is an episode API client.
type Client struct {
	baseURL    string
	limit      int
	sort       string
	order      string
	httpClient *http.Client
}

// Config represents episode API client configuration.
type Config struct {
	BaseURL string
	Limit   int           // _limit, 0 leaves it out
	Sort    string        // _sort field
	Order   string        // _order, "asc" or "desc"
	Timeout time.Duration // Per-request timeout
}

// New creates a new episode API client.
func New(cfg Config) (*Client, error) {
	if cfg.BaseURL == "" {
		return nil, errors.New("episode API base URL is required")
	}
	if _, err := url.ParseRequestURI(cfg.BaseURL); err != nil {
		return nil, errors.Wrap(err, "invalid episode API base URL")
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	return &Client{
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		limit:      cfg.Limit,
		sort:       cfg.Sort,
		order:      cfg.Order,
		httpClient: &http.Client{Timeout: timeout},
	}, nil
}

// ListEpisodes retrieves the episode list in display order.
// Records that cannot be converted are skipped.
func (c *Client) ListEpisodes(ctx context.Context) ([]episode.Episode, error) {
	params := url.Values{}
	if c.limit > 0 {
		params.Set("_limit", fmt.Sprintf("%d", c.limit))
	}
	if c.sort != "" {
		params.Set("_sort", c.sort)
	}
	if c.order != "" {
		params.Set("_order", c.order)
	}

	reqURL := c.baseURL + "/episodes"
	if len(params) > 0 {
		reqURL += "?" + params.Encode()
	}

	var raws []episode.Raw
	if err := c.get(ctx, reqURL, &raws); err != nil {
		return nil, err
	}

	episodes := make([]episode.Episode, 0, len(raws))
	for _, r := range raws {
		e, err := episode.FromRaw(r)
		if err != nil {
			zlog.Warn().Msgf("episodeapi: skipping record: %v", err)
			continue
		}
		episodes = append(episodes, e)
	}
	return episodes, nil
}

// GetEpisode retrieves a single episode by ID.
func (c *Client) GetEpisode(ctx context.Context, id string) (episode.Episode, error) {
	if id == "" {
		return episode.Episode{}, errors.New("episode ID is required")
	}

	var raw episode.Raw
	if err := c.get(ctx, c.baseURL+"/episodes/"+url.PathEscape(id), &raw); err != nil {
		return episode.Episode{}, err
	}
	return episode.FromRaw(raw)
}

func (c *Client) get(ctx context.Context, reqURL string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return errors.Wrap(err, "failed to create request")
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return errors.Wrap(err, "failed to send request")
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return errors.Wrap(err, "failed to read response body")
	}

	if resp.StatusCode == http.StatusNotFound {
		return ErrNotFound
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return errors.Errorf("episode API returned status %d", resp.StatusCode)
	}

	if err := json.Unmarshal(body, out); err != nil {
		return errors.Wrap(err, "failed to parse response")
	}
	return nil
}
