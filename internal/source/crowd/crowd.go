// Package crowd adapts the bearer-token crowd-levels API.
package crowd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/moodscout/moodscout/internal/core/model"
	"github.com/moodscout/moodscout/internal/core/observability"
	"github.com/moodscout/moodscout/internal/source"
)

type Client struct {
	logger  *slog.Logger
	http    *http.Client
	apiKey  string
	baseURL string
}

var _ source.CrowdSource = (*Client)(nil)

func New(logger *slog.Logger, hc *http.Client, apiKey, baseURL string) (*Client, error) {
	if strings.TrimSpace(baseURL) == "" {
		return nil, errors.New("crowd API base URL is required")
	}
	if logger == nil {
		logger = slog.Default()
	}
	if hc == nil {
		hc = http.DefaultClient
	}
	return &Client{
		logger:  logger,
		http:    hc,
		apiKey:  apiKey,
		baseURL: strings.TrimRight(baseURL, "/"),
	}, nil
}

type crowdResponse struct {
	Success     bool              `json:"success"`
	CrowdLevels map[string]string `json:"crowdLevels"`
}

// CrowdLevels fetches occupancy bands for the given place ids. A payload
// with success:false counts as a source failure, same as a transport error.
func (c *Client) CrowdLevels(ctx context.Context, placeIDs []string) (model.CrowdLevels, error) {
	if len(placeIDs) == 0 {
		return model.CrowdLevels{}, nil
	}

	q := url.Values{}
	q.Set("place_id", strings.Join(placeIDs, ","))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/crowd-levels?"+q.Encode(), nil)
	if err != nil {
		return nil, source.Errf(source.Crowd, "crowd-levels", fmt.Errorf("build request: %w", err))
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	start := time.Now()
	resp, err := c.http.Do(req)
	observability.ObserveSourceLatency(source.Crowd, time.Since(start).Seconds())
	if err != nil {
		observability.IncSourceFailure(source.Crowd, "transport")
		return nil, source.Errf(source.Crowd, "crowd-levels", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		observability.IncSourceFailure(source.Crowd, "status")
		return nil, source.Errf(source.Crowd, "crowd-levels",
			fmt.Errorf("status %d: %s", resp.StatusCode, strings.TrimSpace(string(b))))
	}

	var out crowdResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, source.Errf(source.Crowd, "crowd-levels", fmt.Errorf("decode response: %w", err))
	}
	if !out.Success {
		observability.IncSourceFailure(source.Crowd, "unavailable")
		return nil, source.Errf(source.Crowd, "crowd-levels", errors.New("crowd levels not available"))
	}

	levels := make(model.CrowdLevels, len(out.CrowdLevels))
	for id, lvl := range out.CrowdLevels {
		levels[id] = lvl
	}
	return levels, nil
}
