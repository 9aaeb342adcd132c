// Package events adapts the SerpApi google_events engine into normalized
// event records.
package events

import (
	"context"
	"encoding/json"
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

const defaultBaseURL = "https://serpapi.com"

type Client struct {
	logger  *slog.Logger
	http    *http.Client
	apiKey  string
	baseURL string
}

var _ source.EventsSource = (*Client)(nil)

func New(logger *slog.Logger, hc *http.Client, apiKey, baseURL string) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	if hc == nil {
		hc = http.DefaultClient
	}
	base := strings.TrimRight(baseURL, "/")
	if base == "" {
		base = defaultBaseURL
	}
	return &Client{logger: logger, http: hc, apiKey: apiKey, baseURL: base}
}

type searchResponse struct {
	EventsResults []struct {
		Title string `json:"title"`
		Date  struct {
			StartDate string `json:"start_date"`
			When      string `json:"when"`
		} `json:"date"`
		Address []string `json:"address"`
		Link    string   `json:"link"`
	} `json:"events_results"`
}

// EventSuggestions searches events matching "<query> in <location>". An
// upstream response without events_results maps to ErrNoResults, which the
// aggregator treats as an empty list rather than a failure.
func (c *Client) EventSuggestions(ctx context.Context, query, location string) ([]model.EventRecord, error) {
	q := url.Values{}
	q.Set("engine", "google_events")
	q.Set("q", fmt.Sprintf("%s in %s", query, location))
	q.Set("hl", "en")
	q.Set("gl", "us")
	q.Set("api_key", c.apiKey)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/search?"+q.Encode(), nil)
	if err != nil {
		return nil, source.Errf(source.Events, "search", fmt.Errorf("build request: %w", err))
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	observability.ObserveSourceLatency(source.Events, time.Since(start).Seconds())
	if err != nil {
		observability.IncSourceFailure(source.Events, "transport")
		return nil, source.Errf(source.Events, "search", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		observability.IncSourceFailure(source.Events, "status")
		return nil, source.Errf(source.Events, "search",
			fmt.Errorf("status %d: %s", resp.StatusCode, strings.TrimSpace(string(b))))
	}

	var out searchResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, source.Errf(source.Events, "search", fmt.Errorf("decode response: %w", err))
	}

	if len(out.EventsResults) == 0 {
		return nil, source.Errf(source.Events, "search", source.ErrNoResults)
	}

	records := make([]model.EventRecord, 0, len(out.EventsResults))
	for _, ev := range out.EventsResults {
		date := ev.Date.StartDate
		if date == "" {
			date = ev.Date.When
		}
		loc := ""
		if len(ev.Address) > 0 {
			loc = strings.Join(ev.Address, ", ")
		}
		records = append(records, model.EventRecord{
			ID:       eventID(ev.Link, ev.Title, date),
			Name:     ev.Title,
			Date:     date,
			Location: loc,
		})
	}
	return records, nil
}

// the upstream has no stable event id; the link is the closest thing
func eventID(link, title, date string) string {
	if link != "" {
		return link
	}
	return title + "|" + date
}
