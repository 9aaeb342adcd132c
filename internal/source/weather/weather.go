// Package weather adapts the weatherapi.com current-conditions endpoint.
package weather

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

const defaultBaseURL = "https://api.weatherapi.com/v1"

type Client struct {
	logger  *slog.Logger
	http    *http.Client
	apiKey  string
	baseURL string
}

var _ source.WeatherSource = (*Client)(nil)

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

type currentResponse struct {
	Current map[string]any `json:"current"`
}

// CurrentWeather fetches the current conditions snapshot at loc. The raw
// "current" object is passed through alongside the derived fields.
func (c *Client) CurrentWeather(ctx context.Context, loc model.Coordinate) (*model.Weather, error) {
	if err := loc.Validate(); err != nil {
		return nil, source.Errf(source.Weather, "current", err)
	}

	q := url.Values{}
	q.Set("key", c.apiKey)
	q.Set("q", loc.String())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/current.json?"+q.Encode(), nil)
	if err != nil {
		return nil, source.Errf(source.Weather, "current", fmt.Errorf("build request: %w", err))
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	observability.ObserveSourceLatency(source.Weather, time.Since(start).Seconds())
	if err != nil {
		observability.IncSourceFailure(source.Weather, "transport")
		return nil, source.Errf(source.Weather, "current", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		observability.IncSourceFailure(source.Weather, "status")
		return nil, source.Errf(source.Weather, "current",
			fmt.Errorf("status %d: %s", resp.StatusCode, strings.TrimSpace(string(b))))
	}

	var out currentResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, source.Errf(source.Weather, "current", fmt.Errorf("decode response: %w", err))
	}
	if out.Current == nil {
		return nil, source.Errf(source.Weather, "current", fmt.Errorf("response missing current conditions"))
	}

	return normalize(out.Current), nil
}

func normalize(cur map[string]any) *model.Weather {
	w := &model.Weather{Raw: cur}
	if v, ok := cur["temp_c"].(float64); ok {
		w.TempC = v
	}
	if v, ok := cur["precip_mm"].(float64); ok {
		w.PrecipMM = v
	}
	if v, ok := cur["last_updated"].(string); ok {
		w.ObservedAt = v
	}
	if cond, ok := cur["condition"].(map[string]any); ok {
		if txt, ok := cond["text"].(string); ok {
			w.Condition = txt
		}
	}
	w.IsRaining = w.PrecipMM > 0 || strings.Contains(strings.ToLower(w.Condition), "rain")
	return w
}
