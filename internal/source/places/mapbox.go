package places

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

	"github.com/google/uuid"

	"github.com/moodscout/moodscout/internal/core/model"
	"github.com/moodscout/moodscout/internal/core/observability"
	"github.com/moodscout/moodscout/internal/source"
)

const mapboxBaseURL = "https://api.mapbox.com"

// Mapbox is the alternate places provider backed by the Mapbox Search Box
// API. It returns leaner records than the Google provider: no photos, so
// every suggestion carries the default image and a static map thumbnail can
// be built with StaticMapURL.
type Mapbox struct {
	logger   *slog.Logger
	http     *http.Client
	token    string
	baseURL  string
	limit    int
	defImage string
}

var _ source.PlacesSource = (*Mapbox)(nil)

type MapboxConfig struct {
	AccessToken  string
	BaseURL      string
	MaxResults   int
	DefaultImage string
}

func NewMapbox(logger *slog.Logger, hc *http.Client, cfg MapboxConfig) *Mapbox {
	if logger == nil {
		logger = slog.Default()
	}
	if hc == nil {
		hc = http.DefaultClient
	}
	base := strings.TrimRight(cfg.BaseURL, "/")
	if base == "" {
		base = mapboxBaseURL
	}
	limit := cfg.MaxResults
	if limit <= 0 {
		limit = 10
	}
	return &Mapbox{
		logger:   logger,
		http:     hc,
		token:    cfg.AccessToken,
		baseURL:  base,
		limit:    limit,
		defImage: cfg.DefaultImage,
	}
}

type mapboxSuggestResponse struct {
	Suggestions []struct {
		MapboxID    string `json:"mapbox_id"`
		Name        string `json:"name"`
		FullAddress string `json:"full_address"`
		Coordinates struct {
			Latitude  float64 `json:"latitude"`
			Longitude float64 `json:"longitude"`
		} `json:"coordinates"`
	} `json:"suggestions"`
}

func (m *Mapbox) NearbyPlaces(ctx context.Context, loc model.Coordinate, activityType string, _ int) ([]model.Suggestion, error) {
	if err := loc.Validate(); err != nil {
		return nil, source.Errf(source.Places, "suggest", err)
	}

	q := url.Values{}
	q.Set("q", activityType)
	q.Set("proximity", fmt.Sprintf("%f,%f", loc.Longitude, loc.Latitude))
	q.Set("access_token", m.token)
	q.Set("limit", fmt.Sprint(m.limit))
	q.Set("session_token", uuid.NewString())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		m.baseURL+"/search/searchbox/v1/suggest?"+q.Encode(), nil)
	if err != nil {
		return nil, source.Errf(source.Places, "suggest", fmt.Errorf("build request: %w", err))
	}

	start := time.Now()
	resp, err := m.http.Do(req)
	observability.ObserveSourceLatency(source.Places, time.Since(start).Seconds())
	if err != nil {
		observability.IncSourceFailure(source.Places, "search")
		return nil, source.Errf(source.Places, "suggest", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		observability.IncSourceFailure(source.Places, "search")
		return nil, source.Errf(source.Places, "suggest",
			fmt.Errorf("status %d: %s", resp.StatusCode, strings.TrimSpace(string(b))))
	}

	var out mapboxSuggestResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, source.Errf(source.Places, "suggest", fmt.Errorf("decode response: %w", err))
	}

	_, isOutdoor := outdoorTypes[activityType]

	res := make([]model.Suggestion, 0, len(out.Suggestions))
	for _, s := range out.Suggestions {
		if s.MapboxID == "" {
			continue
		}
		desc := s.FullAddress
		if desc == "" {
			desc = DescriptionFallback
		}
		res = append(res, model.Suggestion{
			ID:   s.MapboxID,
			Name: s.Name,
			Coordinate: model.Coordinate{
				Latitude:  s.Coordinates.Latitude,
				Longitude: s.Coordinates.Longitude,
			},
			ImageURL:    m.defImage,
			Description: desc,
			IsOutdoor:   isOutdoor,
		})
	}
	return res, nil
}

// StaticMapURL builds a static map thumbnail centered on the coordinate
// with a single pin.
func (m *Mapbox) StaticMapURL(loc model.Coordinate) string {
	return fmt.Sprintf(
		"%s/styles/v1/mapbox/streets-v11/static/pin-s+555555(%f,%f)/%f,%f,15/300x200?access_token=%s",
		m.baseURL, loc.Longitude, loc.Latitude, loc.Longitude, loc.Latitude, m.token)
}
