// Package places adapts place-search providers into the normalized
// suggestion model. The default provider speaks the Google Places v1 API.
package places

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/moodscout/moodscout/internal/core/model"
	"github.com/moodscout/moodscout/internal/core/observability"
	"github.com/moodscout/moodscout/internal/source"
)

const (
	defaultBaseURL  = "https://places.googleapis.com/v1"
	detailCacheSize = 512

	// DescriptionFallback substitutes a place description when the detail
	// lookup fails or returns nothing.
	DescriptionFallback = "No description available."
)

// activity types whose places are predominantly open-air
var outdoorTypes = map[string]struct{}{
	"park":               {},
	"botanical_garden":   {},
	"scenic_viewpoint":   {},
	"zoo":                {},
	"amusement_park":     {},
	"stadium":            {},
	"tourist_attraction": {},
	"swimming_pool":      {},
	"trampoline_park":    {},
}

type Config struct {
	APIKey       string
	BaseURL      string
	MaxResults   int
	DefaultImage string
}

type Client struct {
	logger     *slog.Logger
	http       *http.Client
	apiKey     string
	baseURL    string
	maxResults int
	defImage   string
	details    *lru.Cache[string, placeDetails]
}

var _ source.PlacesSource = (*Client)(nil)

func New(logger *slog.Logger, hc *http.Client, cfg Config) (*Client, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if hc == nil {
		hc = http.DefaultClient
	}
	base := strings.TrimRight(cfg.BaseURL, "/")
	if base == "" {
		base = defaultBaseURL
	}
	maxResults := cfg.MaxResults
	if maxResults <= 0 {
		maxResults = 10
	}
	cache, err := lru.New[string, placeDetails](detailCacheSize)
	if err != nil {
		return nil, fmt.Errorf("detail cache: %w", err)
	}
	return &Client{
		logger:     logger,
		http:       hc,
		apiKey:     cfg.APIKey,
		baseURL:    base,
		maxResults: maxResults,
		defImage:   cfg.DefaultImage,
		details:    cache,
	}, nil
}

type searchNearbyRequest struct {
	Fields              []string            `json:"fields"`
	LocationRestriction locationRestriction `json:"locationRestriction"`
	IncludedTypes       []string            `json:"includedPrimaryTypes"`
	MaxResultCount      int                 `json:"maxResultCount"`
	RankPreference      string              `json:"rankPreference"`
}

type locationRestriction struct {
	Center struct {
		Lat float64 `json:"lat"`
		Lng float64 `json:"lng"`
	} `json:"center"`
	Radius int `json:"radius"`
}

type searchNearbyResponse struct {
	Places []struct {
		ID          string `json:"id"`
		PlaceID     string `json:"placeId"`
		DisplayName struct {
			Text string `json:"text"`
		} `json:"displayName"`
		Location struct {
			Latitude  float64 `json:"latitude"`
			Longitude float64 `json:"longitude"`
		} `json:"location"`
	} `json:"places"`
}

type placeDetails struct {
	ImageURL    string
	Description string
}

// NearbyPlaces searches places of the given activity type around loc and
// enriches each hit with image and description from the detail endpoint.
// Detail failures never fail the batch; the affected place gets the
// sentinel image and description instead.
func (c *Client) NearbyPlaces(ctx context.Context, loc model.Coordinate, activityType string, radiusM int) ([]model.Suggestion, error) {
	if err := loc.Validate(); err != nil {
		return nil, source.Errf(source.Places, "searchNearby", err)
	}
	if strings.TrimSpace(activityType) == "" {
		return nil, source.Errf(source.Places, "searchNearby", fmt.Errorf("activity type is required"))
	}
	if radiusM <= 0 {
		radiusM = 1000
	}

	body := searchNearbyRequest{
		Fields:         []string{"displayName", "location", "placeId"},
		IncludedTypes:  []string{activityType},
		MaxResultCount: c.maxResults,
		RankPreference: "POPULARITY",
	}
	body.LocationRestriction.Center.Lat = loc.Latitude
	body.LocationRestriction.Center.Lng = loc.Longitude
	body.LocationRestriction.Radius = radiusM

	var resp searchNearbyResponse
	if err := c.postJSON(ctx, c.baseURL+"/places:searchNearby", body, &resp); err != nil {
		observability.IncSourceFailure(source.Places, "search")
		return nil, source.Errf(source.Places, "searchNearby", err)
	}

	_, isOutdoor := outdoorTypes[activityType]

	out := make([]model.Suggestion, 0, len(resp.Places))
	for _, p := range resp.Places {
		id := p.PlaceID
		if id == "" {
			id = p.ID
		}
		if id == "" {
			continue
		}
		det := c.fetchDetails(ctx, id)
		out = append(out, model.Suggestion{
			ID:   id,
			Name: p.DisplayName.Text,
			Coordinate: model.Coordinate{
				Latitude:  p.Location.Latitude,
				Longitude: p.Location.Longitude,
			},
			ImageURL:    det.ImageURL,
			Description: det.Description,
			IsOutdoor:   isOutdoor,
		})
	}
	return out, nil
}

type fetchFieldsResponse struct {
	FormattedAddress string `json:"formattedAddress"`
	Photos           []struct {
		Name string `json:"name"`
	} `json:"photos"`
}

// fetchDetails looks up address and photo for one place. Failures are
// isolated per place: the sentinel defaults come back instead of an error.
func (c *Client) fetchDetails(ctx context.Context, placeID string) placeDetails {
	if det, ok := c.details.Get(placeID); ok {
		return det
	}

	fallback := placeDetails{ImageURL: c.defImage, Description: DescriptionFallback}

	var resp fetchFieldsResponse
	body := map[string][]string{"fields": {"displayName", "formattedAddress", "photos"}}
	if err := c.postJSON(ctx, c.baseURL+"/places/"+placeID+":fetchFields", body, &resp); err != nil {
		observability.IncSourceFailure(source.Places, "details")
		c.logger.Warn("place details lookup failed", "place_id", placeID, "err", err)
		return fallback
	}

	det := fallback
	if len(resp.Photos) > 0 && resp.Photos[0].Name != "" {
		det.ImageURL = fmt.Sprintf("%s/%s/media?maxWidthPx=400&maxHeightPx=400&key=%s",
			c.baseURL, resp.Photos[0].Name, c.apiKey)
	}
	if resp.FormattedAddress != "" {
		det.Description = resp.FormattedAddress
	}

	c.details.Add(placeID, det)
	return det
}

func (c *Client) postJSON(ctx context.Context, url string, body, out any) error {
	buf, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("encode request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(buf))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	start := time.Now()
	resp, err := c.http.Do(req)
	observability.ObserveSourceLatency(source.Places, time.Since(start).Seconds())
	if err != nil {
		return fmt.Errorf("do request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("status %d: %s", resp.StatusCode, strings.TrimSpace(string(b)))
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
