// Package model defines core domain types shared across the service.
package model

import "fmt"

type Coordinate struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

func (c Coordinate) Validate() error {
	if c.Latitude < -90 || c.Latitude > 90 {
		return fmt.Errorf("latitude %.6f out of range [-90,90]", c.Latitude)
	}
	if c.Longitude < -180 || c.Longitude > 180 {
		return fmt.Errorf("longitude %.6f out of range [-180,180]", c.Longitude)
	}
	return nil
}

// String representation matching the "lat,lng" query format used by upstreams
func (c Coordinate) String() string {
	return fmt.Sprintf("%.6f,%.6f", c.Latitude, c.Longitude)
}

// Suggestion category buckets assigned by the mood filter.
const (
	CategoryRelaxing     = "relaxing"
	CategoryFocused      = "focused"
	CategoryAdventurous  = "adventurous"
	CategoryUnclassified = "unclassified"
)

// CrowdLevelUnknown is the crowd level attached to a suggestion when no
// occupancy data is available for its place.
const CrowdLevelUnknown = "Unknown"

// Suggestion is a normalized, displayable recommendation record merging
// place, weather, and crowd data. ID is the upstream place id and is stable
// per source place.
type Suggestion struct {
	ID          string     `json:"id"`
	Name        string     `json:"name"`
	Coordinate  Coordinate `json:"coordinate"`
	ImageURL    string     `json:"image_url"`
	Description string     `json:"description"`
	Category    string     `json:"category,omitempty"`
	CrowdLevel  string     `json:"crowd_level,omitempty"`
	IsIndoor    bool       `json:"is_indoor"`
	IsOutdoor   bool       `json:"is_outdoor"`
}

// EventRecord is a nearby event, independent of the Suggestion lifecycle.
// Date is an ISO-8601 string exactly as the upstream reported it.
type EventRecord struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Date     string `json:"date"`
	Location string `json:"location"`
}

// Weather is a snapshot of current conditions at a coordinate. Raw carries
// the upstream "current" object untouched for callers that want more than
// the derived fields.
type Weather struct {
	TempC      float64        `json:"temp_c"`
	Condition  string         `json:"condition"`
	PrecipMM   float64        `json:"precip_mm"`
	IsRaining  bool           `json:"is_raining"`
	Raw        map[string]any `json:"raw,omitempty"`
	ObservedAt string         `json:"observed_at,omitempty"`
}

// CrowdLevels maps a place id to its occupancy band label.
type CrowdLevels map[string]string

type SuggestRequest struct {
	Location  Coordinate
	Mood      string
	MoodScore *float64
	RadiusM   int
}

func (r SuggestRequest) Validate() error {
	if err := r.Location.Validate(); err != nil {
		return fmt.Errorf("location: %w", err)
	}
	if r.Mood == "" {
		return fmt.Errorf("mood is required")
	}
	if r.RadiusM < 0 {
		return fmt.Errorf("radius must be >= 0")
	}
	return nil
}
