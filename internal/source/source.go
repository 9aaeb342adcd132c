// Package source defines the upstream data-source contracts and the typed
// failure every adapter wraps its errors in.
package source

import (
	"context"
	"errors"
	"fmt"

	"github.com/moodscout/moodscout/internal/core/model"
)

// Source names used in errors, logs and metrics.
const (
	Places  = "places"
	Events  = "events"
	Weather = "weather"
	Crowd   = "crowd"
)

// ErrNoResults reports that an upstream answered successfully but had
// nothing to return. It is a normal empty outcome, distinct from a failure.
var ErrNoResults = errors.New("no results")

// Error identifies which upstream failed and why. Transport errors, non-2xx
// statuses and success:false payloads are all surfaced through it so the
// aggregator can tell "this source failed" from "this source is empty".
type Error struct {
	Source string
	Op     string
	Err    error
}

func (e *Error) Error() string {
	if e.Op == "" {
		return fmt.Sprintf("source %s: %v", e.Source, e.Err)
	}
	return fmt.Sprintf("source %s: %s: %v", e.Source, e.Op, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// Errf wraps err as an Error for the named source.
func Errf(src, op string, err error) *Error {
	return &Error{Source: src, Op: op, Err: err}
}

type PlacesSource interface {
	NearbyPlaces(ctx context.Context, loc model.Coordinate, activityType string, radiusM int) ([]model.Suggestion, error)
}

type EventsSource interface {
	EventSuggestions(ctx context.Context, query, location string) ([]model.EventRecord, error)
}

type WeatherSource interface {
	CurrentWeather(ctx context.Context, loc model.Coordinate) (*model.Weather, error)
}

type CrowdSource interface {
	CrowdLevels(ctx context.Context, placeIDs []string) (model.CrowdLevels, error)
}
