// Package suggest implements the suggestion aggregation pipeline: concurrent
// source fan-out, normalization, enrichment merging and mood filtering.
package suggest

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/moodscout/moodscout/internal/core/model"
	"github.com/moodscout/moodscout/internal/core/observability"
	"github.com/moodscout/moodscout/internal/mood"
	"github.com/moodscout/moodscout/internal/source"
)

// Result is one aggregation outcome. Suggestions preserve the places
// response order; auxiliary data is joined by place id during Merge.
// FailedSources names the optional sources that failed this round.
type Result struct {
	Suggestions   []model.Suggestion  `json:"suggestions"`
	Events        []model.EventRecord `json:"events"`
	Weather       *model.Weather      `json:"weather,omitempty"`
	CrowdLevels   model.CrowdLevels   `json:"crowd_levels"`
	ActivityType  string              `json:"activity_type"`
	FailedSources []string            `json:"failed_sources,omitempty"`
}

type Aggregator struct {
	logger   *slog.Logger
	resolver *mood.Resolver
	places   source.PlacesSource
	events   source.EventsSource
	weather  source.WeatherSource
	crowd    source.CrowdSource
	radiusM  int
	timeout  time.Duration
	dedup    bool
}

type Options struct {
	RadiusM int
	Timeout time.Duration
	// DedupByID drops repeated suggestion ids, keeping the first occurrence.
	DedupByID bool
}

func NewAggregator(logger *slog.Logger, resolver *mood.Resolver, places source.PlacesSource,
	events source.EventsSource, weather source.WeatherSource, crowd source.CrowdSource,
	opts Options) (*Aggregator, error) {
	if places == nil {
		return nil, errors.New("places source is required")
	}
	if resolver == nil {
		return nil, errors.New("mood resolver is required")
	}
	if logger == nil {
		logger = slog.Default()
	}
	radius := opts.RadiusM
	if radius <= 0 {
		radius = 1000
	}
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Aggregator{
		logger:   logger,
		resolver: resolver,
		places:   places,
		events:   events,
		weather:  weather,
		crowd:    crowd,
		radiusM:  radius,
		timeout:  timeout,
		dedup:    opts.DedupByID,
	}, nil
}

// Aggregate resolves the mood to an activity type, fans out to all sources
// concurrently and joins the answers. Places is authoritative: its failure
// fails the call. Events, weather and crowd levels are optional; a failing
// one defaults to empty and never blocks the others. Each source gets a
// single attempt bounded by the aggregation deadline.
func (a *Aggregator) Aggregate(ctx context.Context, loc model.Coordinate, moodLabel string) (Result, error) {
	return a.AggregateRadius(ctx, loc, moodLabel, a.radiusM)
}

// AggregateRadius is Aggregate with a one-call radius override. A
// non-positive radius falls back to the configured default.
func (a *Aggregator) AggregateRadius(ctx context.Context, loc model.Coordinate, moodLabel string, radiusM int) (Result, error) {
	start := time.Now()
	if radiusM <= 0 {
		radiusM = a.radiusM
	}

	if err := loc.Validate(); err != nil {
		observability.ObserveAggregation("invalid_input", time.Since(start))
		return Result{}, fmt.Errorf("location: %w", err)
	}

	activity, err := a.resolver.Resolve(moodLabel)
	if err != nil {
		observability.ObserveAggregation("unknown_mood", time.Since(start))
		return Result{}, err
	}

	ctx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	res := Result{
		ActivityType: activity,
		Events:       []model.EventRecord{},
		CrowdLevels:  model.CrowdLevels{},
	}

	placesCh := make(chan placesOutcome, 1)
	eventsCh := make(chan eventsOutcome, 1)
	weatherCh := make(chan weatherOutcome, 1)

	go func() {
		sugs, err := a.places.NearbyPlaces(ctx, loc, activity, radiusM)
		placesCh <- placesOutcome{suggestions: sugs, err: err}
	}()

	go func() {
		if a.events == nil {
			eventsCh <- eventsOutcome{}
			return
		}
		evs, err := a.events.EventSuggestions(ctx, activity, loc.String())
		eventsCh <- eventsOutcome{events: evs, err: err}
	}()

	go func() {
		if a.weather == nil {
			weatherCh <- weatherOutcome{}
			return
		}
		w, err := a.weather.CurrentWeather(ctx, loc)
		weatherCh <- weatherOutcome{weather: w, err: err}
	}()

	// places gate the whole call; crowd levels need the place ids and start
	// as soon as places answer, overlapping the remaining sources
	po := <-placesCh
	if po.err != nil {
		// drain the optional sources before returning so their goroutines
		// do not leak past cancel
		<-eventsCh
		<-weatherCh
		observability.ObserveAggregation("places_failed", time.Since(start))
		return Result{}, fmt.Errorf("aggregate suggestions: %w", po.err)
	}
	suggestions := po.suggestions
	if a.dedup {
		suggestions = dedupByID(suggestions)
	}
	res.Suggestions = suggestions

	crowdCh := make(chan crowdOutcome, 1)
	go func() {
		if a.crowd == nil || len(suggestions) == 0 {
			crowdCh <- crowdOutcome{}
			return
		}
		ids := make([]string, 0, len(suggestions))
		for _, s := range suggestions {
			ids = append(ids, s.ID)
		}
		levels, err := a.crowd.CrowdLevels(ctx, ids)
		crowdCh <- crowdOutcome{levels: levels, err: err}
	}()

	eo := <-eventsCh
	switch {
	case eo.err == nil:
		if eo.events != nil {
			res.Events = eo.events
		}
	case errors.Is(eo.err, source.ErrNoResults):
		// a valid empty outcome, not a failure
	default:
		a.logger.Warn("events source failed, continuing without events", "err", eo.err)
		res.FailedSources = append(res.FailedSources, source.Events)
	}

	wo := <-weatherCh
	if wo.err != nil {
		a.logger.Warn("weather source failed, continuing without weather", "err", wo.err)
		res.FailedSources = append(res.FailedSources, source.Weather)
	} else {
		res.Weather = wo.weather
	}

	co := <-crowdCh
	if co.err != nil {
		a.logger.Warn("crowd source failed, continuing without crowd levels", "err", co.err)
		res.FailedSources = append(res.FailedSources, source.Crowd)
	} else if co.levels != nil {
		res.CrowdLevels = co.levels
	}

	res.Suggestions = Merge(res.Suggestions, res.Weather, res.CrowdLevels)

	// category comes from the requested mood, not from the place fetch
	category := mood.CategoryForMood(moodLabel)
	for i := range res.Suggestions {
		if res.Suggestions[i].Category == "" {
			res.Suggestions[i].Category = category
		}
	}

	outcome := "ok"
	if len(res.FailedSources) > 0 {
		outcome = "partial"
	}
	observability.ObserveAggregation(outcome, time.Since(start))
	a.logger.Debug("aggregation done",
		"activity", activity,
		"suggestions", len(res.Suggestions),
		"events", len(res.Events),
		"failed_sources", len(res.FailedSources),
		"dur", time.Since(start).String())
	return res, nil
}

type placesOutcome struct {
	suggestions []model.Suggestion
	err         error
}

type eventsOutcome struct {
	events []model.EventRecord
	err    error
}

type weatherOutcome struct {
	weather *model.Weather
	err     error
}

type crowdOutcome struct {
	levels model.CrowdLevels
	err    error
}

// first occurrence wins, order preserved
func dedupByID(in []model.Suggestion) []model.Suggestion {
	seen := make(map[string]struct{}, len(in))
	out := make([]model.Suggestion, 0, len(in))
	for _, s := range in {
		if _, dup := seen[s.ID]; dup {
			continue
		}
		seen[s.ID] = struct{}{}
		out = append(out, s)
	}
	return out
}
