package router

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/moodscout/moodscout/internal/core/config"
	"github.com/moodscout/moodscout/internal/core/model"
	"github.com/moodscout/moodscout/internal/core/observability"
)

// maxRadiusM caps the search radius a caller can ask for.
const maxRadiusM = 50000

// receives validated suggestion requests and serves them
type SuggestHandler interface {
	HandleSuggest(ctx context.Context, w http.ResponseWriter, r *http.Request, q model.SuggestRequest)
}

// validates input query params and calls the handler
func HandleSuggest(logger *slog.Logger, _ config.Config, h SuggestHandler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		sw := &statusWriter{ResponseWriter: w, code: http.StatusOK}

		q, warn, err := ParseSuggestRequest(r)
		if warn != "" {
			logger.Warn(warn)
		}
		if err != nil {
			http.Error(sw, err.Error(), http.StatusBadRequest)
			observability.ObserveHTTP(r.Method, "/v1/suggestions", http.StatusBadRequest, time.Since(start).Seconds())
			return
		}

		h.HandleSuggest(r.Context(), sw, r, q)
		observability.ObserveHTTP(r.Method, "/v1/suggestions", sw.code, time.Since(start).Seconds())
	}
}

type statusWriter struct {
	http.ResponseWriter
	code int
}

func (w *statusWriter) WriteHeader(code int) {
	w.code = code
	w.ResponseWriter.WriteHeader(code)
}

// ParseSuggestRequest validates the suggestion query parameters. lat, lng
// and mood are required; mood_score and radius are optional. A radius above
// the cap is clamped with a warning rather than rejected.
func ParseSuggestRequest(r *http.Request) (model.SuggestRequest, string, error) {
	var warn string
	qs := r.URL.Query()

	lat, err := parseFloat(qs.Get("lat"))
	if err != nil {
		return model.SuggestRequest{}, "", fmt.Errorf("invalid lat: %w", err)
	}
	lng, err := parseFloat(qs.Get("lng"))
	if err != nil {
		return model.SuggestRequest{}, "", fmt.Errorf("invalid lng: %w", err)
	}
	loc := model.Coordinate{Latitude: lat, Longitude: lng}
	if err := loc.Validate(); err != nil {
		return model.SuggestRequest{}, "", err
	}

	mood := strings.ToLower(strings.TrimSpace(qs.Get("mood")))
	if mood == "" {
		return model.SuggestRequest{}, "", errors.New("missing required parameter: mood")
	}

	var score *float64
	if raw := strings.TrimSpace(qs.Get("mood_score")); raw != "" {
		v, err := parseFloat(raw)
		if err != nil {
			return model.SuggestRequest{}, "", fmt.Errorf("invalid mood_score: %w", err)
		}
		if v < 0 || v > 100 {
			return model.SuggestRequest{}, "", errors.New("mood_score must be in [0,100]")
		}
		score = &v
	}

	radius := 0
	if raw := strings.TrimSpace(qs.Get("radius")); raw != "" {
		v, err := strconv.Atoi(raw)
		if err != nil {
			return model.SuggestRequest{}, "", fmt.Errorf("invalid radius: %w", err)
		}
		if v <= 0 {
			return model.SuggestRequest{}, "", errors.New("radius must be > 0")
		}
		if v > maxRadiusM {
			warn = fmt.Sprintf("radius %d exceeds maximum, clamping to %d", v, maxRadiusM)
			v = maxRadiusM
		}
		radius = v
	}

	return model.SuggestRequest{
		Location:  loc,
		Mood:      mood,
		MoodScore: score,
		RadiusM:   radius,
	}, warn, nil
}

func parseFloat(v string) (float64, error) {
	v = strings.TrimSpace(v)
	if v == "" {
		return 0, errors.New("missing value")
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, fmt.Errorf("parse float: %w", err)
	}
	return f, nil
}
