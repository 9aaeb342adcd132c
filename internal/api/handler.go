// Package api implements the HTTP handlers behind the versioned routes:
// suggestion aggregation, nearby events, and per-user saved events and
// favorites.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"sync"

	"github.com/go-chi/chi/v5"

	"github.com/moodscout/moodscout/internal/core/model"
	"github.com/moodscout/moodscout/internal/favorites"
	"github.com/moodscout/moodscout/internal/mood"
	"github.com/moodscout/moodscout/internal/source"
	"github.com/moodscout/moodscout/internal/storage"
	"github.com/moodscout/moodscout/internal/suggest"
)

type Handler struct {
	logger   *slog.Logger
	agg      *suggest.Aggregator
	latest   *suggest.Store
	events   source.EventsSource
	db       storage.Store
	backends []string

	mu   sync.Mutex
	favs map[string]*favorites.Set // per-user favorite ids, write-through over db
}

func New(logger *slog.Logger, agg *suggest.Aggregator, events source.EventsSource, db storage.Store, backends []string) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{
		logger:   logger,
		agg:      agg,
		latest:   suggest.NewStore(),
		events:   events,
		db:       db,
		backends: backends,
		favs:     make(map[string]*favorites.Set),
	}
}

// Readiness reports the backends this handler was wired with.
func (h *Handler) Readiness() (bool, []string) {
	return true, h.backends
}

// HandleSuggest serves a validated suggestion request. The aggregation
// result is also published to the latest-snapshot store; a stale concurrent
// aggregation can never overwrite a newer one.
func (h *Handler) HandleSuggest(ctx context.Context, w http.ResponseWriter, r *http.Request, q model.SuggestRequest) {
	gen := h.latest.Begin()

	res, err := h.agg.AggregateRadius(ctx, q.Location, q.Mood, q.RadiusM)
	if err != nil {
		h.latest.CommitError(gen, err)
		if errors.Is(err, mood.ErrUnknownMood) {
			writeError(w, http.StatusNotFound, "unknown mood: "+q.Mood)
			return
		}
		var srcErr *source.Error
		if errors.As(err, &srcErr) {
			h.logger.Error("suggestion sources failed", "source", srcErr.Source, "err", err)
			writeError(w, http.StatusBadGateway, "suggestion sources unavailable")
			return
		}
		writeError(w, http.StatusInternalServerError, "aggregation failed")
		return
	}
	h.latest.CommitSuccess(gen, res)

	if q.MoodScore != nil {
		res.Suggestions = suggest.FilterByMood(res.Suggestions, *q.MoodScore)
	}
	writeJSON(w, http.StatusOK, res)
}

// LatestSuggestions returns the last successful aggregation snapshot.
func (h *Handler) LatestSuggestions(w http.ResponseWriter, r *http.Request) {
	res, hasData, loading, err := h.latest.Snapshot()
	if !hasData {
		status := http.StatusNotFound
		msg := "no suggestions aggregated yet"
		if loading {
			msg = "aggregation in progress"
		}
		if err != nil {
			msg = err.Error()
		}
		writeError(w, status, msg)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// NearbyEvents serves event suggestions for a coordinate without running a
// full aggregation.
func (h *Handler) NearbyEvents(w http.ResponseWriter, r *http.Request) {
	if h.events == nil {
		writeError(w, http.StatusNotImplemented, "events source not configured")
		return
	}
	loc, err := parseCoordinate(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	query := strings.TrimSpace(r.URL.Query().Get("q"))
	if query == "" {
		query = "events"
	}

	evs, err := h.events.EventSuggestions(r.Context(), query, loc.String())
	if err != nil {
		if errors.Is(err, source.ErrNoResults) {
			writeJSON(w, http.StatusOK, []model.EventRecord{})
			return
		}
		h.logger.Error("events lookup failed", "err", err)
		writeError(w, http.StatusBadGateway, "events source unavailable")
		return
	}
	writeJSON(w, http.StatusOK, evs)
}

func (h *Handler) SaveEvent(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userID")
	var ev model.EventRecord
	if err := json.NewDecoder(r.Body).Decode(&ev); err != nil {
		writeError(w, http.StatusBadRequest, "invalid event body")
		return
	}
	if strings.TrimSpace(ev.ID) == "" || strings.TrimSpace(ev.Name) == "" {
		writeError(w, http.StatusBadRequest, "event id and name are required")
		return
	}

	switch err := h.db.SaveEvent(r.Context(), userID, ev); {
	case errors.Is(err, storage.ErrAlreadySaved):
		writeError(w, http.StatusConflict, "event already saved")
	case err != nil:
		h.logger.Error("save event failed", "user", userID, "err", err)
		writeError(w, http.StatusInternalServerError, "save failed")
	default:
		writeJSON(w, http.StatusCreated, ev)
	}
}

func (h *Handler) ListEvents(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userID")
	evs, err := h.db.ListEvents(r.Context(), userID)
	if err != nil {
		h.logger.Error("list events failed", "user", userID, "err", err)
		writeError(w, http.StatusInternalServerError, "list failed")
		return
	}
	if evs == nil {
		evs = []model.EventRecord{}
	}
	writeJSON(w, http.StatusOK, evs)
}

func (h *Handler) RemoveEvent(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userID")
	eventID := chi.URLParam(r, "eventID")
	switch err := h.db.RemoveEvent(r.Context(), userID, eventID); {
	case errors.Is(err, storage.ErrNotFound):
		writeError(w, http.StatusNotFound, "event not saved")
	case err != nil:
		h.logger.Error("remove event failed", "user", userID, "err", err)
		writeError(w, http.StatusInternalServerError, "remove failed")
	default:
		w.WriteHeader(http.StatusNoContent)
	}
}

func (h *Handler) SaveFavorite(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userID")
	var sug model.Suggestion
	if err := json.NewDecoder(r.Body).Decode(&sug); err != nil {
		writeError(w, http.StatusBadRequest, "invalid suggestion body")
		return
	}
	if strings.TrimSpace(sug.ID) == "" {
		writeError(w, http.StatusBadRequest, "suggestion id is required")
		return
	}

	switch err := h.db.SaveFavorite(r.Context(), userID, sug); {
	case errors.Is(err, storage.ErrAlreadySaved):
		writeError(w, http.StatusConflict, "already a favorite")
	case err != nil:
		h.logger.Error("save favorite failed", "user", userID, "err", err)
		writeError(w, http.StatusInternalServerError, "save failed")
	default:
		if set, err := h.favoriteSet(r.Context(), userID); err == nil {
			set.Add(sug)
		}
		writeJSON(w, http.StatusCreated, sug)
	}
}

func (h *Handler) ListFavorites(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userID")
	favs, err := h.db.ListFavorites(r.Context(), userID)
	if err != nil {
		h.logger.Error("list favorites failed", "user", userID, "err", err)
		writeError(w, http.StatusInternalServerError, "list failed")
		return
	}
	if favs == nil {
		favs = []model.Suggestion{}
	}
	writeJSON(w, http.StatusOK, favs)
}

func (h *Handler) RemoveFavorite(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userID")
	suggestionID := chi.URLParam(r, "suggestionID")
	switch err := h.db.RemoveFavorite(r.Context(), userID, suggestionID); {
	case errors.Is(err, storage.ErrNotFound):
		writeError(w, http.StatusNotFound, "not a favorite")
	case err != nil:
		h.logger.Error("remove favorite failed", "user", userID, "err", err)
		writeError(w, http.StatusInternalServerError, "remove failed")
	default:
		if set, err := h.favoriteSet(r.Context(), userID); err == nil {
			set.Remove(suggestionID)
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

// CheckFavorite answers whether a suggestion id is among the user's
// favorites, from the in-memory set so repeated checks skip the database.
func (h *Handler) CheckFavorite(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userID")
	suggestionID := chi.URLParam(r, "suggestionID")

	set, err := h.favoriteSet(r.Context(), userID)
	if err != nil {
		h.logger.Error("load favorites failed", "user", userID, "err", err)
		writeError(w, http.StatusInternalServerError, "lookup failed")
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"is_favorite": set.IsFavorite(suggestionID)})
}

// favoriteSet returns the user's in-memory favorite set, loading it from
// storage on first use.
func (h *Handler) favoriteSet(ctx context.Context, userID string) (*favorites.Set, error) {
	h.mu.Lock()
	set, ok := h.favs[userID]
	h.mu.Unlock()
	if ok {
		return set, nil
	}

	stored, err := h.db.ListFavorites(ctx, userID)
	if err != nil {
		return nil, err
	}
	set = favorites.NewSet()
	set.Replace(stored)

	h.mu.Lock()
	if existing, ok := h.favs[userID]; ok {
		set = existing
	} else {
		h.favs[userID] = set
	}
	h.mu.Unlock()
	return set, nil
}

func parseQueryFloat(v string) (float64, error) {
	v = strings.TrimSpace(v)
	if v == "" {
		return 0, errors.New("missing value")
	}
	return strconv.ParseFloat(v, 64)
}

func parseCoordinate(r *http.Request) (model.Coordinate, error) {
	qs := r.URL.Query()
	lat, err := parseQueryFloat(qs.Get("lat"))
	if err != nil {
		return model.Coordinate{}, errors.New("invalid lat")
	}
	lng, err := parseQueryFloat(qs.Get("lng"))
	if err != nil {
		return model.Coordinate{}, errors.New("invalid lng")
	}
	loc := model.Coordinate{Latitude: lat, Longitude: lng}
	if err := loc.Validate(); err != nil {
		return model.Coordinate{}, err
	}
	return loc, nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
