package weather

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/moodscout/moodscout/internal/core/model"
)

var testLoc = model.Coordinate{Latitude: 59.3293, Longitude: 18.0686}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func serveCurrent(t *testing.T, current map[string]any) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		qs := r.URL.Query()
		if qs.Get("key") != "wk" {
			t.Errorf("key = %q", qs.Get("key"))
		}
		if qs.Get("q") != "59.329300,18.068600" {
			t.Errorf("q = %q", qs.Get("q"))
		}
		_ = json.NewEncoder(w).Encode(map[string]any{"current": current})
	}))
}

func TestCurrentWeather_DerivesRainFromPrecip(t *testing.T) {
	srv := serveCurrent(t, map[string]any{
		"temp_c":       12.5,
		"precip_mm":    0.3,
		"last_updated": "2026-08-29 14:00",
		"condition":    map[string]any{"text": "Light drizzle"},
	})
	defer srv.Close()

	c := New(discardLogger(), srv.Client(), "wk", srv.URL)
	w, err := c.CurrentWeather(context.Background(), testLoc)
	if err != nil {
		t.Fatalf("CurrentWeather: %v", err)
	}
	if w.TempC != 12.5 || w.PrecipMM != 0.3 || w.Condition != "Light drizzle" {
		t.Fatalf("weather = %+v", w)
	}
	if !w.IsRaining {
		t.Fatal("precip > 0 should mean raining")
	}
	if w.ObservedAt != "2026-08-29 14:00" {
		t.Fatalf("observed at = %q", w.ObservedAt)
	}
	if w.Raw["temp_c"] != 12.5 {
		t.Fatalf("raw passthrough missing: %+v", w.Raw)
	}
}

func TestCurrentWeather_DerivesRainFromCondition(t *testing.T) {
	srv := serveCurrent(t, map[string]any{
		"temp_c":    8.0,
		"precip_mm": 0.0,
		"condition": map[string]any{"text": "Patchy rain possible"},
	})
	defer srv.Close()

	c := New(discardLogger(), srv.Client(), "wk", srv.URL)
	w, err := c.CurrentWeather(context.Background(), testLoc)
	if err != nil {
		t.Fatalf("CurrentWeather: %v", err)
	}
	if !w.IsRaining {
		t.Fatal("rainy condition text should mean raining")
	}
}

func TestCurrentWeather_ClearIsNotRaining(t *testing.T) {
	srv := serveCurrent(t, map[string]any{
		"temp_c":    21.0,
		"precip_mm": 0.0,
		"condition": map[string]any{"text": "Sunny"},
	})
	defer srv.Close()

	c := New(discardLogger(), srv.Client(), "wk", srv.URL)
	w, err := c.CurrentWeather(context.Background(), testLoc)
	if err != nil {
		t.Fatalf("CurrentWeather: %v", err)
	}
	if w.IsRaining {
		t.Fatal("sunny should not be raining")
	}
}

func TestCurrentWeather_MissingCurrentIsError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{"location": map[string]string{"name": "Stockholm"}})
	}))
	defer srv.Close()

	c := New(discardLogger(), srv.Client(), "wk", srv.URL)
	if _, err := c.CurrentWeather(context.Background(), testLoc); err == nil {
		t.Fatal("expected error when current block is missing")
	}
}

func TestCurrentWeather_RejectsBadCoordinate(t *testing.T) {
	c := New(discardLogger(), nil, "wk", "")
	if _, err := c.CurrentWeather(context.Background(), model.Coordinate{Latitude: 91}); err == nil {
		t.Fatal("expected error for out-of-range latitude")
	}
}
