package router

import (
	"net/http/httptest"
	"strings"
	"testing"
)

func TestParseSuggestRequest_Valid(t *testing.T) {
	req := httptest.NewRequest("GET", "/v1/suggestions?lat=59.3293&lng=18.0686&mood=happy", nil)
	q, warn, err := ParseSuggestRequest(req)
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if warn != "" {
		t.Fatalf("unexpected warn: %q", warn)
	}
	if q.Location.Latitude != 59.3293 || q.Location.Longitude != 18.0686 {
		t.Fatalf("location = %+v", q.Location)
	}
	if q.Mood != "happy" || q.MoodScore != nil || q.RadiusM != 0 {
		t.Fatalf("got %+v", q)
	}
}

func TestParseSuggestRequest_MoodNormalized(t *testing.T) {
	req := httptest.NewRequest("GET", "/v1/suggestions?lat=0&lng=0&mood=%20Relaxed%20", nil)
	q, _, err := ParseSuggestRequest(req)
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if q.Mood != "relaxed" {
		t.Fatalf("mood = %q, want lowercase trimmed", q.Mood)
	}
}

func TestParseSuggestRequest_MissingParams(t *testing.T) {
	cases := []struct {
		name string
		url  string
	}{
		{"no lat", "/v1/suggestions?lng=18&mood=happy"},
		{"no lng", "/v1/suggestions?lat=59&mood=happy"},
		{"no mood", "/v1/suggestions?lat=59&lng=18"},
		{"bad lat", "/v1/suggestions?lat=abc&lng=18&mood=happy"},
		{"lat out of range", "/v1/suggestions?lat=95&lng=18&mood=happy"},
		{"lng out of range", "/v1/suggestions?lat=59&lng=190&mood=happy"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest("GET", tc.url, nil)
			if _, _, err := ParseSuggestRequest(req); err == nil {
				t.Fatalf("expected error")
			}
		})
	}
}

func TestParseSuggestRequest_MoodScore(t *testing.T) {
	req := httptest.NewRequest("GET", "/v1/suggestions?lat=0&lng=0&mood=happy&mood_score=42.5", nil)
	q, _, err := ParseSuggestRequest(req)
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if q.MoodScore == nil || *q.MoodScore != 42.5 {
		t.Fatalf("mood_score = %v", q.MoodScore)
	}

	req = httptest.NewRequest("GET", "/v1/suggestions?lat=0&lng=0&mood=happy&mood_score=101", nil)
	if _, _, err := ParseSuggestRequest(req); err == nil {
		t.Fatal("expected error for score > 100")
	}
}

func TestParseSuggestRequest_RadiusClamped(t *testing.T) {
	req := httptest.NewRequest("GET", "/v1/suggestions?lat=0&lng=0&mood=happy&radius=999999", nil)
	q, warn, err := ParseSuggestRequest(req)
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if q.RadiusM != maxRadiusM {
		t.Fatalf("radius = %d, want clamped to %d", q.RadiusM, maxRadiusM)
	}
	if !strings.Contains(warn, "clamping") {
		t.Fatalf("expected clamp warning, got %q", warn)
	}
}

func TestParseSuggestRequest_RadiusRejectsNonPositive(t *testing.T) {
	for _, raw := range []string{"0", "-5", "abc"} {
		req := httptest.NewRequest("GET", "/v1/suggestions?lat=0&lng=0&mood=happy&radius="+raw, nil)
		if _, _, err := ParseSuggestRequest(req); err == nil {
			t.Fatalf("radius %q: expected error", raw)
		}
	}
}
