// Package geo converts coordinates to H3 cells for cache keying and
// invalidation coverage.
package geo

import (
	"fmt"
	"sort"

	h3 "github.com/uber/h3-go/v4"

	"github.com/moodscout/moodscout/internal/core/model"
)

// CellFor returns the H3 cell containing the coordinate at the given
// resolution.
func CellFor(loc model.Coordinate, res int) (string, error) {
	if err := validateRes(res); err != nil {
		return "", err
	}
	if err := loc.Validate(); err != nil {
		return "", err
	}
	cell, err := h3.LatLngToCell(h3.LatLng{Lat: loc.Latitude, Lng: loc.Longitude}, res)
	if err != nil {
		return "", fmt.Errorf("h3 latlng to cell: %w", err)
	}
	return cell.String(), nil
}

// CoverageFor returns the cell containing the coordinate plus its ring-1
// neighbors, sorted for determinism. Invalidation uses it so an update near
// a cell boundary also clears searches keyed to the adjacent cells.
func CoverageFor(loc model.Coordinate, res int) ([]string, error) {
	if err := validateRes(res); err != nil {
		return nil, err
	}
	if err := loc.Validate(); err != nil {
		return nil, err
	}
	center, err := h3.LatLngToCell(h3.LatLng{Lat: loc.Latitude, Lng: loc.Longitude}, res)
	if err != nil {
		return nil, fmt.Errorf("h3 latlng to cell: %w", err)
	}
	ring, err := h3.GridDisk(center, 1)
	if err != nil {
		return nil, fmt.Errorf("h3 grid disk: %w", err)
	}

	seen := make(map[string]struct{}, len(ring))
	out := make([]string, 0, len(ring))
	for _, c := range ring {
		s := c.String()
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	sort.Strings(out)
	return out, nil
}

func validateRes(res int) error {
	if res < 0 || res > 15 {
		return fmt.Errorf("invalid H3 resolution %d (must be 0..15)", res)
	}
	return nil
}
