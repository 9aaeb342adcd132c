// Package invalidation defines the place-update event published when a
// place changes upstream, and validation for it. The kafkaconsumer
// subpackage turns these events into cache deletions.
package invalidation

import (
	"fmt"
	"strings"
	"time"

	"github.com/moodscout/moodscout/internal/core/model"
)

type Event struct {
	Version  int              `json:"version"`
	Op       string           `json:"op"`
	PlaceID  string           `json:"place_id"`
	Location model.Coordinate `json:"location"`
	TS       time.Time        `json:"ts"`
	Source   string           `json:"source,omitempty"`
}

func (e Event) Validate() error {
	if e.Version != 1 {
		return fmt.Errorf("version must be 1")
	}
	switch e.Op {
	case "insert", "update", "delete":
	default:
		return fmt.Errorf("op must be insert|update|delete")
	}
	if strings.TrimSpace(e.PlaceID) == "" {
		return fmt.Errorf("place_id is required")
	}
	if e.TS.IsZero() {
		return fmt.Errorf("ts is required")
	}
	if err := e.Location.Validate(); err != nil {
		return fmt.Errorf("location: %w", err)
	}
	return nil
}
