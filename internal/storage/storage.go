// Package storage defines the persistence contracts for user-saved events
// and favorites. Persistence is an external collaborator; the service only
// speaks these interfaces.
package storage

import (
	"context"
	"errors"

	"github.com/moodscout/moodscout/internal/core/model"
)

var (
	ErrNotFound     = errors.New("not found")
	ErrAlreadySaved = errors.New("already saved")
)

// SavedEvent is a row in the saved-events collection, keyed by
// (user_id, event_id).
type SavedEvent struct {
	UserID string
	Event  model.EventRecord
}

// SavedFavorite is a row in the favorites collection, keyed by
// (user_id, suggestion_id).
type SavedFavorite struct {
	UserID     string
	Suggestion model.Suggestion
}

type EventStore interface {
	SaveEvent(ctx context.Context, userID string, ev model.EventRecord) error
	ListEvents(ctx context.Context, userID string) ([]model.EventRecord, error)
	RemoveEvent(ctx context.Context, userID, eventID string) error
	IsSaved(ctx context.Context, userID, eventID string) (bool, error)
}

type FavoriteStore interface {
	SaveFavorite(ctx context.Context, userID string, sug model.Suggestion) error
	ListFavorites(ctx context.Context, userID string) ([]model.Suggestion, error)
	RemoveFavorite(ctx context.Context, userID, suggestionID string) error
}

// Store bundles the collections one backend provides.
type Store interface {
	EventStore
	FavoriteStore
	Close()
}
