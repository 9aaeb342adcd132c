// Package memory is the in-process storage backend, used by tests and when
// no database is configured.
package memory

import (
	"context"
	"sync"

	"github.com/moodscout/moodscout/internal/core/model"
	"github.com/moodscout/moodscout/internal/storage"
)

type Store struct {
	mu        sync.Mutex
	events    map[string][]model.EventRecord // user id -> saved events in order
	favorites map[string][]model.Suggestion
}

var _ storage.Store = (*Store)(nil)

func New() *Store {
	return &Store{
		events:    make(map[string][]model.EventRecord),
		favorites: make(map[string][]model.Suggestion),
	}
}

func (s *Store) SaveEvent(_ context.Context, userID string, ev model.EventRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, e := range s.events[userID] {
		if e.ID == ev.ID {
			return storage.ErrAlreadySaved
		}
	}
	s.events[userID] = append(s.events[userID], ev)
	return nil
}

func (s *Store) ListEvents(_ context.Context, userID string) ([]model.EventRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]model.EventRecord, len(s.events[userID]))
	copy(out, s.events[userID])
	return out, nil
}

func (s *Store) RemoveEvent(_ context.Context, userID, eventID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	evs := s.events[userID]
	for i, e := range evs {
		if e.ID == eventID {
			s.events[userID] = append(evs[:i], evs[i+1:]...)
			return nil
		}
	}
	return storage.ErrNotFound
}

func (s *Store) IsSaved(_ context.Context, userID, eventID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, e := range s.events[userID] {
		if e.ID == eventID {
			return true, nil
		}
	}
	return false, nil
}

func (s *Store) SaveFavorite(_ context.Context, userID string, sug model.Suggestion) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, f := range s.favorites[userID] {
		if f.ID == sug.ID {
			return storage.ErrAlreadySaved
		}
	}
	s.favorites[userID] = append(s.favorites[userID], sug)
	return nil
}

func (s *Store) ListFavorites(_ context.Context, userID string) ([]model.Suggestion, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]model.Suggestion, len(s.favorites[userID]))
	copy(out, s.favorites[userID])
	return out, nil
}

func (s *Store) RemoveFavorite(_ context.Context, userID, suggestionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	favs := s.favorites[userID]
	for i, f := range favs {
		if f.ID == suggestionID {
			s.favorites[userID] = append(favs[:i], favs[i+1:]...)
			return nil
		}
	}
	return storage.ErrNotFound
}

func (s *Store) Close() {}
