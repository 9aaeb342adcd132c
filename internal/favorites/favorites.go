// Package favorites keeps the client-side set of bookmarked suggestions.
package favorites

import (
	"sync"

	"github.com/moodscout/moodscout/internal/core/model"
)

// Set is a mutex-guarded favorites collection keyed by suggestion id.
// Membership is checked by id everywhere; insertion order is preserved for
// listing.
type Set struct {
	mu    sync.Mutex
	order []string
	byID  map[string]model.Suggestion
}

func NewSet() *Set {
	return &Set{byID: make(map[string]model.Suggestion)}
}

// Add bookmarks a suggestion. Adding an id twice is a no-op; it reports
// whether the suggestion was newly added.
func (s *Set) Add(sug model.Suggestion) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.byID[sug.ID]; ok {
		return false
	}
	s.byID[sug.ID] = sug
	s.order = append(s.order, sug.ID)
	return true
}

// Remove drops the suggestion with the given id, reporting whether it was
// present.
func (s *Set) Remove(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.byID[id]; !ok {
		return false
	}
	delete(s.byID, id)
	for i, v := range s.order {
		if v == id {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
	return true
}

// Replace swaps the whole collection.
func (s *Set) Replace(sugs []model.Suggestion) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.byID = make(map[string]model.Suggestion, len(sugs))
	s.order = s.order[:0]
	for _, sug := range sugs {
		if _, dup := s.byID[sug.ID]; dup {
			continue
		}
		s.byID[sug.ID] = sug
		s.order = append(s.order, sug.ID)
	}
}

// IsFavorite reports membership by suggestion id.
func (s *Set) IsFavorite(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.byID[id]
	return ok
}

// List returns the favorites in insertion order.
func (s *Set) List() []model.Suggestion {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]model.Suggestion, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, s.byID[id])
	}
	return out
}

func (s *Set) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.byID)
}
