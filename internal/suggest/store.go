package suggest

import (
	"sync"

	"github.com/moodscout/moodscout/internal/core/model"
)

// Store holds the latest aggregation result and the loading/error state the
// presentation layer reads. It is an explicit instance, not a singleton, so
// tests construct isolated stores.
//
// Fetches are tracked by a monotonic generation: Begin hands out the next
// generation, and only the commit carrying the newest begun generation may
// write. A slow, superseded fetch completing late cannot overwrite fresher
// results (last writer wins by generation, not by arrival).
type Store struct {
	mu sync.Mutex

	result  Result
	hasData bool
	loading bool
	lastErr error

	gen       uint64
	committed uint64
}

func NewStore() *Store {
	return &Store{}
}

// Begin marks a fetch as in flight and returns its generation token.
func (s *Store) Begin() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.gen++
	s.loading = true
	s.lastErr = nil
	return s.gen
}

// CommitSuccess stores the result if gen is still the newest generation.
// It reports whether the result was applied.
func (s *Store) CommitSuccess(gen uint64, r Result) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if gen != s.gen {
		return false
	}
	s.result = r
	s.hasData = true
	s.committed = gen
	s.loading = false
	s.lastErr = nil
	return true
}

// CommitError records the failure and clears the loading flag. The previous
// suggestion collection stays untouched: a failed fetch never replaces data
// with an empty list.
func (s *Store) CommitError(gen uint64, err error) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if gen != s.gen {
		return false
	}
	s.loading = false
	s.lastErr = err
	return true
}

// Snapshot returns the current state: the latest committed result, whether
// any result has been committed, the loading flag and the last error.
func (s *Store) Snapshot() (Result, bool, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.result, s.hasData, s.loading, s.lastErr
}

// Suggestions returns the committed suggestion collection.
func (s *Store) Suggestions() []model.Suggestion {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.result.Suggestions
}
