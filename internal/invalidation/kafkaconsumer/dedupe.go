package kafkaconsumer

import (
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"
)

// replayDedupe remembers the newest event timestamp applied per place so
// redelivered or out-of-order messages do not trigger a second round of
// cache deletes. An LRU keeps the memory bound on busy topics.
type replayDedupe struct {
	mu  sync.Mutex
	lru *lru.Cache[string, int64]
}

func newReplayDedupe(size int) *replayDedupe {
	if size <= 0 {
		size = 4096
	}
	c, _ := lru.New[string, int64](size)
	return &replayDedupe{lru: c}
}

// stale reports whether an event for the place with this timestamp has
// already been applied.
func (d *replayDedupe) stale(placeID string, ts int64) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	last, ok := d.lru.Get(placeID)
	return ok && ts <= last
}

// applied records a successfully processed event. Called only after the
// cache deletes succeed so a failed message can be retried.
func (d *replayDedupe) applied(placeID string, ts int64) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if last, ok := d.lru.Get(placeID); ok && ts <= last {
		return
	}
	d.lru.Add(placeID, ts)
}
