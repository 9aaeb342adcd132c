package simple

import (
	"time"

	"github.com/moodscout/moodscout/internal/decision"
	"github.com/moodscout/moodscout/internal/hotness"
)

// Engine stretches the cache TTL for cells whose demand score reaches the
// threshold. Quiet cells keep the base TTL so stale data in rarely-searched
// areas ages out quickly.
type Engine struct {
	Hot       hotness.Interface
	Threshold float64
	HotFactor float64
	MaxTTL    time.Duration
}

var _ decision.TTLPolicy = (*Engine)(nil)

func (e *Engine) TTLFor(cell string, base time.Duration) time.Duration {
	if e.Hot == nil || e.Threshold <= 0 || e.HotFactor <= 1 || base <= 0 {
		return base
	}
	if e.Hot.Score(cell) < e.Threshold {
		return base
	}
	ttl := time.Duration(float64(base) * e.HotFactor)
	if e.MaxTTL > 0 && ttl > e.MaxTTL {
		ttl = e.MaxTTL
	}
	return ttl
}
