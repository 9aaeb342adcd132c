package simple

import (
	"sync"
	"testing"
	"time"

	"github.com/moodscout/moodscout/internal/decision"
	"github.com/moodscout/moodscout/internal/hotness"
)

type fakeHot struct {
	mu sync.Mutex
	m  map[string]float64
}

func newFakeHot() *fakeHot { return &fakeHot{m: make(map[string]float64)} }

func (f *fakeHot) Observe(cell string) {
	f.mu.Lock()
	f.m[cell]++
	f.mu.Unlock()
}

func (f *fakeHot) Score(cell string) float64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.m[cell]
}

func (f *fakeHot) Forget(cells ...string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, c := range cells {
		delete(f.m, c)
	}
}

var (
	_ hotness.Interface  = (*fakeHot)(nil)
	_ decision.TTLPolicy = (*Engine)(nil)
)

func TestTTLFor_StretchesHotCells(t *testing.T) {
	h := newFakeHot()
	e := &Engine{Hot: h, Threshold: 2.0, HotFactor: 3}

	base := 5 * time.Minute
	cell := "8a2a1072a6bffff"

	h.m[cell] = 1.9
	if got := e.TTLFor(cell, base); got != base {
		t.Fatalf("cold cell TTL = %v, want base %v", got, base)
	}

	h.m[cell] = 2.0
	if got := e.TTLFor(cell, base); got != 15*time.Minute {
		t.Fatalf("hot cell TTL = %v, want %v", got, 15*time.Minute)
	}
}

func TestTTLFor_CapsAtMaxTTL(t *testing.T) {
	h := newFakeHot()
	e := &Engine{Hot: h, Threshold: 1.0, HotFactor: 10, MaxTTL: 30 * time.Minute}

	cell := "892a100d2b3ffff"
	h.m[cell] = 50

	if got := e.TTLFor(cell, 5*time.Minute); got != 30*time.Minute {
		t.Fatalf("TTL = %v, want cap %v", got, 30*time.Minute)
	}
}

func TestTTLFor_DegenerateConfigKeepsBase(t *testing.T) {
	base := 5 * time.Minute
	cases := []*Engine{
		{Hot: nil, Threshold: 1, HotFactor: 3},
		{Hot: newFakeHot(), Threshold: 0, HotFactor: 3},
		{Hot: newFakeHot(), Threshold: 1, HotFactor: 1},
	}
	for i, e := range cases {
		if got := e.TTLFor("cell", base); got != base {
			t.Fatalf("case %d: TTL = %v, want base %v", i, got, base)
		}
	}
}
