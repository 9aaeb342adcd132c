// Package metricswrap adds Prometheus and log visibility to a demand
// tracker.
package metricswrap

import (
	"log/slog"

	"github.com/moodscout/moodscout/internal/core/observability"
	"github.com/moodscout/moodscout/internal/hotness"
)

type Sizer interface{ Size() int }

// WithMetrics keeps the demand_tracked_cells gauge current and logs the
// first time a cell crosses the hot threshold since it last cooled off.
type WithMetrics struct {
	inner     hotness.Interface
	logger    *slog.Logger
	threshold float64
}

var _ hotness.Interface = (*WithMetrics)(nil)

func New(inner hotness.Interface, logger *slog.Logger, threshold float64) *WithMetrics {
	if logger == nil {
		logger = slog.Default()
	}
	return &WithMetrics{inner: inner, logger: logger, threshold: threshold}
}

func (w *WithMetrics) Observe(cell string) {
	before := 0.0
	if w.threshold > 0 {
		before = w.inner.Score(cell)
	}
	w.inner.Observe(cell)
	if w.threshold > 0 && before < w.threshold {
		if score := w.inner.Score(cell); score >= w.threshold {
			w.logger.Info("cell crossed hot threshold",
				"cell", cell, "score", score, "threshold", w.threshold)
		}
	}
	w.updateGauge()
}

func (w *WithMetrics) Score(cell string) float64 {
	return w.inner.Score(cell)
}

func (w *WithMetrics) Forget(cells ...string) {
	w.inner.Forget(cells...)
	w.updateGauge()
}

func (w *WithMetrics) updateGauge() {
	if s, ok := w.inner.(Sizer); ok {
		observability.SetTrackedCellsGauge(s.Size())
	}
}
