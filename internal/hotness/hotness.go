// Package hotness tracks search demand per H3 cell so the cache layer can
// hold popular areas longer than quiet ones.
package hotness

type Interface interface {
	// Observe records one nearby-search against the cell.
	Observe(cell string)
	// Score returns the current demand score for the cell.
	Score(cell string) float64
	// Forget drops tracking state for the given cells.
	Forget(cells ...string)
}
