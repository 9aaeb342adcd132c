// Package decision chooses cache behavior from observed search demand.
package decision

import "time"

// TTLPolicy decides how long a cached search response for a cell should
// live, given the configured base TTL.
type TTLPolicy interface {
	TTLFor(cell string, base time.Duration) time.Duration
}
