package keys

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/cespare/xxhash/v2"
)

// SearchKey builds the cache key for a nearby-search response. The cell is
// the H3 cell containing the request coordinate; two requests inside the
// same cell with the same activity and radius share one cached response.
// The activity text is sanitized for readability and hashed so unusual
// input can never collide with a sanitized sibling.
func SearchKey(cell string, res int, activity string, radiusM int) string {
	norm := strings.ToLower(strings.TrimSpace(activity))
	safe := sanitizeForKey(norm)

	const maxActivityLen = 80
	if len(safe) > maxActivityLen {
		safe = safe[:maxActivityLen]
	}

	sum := xxhash.Sum64String(norm)

	return fmt.Sprintf("sugg:%s:%d:%s:r=%d:q=%016x", cell, res, safe, radiusM, sum)
}

func sanitizeForKey(s string) string {
	if s == "" {
		return ""
	}
	var b strings.Builder
	b.Grow(len(s))

	var prev rune
	for _, r := range s {
		out := rune(0)
		switch {
		case r == ' ' || r == '\t' || r == '\n' || r == '\r' || r == '\v' || r == '\f':
			out = '_'
		case isAlphaNum(r) || r == '_' || r == '-':
			out = r
		default:
			// Any other rune (including non-ASCII) becomes '-'
			out = '-'
		}
		if (out == '_' || out == '-') && out == prev {
			continue
		}
		b.WriteRune(out)
		prev = out
	}
	return b.String()
}

func isAlphaNum(r rune) bool {
	return (r >= 'a' && r <= 'z') ||
		(r >= 'A' && r <= 'Z') ||
		unicode.IsDigit(r)
}
