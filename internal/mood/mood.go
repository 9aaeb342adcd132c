// Package mood maps abstract mood labels to the activity-type vocabulary
// understood by the places source.
package mood

import (
	"errors"
	"fmt"
	"math/rand"
	"strings"

	"github.com/moodscout/moodscout/internal/core/model"
)

// ErrUnknownMood reports a mood outside the known vocabulary. It is a valid
// empty outcome, not a transient failure; callers must not retry it.
var ErrUnknownMood = errors.New("unknown mood")

var activityTypesByMood = map[string][]string{
	"Relaxed": {
		"park",
		"spa",
		"library",
		"art_gallery",
		"tourist_attraction",
		"botanical_garden",
		"scenic_viewpoint",
	},
	"Focused": {
		"cafe",
		"book_store",
		"library",
		"museum",
		"art_gallery",
		"university",
	},
	"Adventurous": {
		"park",
		"tourist_attraction",
		"amusement_park",
		"aquarium",
		"zoo",
	},
	"Excited": {
		"restaurant",
		"night_club",
		"amusement_park",
		"bowling_alley",
		"movie_theater",
		"stadium",
		"tourist_attraction",
		"arcade",
	},
	"Energetic": {
		"gym",
		"yoga_studio",
		"stadium",
		"fitness_center",
		"amusement_park",
		"swimming_pool",
		"trampoline_park",
	},
}

// Resolver selects activity types for a mood. The random source is injected
// so tests can pin the selection.
type Resolver struct {
	rnd *rand.Rand
}

func NewResolver(rnd *rand.Rand) *Resolver {
	return &Resolver{rnd: rnd}
}

// canonical resolves a mood label case-insensitively to its table key.
func canonical(mood string) string {
	m := strings.TrimSpace(mood)
	if _, ok := activityTypesByMood[m]; ok {
		return m
	}
	for k := range activityTypesByMood {
		if strings.EqualFold(k, m) {
			return k
		}
	}
	return m
}

// CategoryForMood maps a mood to the category bucket its suggestions carry.
// The high-energy moods share the adventurous bucket.
func CategoryForMood(mood string) string {
	switch canonical(mood) {
	case "Relaxed":
		return model.CategoryRelaxing
	case "Focused":
		return model.CategoryFocused
	case "Adventurous", "Excited", "Energetic":
		return model.CategoryAdventurous
	default:
		return model.CategoryUnclassified
	}
}

// Resolve picks one activity type for the mood, uniformly at random.
// Mood labels match case-insensitively.
func (r *Resolver) Resolve(mood string) (string, error) {
	tags, ok := activityTypesByMood[canonical(mood)]
	if !ok || len(tags) == 0 {
		return "", fmt.Errorf("%w: %q", ErrUnknownMood, mood)
	}
	if r.rnd == nil {
		return tags[rand.Intn(len(tags))], nil
	}
	return tags[r.rnd.Intn(len(tags))], nil
}

// ResolveAll returns the full ordered tag list for the mood.
func (r *Resolver) ResolveAll(mood string) ([]string, error) {
	tags, ok := activityTypesByMood[canonical(mood)]
	if !ok || len(tags) == 0 {
		return nil, fmt.Errorf("%w: %q", ErrUnknownMood, mood)
	}
	out := make([]string, len(tags))
	copy(out, tags)
	return out, nil
}

// Moods lists the known vocabulary in no particular order.
func Moods() []string {
	out := make([]string, 0, len(activityTypesByMood))
	for m := range activityTypesByMood {
		out = append(out, m)
	}
	return out
}

// AllActivityTypes returns the union of every mood's tags, deduplicated,
// used by the cache invalidator to cover all possible cached queries.
func AllActivityTypes() []string {
	seen := map[string]struct{}{}
	var out []string
	for _, tags := range activityTypesByMood {
		for _, t := range tags {
			if _, dup := seen[t]; dup {
				continue
			}
			seen[t] = struct{}{}
			out = append(out, t)
		}
	}
	return out
}
