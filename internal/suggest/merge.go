package suggest

import "github.com/moodscout/moodscout/internal/core/model"

// Merge folds weather and crowd-level data into each suggestion. It is a
// pure function over its inputs and idempotent: merging the same snapshot
// twice yields the same result. The input slice is not mutated.
//
// Crowd level joins by place id and defaults to Unknown. Rain forces a
// suggestion indoor; otherwise the place keeps its own classification.
func Merge(suggestions []model.Suggestion, weather *model.Weather, crowd model.CrowdLevels) []model.Suggestion {
	if len(suggestions) == 0 {
		return []model.Suggestion{}
	}
	out := make([]model.Suggestion, len(suggestions))
	for i, s := range suggestions {
		lvl, ok := crowd[s.ID]
		if !ok || lvl == "" {
			lvl = model.CrowdLevelUnknown
		}
		s.CrowdLevel = lvl

		// absent rain the indoor flag mirrors the place's own attribute
		if weather != nil && weather.IsRaining {
			s.IsIndoor = true
		} else {
			s.IsIndoor = s.IsOutdoor
		}
		out[i] = s
	}
	return out
}
