package suggest

import "github.com/moodscout/moodscout/internal/core/model"

// BucketForScore maps a numeric mood score to a category bucket. Bounds are
// closed below and open above: 30 is focused, 70 is adventurous.
func BucketForScore(score float64) string {
	switch {
	case score < 30:
		return model.CategoryRelaxing
	case score < 70:
		return model.CategoryFocused
	default:
		return model.CategoryAdventurous
	}
}

// FilterByMood returns the order-preserving subsequence of suggestions whose
// category matches the score's bucket. The input is not mutated; an empty
// input yields an empty output.
func FilterByMood(suggestions []model.Suggestion, score float64) []model.Suggestion {
	out := []model.Suggestion{}
	if len(suggestions) == 0 {
		return out
	}
	bucket := BucketForScore(score)
	for _, s := range suggestions {
		if s.Category == bucket {
			out = append(out, s)
		}
	}
	return out
}
