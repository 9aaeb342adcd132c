package suggest

import (
	"reflect"
	"testing"

	"github.com/moodscout/moodscout/internal/core/model"
)

func sug(id string, outdoor bool) model.Suggestion {
	return model.Suggestion{ID: id, Name: "place " + id, IsOutdoor: outdoor}
}

func TestMerge_CrowdLevelJoinsByPlaceID(t *testing.T) {
	in := []model.Suggestion{sug("a", false), sug("b", false)}
	crowd := model.CrowdLevels{"a": "busy"}

	out := Merge(in, nil, crowd)
	if out[0].CrowdLevel != "busy" {
		t.Fatalf("a crowd=%q want busy", out[0].CrowdLevel)
	}
	if out[1].CrowdLevel != model.CrowdLevelUnknown {
		t.Fatalf("b crowd=%q want %q", out[1].CrowdLevel, model.CrowdLevelUnknown)
	}
}

func TestMerge_EmptyCrowdLevels_AllUnknown(t *testing.T) {
	out := Merge([]model.Suggestion{sug("x", false)}, nil, model.CrowdLevels{})
	if out[0].CrowdLevel != model.CrowdLevelUnknown {
		t.Fatalf("crowd=%q want %q", out[0].CrowdLevel, model.CrowdLevelUnknown)
	}
}

func TestMerge_RainForcesIndoor(t *testing.T) {
	w := &model.Weather{IsRaining: true}
	out := Merge([]model.Suggestion{sug("a", true)}, w, nil)
	if !out[0].IsIndoor {
		t.Fatal("raining: outdoor place should be forced indoor")
	}
}

func TestMerge_NoWeather_KeepsSourceAttribute(t *testing.T) {
	// without weather the indoor flag mirrors the place's own attribute
	out := Merge([]model.Suggestion{sug("a", true), sug("b", false)}, nil, nil)
	if out[0].IsIndoor != true {
		t.Fatalf("outdoor place: is_indoor=%v want true (mirrors source attribute)", out[0].IsIndoor)
	}
	if out[1].IsIndoor != false {
		t.Fatalf("indoor place: is_indoor=%v want false", out[1].IsIndoor)
	}
}

func TestMerge_DryWeather_SameAsNoWeather(t *testing.T) {
	w := &model.Weather{IsRaining: false}
	a := Merge([]model.Suggestion{sug("a", true)}, w, nil)
	b := Merge([]model.Suggestion{sug("a", true)}, nil, nil)
	if !reflect.DeepEqual(a, b) {
		t.Fatalf("dry weather result %+v differs from no-weather result %+v", a, b)
	}
}

func TestMerge_Idempotent(t *testing.T) {
	in := []model.Suggestion{sug("a", true), sug("b", false), sug("c", true)}
	w := &model.Weather{IsRaining: true}
	crowd := model.CrowdLevels{"b": "quiet"}

	once := Merge(in, w, crowd)
	twice := Merge(once, w, crowd)
	if !reflect.DeepEqual(once, twice) {
		t.Fatalf("merge not idempotent:\nonce:  %+v\ntwice: %+v", once, twice)
	}
}

func TestMerge_DoesNotMutateInput(t *testing.T) {
	in := []model.Suggestion{sug("a", true)}
	_ = Merge(in, &model.Weather{IsRaining: true}, model.CrowdLevels{"a": "packed"})
	if in[0].CrowdLevel != "" || in[0].IsIndoor {
		t.Fatalf("input mutated: %+v", in[0])
	}
}

func TestMerge_EmptyInput_ReturnsEmpty(t *testing.T) {
	out := Merge(nil, nil, nil)
	if len(out) != 0 {
		t.Fatalf("len=%d want 0", len(out))
	}
}
