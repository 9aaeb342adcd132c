package suggest

import (
	"errors"
	"testing"

	"github.com/moodscout/moodscout/internal/core/model"
)

func resultWith(ids ...string) Result {
	sugs := make([]model.Suggestion, 0, len(ids))
	for _, id := range ids {
		sugs = append(sugs, model.Suggestion{ID: id})
	}
	return Result{Suggestions: sugs}
}

func TestStore_CommitSuccessAppliesLatest(t *testing.T) {
	s := NewStore()
	gen := s.Begin()
	if _, _, loading, _ := snap(s); !loading {
		t.Fatal("Begin should set loading")
	}
	if !s.CommitSuccess(gen, resultWith("a")) {
		t.Fatal("commit of current generation rejected")
	}
	res, has, loading, err := s.Snapshot()
	if !has || loading || err != nil {
		t.Fatalf("state has=%v loading=%v err=%v", has, loading, err)
	}
	if len(res.Suggestions) != 1 || res.Suggestions[0].ID != "a" {
		t.Fatalf("result=%+v", res.Suggestions)
	}
}

func TestStore_StaleCommitIsDropped(t *testing.T) {
	s := NewStore()
	old := s.Begin()
	newer := s.Begin()

	if !s.CommitSuccess(newer, resultWith("fresh")) {
		t.Fatal("newest commit rejected")
	}
	// the superseded fetch completes late; it must not overwrite
	if s.CommitSuccess(old, resultWith("stale")) {
		t.Fatal("stale commit applied")
	}
	if got := s.Suggestions(); len(got) != 1 || got[0].ID != "fresh" {
		t.Fatalf("suggestions=%+v want [fresh]", got)
	}
}

func TestStore_ErrorKeepsPreviousSuggestions(t *testing.T) {
	s := NewStore()
	gen := s.Begin()
	s.CommitSuccess(gen, resultWith("keep"))

	gen = s.Begin()
	wantErr := errors.New("places down")
	if !s.CommitError(gen, wantErr) {
		t.Fatal("error commit rejected")
	}
	res, has, loading, err := s.Snapshot()
	if !has {
		t.Fatal("previous data discarded on error")
	}
	if loading {
		t.Fatal("loading flag not cleared on error")
	}
	if !errors.Is(err, wantErr) {
		t.Fatalf("err=%v want %v", err, wantErr)
	}
	if len(res.Suggestions) != 1 || res.Suggestions[0].ID != "keep" {
		t.Fatalf("suggestions=%+v want previous collection untouched", res.Suggestions)
	}
}

func TestStore_StaleErrorDoesNotClearNewerLoading(t *testing.T) {
	s := NewStore()
	old := s.Begin()
	_ = s.Begin() // newer fetch in flight

	if s.CommitError(old, errors.New("late failure")) {
		t.Fatal("stale error commit applied")
	}
	if _, _, loading, _ := snap(s); !loading {
		t.Fatal("newer fetch's loading flag was cleared by a stale error")
	}
}

func snap(s *Store) (Result, bool, bool, error) {
	return s.Snapshot()
}
