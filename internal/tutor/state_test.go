package tutor

import (
	"errors"
	"reflect"
	"testing"
)

func TestNormalize_RepairsUntrustedState(t *testing.T) {
	st := &ConversationState{
		Phase:               PhaseWatching,
		UnlockedChapters:    []int{1, 1, 0, 1},
		ChapterScores:       map[int]int{0: 140},
		ConsecutiveFailures: -3,
		TotalFailures:       -1,
		UserProfile:         UserProfile{ResponseQuality: "ecstatic", HintsUsedTotal: -2},
	}
	if err := normalize(st, testAnalysis()); err != nil {
		t.Fatalf("normalize: %v", err)
	}

	if !reflect.DeepEqual(st.UnlockedChapters, []int{0, 1}) {
		t.Errorf("UnlockedChapters = %v", st.UnlockedChapters)
	}
	if st.ChapterScores[0] != 100 {
		t.Errorf("score not clamped: %d", st.ChapterScores[0])
	}
	if st.ConsecutiveFailures != 0 || st.TotalFailures != 0 || st.UserProfile.HintsUsedTotal != 0 {
		t.Error("negative counters not reset")
	}
	if st.UserProfile.ResponseQuality != QualityAdequate {
		t.Errorf("ResponseQuality = %s", st.UserProfile.ResponseQuality)
	}
	if st.Messages == nil || st.Checkpoints == nil || st.UserProfile.Misconceptions == nil {
		t.Error("collections not initialized")
	}
	if len(st.ChapterLocks) != 2 {
		t.Errorf("ChapterLocks = %d, want 2", len(st.ChapterLocks))
	}
}

func TestNormalize_RejectsUnknownPhase(t *testing.T) {
	err := normalize(&ConversationState{Phase: "LOST"}, testAnalysis())
	if !errors.Is(err, ErrUnknownPhase) {
		t.Errorf("err = %v, want ErrUnknownPhase", err)
	}
}

func TestHandlersCoverEveryPhase(t *testing.T) {
	for _, p := range Phases {
		if _, ok := handlers[p]; !ok {
			t.Errorf("no handler for %s", p)
		}
	}
	if len(handlers) != len(Phases) {
		t.Errorf("handlers = %d, phases = %d", len(handlers), len(Phases))
	}
}

func TestClone_IsDeep(t *testing.T) {
	orig := &ConversationState{
		UnlockedChapters: []int{0},
		ChapterScores:    map[int]int{0: 80},
		Messages:         []Message{{Content: "hi"}},
		UserProfile:      UserProfile{StrongConcepts: []string{"light"}},
	}
	c := orig.Clone()
	c.UnlockedChapters = append(c.UnlockedChapters[:1], 1)
	c.UnlockedChapters[0] = 9
	c.ChapterScores[1] = 90
	c.Messages[0].Content = "changed"
	c.UserProfile.StrongConcepts[0] = "dark"

	if orig.UnlockedChapters[0] != 0 || len(orig.ChapterScores) != 1 ||
		orig.Messages[0].Content != "hi" || orig.UserProfile.StrongConcepts[0] != "light" {
		t.Errorf("clone shares memory with original: %+v", orig)
	}
}

func TestMergeUnique(t *testing.T) {
	got := mergeUnique([]string{"a"}, "b", "a", "", "c", "b")
	if !reflect.DeepEqual(got, []string{"a", "b", "c"}) {
		t.Errorf("mergeUnique = %q", got)
	}
}
