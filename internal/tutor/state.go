package tutor

import (
	"fmt"
	"maps"
	"math"
	"slices"
)

// Clone returns a deep copy of the state.
func (s *ConversationState) Clone() *ConversationState {
	if s == nil {
		return nil
	}
	c := *s
	c.UnlockedChapters = slices.Clone(s.UnlockedChapters)
	c.ChapterLocks = slices.Clone(s.ChapterLocks)
	c.ChapterScores = maps.Clone(s.ChapterScores)
	c.Checkpoints = slices.Clone(s.Checkpoints)
	c.Messages = slices.Clone(s.Messages)
	c.UserProfile.Misconceptions = slices.Clone(s.UserProfile.Misconceptions)
	c.UserProfile.StrongConcepts = slices.Clone(s.UserProfile.StrongConcepts)
	return &c
}

// IsUnlocked reports whether chapter i has been unlocked.
func (s *ConversationState) IsUnlocked(i int) bool {
	return slices.Contains(s.UnlockedChapters, i)
}

// LastMessage returns the most recent message, if any.
func (s *ConversationState) LastMessage() (Message, bool) {
	if len(s.Messages) == 0 {
		return Message{}, false
	}
	return s.Messages[len(s.Messages)-1], true
}

// normalize repairs state received from an untrusted client in place.
// Missing collections are created, negative counters are zeroed, and the
// unlocked set is sorted with chapter 0 always present.
func normalize(s *ConversationState, analysis *Analysis) error {
	if _, ok := handlers[s.Phase]; !ok {
		return fmt.Errorf("%w: %q", ErrUnknownPhase, s.Phase)
	}
	if s.CurrentChapterIndex < 0 {
		return fmt.Errorf("%w: %d", ErrInvalidChapterIndex, s.CurrentChapterIndex)
	}

	if s.ChapterScores == nil {
		s.ChapterScores = map[int]int{}
	}
	for i, score := range s.ChapterScores {
		s.ChapterScores[i] = clampScore(score)
	}
	if s.Checkpoints == nil {
		s.Checkpoints = []Checkpoint{}
	}
	if s.Messages == nil {
		s.Messages = []Message{}
	}
	if len(s.ChapterLocks) == 0 && analysis != nil {
		s.ChapterLocks = newChapterLocks(analysis.Chapters)
	}

	s.UnlockedChapters = append(s.UnlockedChapters, 0)
	slices.Sort(s.UnlockedChapters)
	s.UnlockedChapters = slices.Compact(s.UnlockedChapters)

	s.ConsecutiveFailures = max(s.ConsecutiveFailures, 0)
	s.TotalFailures = max(s.TotalFailures, 0)
	s.TotalTimeSpent = max(s.TotalTimeSpent, 0)

	p := &s.UserProfile
	p.HintsUsedTotal = max(p.HintsUsedTotal, 0)
	p.OverallComprehension = clampScore(p.OverallComprehension)
	switch p.ResponseQuality {
	case QualityStruggling, QualityAdequate, QualityExcellent:
	default:
		p.ResponseQuality = QualityAdequate
	}
	if p.Misconceptions == nil {
		p.Misconceptions = []string{}
	}
	if p.StrongConcepts == nil {
		p.StrongConcepts = []string{}
	}
	return nil
}

func newChapterLocks(chapters []Chapter) []ChapterLock {
	locks := make([]ChapterLock, len(chapters))
	for i, ch := range chapters {
		status := LockLocked
		if i == 0 {
			status = LockUnlocked
		}
		locks[i] = ChapterLock{
			ChapterIndex: i,
			IsUnlocked:   i == 0,
			Status:       status,
			UnlockRequirements: UnlockRequirements{
				PreviousChapterScore: PassThreshold,
				QuestionsAnswered:    2,
				MinimumViewTime:      0.8 * max(ch.EndTime-ch.StartTime, 0),
			},
		}
	}
	return locks
}

// unlock adds chapter i to the unlocked set and marks its lock.
func (s *ConversationState) unlock(i int) {
	if !s.IsUnlocked(i) {
		s.UnlockedChapters = append(s.UnlockedChapters, i)
		slices.Sort(s.UnlockedChapters)
	}
	if i < len(s.ChapterLocks) && s.ChapterLocks[i].Status != LockCompleted {
		s.ChapterLocks[i].IsUnlocked = true
		s.ChapterLocks[i].Status = LockUnlocked
	}
}

func (s *ConversationState) complete(i int) {
	if i < len(s.ChapterLocks) {
		s.ChapterLocks[i].IsUnlocked = true
		s.ChapterLocks[i].Status = LockCompleted
	}
}

func (s *ConversationState) hasCheckpoint(i int) bool {
	return slices.ContainsFunc(s.Checkpoints, func(c Checkpoint) bool {
		return c.ChapterIndex == i
	})
}

// questionsAsked counts tutor questions tagged with the chapter title.
func (s *ConversationState) questionsAsked(chapterID string) int {
	n := 0
	for _, m := range s.Messages {
		if m.Role == RoleAI && m.MessageType == MessageQuestion && m.ChapterID == chapterID {
			n++
		}
	}
	return n
}

// meanScore is the rounded mean of all recorded chapter scores.
func meanScore(scores map[int]int) int {
	if len(scores) == 0 {
		return 0
	}
	sum := 0
	for _, s := range scores {
		sum += s
	}
	return int(math.Round(float64(sum) / float64(len(scores))))
}

// mergeUnique appends items not already present, keeping order.
func mergeUnique(set []string, items ...string) []string {
	for _, item := range items {
		if item != "" && !slices.Contains(set, item) {
			set = append(set, item)
		}
	}
	return set
}
