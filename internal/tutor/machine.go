package tutor

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"github.com/abhisek/vidtutor/internal/llm"
)

var (
	doneMessage = regexp.MustCompile(`(?i)^(done|finished|ready|watched|ok|okay|continue)(\s+(watching|with (the )?video|now))?[.!]*$`)
	helpKeyword = regexp.MustCompile(`(?i)\b(hint|simpler|easier|rewatch|skip)\b`)
)

// IsDoneMessage reports whether answer just says the learner finished
// watching.
func IsDoneMessage(answer string) bool {
	return doneMessage.MatchString(strings.TrimSpace(answer))
}

// HelpKeyword returns the lower-cased help keyword in answer, or "".
func HelpKeyword(answer string) string {
	return strings.ToLower(helpKeyword.FindString(answer))
}

// turn is the working set of one Evaluate call. Handlers mutate state,
// which is always a private copy.
type turn struct {
	svc      *Service
	ctx      context.Context
	state    *ConversationState
	analysis *Analysis
	chapter  Chapter
	answer   string
	history  []Message
	now      int64

	reply string
	eval  *EvaluationResult
}

type handler func(t *turn) error

// handlers is the phase transition table.
var handlers = map[Phase]handler{
	PhaseInitial:    (*turn).initial,
	PhasePreWatch:   (*turn).preWatch,
	PhaseWatching:   (*turn).watching,
	PhasePostWatch:  (*turn).postWatch,
	PhaseFollowUp:   (*turn).followUp,
	PhaseCheckpoint: (*turn).checkpoint,
	PhaseReview:     (*turn).review,
	PhaseComplete:   (*turn).complete,
}

func (t *turn) initial() error {
	t.state.PriorKnowledge = t.answer
	q, err := t.svc.ask(t.ctx, llm.PurposePreWatch, conversationalSystemPrompt,
		PreWatchPrompt(t.chapter, t.answer), t.svc.cfg.Conversation)
	if err != nil {
		return err
	}
	t.reply = q
	t.state.Phase = PhasePreWatch
	return nil
}

func (t *turn) preWatch() error {
	t.reply = WatchInstruction(t.chapter)
	t.state.Phase = PhaseWatching
	return nil
}

func (t *turn) watching() error {
	if !IsDoneMessage(t.answer) {
		return t.evaluate(true)
	}
	q, err := t.svc.ask(t.ctx, llm.PurposeComprehension, conversationalSystemPrompt,
		ComprehensionPrompt(t.chapter, QuestionDifficulty(t.state.UserProfile)), t.svc.cfg.Conversation)
	if err != nil {
		return err
	}
	t.reply = q
	t.state.Phase = PhasePostWatch
	return nil
}

func (t *turn) postWatch() error {
	return t.evaluate(true)
}

func (t *turn) followUp() error {
	return t.evaluate(false)
}

func (t *turn) checkpoint() error {
	next := t.state.CurrentChapterIndex + 1
	ch, ok := t.analysis.Chapter(next)
	if !ok {
		return fmt.Errorf("evaluate: %w: no chapter after %d", ErrInvalidChapterIndex, t.state.CurrentChapterIndex)
	}
	t.state.CurrentChapterIndex = next
	t.state.unlock(next)
	t.chapter = ch
	t.reply = WatchInstruction(ch)
	t.state.Phase = PhaseWatching
	return nil
}

func (t *turn) review() error {
	if kw := HelpKeyword(t.answer); kw != "" {
		t.reply = AssistMessage(kw, t.chapter)
		return nil
	}
	return t.evaluate(true)
}

func (t *turn) complete() error {
	t.reply = CompletionReminder(t.state)
	return nil
}

// evaluate grades the answer and applies the score branch. allowFollowUp
// is false in FOLLOW_UP, where a second partial answer goes to review.
func (t *turn) evaluate(allowFollowUp bool) error {
	prompt := PostWatchPrompt(t.chapter, t.answer, t.history, QuestionDifficulty(t.state.UserProfile))
	eval, err := t.svc.grade(t.ctx, prompt)
	if err != nil {
		return err
	}
	t.eval = &eval

	if eval.Passed {
		t.pass(eval)
		return nil
	}

	t.recordFailure(eval)
	if eval.NeedsFollowUp && allowFollowUp {
		q, err := t.svc.ask(t.ctx, llm.PurposeFollowUp, conversationalSystemPrompt,
			FollowUpPrompt(t.chapter, t.answer, eval.Weaknesses, eval.Misconceptions), t.svc.cfg.Conversation)
		if err != nil {
			return err
		}
		t.reply = q
		t.state.Phase = PhaseFollowUp
		return nil
	}

	if t.state.ConsecutiveFailures >= 2 {
		t.reply = FrustrationMessage(t.chapter, t.state.ConsecutiveFailures)
	} else {
		t.reply = ReviewMessage(t.chapter, eval)
	}
	t.state.Phase = PhaseReview
	return nil
}

func (t *turn) pass(eval EvaluationResult) {
	st := t.state
	i := st.CurrentChapterIndex

	if !st.hasCheckpoint(i) {
		st.Checkpoints = append(st.Checkpoints, Checkpoint{
			ID:             t.svc.newID(),
			ChapterID:      t.chapter.Title,
			ChapterIndex:   i,
			Passed:         true,
			Score:          eval.Score,
			QuestionsAsked: st.questionsAsked(t.chapter.Title),
			HintsUsed:      st.UserProfile.HintsUsedTotal,
			Timestamp:      t.now,
			Feedback:       eval.Feedback,
		})
	}

	st.ConsecutiveFailures = 0
	st.ChapterScores[i] = eval.Score
	st.UserProfile.OverallComprehension = meanScore(st.ChapterScores)
	st.UserProfile.ResponseQuality = QualityAdequate
	if eval.Score >= 85 {
		st.UserProfile.ResponseQuality = QualityExcellent
	}
	st.UserProfile.StrongConcepts = mergeUnique(st.UserProfile.StrongConcepts, eval.Strengths...)
	st.complete(i)

	if next, ok := t.analysis.Chapter(i + 1); ok {
		st.unlock(i + 1)
		t.reply = CheckpointMessage(t.chapter, eval.Score, &next)
		st.Phase = PhaseCheckpoint
		return
	}
	st.CurrentChapterIndex = len(t.analysis.Chapters)
	t.reply = CheckpointMessage(t.chapter, eval.Score, nil)
	st.Phase = PhaseComplete
}

func (t *turn) recordFailure(eval EvaluationResult) {
	t.state.ConsecutiveFailures++
	t.state.TotalFailures++
	t.state.UserProfile.Misconceptions = mergeUnique(t.state.UserProfile.Misconceptions, eval.Misconceptions...)
	t.state.UserProfile.ResponseQuality = QualityStruggling
}

// cleanReply strips wrappers models sometimes put around plain replies:
// code fences, a JSON object with a "message" field, or stray braces.
func cleanReply(text string) string {
	text = strings.TrimSpace(text)
	if strings.HasPrefix(text, "```") {
		text = strings.TrimPrefix(text, "```json")
		text = strings.TrimPrefix(text, "```")
		text = strings.TrimSuffix(strings.TrimSpace(text), "```")
		text = strings.TrimSpace(text)
	}

	if strings.HasPrefix(text, "{") {
		var obj struct {
			Message string `json:"message"`
		}
		if json.Unmarshal([]byte(text), &obj) == nil && obj.Message != "" {
			return strings.TrimSpace(obj.Message)
		}
	}
	if strings.HasPrefix(text, `"`) {
		var s string
		if json.Unmarshal([]byte(text), &s) == nil {
			return strings.TrimSpace(s)
		}
	}

	text = strings.TrimPrefix(text, "{")
	text = strings.TrimSuffix(text, "}")
	return strings.TrimSpace(text)
}
