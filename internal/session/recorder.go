// Package session persists tutoring sessions and their turn history.
package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/abhisek/vidtutor/internal/logger"
	"github.com/abhisek/vidtutor/internal/store"
	"github.com/abhisek/vidtutor/internal/tutor"
)

// ErrNotFound means no session is stored under the requested id.
var ErrNotFound = errors.New("session not found")

// Recorder saves session state and appends turn and hint events. Either
// repo may be nil, which disables that half of the recording.
type Recorder struct {
	sessions store.SessionRepo
	events   store.EventRepo
	log      *logger.Logger
}

// NewRecorder creates a Recorder.
func NewRecorder(sessions store.SessionRepo, events store.EventRepo, log *logger.Logger) *Recorder {
	if log == nil {
		log = logger.Nop()
	}
	return &Recorder{sessions: sessions, events: events, log: log}
}

// Enabled reports whether session state can be saved and loaded.
func (r *Recorder) Enabled() bool {
	return r != nil && r.sessions != nil
}

// Save stores the latest state of a session together with its analysis.
func (r *Recorder) Save(ctx context.Context, st *tutor.ConversationState, analysis *tutor.Analysis) error {
	if !r.Enabled() {
		return nil
	}
	rec, err := ToRecord(st, analysis)
	if err != nil {
		return err
	}
	return r.sessions.Save(ctx, rec)
}

// Load returns the stored state and analysis of a session.
func (r *Recorder) Load(ctx context.Context, id string) (*tutor.ConversationState, *tutor.Analysis, error) {
	if !r.Enabled() {
		return nil, nil, fmt.Errorf("load session %s: %w", id, ErrNotFound)
	}
	rec, err := r.sessions.Get(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	if rec == nil {
		return nil, nil, fmt.Errorf("load session %s: %w", id, ErrNotFound)
	}
	return FromRecord(rec)
}

// RecordTurn appends a turn event. Failures are logged, never returned:
// the turn already happened.
func (r *Recorder) RecordTurn(ctx context.Context, before tutor.Phase, answer string, res *tutor.TurnResult) {
	if r == nil || r.events == nil || res == nil {
		return
	}
	data := store.TurnEventData{
		SessionID:    res.State.SessionID,
		PhaseBefore:  string(before),
		PhaseAfter:   string(res.State.Phase),
		ChapterIndex: res.State.CurrentChapterIndex,
		UserAnswer:   answer,
		AIMessage:    res.Message.Content,
	}
	if res.Evaluation != nil {
		score := res.Evaluation.Score
		data.Score = &score
		data.Passed = res.Evaluation.Passed
	}
	if err := r.events.AppendTurnEvent(context.WithoutCancel(ctx), data); err != nil {
		r.log.Warn("failed to record turn", "session_id", data.SessionID, "error", err)
	}
}

// RecordHint appends a hint event. Failures are logged.
func (r *Recorder) RecordHint(ctx context.Context, question string, res *tutor.HintResult) {
	if r == nil || r.events == nil || res == nil {
		return
	}
	data := store.HintEventData{
		SessionID:    res.State.SessionID,
		ChapterIndex: res.State.CurrentChapterIndex,
		Level:        res.Hint.Level,
		Question:     question,
		HintText:     res.Hint.Content,
		ScoreImpact:  res.Hint.ScoreImpact,
	}
	if err := r.events.AppendHintEvent(context.WithoutCancel(ctx), data); err != nil {
		r.log.Warn("failed to record hint", "session_id", data.SessionID, "error", err)
	}
}

// ToRecord converts a state into a store record.
func ToRecord(st *tutor.ConversationState, analysis *tutor.Analysis) (*store.SessionRecord, error) {
	if st == nil || st.SessionID == "" {
		return nil, fmt.Errorf("session record: %w", tutor.ErrMissingFields)
	}
	state, err := json.Marshal(st)
	if err != nil {
		return nil, fmt.Errorf("encode session state: %w", err)
	}
	rec := &store.SessionRecord{
		ID:            st.SessionID,
		VideoID:       st.VideoID,
		VideoTitle:    st.VideoTitle,
		Phase:         string(st.Phase),
		ChapterIndex:  st.CurrentChapterIndex,
		Comprehension: st.UserProfile.OverallComprehension,
		State:         state,
	}
	if analysis != nil {
		rec.ChapterCount = len(analysis.Chapters)
		if rec.Analysis, err = json.Marshal(analysis); err != nil {
			return nil, fmt.Errorf("encode session analysis: %w", err)
		}
	}
	return rec, nil
}

// FromRecord decodes a store record. The analysis is nil when none was
// stored.
func FromRecord(rec *store.SessionRecord) (*tutor.ConversationState, *tutor.Analysis, error) {
	var st tutor.ConversationState
	if err := json.Unmarshal(rec.State, &st); err != nil {
		return nil, nil, fmt.Errorf("decode session %s state: %w", rec.ID, err)
	}
	if st.SessionID == "" {
		st.SessionID = rec.ID
	}
	if len(rec.Analysis) == 0 {
		return &st, nil, nil
	}
	var analysis tutor.Analysis
	if err := json.Unmarshal(rec.Analysis, &analysis); err != nil {
		return nil, nil, fmt.Errorf("decode session %s analysis: %w", rec.ID, err)
	}
	return &st, &analysis, nil
}
