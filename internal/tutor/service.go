package tutor

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/abhisek/vidtutor/internal/llm"
	"github.com/abhisek/vidtutor/internal/logger"
	"github.com/google/uuid"
)

// Service runs tutoring turns against an LLM provider. It holds no
// per-session data and is safe for concurrent use.
type Service struct {
	provider llm.Provider
	cfg      Config
	log      *logger.Logger
	now      func() time.Time
	newID    func() string
}

// Option configures a Service.
type Option func(*Service)

// WithConfig overrides the default tutoring config.
func WithConfig(cfg Config) Option {
	return func(s *Service) { s.cfg = cfg }
}

// WithLogger sets the logger used for turn diagnostics.
func WithLogger(l *logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.log = l
		}
	}
}

// WithClock replaces the wall clock, mainly for tests.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// NewService creates a tutoring service backed by provider.
func NewService(provider llm.Provider, opts ...Option) *Service {
	s := &Service{
		provider: provider,
		cfg:      DefaultConfig(),
		log:      logger.Nop(),
		now:      time.Now,
		newID:    func() string { return uuid.NewString() },
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// TurnResult is the outcome of one Evaluate call.
type TurnResult struct {
	State *ConversationState

	// Evaluation is nil when the turn did not grade an answer, e.g. a
	// "done watching" message or a help keyword.
	Evaluation *EvaluationResult

	// Message is the tutor reply appended to State.Messages.
	Message Message
}

// HintResult is the outcome of one Hint call.
type HintResult struct {
	Hint           Hint
	UpdatedProfile UserProfile
	State          *ConversationState
	Warning        string
}

// Start creates the state for a new session. The greeting is generated by
// the LLM when possible and falls back to a canned message otherwise, so
// Start only fails on invalid input.
func (s *Service) Start(ctx context.Context, videoID, videoTitle string, analysis *Analysis) (*ConversationState, error) {
	if strings.TrimSpace(videoID) == "" || strings.TrimSpace(videoTitle) == "" || analysis == nil || len(analysis.Chapters) == 0 {
		return nil, fmt.Errorf("start session: %w", ErrMissingFields)
	}

	now := s.now().UnixMilli()
	state := &ConversationState{
		SessionID:           s.newID(),
		VideoID:             videoID,
		VideoTitle:          videoTitle,
		Phase:               PhaseWatching,
		CurrentChapterIndex: 0,
		UnlockedChapters:    []int{0},
		ChapterLocks:        newChapterLocks(analysis.Chapters),
		ChapterScores:       map[int]int{},
		Checkpoints:         []Checkpoint{},
		Messages:            []Message{},
		UserProfile: UserProfile{
			ResponseQuality: QualityAdequate,
			PreferredPacing: "medium",
			Misconceptions:  []string{},
			StrongConcepts:  []string{},
		},
		StartedAt:      now,
		LastActivityAt: now,
	}

	ctx = llm.WithSession(ctx, state.SessionID)
	topic := analysis.Topic()
	greeting, err := s.ask(ctx, llm.PurposeGreeting, greetingSystemPrompt, InitialPrompt(videoTitle, topic), s.cfg.Greeting)
	if err != nil {
		s.log.Warn("greeting generation failed, using default", "session_id", state.SessionID, "error", err)
		greeting = DefaultGreeting(topic)
	}

	first := analysis.Chapters[0]
	content := greeting
	if s.cfg.AssessPriorKnowledge {
		state.Phase = PhaseInitial
	} else {
		content = greeting + "\n\n" + WatchInstruction(first)
	}
	state.Messages = append(state.Messages, Message{
		ID:          s.newID(),
		Role:        RoleAI,
		Content:     content,
		Timestamp:   now,
		MessageType: MessageQuestion,
		ChapterID:   first.Title,
	})

	s.log.Info("session started", "session_id", state.SessionID, "video_id", videoID,
		"chapters", len(analysis.Chapters), "phase", string(state.Phase))
	return state, nil
}

// Evaluate runs one turn of the state machine. The input state is never
// modified; on error the caller keeps its last good state.
func (s *Service) Evaluate(ctx context.Context, state *ConversationState, answer string, analysis *Analysis) (*TurnResult, error) {
	if state == nil || strings.TrimSpace(answer) == "" || analysis == nil || len(analysis.Chapters) == 0 {
		return nil, fmt.Errorf("evaluate: %w", ErrMissingFields)
	}

	st := state.Clone()
	if err := normalize(st, analysis); err != nil {
		return nil, fmt.Errorf("evaluate: %w", err)
	}

	t := &turn{
		svc:      s,
		ctx:      llm.WithSession(ctx, st.SessionID),
		state:    st,
		analysis: analysis,
		answer:   strings.TrimSpace(answer),
		history:  slices.Clone(st.Messages),
		now:      s.now().UnixMilli(),
	}
	if st.Phase != PhaseComplete {
		ch, ok := analysis.Chapter(st.CurrentChapterIndex)
		if !ok {
			return nil, fmt.Errorf("evaluate: %w: %d", ErrInvalidChapterIndex, st.CurrentChapterIndex)
		}
		t.chapter = ch
	}

	before := st.Phase
	st.Messages = append(st.Messages, Message{
		ID:          s.newID(),
		Role:        RoleUser,
		Content:     t.answer,
		Timestamp:   t.now,
		MessageType: MessageAnswer,
		ChapterID:   t.chapter.Title,
	})

	if err := handlers[before](t); err != nil {
		return nil, err
	}

	msgType := MessageQuestion
	if st.Phase == PhaseCheckpoint || st.Phase == PhaseComplete {
		msgType = MessageCheckpoint
	}
	reply := Message{
		ID:          s.newID(),
		Role:        RoleAI,
		Content:     t.reply,
		Timestamp:   t.now,
		MessageType: msgType,
		ChapterID:   t.chapter.Title,
	}
	st.Messages = append(st.Messages, reply)

	if st.LastActivityAt > 0 && t.now > st.LastActivityAt {
		st.TotalTimeSpent += t.now - st.LastActivityAt
	}
	st.LastActivityAt = t.now

	fields := []any{"session_id", st.SessionID, "from", string(before), "to", string(st.Phase),
		"chapter", st.CurrentChapterIndex}
	if t.eval != nil {
		fields = append(fields, "score", t.eval.Score)
	}
	s.log.Debug("tutor turn", fields...)

	return &TurnResult{State: st, Evaluation: t.eval, Message: reply}, nil
}

// Hint generates a hint for the current question. Hints are tracked in the
// profile and report a score impact of level×5, but never change scores.
func (s *Service) Hint(ctx context.Context, state *ConversationState, question, answer string, level int, analysis *Analysis) (*HintResult, error) {
	if state == nil || strings.TrimSpace(question) == "" || analysis == nil || len(analysis.Chapters) == 0 {
		return nil, fmt.Errorf("hint: %w", ErrMissingFields)
	}
	if level < 1 || level > MaxHintLevel {
		return nil, fmt.Errorf("hint: %w: %d", ErrInvalidHintLevel, level)
	}
	ch, ok := analysis.Chapter(state.CurrentChapterIndex)
	if !ok {
		return nil, fmt.Errorf("hint: %w: %d", ErrInvalidChapterIndex, state.CurrentChapterIndex)
	}

	st := state.Clone()
	if err := normalize(st, analysis); err != nil {
		return nil, fmt.Errorf("hint: %w", err)
	}

	ctx = llm.WithSession(ctx, st.SessionID)
	content, err := s.ask(ctx, llm.PurposeHint, conversationalSystemPrompt, HintPrompt(question, answer, level, ch), s.cfg.Hint)
	if err != nil {
		return nil, fmt.Errorf("hint: %w", err)
	}

	hint := Hint{Level: level, Content: content, ScoreImpact: level * 5}
	st.UserProfile.HintsUsedTotal++
	now := s.now().UnixMilli()
	st.Messages = append(st.Messages, Message{
		ID:          s.newID(),
		Role:        RoleAI,
		Content:     content,
		Timestamp:   now,
		MessageType: MessageHint,
		ChapterID:   ch.Title,
	})
	st.LastActivityAt = max(st.LastActivityAt, now)

	res := &HintResult{Hint: hint, UpdatedProfile: st.UserProfile, State: st}
	if level >= 3 {
		res.Warning = fmt.Sprintf("Level %d hints reveal a lot and carry a %d-point score impact.", level, hint.ScoreImpact)
	}
	s.log.Debug("hint issued", "session_id", st.SessionID, "level", level, "hints_used", st.UserProfile.HintsUsedTotal)
	return res, nil
}

// ask requests free text from the LLM and cleans up the reply.
func (s *Service) ask(ctx context.Context, purpose, system, prompt string, params GenParams) (string, error) {
	ctx = llm.WithPurpose(ctx, purpose)
	resp, err := s.provider.Generate(ctx, llm.Request{
		System:      system,
		Messages:    []llm.Message{{Role: llm.RoleUser, Content: prompt}},
		MaxTokens:   params.MaxTokens,
		Temperature: params.Temperature,
	})
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrEvaluationUnavailable, err)
	}
	text := cleanReply(resp.Text())
	if text == "" {
		return "", fmt.Errorf("%w: empty %s reply", ErrEvaluationUnavailable, purpose)
	}
	return text, nil
}

// grade asks the LLM to evaluate an answer. Structured replies that fail
// schema validation are scraped as prose instead of failing the turn.
func (s *Service) grade(ctx context.Context, prompt string) (EvaluationResult, error) {
	ctx = llm.WithPurpose(ctx, llm.PurposeEvaluation)
	req := llm.Request{
		System:      evaluationSystemPrompt,
		MaxTokens:   s.cfg.Evaluation.MaxTokens,
		Temperature: s.cfg.Evaluation.Temperature,
	}

	if !s.cfg.StructuredEvaluation {
		req.Messages = []llm.Message{{Role: llm.RoleUser, Content: prompt + EvaluationInstructions}}
		resp, err := s.provider.Generate(ctx, req)
		if err != nil {
			return EvaluationResult{}, fmt.Errorf("%w: %w", ErrEvaluationUnavailable, err)
		}
		return ParseEvaluation(resp.Text()), nil
	}

	req.Messages = []llm.Message{{Role: llm.RoleUser, Content: prompt + StructuredEvaluationInstructions}}
	req.Schema = EvaluationSchema
	resp, err := s.provider.Generate(ctx, req)
	if err != nil {
		var invalid *llm.ErrInvalidResponse
		if errors.As(err, &invalid) && len(invalid.Content) > 0 {
			s.log.Warn("structured evaluation invalid, parsing as text", "error", err)
			return decodeEvaluation(invalid.Content), nil
		}
		var truncated *llm.ErrMaxTokensExceeded
		if errors.As(err, &truncated) && len(truncated.Content) > 0 {
			s.log.Warn("structured evaluation truncated, parsing as text", "bytes", len(truncated.Content))
			return decodeEvaluation(truncated.Content), nil
		}
		return EvaluationResult{}, fmt.Errorf("%w: %w", ErrEvaluationUnavailable, err)
	}
	return decodeEvaluation(resp.Content), nil
}
