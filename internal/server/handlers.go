package server

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/abhisek/vidtutor/internal/analysis"
	"github.com/abhisek/vidtutor/internal/config"
	"github.com/abhisek/vidtutor/internal/tutor"
	"github.com/gin-gonic/gin"
)

type startRequest struct {
	VideoID    string          `json:"videoId"`
	VideoTitle string          `json:"videoTitle"`
	Analysis   *tutor.Analysis `json:"analysis"`
}

type startResponse struct {
	Success           bool                     `json:"success"`
	ConversationState *tutor.ConversationState `json:"conversationState"`
	Message           string                   `json:"message"`
}

// POST /api/tutor/start
func (s *Server) start(c *gin.Context) {
	var req startRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.fail(c, fmt.Errorf("%w: %v", tutor.ErrMissingFields, err))
		return
	}

	ctx := c.Request.Context()
	state, err := s.tutor.Start(ctx, req.VideoID, req.VideoTitle, req.Analysis)
	if err != nil {
		s.fail(c, err)
		return
	}
	if err := s.save(ctx, state, req.Analysis); err != nil {
		s.fail(c, err)
		return
	}

	msg, _ := state.LastMessage()
	c.JSON(http.StatusOK, startResponse{Success: true, ConversationState: state, Message: msg.Content})
}

type evaluateRequest struct {
	ConversationState *tutor.ConversationState `json:"conversationState"`
	SessionID         string                   `json:"sessionId"`
	UserAnswer        string                   `json:"userAnswer"`
	Analysis          *tutor.Analysis          `json:"analysis"`
}

type evaluateResponse struct {
	Success           bool                     `json:"success"`
	ConversationState *tutor.ConversationState `json:"conversationState"`
	Evaluation        *tutor.EvaluationResult  `json:"evaluation"`
	Message           string                   `json:"message"`
}

// POST /api/tutor/evaluate
func (s *Server) evaluate(c *gin.Context) {
	var req evaluateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.fail(c, fmt.Errorf("%w: %v", tutor.ErrMissingFields, err))
		return
	}

	ctx := c.Request.Context()
	state, analysisDoc, err := s.resolveState(ctx, req.SessionID, req.ConversationState, req.Analysis)
	if err != nil {
		s.fail(c, err)
		return
	}

	res, err := s.tutor.Evaluate(ctx, state, req.UserAnswer, analysisDoc)
	if err != nil {
		s.fail(c, err)
		return
	}
	if err := s.save(ctx, res.State, analysisDoc); err != nil {
		s.fail(c, err)
		return
	}
	s.recorder.RecordTurn(ctx, state.Phase, strings.TrimSpace(req.UserAnswer), res)

	c.JSON(http.StatusOK, evaluateResponse{
		Success:           true,
		ConversationState: res.State,
		Evaluation:        res.Evaluation,
		Message:           res.Message.Content,
	})
}

type hintRequest struct {
	ConversationState *tutor.ConversationState `json:"conversationState"`
	SessionID         string                   `json:"sessionId"`
	CurrentQuestion   string                   `json:"currentQuestion"`
	UserAnswer        string                   `json:"userAnswer"`
	HintLevel         int                      `json:"hintLevel"`
	Analysis          *tutor.Analysis          `json:"analysis"`
}

type hintResponse struct {
	Success        bool              `json:"success"`
	Hint           tutor.Hint        `json:"hint"`
	UpdatedProfile tutor.UserProfile `json:"updatedProfile"`
	Warning        string            `json:"warning,omitempty"`
}

// POST /api/tutor/hint
func (s *Server) hint(c *gin.Context) {
	var req hintRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.fail(c, fmt.Errorf("%w: %v", tutor.ErrMissingFields, err))
		return
	}

	ctx := c.Request.Context()
	state, analysisDoc, err := s.resolveState(ctx, req.SessionID, req.ConversationState, req.Analysis)
	if err != nil {
		s.fail(c, err)
		return
	}

	res, err := s.tutor.Hint(ctx, state, req.CurrentQuestion, req.UserAnswer, req.HintLevel, analysisDoc)
	if err != nil {
		s.fail(c, err)
		return
	}
	if err := s.save(ctx, res.State, analysisDoc); err != nil {
		s.fail(c, err)
		return
	}
	s.recorder.RecordHint(ctx, req.CurrentQuestion, res)

	c.JSON(http.StatusOK, hintResponse{
		Success:        true,
		Hint:           res.Hint,
		UpdatedProfile: res.UpdatedProfile,
		Warning:        res.Warning,
	})
}

// transcriptSegment accepts both {start, duration} and {start, end}.
type transcriptSegment struct {
	Text     string  `json:"text"`
	Start    float64 `json:"start"`
	Duration float64 `json:"duration"`
	End      float64 `json:"end"`
}

type analyzeRequest struct {
	VideoTitle string              `json:"videoTitle"`
	Transcript []transcriptSegment `json:"transcript"`
	Captions   string              `json:"captions"`
}

type analyzeResponse struct {
	Success  bool            `json:"success"`
	Analysis *tutor.Analysis `json:"analysis"`
	Warning  string          `json:"warning,omitempty"`
}

// POST /api/analyze
func (s *Server) analyze(c *gin.Context) {
	var req analyzeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.fail(c, fmt.Errorf("%w: %v", tutor.ErrMissingFields, err))
		return
	}

	var segments []analysis.Segment
	if strings.TrimSpace(req.Captions) != "" {
		parsed, err := analysis.ParseCaptions(strings.NewReader(req.Captions))
		if err != nil {
			s.fail(c, fmt.Errorf("%w: %v", tutor.ErrMissingFields, err))
			return
		}
		segments = parsed
	} else {
		for _, seg := range req.Transcript {
			end := seg.End
			if end <= seg.Start {
				end = seg.Start + seg.Duration
			}
			segments = append(segments, analysis.Segment{Start: seg.Start, End: end, Text: seg.Text})
		}
	}

	res, err := s.analyzer.Analyze(c.Request.Context(), req.VideoTitle, segments)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, analyzeResponse{Success: true, Analysis: res.Analysis, Warning: res.Warning})
}

type sessionResponse struct {
	Success           bool                     `json:"success"`
	ConversationState *tutor.ConversationState `json:"conversationState"`
	Analysis          *tutor.Analysis          `json:"analysis,omitempty"`
}

// GET /api/sessions/:id
func (s *Server) getSession(c *gin.Context) {
	state, analysisDoc, err := s.recorder.Load(c.Request.Context(), c.Param("id"))
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, sessionResponse{Success: true, ConversationState: state, Analysis: analysisDoc})
}

// resolveState picks the state a turn runs against. In server mode the
// stored state is canonical and any client-sent state is ignored.
func (s *Server) resolveState(ctx context.Context, sessionID string, sent *tutor.ConversationState, sentAnalysis *tutor.Analysis) (*tutor.ConversationState, *tutor.Analysis, error) {
	if s.cfg.SessionMode != config.SessionModeServer {
		return sent, sentAnalysis, nil
	}

	if sessionID == "" && sent != nil {
		sessionID = sent.SessionID
	}
	if sessionID == "" {
		return nil, nil, fmt.Errorf("%w: sessionId", tutor.ErrMissingFields)
	}
	state, stored, err := s.recorder.Load(ctx, sessionID)
	if err != nil {
		return nil, nil, err
	}
	if stored == nil {
		stored = sentAnalysis
	}
	return state, stored, nil
}

// save persists the state. It is required in server mode and best effort
// otherwise. Events are recorded only after it succeeds.
func (s *Server) save(ctx context.Context, state *tutor.ConversationState, analysisDoc *tutor.Analysis) error {
	if !s.recorder.Enabled() || state.SessionID == "" {
		return nil
	}
	err := s.recorder.Save(context.WithoutCancel(ctx), state, analysisDoc)
	if err == nil {
		return nil
	}
	if s.cfg.SessionMode == config.SessionModeServer {
		return fmt.Errorf("save session: %w", err)
	}
	s.log.Warn("failed to record session", "session_id", state.SessionID, "error", err)
	return nil
}
