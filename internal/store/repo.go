package store

import (
	"context"
	"encoding/json"
	"time"
)

// QueryOpts configures event queries with filtering and pagination.
type QueryOpts struct {
	Limit     int    // max results (0 = unlimited)
	After     int64  // sequence > After
	Before    int64  // sequence < Before
	SessionID string // exact match when set
	Purpose   string // LLM events only
}

// LLMRequestEventData captures the data for a single LLM request event.
type LLMRequestEventData struct {
	SessionID    string
	Provider     string
	Model        string
	Purpose      string
	InputTokens  int
	OutputTokens int
	LatencyMs    int64
	Success      bool
	ErrorMessage string
	RequestBody  string
	ResponseBody string
}

// LLMRequestEventRecord is a stored LLM request event.
type LLMRequestEventRecord struct {
	ID        int
	Sequence  int64
	Timestamp time.Time
	LLMRequestEventData
}

// LLMUsageStats aggregates LLM usage for one purpose.
type LLMUsageStats struct {
	Purpose      string
	Calls        int
	InputTokens  int
	OutputTokens int
	AvgLatencyMs int64
}

// LLMModelUsage aggregates token usage for one model.
type LLMModelUsage struct {
	Model        string
	Calls        int
	InputTokens  int
	OutputTokens int
}

// TurnEventData records one tutoring turn.
type TurnEventData struct {
	SessionID    string
	PhaseBefore  string
	PhaseAfter   string
	ChapterIndex int
	Score        *int // nil when the turn was not evaluated
	Passed       bool
	UserAnswer   string
	AIMessage    string
}

// TurnEventRecord is a stored turn event.
type TurnEventRecord struct {
	ID        int
	Sequence  int64
	Timestamp time.Time
	TurnEventData
}

// HintEventData records a hint served to the learner.
type HintEventData struct {
	SessionID    string
	ChapterIndex int
	Level        int
	Question     string
	HintText     string
	ScoreImpact  int
}

// EventRepo provides append and query access to tutoring events.
type EventRepo interface {
	// AppendLLMRequest records an LLM API call event.
	AppendLLMRequest(ctx context.Context, data LLMRequestEventData) error

	// QueryLLMEvents returns LLM events, newest first.
	QueryLLMEvents(ctx context.Context, opts QueryOpts) ([]LLMRequestEventRecord, error)

	// GetLLMEvent returns one LLM event, or nil if it does not exist.
	GetLLMEvent(ctx context.Context, id int) (*LLMRequestEventRecord, error)

	// LLMUsageByPurpose aggregates token usage per purpose.
	LLMUsageByPurpose(ctx context.Context) ([]LLMUsageStats, error)

	// LLMUsageByModel aggregates token usage per model.
	LLMUsageByModel(ctx context.Context) ([]LLMModelUsage, error)

	// AppendTurnEvent records one evaluated or scripted tutoring turn.
	AppendTurnEvent(ctx context.Context, data TurnEventData) error

	// QueryTurnEvents returns turn events in sequence order.
	QueryTurnEvents(ctx context.Context, opts QueryOpts) ([]TurnEventRecord, error)

	// AppendHintEvent records a served hint.
	AppendHintEvent(ctx context.Context, data HintEventData) error

	// CountHintEvents returns the number of hints served in a session.
	CountHintEvents(ctx context.Context, sessionID string) (int, error)
}

// SessionRecord is a persisted tutoring session. State and Analysis are
// opaque JSON documents owned by the tutor package.
type SessionRecord struct {
	ID            string
	VideoID       string
	VideoTitle    string
	Phase         string
	ChapterIndex  int
	ChapterCount  int
	Comprehension int
	State         json.RawMessage
	Analysis      json.RawMessage
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// SessionRepo stores the latest state of each tutoring session.
type SessionRepo interface {
	// Save inserts or replaces a session. CreatedAt is kept from the first save.
	Save(ctx context.Context, rec *SessionRecord) error

	// Get returns a session by id, or nil if it does not exist.
	Get(ctx context.Context, id string) (*SessionRecord, error)

	// List returns the most recently updated sessions.
	List(ctx context.Context, limit int) ([]SessionRecord, error)

	// Delete removes a session. Deleting a missing session is not an error.
	Delete(ctx context.Context, id string) error
}
