package tutor

// Phase is a stage of the tutoring dialogue.
type Phase string

const (
	PhaseInitial    Phase = "INITIAL"
	PhasePreWatch   Phase = "PRE_WATCH"
	PhaseWatching   Phase = "WATCHING"
	PhasePostWatch  Phase = "POST_WATCH"
	PhaseFollowUp   Phase = "FOLLOW_UP"
	PhaseCheckpoint Phase = "CHECKPOINT"
	PhaseReview     Phase = "REVIEW"
	PhaseComplete   Phase = "COMPLETE"
)

// Phases lists every phase in dialogue order.
var Phases = []Phase{
	PhaseInitial, PhasePreWatch, PhaseWatching, PhasePostWatch,
	PhaseFollowUp, PhaseCheckpoint, PhaseReview, PhaseComplete,
}

// Role identifies who wrote a message.
type Role string

const (
	RoleUser Role = "user"
	RoleAI   Role = "ai"
)

// MessageType classifies a conversation message.
type MessageType string

const (
	MessageQuestion   MessageType = "question"
	MessageAnswer     MessageType = "answer"
	MessageHint       MessageType = "hint"
	MessageCheckpoint MessageType = "checkpoint"
)

// ResponseQuality is the learner's recent answer quality band.
type ResponseQuality string

const (
	QualityStruggling ResponseQuality = "struggling"
	QualityAdequate   ResponseQuality = "adequate"
	QualityExcellent  ResponseQuality = "excellent"
)

// LockStatus tracks a chapter through the course.
type LockStatus string

const (
	LockLocked    LockStatus = "locked"
	LockUnlocked  LockStatus = "unlocked"
	LockCompleted LockStatus = "completed"
)

// Difficulty is the kind of question suited to the learner's profile.
type Difficulty string

const (
	DifficultyRecall      Difficulty = "recall"
	DifficultyApplication Difficulty = "application"
	DifficultySynthesis   Difficulty = "synthesis"
)

// Chapter is a time-bounded segment of the video. Times are in seconds.
type Chapter struct {
	Title     string   `json:"title"`
	StartTime float64  `json:"startTime"`
	EndTime   float64  `json:"endTime"`
	Summary   string   `json:"summary"`
	KeyPoints []string `json:"keyPoints"`
}

// KeyConcept is a term defined somewhere in the video.
type KeyConcept struct {
	Term       string  `json:"term"`
	Definition string  `json:"definition"`
	Context    string  `json:"context"`
	Timestamp  float64 `json:"timestamp"`
}

// Analysis is the chaptered breakdown of a video transcript.
type Analysis struct {
	Chapters             []Chapter    `json:"chapters"`
	KeyConcepts          []KeyConcept `json:"keyConcepts"`
	OverallSummary       string       `json:"overallSummary"`
	EstimatedReadingTime int          `json:"estimatedReadingTime"`
	DifficultyLevel      string       `json:"difficultyLevel"`
	Topics               []string     `json:"topics"`
}

// Topic returns the best label for the video's subject.
func (a *Analysis) Topic() string {
	if len(a.Topics) > 0 && a.Topics[0] != "" {
		return a.Topics[0]
	}
	if len(a.Chapters) > 0 && a.Chapters[0].Title != "" {
		return a.Chapters[0].Title
	}
	return "this topic"
}

// Chapter returns the chapter at i, or false when i is out of range.
func (a *Analysis) Chapter(i int) (Chapter, bool) {
	if a == nil || i < 0 || i >= len(a.Chapters) {
		return Chapter{}, false
	}
	return a.Chapters[i], true
}

// Message is one entry of the append-only conversation log.
// Timestamp is epoch milliseconds.
type Message struct {
	ID          string      `json:"id"`
	Role        Role        `json:"role"`
	Content     string      `json:"content"`
	Timestamp   int64       `json:"timestamp"`
	MessageType MessageType `json:"messageType"`
	ChapterID   string      `json:"chapterId,omitempty"`
}

// Checkpoint records the first pass of a chapter.
type Checkpoint struct {
	ID             string `json:"id"`
	ChapterID      string `json:"chapterId,omitempty"`
	ChapterIndex   int    `json:"chapterIndex"`
	Passed         bool   `json:"passed"`
	Score          int    `json:"score"`
	QuestionsAsked int    `json:"questionsAsked"`
	HintsUsed      int    `json:"hintsUsed"`
	Timestamp      int64  `json:"timestamp"`
	Feedback       string `json:"feedback"`
}

// UserProfile accumulates what the tutor has learned about the learner.
// Misconceptions and StrongConcepts are sets kept in insertion order.
type UserProfile struct {
	OverallComprehension int             `json:"overallComprehension"`
	ResponseQuality      ResponseQuality `json:"responseQuality"`
	PreferredPacing      string          `json:"preferredPacing,omitempty"`
	HintsUsedTotal       int             `json:"hintsUsedTotal"`
	Misconceptions       []string        `json:"misconceptions"`
	StrongConcepts       []string        `json:"strongConcepts"`
}

// UnlockRequirements describe what should gate a chapter. They are
// recorded at session start and are not enforced by transitions.
type UnlockRequirements struct {
	PreviousChapterScore int     `json:"previousChapterScore"`
	QuestionsAnswered    int     `json:"questionsAnswered"`
	MinimumViewTime      float64 `json:"minimumViewTime"`
}

// ChapterLock is the per-chapter gating record.
type ChapterLock struct {
	ChapterIndex       int                `json:"chapterIndex"`
	IsUnlocked         bool               `json:"isUnlocked"`
	Status             LockStatus         `json:"status"`
	UnlockRequirements UnlockRequirements `json:"unlockRequirements"`
}

// ConversationState is the root aggregate carried across turns.
// Times are epoch milliseconds; TotalTimeSpent is milliseconds.
type ConversationState struct {
	SessionID           string        `json:"sessionId,omitempty"`
	VideoID             string        `json:"videoId"`
	VideoTitle          string        `json:"videoTitle"`
	Phase               Phase         `json:"phase"`
	CurrentChapterIndex int           `json:"currentChapterIndex"`
	UnlockedChapters    []int         `json:"unlockedChapters"`
	ChapterLocks        []ChapterLock `json:"chapterLocks"`
	ChapterScores       map[int]int   `json:"chapterScores"`
	Checkpoints         []Checkpoint  `json:"checkpoints"`
	UserProfile         UserProfile   `json:"userProfile"`
	Messages            []Message     `json:"messages"`
	ConsecutiveFailures int           `json:"consecutiveFailures"`
	TotalFailures       int           `json:"totalFailures"`
	PriorKnowledge      string        `json:"priorKnowledge,omitempty"`
	StartedAt           int64         `json:"startedAt"`
	LastActivityAt      int64         `json:"lastActivityAt"`
	TotalTimeSpent      int64         `json:"totalTimeSpent"`
}

// EvaluationResult is the structured judgement of one answer.
type EvaluationResult struct {
	Score          int      `json:"score"`
	Passed         bool     `json:"passed"`
	Strengths      []string `json:"strengths"`
	Weaknesses     []string `json:"weaknesses"`
	Misconceptions []string `json:"misconceptions"`
	NeedsFollowUp  bool     `json:"needsFollowUp"`
	NextPhase      Phase    `json:"nextPhase"`
	CanProceed     bool     `json:"canProceed"`
	Feedback       string   `json:"feedback"`
}

// Hint is a level-graded nudge toward the answer.
type Hint struct {
	Level       int    `json:"level"`
	Content     string `json:"content"`
	ScoreImpact int    `json:"scoreImpact"`
}
