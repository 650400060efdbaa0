package tutor

// PassThreshold is the minimum score that passes a chapter.
const PassThreshold = 70

// FollowUpThreshold is the minimum score for a follow-up instead of review.
const FollowUpThreshold = 50

// MaxHintLevel is the most revealing hint tier.
const MaxHintLevel = 4

// GenParams are the sampling settings for one kind of LLM call.
type GenParams struct {
	MaxTokens   int     `yaml:"max_tokens"`
	Temperature float64 `yaml:"temperature"`
}

// Config holds tutoring settings.
type Config struct {
	Conversation GenParams `yaml:"conversation"`
	Evaluation   GenParams `yaml:"evaluation"`
	Hint         GenParams `yaml:"hint"`
	Greeting     GenParams `yaml:"greeting"`

	// StructuredEvaluation requests schema-constrained JSON evaluations.
	// When false the tutor asks for prose and scrapes it.
	StructuredEvaluation bool `yaml:"structured_evaluation"`

	// AssessPriorKnowledge starts sessions in INITIAL so the learner is
	// asked what they already know before the first chapter.
	AssessPriorKnowledge bool `yaml:"assess_prior_knowledge"`
}

// DefaultConfig returns the sampling settings used by the tutor.
func DefaultConfig() Config {
	return Config{
		Conversation:         GenParams{MaxTokens: 500, Temperature: 0.7},
		Evaluation:           GenParams{MaxTokens: 800, Temperature: 0.3},
		Hint:                 GenParams{MaxTokens: 300, Temperature: 0.7},
		Greeting:             GenParams{MaxTokens: 300, Temperature: 0.7},
		StructuredEvaluation: true,
	}
}
