package tutor

import (
	"encoding/json"
	"math"
	"regexp"
	"strconv"
	"strings"
)

const (
	neutralScore    = 50
	defaultStrength = "Engaged with the material"
	defaultFeedback = "Keep working on this concept."
)

var scorePatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)score[:\s]+(\d+)`),
	regexp.MustCompile(`(\d+)/100`),
	regexp.MustCompile(`(?i)(\d+)\s*out of\s*100`),
}

// Truncated structured replies are scraped with these first.
var (
	jsonScorePattern    = regexp.MustCompile(`"score"\s*:\s*(\d+)`)
	jsonFeedbackPattern = regexp.MustCompile(`"feedback"\s*:\s*"((?:[^"\\]|\\.)*)"`)
)

var (
	strengthsPattern      = regexp.MustCompile(`(?i)(strength|correct|good|well)[^\n]*\n([^\n]+)`)
	weaknessesPattern     = regexp.MustCompile(`(?i)(weakness|missing|unclear|incomplete)[^\n]*\n([^\n]+)`)
	misconceptionsPattern = regexp.MustCompile(`(?i)(misconception|incorrect|error|wrong)[^\n]*\n([^\n]+)`)
)

// ParseEvaluation extracts an evaluation from free-form LLM prose. It never
// fails: a missing score is treated as neutral and out-of-range scores are
// clamped.
func ParseEvaluation(text string) EvaluationResult {
	score := findScore(text, scorePatterns)

	strengths := extractBullets(text, strengthsPattern)
	if len(strengths) == 0 {
		strengths = []string{defaultStrength}
	}

	// Only the first line is feedback; a blank one falls back.
	feedback := defaultFeedback
	if line, _, _ := strings.Cut(text, "\n"); strings.TrimSpace(line) != "" {
		feedback = strings.TrimSpace(line)
	}

	return NewEvaluation(score, strengths,
		extractBullets(text, weaknessesPattern),
		extractBullets(text, misconceptionsPattern),
		feedback)
}

// NewEvaluation builds an EvaluationResult and derives the pass/fail fields
// from the score.
func NewEvaluation(score int, strengths, weaknesses, misconceptions []string, feedback string) EvaluationResult {
	score = clampScore(score)
	passed := score >= PassThreshold
	needsFollowUp := score >= FollowUpThreshold && score < PassThreshold

	next := PhaseReview
	switch {
	case passed:
		next = PhaseCheckpoint
	case needsFollowUp:
		next = PhaseFollowUp
	}

	return EvaluationResult{
		Score:          score,
		Passed:         passed,
		Strengths:      nonNil(strengths),
		Weaknesses:     nonNil(weaknesses),
		Misconceptions: nonNil(misconceptions),
		NeedsFollowUp:  needsFollowUp,
		NextPhase:      next,
		CanProceed:     passed,
		Feedback:       feedback,
	}
}

type structuredEvaluation struct {
	Score          json.RawMessage `json:"score"`
	Strengths      []string        `json:"strengths"`
	Weaknesses     []string        `json:"weaknesses"`
	Misconceptions []string        `json:"misconceptions"`
	Feedback       string          `json:"feedback"`
}

// score is neutral when the field is absent or not a number.
func (e structuredEvaluation) score() int {
	var n *float64
	if len(e.Score) == 0 || json.Unmarshal(e.Score, &n) != nil || n == nil {
		return neutralScore
	}
	return int(math.Round(min(max(*n, 0), 100)))
}

// decodeEvaluation reads a schema-constrained evaluation. Content that is
// not a JSON object is scraped as prose.
func decodeEvaluation(raw json.RawMessage) EvaluationResult {
	var out structuredEvaluation
	if err := json.Unmarshal(raw, &out); err != nil {
		var text string
		if json.Unmarshal(raw, &text) == nil {
			return ParseEvaluation(text)
		}
		return salvageEvaluation(string(raw))
	}
	strengths := trimAll(out.Strengths)
	if len(strengths) == 0 {
		strengths = []string{defaultStrength}
	}
	feedback := strings.TrimSpace(out.Feedback)
	if feedback == "" {
		feedback = defaultFeedback
	}
	return NewEvaluation(out.score(), strengths, trimAll(out.Weaknesses), trimAll(out.Misconceptions), feedback)
}

// salvageEvaluation scrapes text that may be a cut-off JSON object. A
// "score" key wins over the prose patterns and only a complete "feedback"
// string is kept.
func salvageEvaluation(text string) EvaluationResult {
	trimmed := strings.TrimSpace(text)
	if !strings.HasPrefix(trimmed, "{") {
		return ParseEvaluation(text)
	}
	score := findScore(trimmed, append([]*regexp.Regexp{jsonScorePattern}, scorePatterns...))

	feedback := defaultFeedback
	if m := jsonFeedbackPattern.FindStringSubmatch(trimmed); m != nil {
		var s string
		if json.Unmarshal([]byte(`"`+m[1]+`"`), &s) == nil && strings.TrimSpace(s) != "" {
			feedback = strings.TrimSpace(s)
		}
	}
	return NewEvaluation(score, []string{defaultStrength}, nil, nil, feedback)
}

// findScore returns the first pattern match, or the neutral score.
func findScore(text string, patterns []*regexp.Regexp) int {
	for _, re := range patterns {
		if m := re.FindStringSubmatch(text); m != nil {
			return parseScore(m[1])
		}
	}
	return neutralScore
}

func parseScore(digits string) int {
	n, err := strconv.Atoi(digits)
	if err != nil {
		// Only overflow can fail here; the pattern matched digits.
		return 100
	}
	return clampScore(n)
}

func clampScore(n int) int {
	return min(max(n, 0), 100)
}

func extractBullets(text string, re *regexp.Regexp) []string {
	var out []string
	for _, m := range re.FindAllStringSubmatch(text, -1) {
		if s := strings.TrimSpace(m[2]); s != "" {
			out = append(out, s)
		}
	}
	return out
}

func trimAll(items []string) []string {
	out := make([]string, 0, len(items))
	for _, s := range items {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}

func nonNil(items []string) []string {
	if items == nil {
		return []string{}
	}
	return items
}
