package tutor

import "github.com/abhisek/vidtutor/internal/llm"

// EvaluationSchema defines the JSON schema for grading a learner's answer.
var EvaluationSchema = &llm.Schema{
	Name:        "tutor-evaluation",
	Description: "Score and feedback for a learner's answer",
	Definition: map[string]any{
		"type": "object",
		"properties": map[string]any{
			"score": map[string]any{
				"type":        "integer",
				"minimum":     0,
				"maximum":     100,
				"description": "Understanding score from 0 to 100",
			},
			"strengths": map[string]any{
				"type":        "array",
				"items":       map[string]any{"type": "string"},
				"description": "What the learner got right",
			},
			"weaknesses": map[string]any{
				"type":        "array",
				"items":       map[string]any{"type": "string"},
				"description": "What the learner missed",
			},
			"misconceptions": map[string]any{
				"type":        "array",
				"items":       map[string]any{"type": "string"},
				"description": "Incorrect beliefs shown in the answer",
			},
			"feedback": map[string]any{
				"type":        "string",
				"description": "Encouraging feedback addressed to the learner",
			},
		},
		"required":             []any{"score", "strengths", "weaknesses", "misconceptions", "feedback"},
		"additionalProperties": false,
	},
}
