package analysis

import "github.com/abhisek/vidtutor/internal/llm"

// AnalysisSchema defines the JSON schema for transcript analysis.
var AnalysisSchema = &llm.Schema{
	Name:        "transcript-analysis",
	Description: "Chapters, key concepts and summary of an educational video transcript",
	Definition: map[string]any{
		"type": "object",
		"properties": map[string]any{
			"chapters": map[string]any{
				"type":     "array",
				"minItems": 1,
				"items": map[string]any{
					"type": "object",
					"properties": map[string]any{
						"title":     map[string]any{"type": "string", "description": "Short chapter title"},
						"startTime": map[string]any{"type": "number", "minimum": 0, "description": "Chapter start in seconds"},
						"endTime":   map[string]any{"type": "number", "minimum": 0, "description": "Chapter end in seconds"},
						"summary":   map[string]any{"type": "string", "description": "Two or three sentence summary"},
						"keyPoints": map[string]any{
							"type":        "array",
							"items":       map[string]any{"type": "string"},
							"description": "Three to five key learning points",
						},
					},
					"required":             []any{"title", "startTime", "endTime", "summary", "keyPoints"},
					"additionalProperties": false,
				},
			},
			"keyConcepts": map[string]any{
				"type": "array",
				"items": map[string]any{
					"type": "object",
					"properties": map[string]any{
						"term":       map[string]any{"type": "string"},
						"definition": map[string]any{"type": "string"},
						"context":    map[string]any{"type": "string", "description": "How the term is used in the video"},
						"timestamp":  map[string]any{"type": "number", "minimum": 0},
					},
					"required":             []any{"term", "definition", "context", "timestamp"},
					"additionalProperties": false,
				},
			},
			"overallSummary":       map[string]any{"type": "string"},
			"estimatedReadingTime": map[string]any{"type": "integer", "minimum": 1, "description": "Minutes"},
			"difficultyLevel": map[string]any{
				"type": "string",
				"enum": []any{"beginner", "intermediate", "advanced"},
			},
			"topics": map[string]any{
				"type":  "array",
				"items": map[string]any{"type": "string"},
			},
		},
		"required": []any{"chapters", "keyConcepts", "overallSummary", "estimatedReadingTime",
			"difficultyLevel", "topics"},
		"additionalProperties": false,
	},
}
