package analysis

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/abhisek/vidtutor/internal/llm"
	"github.com/abhisek/vidtutor/internal/tutor"
)

func testSegments() []Segment {
	return []Segment{
		{Start: 0, End: 40, Text: "Plants capture light with chlorophyll."},
		{Start: 40, End: 120, Text: "The Calvin cycle fixes carbon."},
	}
}

func validAnalysisJSON() json.RawMessage {
	return json.RawMessage(`{
		"chapters": [
			{"title": "Light", "startTime": 0, "endTime": 40, "summary": "Light reactions.", "keyPoints": ["Chlorophyll absorbs light"]},
			{"title": "  ", "startTime": 40, "endTime": 50, "summary": "bad", "keyPoints": []},
			{"title": "Carbon", "startTime": 40, "endTime": 100, "summary": "Calvin cycle.", "keyPoints": ["RuBisCO"]}
		],
		"keyConcepts": [{"term": "Chlorophyll", "definition": "Green pigment", "context": "Absorbs light", "timestamp": 5}],
		"overallSummary": "Photosynthesis in two steps.",
		"estimatedReadingTime": 4,
		"difficultyLevel": "beginner",
		"topics": ["photosynthesis"]
	}`)
}

func TestAnalyze(t *testing.T) {
	mock := llm.NewMockProvider(llm.MockResponse{Content: validAnalysisJSON()})
	a := NewAnalyzer(mock, nil)

	res, err := a.Analyze(t.Context(), "Photosynthesis 101", testSegments())
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	if res.Warning != "" {
		t.Errorf("unexpected warning %q", res.Warning)
	}
	chapters := res.Analysis.Chapters
	if len(chapters) != 2 {
		t.Fatalf("got %d chapters, want 2 (blank title dropped)", len(chapters))
	}
	if chapters[1].EndTime != 120 {
		t.Errorf("last chapter should extend to transcript end, got %v", chapters[1].EndTime)
	}
	if res.Analysis.Topic() != "photosynthesis" {
		t.Errorf("Topic = %q", res.Analysis.Topic())
	}

	req := mock.Calls[0]
	if req.Schema != AnalysisSchema || req.MaxTokens != 4000 || req.Temperature != 0.1 {
		t.Errorf("request = schema %v, %d tokens, temp %v", req.Schema, req.MaxTokens, req.Temperature)
	}
	if !strings.Contains(req.Messages[0].Content, "[0:40] The Calvin cycle fixes carbon.") {
		t.Error("prompt missing formatted transcript")
	}
}

func TestAnalyze_FallbackOnError(t *testing.T) {
	mock := llm.NewMockProvider(llm.MockResponse{Err: &llm.ErrProviderUnavailable{}})
	a := NewAnalyzer(mock, nil)

	res, err := a.Analyze(t.Context(), "Photosynthesis 101", testSegments())
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	if res.Warning != FallbackWarning {
		t.Errorf("Warning = %q", res.Warning)
	}
	if len(res.Analysis.Chapters) != 2 || res.Analysis.Chapters[0].EndTime != 60 {
		t.Errorf("fallback chapters = %+v", res.Analysis.Chapters)
	}
}

func TestAnalyze_FallbackOnNoChapters(t *testing.T) {
	mock := llm.NewMockProvider(llm.MockResponse{Content: json.RawMessage(`{"chapters": [], "keyConcepts": [], "overallSummary": "", "estimatedReadingTime": 1, "difficultyLevel": "beginner", "topics": []}`)})
	res, err := NewAnalyzer(mock, nil).Analyze(t.Context(), "T", testSegments())
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	if res.Warning == "" {
		t.Error("expected fallback warning")
	}
}

func TestAnalyze_InvalidInput(t *testing.T) {
	a := NewAnalyzer(llm.NewMockProvider(), nil)

	if _, err := a.Analyze(t.Context(), "", testSegments()); !errors.Is(err, tutor.ErrMissingFields) {
		t.Errorf("err = %v, want ErrMissingFields", err)
	}
	if _, err := a.Analyze(t.Context(), "T", nil); !errors.Is(err, ErrEmptyTranscript) {
		t.Errorf("err = %v, want ErrEmptyTranscript", err)
	}
}

func TestFallback(t *testing.T) {
	a := Fallback("Empty", nil)
	if a.Chapters[0].EndTime != 30 || a.Chapters[1].EndTime != 60 {
		t.Errorf("chapters = %+v", a.Chapters)
	}
	if a.EstimatedReadingTime != 3 {
		t.Errorf("EstimatedReadingTime = %d", a.EstimatedReadingTime)
	}
	for i, ch := range a.Chapters {
		if ch.EndTime <= ch.StartTime {
			t.Errorf("chapter %d has no runtime", i)
		}
	}
}
