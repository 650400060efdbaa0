package analysis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/abhisek/vidtutor/internal/llm"
	"github.com/abhisek/vidtutor/internal/logger"
	"github.com/abhisek/vidtutor/internal/tutor"
)

// ErrEmptyTranscript means there was nothing to analyze.
var ErrEmptyTranscript = errors.New("empty transcript")

// FallbackWarning accompanies analyses built without the LLM.
const FallbackWarning = "Using fallback analysis due to API limitations"

const systemPrompt = `You are an expert educational content analyst. You split video transcripts into chapters a learner can study one at a time, and you pick out the concepts worth testing.`

const (
	analysisMaxTokens   = 4000
	analysisTemperature = 0.1
)

// Result is an analysis plus an optional warning for the caller.
type Result struct {
	Analysis *tutor.Analysis
	Warning  string
}

// Analyzer turns transcripts into chaptered analyses.
type Analyzer struct {
	provider llm.Provider
	log      *logger.Logger
}

// NewAnalyzer creates an Analyzer. A nil logger discards output.
func NewAnalyzer(provider llm.Provider, log *logger.Logger) *Analyzer {
	if log == nil {
		log = logger.Nop()
	}
	return &Analyzer{provider: provider, log: log}
}

// Analyze asks the LLM to chapter the transcript. When the LLM fails or
// returns unusable chapters, a two-chapter fallback is returned with a
// warning instead of an error.
func (a *Analyzer) Analyze(ctx context.Context, title string, segments []Segment) (*Result, error) {
	if strings.TrimSpace(title) == "" {
		return nil, fmt.Errorf("analyze: %w", tutor.ErrMissingFields)
	}
	if len(segments) == 0 {
		return nil, fmt.Errorf("analyze: %w", ErrEmptyTranscript)
	}

	out, err := a.generate(ctx, title, segments)
	if err != nil {
		a.log.Warn("transcript analysis failed, using fallback", "title", title, "segments", len(segments), "error", err)
		return &Result{Analysis: Fallback(title, segments), Warning: FallbackWarning}, nil
	}

	a.log.Info("transcript analyzed", "title", title, "chapters", len(out.Chapters), "concepts", len(out.KeyConcepts))
	return &Result{Analysis: out}, nil
}

func (a *Analyzer) generate(ctx context.Context, title string, segments []Segment) (*tutor.Analysis, error) {
	ctx = llm.WithPurpose(ctx, llm.PurposeAnalysis)
	resp, err := a.provider.Generate(ctx, llm.Request{
		System:      systemPrompt,
		Messages:    []llm.Message{{Role: llm.RoleUser, Content: buildPrompt(title, segments)}},
		Schema:      AnalysisSchema,
		MaxTokens:   analysisMaxTokens,
		Temperature: analysisTemperature,
	})
	if err != nil {
		return nil, fmt.Errorf("transcript analysis: %w", err)
	}

	var out tutor.Analysis
	if err := json.Unmarshal(resp.Content, &out); err != nil {
		return nil, fmt.Errorf("parse analysis response: %w", err)
	}
	if err := sanitize(&out, transcriptEnd(segments)); err != nil {
		return nil, err
	}
	return &out, nil
}

func buildPrompt(title string, segments []Segment) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Video title: %q\n\n", title)
	b.WriteString("<transcript>\n")
	b.WriteString(FormatTranscript(segments))
	b.WriteString("</transcript>\n\n")
	b.WriteString("Analyze this educational content:\n")
	b.WriteString("- Split it into 2-4 chapters that follow the flow of the content. Chapters must not overlap and must use times from the transcript.\n")
	b.WriteString("- For each chapter give a short title, a summary and 3-5 key points a learner should be able to explain.\n")
	b.WriteString("- Identify 3-8 key concepts with clear definitions and the time they appear.\n")
	b.WriteString("- Estimate the reading time in minutes and the difficulty level.\n")
	b.WriteString("- List the main topics, most important first.\n")
	return b.String()
}

// sanitize drops unusable chapters and fills defaults. It fails only when
// no chapter survives.
func sanitize(a *tutor.Analysis, end float64) error {
	chapters := a.Chapters[:0]
	for _, ch := range a.Chapters {
		ch.Title = strings.TrimSpace(ch.Title)
		if ch.Title == "" || ch.EndTime <= ch.StartTime || ch.StartTime < 0 {
			continue
		}
		if ch.KeyPoints == nil {
			ch.KeyPoints = []string{}
		}
		chapters = append(chapters, ch)
	}
	if len(chapters) == 0 {
		return errors.New("analysis has no usable chapters")
	}
	a.Chapters = chapters
	if end > 0 && a.Chapters[len(a.Chapters)-1].EndTime < end {
		a.Chapters[len(a.Chapters)-1].EndTime = end
	}

	if a.KeyConcepts == nil {
		a.KeyConcepts = []tutor.KeyConcept{}
	}
	if a.Topics == nil {
		a.Topics = []string{}
	}
	if strings.TrimSpace(a.OverallSummary) == "" {
		a.OverallSummary = "Summary not available"
	}
	if a.EstimatedReadingTime <= 0 {
		a.EstimatedReadingTime = 5
	}
	if a.DifficultyLevel == "" {
		a.DifficultyLevel = "beginner"
	}
	return nil
}

func transcriptEnd(segments []Segment) float64 {
	var end float64
	for _, s := range segments {
		end = max(end, s.End)
	}
	return end
}

// Fallback builds a deterministic two-chapter analysis that splits the
// transcript at its midpoint.
func Fallback(title string, segments []Segment) *tutor.Analysis {
	total := transcriptEnd(segments)
	if total <= 0 {
		total = 60
	}
	mid := total / 2

	return &tutor.Analysis{
		Chapters: []tutor.Chapter{
			{
				Title:     "Introduction",
				StartTime: 0,
				EndTime:   mid,
				Summary:   "The fundamental ideas covered in the first half of the video.",
				KeyPoints: []string{"Basic concepts", "Foundational knowledge", "Key principles"},
			},
			{
				Title:     "Going Further",
				StartTime: mid,
				EndTime:   total,
				Summary:   "Advanced topics and practical applications from the second half of the video.",
				KeyPoints: []string{"Advanced concepts", "Practical applications", "Summary and conclusions"},
			},
		},
		KeyConcepts: []tutor.KeyConcept{
			{
				Term:       "Core concept",
				Definition: "The central idea the video is built around.",
				Context:    "It appears throughout the video.",
				Timestamp:  min(10, mid),
			},
		},
		OverallSummary:       fmt.Sprintf("An overview of %q covering its fundamental concepts and their applications.", title),
		EstimatedReadingTime: max(3, (len(segments)+1)/2),
		DifficultyLevel:      "intermediate",
		Topics:               []string{title},
	}
}
