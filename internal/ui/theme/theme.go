package theme

import (
	"charm.land/lipgloss/v2"
)

// Palette. Muted study-room tones with a warm accent for the tutor.
var (
	Primary   = lipgloss.Color("#6366F1") // Indigo
	Secondary = lipgloss.Color("#0EA5E9") // Sky
	Accent    = lipgloss.Color("#F59E0B") // Amber
	Success   = lipgloss.Color("#22C55E")
	Error     = lipgloss.Color("#F43F5E")
	Text      = lipgloss.Color("#E2E8F0")
	TextDim   = lipgloss.Color("#94A3B8")
	BgCard    = lipgloss.Color("#1E293B")
	Border    = lipgloss.Color("#334155")
)

var (
	Title = lipgloss.NewStyle().
		Bold(true).
		Foreground(Primary)

	Body = lipgloss.NewStyle().
		Foreground(Text)

	Hint = lipgloss.NewStyle().
		Foreground(TextDim).
		Italic(true)

	ErrorText = lipgloss.NewStyle().
			Foreground(Error).
			Bold(true)
)

// Chat transcript.
var (
	TutorLabel = lipgloss.NewStyle().
			Foreground(Accent).
			Bold(true)

	LearnerLabel = lipgloss.NewStyle().
			Foreground(Secondary).
			Bold(true)

	HintBubble = lipgloss.NewStyle().
			Foreground(TextDim).
			Border(lipgloss.NormalBorder(), false, false, false, true).
			BorderForeground(Accent).
			PaddingLeft(1)

	CheckpointBubble = lipgloss.NewStyle().
				Foreground(Success).
				Border(lipgloss.RoundedBorder()).
				BorderForeground(Success).
				Padding(0, 1)
)

// Chapter list.
var (
	Unlocked = lipgloss.NewStyle().
			Foreground(Text)

	Locked = lipgloss.NewStyle().
		Foreground(Border)

	Completed = lipgloss.NewStyle().
			Foreground(Success).
			Bold(true)

	Current = lipgloss.NewStyle().
		Foreground(Primary).
		Bold(true)
)

var (
	ProgressFilled = lipgloss.NewStyle().
			Background(Secondary)

	ProgressEmpty = lipgloss.NewStyle().
			Background(Border)
)
