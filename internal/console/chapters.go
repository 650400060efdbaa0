package console

import (
	"fmt"
	"strings"

	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"

	"github.com/abhisek/vidtutor/internal/tutor"
	"github.com/abhisek/vidtutor/internal/ui/layout"
	"github.com/abhisek/vidtutor/internal/ui/theme"
)

// chaptersScreen lists the video's chapters with their lock status and
// scores. It is read-only.
type chaptersScreen struct {
	analysis *tutor.Analysis
	state    *tutor.ConversationState
}

func newChaptersScreen(analysis *tutor.Analysis, state *tutor.ConversationState) *chaptersScreen {
	return &chaptersScreen{analysis: analysis, state: state}
}

func (c *chaptersScreen) Init() tea.Cmd { return nil }

func (c *chaptersScreen) Title() string { return "Chapters" }

func (c *chaptersScreen) KeyHints() []layout.KeyHint {
	return []layout.KeyHint{
		{Key: "Esc", Description: "Back"},
		{Key: "Ctrl+C", Description: "Quit"},
	}
}

func (c *chaptersScreen) Update(msg tea.Msg) (Screen, tea.Cmd) {
	if key, ok := msg.(tea.KeyPressMsg); ok && key.String() == "q" {
		return c, pop
	}
	return c, nil
}

func (c *chaptersScreen) View(width, height int) string {
	lines := make([]string, 0, len(c.analysis.Chapters)+2)
	for i, ch := range c.analysis.Chapters {
		lines = append(lines, c.row(i, ch))
	}
	if c.state != nil && len(c.state.UserProfile.Misconceptions) > 0 {
		lines = append(lines, "", theme.Hint.Render("To revisit: "+strings.Join(c.state.UserProfile.Misconceptions, "; ")))
	}
	return lipgloss.NewStyle().Width(width).Height(height).Padding(1, 2).Render(strings.Join(lines, "\n"))
}

func (c *chaptersScreen) row(i int, ch tutor.Chapter) string {
	span := fmt.Sprintf("%s-%s", tutor.FormatTime(ch.StartTime), tutor.FormatTime(ch.EndTime))
	label := fmt.Sprintf("%d. %s  %s", i+1, ch.Title, span)

	if c.state == nil {
		return theme.Unlocked.Render("  " + label)
	}
	score, scored := c.state.ChapterScores[i]
	switch {
	case scored && c.lockStatus(i) == tutor.LockCompleted:
		return theme.Completed.Render(fmt.Sprintf("✓ %s  %d/100", label, score))
	case i == c.state.CurrentChapterIndex && c.state.Phase != tutor.PhaseComplete:
		return theme.Current.Render("▶ " + label)
	case c.state.IsUnlocked(i):
		return theme.Unlocked.Render("○ " + label)
	default:
		return theme.Locked.Render("🔒 " + label)
	}
}

func (c *chaptersScreen) lockStatus(i int) tutor.LockStatus {
	for _, lock := range c.state.ChapterLocks {
		if lock.ChapterIndex == i {
			return lock.Status
		}
	}
	return tutor.LockLocked
}
