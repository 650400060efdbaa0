package components

import (
	"fmt"
	"strings"

	"charm.land/lipgloss/v2"

	"github.com/abhisek/vidtutor/internal/ui/theme"
)

// ChapterProgress renders how many chapters of a video the learner has
// passed as a bar followed by "n/m".
type ChapterProgress struct {
	Passed int
	Total  int
	Width  int
}

// Fraction returns Passed/Total clamped to [0, 1].
func (p ChapterProgress) Fraction() float64 {
	if p.Total <= 0 {
		return 0
	}
	return min(max(float64(p.Passed)/float64(p.Total), 0), 1)
}

// View renders the bar.
func (p ChapterProgress) View() string {
	label := fmt.Sprintf("  %d/%d", p.Passed, p.Total)
	barWidth := max(p.Width-lipgloss.Width(label), 4)

	filled := int(float64(barWidth) * p.Fraction())
	bar := theme.ProgressFilled.Render(strings.Repeat(" ", filled)) +
		theme.ProgressEmpty.Render(strings.Repeat(" ", barWidth-filled))

	return bar + lipgloss.NewStyle().Foreground(theme.TextDim).Render(label)
}
