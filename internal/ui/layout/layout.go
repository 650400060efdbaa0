package layout

import (
	"fmt"
	"strings"

	"charm.land/lipgloss/v2"
	"github.com/charmbracelet/x/ansi"

	"github.com/abhisek/vidtutor/internal/ui/theme"
)

const (
	MinWidth  = 60
	MinHeight = 16
)

// KeyHint is a key binding shown in the footer.
type KeyHint struct {
	Key         string
	Description string
}

// IsTooSmall reports whether the terminal cannot fit the chat layout.
func IsTooSmall(width, height int) bool {
	return width < MinWidth || height < MinHeight
}

// RenderMinSizeMessage asks the learner to enlarge the terminal.
func RenderMinSizeMessage(width, height int) string {
	msg := fmt.Sprintf("Window is %dx%d.\nVidTutor needs at least %dx%d.", width, height, MinWidth, MinHeight)
	return lipgloss.Place(width, height, lipgloss.Center, lipgloss.Center,
		theme.Hint.Render(msg))
}

// HeaderInfo is session progress shown at the right of the header.
type HeaderInfo struct {
	Phase         string
	Chapter       int // 1-based; 0 hides it
	Chapters      int
	Comprehension int
}

func (h HeaderInfo) String() string {
	var parts []string
	if h.Chapter > 0 {
		parts = append(parts, fmt.Sprintf("Ch %d/%d", h.Chapter, h.Chapters))
	}
	if h.Phase != "" {
		parts = append(parts, strings.ReplaceAll(h.Phase, "_", " "))
	}
	return strings.Join(append(parts, fmt.Sprintf("★ %d", h.Comprehension)), " · ")
}

var bar = lipgloss.NewStyle().Background(theme.BgCard).Foreground(theme.Text)

// RenderHeader draws a one-row bar: brand, screen title, progress.
func RenderHeader(title string, info HeaderInfo, width int) string {
	brand := theme.Title.Background(theme.BgCard).Render(" VidTutor ")
	right := bar.Foreground(theme.Accent).Render(info.String() + " ")

	room := width - lipgloss.Width(brand) - lipgloss.Width(right) - 2
	name := ""
	if room > 0 {
		name = ansi.Truncate(title, room, "…")
	}
	center := bar.Width(max(room+2, 0)).Align(lipgloss.Center).Render(name)
	return lipgloss.JoinHorizontal(lipgloss.Top, brand, center, right) + "\n" +
		lipgloss.NewStyle().Foreground(theme.Border).Render(strings.Repeat("─", width))
}

// RenderFooter lists key hints on one row, dropping the ones that do not fit.
func RenderFooter(hints []KeyHint, width int) string {
	key := lipgloss.NewStyle().Foreground(theme.Text).Bold(true)
	desc := lipgloss.NewStyle().Foreground(theme.TextDim)

	line := ""
	for _, h := range hints {
		item := key.Render(h.Key) + " " + desc.Render(h.Description)
		if line != "" {
			item = "  " + item
		}
		if lipgloss.Width(line+item) > width-2 {
			break
		}
		line += item
	}
	return bar.Width(width).Render(" " + line)
}

// ContentHeight is the number of rows between header and footer.
func ContentHeight(header, footer string, height int) int {
	return max(height-lipgloss.Height(header)-lipgloss.Height(footer), 0)
}

// RenderFrame stacks header, content and footer, padding content to fill
// the screen.
func RenderFrame(header, content, footer string, width, height int) string {
	body := lipgloss.NewStyle().
		Width(width).
		Height(ContentHeight(header, footer, height)).
		MaxHeight(ContentHeight(header, footer, height)).
		Render(content)
	return lipgloss.JoinVertical(lipgloss.Left, header, body, footer)
}
