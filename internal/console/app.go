// Package console is an interactive terminal client that runs a tutoring
// session in-process.
package console

import (
	"context"
	"errors"
	"fmt"

	tea "charm.land/bubbletea/v2"

	"github.com/abhisek/vidtutor/internal/session"
	"github.com/abhisek/vidtutor/internal/tutor"
	"github.com/abhisek/vidtutor/internal/ui/layout"
)

// Options configures a console session.
type Options struct {
	Tutor    *tutor.Service
	Recorder *session.Recorder // optional; nil disables persistence
	Analysis *tutor.Analysis

	VideoID    string
	VideoTitle string

	// Resume continues a stored session instead of starting a new one.
	Resume *tutor.ConversationState
}

// appModel is the root Bubble Tea model.
type appModel struct {
	router *router
	chat   *chatScreen
	width  int
	height int
}

func newAppModel(ctx context.Context, opts Options) appModel {
	chat := newChatScreen(ctx, opts)
	return appModel{router: newRouter(chat), chat: chat}
}

func (m appModel) Init() tea.Cmd {
	return m.router.active().Init()
}

func (m appModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		// Screens are sized to the area between header and footer.
		header := layout.RenderHeader("", m.chat.header(), m.width)
		footer := layout.RenderFooter(nil, m.width)
		return m, m.router.broadcast(tea.WindowSizeMsg{
			Width:  msg.Width,
			Height: layout.ContentHeight(header, footer, msg.Height),
		})

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c":
			return m, tea.Quit
		case "esc":
			if m.router.depth() > 1 {
				return m, pop
			}
			return m, nil
		}

	case startedMsg, turnMsg, hintMsg:
		// Results always belong to the chat, even when another screen is open.
		_, cmd := m.chat.Update(msg)
		return m, cmd
	}

	return m, m.router.update(msg)
}

func (m appModel) View() tea.View {
	v := tea.NewView("")
	v.AltScreen = true

	if m.width == 0 || m.height == 0 {
		return v
	}
	if layout.IsTooSmall(m.width, m.height) {
		v.SetContent(layout.RenderMinSizeMessage(m.width, m.height))
		return v
	}

	active := m.router.active()
	header := layout.RenderHeader(active.Title(), m.chat.header(), m.width)
	footer := layout.RenderFooter(active.KeyHints(), m.width)
	content := active.View(m.width, layout.ContentHeight(header, footer, m.height))

	v.SetContent(layout.RenderFrame(header, content, footer, m.width, m.height))
	return v
}

// Run starts the terminal client and blocks until the learner quits.
func Run(ctx context.Context, opts Options) error {
	if opts.Tutor == nil || opts.Analysis == nil || len(opts.Analysis.Chapters) == 0 {
		return errors.New("console: tutor and a chaptered analysis are required")
	}
	if opts.Resume == nil && (opts.VideoID == "" || opts.VideoTitle == "") {
		return errors.New("console: video id and title are required")
	}

	p := tea.NewProgram(newAppModel(ctx, opts), tea.WithContext(ctx))
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("console: %w", err)
	}
	return nil
}
