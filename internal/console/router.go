package console

import (
	tea "charm.land/bubbletea/v2"

	"github.com/abhisek/vidtutor/internal/ui/layout"
)

// Screen is one view of the console. Screens render only the area
// between the header and footer.
type Screen interface {
	Init() tea.Cmd
	Update(msg tea.Msg) (Screen, tea.Cmd)
	View(width, height int) string
	Title() string
	KeyHints() []layout.KeyHint
}

// pushScreenMsg opens a screen on top of the current one.
type pushScreenMsg struct {
	screen Screen
}

// popScreenMsg returns to the previous screen.
type popScreenMsg struct{}

func push(s Screen) tea.Cmd {
	return func() tea.Msg { return pushScreenMsg{screen: s} }
}

func pop() tea.Msg { return popScreenMsg{} }

// router is a stack of screens. The bottom screen is never popped.
type router struct {
	stack []Screen
}

func newRouter(root Screen) *router {
	return &router{stack: []Screen{root}}
}

func (r *router) active() Screen {
	return r.stack[len(r.stack)-1]
}

func (r *router) depth() int {
	return len(r.stack)
}

func (r *router) update(msg tea.Msg) tea.Cmd {
	switch msg := msg.(type) {
	case pushScreenMsg:
		r.stack = append(r.stack, msg.screen)
		return msg.screen.Init()
	case popScreenMsg:
		if len(r.stack) > 1 {
			r.stack = r.stack[:len(r.stack)-1]
		}
		return nil
	}

	updated, cmd := r.active().Update(msg)
	r.stack[len(r.stack)-1] = updated
	return cmd
}

// broadcast delivers msg to every screen, bottom first.
func (r *router) broadcast(msg tea.Msg) tea.Cmd {
	cmds := make([]tea.Cmd, 0, len(r.stack))
	for i, s := range r.stack {
		updated, cmd := s.Update(msg)
		r.stack[i] = updated
		cmds = append(cmds, cmd)
	}
	return tea.Batch(cmds...)
}
