package console

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"charm.land/bubbles/v2/textinput"
	"charm.land/bubbles/v2/viewport"
	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"

	"github.com/abhisek/vidtutor/internal/session"
	"github.com/abhisek/vidtutor/internal/tutor"
	"github.com/abhisek/vidtutor/internal/ui/components"
	"github.com/abhisek/vidtutor/internal/ui/layout"
	"github.com/abhisek/vidtutor/internal/ui/theme"
)

const (
	cmdHint     = "/hint"
	cmdChapters = "/chapters"
	cmdQuit     = "/quit"
)

var boldMarkup = regexp.MustCompile(`\*\*(.+?)\*\*`)

// chatScreen is the tutoring conversation: a scrolling transcript above a
// single-line answer box.
type chatScreen struct {
	ctx      context.Context
	tutor    *tutor.Service
	recorder *session.Recorder
	analysis *tutor.Analysis
	videoID  string
	title    string
	resume   *tutor.ConversationState

	state     *tutor.ConversationState
	input     textinput.Model
	viewport  viewport.Model
	width     int
	busy      bool
	err       string
	notice    string
	hintLevel int
}

func newChatScreen(ctx context.Context, opts Options) *chatScreen {
	ti := textinput.New()
	ti.Placeholder = "Type your answer, or /hint"
	ti.CharLimit = 2000

	return &chatScreen{
		ctx:      ctx,
		tutor:    opts.Tutor,
		recorder: opts.Recorder,
		analysis: opts.Analysis,
		videoID:  opts.VideoID,
		title:    opts.VideoTitle,
		resume:   opts.Resume,
		input:    ti,
		viewport: viewport.New(viewport.WithWidth(layout.MinWidth), viewport.WithHeight(layout.MinHeight)),
		width:    layout.MinWidth,
		busy:     true,
	}
}

func (s *chatScreen) Init() tea.Cmd {
	return tea.Batch(s.start(), s.input.Focus())
}

func (s *chatScreen) Title() string {
	return s.title
}

func (s *chatScreen) KeyHints() []layout.KeyHint {
	if s.state != nil && s.state.Phase == tutor.PhaseComplete {
		return []layout.KeyHint{
			{Key: cmdChapters, Description: "Chapters"},
			{Key: "Ctrl+C", Description: "Quit"},
		}
	}
	return []layout.KeyHint{
		{Key: "Enter", Description: "Send"},
		{Key: cmdHint, Description: "Hint"},
		{Key: cmdChapters, Description: "Chapters"},
		{Key: "PgUp/PgDn", Description: "Scroll"},
		{Key: "Ctrl+C", Description: "Quit"},
	}
}

// header reports session progress for the application header.
func (s *chatScreen) header() layout.HeaderInfo {
	if s.state == nil {
		return layout.HeaderInfo{}
	}
	info := layout.HeaderInfo{
		Phase:         string(s.state.Phase),
		Chapters:      len(s.analysis.Chapters),
		Comprehension: s.state.UserProfile.OverallComprehension,
	}
	if s.state.Phase != tutor.PhaseComplete {
		info.Chapter = s.state.CurrentChapterIndex + 1
	}
	return info
}

func (s *chatScreen) Update(msg tea.Msg) (Screen, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		s.resize(msg.Width, msg.Height)
		return s, nil

	case startedMsg:
		s.busy = false
		if msg.Err != nil {
			s.err = msg.Err.Error()
			return s, nil
		}
		s.state = msg.State
		s.refresh()
		return s, nil

	case turnMsg:
		s.busy = false
		if msg.Err != nil {
			s.err = msg.Err.Error()
			return s, nil
		}
		if msg.Result.State.Phase != s.state.Phase || msg.Result.Evaluation != nil {
			s.hintLevel = 0
		}
		s.state = msg.Result.State
		s.err, s.notice = "", ""
		s.refresh()
		return s, nil

	case hintMsg:
		s.busy = false
		if msg.Err != nil {
			s.err = msg.Err.Error()
			return s, nil
		}
		s.state = msg.Result.State
		s.hintLevel = msg.Result.Hint.Level
		s.err, s.notice = "", msg.Result.Warning
		s.refresh()
		return s, nil

	case tea.KeyPressMsg:
		switch msg.String() {
		case "enter":
			return s, s.submit()
		case "pgup", "pgdown":
			var cmd tea.Cmd
			s.viewport, cmd = s.viewport.Update(msg)
			return s, cmd
		}
	}

	var cmd tea.Cmd
	s.input, cmd = s.input.Update(msg)
	return s, cmd
}

func (s *chatScreen) submit() tea.Cmd {
	text := strings.TrimSpace(s.input.Value())
	if text == "" || s.busy {
		return nil
	}

	switch strings.ToLower(text) {
	case cmdQuit:
		return tea.Quit
	case cmdChapters:
		s.input.Reset()
		return push(newChaptersScreen(s.analysis, s.state))
	}
	if s.state == nil {
		return nil
	}

	s.input.Reset()
	s.busy = true
	s.err = ""
	if strings.EqualFold(text, cmdHint) {
		return s.hint()
	}
	return s.evaluate(text)
}

func (s *chatScreen) start() tea.Cmd {
	return func() tea.Msg {
		if s.resume != nil {
			return startedMsg{State: s.resume}
		}
		st, err := s.tutor.Start(s.ctx, s.videoID, s.title, s.analysis)
		if err != nil {
			return startedMsg{Err: err}
		}
		if err := s.recorder.Save(s.ctx, st, s.analysis); err != nil {
			return startedMsg{Err: fmt.Errorf("save session: %w", err)}
		}
		return startedMsg{State: st}
	}
}

func (s *chatScreen) evaluate(answer string) tea.Cmd {
	state := s.state
	return func() tea.Msg {
		res, err := s.tutor.Evaluate(s.ctx, state, answer, s.analysis)
		if err != nil {
			return turnMsg{Err: err}
		}
		if err := s.recorder.Save(s.ctx, res.State, s.analysis); err != nil {
			return turnMsg{Err: fmt.Errorf("save session: %w", err)}
		}
		s.recorder.RecordTurn(s.ctx, state.Phase, answer, res)
		return turnMsg{Result: res}
	}
}

func (s *chatScreen) hint() tea.Cmd {
	state := s.state
	level := min(s.hintLevel+1, tutor.MaxHintLevel)
	question := lastQuestion(state)
	return func() tea.Msg {
		if question == "" {
			return hintMsg{Err: errors.New("there is no question to hint at yet")}
		}
		res, err := s.tutor.Hint(s.ctx, state, question, "", level, s.analysis)
		if err != nil {
			return hintMsg{Err: err}
		}
		if err := s.recorder.Save(s.ctx, res.State, s.analysis); err != nil {
			return hintMsg{Err: fmt.Errorf("save session: %w", err)}
		}
		s.recorder.RecordHint(s.ctx, question, res)
		return hintMsg{Result: res}
	}
}

// lastQuestion finds the most recent tutor question.
func lastQuestion(st *tutor.ConversationState) string {
	for i := len(st.Messages) - 1; i >= 0; i-- {
		m := st.Messages[i]
		if m.Role == tutor.RoleAI && m.MessageType == tutor.MessageQuestion {
			return m.Content
		}
	}
	return ""
}

func (s *chatScreen) resize(width, height int) {
	s.width = width
	s.input.SetWidth(max(width-4, 10))
	// Progress bar, status line and input take three rows.
	s.viewport.SetWidth(width)
	s.viewport.SetHeight(max(height-3, 1))
	s.refresh()
}

func (s *chatScreen) refresh() {
	if s.state == nil {
		return
	}
	s.viewport.SetContent(renderTranscript(s.state.Messages, s.width))
	s.viewport.GotoBottom()
}

func renderTranscript(msgs []tutor.Message, width int) string {
	body := theme.Body.Width(max(width-2, 10))
	blocks := make([]string, 0, len(msgs))
	for _, m := range msgs {
		text := renderMarkup(m.Content)
		switch {
		case m.Role == tutor.RoleUser:
			blocks = append(blocks, theme.LearnerLabel.Render("You")+"\n"+body.Render(text))
		case m.MessageType == tutor.MessageHint:
			blocks = append(blocks, theme.HintBubble.Width(max(width-4, 10)).Render("Hint: "+text))
		case m.MessageType == tutor.MessageCheckpoint:
			blocks = append(blocks, theme.CheckpointBubble.Width(max(width-4, 10)).Render(text))
		default:
			blocks = append(blocks, theme.TutorLabel.Render("Tutor")+"\n"+body.Render(text))
		}
	}
	return strings.Join(blocks, "\n\n")
}

func renderMarkup(s string) string {
	bold := lipgloss.NewStyle().Bold(true)
	return boldMarkup.ReplaceAllStringFunc(s, func(m string) string {
		return bold.Render(strings.Trim(m, "*"))
	})
}

func (s *chatScreen) View(width, height int) string {
	if s.state == nil {
		status := "Starting your session..."
		if s.err != "" {
			status = theme.ErrorText.Render(s.err)
		}
		return lipgloss.Place(width, height, lipgloss.Center, lipgloss.Center, status)
	}

	passed := 0
	for _, lock := range s.state.ChapterLocks {
		if lock.Status == tutor.LockCompleted {
			passed++
		}
	}
	progress := components.ChapterProgress{Passed: passed, Total: len(s.analysis.Chapters), Width: width}

	var status string
	switch {
	case s.err != "":
		status = theme.ErrorText.Render(s.err)
	case s.busy:
		status = theme.Hint.Render("Thinking...")
	case s.notice != "":
		status = theme.Hint.Render(s.notice)
	}

	return strings.Join([]string{progress.View(), s.viewport.View(), status, s.input.View()}, "\n")
}
