package console

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"testing"

	tea "charm.land/bubbletea/v2"

	"github.com/abhisek/vidtutor/internal/llm"
	"github.com/abhisek/vidtutor/internal/session"
	"github.com/abhisek/vidtutor/internal/store"
	"github.com/abhisek/vidtutor/internal/tutor"
)

func specialKey(code rune) tea.KeyPressMsg {
	return tea.KeyPressMsg{Code: code}
}

func testAnalysis() *tutor.Analysis {
	return &tutor.Analysis{
		Chapters: []tutor.Chapter{
			{Title: "Light Reactions", StartTime: 0, EndTime: 120, Summary: "Light to energy.", KeyPoints: []string{"Chlorophyll absorbs light"}},
			{Title: "Calvin Cycle", StartTime: 120, EndTime: 300, Summary: "Carbon to sugar.", KeyPoints: []string{"RuBisCO fixes carbon"}},
		},
		Topics: []string{"photosynthesis"},
	}
}

func evalResponse(score int) llm.MockResponse {
	body, _ := json.Marshal(map[string]any{
		"score": score, "strengths": []string{"clear"}, "weaknesses": []string{},
		"misconceptions": []string{}, "feedback": "Good.",
	})
	return llm.MockResponse{Content: body}
}

func testChat(t *testing.T, mock *llm.MockProvider, recorder *session.Recorder) *chatScreen {
	t.Helper()
	s := newChatScreen(context.Background(), Options{
		Tutor:      tutor.NewService(mock),
		Recorder:   recorder,
		Analysis:   testAnalysis(),
		VideoID:    "vid-1",
		VideoTitle: "Photosynthesis",
	})
	s.resize(80, 30)
	return s
}

// send types text and presses enter, running the resulting command.
func send(t *testing.T, s *chatScreen, text string) tea.Msg {
	t.Helper()
	s.input.SetValue(text)
	_, cmd := s.Update(specialKey(tea.KeyEnter))
	if cmd == nil {
		t.Fatalf("enter with %q produced no command", text)
	}
	msg := cmd()
	s.Update(msg)
	return msg
}

func TestChatStart(t *testing.T) {
	mock := llm.NewMockProvider(llm.MockResponse{Content: llm.TextContent("Welcome aboard!")})
	s := testChat(t, mock, nil)

	s.Update(s.start()())

	if s.state == nil {
		t.Fatal("state not set after start")
	}
	if s.state.Phase != tutor.PhaseWatching {
		t.Errorf("phase = %s, want WATCHING", s.state.Phase)
	}
	if s.busy {
		t.Error("busy should clear after start")
	}
	if view := s.View(80, 30); !strings.Contains(view, "Welcome aboard!") {
		t.Errorf("view missing greeting:\n%s", view)
	}
}

func TestChatTurnFlow(t *testing.T) {
	mock := llm.NewMockProvider(llm.MockResponse{Content: llm.TextContent("Hi!")})
	s := testChat(t, mock, nil)
	s.Update(s.start()())

	mock.AddResponse(llm.MockResponse{Content: llm.TextContent("What does chlorophyll do?")})
	msg := send(t, s, "done")
	if tm, ok := msg.(turnMsg); !ok || tm.Err != nil {
		t.Fatalf("unexpected message %#v", msg)
	}
	if s.state.Phase != tutor.PhasePostWatch {
		t.Fatalf("phase = %s, want POST_WATCH", s.state.Phase)
	}

	mock.AddResponse(evalResponse(85))
	send(t, s, "It absorbs light energy.")
	if s.state.Phase != tutor.PhaseCheckpoint {
		t.Errorf("phase = %s, want CHECKPOINT", s.state.Phase)
	}
	if got := s.header(); got.Comprehension != 85 || got.Chapter != 1 {
		t.Errorf("header = %+v", got)
	}
	if s.input.Value() != "" {
		t.Error("input should be cleared after sending")
	}
}

func TestChatHintEscalates(t *testing.T) {
	mock := llm.NewMockProvider(llm.MockResponse{Content: llm.TextContent("Hi!")})
	s := testChat(t, mock, nil)
	s.Update(s.start()())

	for want := 1; want <= 3; want++ {
		mock.AddResponse(llm.MockResponse{Content: llm.TextContent(fmt.Sprintf("hint %d", want))})
		msg := send(t, s, "/hint")
		hm, ok := msg.(hintMsg)
		if !ok || hm.Err != nil {
			t.Fatalf("unexpected message %#v", msg)
		}
		if hm.Result.Hint.Level != want {
			t.Errorf("hint level = %d, want %d", hm.Result.Hint.Level, want)
		}
	}
	if s.notice == "" {
		t.Error("level 3 hint should surface a warning")
	}
	if s.state.UserProfile.HintsUsedTotal != 3 {
		t.Errorf("hintsUsedTotal = %d, want 3", s.state.UserProfile.HintsUsedTotal)
	}
}

func TestChatErrorKeepsState(t *testing.T) {
	mock := llm.NewMockProvider(llm.MockResponse{Content: llm.TextContent("Hi!")})
	s := testChat(t, mock, nil)
	s.Update(s.start()())
	before := s.state

	// Empty mock queue makes evaluation unavailable.
	send(t, s, "my answer")

	if s.state != before {
		t.Error("state replaced after a failed turn")
	}
	if s.err == "" {
		t.Fatal("error not shown")
	}
	if !strings.Contains(s.View(80, 30), "unavailable") {
		t.Error("view should show the error")
	}
}

func TestChatIgnoresInputWhileBusy(t *testing.T) {
	s := testChat(t, llm.NewMockProvider(), nil)
	s.input.SetValue("hello")

	if _, cmd := s.Update(specialKey(tea.KeyEnter)); cmd != nil {
		t.Error("enter while starting should be ignored")
	}
}

func TestChatChaptersCommand(t *testing.T) {
	mock := llm.NewMockProvider(llm.MockResponse{Content: llm.TextContent("Hi!")})
	s := testChat(t, mock, nil)
	s.Update(s.start()())

	s.input.SetValue("/chapters")
	_, cmd := s.Update(specialKey(tea.KeyEnter))
	if cmd == nil {
		t.Fatal("expected a push command")
	}
	msg, ok := cmd().(pushScreenMsg)
	if !ok {
		t.Fatalf("expected pushScreenMsg, got %T", cmd())
	}
	view := msg.screen.View(80, 20)
	if !strings.Contains(view, "Light Reactions") || !strings.Contains(view, "2:00-5:00") {
		t.Errorf("chapters view:\n%s", view)
	}
}

func TestChatRecordsSession(t *testing.T) {
	st, err := store.Open(fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name()))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	defer st.Close()
	recorder := session.NewRecorder(st.SessionRepo(), st.EventRepo(), nil)

	mock := llm.NewMockProvider(llm.MockResponse{Content: llm.TextContent("Hi!")})
	s := testChat(t, mock, recorder)
	s.Update(s.start()())
	mock.AddResponse(llm.MockResponse{Content: llm.TextContent("What does chlorophyll do?")})
	send(t, s, "done")

	ctx := context.Background()
	loaded, _, err := recorder.Load(ctx, s.state.SessionID)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if loaded.Phase != tutor.PhasePostWatch {
		t.Errorf("stored phase = %s, want POST_WATCH", loaded.Phase)
	}
	turns, err := st.EventRepo().QueryTurnEvents(ctx, store.QueryOpts{SessionID: s.state.SessionID})
	if err != nil {
		t.Fatalf("query turns: %v", err)
	}
	if len(turns) != 1 {
		t.Errorf("got %d turn events, want 1", len(turns))
	}
}

func TestChatFailedSaveRecordsNoTurn(t *testing.T) {
	st, err := store.Open(fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name()))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	defer st.Close()
	recorder := session.NewRecorder(st.SessionRepo(), st.EventRepo(), nil)

	mock := llm.NewMockProvider(llm.MockResponse{Content: llm.TextContent("Hi!")})
	s := testChat(t, mock, recorder)
	s.Update(s.start()())
	before := s.state

	ctx := context.Background()
	if _, err := st.DB().ExecContext(ctx, `CREATE TRIGGER reject_session_update
		BEFORE UPDATE ON sessions BEGIN SELECT RAISE(ABORT, 'disk full'); END`); err != nil {
		t.Fatalf("create trigger: %v", err)
	}

	mock.AddResponse(llm.MockResponse{Content: llm.TextContent("What does chlorophyll do?")})
	send(t, s, "done")

	if s.state != before {
		t.Error("state advanced although it was not saved")
	}
	if !strings.Contains(s.err, "save session") {
		t.Errorf("err = %q", s.err)
	}
	turns, err := st.EventRepo().QueryTurnEvents(ctx, store.QueryOpts{SessionID: before.SessionID})
	if err != nil {
		t.Fatalf("query turns: %v", err)
	}
	if len(turns) != 0 {
		t.Errorf("got %d turn events for an unsaved turn", len(turns))
	}
}

func TestChatResume(t *testing.T) {
	resume := &tutor.ConversationState{SessionID: "s-1", Phase: tutor.PhaseReview}
	mock := llm.NewMockProvider()
	s := newChatScreen(context.Background(), Options{
		Tutor: tutor.NewService(mock), Analysis: testAnalysis(), Resume: resume,
	})
	s.Update(s.start()())

	if s.state != resume {
		t.Error("resume state not used")
	}
	if mock.CallCount() != 0 {
		t.Error("resuming should not call the LLM")
	}
}

func TestRenderMarkup(t *testing.T) {
	out := renderMarkup("Watch from **0:00** to **2:00**")
	if strings.Contains(out, "**") {
		t.Errorf("markup not rendered: %q", out)
	}
	if !strings.Contains(out, "0:00") {
		t.Errorf("text lost: %q", out)
	}
}

func TestRouterStack(t *testing.T) {
	mock := llm.NewMockProvider()
	chat := testChat(t, mock, nil)
	r := newRouter(chat)

	r.update(pushScreenMsg{screen: newChaptersScreen(testAnalysis(), nil)})
	if r.depth() != 2 || r.active().Title() != "Chapters" {
		t.Fatalf("depth = %d, active = %s", r.depth(), r.active().Title())
	}
	r.update(popScreenMsg{})
	r.update(popScreenMsg{})
	if r.depth() != 1 {
		t.Errorf("root screen popped: depth = %d", r.depth())
	}
}
