package console

import "github.com/abhisek/vidtutor/internal/tutor"

// startedMsg carries the result of opening or resuming a session.
type startedMsg struct {
	State *tutor.ConversationState
	Err   error
}

// turnMsg carries the result of evaluating one learner answer.
type turnMsg struct {
	Result *tutor.TurnResult
	Err    error
}

// hintMsg carries a generated hint.
type hintMsg struct {
	Result *tutor.HintResult
	Err    error
}
