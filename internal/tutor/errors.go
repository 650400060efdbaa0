package tutor

import "errors"

var (
	// ErrMissingFields means a required request field was absent.
	ErrMissingFields = errors.New("missing required fields")

	// ErrInvalidHintLevel means a hint level outside 1-4 was requested.
	ErrInvalidHintLevel = errors.New("invalid hint level")

	// ErrInvalidChapterIndex means the session's chapter index does not
	// resolve to a chapter of the analysis.
	ErrInvalidChapterIndex = errors.New("invalid chapter index")

	// ErrUnknownPhase means the state names a phase with no handler.
	ErrUnknownPhase = errors.New("unknown phase")

	// ErrEvaluationUnavailable wraps LLM transport failures.
	ErrEvaluationUnavailable = errors.New("evaluation unavailable")

	// ErrMalformedScore is reserved. The parser falls back to a neutral
	// score instead of returning it.
	ErrMalformedScore = errors.New("malformed score")
)
