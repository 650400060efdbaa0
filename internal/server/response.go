package server

import (
	"errors"
	"net/http"

	"github.com/abhisek/vidtutor/internal/analysis"
	"github.com/abhisek/vidtutor/internal/session"
	"github.com/abhisek/vidtutor/internal/tutor"
	"github.com/gin-gonic/gin"
)

// Error codes returned in the error envelope.
const (
	CodeMissingFields         = "missing_fields"
	CodeInvalidHintLevel      = "invalid_hint_level"
	CodeInvalidChapterIndex   = "invalid_chapter_index"
	CodeUnknownPhase          = "unknown_phase"
	CodeEvaluationUnavailable = "evaluation_unavailable"
	CodeSessionNotFound       = "session_not_found"
	CodeRateLimited           = "rate_limited"
	CodeInternal              = "internal"
)

// APIError is the body of a failed request.
type APIError struct {
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}

// ErrorEnvelope wraps APIError.
type ErrorEnvelope struct {
	Error APIError `json:"error"`
}

// errorStatus maps domain errors to an HTTP status and error code.
func errorStatus(err error) (int, string) {
	switch {
	case errors.Is(err, tutor.ErrMissingFields), errors.Is(err, analysis.ErrEmptyTranscript):
		return http.StatusBadRequest, CodeMissingFields
	case errors.Is(err, tutor.ErrInvalidHintLevel):
		return http.StatusBadRequest, CodeInvalidHintLevel
	case errors.Is(err, tutor.ErrInvalidChapterIndex):
		return http.StatusBadRequest, CodeInvalidChapterIndex
	case errors.Is(err, tutor.ErrUnknownPhase):
		return http.StatusUnprocessableEntity, CodeUnknownPhase
	case errors.Is(err, tutor.ErrEvaluationUnavailable):
		return http.StatusBadGateway, CodeEvaluationUnavailable
	case errors.Is(err, session.ErrNotFound):
		return http.StatusNotFound, CodeSessionNotFound
	default:
		return http.StatusInternalServerError, CodeInternal
	}
}

func respondError(c *gin.Context, status int, code string, err error) {
	msg := "unknown error"
	if err != nil {
		msg = err.Error()
	}
	c.AbortWithStatusJSON(status, ErrorEnvelope{
		Error: APIError{Message: msg, Code: code},
	})
}

// fail responds with the status mapped from err. Internal errors are
// logged and their details hidden from the client.
func (s *Server) fail(c *gin.Context, err error) {
	status, code := errorStatus(err)
	if status == http.StatusInternalServerError {
		s.log.Error("request failed", "path", c.FullPath(), "error", err)
		respondError(c, status, code, errors.New("internal server error"))
		return
	}
	s.log.Debug("request rejected", "path", c.FullPath(), "code", code, "error", err)
	respondError(c, status, code, err)
}
