package llm

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"
)

// ErrRateLimit is returned when a vendor answers 429. RetryAfter is zero
// when the vendor gave no hint.
type ErrRateLimit struct {
	RetryAfter time.Duration
	Err        error
}

func (e *ErrRateLimit) Error() string {
	if e.RetryAfter > 0 {
		return fmt.Sprintf("llm: rate limited, retry in %s: %v", e.RetryAfter, e.Err)
	}
	return fmt.Sprintf("llm: rate limited: %v", e.Err)
}

func (e *ErrRateLimit) Unwrap() error { return e.Err }

// ErrInvalidResponse means the model replied but the reply is unusable:
// not JSON, off-schema, or empty. Content keeps whatever text came back so
// callers can fall back to scraping it.
type ErrInvalidResponse struct {
	Content json.RawMessage
	Err     error
}

func (e *ErrInvalidResponse) Error() string {
	return fmt.Sprintf("llm: unusable reply: %v", e.Err)
}

func (e *ErrInvalidResponse) Unwrap() error { return e.Err }

// salvageable reports whether the reply carries text worth parsing.
func (e *ErrInvalidResponse) salvageable() bool {
	return len(strings.TrimSpace(string(e.Content))) > 0
}

// ErrProviderUnavailable covers transport failures, 5xx answers and any
// vendor error we cannot classify more precisely.
type ErrProviderUnavailable struct {
	Err error
}

func (e *ErrProviderUnavailable) Error() string {
	if e.Err == nil {
		return "llm: provider unavailable"
	}
	return "llm: provider unavailable: " + e.Err.Error()
}

func (e *ErrProviderUnavailable) Unwrap() error { return e.Err }

// ErrMaxTokensExceeded is returned when a structured reply was cut off by
// the token limit. Content holds the partial output.
type ErrMaxTokensExceeded struct {
	Content json.RawMessage
}

func (e *ErrMaxTokensExceeded) Error() string {
	return fmt.Sprintf("llm: reply truncated at token limit after %d bytes", len(e.Content))
}

// classifyStatus turns a vendor HTTP status into one of the typed errors.
func classifyStatus(status int, retryAfter time.Duration, err error) error {
	if status == http.StatusTooManyRequests {
		return &ErrRateLimit{RetryAfter: retryAfter, Err: err}
	}
	return &ErrProviderUnavailable{Err: err}
}

// parseRetryAfter reads a Retry-After header given in seconds.
func parseRetryAfter(h http.Header) time.Duration {
	if h == nil {
		return 0
	}
	secs, err := strconv.Atoi(strings.TrimSpace(h.Get("Retry-After")))
	if err != nil || secs <= 0 {
		return 0
	}
	return time.Duration(secs) * time.Second
}
