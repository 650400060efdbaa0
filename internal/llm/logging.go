package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/abhisek/vidtutor/internal/logger"
	"github.com/abhisek/vidtutor/internal/store"
)

// EventRecorder is the slice of store.EventRepo the logging decorator needs.
type EventRecorder interface {
	AppendLLMRequest(ctx context.Context, data store.LLMRequestEventData) error
}

// LoggingProvider is a decorator that records every LLM request as an event.
type LoggingProvider struct {
	inner    Provider
	provider string
	recorder EventRecorder
	log      *logger.Logger
}

// WithLogging wraps a Provider with event logging. recorder may be nil, in
// which case requests are only written to the structured log.
func WithLogging(p Provider, providerName string, recorder EventRecorder, log *logger.Logger) Provider {
	if log == nil {
		log = logger.Nop()
	}
	return &LoggingProvider{inner: p, provider: providerName, recorder: recorder, log: log}
}

func (l *LoggingProvider) Generate(ctx context.Context, req Request) (*Response, error) {
	start := time.Now()
	purpose := PurposeFrom(ctx)

	resp, err := l.inner.Generate(ctx, req)

	data := store.LLMRequestEventData{
		SessionID:   SessionFrom(ctx),
		Provider:    l.provider,
		Model:       l.inner.ModelID(),
		Purpose:     purpose,
		LatencyMs:   time.Since(start).Milliseconds(),
		Success:     err == nil,
		RequestBody: serializeRequest(req),
	}
	if resp != nil {
		data.InputTokens = resp.Usage.InputTokens
		data.OutputTokens = resp.Usage.OutputTokens
		if resp.Model != "" {
			data.Model = resp.Model
		}
		data.ResponseBody = string(resp.Content)
	}
	if err != nil {
		data.ErrorMessage = err.Error()
		// Keep what the model said even when it was unusable.
		var inv *ErrInvalidResponse
		var trunc *ErrMaxTokensExceeded
		switch {
		case errors.As(err, &inv):
			data.ResponseBody = string(inv.Content)
		case errors.As(err, &trunc):
			data.ResponseBody = string(trunc.Content)
		}
	}

	kv := []any{
		"purpose", purpose,
		"model", data.Model,
		"latency_ms", data.LatencyMs,
		"input_tokens", data.InputTokens,
		"output_tokens", data.OutputTokens,
	}
	if err != nil {
		l.log.Warn("llm request failed", append(kv, "error", err)...)
	} else {
		l.log.Debug("llm request", kv...)
	}

	if l.recorder != nil {
		// Detached from ctx so a cancelled turn still leaves a record.
		recCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
		defer cancel()
		if logErr := l.recorder.AppendLLMRequest(recCtx, data); logErr != nil {
			l.log.Warn("failed to record LLM request event", "error", logErr)
		}
	}

	return resp, err
}

func (l *LoggingProvider) ModelID() string {
	return l.inner.ModelID()
}

// serializeRequest builds a readable representation of the LLM request.
func serializeRequest(req Request) string {
	var b strings.Builder

	if req.System != "" {
		b.WriteString("[system]\n")
		b.WriteString(req.System)
		b.WriteString("\n\n")
	}

	for _, m := range req.Messages {
		fmt.Fprintf(&b, "[%s]\n%s\n\n", m.Role, m.Content)
	}

	if req.Schema != nil {
		if def, err := json.Marshal(req.Schema.Definition); err == nil {
			fmt.Fprintf(&b, "[schema: %s]\n%s\n", req.Schema.Name, def)
		}
	}

	return b.String()
}
