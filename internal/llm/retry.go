package llm

import (
	"context"
	"errors"
	"math/rand/v2"
	"time"
)

// RetryProvider re-sends requests that failed for transient reasons,
// backing off exponentially with ±20% jitter.
type RetryProvider struct {
	inner  Provider
	config RetryConfig
	sleep  func(context.Context, time.Duration) error
}

// WithRetry wraps p. MaxAttempts below one still makes a single attempt.
func WithRetry(p Provider, cfg RetryConfig) Provider {
	return &RetryProvider{inner: p, config: cfg, sleep: sleepCtx}
}

func (r *RetryProvider) ModelID() string { return r.inner.ModelID() }

func (r *RetryProvider) Generate(ctx context.Context, req Request) (*Response, error) {
	attempts := max(r.config.MaxAttempts, 1)
	reshaped := false

	for attempt := 1; ; attempt++ {
		resp, err := r.inner.Generate(ctx, req)
		if err == nil {
			return resp, nil
		}
		if attempt >= attempts {
			return nil, err
		}

		switch classify(err) {
		case retryNever:
			return nil, err
		case retryOnce:
			if reshaped {
				return nil, err
			}
			reshaped = true
		}

		if err := r.sleep(ctx, r.delay(attempt, err)); err != nil {
			return nil, err
		}
	}
}

type retryClass int

const (
	retryAlways retryClass = iota
	retryOnce
	retryNever
)

// classify decides how an error is retried. An unusable reply that still
// carries text is handed back at once so the caller can scrape it; an
// empty one gets one more try.
func classify(err error) retryClass {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return retryNever
	}
	var truncated *ErrMaxTokensExceeded
	if errors.As(err, &truncated) {
		return retryNever
	}
	var invalid *ErrInvalidResponse
	if errors.As(err, &invalid) {
		if invalid.salvageable() {
			return retryNever
		}
		return retryOnce
	}
	return retryAlways
}

func (r *RetryProvider) delay(attempt int, err error) time.Duration {
	var rl *ErrRateLimit
	if errors.As(err, &rl) && rl.RetryAfter > 0 {
		return rl.RetryAfter
	}

	wait := float64(r.config.InitialWait)
	for range attempt - 1 {
		wait *= r.config.Multiplier
	}
	if limit := float64(r.config.MaxWait); limit > 0 && wait > limit {
		wait = limit
	}
	wait *= 0.8 + 0.4*rand.Float64()
	return time.Duration(max(wait, 0))
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
