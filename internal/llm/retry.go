package llm

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog/log"
)

// Retrying retries a generator a bounded number of times with exponential
// backoff. Cancellation and missing credentials are never retried.
type Retrying struct {
	inner   Generator
	retries int
	backoff time.Duration
}

// NewRetrying wraps inner. retries is the number of extra attempts.
func NewRetrying(inner Generator, retries int, backoff time.Duration) *Retrying {
	if retries < 0 {
		retries = 0
	}
	return &Retrying{inner: inner, retries: retries, backoff: backoff}
}

func (r *Retrying) Generate(ctx context.Context, prompt string) (*Completion, error) {
	wait := r.backoff
	for attempt := 0; ; attempt++ {
		completion, err := r.inner.Generate(ctx, prompt)
		if err == nil {
			return completion, nil
		}
		if attempt >= r.retries || !retryable(ctx, err) {
			return nil, err
		}

		log.Warn().Err(err).Int("attempt", attempt+1).Dur("wait", wait).Msg("llm call failed, retrying")
		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, err
		case <-timer.C:
		}
		wait *= 2
	}
}

func retryable(ctx context.Context, err error) bool {
	if ctx.Err() != nil {
		return false
	}
	return !errors.Is(err, context.Canceled) &&
		!errors.Is(err, context.DeadlineExceeded) &&
		!errors.Is(err, ErrMissingAPIKey)
}
