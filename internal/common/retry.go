package common

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"time"

	"github.com/Veraticus/atlas/internal/service"
)

var (
	// ErrRateLimit indicates that the API rate limit has been exceeded.
	ErrRateLimit = errors.New("rate limit exceeded")
	// ErrMaxRetries indicates that all retry attempts have been exhausted.
	ErrMaxRetries = errors.New("max retries exceeded")
)

// RetryableError marks whether a failed call may be attempted again. After,
// when set, is the wait the server asked for.
type RetryableError struct {
	Err       error
	Retryable bool
	After     time.Duration
}

func (e *RetryableError) Error() string {
	return e.Err.Error()
}

func (e *RetryableError) Unwrap() error {
	return e.Err
}

func normalize(opts service.RetryOptions) service.RetryOptions {
	if opts.MaxAttempts <= 0 {
		opts.MaxAttempts = 3
	}
	if opts.InitialDelay <= 0 {
		opts.InitialDelay = 100 * time.Millisecond
	}
	if opts.MaxDelay <= 0 {
		opts.MaxDelay = 30 * time.Second
	}
	if opts.Multiplier < 1 {
		opts.Multiplier = 2.0
	}
	return opts
}

// WithRetry runs operation until it succeeds, returns a non-retryable error,
// or uses up opts.MaxAttempts. Delays grow by opts.Multiplier with up to 10%
// jitter. A rate-limited attempt waits the server's Retry-After when it gave
// one and opts.MaxDelay otherwise.
func WithRetry(ctx context.Context, operation func() error, opts service.RetryOptions) error {
	opts = normalize(opts)
	backoff := opts.InitialDelay

	for attempt := 1; ; attempt++ {
		err := operation()
		if err == nil {
			return nil
		}

		var retryable *RetryableError
		hasMeta := errors.As(err, &retryable)
		if hasMeta && !retryable.Retryable {
			return retryable.Err
		}
		if attempt >= opts.MaxAttempts {
			return fmt.Errorf("%w after %d attempts: %w", ErrMaxRetries, opts.MaxAttempts, err)
		}

		delay := backoff
		switch {
		case hasMeta && retryable.After > 0:
			delay = retryable.After
		case errors.Is(err, ErrRateLimit):
			delay = opts.MaxDelay
		default:
			delay += time.Duration(rand.Int64N(int64(delay)/10 + 1))
		}
		delay = min(delay, opts.MaxDelay)

		slog.Warn("Operation failed, retrying",
			"attempt", attempt,
			"max_attempts", opts.MaxAttempts,
			"delay", delay,
			"error", err)

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}

		backoff = min(time.Duration(float64(backoff)*opts.Multiplier), opts.MaxDelay)
	}
}
