package llm

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// rateLimiter is a token bucket holding up to one minute of requests. The
// bucket is a buffered channel that a background goroutine tops up.
type rateLimiter struct {
	tokens   chan struct{}
	stopCh   chan struct{}
	interval time.Duration
	capacity int
	once     sync.Once
}

// newRateLimiter creates a limiter allowing perMinute calls, starting full.
func newRateLimiter(perMinute int) *rateLimiter {
	if perMinute <= 0 {
		perMinute = 60
	}

	rl := &rateLimiter{
		tokens:   make(chan struct{}, perMinute),
		stopCh:   make(chan struct{}),
		interval: time.Minute / time.Duration(perMinute),
		capacity: perMinute,
	}
	rl.reset()

	go rl.refill()

	return rl
}

// wait takes a token, blocking until one is available or ctx is done.
func (rl *rateLimiter) wait(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("rate limiter canceled: %w", err)
	}

	select {
	case <-rl.tokens:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("rate limiter canceled: %w", ctx.Err())
	}
}

// tryAcquire takes a token if one is available.
func (rl *rateLimiter) tryAcquire() bool {
	select {
	case <-rl.tokens:
		return true
	default:
		return false
	}
}

func (rl *rateLimiter) available() int {
	return len(rl.tokens)
}

func (rl *rateLimiter) refill() {
	ticker := time.NewTicker(rl.interval)
	defer ticker.Stop()

	for {
		select {
		case <-rl.stopCh:
			return
		case <-ticker.C:
			rl.put()
		}
	}
}

// put adds a token unless the bucket is full.
func (rl *rateLimiter) put() bool {
	select {
	case rl.tokens <- struct{}{}:
		return true
	default:
		return false
	}
}

// reset fills the bucket.
func (rl *rateLimiter) reset() {
	for rl.put() {
	}
}

// Close stops the refill goroutine. Calling it twice is fine.
func (rl *rateLimiter) Close() {
	rl.once.Do(func() { close(rl.stopCh) })
}
