package router

import (
	"sync"
	"time"
)

// RateLimiter is a per-connection token bucket. The bucket starts full and
// a background goroutine adds refillRate tokens every refillInterval,
// clamped to maxTokens. Refill is a fixed-period schedule, independent of
// when tokens are consumed.
type RateLimiter struct {
	mu     sync.Mutex
	tokens int

	maxTokens      int
	refillRate     int
	refillInterval time.Duration

	stopOnce sync.Once
	stop     chan struct{}
}

// NewRateLimiter creates a full bucket and starts its refill goroutine.
// Every limiter must be stopped exactly once, at connection teardown, or
// the goroutine and its ticker leak.
func NewRateLimiter(maxTokens, refillRate int, refillInterval time.Duration) *RateLimiter {
	rl := &RateLimiter{
		tokens:         maxTokens,
		maxTokens:      maxTokens,
		refillRate:     refillRate,
		refillInterval: refillInterval,
		stop:           make(chan struct{}),
	}
	go rl.refillLoop()
	return rl
}

// Consume takes one token. It reports false, with no side effect, when
// the bucket is empty.
func (rl *RateLimiter) Consume() bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	if rl.tokens <= 0 {
		return false
	}
	rl.tokens--
	return true
}

// Tokens reports the current token count.
func (rl *RateLimiter) Tokens() int {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	return rl.tokens
}

// Stop cancels the refill goroutine. Safe to call more than once.
func (rl *RateLimiter) Stop() {
	rl.stopOnce.Do(func() {
		close(rl.stop)
	})
}

func (rl *RateLimiter) refillLoop() {
	ticker := time.NewTicker(rl.refillInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			// A tick may already be pending when Stop lands; never
			// refill past the stop signal.
			select {
			case <-rl.stop:
				return
			default:
			}
			rl.mu.Lock()
			rl.tokens += rl.refillRate
			if rl.tokens > rl.maxTokens {
				rl.tokens = rl.maxTokens
			}
			rl.mu.Unlock()
		case <-rl.stop:
			return
		}
	}
}
