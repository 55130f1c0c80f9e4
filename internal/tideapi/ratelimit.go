package tideapi

import (
	"context"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
)

// TokenBucket is the process-wide rate limiter shared across a single
// client instance (§4.5, §5): a fixed number of tokens refill at a fixed
// period; Acquire blocks the calling worker until a token is available or
// ctx is cancelled. The clock is injectable per the clockwork pattern
// adopted from couchcryptid-storm-data-etl-service, consistent with its use
// across the cleaner and the tidal client's TTL caches.
type TokenBucket struct {
	mu       sync.Mutex
	tokens   float64
	capacity float64
	rate     float64 // tokens per second
	last     time.Time
	clock    clockwork.Clock
}

// NewTokenBucket builds a limiter permitting callsPerPeriod requests per
// period, starting full.
func NewTokenBucket(callsPerPeriod int, period time.Duration) *TokenBucket {
	rate := float64(callsPerPeriod) / period.Seconds()
	clock := clockwork.NewRealClock()
	return &TokenBucket{
		tokens:   float64(callsPerPeriod),
		capacity: float64(callsPerPeriod),
		rate:     rate,
		last:     clock.Now(),
		clock:    clock,
	}
}

func (b *TokenBucket) refill() {
	now := b.clock.Now()
	elapsed := now.Sub(b.last).Seconds()
	b.last = now
	if elapsed <= 0 {
		return
	}
	b.tokens += elapsed * b.rate
	if b.tokens > b.capacity {
		b.tokens = b.capacity
	}
}

// Acquire blocks until a token is available, atomically decrementing it on
// success, or returns ctx.Err() if ctx is cancelled first.
func (b *TokenBucket) Acquire(ctx context.Context) error {
	for {
		b.mu.Lock()
		b.refill()
		if b.tokens >= 1 {
			b.tokens--
			b.mu.Unlock()
			return nil
		}
		deficit := 1 - b.tokens
		wait := time.Duration(deficit/b.rate*float64(time.Second)) + time.Millisecond
		b.mu.Unlock()

		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}
}
