package chat

import (
	"sync"
	"time"

	"github.com/facebookgo/clock"

	"github.com/hammamikhairi/foodify/internal/domain"
)

// RateLimits are the request ceilings per rolling window.
type RateLimits struct {
	PerMinute int
	PerHour   int
}

// DefaultRateLimits matches the generative endpoint's free tier.
func DefaultRateLimits() RateLimits {
	return RateLimits{PerMinute: 60, PerHour: 1000}
}

// RateLimiter admits requests while both the minute and hour counters are
// under their ceilings. A counter resets once the time since the last
// counted request exceeds its window. Safe for concurrent use.
type RateLimiter struct {
	clock  clock.Clock
	limits RateLimits

	mu          sync.Mutex
	minuteCount int
	hourCount   int
	last        time.Time
}

// NewRateLimiter creates a limiter. A nil clock uses wall time.
func NewRateLimiter(limits RateLimits, clk clock.Clock) *RateLimiter {
	if clk == nil {
		clk = clock.New()
	}
	return &RateLimiter{clock: clk, limits: limits}
}

// Allow reports whether a request may be dispatched now. It does not count
// the request; call Record once it is actually sent.
func (r *RateLimiter) Allow() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.clock.Now()
	r.roll(now)

	if r.limits.PerMinute > 0 && r.minuteCount >= r.limits.PerMinute {
		return &domain.RateLimitError{Window: "minute", Limit: r.limits.PerMinute, RetryAfter: r.last.Add(time.Minute).Sub(now)}
	}
	if r.limits.PerHour > 0 && r.hourCount >= r.limits.PerHour {
		return &domain.RateLimitError{Window: "hour", Limit: r.limits.PerHour, RetryAfter: r.last.Add(time.Hour).Sub(now)}
	}
	return nil
}

// Record counts one dispatched request.
func (r *RateLimiter) Record() {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.clock.Now()
	r.roll(now)
	r.minuteCount++
	r.hourCount++
	r.last = now
}

// Counts returns the current minute and hour counters.
func (r *RateLimiter) Counts() (minute, hour int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.roll(r.clock.Now())
	return r.minuteCount, r.hourCount
}

// roll resets counters whose window has passed. Caller holds r.mu.
func (r *RateLimiter) roll(now time.Time) {
	if r.last.IsZero() {
		return
	}
	idle := now.Sub(r.last)
	if idle > time.Minute {
		r.minuteCount = 0
	}
	if idle > time.Hour {
		r.hourCount = 0
	}
}
