package teams

import (
	"sync"
	"time"
)

// rateLimiter is a per-user sliding window limiter. A nil limiter allows
// everything.
type rateLimiter struct {
	requests map[string][]time.Time
	limit    int
	window   time.Duration
	now      func() time.Time
	calls    int
	mu       sync.Mutex
}

// sweepEvery is how many calls pass between sweeps of idle users.
const sweepEvery = 1024

func newRateLimiter(limit int, window time.Duration) *rateLimiter {
	if limit <= 0 || window <= 0 {
		return nil
	}
	return &rateLimiter{
		requests: make(map[string][]time.Time),
		limit:    limit,
		window:   window,
		now:      time.Now,
	}
}

func (r *rateLimiter) allow(userID string) bool {
	if r == nil {
		return true
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.now()
	windowStart := now.Add(-r.window)

	r.calls++
	if r.calls%sweepEvery == 0 {
		r.sweep(windowStart)
	}

	// Filter out old requests
	var recent []time.Time
	for _, t := range r.requests[userID] {
		if t.After(windowStart) {
			recent = append(recent, t)
		}
	}

	if len(recent) >= r.limit {
		r.requests[userID] = recent
		return false
	}

	r.requests[userID] = append(recent, now)
	return true
}

// sweep drops users with no requests inside the window.
func (r *rateLimiter) sweep(windowStart time.Time) {
	for userID, times := range r.requests {
		if len(times) == 0 || !times[len(times)-1].After(windowStart) {
			delete(r.requests, userID)
		}
	}
}
