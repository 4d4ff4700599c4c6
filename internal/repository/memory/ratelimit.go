package memory

import (
	"context"
	"sync"
	"time"

	"github.com/patrickmn/go-cache"
)

// RateLimiter is a fixed one-minute window limiter local to this process
type RateLimiter struct {
	counters *cache.Cache
	mu       sync.Mutex
	limit    int
}

// NewRateLimiter creates a new rate limiter allowing requestsPerMinute+burst
// requests per key per minute
func NewRateLimiter(requestsPerMinute, burst int) *RateLimiter {
	return &RateLimiter{
		counters: cache.New(time.Minute, 2*time.Minute),
		limit:    requestsPerMinute + burst,
	}
}

// Allow counts a request for key and reports whether it fits in the current window
func (r *RateLimiter) Allow(ctx context.Context, key string) (bool, int, time.Time, error) {
	windowStart := time.Now().Truncate(time.Minute)
	windowEnd := windowStart.Add(time.Minute)
	counterKey := key + "@" + windowStart.Format(time.RFC3339)

	r.mu.Lock()
	defer r.mu.Unlock()

	count := 1
	if x, found := r.counters.Get(counterKey); found {
		count = x.(int) + 1
	}
	r.counters.Set(counterKey, count, time.Until(windowEnd)+time.Second)

	remaining := r.limit - count
	if remaining < 0 {
		remaining = 0
	}
	return count <= r.limit, remaining, windowEnd, nil
}
