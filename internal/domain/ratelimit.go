package domain

import (
	"context"
	"time"
)

// RateLimiter counts requests per key in fixed windows.
// Allow reports whether the request fits, the remaining budget and when the window resets.
type RateLimiter interface {
	Allow(ctx context.Context, key string) (allowed bool, remaining int, resetAt time.Time, err error)
}
