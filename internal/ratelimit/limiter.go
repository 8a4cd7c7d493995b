// Package ratelimit implements a Redis fixed-window request limiter.
package ratelimit

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const keyPrefix = "ratelimit:"

// windowScript increments the counter and starts the window on the first hit,
// so steady traffic cannot keep extending it.
var windowScript = redis.NewScript(`
local count = redis.call('INCR', KEYS[1])
if count == 1 then
  redis.call('PEXPIRE', KEYS[1], ARGV[1])
end
return {count, redis.call('PTTL', KEYS[1])}
`)

// Limiter counts requests per key in fixed windows stored in Redis.
type Limiter struct {
	client      *redis.Client
	maxRequests int64
	window      time.Duration
}

// Decision is the outcome of a single Allow call.
type Decision struct {
	Allowed   bool
	Remaining int64
	ResetIn   time.Duration
}

// New builds a limiter.
func New(client *redis.Client, maxRequests int, window time.Duration) (*Limiter, error) {
	if client == nil {
		return nil, errors.New("ratelimit: redis client is required")
	}
	if maxRequests <= 0 {
		return nil, errors.New("ratelimit: maxRequests must be positive")
	}
	if window <= 0 {
		return nil, errors.New("ratelimit: window must be positive")
	}
	return &Limiter{client: client, maxRequests: int64(maxRequests), window: window}, nil
}

// Allow records one request for key and reports whether it fits in the window.
func (l *Limiter) Allow(ctx context.Context, key string) (Decision, error) {
	res, err := windowScript.Run(ctx, l.client, []string{keyPrefix + key}, l.window.Milliseconds()).Int64Slice()
	if err != nil {
		return Decision{}, fmt.Errorf("ratelimit: %w", err)
	}
	if len(res) != 2 {
		return Decision{}, fmt.Errorf("ratelimit: unexpected script reply %v", res)
	}

	count := res[0]
	remaining := l.maxRequests - count
	if remaining < 0 {
		remaining = 0
	}
	resetIn := time.Duration(res[1]) * time.Millisecond
	if resetIn < 0 {
		resetIn = l.window
	}
	return Decision{
		Allowed:   count <= l.maxRequests,
		Remaining: remaining,
		ResetIn:   resetIn,
	}, nil
}

// Limit returns the configured maximum per window.
func (l *Limiter) Limit() int64 {
	return l.maxRequests
}
