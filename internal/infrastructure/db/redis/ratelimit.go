package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RateDecision is the outcome of a single limiter check.
type RateDecision struct {
	Allowed    bool
	Limit      int
	Remaining  int
	RetryAfter time.Duration
}

// FixedWindowLimiter counts hits per key in fixed windows using INCR and
// EXPIRE. Key format: rl:<prefix>:<key>
type FixedWindowLimiter struct {
	client *redis.Client
	prefix string
	limit  int
	window time.Duration
}

// NewFixedWindowLimiter allows limit hits per window for each key.
func NewFixedWindowLimiter(client *redis.Client, prefix string, limit int, window time.Duration) *FixedWindowLimiter {
	if limit < 1 {
		limit = 1
	}
	if window <= 0 {
		window = time.Minute
	}
	return &FixedWindowLimiter{client: client, prefix: prefix, limit: limit, window: window}
}

// Allow records a hit for key and reports whether it is within the limit.
func (l *FixedWindowLimiter) Allow(ctx context.Context, key string) (RateDecision, error) {
	k := l.key(key)

	var incr *redis.IntCmd
	var ttl *redis.DurationCmd
	_, err := l.client.TxPipelined(ctx, func(p redis.Pipeliner) error {
		incr = p.Incr(ctx, k)
		p.ExpireNX(ctx, k, l.window)
		ttl = p.PTTL(ctx, k)
		return nil
	})
	if err != nil {
		return RateDecision{}, fmt.Errorf("rate limit: %w", err)
	}

	return decide(incr.Val(), ttl.Val(), l.limit, l.window), nil
}

func (l *FixedWindowLimiter) key(key string) string {
	return fmt.Sprintf("rl:%s:%s", l.prefix, key)
}

// decide turns the window counter and its remaining lifetime into a decision.
func decide(count int64, ttl time.Duration, limit int, window time.Duration) RateDecision {
	d := RateDecision{Limit: limit}
	if count <= int64(limit) {
		d.Allowed = true
		d.Remaining = limit - int(count)
		return d
	}
	if ttl <= 0 {
		ttl = window
	}
	d.RetryAfter = ttl
	return d
}
