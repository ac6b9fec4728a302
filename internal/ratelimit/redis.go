package ratelimit

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

// hitScript atomically increments a fixed-window counter and returns the new
// count plus the window's remaining lifetime.  The expiry is only set when
// the key is created so the window does not slide on each attempt.
var hitScript = redis.NewScript(`
	local count = redis.call('INCR', KEYS[1])
	if count == 1 then
		redis.call('PEXPIRE', KEYS[1], ARGV[1])
	end
	local ttl = redis.call('PTTL', KEYS[1])
	return { count, ttl }
`)

// RedisLimiter shares fixed-window counters across instances via Redis.
// Redis errors fail open: an unreachable limiter must not lock every client
// out of login.
type RedisLimiter struct {
	rdb    *redis.Client
	window time.Duration
}

func NewRedisLimiter(rdb *redis.Client, window time.Duration) *RedisLimiter {
	return &RedisLimiter{rdb: rdb, window: window}
}

func (l *RedisLimiter) Hit(ctx context.Context, key string, limit int) (Decision, error) {
	vals, err := hitScript.Run(ctx, l.rdb, []string{key}, l.window.Milliseconds()).Int64Slice()
	if err != nil || len(vals) != 2 {
		return Decision{Allowed: true}, err
	}
	return decide(int(vals[0]), limit, vals[1], false), nil
}

func (l *RedisLimiter) Check(ctx context.Context, key string, limit int) (Decision, error) {
	pipe := l.rdb.Pipeline()
	getCmd := pipe.Get(ctx, key)
	ttlCmd := pipe.PTTL(ctx, key)
	if _, err := pipe.Exec(ctx); err != nil && err != redis.Nil {
		return Decision{Allowed: true}, err
	}
	count, _ := getCmd.Int()
	ttl, _ := ttlCmd.Result()
	return decide(count, limit, ttl.Milliseconds(), true), nil
}

func (l *RedisLimiter) RecordFailure(ctx context.Context, key string) error {
	_, err := hitScript.Run(ctx, l.rdb, []string{key}, l.window.Milliseconds()).Result()
	return err
}

// decide maps a counter value onto a Decision.  checkOnly marks queries that
// did not consume quota, where the ceiling blocks the next attempt once
// count has reached it rather than once it is exceeded.
func decide(count, limit int, ttlMs int64, checkOnly bool) Decision {
	d := Decision{Remaining: limit - count}
	if checkOnly {
		d.Allowed = count < limit
	} else {
		d.Allowed = count <= limit
	}
	if d.Remaining < 0 {
		d.Remaining = 0
	}
	if !d.Allowed && ttlMs > 0 {
		d.RetryAfter = time.Duration(ttlMs) * time.Millisecond
	}
	return d
}
