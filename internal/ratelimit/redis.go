package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

var tokenBucketScript = redis.NewScript(`
local key = KEYS[1]
local now_ms = tonumber(ARGV[1])
local capacity = tonumber(ARGV[2])
local interval_ms = tonumber(ARGV[3])
local ttl_seconds = tonumber(ARGV[4])

local state = redis.call('HMGET', key, 'tokens', 'last_refill_ms')
local tokens = tonumber(state[1])
local last_refill = tonumber(state[2])

if tokens == nil or last_refill == nil then
    tokens = capacity
    last_refill = now_ms
end

if interval_ms > 0 then
    local elapsed = math.max(0, now_ms - last_refill)
    local intervals = math.floor(elapsed / interval_ms)
    if intervals > 0 then
        tokens = math.min(capacity, tokens + intervals)
        last_refill = last_refill + (intervals * interval_ms)
    end
end

local allowed = 0
local retry_after_ms = 0
if tokens > 0 then
    allowed = 1
    tokens = tokens - 1
else
    retry_after_ms = math.max(0, interval_ms - (now_ms - last_refill))
end

redis.call('HSET', key, 'tokens', tokens, 'last_refill_ms', last_refill)
redis.call('EXPIRE', key, ttl_seconds)

return { allowed, tokens, retry_after_ms }
`)

// RedisLimiter shares buckets across instances through Redis. One token refills per interval.
type RedisLimiter struct {
	rdb      *redis.Client
	capacity int
	interval time.Duration
	now      func() time.Time
}

func NewRedisLimiter(rdb *redis.Client, capacity int, interval time.Duration) *RedisLimiter {
	return &RedisLimiter{rdb: rdb, capacity: capacity, interval: interval, now: time.Now}
}

func (l *RedisLimiter) Take(ctx context.Context, key string) (Decision, error) {
	// Idle buckets expire once they would be full again.
	ttl := int64((time.Duration(l.capacity) * l.interval).Seconds()) + 1

	vals, err := tokenBucketScript.Run(ctx, l.rdb, []string{key},
		l.now().UnixMilli(), l.capacity, l.interval.Milliseconds(), ttl,
	).Int64Slice()
	if err != nil {
		return Decision{}, fmt.Errorf("token bucket script failed: %w", err)
	}
	if len(vals) != 3 {
		return Decision{}, fmt.Errorf("unexpected token bucket result length %d", len(vals))
	}

	return Decision{
		Allowed:    vals[0] == 1,
		Remaining:  int(vals[1]),
		RetryAfter: time.Duration(vals[2]) * time.Millisecond,
	}, nil
}
