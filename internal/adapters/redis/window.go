package redisad

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"meiras_yachting/internal/domain"
)

// One sorted set per client; members are attempts scored by their unix ms.
// Trim, count and add run inside the script so concurrent requests from the
// same client cannot both see a free slot.
var slidingWindowScript = redis.NewScript(`
local key = KEYS[1]
local now_ms = tonumber(ARGV[1])
local window_ms = tonumber(ARGV[2])
local limit = tonumber(ARGV[3])
local member = ARGV[4]

redis.call('ZREMRANGEBYSCORE', key, '-inf', now_ms - window_ms)
local count = redis.call('ZCARD', key)
if count < limit then
  redis.call('ZADD', key, now_ms, member)
  redis.call('PEXPIRE', key, window_ms)
  return {1, limit - count - 1, 0}
end

local retry_ms = 0
local oldest = redis.call('ZRANGE', key, 0, 0, 'WITHSCORES')
if oldest[2] ~= nil then
  retry_ms = tonumber(oldest[2]) + window_ms - now_ms
end
return {0, 0, retry_ms}
`)

type SlidingWindow struct {
	rdb    *redis.Client
	prefix string
	limit  int
	window time.Duration
	now    func() time.Time
}

type WindowOption func(*SlidingWindow)

func WithClock(now func() time.Time) WindowOption {
	return func(s *SlidingWindow) { s.now = now }
}

func WithWindowPrefix(p string) WindowOption {
	return func(s *SlidingWindow) { s.prefix = p }
}

func NewSlidingWindow(rdb *redis.Client, limit int, window time.Duration, opts ...WindowOption) *SlidingWindow {
	s := &SlidingWindow{
		rdb:    rdb,
		prefix: "rl:contact:",
		limit:  limit,
		window: window,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *SlidingWindow) Allow(ctx context.Context, key string) (domain.Decision, error) {
	nowMs := s.now().UnixMilli()
	member := strconv.FormatInt(nowMs, 10) + "-" + uuid.NewString()
	vals, err := slidingWindowScript.Run(ctx, s.rdb, []string{s.prefix + key},
		nowMs, s.window.Milliseconds(), s.limit, member).Int64Slice()
	if err != nil {
		return domain.Decision{}, err
	}
	if len(vals) != 3 {
		return domain.Decision{}, fmt.Errorf("sliding window: unexpected script result %v", vals)
	}
	dec := domain.Decision{
		Allowed:   vals[0] == 1,
		Remaining: int(vals[1]),
	}
	if !dec.Allowed {
		dec.RetryAfter = time.Duration(vals[2]) * time.Millisecond
	}
	return dec, nil
}
