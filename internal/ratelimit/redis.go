package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// The first INCR of a window sets its expiry, so later hits never extend it.
var fixedWindow = redis.NewScript(`
local n = redis.call('INCR', KEYS[1])
if n == 1 then
  redis.call('PEXPIRE', KEYS[1], ARGV[1])
end
return {n, redis.call('PTTL', KEYS[1])}
`)

// Redis shares windows across API instances.
type Redis struct {
	client redis.Scripter
	limit  int
	period time.Duration
	prefix string
}

func NewRedis(client redis.Scripter, limit int, period time.Duration, prefix string) *Redis {
	if prefix == "" {
		prefix = "ratelimit"
	}
	return &Redis{client: client, limit: limit, period: period, prefix: prefix}
}

// Allow fails open: on a Redis error the request is allowed and the error returned for logging.
func (r *Redis) Allow(ctx context.Context, key string) (Decision, error) {
	redisKey := fmt.Sprintf("%s:%s", r.prefix, key)

	res, err := fixedWindow.Run(ctx, r.client, []string{redisKey}, r.period.Milliseconds()).Int64Slice()
	if err != nil || len(res) != 2 {
		if err == nil {
			err = fmt.Errorf("unexpected script reply %v", res)
		}
		return Decision{Allowed: true, Limit: r.limit, Remaining: r.limit}, fmt.Errorf("redis rate limit: %w", err)
	}

	ttl := time.Duration(res[1]) * time.Millisecond
	if ttl <= 0 {
		ttl = r.period
	}
	return decide(int(res[0]), r.limit, time.Now().Add(ttl)), nil
}
