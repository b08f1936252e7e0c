package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// hitScript increments one counter per tier, arms its expiry on the first
// hit and returns count and remaining ttl pairs.
var hitScript = redis.NewScript(`
local out = {}
for i, key in ipairs(KEYS) do
  local count = redis.call('INCR', key)
  if count == 1 then
    redis.call('PEXPIRE', key, ARGV[i])
  end
  local ttl = redis.call('PTTL', key)
  if ttl < 0 then
    redis.call('PEXPIRE', key, ARGV[i])
    ttl = tonumber(ARGV[i])
  end
  table.insert(out, count)
  table.insert(out, ttl)
end
return out
`)

// RedisStore shares windows between gateway instances.
type RedisStore struct {
	client redis.Scripter
	prefix string
}

func NewRedisStore(client redis.Scripter) *RedisStore {
	return &RedisStore{client: client, prefix: "ratelimit"}
}

func (s *RedisStore) Hit(ctx context.Context, key string, tiers []Tier) ([]Window, error) {
	keys := make([]string, len(tiers))
	args := make([]any, len(tiers))
	for i, tier := range tiers {
		keys[i] = s.prefix + ":" + tier.Name + ":" + key
		args[i] = tier.TTL.Milliseconds()
	}

	values, err := hitScript.Run(ctx, s.client, keys, args...).Int64Slice()
	if err != nil {
		return nil, fmt.Errorf("run hit script: %w", err)
	}
	if len(values) != 2*len(tiers) {
		return nil, fmt.Errorf("hit script returned %d values", len(values))
	}

	out := make([]Window, len(tiers))
	for i := range tiers {
		out[i] = Window{
			Count:   int(values[2*i]),
			ResetIn: time.Duration(values[2*i+1]) * time.Millisecond,
		}
	}
	return out, nil
}
