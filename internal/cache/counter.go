package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// ErrDisabled is returned by operations that need redis when it is not configured
var ErrDisabled = errors.New("redis disabled")

var windowCounterScript = redis.NewScript(`
local current = redis.call("INCR", KEYS[1])
if current == 1 then
	redis.call("EXPIRE", KEYS[1], ARGV[1])
end
local ttl = redis.call("TTL", KEYS[1])
return {current, ttl}
`)

// IncrWindow increments a fixed-window counter and returns the count and the seconds left in the window
func IncrWindow(ctx context.Context, key string, window time.Duration) (int64, int64, error) {
	if !Enabled() {
		return 0, 0, ErrDisabled
	}
	seconds := int64(window / time.Second)
	if seconds < 1 {
		seconds = 1
	}
	result, err := windowCounterScript.Run(ctx, redisClient, []string{Key(key)}, seconds).Result()
	if err != nil {
		return 0, 0, err
	}
	values, ok := result.([]interface{})
	if !ok || len(values) < 2 {
		return 0, 0, fmt.Errorf("unexpected counter reply %T", result)
	}
	count, ok := values[0].(int64)
	if !ok {
		return 0, 0, fmt.Errorf("unexpected counter value %T", values[0])
	}
	ttl, _ := values[1].(int64)
	return count, ttl, nil
}
