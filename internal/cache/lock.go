package cache

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// ErrLockNotAcquired means another holder owns the lock
var ErrLockNotAcquired = errors.New("lock not acquired")

var releaseLockScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// Lock is a single-holder redis lock
type Lock struct {
	key   string
	token string
}

// AcquireLock tries to take the lock until ctx is done, polling every wait step
func AcquireLock(ctx context.Context, key string, ttl, wait time.Duration) (*Lock, error) {
	if !Enabled() {
		return nil, ErrDisabled
	}
	if wait <= 0 {
		wait = 50 * time.Millisecond
	}
	lock := &Lock{key: Key("lock:" + key), token: uuid.NewString()}
	for {
		ok, err := redisClient.SetNX(ctx, lock.key, lock.token, ttl).Result()
		if err != nil {
			return nil, err
		}
		if ok {
			return lock, nil
		}
		select {
		case <-ctx.Done():
			return nil, ErrLockNotAcquired
		case <-time.After(wait):
		}
	}
}

// Release frees the lock when still held by this owner
func (l *Lock) Release(ctx context.Context) error {
	if l == nil || !Enabled() {
		return nil
	}
	return releaseLockScript.Run(ctx, redisClient, []string{l.key}, l.token).Err()
}
