package lock

import (
	"context"
	"math/rand/v2"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// releaseScript deletes the key only if we still own it
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// RedisLocker is a SET NX lock shared by every process on the same redis.
// Acquire keeps retrying with capped exponential backoff until it gets the
// key, the caller's context ends, or wait elapses.
type RedisLocker struct {
	client     *redis.Client
	prefix     string
	ttl        time.Duration
	wait       time.Duration
	backoff    time.Duration
	maxBackoff time.Duration
	logger     *zap.Logger
}

func NewRedisLocker(client *redis.Client, prefix string, logger *zap.Logger) *RedisLocker {
	return &RedisLocker{
		client:     client,
		prefix:     prefix,
		ttl:        5 * time.Second,
		wait:       10 * time.Second,
		backoff:    10 * time.Millisecond,
		maxBackoff: 200 * time.Millisecond,
		logger:     logger,
	}
}

// Acquire returns ErrBusy when wait runs out and the caller's context
// error when the caller gives up first.
func (l *RedisLocker) Acquire(ctx context.Context, key string) (func(), error) {
	lockKey := l.prefix + "lock:" + key
	token := uuid.NewString()

	waitCtx, cancel := context.WithTimeout(ctx, l.wait)
	defer cancel()

	delay := l.backoff
	for {
		ok, err := l.client.SetNX(waitCtx, lockKey, token, l.ttl).Result()
		if ok {
			return func() { l.release(lockKey, token) }, nil
		}
		if err != nil && waitCtx.Err() == nil {
			l.logger.Error("Failed to acquire lock", zap.String("key", lockKey), zap.Error(err))
		}

		// jitter spreads out waiters that collided on the same key
		timer := time.NewTimer(delay + rand.N(delay))
		select {
		case <-waitCtx.Done():
			timer.Stop()
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			l.logger.Warn("Timed out waiting for lock", zap.String("key", lockKey), zap.Duration("wait", l.wait))
			return nil, ErrBusy
		case <-timer.C:
		}
		delay = min(delay*2, l.maxBackoff)
	}
}

// release uses a fresh context so a cancelled request still frees the key
func (l *RedisLocker) release(lockKey, token string) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	if err := releaseScript.Run(ctx, l.client, []string{lockKey}, token).Err(); err != nil {
		l.logger.Warn("Failed to release lock", zap.String("key", lockKey), zap.Error(err))
	}
}
