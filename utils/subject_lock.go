package utils

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/cppla/taskquest/progress"
)

// Deletes the key only while it still carries our token, so an expired lock taken over by
// another instance is never released by us.
const releaseScript = `if redis.call('GET', KEYS[1]) == ARGV[1] then return redis.call('DEL', KEYS[1]) end; return 0`

// RedisLocker serializes completions for one subject across instances with SET NX PX.
type RedisLocker struct {
	rc    *redis.Client
	ttl   time.Duration
	wait  time.Duration
	retry time.Duration
}

// NewRedisLocker creates a locker whose leases expire after ttl; Lock gives up after wait.
func NewRedisLocker(rc *redis.Client, ttl, wait time.Duration) *RedisLocker {
	if ttl <= 0 {
		ttl = 10 * time.Second
	}
	if wait <= 0 {
		wait = 5 * time.Second
	}
	return &RedisLocker{rc: rc, ttl: ttl, wait: wait, retry: 20 * time.Millisecond}
}

func lockKey(subjectID string) string { return "lock:subject:" + subjectID }

// Lock polls until the lease is ours, the wait bound passes, or ctx ends.
func (l *RedisLocker) Lock(ctx context.Context, subjectID string) (func(), error) {
	ctx, cancel := context.WithTimeout(ctx, l.wait)
	defer cancel()

	key := lockKey(subjectID)
	token := uuid.NewString()
	ticker := time.NewTicker(l.retry)
	defer ticker.Stop()

	for {
		ok, err := l.rc.SetNX(ctx, key, token, l.ttl).Result()
		if err != nil && !errors.Is(err, context.DeadlineExceeded) && !errors.Is(err, context.Canceled) {
			return nil, progress.Persistence("acquire subject lock", err)
		}
		if ok {
			return l.releaser(key, token), nil
		}
		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("%w: %s: %v", progress.ErrLockTimeout, subjectID, ctx.Err())
		case <-ticker.C:
		}
	}
}

func (l *RedisLocker) releaser(key, token string) func() {
	var once sync.Once
	return func() {
		once.Do(func() {
			ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			if err := l.rc.Eval(ctx, releaseScript, []string{key}, token).Err(); err != nil {
				Sugar.Warnf("release subject lock failed key=%s err=%v", key, err)
			}
		})
	}
}
