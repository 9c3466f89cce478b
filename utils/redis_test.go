package utils

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cppla/taskquest/progress"
)

func startRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	rc := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	UseRedis(rc)
	t.Cleanup(func() {
		UseRedis(nil)
		_ = rc.Close()
	})
	return mr, rc
}

func TestRedisLocker_Exclusive(t *testing.T) {
	mr, rc := startRedis(t)
	locker := NewRedisLocker(rc, 5*time.Second, 60*time.Millisecond)
	ctx := context.Background()

	unlock, err := locker.Lock(ctx, "s1")
	require.NoError(t, err)
	assert.True(t, mr.Exists("lock:subject:s1"))

	_, err = locker.Lock(ctx, "s1")
	assert.ErrorIs(t, err, progress.ErrLockTimeout)

	other, err := locker.Lock(ctx, "s2")
	require.NoError(t, err)
	other()

	unlock()
	unlock()
	assert.False(t, mr.Exists("lock:subject:s1"))

	again, err := locker.Lock(ctx, "s1")
	require.NoError(t, err)
	again()
}

func TestRedisLocker_WaitsForRelease(t *testing.T) {
	_, rc := startRedis(t)
	locker := NewRedisLocker(rc, 5*time.Second, 2*time.Second)
	ctx := context.Background()

	unlock, err := locker.Lock(ctx, "s1")
	require.NoError(t, err)
	go func() {
		time.Sleep(50 * time.Millisecond)
		unlock()
	}()

	second, err := locker.Lock(ctx, "s1")
	require.NoError(t, err)
	second()
}

func TestRedisLocker_ExpiredLeaseIsNotStolenBack(t *testing.T) {
	mr, rc := startRedis(t)
	locker := NewRedisLocker(rc, time.Second, 100*time.Millisecond)
	ctx := context.Background()

	unlock, err := locker.Lock(ctx, "s1")
	require.NoError(t, err)

	mr.FastForward(2 * time.Second)
	takeover, err := locker.Lock(ctx, "s1")
	require.NoError(t, err)
	owner, err := mr.Get("lock:subject:s1")
	require.NoError(t, err)

	unlock()
	still, err := mr.Get("lock:subject:s1")
	require.NoError(t, err)
	assert.Equal(t, owner, still)

	takeover()
	assert.False(t, mr.Exists("lock:subject:s1"))
}

func TestRedisLocker_SerializesWorkers(t *testing.T) {
	_, rc := startRedis(t)
	locker := NewRedisLocker(rc, 5*time.Second, 5*time.Second)
	ctx := context.Background()

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		counter int
	)
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			unlock, err := locker.Lock(ctx, "shared")
			if !assert.NoError(t, err) {
				return
			}
			defer unlock()
			mu.Lock()
			v := counter
			mu.Unlock()
			time.Sleep(2 * time.Millisecond)
			mu.Lock()
			counter = v + 1
			mu.Unlock()
		}()
	}
	wg.Wait()
	assert.Equal(t, 10, counter)
}

func TestCache_RoundTripAndInvalidate(t *testing.T) {
	mr, _ := startRedis(t)
	ctx := context.Background()

	CacheSet(ctx, ProjectionKey("s1", "profile"), []byte(`{"xp":25}`), 0)
	CacheSet(ctx, ProjectionKey("s1", "badges"), []byte(`[]`), time.Minute)
	CacheSet(ctx, ProjectionKey("s10", "profile"), []byte(`{}`), time.Minute)
	CacheSet(ctx, CacheKeyCatalog, []byte(`[1]`), time.Minute)

	b, ok := CacheGet(ctx, ProjectionKey("s1", "profile"))
	require.True(t, ok)
	assert.JSONEq(t, `{"xp":25}`, string(b))
	assert.Equal(t, defaultCacheTTL, mr.TTL(ProjectionKey("s1", "profile")))

	assert.Equal(t, 2, InvalidateSubject(ctx, "s1"))

	_, ok = CacheGet(ctx, ProjectionKey("s1", "profile"))
	assert.False(t, ok)
	_, ok = CacheGet(ctx, ProjectionKey("s1", "badges"))
	assert.False(t, ok)
	_, ok = CacheGet(ctx, ProjectionKey("s10", "profile"))
	assert.True(t, ok)
	_, ok = CacheGet(ctx, CacheKeyCatalog)
	assert.True(t, ok)
	assert.Equal(t, 0, InvalidateSubject(ctx, "s1"))
}

func TestCachedEnvelope(t *testing.T) {
	startRedis(t)
	ctx := context.Background()

	calls := 0
	load := func() (interface{}, error) {
		calls++
		return map[string]int{"xp": calls}, nil
	}

	first, err := CachedEnvelope(ctx, "cache:test", time.Minute, load)
	require.NoError(t, err)
	assert.JSONEq(t, `{"code":0,"message":"success","data":{"xp":1}}`, string(first))

	second, err := CachedEnvelope(ctx, "cache:test", time.Minute, load)
	require.NoError(t, err)
	assert.Equal(t, first, second)
	assert.Equal(t, 1, calls)

	boom := errors.New("boom")
	_, err = CachedEnvelope(ctx, "cache:fail", time.Minute, func() (interface{}, error) { return nil, boom })
	assert.ErrorIs(t, err, boom)
	_, ok := CacheGet(ctx, "cache:fail")
	assert.False(t, ok)
}

func TestCache_DisabledIsAMiss(t *testing.T) {
	UseRedis(nil)
	ctx := context.Background()

	CacheSet(ctx, "k", []byte("v"), time.Minute)
	_, ok := CacheGet(ctx, "k")
	assert.False(t, ok)
	assert.Equal(t, 0, InvalidateSubject(ctx, "k"))

	calls := 0
	for i := 0; i < 2; i++ {
		_, err := CachedEnvelope(ctx, "k", time.Minute, func() (interface{}, error) {
			calls++
			return nil, nil
		})
		require.NoError(t, err)
	}
	assert.Equal(t, 2, calls)
}
