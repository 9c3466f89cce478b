package progress

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKeyedMutex_SerializesSameKey(t *testing.T) {
	km := NewKeyedMutex()
	ctx := context.Background()

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		inside  int
		maxSeen int
	)
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			unlock, err := km.Lock(ctx, "s1")
			if !assert.NoError(t, err) {
				return
			}
			mu.Lock()
			inside++
			if inside > maxSeen {
				maxSeen = inside
			}
			mu.Unlock()
			time.Sleep(time.Millisecond)
			mu.Lock()
			inside--
			mu.Unlock()
			unlock()
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, maxSeen)
	assert.Equal(t, 0, km.Len())
}

func TestKeyedMutex_DistinctKeysDoNotBlock(t *testing.T) {
	km := NewKeyedMutex()
	ctx := context.Background()

	unlockA, err := km.Lock(ctx, "a")
	require.NoError(t, err)
	defer unlockA()

	ctx, cancel := context.WithTimeout(ctx, time.Second)
	defer cancel()
	unlockB, err := km.Lock(ctx, "b")
	require.NoError(t, err)
	assert.Equal(t, 2, km.Len())
	unlockB()
	assert.Equal(t, 1, km.Len())
}

func TestKeyedMutex_WaitHonoursContext(t *testing.T) {
	km := NewKeyedMutex()

	unlock, err := km.Lock(context.Background(), "s1")
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	_, err = km.Lock(ctx, "s1")
	assert.ErrorIs(t, err, ErrLockTimeout)
	assert.Equal(t, 1, km.Len())

	unlock()
	assert.Equal(t, 0, km.Len())
}

func TestKeyedMutex_UnlockTwiceIsHarmless(t *testing.T) {
	km := NewKeyedMutex()
	ctx := context.Background()

	unlock, err := km.Lock(ctx, "s1")
	require.NoError(t, err)
	unlock()
	unlock()

	ctx, cancel := context.WithTimeout(ctx, time.Second)
	defer cancel()
	again, err := km.Lock(ctx, "s1")
	require.NoError(t, err)
	again()
	assert.Equal(t, 0, km.Len())
}
