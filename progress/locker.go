package progress

import (
	"context"
	"fmt"
	"sync"
)

// Locker serializes transitions for one subject. The returned func releases the lock and is
// safe to call more than once.
type Locker interface {
	Lock(ctx context.Context, subjectID string) (func(), error)
}

// KeyedMutex is an in-process Locker. Entries live only while someone holds or waits on them.
type KeyedMutex struct {
	mu    sync.Mutex
	locks map[string]*keyLock
}

type keyLock struct {
	ch   chan struct{}
	refs int
}

// NewKeyedMutex creates an empty KeyedMutex.
func NewKeyedMutex() *KeyedMutex {
	return &KeyedMutex{locks: map[string]*keyLock{}}
}

// Lock blocks until subjectID is free or ctx is done.
func (k *KeyedMutex) Lock(ctx context.Context, subjectID string) (func(), error) {
	k.mu.Lock()
	l, ok := k.locks[subjectID]
	if !ok {
		l = &keyLock{ch: make(chan struct{}, 1)}
		k.locks[subjectID] = l
	}
	l.refs++
	k.mu.Unlock()

	select {
	case l.ch <- struct{}{}:
	case <-ctx.Done():
		k.release(subjectID, l)
		return nil, fmt.Errorf("%w: %s: %v", ErrLockTimeout, subjectID, ctx.Err())
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			<-l.ch
			k.release(subjectID, l)
		})
	}, nil
}

func (k *KeyedMutex) release(subjectID string, l *keyLock) {
	k.mu.Lock()
	defer k.mu.Unlock()
	l.refs--
	if l.refs == 0 {
		delete(k.locks, subjectID)
	}
}

// Len reports how many subjects currently have holders or waiters.
func (k *KeyedMutex) Len() int {
	k.mu.Lock()
	defer k.mu.Unlock()
	return len(k.locks)
}
