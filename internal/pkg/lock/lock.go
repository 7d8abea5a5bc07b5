// Package lock serializes work on a single record, e.g. every ledger write to
// one redeem request, across goroutines of this process.
package lock

import (
	"context"
	"sync"
)

type keyMutex struct {
	sem  chan struct{}
	refs int
}

// KeyedLock hands out one mutex per key. Entries are dropped once no goroutine
// holds or waits on them.
type KeyedLock struct {
	mu    sync.Mutex
	locks map[string]*keyMutex
}

func New() *KeyedLock {
	return &KeyedLock{locks: make(map[string]*keyMutex)}
}

func (k *KeyedLock) acquire(key string) *keyMutex {
	k.mu.Lock()
	defer k.mu.Unlock()
	m, ok := k.locks[key]
	if !ok {
		m = &keyMutex{sem: make(chan struct{}, 1)}
		k.locks[key] = m
	}
	m.refs++
	return m
}

func (k *KeyedLock) release(key string, m *keyMutex) {
	k.mu.Lock()
	defer k.mu.Unlock()
	m.refs--
	if m.refs == 0 {
		delete(k.locks, key)
	}
}

// Lock blocks until key is held or ctx is done.
func (k *KeyedLock) Lock(ctx context.Context, key string) error {
	m := k.acquire(key)
	select {
	case m.sem <- struct{}{}:
		return nil
	case <-ctx.Done():
		k.release(key, m)
		return ctx.Err()
	}
}

// TryLock takes key without blocking.
func (k *KeyedLock) TryLock(key string) bool {
	m := k.acquire(key)
	select {
	case m.sem <- struct{}{}:
		return true
	default:
		k.release(key, m)
		return false
	}
}

func (k *KeyedLock) Unlock(key string) {
	k.mu.Lock()
	m, ok := k.locks[key]
	k.mu.Unlock()
	if !ok {
		return
	}
	<-m.sem
	k.release(key, m)
}

// WithLock runs fn while holding key.
func (k *KeyedLock) WithLock(ctx context.Context, key string, fn func() error) error {
	if err := k.Lock(ctx, key); err != nil {
		return err
	}
	defer k.Unlock(key)
	return fn()
}

// Len is the number of keys currently held or waited on.
func (k *KeyedLock) Len() int {
	k.mu.Lock()
	defer k.mu.Unlock()
	return len(k.locks)
}
