// Package locking serializes ledger read-modify-write cycles per object key.
package locking

import (
	"context"
	"sync"
)

// Locker grants exclusive access to a key. Lock blocks until the key is held
// or ctx is done; the returned release function must be called exactly once.
type Locker interface {
	Lock(ctx context.Context, key string) (release func(), err error)
}

// KeyedMutex is an in-process Locker. It is sufficient when all writers for a
// deployment run inside one process; multi-process deployments need the Redis
// locker instead.
type KeyedMutex struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// NewKeyedMutex creates an empty KeyedMutex.
func NewKeyedMutex() *KeyedMutex {
	return &KeyedMutex{locks: make(map[string]*sync.Mutex)}
}

// Lock acquires the mutex for key, creating it on first use.
func (m *KeyedMutex) Lock(_ context.Context, key string) (func(), error) {
	m.mu.Lock()
	lock, ok := m.locks[key]
	if !ok {
		lock = &sync.Mutex{}
		m.locks[key] = lock
	}
	m.mu.Unlock()

	lock.Lock()
	return lock.Unlock, nil
}
