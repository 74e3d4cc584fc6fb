package store

import (
	"sync"

	"morphire/internal/identity"
)

// keyLocks hands out one mutex per storage key. Entries are dropped once no
// session holds or waits on them.
type keyLocks struct {
	mu    sync.Mutex
	locks map[identity.StorageKey]*keyLock
}

type keyLock struct {
	mu   sync.Mutex
	refs int
}

func newKeyLocks() *keyLocks {
	return &keyLocks{locks: map[identity.StorageKey]*keyLock{}}
}

// acquire blocks until key is free and returns its release func.
func (l *keyLocks) acquire(key identity.StorageKey) func() {
	l.mu.Lock()
	entry, ok := l.locks[key]
	if !ok {
		entry = &keyLock{}
		l.locks[key] = entry
	}
	entry.refs++
	l.mu.Unlock()

	entry.mu.Lock()
	return func() {
		entry.mu.Unlock()
		l.mu.Lock()
		entry.refs--
		if entry.refs == 0 {
			delete(l.locks, key)
		}
		l.mu.Unlock()
	}
}

func (l *keyLocks) size() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.locks)
}
