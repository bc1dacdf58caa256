package services

import (
	"context"
	"sync"
)

// KeyLocks is a set of per-key mutexes. Entries are reference counted and
// removed when the last holder or waiter leaves, so the map only holds keys
// that are in use. Distinct keys never block each other.
type KeyLocks struct {
	mu sync.Mutex
	m  map[string]*keyLock
}

type keyLock struct {
	ch   chan struct{}
	refs int
}

// NewKeyLocks returns an empty lock set.
func NewKeyLocks() *KeyLocks {
	return &KeyLocks{m: make(map[string]*keyLock)}
}

// Lock blocks until the lock for key is held or ctx is done. On success it
// returns the release function, which must be called exactly once.
func (l *KeyLocks) Lock(ctx context.Context, key string) (func(), error) {
	l.mu.Lock()
	kl, ok := l.m[key]
	if !ok {
		kl = &keyLock{ch: make(chan struct{}, 1)}
		l.m[key] = kl
	}
	kl.refs++
	l.mu.Unlock()

	select {
	case kl.ch <- struct{}{}:
		return func() {
			<-kl.ch
			l.unref(key, kl)
		}, nil
	case <-ctx.Done():
		l.unref(key, kl)
		return nil, ctx.Err()
	}
}

func (l *KeyLocks) unref(key string, kl *keyLock) {
	l.mu.Lock()
	kl.refs--
	if kl.refs == 0 {
		delete(l.m, key)
	}
	l.mu.Unlock()
}

// size reports the number of live entries.
func (l *KeyLocks) size() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.m)
}

func wordKey(userID, lemma string) string {
	return userID + "\x00" + lemma
}
